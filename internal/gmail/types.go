package gmail

// MessageSummary is one entry of a message listing.
type MessageSummary struct {
	ID       string   `json:"id"`
	ThreadID string   `json:"threadId"`
	From     string   `json:"from"`
	To       string   `json:"to,omitempty"`
	Subject  string   `json:"subject"`
	Date     string   `json:"date"`
	Snippet  string   `json:"snippet"`
	LabelIDs []string `json:"labelIds,omitempty"`
}

// MessageList is one page of message summaries.
type MessageList struct {
	Messages           []MessageSummary `json:"messages"`
	NextPageToken      string           `json:"nextPageToken,omitempty"`
	ResultSizeEstimate int64            `json:"resultSizeEstimate"`
}

// MessageDetail is a fully resolved message.
type MessageDetail struct {
	ID           string           `json:"id"`
	ThreadID     string           `json:"threadId"`
	LabelIDs     []string         `json:"labelIds,omitempty"`
	Snippet      string           `json:"snippet"`
	From         string           `json:"from"`
	To           string           `json:"to"`
	Cc           string           `json:"cc,omitempty"`
	Subject      string           `json:"subject"`
	Date         string           `json:"date"`
	MessageID    string           `json:"messageId,omitempty"`
	Body         string           `json:"body"`
	BodyMimeType string           `json:"bodyMimeType,omitempty"`
	Attachments  []AttachmentInfo `json:"attachments"`
}

// RawMessage is a message fetched in raw form and decoded locally.
type RawMessage struct {
	ID       string `json:"id"`
	ThreadID string `json:"threadId"`
	*ParsedMessage
}

// Thread is a conversation with its messages summarized.
type Thread struct {
	ID       string           `json:"id"`
	Snippet  string           `json:"snippet,omitempty"`
	Messages []MessageSummary `json:"messages"`
}

// SentMessage describes a message accepted by Gmail.
type SentMessage struct {
	ID       string   `json:"id"`
	ThreadID string   `json:"threadId"`
	LabelIDs []string `json:"labelIds,omitempty"`
	To       string   `json:"to,omitempty"`
	Subject  string   `json:"subject,omitempty"`
}

// LabelState is the label set of a message after a change.
type LabelState struct {
	ID       string   `json:"id"`
	LabelIDs []string `json:"labelIds"`
}

// AttachmentInfo is attachment metadata derived from a message payload.
type AttachmentInfo struct {
	ID       string `json:"id"`
	PartID   string `json:"partId,omitempty"`
	Filename string `json:"filename"`
	MimeType string `json:"mimeType"`
	Size     int64  `json:"size"`
}

// Label is a Gmail label.
type Label struct {
	ID                    string `json:"id"`
	Name                  string `json:"name"`
	Type                  string `json:"type,omitempty"`
	LabelListVisibility   string `json:"labelListVisibility,omitempty"`
	MessageListVisibility string `json:"messageListVisibility,omitempty"`
	MessagesTotal         int64  `json:"messagesTotal,omitempty"`
	MessagesUnread        int64  `json:"messagesUnread,omitempty"`
}

// LabelSpec holds the mutable fields of a label. Empty fields are left
// unchanged on update.
type LabelSpec struct {
	Name                  string
	LabelListVisibility   string
	MessageListVisibility string
}

// Draft is a draft with its wrapped message.
type Draft struct {
	ID      string         `json:"id"`
	Message *MessageDetail `json:"message,omitempty"`
}

// DraftSummary is one entry of a draft listing.
type DraftSummary struct {
	ID        string `json:"id"`
	MessageID string `json:"messageId"`
	ThreadID  string `json:"threadId,omitempty"`
}

// DraftList is one page of drafts.
type DraftList struct {
	Drafts             []DraftSummary `json:"drafts"`
	NextPageToken      string         `json:"nextPageToken,omitempty"`
	ResultSizeEstimate int64          `json:"resultSizeEstimate"`
}

// Profile is the authenticated mailbox profile.
type Profile struct {
	EmailAddress  string `json:"emailAddress"`
	MessagesTotal int64  `json:"messagesTotal"`
	ThreadsTotal  int64  `json:"threadsTotal"`
	HistoryID     uint64 `json:"historyId"`
}
