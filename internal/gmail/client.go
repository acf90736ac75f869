package gmail

import (
	"context"
	"fmt"
	"net/http"

	gmail "google.golang.org/api/gmail/v1"

	"github.com/teemow/gmailmcp/internal/logging"
)

const (
	// DefaultMaxResults is the page size used when a caller asks for none.
	DefaultMaxResults = 10
	// MaxPageSize is the largest page Gmail serves for messages and drafts.
	MaxPageSize = 500
	// MaxBatchSize is the largest id list Gmail accepts in one batch call.
	MaxBatchSize = 1000
)

// summaryHeaders is the metadata allowlist fetched for listings.
var summaryHeaders = []string{"From", "To", "Subject", "Date"}

// Client is the Gmail mailbox the tools operate on.
type Client struct {
	api    API
	logger logging.Logger
}

// NewClient creates a client over an authenticated HTTP client.
func NewClient(ctx context.Context, httpClient *http.Client, logger logging.Logger) (*Client, error) {
	api, err := NewAPI(ctx, httpClient)
	if err != nil {
		return nil, err
	}
	return NewClientWithAPI(api, logger), nil
}

// NewClientWithAPI creates a client over an existing API implementation.
func NewClientWithAPI(api API, logger logging.Logger) *Client {
	if logger == nil {
		logger = logging.NewSlogAdapter(nil)
	}
	return &Client{api: api, logger: logger}
}

// ClampMaxResults applies the default page size and the Gmail maximum.
func ClampMaxResults(n int64) int64 {
	switch {
	case n <= 0:
		return DefaultMaxResults
	case n > MaxPageSize:
		return MaxPageSize
	default:
		return n
	}
}

// ListMessages returns one page of messages matching q. Each message is
// fetched with metadata format to fill in its summary.
func (c *Client) ListMessages(ctx context.Context, q MessageQuery) (*MessageList, error) {
	q.MaxResults = ClampMaxResults(q.MaxResults)

	res, err := c.api.ListMessages(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}

	list := &MessageList{
		Messages:           make([]MessageSummary, 0, len(res.Messages)),
		NextPageToken:      res.NextPageToken,
		ResultSizeEstimate: res.ResultSizeEstimate,
	}
	for _, ref := range res.Messages {
		msg, err := c.api.GetMessage(ctx, ref.Id, "metadata", summaryHeaders...)
		if err != nil {
			return nil, fmt.Errorf("failed to get message %s: %w", ref.Id, err)
		}
		list.Messages = append(list.Messages, summarize(msg))
	}

	c.logger.Debug("listed messages", "query", q.Q, "count", len(list.Messages))
	return list, nil
}

func summarize(msg *gmail.Message) MessageSummary {
	h := HeadersOf(msg)
	return MessageSummary{
		ID:       msg.Id,
		ThreadID: msg.ThreadId,
		From:     h.Get("From"),
		To:       h.Get("To"),
		Subject:  h.Get("Subject"),
		Date:     h.Get("Date"),
		Snippet:  msg.Snippet,
		LabelIDs: msg.LabelIds,
	}
}

// GetMessage fetches a message in full and resolves its body and
// attachments. bodyFormat selects how an HTML body is rendered.
func (c *Client) GetMessage(ctx context.Context, id, bodyFormat string) (*MessageDetail, error) {
	msg, err := c.getFull(ctx, id)
	if err != nil {
		return nil, err
	}
	return detail(msg, bodyFormat)
}

// GetMessageMetadata fetches only the summary headers of a message.
func (c *Client) GetMessageMetadata(ctx context.Context, id string) (*MessageSummary, error) {
	msg, err := c.api.GetMessage(ctx, id, "metadata", summaryHeaders...)
	if err != nil {
		return nil, fmt.Errorf("failed to get message %s: %w", id, err)
	}
	summary := summarize(msg)
	return &summary, nil
}

// GetRawMessage fetches a message in raw form and decodes it locally.
func (c *Client) GetRawMessage(ctx context.Context, id string) (*RawMessage, error) {
	msg, err := c.api.GetMessage(ctx, id, "raw")
	if err != nil {
		return nil, fmt.Errorf("failed to get message %s: %w", id, err)
	}
	raw, err := DecodeBase64URL(msg.Raw)
	if err != nil {
		return nil, fmt.Errorf("failed to decode raw message %s: %w", id, err)
	}
	parsed, err := ParseRaw(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to parse raw message %s: %w", id, err)
	}
	return &RawMessage{ID: msg.Id, ThreadID: msg.ThreadId, ParsedMessage: parsed}, nil
}

func (c *Client) getFull(ctx context.Context, id string) (*gmail.Message, error) {
	msg, err := c.api.GetMessage(ctx, id, "full")
	if err != nil {
		return nil, fmt.Errorf("failed to get message %s: %w", id, err)
	}
	return msg, nil
}

func detail(msg *gmail.Message, bodyFormat string) (*MessageDetail, error) {
	tree := NewPartTree(msg.Payload)
	body, err := ConvertBody(tree.ResolveBody(), bodyFormat)
	if err != nil {
		return nil, err
	}

	h := HeadersOf(msg)
	return &MessageDetail{
		ID:           msg.Id,
		ThreadID:     msg.ThreadId,
		LabelIDs:     msg.LabelIds,
		Snippet:      msg.Snippet,
		From:         h.Get("From"),
		To:           h.Get("To"),
		Cc:           h.Get("Cc"),
		Subject:      h.Get("Subject"),
		Date:         h.Get("Date"),
		MessageID:    h.Get("Message-ID"),
		Body:         body.Text,
		BodyMimeType: body.MimeType,
		Attachments:  tree.Attachments(),
	}, nil
}

// GetThread returns a thread with each message summarized.
func (c *Client) GetThread(ctx context.Context, id string) (*Thread, error) {
	t, err := c.api.GetThread(ctx, id, summaryHeaders...)
	if err != nil {
		return nil, fmt.Errorf("failed to get thread %s: %w", id, err)
	}
	thread := &Thread{ID: t.Id, Snippet: t.Snippet, Messages: make([]MessageSummary, 0, len(t.Messages))}
	for _, msg := range t.Messages {
		thread.Messages = append(thread.Messages, summarize(msg))
	}
	return thread, nil
}

// Send sends a new plain-text message.
func (c *Client) Send(ctx context.Context, o Outgoing) (*SentMessage, error) {
	sent, err := c.send(ctx, BuildRaw(o), "")
	if err != nil {
		return nil, err
	}
	sent.To, sent.Subject = o.To, o.Subject
	return sent, nil
}

func (c *Client) send(ctx context.Context, raw []byte, threadID string) (*SentMessage, error) {
	sent, err := c.api.SendMessage(ctx, &gmail.Message{Raw: EncodeRaw(raw), ThreadId: threadID})
	if err != nil {
		return nil, fmt.Errorf("failed to send message: %w", err)
	}
	return &SentMessage{ID: sent.Id, ThreadID: sent.ThreadId, LabelIDs: sent.LabelIds}, nil
}

// Reply answers message id on its thread.
func (c *Client) Reply(ctx context.Context, id string, opts ReplyOptions) (*SentMessage, error) {
	original, err := c.api.GetMessage(ctx, id, "metadata", "From", "To", "Cc", "Subject", "Message-ID", "References")
	if err != nil {
		return nil, fmt.Errorf("failed to get original message: %w", err)
	}
	headers := HeadersOf(original)
	if headers.Get("From") == "" {
		return nil, fmt.Errorf("original message %s has no From header", id)
	}

	reply := ComposeReply(headers, opts)
	sent, err := c.send(ctx, reply.Raw, original.ThreadId)
	if err != nil {
		return nil, err
	}
	sent.To, sent.Subject = reply.To, reply.Subject

	c.logger.Debug("reply sent", "message_id", id, "reply_all", opts.ReplyAll)
	return sent, nil
}

// Forward sends message id to new recipients as a fresh, unthreaded message.
func (c *Client) Forward(ctx context.Context, id, to, additional, cc, bcc string) (*SentMessage, error) {
	original, err := c.getFull(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get original message: %w", err)
	}

	fwd := ComposeForward(HeadersOf(original), ResolveBody(original.Payload), additional)
	return c.Send(ctx, Outgoing{
		To:      to,
		Subject: fwd.Subject,
		Body:    fwd.Body,
		Cc:      cc,
		Bcc:     bcc,
	})
}

// ModifyLabels applies delta to message id.
func (c *Client) ModifyLabels(ctx context.Context, id string, delta LabelDelta) (*LabelState, error) {
	msg, err := c.api.ModifyMessage(ctx, id, &gmail.ModifyMessageRequest{
		AddLabelIds:    delta.Add,
		RemoveLabelIds: delta.Remove,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to modify labels of message %s: %w", id, err)
	}
	return &LabelState{ID: msg.Id, LabelIDs: nonNil(msg.LabelIds)}, nil
}

// Apply performs a semantic action on message id.
func (c *Client) Apply(ctx context.Context, id string, action Action) (*LabelState, error) {
	return c.ModifyLabels(ctx, id, action.Delta())
}

// Trash moves message id to the trash.
func (c *Client) Trash(ctx context.Context, id string) (*LabelState, error) {
	msg, err := c.api.TrashMessage(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to trash message %s: %w", id, err)
	}
	return &LabelState{ID: msg.Id, LabelIDs: nonNil(msg.LabelIds)}, nil
}

// Untrash restores message id from the trash.
func (c *Client) Untrash(ctx context.Context, id string) (*LabelState, error) {
	msg, err := c.api.UntrashMessage(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to untrash message %s: %w", id, err)
	}
	return &LabelState{ID: msg.Id, LabelIDs: nonNil(msg.LabelIds)}, nil
}

// Delete permanently deletes message id.
func (c *Client) Delete(ctx context.Context, id string) error {
	if err := c.api.DeleteMessage(ctx, id); err != nil {
		return fmt.Errorf("failed to delete message %s: %w", id, err)
	}
	return nil
}

// BatchModify applies delta to every id. Requests are chunked to the Gmail
// batch limit, so atomicity only holds within a chunk.
func (c *Client) BatchModify(ctx context.Context, ids []string, delta LabelDelta) error {
	for _, chunk := range chunk(ids, MaxBatchSize) {
		err := c.api.BatchModifyMessages(ctx, &gmail.BatchModifyMessagesRequest{
			Ids:            chunk,
			AddLabelIds:    delta.Add,
			RemoveLabelIds: delta.Remove,
		})
		if err != nil {
			return fmt.Errorf("failed to batch modify %d messages: %w", len(chunk), err)
		}
	}
	return nil
}

// BatchDelete permanently deletes every id, chunked like BatchModify.
func (c *Client) BatchDelete(ctx context.Context, ids []string) error {
	for _, chunk := range chunk(ids, MaxBatchSize) {
		if err := c.api.BatchDeleteMessages(ctx, chunk); err != nil {
			return fmt.Errorf("failed to batch delete %d messages: %w", len(chunk), err)
		}
	}
	return nil
}

func chunk(ids []string, size int) [][]string {
	var chunks [][]string
	for len(ids) > size {
		chunks = append(chunks, ids[:size])
		ids = ids[size:]
	}
	if len(ids) > 0 {
		chunks = append(chunks, ids)
	}
	return chunks
}

// Profile returns the mailbox profile.
func (c *Client) Profile(ctx context.Context) (*Profile, error) {
	p, err := c.api.GetProfile(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	return &Profile{
		EmailAddress:  p.EmailAddress,
		MessagesTotal: p.MessagesTotal,
		ThreadsTotal:  p.ThreadsTotal,
		HistoryID:     p.HistoryId,
	}, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
