package gmail

import (
	"context"
	"fmt"
	"net/http"

	gmail "google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"
)

// userID addresses the authenticated mailbox in every Gmail call.
const userID = "me"

// MessageQuery selects one page of messages.
type MessageQuery struct {
	Q                string
	LabelIDs         []string
	PageToken        string
	MaxResults       int64
	IncludeSpamTrash bool
}

// API is the subset of the Gmail users service the client relies on. It is
// satisfied by NewAPI for production and by gmailtest.Mailbox in tests.
type API interface {
	ListMessages(ctx context.Context, q MessageQuery) (*gmail.ListMessagesResponse, error)
	GetMessage(ctx context.Context, id, format string, metadataHeaders ...string) (*gmail.Message, error)
	SendMessage(ctx context.Context, msg *gmail.Message) (*gmail.Message, error)
	ModifyMessage(ctx context.Context, id string, req *gmail.ModifyMessageRequest) (*gmail.Message, error)
	TrashMessage(ctx context.Context, id string) (*gmail.Message, error)
	UntrashMessage(ctx context.Context, id string) (*gmail.Message, error)
	DeleteMessage(ctx context.Context, id string) error
	BatchModifyMessages(ctx context.Context, req *gmail.BatchModifyMessagesRequest) error
	BatchDeleteMessages(ctx context.Context, ids []string) error
	GetAttachment(ctx context.Context, messageID, attachmentID string) (*gmail.MessagePartBody, error)

	GetThread(ctx context.Context, id string, metadataHeaders ...string) (*gmail.Thread, error)

	ListLabels(ctx context.Context) ([]*gmail.Label, error)
	CreateLabel(ctx context.Context, label *gmail.Label) (*gmail.Label, error)
	PatchLabel(ctx context.Context, id string, label *gmail.Label) (*gmail.Label, error)
	DeleteLabel(ctx context.Context, id string) error

	CreateDraft(ctx context.Context, draft *gmail.Draft) (*gmail.Draft, error)
	ListDrafts(ctx context.Context, q, pageToken string, maxResults int64) (*gmail.ListDraftsResponse, error)
	GetDraft(ctx context.Context, id string) (*gmail.Draft, error)
	UpdateDraft(ctx context.Context, id string, draft *gmail.Draft) (*gmail.Draft, error)
	SendDraft(ctx context.Context, draft *gmail.Draft) (*gmail.Message, error)
	DeleteDraft(ctx context.Context, id string) error

	GetProfile(ctx context.Context) (*gmail.Profile, error)
}

// googleAPI adapts *gmail.UsersService to API.
type googleAPI struct {
	svc *gmail.UsersService
}

// NewAPI builds the Gmail service on top of an authenticated HTTP client.
func NewAPI(ctx context.Context, httpClient *http.Client) (API, error) {
	svc, err := gmail.NewService(ctx, option.WithHTTPClient(httpClient))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gmail service: %w", err)
	}
	return &googleAPI{svc: svc.Users}, nil
}

func (g *googleAPI) ListMessages(ctx context.Context, q MessageQuery) (*gmail.ListMessagesResponse, error) {
	call := g.svc.Messages.List(userID).IncludeSpamTrash(q.IncludeSpamTrash)
	if q.Q != "" {
		call = call.Q(q.Q)
	}
	if len(q.LabelIDs) > 0 {
		call = call.LabelIds(q.LabelIDs...)
	}
	if q.PageToken != "" {
		call = call.PageToken(q.PageToken)
	}
	if q.MaxResults > 0 {
		call = call.MaxResults(q.MaxResults)
	}
	return call.Context(ctx).Do()
}

func (g *googleAPI) GetMessage(ctx context.Context, id, format string, metadataHeaders ...string) (*gmail.Message, error) {
	call := g.svc.Messages.Get(userID, id).Format(format)
	if len(metadataHeaders) > 0 {
		call = call.MetadataHeaders(metadataHeaders...)
	}
	return call.Context(ctx).Do()
}

func (g *googleAPI) SendMessage(ctx context.Context, msg *gmail.Message) (*gmail.Message, error) {
	return g.svc.Messages.Send(userID, msg).Context(ctx).Do()
}

func (g *googleAPI) ModifyMessage(ctx context.Context, id string, req *gmail.ModifyMessageRequest) (*gmail.Message, error) {
	return g.svc.Messages.Modify(userID, id, req).Context(ctx).Do()
}

func (g *googleAPI) TrashMessage(ctx context.Context, id string) (*gmail.Message, error) {
	return g.svc.Messages.Trash(userID, id).Context(ctx).Do()
}

func (g *googleAPI) UntrashMessage(ctx context.Context, id string) (*gmail.Message, error) {
	return g.svc.Messages.Untrash(userID, id).Context(ctx).Do()
}

func (g *googleAPI) DeleteMessage(ctx context.Context, id string) error {
	return g.svc.Messages.Delete(userID, id).Context(ctx).Do()
}

func (g *googleAPI) BatchModifyMessages(ctx context.Context, req *gmail.BatchModifyMessagesRequest) error {
	return g.svc.Messages.BatchModify(userID, req).Context(ctx).Do()
}

func (g *googleAPI) BatchDeleteMessages(ctx context.Context, ids []string) error {
	return g.svc.Messages.BatchDelete(userID, &gmail.BatchDeleteMessagesRequest{Ids: ids}).Context(ctx).Do()
}

func (g *googleAPI) GetAttachment(ctx context.Context, messageID, attachmentID string) (*gmail.MessagePartBody, error) {
	return g.svc.Messages.Attachments.Get(userID, messageID, attachmentID).Context(ctx).Do()
}

func (g *googleAPI) GetThread(ctx context.Context, id string, metadataHeaders ...string) (*gmail.Thread, error) {
	return g.svc.Threads.Get(userID, id).Format("metadata").MetadataHeaders(metadataHeaders...).Context(ctx).Do()
}

func (g *googleAPI) ListLabels(ctx context.Context) ([]*gmail.Label, error) {
	res, err := g.svc.Labels.List(userID).Context(ctx).Do()
	if err != nil {
		return nil, err
	}
	return res.Labels, nil
}

func (g *googleAPI) CreateLabel(ctx context.Context, label *gmail.Label) (*gmail.Label, error) {
	return g.svc.Labels.Create(userID, label).Context(ctx).Do()
}

func (g *googleAPI) PatchLabel(ctx context.Context, id string, label *gmail.Label) (*gmail.Label, error) {
	return g.svc.Labels.Patch(userID, id, label).Context(ctx).Do()
}

func (g *googleAPI) DeleteLabel(ctx context.Context, id string) error {
	return g.svc.Labels.Delete(userID, id).Context(ctx).Do()
}

func (g *googleAPI) CreateDraft(ctx context.Context, draft *gmail.Draft) (*gmail.Draft, error) {
	return g.svc.Drafts.Create(userID, draft).Context(ctx).Do()
}

func (g *googleAPI) ListDrafts(ctx context.Context, q, pageToken string, maxResults int64) (*gmail.ListDraftsResponse, error) {
	call := g.svc.Drafts.List(userID)
	if q != "" {
		call = call.Q(q)
	}
	if pageToken != "" {
		call = call.PageToken(pageToken)
	}
	if maxResults > 0 {
		call = call.MaxResults(maxResults)
	}
	return call.Context(ctx).Do()
}

func (g *googleAPI) GetDraft(ctx context.Context, id string) (*gmail.Draft, error) {
	return g.svc.Drafts.Get(userID, id).Format("full").Context(ctx).Do()
}

func (g *googleAPI) UpdateDraft(ctx context.Context, id string, draft *gmail.Draft) (*gmail.Draft, error) {
	return g.svc.Drafts.Update(userID, id, draft).Context(ctx).Do()
}

func (g *googleAPI) SendDraft(ctx context.Context, draft *gmail.Draft) (*gmail.Message, error) {
	return g.svc.Drafts.Send(userID, draft).Context(ctx).Do()
}

func (g *googleAPI) DeleteDraft(ctx context.Context, id string) error {
	return g.svc.Drafts.Delete(userID, id).Context(ctx).Do()
}

func (g *googleAPI) GetProfile(ctx context.Context) (*gmail.Profile, error) {
	return g.svc.GetProfile(userID).Context(ctx).Do()
}
