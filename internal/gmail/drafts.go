package gmail

import (
	"context"
	"fmt"

	gmail "google.golang.org/api/gmail/v1"
)

// CreateDraft stores o as a new draft.
func (c *Client) CreateDraft(ctx context.Context, o Outgoing) (*Draft, error) {
	d, err := c.api.CreateDraft(ctx, &gmail.Draft{Message: &gmail.Message{Raw: EncodeRaw(BuildRaw(o))}})
	if err != nil {
		return nil, fmt.Errorf("failed to create draft: %w", err)
	}
	return toDraft(d)
}

// ListDrafts returns one page of drafts.
func (c *Client) ListDrafts(ctx context.Context, q, pageToken string, maxResults int64) (*DraftList, error) {
	res, err := c.api.ListDrafts(ctx, q, pageToken, ClampMaxResults(maxResults))
	if err != nil {
		return nil, fmt.Errorf("failed to list drafts: %w", err)
	}

	list := &DraftList{
		Drafts:             make([]DraftSummary, 0, len(res.Drafts)),
		NextPageToken:      res.NextPageToken,
		ResultSizeEstimate: res.ResultSizeEstimate,
	}
	for _, d := range res.Drafts {
		s := DraftSummary{ID: d.Id}
		if d.Message != nil {
			s.MessageID, s.ThreadID = d.Message.Id, d.Message.ThreadId
		}
		list.Drafts = append(list.Drafts, s)
	}
	return list, nil
}

// GetDraft fetches draft id with its message resolved.
func (c *Client) GetDraft(ctx context.Context, id string) (*Draft, error) {
	d, err := c.api.GetDraft(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get draft %s: %w", id, err)
	}
	return toDraft(d)
}

// UpdateDraft replaces the content of draft id with o.
func (c *Client) UpdateDraft(ctx context.Context, id string, o Outgoing) (*Draft, error) {
	d, err := c.api.UpdateDraft(ctx, id, &gmail.Draft{
		Id:      id,
		Message: &gmail.Message{Raw: EncodeRaw(BuildRaw(o))},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to update draft %s: %w", id, err)
	}
	return toDraft(d)
}

// SendDraft sends draft id.
func (c *Client) SendDraft(ctx context.Context, id string) (*SentMessage, error) {
	msg, err := c.api.SendDraft(ctx, &gmail.Draft{Id: id})
	if err != nil {
		return nil, fmt.Errorf("failed to send draft %s: %w", id, err)
	}
	return &SentMessage{ID: msg.Id, ThreadID: msg.ThreadId, LabelIDs: msg.LabelIds}, nil
}

// DeleteDraft discards draft id.
func (c *Client) DeleteDraft(ctx context.Context, id string) error {
	if err := c.api.DeleteDraft(ctx, id); err != nil {
		return fmt.Errorf("failed to delete draft %s: %w", id, err)
	}
	return nil
}

// toDraft resolves the wrapped message. Create and update responses carry
// only message ids, in which case Message has no headers or body.
func toDraft(d *gmail.Draft) (*Draft, error) {
	out := &Draft{ID: d.Id}
	if d.Message == nil {
		return out, nil
	}
	msg, err := detail(d.Message, BodyFormatRaw)
	if err != nil {
		return nil, err
	}
	out.Message = msg
	return out, nil
}
