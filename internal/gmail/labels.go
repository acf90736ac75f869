package gmail

import (
	"context"
	"fmt"
	"sort"
	"strings"

	gmail "google.golang.org/api/gmail/v1"
)

// System label ids. They can be toggled on a message but never created,
// renamed or deleted.
const (
	LabelInbox     = "INBOX"
	LabelUnread    = "UNREAD"
	LabelStarred   = "STARRED"
	LabelTrash     = "TRASH"
	LabelSpam      = "SPAM"
	LabelSent      = "SENT"
	LabelDraft     = "DRAFT"
	LabelImportant = "IMPORTANT"
	LabelChat      = "CHAT"
)

var systemLabels = map[string]bool{
	LabelInbox:     true,
	LabelUnread:    true,
	LabelStarred:   true,
	LabelTrash:     true,
	LabelSpam:      true,
	LabelSent:      true,
	LabelDraft:     true,
	LabelImportant: true,
	LabelChat:      true,
}

// IsSystemLabel reports whether id names a provider-reserved label.
func IsSystemLabel(id string) bool {
	return systemLabels[strings.ToUpper(id)] || strings.HasPrefix(strings.ToUpper(id), "CATEGORY_")
}

// LabelDelta is a set of label ids to add to and remove from a message.
type LabelDelta struct {
	Add    []string `json:"addLabelIds,omitempty"`
	Remove []string `json:"removeLabelIds,omitempty"`
}

// IsEmpty reports whether the delta changes nothing.
func (d LabelDelta) IsEmpty() bool {
	return len(d.Add) == 0 && len(d.Remove) == 0
}

// Apply returns labels with the delta applied: additions first, then
// removals, so an id named on both sides ends up removed. The result is a
// sorted set.
func (d LabelDelta) Apply(labels []string) []string {
	set := make(map[string]bool, len(labels)+len(d.Add))
	for _, l := range labels {
		set[l] = true
	}
	for _, l := range d.Add {
		set[l] = true
	}
	for _, l := range d.Remove {
		delete(set, l)
	}

	out := make([]string, 0, len(set))
	for l := range set {
		out = append(out, l)
	}
	sort.Strings(out)
	return out
}

// Action is a semantic mailbox action expressed as a label delta.
type Action int

const (
	ActionMarkRead Action = iota
	ActionMarkUnread
	ActionStar
	ActionUnstar
	ActionArchive
	ActionUnarchive
)

func (a Action) String() string {
	switch a {
	case ActionMarkRead:
		return "mark-read"
	case ActionMarkUnread:
		return "mark-unread"
	case ActionStar:
		return "star"
	case ActionUnstar:
		return "unstar"
	case ActionArchive:
		return "archive"
	case ActionUnarchive:
		return "unarchive"
	default:
		return fmt.Sprintf("Action(%d)", int(a))
	}
}

// Delta returns the label change the action stands for.
func (a Action) Delta() LabelDelta {
	switch a {
	case ActionMarkRead:
		return LabelDelta{Remove: []string{LabelUnread}}
	case ActionMarkUnread:
		return LabelDelta{Add: []string{LabelUnread}}
	case ActionStar:
		return LabelDelta{Add: []string{LabelStarred}}
	case ActionUnstar:
		return LabelDelta{Remove: []string{LabelStarred}}
	case ActionArchive:
		return LabelDelta{Remove: []string{LabelInbox}}
	case ActionUnarchive:
		return LabelDelta{Add: []string{LabelInbox}}
	default:
		return LabelDelta{}
	}
}

// ListLabels returns every label of the mailbox.
func (c *Client) ListLabels(ctx context.Context) ([]Label, error) {
	labels, err := c.api.ListLabels(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list labels: %w", err)
	}
	out := make([]Label, 0, len(labels))
	for _, l := range labels {
		out = append(out, toLabel(l))
	}
	return out, nil
}

// CreateLabel creates a user label.
func (c *Client) CreateLabel(ctx context.Context, spec LabelSpec) (*Label, error) {
	created, err := c.api.CreateLabel(ctx, &gmail.Label{
		Name:                  spec.Name,
		LabelListVisibility:   spec.LabelListVisibility,
		MessageListVisibility: spec.MessageListVisibility,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create label %q: %w", spec.Name, err)
	}
	l := toLabel(created)
	return &l, nil
}

// UpdateLabel patches the non-empty fields of spec onto label id.
func (c *Client) UpdateLabel(ctx context.Context, id string, spec LabelSpec) (*Label, error) {
	patched, err := c.api.PatchLabel(ctx, id, &gmail.Label{
		Name:                  spec.Name,
		LabelListVisibility:   spec.LabelListVisibility,
		MessageListVisibility: spec.MessageListVisibility,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to update label %s: %w", id, err)
	}
	l := toLabel(patched)
	return &l, nil
}

// DeleteLabel deletes user label id.
func (c *Client) DeleteLabel(ctx context.Context, id string) error {
	if err := c.api.DeleteLabel(ctx, id); err != nil {
		return fmt.Errorf("failed to delete label %s: %w", id, err)
	}
	return nil
}

func toLabel(l *gmail.Label) Label {
	return Label{
		ID:                    l.Id,
		Name:                  l.Name,
		Type:                  l.Type,
		LabelListVisibility:   l.LabelListVisibility,
		MessageListVisibility: l.MessageListVisibility,
		MessagesTotal:         l.MessagesTotal,
		MessagesUnread:        l.MessagesUnread,
	}
}
