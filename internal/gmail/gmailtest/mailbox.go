// Package gmailtest provides an in-memory Gmail mailbox implementing
// gmail.API, for tests of the client and the tools built on it.
package gmailtest

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"sync"

	gmailapi "google.golang.org/api/gmail/v1"
	"google.golang.org/api/googleapi"

	"github.com/teemow/gmailmcp/internal/gmail"
)

// Message describes a message to seed into a Mailbox.
type Message struct {
	ID         string
	ThreadID   string
	From       string
	To         string
	Cc         string
	Subject    string
	Date       string
	MessageID  string
	References string
	Snippet    string
	Body       string
	LabelIDs   []string
	// Payload replaces the generated single-part text/plain payload. The
	// header fields above are still set on it.
	Payload *gmailapi.MessagePart
}

// Mailbox is an in-memory gmail.API. The zero value is not usable; call
// NewMailbox.
type Mailbox struct {
	mu sync.Mutex

	messages    map[string]*gmailapi.Message
	order       []string
	labels      map[string]*gmailapi.Label
	drafts      map[string]*gmailapi.Draft
	attachments map[string]*gmailapi.MessagePartBody
	failures    map[string]error
	nextID      int

	// Email is reported by GetProfile.
	Email string
	// Sent holds every message accepted by SendMessage or SendDraft.
	Sent []*gmailapi.Message
	// BatchSizes records the id count of every batch call.
	BatchSizes []int
	// Calls records every API method invoked, in order.
	Calls []string
}

var _ gmail.API = (*Mailbox)(nil)

// NewMailbox returns an empty mailbox holding the system labels.
func NewMailbox() *Mailbox {
	m := &Mailbox{
		messages:    make(map[string]*gmailapi.Message),
		labels:      make(map[string]*gmailapi.Label),
		drafts:      make(map[string]*gmailapi.Draft),
		attachments: make(map[string]*gmailapi.MessagePartBody),
		failures:    make(map[string]error),
		Email:       "me@example.com",
	}
	for _, id := range []string{
		gmail.LabelInbox, gmail.LabelUnread, gmail.LabelStarred, gmail.LabelTrash,
		gmail.LabelSpam, gmail.LabelSent, gmail.LabelDraft, gmail.LabelImportant,
	} {
		m.labels[id] = &gmailapi.Label{Id: id, Name: id, Type: "system"}
	}
	return m
}

// Add seeds a message and returns its id. Missing ids are generated.
func (m *Mailbox) Add(spec Message) string {
	m.mu.Lock()
	defer m.mu.Unlock()

	if spec.ID == "" {
		spec.ID = m.newID("msg")
	}
	if spec.ThreadID == "" {
		spec.ThreadID = "thread-" + spec.ID
	}

	payload := spec.Payload
	if payload == nil {
		payload = textPart(spec.Body)
	}
	payload.Headers = append(headerList(
		"From", spec.From,
		"To", spec.To,
		"Cc", spec.Cc,
		"Subject", spec.Subject,
		"Date", spec.Date,
		"Message-ID", spec.MessageID,
		"References", spec.References,
	), payload.Headers...)

	m.put(&gmailapi.Message{
		Id:       spec.ID,
		ThreadId: spec.ThreadID,
		LabelIds: gmail.LabelDelta{Add: spec.LabelIDs}.Apply(nil),
		Snippet:  spec.Snippet,
		Payload:  payload,
	})
	return spec.ID
}

// AddAttachment stores attachment content for messageID.
func (m *Mailbox) AddAttachment(messageID, attachmentID string, data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.attachments[messageID+"/"+attachmentID] = &gmailapi.MessagePartBody{
		AttachmentId: attachmentID,
		Data:         gmail.EncodeRaw(data),
		Size:         int64(len(data)),
	}
}

// FailOn makes every later call of the named API method return err.
func (m *Mailbox) FailOn(method string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures[method] = err
}

// Labels returns the current label set of message id, or nil if absent.
func (m *Mailbox) Labels(id string) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if msg, ok := m.messages[id]; ok {
		return append([]string(nil), msg.LabelIds...)
	}
	return nil
}

// Has reports whether message id exists.
func (m *Mailbox) Has(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.messages[id]
	return ok
}

func (m *Mailbox) call(method string) error {
	m.Calls = append(m.Calls, method)
	return m.failures[method]
}

func (m *Mailbox) newID(prefix string) string {
	m.nextID++
	return prefix + "-" + strconv.Itoa(m.nextID)
}

func (m *Mailbox) put(msg *gmailapi.Message) {
	if _, exists := m.messages[msg.Id]; !exists {
		// Newest first, like Gmail listings.
		m.order = append([]string{msg.Id}, m.order...)
	}
	m.messages[msg.Id] = msg
}

func notFound(what, id string) error {
	return &googleapi.Error{
		Code:    http.StatusNotFound,
		Message: fmt.Sprintf("Requested entity was not found: %s %s", what, id),
	}
}

func (m *Mailbox) message(id string) (*gmailapi.Message, error) {
	msg, ok := m.messages[id]
	if !ok {
		return nil, notFound("message", id)
	}
	return msg, nil
}

func (m *Mailbox) ListMessages(_ context.Context, q gmail.MessageQuery) (*gmailapi.ListMessagesResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.call("ListMessages"); err != nil {
		return nil, err
	}

	var matched []*gmailapi.Message
	for _, id := range m.order {
		msg := m.messages[id]
		if matches(msg, q) {
			matched = append(matched, msg)
		}
	}

	start := 0
	if q.PageToken != "" {
		n, err := strconv.Atoi(q.PageToken)
		if err != nil || n < 0 || n > len(matched) {
			return nil, &googleapi.Error{Code: http.StatusBadRequest, Message: "Invalid pageToken"}
		}
		start = n
	}
	end := len(matched)
	if q.MaxResults > 0 && start+int(q.MaxResults) < end {
		end = start + int(q.MaxResults)
	}

	res := &gmailapi.ListMessagesResponse{ResultSizeEstimate: int64(len(matched))}
	for _, msg := range matched[start:end] {
		res.Messages = append(res.Messages, &gmailapi.Message{Id: msg.Id, ThreadId: msg.ThreadId})
	}
	if end < len(matched) {
		res.NextPageToken = strconv.Itoa(end)
	}
	return res, nil
}

func (m *Mailbox) GetMessage(_ context.Context, id, format string, metadataHeaders ...string) (*gmailapi.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.call("GetMessage"); err != nil {
		return nil, err
	}
	msg, err := m.message(id)
	if err != nil {
		return nil, err
	}
	return render(msg, format, metadataHeaders), nil
}

func (m *Mailbox) SendMessage(_ context.Context, msg *gmailapi.Message) (*gmailapi.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.call("SendMessage"); err != nil {
		return nil, err
	}
	stored, err := m.store(msg.Raw, msg.ThreadId, gmail.LabelSent)
	if err != nil {
		return nil, err
	}
	m.Sent = append(m.Sent, stored)
	return stored, nil
}

// store decodes raw and files it as a new message carrying label.
func (m *Mailbox) store(raw, threadID, label string) (*gmailapi.Message, error) {
	decoded, err := gmail.DecodeBase64URL(raw)
	if err != nil {
		return nil, &googleapi.Error{Code: http.StatusBadRequest, Message: "Invalid raw message: " + err.Error()}
	}
	parsed, err := gmail.ParseRaw(decoded)
	if err != nil {
		return nil, &googleapi.Error{Code: http.StatusBadRequest, Message: "Invalid raw message: " + err.Error()}
	}

	id := m.newID("msg")
	if threadID == "" {
		threadID = "thread-" + id
	}

	names := make([]string, 0, len(parsed.Headers))
	for name := range parsed.Headers {
		names = append(names, name)
	}
	sort.Strings(names)
	payload := textPart(parsed.Body)
	for _, name := range names {
		payload.Headers = append(payload.Headers, &gmailapi.MessagePartHeader{Name: name, Value: parsed.Headers[name]})
	}

	msg := &gmailapi.Message{
		Id:       id,
		ThreadId: threadID,
		LabelIds: []string{label},
		Raw:      raw,
		Payload:  payload,
	}
	m.put(msg)
	return msg, nil
}

func (m *Mailbox) ModifyMessage(_ context.Context, id string, req *gmailapi.ModifyMessageRequest) (*gmailapi.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.call("ModifyMessage"); err != nil {
		return nil, err
	}
	msg, err := m.message(id)
	if err != nil {
		return nil, err
	}
	msg.LabelIds = gmail.LabelDelta{Add: req.AddLabelIds, Remove: req.RemoveLabelIds}.Apply(msg.LabelIds)
	return &gmailapi.Message{Id: msg.Id, ThreadId: msg.ThreadId, LabelIds: msg.LabelIds}, nil
}

func (m *Mailbox) TrashMessage(_ context.Context, id string) (*gmailapi.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.call("TrashMessage"); err != nil {
		return nil, err
	}
	msg, err := m.message(id)
	if err != nil {
		return nil, err
	}
	msg.LabelIds = gmail.LabelDelta{Add: []string{gmail.LabelTrash}}.Apply(msg.LabelIds)
	return &gmailapi.Message{Id: msg.Id, ThreadId: msg.ThreadId, LabelIds: msg.LabelIds}, nil
}

func (m *Mailbox) UntrashMessage(_ context.Context, id string) (*gmailapi.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.call("UntrashMessage"); err != nil {
		return nil, err
	}
	msg, err := m.message(id)
	if err != nil {
		return nil, err
	}
	msg.LabelIds = gmail.LabelDelta{Remove: []string{gmail.LabelTrash}}.Apply(msg.LabelIds)
	return &gmailapi.Message{Id: msg.Id, ThreadId: msg.ThreadId, LabelIds: msg.LabelIds}, nil
}

func (m *Mailbox) DeleteMessage(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.call("DeleteMessage"); err != nil {
		return err
	}
	if _, err := m.message(id); err != nil {
		return err
	}
	m.remove(id)
	return nil
}

func (m *Mailbox) remove(id string) {
	delete(m.messages, id)
	for i, existing := range m.order {
		if existing == id {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
}

func (m *Mailbox) BatchModifyMessages(_ context.Context, req *gmailapi.BatchModifyMessagesRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.call("BatchModifyMessages"); err != nil {
		return err
	}
	m.BatchSizes = append(m.BatchSizes, len(req.Ids))
	delta := gmail.LabelDelta{Add: req.AddLabelIds, Remove: req.RemoveLabelIds}
	for _, id := range req.Ids {
		if msg, ok := m.messages[id]; ok {
			msg.LabelIds = delta.Apply(msg.LabelIds)
		}
	}
	return nil
}

func (m *Mailbox) BatchDeleteMessages(_ context.Context, ids []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.call("BatchDeleteMessages"); err != nil {
		return err
	}
	m.BatchSizes = append(m.BatchSizes, len(ids))
	for _, id := range ids {
		m.remove(id)
	}
	return nil
}

func (m *Mailbox) GetAttachment(_ context.Context, messageID, attachmentID string) (*gmailapi.MessagePartBody, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.call("GetAttachment"); err != nil {
		return nil, err
	}
	body, ok := m.attachments[messageID+"/"+attachmentID]
	if !ok {
		return nil, notFound("attachment", attachmentID)
	}
	return body, nil
}

func (m *Mailbox) GetThread(_ context.Context, id string, metadataHeaders ...string) (*gmailapi.Thread, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.call("GetThread"); err != nil {
		return nil, err
	}

	thread := &gmailapi.Thread{Id: id}
	// Threads list their messages oldest first.
	for i := len(m.order) - 1; i >= 0; i-- {
		msg := m.messages[m.order[i]]
		if msg.ThreadId == id {
			thread.Messages = append(thread.Messages, render(msg, "metadata", metadataHeaders))
		}
	}
	if len(thread.Messages) == 0 {
		return nil, notFound("thread", id)
	}
	thread.Snippet = thread.Messages[len(thread.Messages)-1].Snippet
	return thread, nil
}

func (m *Mailbox) ListLabels(_ context.Context) ([]*gmailapi.Label, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.call("ListLabels"); err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(m.labels))
	for id := range m.labels {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	labels := make([]*gmailapi.Label, 0, len(ids))
	for _, id := range ids {
		labels = append(labels, m.labels[id])
	}
	return labels, nil
}

func (m *Mailbox) CreateLabel(_ context.Context, label *gmailapi.Label) (*gmailapi.Label, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.call("CreateLabel"); err != nil {
		return nil, err
	}
	for _, existing := range m.labels {
		if strings.EqualFold(existing.Name, label.Name) {
			return nil, &googleapi.Error{Code: http.StatusConflict, Message: "Label name exists or conflicts"}
		}
	}
	created := *label
	created.Id = m.newID("Label")
	created.Type = "user"
	m.labels[created.Id] = &created
	return &created, nil
}

func (m *Mailbox) PatchLabel(_ context.Context, id string, label *gmailapi.Label) (*gmailapi.Label, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.call("PatchLabel"); err != nil {
		return nil, err
	}
	existing, ok := m.labels[id]
	if !ok {
		return nil, notFound("label", id)
	}
	if label.Name != "" {
		existing.Name = label.Name
	}
	if label.LabelListVisibility != "" {
		existing.LabelListVisibility = label.LabelListVisibility
	}
	if label.MessageListVisibility != "" {
		existing.MessageListVisibility = label.MessageListVisibility
	}
	return existing, nil
}

func (m *Mailbox) DeleteLabel(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.call("DeleteLabel"); err != nil {
		return err
	}
	if _, ok := m.labels[id]; !ok {
		return notFound("label", id)
	}
	delete(m.labels, id)
	return nil
}

func (m *Mailbox) CreateDraft(_ context.Context, draft *gmailapi.Draft) (*gmailapi.Draft, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.call("CreateDraft"); err != nil {
		return nil, err
	}
	msg, err := m.store(draft.Message.Raw, draft.Message.ThreadId, gmail.LabelDraft)
	if err != nil {
		return nil, err
	}
	d := &gmailapi.Draft{Id: m.newID("r"), Message: msg}
	m.drafts[d.Id] = d
	return &gmailapi.Draft{Id: d.Id, Message: &gmailapi.Message{Id: msg.Id, ThreadId: msg.ThreadId, LabelIds: msg.LabelIds}}, nil
}

func (m *Mailbox) ListDrafts(_ context.Context, _, pageToken string, maxResults int64) (*gmailapi.ListDraftsResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.call("ListDrafts"); err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(m.drafts))
	for id := range m.drafts {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	start := 0
	if pageToken != "" {
		start, _ = strconv.Atoi(pageToken)
	}
	if start > len(ids) {
		start = len(ids)
	}
	end := len(ids)
	if maxResults > 0 && start+int(maxResults) < end {
		end = start + int(maxResults)
	}

	res := &gmailapi.ListDraftsResponse{ResultSizeEstimate: int64(len(ids))}
	for _, id := range ids[start:end] {
		d := m.drafts[id]
		res.Drafts = append(res.Drafts, &gmailapi.Draft{Id: d.Id, Message: &gmailapi.Message{Id: d.Message.Id, ThreadId: d.Message.ThreadId}})
	}
	if end < len(ids) {
		res.NextPageToken = strconv.Itoa(end)
	}
	return res, nil
}

func (m *Mailbox) GetDraft(_ context.Context, id string) (*gmailapi.Draft, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.call("GetDraft"); err != nil {
		return nil, err
	}
	d, ok := m.drafts[id]
	if !ok {
		return nil, notFound("draft", id)
	}
	return &gmailapi.Draft{Id: d.Id, Message: render(d.Message, "full", nil)}, nil
}

func (m *Mailbox) UpdateDraft(_ context.Context, id string, draft *gmailapi.Draft) (*gmailapi.Draft, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.call("UpdateDraft"); err != nil {
		return nil, err
	}
	d, ok := m.drafts[id]
	if !ok {
		return nil, notFound("draft", id)
	}
	m.remove(d.Message.Id)
	msg, err := m.store(draft.Message.Raw, d.Message.ThreadId, gmail.LabelDraft)
	if err != nil {
		return nil, err
	}
	d.Message = msg
	return &gmailapi.Draft{Id: d.Id, Message: &gmailapi.Message{Id: msg.Id, ThreadId: msg.ThreadId, LabelIds: msg.LabelIds}}, nil
}

func (m *Mailbox) SendDraft(_ context.Context, draft *gmailapi.Draft) (*gmailapi.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.call("SendDraft"); err != nil {
		return nil, err
	}
	d, ok := m.drafts[draft.Id]
	if !ok {
		return nil, notFound("draft", draft.Id)
	}
	delete(m.drafts, draft.Id)
	d.Message.LabelIds = []string{gmail.LabelSent}
	m.Sent = append(m.Sent, d.Message)
	return d.Message, nil
}

func (m *Mailbox) DeleteDraft(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.call("DeleteDraft"); err != nil {
		return err
	}
	d, ok := m.drafts[id]
	if !ok {
		return notFound("draft", id)
	}
	m.remove(d.Message.Id)
	delete(m.drafts, id)
	return nil
}

func (m *Mailbox) GetProfile(_ context.Context) (*gmailapi.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.call("GetProfile"); err != nil {
		return nil, err
	}
	threads := map[string]bool{}
	for _, msg := range m.messages {
		threads[msg.ThreadId] = true
	}
	return &gmailapi.Profile{
		EmailAddress:  m.Email,
		MessagesTotal: int64(len(m.messages)),
		ThreadsTotal:  int64(len(threads)),
		HistoryId:     uint64(m.nextID),
	}, nil
}

func textPart(body string) *gmailapi.MessagePart {
	return &gmailapi.MessagePart{
		MimeType: "text/plain",
		Body:     &gmailapi.MessagePartBody{Data: gmail.EncodeRaw([]byte(body)), Size: int64(len(body))},
	}
}

func headerList(pairs ...string) []*gmailapi.MessagePartHeader {
	var headers []*gmailapi.MessagePartHeader
	for i := 0; i+1 < len(pairs); i += 2 {
		if pairs[i+1] != "" {
			headers = append(headers, &gmailapi.MessagePartHeader{Name: pairs[i], Value: pairs[i+1]})
		}
	}
	return headers
}

// render shapes msg the way Gmail answers for format.
func render(msg *gmailapi.Message, format string, metadataHeaders []string) *gmailapi.Message {
	out := &gmailapi.Message{
		Id:       msg.Id,
		ThreadId: msg.ThreadId,
		LabelIds: msg.LabelIds,
		Snippet:  msg.Snippet,
	}
	switch format {
	case "metadata":
		part := &gmailapi.MessagePart{MimeType: msg.Payload.MimeType}
		for _, h := range msg.Payload.Headers {
			if allowed(h.Name, metadataHeaders) {
				part.Headers = append(part.Headers, h)
			}
		}
		out.Payload = part
	case "raw":
		out.Raw = msg.Raw
		if out.Raw == "" {
			out.Raw = gmail.EncodeRaw(rawOf(msg))
		}
	default:
		out.Payload = msg.Payload
	}
	return out
}

func allowed(name string, allowlist []string) bool {
	if len(allowlist) == 0 {
		return true
	}
	for _, a := range allowlist {
		if strings.EqualFold(a, name) {
			return true
		}
	}
	return false
}

// rawOf renders a seeded message as RFC 2822 text.
func rawOf(msg *gmailapi.Message) []byte {
	var b strings.Builder
	for _, h := range msg.Payload.Headers {
		b.WriteString(h.Name + ": " + h.Value + "\r\n")
	}
	b.WriteString("Content-Type: " + msg.Payload.MimeType + "; charset=utf-8\r\n\r\n")
	b.WriteString(gmail.ResolveBody(msg.Payload))
	return []byte(b.String())
}

// matches evaluates the subset of Gmail search syntax the tests use:
// is:unread, is:read, is:starred, in:<label>, label:<label>, from:,
// subject: and bare words.
func matches(msg *gmailapi.Message, q gmail.MessageQuery) bool {
	labels := map[string]bool{}
	for _, l := range msg.LabelIds {
		labels[l] = true
	}
	for _, l := range q.LabelIDs {
		if !labels[l] {
			return false
		}
	}

	explicitTrash := false
	for _, term := range strings.Fields(q.Q) {
		key, value, hasKey := strings.Cut(term, ":")
		if !hasKey {
			if !containsFold(searchText(msg), term) {
				return false
			}
			continue
		}
		switch strings.ToLower(key) {
		case "is":
			switch strings.ToLower(value) {
			case "unread":
				if !labels[gmail.LabelUnread] {
					return false
				}
			case "read":
				if labels[gmail.LabelUnread] {
					return false
				}
			case "starred":
				if !labels[gmail.LabelStarred] {
					return false
				}
			}
		case "in", "label":
			id := strings.ToUpper(value)
			if id == gmail.LabelTrash || id == gmail.LabelSpam {
				explicitTrash = true
			}
			if !labels[id] && !labels[value] {
				return false
			}
		case "from":
			if !containsFold(gmail.HeaderValue(msg, "From"), value) {
				return false
			}
		case "subject":
			if !containsFold(gmail.HeaderValue(msg, "Subject"), value) {
				return false
			}
		default:
			if !containsFold(searchText(msg), term) {
				return false
			}
		}
	}

	if !q.IncludeSpamTrash && !explicitTrash && (labels[gmail.LabelTrash] || labels[gmail.LabelSpam]) {
		return false
	}
	return true
}

func searchText(msg *gmailapi.Message) string {
	return strings.Join([]string{
		gmail.HeaderValue(msg, "From"),
		gmail.HeaderValue(msg, "Subject"),
		msg.Snippet,
		gmail.ResolveBody(msg.Payload),
	}, " ")
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
