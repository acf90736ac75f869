package gmail_tools

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/teemow/gmailmcp/internal/gmail"
	"github.com/teemow/gmailmcp/internal/tools/batch"
)

// validator is implemented by every argument struct.
type validator interface {
	Validate() error
}

// targeter reports the message ids and recipients a call touches, for the
// audit record.
type targeter interface {
	targets() (messageIDs []string, recipients string)
}

// Message formats of the get tool.
const (
	FormatFull     = "full"
	FormatMetadata = "metadata"
	FormatRaw      = "raw"
)

// Encodings of the get-attachment tool.
const (
	EncodingBase64 = "base64"
	EncodingText   = "text"
)

var (
	labelListVisibilities   = []string{"labelShow", "labelShowIfUnread", "labelHide"}
	messageListVisibilities = []string{"show", "hide"}
)

// normalizeArgs checks the required arguments of tool and rewrites its
// array arguments to []string. An array argument may be sent as a single
// string or a string holding a JSON array; an empty optional array is
// dropped.
func normalizeArgs(tool mcp.Tool, args map[string]any) (map[string]any, error) {
	out := make(map[string]any, len(args))
	for k, v := range args {
		out[k] = v
	}

	for _, name := range tool.InputSchema.Required {
		if isEmptyArg(out[name]) {
			return nil, invalidf("%s is required", name)
		}
	}

	for name, prop := range tool.InputSchema.Properties {
		schema, ok := prop.(map[string]any)
		if !ok || schema["type"] != "array" {
			continue
		}
		v, present := out[name]
		if !present {
			continue
		}
		if isEmptyArg(v) {
			delete(out, name)
			continue
		}
		ids, err := batch.ParseStringOrArray(v, name)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrValidation, err)
		}
		out[name] = ids
	}
	return out, nil
}

func isEmptyArg(v any) bool {
	switch v := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(v) == ""
	case []any:
		return len(v) == 0
	case []string:
		return len(v) == 0
	default:
		return false
	}
}

// decodeArgs decodes args into dst through their JSON form.
func decodeArgs(args map[string]any, dst any) error {
	data, err := json.Marshal(args)
	if err != nil {
		return invalidf("arguments are not JSON: %v", err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) && typeErr.Field != "" {
			return invalidf("%s must be %s, got %s", typeErr.Field, jsonType(typeErr.Type), typeErr.Value)
		}
		return invalidf("%v", err)
	}
	return nil
}

func jsonType(t reflect.Type) string {
	switch t.Kind() {
	case reflect.String:
		return "a string"
	case reflect.Bool:
		return "a boolean"
	case reflect.Int, reflect.Int32, reflect.Int64:
		return "an integer"
	case reflect.Float32, reflect.Float64:
		return "a number"
	case reflect.Slice:
		return "an array"
	default:
		return "a " + t.String()
	}
}

func oneOf(name, value string, allowed ...string) error {
	if value == "" {
		return nil
	}
	for _, a := range allowed {
		if value == a {
			return nil
		}
	}
	return invalidf("%s must be one of %s, got %q", name, strings.Join(allowed, ", "), value)
}

func validateMaxResults(n int64) error {
	if n < 0 {
		return invalidf("maxResults must not be negative")
	}
	return nil
}

func joinRecipients(lists ...string) string {
	var all []string
	for _, l := range lists {
		all = append(all, gmail.SplitAddresses(l)...)
	}
	return strings.Join(all, ",")
}

// ListArgs selects one page of messages.
type ListArgs struct {
	Query            string   `json:"query"`
	LabelIDs         []string `json:"labelIds"`
	MaxResults       int64    `json:"maxResults"`
	PageToken        string   `json:"pageToken"`
	IncludeSpamTrash bool     `json:"includeSpamTrash"`
}

func (a ListArgs) Validate() error {
	return validateMaxResults(a.MaxResults)
}

// SearchArgs is a list with a mandatory query.
type SearchArgs struct {
	Query      string `json:"query"`
	MaxResults int64  `json:"maxResults"`
	PageToken  string `json:"pageToken"`
}

func (a SearchArgs) Validate() error {
	return validateMaxResults(a.MaxResults)
}

// GetArgs selects a message and how it is rendered.
type GetArgs struct {
	MessageID  string `json:"messageId"`
	Format     string `json:"format"`
	BodyFormat string `json:"bodyFormat"`
}

func (a GetArgs) Validate() error {
	if err := oneOf("format", a.Format, FormatFull, FormatMetadata, FormatRaw); err != nil {
		return err
	}
	if err := oneOf("bodyFormat", a.BodyFormat, gmail.BodyFormatRaw, gmail.BodyFormatMarkdown, gmail.BodyFormatText); err != nil {
		return err
	}
	if a.BodyFormat != "" && a.Format != "" && a.Format != FormatFull {
		return invalidf("bodyFormat only applies to format %q", FormatFull)
	}
	return nil
}

func (a GetArgs) targets() ([]string, string) {
	return []string{a.MessageID}, ""
}

// ComposeArgs is a new plain-text message.
type ComposeArgs struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
	Cc      string `json:"cc"`
	Bcc     string `json:"bcc"`
}

func (a ComposeArgs) Validate() error {
	if len(gmail.SplitAddresses(a.To)) == 0 {
		return invalidf("to must name at least one address")
	}
	return nil
}

func (a ComposeArgs) targets() ([]string, string) {
	return nil, joinRecipients(a.To, a.Cc, a.Bcc)
}

func (a ComposeArgs) outgoing() gmail.Outgoing {
	return gmail.Outgoing{To: a.To, Subject: a.Subject, Body: a.Body, Cc: a.Cc, Bcc: a.Bcc}
}

// UpdateDraftArgs replaces the content of a draft.
type UpdateDraftArgs struct {
	DraftID string `json:"draftId"`
	ComposeArgs
}

// ReplyArgs answers a message on its thread.
type ReplyArgs struct {
	MessageID string `json:"messageId"`
	Body      string `json:"body"`
	ReplyAll  bool   `json:"replyAll"`
	Cc        string `json:"cc"`
	Bcc       string `json:"bcc"`
}

func (a ReplyArgs) Validate() error { return nil }

func (a ReplyArgs) targets() ([]string, string) {
	return []string{a.MessageID}, joinRecipients(a.Cc, a.Bcc)
}

// ForwardArgs sends a message on to new recipients.
type ForwardArgs struct {
	MessageID         string `json:"messageId"`
	To                string `json:"to"`
	AdditionalMessage string `json:"additionalMessage"`
	Cc                string `json:"cc"`
	Bcc               string `json:"bcc"`
}

func (a ForwardArgs) Validate() error {
	if len(gmail.SplitAddresses(a.To)) == 0 {
		return invalidf("to must name at least one address")
	}
	return nil
}

func (a ForwardArgs) targets() ([]string, string) {
	return []string{a.MessageID}, joinRecipients(a.To, a.Cc, a.Bcc)
}

// ModifyLabelsArgs changes the labels of one message. A label named on both
// sides is passed upstream unchanged.
type ModifyLabelsArgs struct {
	MessageID      string   `json:"messageId"`
	AddLabelIDs    []string `json:"addLabelIds"`
	RemoveLabelIDs []string `json:"removeLabelIds"`
}

func (a ModifyLabelsArgs) Validate() error {
	if a.delta().IsEmpty() {
		return invalidf("at least one of addLabelIds and removeLabelIds is required")
	}
	return nil
}

func (a ModifyLabelsArgs) delta() gmail.LabelDelta {
	return gmail.LabelDelta{Add: a.AddLabelIDs, Remove: a.RemoveLabelIDs}
}

func (a ModifyLabelsArgs) targets() ([]string, string) {
	return []string{a.MessageID}, ""
}

// MessageIDArgs addresses a single message.
type MessageIDArgs struct {
	MessageID string `json:"messageId"`
}

func (a MessageIDArgs) Validate() error { return nil }

func (a MessageIDArgs) targets() ([]string, string) {
	return []string{a.MessageID}, ""
}

// ThreadArgs addresses a conversation.
type ThreadArgs struct {
	ThreadID string `json:"threadId"`
}

func (a ThreadArgs) Validate() error { return nil }

// DraftIDArgs addresses a single draft.
type DraftIDArgs struct {
	DraftID string `json:"draftId"`
}

func (a DraftIDArgs) Validate() error { return nil }

// ListDraftsArgs selects one page of drafts.
type ListDraftsArgs struct {
	Query      string `json:"query"`
	MaxResults int64  `json:"maxResults"`
	PageToken  string `json:"pageToken"`
}

func (a ListDraftsArgs) Validate() error {
	return validateMaxResults(a.MaxResults)
}

// GetAttachmentArgs selects an attachment and the encoding of its data.
type GetAttachmentArgs struct {
	MessageID    string `json:"messageId"`
	AttachmentID string `json:"attachmentId"`
	Encoding     string `json:"encoding"`
}

func (a GetAttachmentArgs) Validate() error {
	return oneOf("encoding", a.Encoding, EncodingBase64, EncodingText)
}

func (a GetAttachmentArgs) targets() ([]string, string) {
	return []string{a.MessageID}, ""
}

func validateVisibility(labelList, messageList string) error {
	if err := oneOf("labelListVisibility", labelList, labelListVisibilities...); err != nil {
		return err
	}
	return oneOf("messageListVisibility", messageList, messageListVisibilities...)
}

// CreateLabelArgs describes a new user label.
type CreateLabelArgs struct {
	Name                  string `json:"name"`
	LabelListVisibility   string `json:"labelListVisibility"`
	MessageListVisibility string `json:"messageListVisibility"`
}

func (a CreateLabelArgs) Validate() error {
	if gmail.IsSystemLabel(a.Name) {
		return invalidf("%q is a system label and cannot be created", a.Name)
	}
	return validateVisibility(a.LabelListVisibility, a.MessageListVisibility)
}

func (a CreateLabelArgs) spec() gmail.LabelSpec {
	return gmail.LabelSpec{
		Name:                  a.Name,
		LabelListVisibility:   a.LabelListVisibility,
		MessageListVisibility: a.MessageListVisibility,
	}
}

// UpdateLabelArgs changes the name or visibility of a user label.
type UpdateLabelArgs struct {
	LabelID               string `json:"labelId"`
	Name                  string `json:"name"`
	LabelListVisibility   string `json:"labelListVisibility"`
	MessageListVisibility string `json:"messageListVisibility"`
}

func (a UpdateLabelArgs) Validate() error {
	if gmail.IsSystemLabel(a.LabelID) {
		return invalidf("%q is a system label and cannot be changed", a.LabelID)
	}
	if a.Name == "" && a.LabelListVisibility == "" && a.MessageListVisibility == "" {
		return invalidf("at least one of name, labelListVisibility and messageListVisibility is required")
	}
	if a.Name != "" && gmail.IsSystemLabel(a.Name) {
		return invalidf("%q is a system label name", a.Name)
	}
	return validateVisibility(a.LabelListVisibility, a.MessageListVisibility)
}

func (a UpdateLabelArgs) spec() gmail.LabelSpec {
	return gmail.LabelSpec{
		Name:                  a.Name,
		LabelListVisibility:   a.LabelListVisibility,
		MessageListVisibility: a.MessageListVisibility,
	}
}

// LabelIDArgs addresses a user label.
type LabelIDArgs struct {
	LabelID string `json:"labelId"`
}

func (a LabelIDArgs) Validate() error {
	if gmail.IsSystemLabel(a.LabelID) {
		return invalidf("%q is a system label and cannot be deleted", a.LabelID)
	}
	return nil
}

// BatchModifyArgs changes the labels of many messages.
type BatchModifyArgs struct {
	MessageIDs     []string `json:"messageIds"`
	AddLabelIDs    []string `json:"addLabelIds"`
	RemoveLabelIDs []string `json:"removeLabelIds"`
}

func (a BatchModifyArgs) Validate() error {
	if a.delta().IsEmpty() {
		return invalidf("at least one of addLabelIds and removeLabelIds is required")
	}
	return nil
}

func (a BatchModifyArgs) delta() gmail.LabelDelta {
	return gmail.LabelDelta{Add: a.AddLabelIDs, Remove: a.RemoveLabelIDs}
}

func (a BatchModifyArgs) targets() ([]string, string) {
	return a.MessageIDs, ""
}

// BatchIDsArgs addresses many messages.
type BatchIDsArgs struct {
	MessageIDs []string `json:"messageIds"`
}

func (a BatchIDsArgs) Validate() error { return nil }

func (a BatchIDsArgs) targets() ([]string, string) {
	return a.MessageIDs, ""
}

// NoArgs is the argument set of tools that take none.
type NoArgs struct{}

func (NoArgs) Validate() error { return nil }
