package gmail_tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/googleapi"

	"github.com/teemow/gmailmcp/internal/gmail"
	"github.com/teemow/gmailmcp/internal/gmail/gmailtest"
	"github.com/teemow/gmailmcp/internal/google"
)

type stubProvider struct {
	client *gmail.Client
	err    error
	calls  int
}

func (p *stubProvider) GmailClient(context.Context) (*gmail.Client, error) {
	p.calls++
	return p.client, p.err
}

func newTestDispatcher(t *testing.T, opts ...Option) (*Dispatcher, *gmailtest.Mailbox, *stubProvider) {
	t.Helper()
	mailbox := gmailtest.NewMailbox()
	provider := &stubProvider{client: gmail.NewClientWithAPI(mailbox, nil)}
	return NewDispatcher(provider, opts...), mailbox, provider
}

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.NotNil(t, res)
	require.Len(t, res.Content, 1)
	text, ok := res.Content[0].(mcp.TextContent)
	require.True(t, ok, "content is %T", res.Content[0])
	return text.Text
}

func decodeResult(t *testing.T, res *mcp.CallToolResult, dst any) {
	t.Helper()
	require.False(t, res.IsError, resultText(t, res))
	require.NoError(t, json.Unmarshal([]byte(resultText(t, res)), dst))
}

func TestHandle_ListUnread(t *testing.T) {
	d, mailbox, _ := newTestDispatcher(t)
	for i := 1; i <= 5; i++ {
		mailbox.Add(gmailtest.Message{
			From:     fmt.Sprintf("sender%d@example.com", i),
			To:       "me@example.com",
			Subject:  fmt.Sprintf("Subject %d", i),
			Date:     "Mon, 2 Jan 2006 15:04:05 -0700",
			Snippet:  fmt.Sprintf("snippet %d", i),
			Body:     "hello",
			LabelIDs: []string{gmail.LabelInbox, gmail.LabelUnread},
		})
	}
	mailbox.Add(gmailtest.Message{From: "old@example.com", Subject: "read", LabelIDs: []string{gmail.LabelInbox}})

	res := d.Handle(context.Background(), "list", map[string]any{"query": "is:unread", "maxResults": float64(2)})

	var list gmail.MessageList
	decodeResult(t, res, &list)
	require.Len(t, list.Messages, 2)
	for _, m := range list.Messages {
		assert.NotEmpty(t, m.From)
		assert.NotEmpty(t, m.Subject)
		assert.NotEmpty(t, m.Date)
		assert.NotEmpty(t, m.Snippet)
	}
	assert.NotEmpty(t, list.NextPageToken)
}

func TestHandle_ReplyAll(t *testing.T) {
	d, mailbox, _ := newTestDispatcher(t)
	id := mailbox.Add(gmailtest.Message{
		ThreadID:  "thread-1",
		From:      "a@x.com",
		To:        "b@x.com,c@x.com",
		Subject:   "Plans",
		MessageID: "<orig@x.com>",
		Body:      "see you",
	})

	res := d.Handle(context.Background(), "reply", map[string]any{
		"messageId": id,
		"body":      "sounds good",
		"replyAll":  true,
	})

	var sent gmail.SentMessage
	decodeResult(t, res, &sent)
	assert.Equal(t, "a@x.com,b@x.com,c@x.com", sent.To)
	assert.Equal(t, "Re: Plans", sent.Subject)
	assert.Equal(t, "thread-1", sent.ThreadID)
	require.Len(t, mailbox.Sent, 1)
	assert.Equal(t, "thread-1", mailbox.Sent[0].ThreadId)
}

func TestHandle_UnknownOperation(t *testing.T) {
	d, _, provider := newTestDispatcher(t)

	res := d.Handle(context.Background(), "explode", nil)

	assert.True(t, res.IsError)
	assert.Equal(t, "unknown operation: explode", resultText(t, res))
	assert.Zero(t, provider.calls, "session must not be touched")
}

func TestHandle_ValidationFailure(t *testing.T) {
	tests := []struct {
		name    string
		tool    string
		args    map[string]any
		wantMsg string
	}{
		{
			name:    "missing required argument",
			tool:    "get",
			args:    map[string]any{},
			wantMsg: "messageId is required",
		},
		{
			name:    "blank required argument",
			tool:    "send",
			args:    map[string]any{"to": " ", "subject": "s", "body": "b"},
			wantMsg: "to is required",
		},
		{
			name:    "bad enum",
			tool:    "get",
			args:    map[string]any{"messageId": "m1", "format": "minimal"},
			wantMsg: "format must be one of full, metadata, raw",
		},
		{
			name:    "body format without full format",
			tool:    "get",
			args:    map[string]any{"messageId": "m1", "format": "metadata", "bodyFormat": "markdown"},
			wantMsg: "bodyFormat only applies",
		},
		{
			name:    "wrong type",
			tool:    "list",
			args:    map[string]any{"maxResults": "ten"},
			wantMsg: "maxResults must be an integer",
		},
		{
			name:    "negative page size",
			tool:    "search",
			args:    map[string]any{"query": "x", "maxResults": float64(-1)},
			wantMsg: "maxResults must not be negative",
		},
		{
			name:    "empty label delta",
			tool:    "modify-labels",
			args:    map[string]any{"messageId": "m1", "addLabelIds": []any{}},
			wantMsg: "at least one of addLabelIds and removeLabelIds",
		},
		{
			name:    "system label creation",
			tool:    "create-label",
			args:    map[string]any{"name": "inbox"},
			wantMsg: "system label",
		},
		{
			name:    "system label deletion",
			tool:    "delete-label",
			args:    map[string]any{"labelId": "STARRED"},
			wantMsg: "system label",
		},
		{
			name:    "update without changes",
			tool:    "update-label",
			args:    map[string]any{"labelId": "Label_1"},
			wantMsg: "at least one of name",
		},
		{
			name:    "bad visibility",
			tool:    "create-label",
			args:    map[string]any{"name": "Projects", "messageListVisibility": "sometimes"},
			wantMsg: "messageListVisibility must be one of",
		},
		{
			name:    "bad message id list",
			tool:    "batch-delete",
			args:    map[string]any{"messageIds": []any{"m1", 7.0}},
			wantMsg: "messageIds[1] must be a string",
		},
		{
			name:    "bad attachment encoding",
			tool:    "get-attachment",
			args:    map[string]any{"messageId": "m1", "attachmentId": "a1", "encoding": "hex"},
			wantMsg: "encoding must be one of",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, mailbox, provider := newTestDispatcher(t)

			out := d.dispatch(context.Background(), tt.tool, tt.args)

			require.Error(t, out.Err)
			assert.Equal(t, string(KindValidationFailure), out.ErrorKind)
			assert.ErrorIs(t, out.Err, ErrValidation)
			assert.Contains(t, out.Err.Error(), tt.wantMsg)
			assert.Zero(t, provider.calls, "session must not be touched")
			assert.Empty(t, mailbox.Calls)
		})
	}
}

func TestHandle_ConfigurationMissing(t *testing.T) {
	missing := &google.MissingFileError{Kind: google.FileToken, Path: "/tmp/token.json", Hint: "run `gmailmcp auth`"}
	d := NewDispatcher(&stubProvider{err: fmt.Errorf("failed to load token: %w", missing)})

	out := d.dispatch(context.Background(), "list", nil)
	assert.Equal(t, string(KindConfigurationMissing), out.ErrorKind)

	res := d.Handle(context.Background(), "list", nil)
	assert.True(t, res.IsError)
	assert.Contains(t, resultText(t, res), "token file not found at /tmp/token.json")
	assert.Contains(t, resultText(t, res), "gmailmcp auth")
}

func TestHandle_UnknownOperationWithoutConfiguration(t *testing.T) {
	missing := &google.MissingFileError{Kind: google.FileCredentials, Path: "/tmp/credentials.json"}
	provider := &stubProvider{err: missing}
	d := NewDispatcher(provider)

	out := d.dispatch(context.Background(), "explode", nil)

	assert.Equal(t, string(KindUnknownOperation), out.ErrorKind)
	assert.ErrorIs(t, out.Err, ErrUnknownOperation)
	assert.Zero(t, provider.calls)
}

func TestHandle_SessionFailure(t *testing.T) {
	d := NewDispatcher(&stubProvider{err: errors.New("invalid credentials file")})

	out := d.dispatch(context.Background(), "get-profile", nil)

	assert.Equal(t, string(KindUpstreamFailure), out.ErrorKind)
	assert.EqualError(t, out.Err, "invalid credentials file")
}

func TestHandle_UpstreamFailure(t *testing.T) {
	d, mailbox, _ := newTestDispatcher(t)
	mailbox.FailOn("SendMessage", &googleapi.Error{Code: http.StatusForbidden, Message: "Daily sending quota exceeded"})

	res := d.Handle(context.Background(), "send", map[string]any{"to": "x@example.com", "subject": "s", "body": "b"})

	assert.True(t, res.IsError)
	assert.Contains(t, resultText(t, res), "Daily sending quota exceeded")
	assert.Empty(t, mailbox.Sent)
}

func TestHandle_ReadOnly(t *testing.T) {
	d, mailbox, _ := newTestDispatcher(t, WithReadOnly(true))
	id := mailbox.Add(gmailtest.Message{From: "a@x.com", Subject: "hi", LabelIDs: []string{gmail.LabelInbox}})

	res := d.Handle(context.Background(), "trash", map[string]any{"messageId": id})
	assert.True(t, res.IsError)
	assert.Contains(t, resultText(t, res), "unknown operation")
	assert.NotContains(t, mailbox.Labels(id), gmail.LabelTrash)

	res = d.Handle(context.Background(), "get", map[string]any{"messageId": id})
	assert.False(t, res.IsError, resultText(t, res))
}

func TestInvoke_RecoversPanic(t *testing.T) {
	_, err := invoke(context.Background(), func(context.Context, *gmail.Client) (any, error) {
		panic("boom")
	}, nil)

	assert.EqualError(t, err, "internal error: boom")
}

func TestHandle_MarkReadTwice(t *testing.T) {
	d, mailbox, _ := newTestDispatcher(t)
	id := mailbox.Add(gmailtest.Message{From: "a@x.com", Subject: "hi", LabelIDs: []string{gmail.LabelInbox, gmail.LabelUnread}})

	var first, second gmail.LabelState
	decodeResult(t, d.Handle(context.Background(), "mark-read", map[string]any{"messageId": id}), &first)
	decodeResult(t, d.Handle(context.Background(), "mark-read", map[string]any{"messageId": id}), &second)

	assert.Equal(t, []string{gmail.LabelInbox}, first.LabelIDs)
	assert.Equal(t, first.LabelIDs, second.LabelIDs)
}

func TestHandle_BatchTrashPartialFailure(t *testing.T) {
	d, mailbox, _ := newTestDispatcher(t)
	a := mailbox.Add(gmailtest.Message{From: "a@x.com", Subject: "a", LabelIDs: []string{gmail.LabelInbox}})
	b := mailbox.Add(gmailtest.Message{From: "b@x.com", Subject: "b", LabelIDs: []string{gmail.LabelInbox}})

	res := d.Handle(context.Background(), "batch-trash", map[string]any{"messageIds": []any{a, "missing", b}})

	var summary struct {
		Total      int `json:"total"`
		Successful int `json:"successful"`
		Failed     int `json:"failed"`
		Results    []struct {
			ID     string `json:"id"`
			Status string `json:"status"`
		} `json:"results"`
	}
	decodeResult(t, res, &summary)
	assert.Equal(t, 3, summary.Total)
	assert.Equal(t, 2, summary.Successful)
	assert.Equal(t, 1, summary.Failed)
	assert.Equal(t, "error", summary.Results[1].Status)
	assert.Contains(t, mailbox.Labels(a), gmail.LabelTrash)
	assert.Contains(t, mailbox.Labels(b), gmail.LabelTrash)
}

func TestHandle_BatchDeleteFromJSONString(t *testing.T) {
	d, mailbox, _ := newTestDispatcher(t)
	a := mailbox.Add(gmailtest.Message{From: "a@x.com"})
	b := mailbox.Add(gmailtest.Message{From: "b@x.com"})

	res := d.Handle(context.Background(), "batch-delete", map[string]any{
		"messageIds": fmt.Sprintf(`["%s", "%s"]`, a, b),
	})

	var out batchDeleteResult
	decodeResult(t, res, &out)
	assert.Equal(t, 2, out.Deleted)
	assert.Equal(t, []int{2}, mailbox.BatchSizes)
	assert.False(t, mailbox.Has(a))
	assert.False(t, mailbox.Has(b))
}

func TestHandle_GetAttachment(t *testing.T) {
	d, mailbox, _ := newTestDispatcher(t)
	id := mailbox.Add(gmailtest.Message{From: "a@x.com", Subject: "report"})
	mailbox.AddAttachment(id, "att-1", []byte("col1,col2\n1,2\n"))
	mailbox.AddAttachment(id, "att-2", []byte{0xff, 0xfe, 0x00})

	var text attachmentContent
	decodeResult(t, d.Handle(context.Background(), "get-attachment", map[string]any{
		"messageId": id, "attachmentId": "att-1", "encoding": "text",
	}), &text)
	assert.Equal(t, "col1,col2\n1,2\n", text.Data)
	assert.Equal(t, 14, text.Size)

	var encoded attachmentContent
	decodeResult(t, d.Handle(context.Background(), "get-attachment", map[string]any{
		"messageId": id, "attachmentId": "att-2",
	}), &encoded)
	assert.Equal(t, EncodingBase64, encoded.Encoding)
	assert.Equal(t, "//4A", encoded.Data)

	res := d.Handle(context.Background(), "get-attachment", map[string]any{
		"messageId": id, "attachmentId": "att-2", "encoding": "text",
	})
	assert.True(t, res.IsError)
	assert.Contains(t, resultText(t, res), "not valid UTF-8")
}

func TestHandle_DraftLifecycle(t *testing.T) {
	d, mailbox, _ := newTestDispatcher(t)
	ctx := context.Background()

	var draft gmail.Draft
	decodeResult(t, d.Handle(ctx, "create-draft", map[string]any{
		"to": "x@example.com", "subject": "Draft", "body": "first",
	}), &draft)
	require.NotEmpty(t, draft.ID)

	res := d.Handle(ctx, "update-draft", map[string]any{
		"draftId": draft.ID, "to": "x@example.com", "subject": "Draft v2", "body": "second",
	})
	require.False(t, res.IsError, resultText(t, res))

	var sent gmail.SentMessage
	decodeResult(t, d.Handle(ctx, "send-draft", map[string]any{"draftId": draft.ID}), &sent)
	assert.NotEmpty(t, sent.ID)
	assert.Len(t, mailbox.Sent, 1)
}
