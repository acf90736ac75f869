package gmail_tools

import (
	"context"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teemow/gmailmcp/internal/gmail"
	"github.com/teemow/gmailmcp/internal/gmail/gmailtest"
	"github.com/teemow/gmailmcp/internal/server"
)

var readTools = []string{
	"list", "get", "search", "get-thread", "get-profile",
	"list-labels", "list-drafts", "get-draft",
	"list-attachments", "get-attachment",
}

func toolNames(tools []mcp.Tool) []string {
	names := make([]string, 0, len(tools))
	for _, tool := range tools {
		names = append(names, tool.Name)
	}
	return names
}

func TestTools_Catalog(t *testing.T) {
	tools := Tools(false)

	assert.Equal(t, []string{
		"list", "get", "send", "search", "reply", "forward", "get-thread", "get-profile",
		"modify-labels", "trash", "untrash", "delete",
		"mark-read", "mark-unread", "star", "unstar", "archive", "unarchive",
		"list-labels", "create-label", "update-label", "delete-label",
		"create-draft", "list-drafts", "get-draft", "update-draft", "send-draft", "delete-draft",
		"list-attachments", "get-attachment",
		"batch-modify", "batch-delete", "batch-trash",
	}, toolNames(tools))

	for _, tool := range tools {
		assert.NotEmpty(t, tool.Description, tool.Name)
		assert.Equal(t, "object", tool.InputSchema.Type, tool.Name)
		for _, name := range tool.InputSchema.Required {
			assert.Contains(t, tool.InputSchema.Properties, name, "%s requires undeclared %s", tool.Name, name)
		}
	}
}

func TestTools_RequiredArguments(t *testing.T) {
	tests := map[string][]string{
		"list":           nil,
		"get":            {"messageId"},
		"send":           {"to", "subject", "body"},
		"search":         {"query"},
		"reply":          {"messageId", "body"},
		"forward":        {"messageId", "to"},
		"update-draft":   {"draftId", "to", "subject", "body"},
		"get-attachment": {"messageId", "attachmentId"},
		"update-label":   {"labelId"},
		"batch-modify":   {"messageIds"},
	}

	byName := map[string]mcp.Tool{}
	for _, tool := range Tools(false) {
		byName[tool.Name] = tool
	}
	for name, want := range tests {
		t.Run(name, func(t *testing.T) {
			tool, ok := byName[name]
			require.True(t, ok)
			assert.ElementsMatch(t, want, tool.InputSchema.Required)
		})
	}
}

func TestTools_ReadOnly(t *testing.T) {
	names := toolNames(Tools(true))
	assert.ElementsMatch(t, readTools, names)

	for _, tool := range Tools(true) {
		require.NotNil(t, tool.Annotations.ReadOnlyHint, tool.Name)
		assert.True(t, *tool.Annotations.ReadOnlyHint, tool.Name)
	}
}

func TestNormalizeArgs(t *testing.T) {
	tool := mcp.NewTool("t",
		mcp.WithString("messageId", mcp.Required()),
		mcp.WithArray("labelIds", mcp.WithStringItems()),
	)

	tests := []struct {
		name    string
		args    map[string]any
		want    map[string]any
		wantErr string
	}{
		{
			name: "array passes through as strings",
			args: map[string]any{"messageId": "m1", "labelIds": []any{"A", "B"}},
			want: map[string]any{"messageId": "m1", "labelIds": []string{"A", "B"}},
		},
		{
			name: "single string becomes a list",
			args: map[string]any{"messageId": "m1", "labelIds": "A"},
			want: map[string]any{"messageId": "m1", "labelIds": []string{"A"}},
		},
		{
			name: "empty optional array is dropped",
			args: map[string]any{"messageId": "m1", "labelIds": ""},
			want: map[string]any{"messageId": "m1"},
		},
		{
			name:    "missing required",
			args:    map[string]any{"labelIds": []any{"A"}},
			wantErr: "messageId is required",
		},
		{
			name:    "null required",
			args:    map[string]any{"messageId": nil},
			wantErr: "messageId is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := normalizeArgs(tool, tt.args)
			if tt.wantErr != "" {
				assert.ErrorIs(t, err, ErrValidation)
				assert.ErrorContains(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRegister(t *testing.T) {
	mailbox := gmailtest.NewMailbox()
	id := mailbox.Add(gmailtest.Message{From: "a@x.com", Subject: "hello", LabelIDs: []string{gmail.LabelInbox}})
	client := gmail.NewClientWithAPI(mailbox, nil)

	sc := server.NewServerContext(context.Background(), server.Paths{},
		server.WithReadOnly(true),
		server.WithSessionFactory(func(context.Context) (*gmail.Client, error) { return client, nil }),
	)
	t.Cleanup(func() { _ = sc.Shutdown() })

	s := mcpserver.NewMCPServer("gmailmcp", "test", mcpserver.WithToolCapabilities(true))
	d := Register(s, sc)

	registered := s.ListTools()
	assert.Len(t, registered, len(readTools))
	assert.Len(t, d.Tools(), len(readTools))
	assert.NotContains(t, registered, "send")

	getTool, ok := registered["get"]
	require.True(t, ok)

	req := mcp.CallToolRequest{}
	req.Params.Name = "get"
	req.Params.Arguments = map[string]any{"messageId": id, "format": "metadata"}
	res, err := getTool.Handler(context.Background(), req)
	require.NoError(t, err)
	assert.False(t, res.IsError)
	assert.Contains(t, resultText(t, res), `"subject": "hello"`)
}
