package gmail_tools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/teemow/gmailmcp/internal/gmail"
)

const descDraftID = "ID of the draft (not the ID of its message)"

func composeOptions() []mcp.ToolOption {
	return []mcp.ToolOption{
		mcp.WithString("to", mcp.Required(), mcp.Description("Recipient email address(es), comma-separated for multiple recipients")),
		mcp.WithString("subject", mcp.Required(), mcp.Description("Email subject")),
		mcp.WithString("body", mcp.Required(), mcp.Description("Email body, plain text")),
		mcp.WithString("cc", mcp.Description(descCc)),
		mcp.WithString("bcc", mcp.Description(descBcc)),
	}
}

func draftTools() []toolSpec {
	return []toolSpec{
		{
			tool: writeTool("create-draft", false,
				append([]mcp.ToolOption{mcp.WithDescription("Save a plain-text message as a draft")}, composeOptions()...)...,
			),
			mutating: true,
			bind: bind(func(ctx context.Context, c *gmail.Client, a ComposeArgs) (any, error) {
				return c.CreateDraft(ctx, a.outgoing())
			}),
		},
		{
			tool: readTool("list-drafts",
				mcp.WithDescription("List drafts"),
				mcp.WithString("query", mcp.Description("Gmail search query applied to drafts")),
				mcp.WithNumber("maxResults", mcp.Description("Maximum number of drafts to return (default: 10, max: 500)"), mcp.Min(1), mcp.Max(gmail.MaxPageSize)),
				mcp.WithString("pageToken", mcp.Description(descPageToken)),
			),
			bind: bind(func(ctx context.Context, c *gmail.Client, a ListDraftsArgs) (any, error) {
				return c.ListDrafts(ctx, a.Query, a.PageToken, a.MaxResults)
			}),
		},
		{
			tool: readTool("get-draft",
				mcp.WithDescription("Get a draft with its message"),
				mcp.WithString("draftId", mcp.Required(), mcp.Description(descDraftID)),
			),
			bind: bind(func(ctx context.Context, c *gmail.Client, a DraftIDArgs) (any, error) {
				return c.GetDraft(ctx, a.DraftID)
			}),
		},
		{
			tool: writeTool("update-draft", false,
				append([]mcp.ToolOption{
					mcp.WithDescription("Replace the content of a draft"),
					mcp.WithString("draftId", mcp.Required(), mcp.Description(descDraftID)),
				}, composeOptions()...)...,
			),
			mutating: true,
			bind: bind(func(ctx context.Context, c *gmail.Client, a UpdateDraftArgs) (any, error) {
				return c.UpdateDraft(ctx, a.DraftID, a.outgoing())
			}),
		},
		{
			tool: writeTool("send-draft", false,
				mcp.WithDescription("Send a draft"),
				mcp.WithString("draftId", mcp.Required(), mcp.Description(descDraftID)),
			),
			mutating: true,
			bind: bind(func(ctx context.Context, c *gmail.Client, a DraftIDArgs) (any, error) {
				return c.SendDraft(ctx, a.DraftID)
			}),
		},
		{
			tool: writeTool("delete-draft", true,
				mcp.WithDescription("Permanently delete a draft"),
				mcp.WithString("draftId", mcp.Required(), mcp.Description(descDraftID)),
			),
			mutating: true,
			bind: bind(func(ctx context.Context, c *gmail.Client, a DraftIDArgs) (any, error) {
				if err := c.DeleteDraft(ctx, a.DraftID); err != nil {
					return nil, err
				}
				return deleted(a.DraftID), nil
			}),
		},
	}
}
