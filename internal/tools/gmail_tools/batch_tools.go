package gmail_tools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/teemow/gmailmcp/internal/gmail"
	"github.com/teemow/gmailmcp/internal/tools/batch"
)

const descMessageIDs = "Message ID (string) or array of message IDs"

type batchModifyResult struct {
	Modified int `json:"modified"`
	gmail.LabelDelta
}

type batchDeleteResult struct {
	Deleted int `json:"deleted"`
}

func batchTools() []toolSpec {
	return []toolSpec{
		{
			tool: writeTool("batch-modify", false,
				mcp.WithDescription("Add and remove labels on many messages at once. Gmail applies each chunk of up to 1000 IDs atomically."),
				mcp.WithArray("messageIds", mcp.Required(), mcp.WithStringItems(), mcp.Description(descMessageIDs)),
				mcp.WithArray("addLabelIds", mcp.WithStringItems(), mcp.Description("Label IDs to add")),
				mcp.WithArray("removeLabelIds", mcp.WithStringItems(), mcp.Description("Label IDs to remove")),
			),
			mutating: true,
			batch:    true,
			bind: bind(func(ctx context.Context, c *gmail.Client, a BatchModifyArgs) (any, error) {
				if err := c.BatchModify(ctx, a.MessageIDs, a.delta()); err != nil {
					return nil, err
				}
				return batchModifyResult{Modified: len(a.MessageIDs), LabelDelta: a.delta()}, nil
			}),
		},
		{
			tool: writeTool("batch-delete", true,
				mcp.WithDescription("Permanently delete many messages at once. This cannot be undone; prefer batch-trash."),
				mcp.WithArray("messageIds", mcp.Required(), mcp.WithStringItems(), mcp.Description(descMessageIDs)),
			),
			mutating: true,
			batch:    true,
			bind: bind(func(ctx context.Context, c *gmail.Client, a BatchIDsArgs) (any, error) {
				if err := c.BatchDelete(ctx, a.MessageIDs); err != nil {
					return nil, err
				}
				return batchDeleteResult{Deleted: len(a.MessageIDs)}, nil
			}),
		},
		{
			tool: writeTool("batch-trash", false,
				mcp.WithDescription("Move many messages to the trash one by one. A failing message does not stop the others; the result lists each outcome."),
				mcp.WithArray("messageIds", mcp.Required(), mcp.WithStringItems(), mcp.Description(descMessageIDs)),
			),
			mutating: true,
			batch:    true,
			bind: bind(func(ctx context.Context, c *gmail.Client, a BatchIDsArgs) (any, error) {
				results := batch.ProcessBatch(ctx, a.MessageIDs, func(ctx context.Context, id string) (string, error) {
					if _, err := c.Trash(ctx, id); err != nil {
						return "", err
					}
					return "trashed", nil
				})
				return batch.Summarize(results), nil
			}),
		},
	}
}
