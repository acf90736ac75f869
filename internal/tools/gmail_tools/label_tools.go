package gmail_tools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/teemow/gmailmcp/internal/gmail"
)

// deletedResult confirms a permanent deletion.
type deletedResult struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

func deleted(id string) deletedResult {
	return deletedResult{ID: id, Status: "deleted"}
}

// actionTool is a semantic alias over the label delta of action.
func actionTool(name, description string, action gmail.Action) toolSpec {
	return toolSpec{
		tool: writeTool(name, false,
			mcp.WithDescription(description),
			mcp.WithString("messageId", mcp.Required(), mcp.Description(descMessageID)),
		),
		mutating: true,
		bind: bind(func(ctx context.Context, c *gmail.Client, a MessageIDArgs) (any, error) {
			return c.Apply(ctx, a.MessageID, action)
		}),
	}
}

func messageStateTools() []toolSpec {
	return []toolSpec{
		{
			tool: writeTool("modify-labels", false,
				mcp.WithDescription("Add and remove labels on a message"),
				mcp.WithString("messageId", mcp.Required(), mcp.Description(descMessageID)),
				mcp.WithArray("addLabelIds", mcp.WithStringItems(), mcp.Description("Label IDs to add")),
				mcp.WithArray("removeLabelIds", mcp.WithStringItems(), mcp.Description("Label IDs to remove")),
			),
			mutating: true,
			bind: bind(func(ctx context.Context, c *gmail.Client, a ModifyLabelsArgs) (any, error) {
				return c.ModifyLabels(ctx, a.MessageID, a.delta())
			}),
		},
		{
			tool: writeTool("trash", false,
				mcp.WithDescription("Move a message to the trash"),
				mcp.WithString("messageId", mcp.Required(), mcp.Description(descMessageID)),
			),
			mutating: true,
			bind: bind(func(ctx context.Context, c *gmail.Client, a MessageIDArgs) (any, error) {
				return c.Trash(ctx, a.MessageID)
			}),
		},
		{
			tool: writeTool("untrash", false,
				mcp.WithDescription("Restore a message from the trash"),
				mcp.WithString("messageId", mcp.Required(), mcp.Description(descMessageID)),
			),
			mutating: true,
			bind: bind(func(ctx context.Context, c *gmail.Client, a MessageIDArgs) (any, error) {
				return c.Untrash(ctx, a.MessageID)
			}),
		},
		{
			tool: writeTool("delete", true,
				mcp.WithDescription("Permanently delete a message. This cannot be undone; prefer trash."),
				mcp.WithString("messageId", mcp.Required(), mcp.Description(descMessageID)),
			),
			mutating: true,
			bind: bind(func(ctx context.Context, c *gmail.Client, a MessageIDArgs) (any, error) {
				if err := c.Delete(ctx, a.MessageID); err != nil {
					return nil, err
				}
				return deleted(a.MessageID), nil
			}),
		},
		actionTool("mark-read", "Mark a message as read", gmail.ActionMarkRead),
		actionTool("mark-unread", "Mark a message as unread", gmail.ActionMarkUnread),
		actionTool("star", "Star a message", gmail.ActionStar),
		actionTool("unstar", "Remove the star from a message", gmail.ActionUnstar),
		actionTool("archive", "Archive a message by removing it from the inbox", gmail.ActionArchive),
		actionTool("unarchive", "Move a message back to the inbox", gmail.ActionUnarchive),
	}
}

func visibilityOptions() []mcp.ToolOption {
	return []mcp.ToolOption{
		mcp.WithString("labelListVisibility",
			mcp.Description("Visibility in the label list"),
			mcp.Enum(labelListVisibilities...),
		),
		mcp.WithString("messageListVisibility",
			mcp.Description("Visibility of the label in the message list"),
			mcp.Enum(messageListVisibilities...),
		),
	}
}

func labelTools() []toolSpec {
	return []toolSpec{
		{
			tool: readTool("list-labels",
				mcp.WithDescription("List all labels of the mailbox, system and user defined"),
			),
			bind: bind(func(ctx context.Context, c *gmail.Client, _ NoArgs) (any, error) {
				labels, err := c.ListLabels(ctx)
				if err != nil {
					return nil, err
				}
				return map[string]any{"labels": labels}, nil
			}),
		},
		{
			tool: writeTool("create-label", false, append([]mcp.ToolOption{
				mcp.WithDescription("Create a user label"),
				mcp.WithString("name", mcp.Required(), mcp.Description("Label name; use '/' for nesting (e.g., 'Projects/Alpha')")),
			}, visibilityOptions()...)...),
			mutating: true,
			bind: bind(func(ctx context.Context, c *gmail.Client, a CreateLabelArgs) (any, error) {
				return c.CreateLabel(ctx, a.spec())
			}),
		},
		{
			tool: writeTool("update-label", false, append([]mcp.ToolOption{
				mcp.WithDescription("Rename a user label or change its visibility"),
				mcp.WithString("labelId", mcp.Required(), mcp.Description("ID of the label")),
				mcp.WithString("name", mcp.Description("New label name")),
			}, visibilityOptions()...)...),
			mutating: true,
			bind: bind(func(ctx context.Context, c *gmail.Client, a UpdateLabelArgs) (any, error) {
				return c.UpdateLabel(ctx, a.LabelID, a.spec())
			}),
		},
		{
			tool: writeTool("delete-label", true,
				mcp.WithDescription("Delete a user label. Messages keep existing but lose the label."),
				mcp.WithString("labelId", mcp.Required(), mcp.Description("ID of the label")),
			),
			mutating: true,
			bind: bind(func(ctx context.Context, c *gmail.Client, a LabelIDArgs) (any, error) {
				if err := c.DeleteLabel(ctx, a.LabelID); err != nil {
					return nil, err
				}
				return deleted(a.LabelID), nil
			}),
		},
	}
}
