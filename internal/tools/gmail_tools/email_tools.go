package gmail_tools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/teemow/gmailmcp/internal/gmail"
)

const (
	descMessageID  = "ID of the Gmail message"
	descMaxResults = "Maximum number of messages to return (default: 10, max: 500)"
	descPageToken  = "Page token from a previous call's nextPageToken"
	descCc         = "CC email address(es), comma-separated for multiple recipients"
	descBcc        = "BCC email address(es), comma-separated for multiple recipients"
)

func emailTools() []toolSpec {
	return []toolSpec{
		{
			tool: readTool("list",
				mcp.WithDescription("List messages, optionally filtered by a Gmail query and labels. Each entry carries from, to, subject, date and snippet."),
				mcp.WithString("query", mcp.Description("Gmail search query (e.g., 'is:unread', 'from:user@example.com')")),
				mcp.WithArray("labelIds", mcp.WithStringItems(), mcp.Description("Only return messages with all of these label IDs")),
				mcp.WithNumber("maxResults", mcp.Description(descMaxResults), mcp.Min(1), mcp.Max(gmail.MaxPageSize)),
				mcp.WithString("pageToken", mcp.Description(descPageToken)),
				mcp.WithBoolean("includeSpamTrash", mcp.Description("Include messages from SPAM and TRASH (default: false)")),
			),
			bind: bind(func(ctx context.Context, c *gmail.Client, a ListArgs) (any, error) {
				return c.ListMessages(ctx, gmail.MessageQuery{
					Q:                a.Query,
					LabelIDs:         a.LabelIDs,
					PageToken:        a.PageToken,
					MaxResults:       a.MaxResults,
					IncludeSpamTrash: a.IncludeSpamTrash,
				})
			}),
		},
		{
			tool: readTool("get",
				mcp.WithDescription("Get a message with its headers, resolved body and attachment list"),
				mcp.WithString("messageId", mcp.Required(), mcp.Description(descMessageID)),
				mcp.WithString("format",
					mcp.Description("full (default) resolves the body, metadata returns headers only, raw decodes the RFC 2822 source"),
					mcp.Enum(FormatFull, FormatMetadata, FormatRaw),
				),
				mcp.WithString("bodyFormat",
					mcp.Description("How an HTML body is returned with format=full: raw (default), markdown or text"),
					mcp.Enum(gmail.BodyFormatRaw, gmail.BodyFormatMarkdown, gmail.BodyFormatText),
				),
			),
			bind: bind(handleGet),
		},
		{
			tool: writeTool("send", false,
				mcp.WithDescription("Send a plain-text email"),
				mcp.WithString("to", mcp.Required(), mcp.Description("Recipient email address(es), comma-separated for multiple recipients")),
				mcp.WithString("subject", mcp.Required(), mcp.Description("Email subject")),
				mcp.WithString("body", mcp.Required(), mcp.Description("Email body, plain text")),
				mcp.WithString("cc", mcp.Description(descCc)),
				mcp.WithString("bcc", mcp.Description(descBcc)),
			),
			mutating: true,
			bind: bind(func(ctx context.Context, c *gmail.Client, a ComposeArgs) (any, error) {
				return c.Send(ctx, a.outgoing())
			}),
		},
		{
			tool: readTool("search",
				mcp.WithDescription("Search messages with a Gmail query"),
				mcp.WithString("query", mcp.Required(), mcp.Description("Gmail search query (e.g., 'subject:invoice after:2024/01/01')")),
				mcp.WithNumber("maxResults", mcp.Description(descMaxResults), mcp.Min(1), mcp.Max(gmail.MaxPageSize)),
				mcp.WithString("pageToken", mcp.Description(descPageToken)),
			),
			bind: bind(func(ctx context.Context, c *gmail.Client, a SearchArgs) (any, error) {
				return c.ListMessages(ctx, gmail.MessageQuery{
					Q:          a.Query,
					PageToken:  a.PageToken,
					MaxResults: a.MaxResults,
				})
			}),
		},
		{
			tool: writeTool("reply", false,
				mcp.WithDescription("Reply to a message on its thread. With replyAll the original To and Cc recipients are included."),
				mcp.WithString("messageId", mcp.Required(), mcp.Description("ID of the message to reply to")),
				mcp.WithString("body", mcp.Required(), mcp.Description("Reply body, plain text")),
				mcp.WithBoolean("replyAll", mcp.Description("Reply to the sender and all original recipients (default: false)")),
				mcp.WithString("cc", mcp.Description(descCc)),
				mcp.WithString("bcc", mcp.Description(descBcc)),
			),
			mutating: true,
			bind: bind(func(ctx context.Context, c *gmail.Client, a ReplyArgs) (any, error) {
				return c.Reply(ctx, a.MessageID, gmail.ReplyOptions{
					Body:     a.Body,
					ReplyAll: a.ReplyAll,
					Cc:       a.Cc,
					Bcc:      a.Bcc,
				})
			}),
		},
		{
			tool: writeTool("forward", false,
				mcp.WithDescription("Forward a message to new recipients as a new message"),
				mcp.WithString("messageId", mcp.Required(), mcp.Description("ID of the message to forward")),
				mcp.WithString("to", mcp.Required(), mcp.Description("Recipient email address(es), comma-separated for multiple recipients")),
				mcp.WithString("additionalMessage", mcp.Description("Text placed above the forwarded message")),
				mcp.WithString("cc", mcp.Description(descCc)),
				mcp.WithString("bcc", mcp.Description(descBcc)),
			),
			mutating: true,
			bind: bind(func(ctx context.Context, c *gmail.Client, a ForwardArgs) (any, error) {
				return c.Forward(ctx, a.MessageID, a.To, a.AdditionalMessage, a.Cc, a.Bcc)
			}),
		},
		{
			tool: readTool("get-thread",
				mcp.WithDescription("Get a conversation with a summary of each of its messages"),
				mcp.WithString("threadId", mcp.Required(), mcp.Description("ID of the Gmail thread")),
			),
			bind: bind(func(ctx context.Context, c *gmail.Client, a ThreadArgs) (any, error) {
				return c.GetThread(ctx, a.ThreadID)
			}),
		},
		{
			tool: readTool("get-profile",
				mcp.WithDescription("Get the email address and message and thread totals of the mailbox"),
			),
			bind: bind(func(ctx context.Context, c *gmail.Client, _ NoArgs) (any, error) {
				return c.Profile(ctx)
			}),
		},
	}
}

func handleGet(ctx context.Context, c *gmail.Client, a GetArgs) (any, error) {
	switch a.Format {
	case FormatMetadata:
		return c.GetMessageMetadata(ctx, a.MessageID)
	case FormatRaw:
		return c.GetRawMessage(ctx, a.MessageID)
	default:
		return c.GetMessage(ctx, a.MessageID, a.BodyFormat)
	}
}
