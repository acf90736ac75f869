package gmail_tools

import (
	"context"
	"encoding/base64"
	"errors"
	"unicode/utf8"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/teemow/gmailmcp/internal/gmail"
)

var errNotText = errors.New("attachment is not valid UTF-8 text, use encoding=base64")

type attachmentList struct {
	MessageID   string                 `json:"messageId"`
	Attachments []gmail.AttachmentInfo `json:"attachments"`
}

type attachmentContent struct {
	MessageID    string `json:"messageId"`
	AttachmentID string `json:"attachmentId"`
	Size         int    `json:"size"`
	Encoding     string `json:"encoding"`
	Data         string `json:"data"`
}

func attachmentTools() []toolSpec {
	return []toolSpec{
		{
			tool: readTool("list-attachments",
				mcp.WithDescription("List the attachments of a message with their IDs, filenames, MIME types and sizes"),
				mcp.WithString("messageId", mcp.Required(), mcp.Description(descMessageID)),
			),
			bind: bind(func(ctx context.Context, c *gmail.Client, a MessageIDArgs) (any, error) {
				attachments, err := c.ListAttachments(ctx, a.MessageID)
				if err != nil {
					return nil, err
				}
				if attachments == nil {
					attachments = []gmail.AttachmentInfo{}
				}
				return attachmentList{MessageID: a.MessageID, Attachments: attachments}, nil
			}),
		},
		{
			tool: readTool("get-attachment",
				mcp.WithDescription("Get the content of an attachment (max 25MB)"),
				mcp.WithString("messageId", mcp.Required(), mcp.Description(descMessageID)),
				mcp.WithString("attachmentId", mcp.Required(), mcp.Description("ID of the attachment, from list-attachments")),
				mcp.WithString("encoding",
					mcp.Description("base64 (default) for any content, text for UTF-8 text attachments"),
					mcp.Enum(EncodingBase64, EncodingText),
				),
			),
			bind: bind(handleGetAttachment),
		},
	}
}

func handleGetAttachment(ctx context.Context, c *gmail.Client, a GetAttachmentArgs) (any, error) {
	data, err := c.GetAttachment(ctx, a.MessageID, a.AttachmentID)
	if err != nil {
		return nil, err
	}

	out := attachmentContent{
		MessageID:    a.MessageID,
		AttachmentID: a.AttachmentID,
		Size:         len(data),
		Encoding:     EncodingBase64,
	}
	if a.Encoding == EncodingText {
		if !utf8.Valid(data) {
			return nil, errNotText
		}
		out.Encoding = EncodingText
		out.Data = string(data)
		return out, nil
	}
	out.Data = base64.StdEncoding.EncodeToString(data)
	return out, nil
}
