package gmail

import (
	"context"
	"errors"
	"fmt"
)

// MaxAttachmentSize is the largest attachment returned inline (25MB).
const MaxAttachmentSize = 25 * 1024 * 1024

// ErrAttachmentTooLarge is returned for attachments above MaxAttachmentSize.
var ErrAttachmentTooLarge = errors.New("attachment exceeds maximum size")

// ListAttachments returns the attachments of message id in pre-order.
func (c *Client) ListAttachments(ctx context.Context, id string) ([]AttachmentInfo, error) {
	msg, err := c.getFull(ctx, id)
	if err != nil {
		return nil, err
	}
	return CollectAttachments(msg.Payload), nil
}

// GetAttachment fetches and decodes the content of an attachment.
func (c *Client) GetAttachment(ctx context.Context, messageID, attachmentID string) ([]byte, error) {
	body, err := c.api.GetAttachment(ctx, messageID, attachmentID)
	if err != nil {
		return nil, fmt.Errorf("failed to get attachment %s: %w", attachmentID, err)
	}
	if body.Size > MaxAttachmentSize {
		return nil, fmt.Errorf("%w: %d bytes, limit %d", ErrAttachmentTooLarge, body.Size, MaxAttachmentSize)
	}

	data, err := DecodeBase64URL(body.Data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode attachment %s: %w", attachmentID, err)
	}
	return data, nil
}
