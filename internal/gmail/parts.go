package gmail

import (
	"strings"

	gmail "google.golang.org/api/gmail/v1"
)

const (
	mimeTextPlain = "text/plain"
	mimeTextHTML  = "text/html"

	// DefaultAttachmentMimeType is reported for attachment parts that carry
	// no mime type of their own.
	DefaultAttachmentMimeType = "application/octet-stream"
)

// partNode is one MIME part in a PartTree. children holds arena indices in
// the order the parts appear in the message.
type partNode struct {
	part     *gmail.MessagePart
	children []int
}

// PartTree is a message payload flattened into an arena of parts addressed
// by index. Nodes are stored in pre-order, so index 0 is the root and
// iterating the arena visits parts the way a depth-first walk would.
type PartTree struct {
	nodes []partNode
}

// NewPartTree flattens root. A nil root gives an empty tree.
func NewPartTree(root *gmail.MessagePart) *PartTree {
	t := &PartTree{}
	if root == nil {
		return t
	}

	type pending struct {
		part   *gmail.MessagePart
		parent int
	}
	stack := []pending{{part: root, parent: -1}}
	for len(stack) > 0 {
		top := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		idx := len(t.nodes)
		t.nodes = append(t.nodes, partNode{part: top.part})
		if top.parent >= 0 {
			t.nodes[top.parent].children = append(t.nodes[top.parent].children, idx)
		}

		// Push in reverse so the first child is popped, and numbered, first.
		for i := len(top.part.Parts) - 1; i >= 0; i-- {
			if child := top.part.Parts[i]; child != nil {
				stack = append(stack, pending{part: child, parent: idx})
			}
		}
	}
	return t
}

// Len returns the number of parts in the tree.
func (t *PartTree) Len() int {
	return len(t.nodes)
}

// Body is a resolved display body.
type Body struct {
	Text     string
	MimeType string
}

// ResolveBody picks the display body of the whole message. For any part:
//
//  1. inline data on the part itself wins;
//  2. else the first child that is text/plain with inline data;
//  3. else the first child that is text/html with inline data;
//  4. else the first non-empty resolution of each child, in order.
//
// An empty Body means no part in the tree carries inline data.
func (t *PartTree) ResolveBody() Body {
	if len(t.nodes) == 0 {
		return Body{}
	}
	return t.resolve(0)
}

func (t *PartTree) resolve(idx int) Body {
	node := t.nodes[idx]
	if text, ok := inlineText(node.part); ok {
		return Body{Text: text, MimeType: node.part.MimeType}
	}

	for _, mimeType := range []string{mimeTextPlain, mimeTextHTML} {
		for _, c := range node.children {
			child := t.nodes[c].part
			if child.MimeType != mimeType {
				continue
			}
			if text, ok := inlineText(child); ok {
				return Body{Text: text, MimeType: mimeType}
			}
		}
	}

	for _, c := range node.children {
		if body := t.resolve(c); body.Text != "" {
			return body
		}
	}
	return Body{}
}

// inlineText decodes a part's inline body data. Undecodable data counts as
// absent.
func inlineText(p *gmail.MessagePart) (string, bool) {
	if p.Body == nil || p.Body.Data == "" {
		return "", false
	}
	decoded, err := DecodeBase64URL(p.Body.Data)
	if err != nil {
		return "", false
	}
	return string(decoded), true
}

// Attachments lists every part that has both an attachment id and a
// filename, in pre-order.
func (t *PartTree) Attachments() []AttachmentInfo {
	attachments := []AttachmentInfo{}
	for _, node := range t.nodes {
		p := node.part
		if p.Filename == "" || p.Body == nil || p.Body.AttachmentId == "" {
			continue
		}
		mimeType := p.MimeType
		if mimeType == "" {
			mimeType = DefaultAttachmentMimeType
		}
		attachments = append(attachments, AttachmentInfo{
			ID:       p.Body.AttachmentId,
			PartID:   p.PartId,
			Filename: p.Filename,
			MimeType: mimeType,
			Size:     p.Body.Size,
		})
	}
	return attachments
}

// ResolveBody returns the display text of part. See PartTree.ResolveBody.
func ResolveBody(part *gmail.MessagePart) string {
	return NewPartTree(part).ResolveBody().Text
}

// CollectAttachments returns the attachments under part in pre-order.
func CollectAttachments(part *gmail.MessagePart) []AttachmentInfo {
	return NewPartTree(part).Attachments()
}

// Headers is a case-insensitive view over a part's header list.
type Headers []*gmail.MessagePartHeader

// HeadersOf returns the top-level headers of msg.
func HeadersOf(msg *gmail.Message) Headers {
	if msg == nil || msg.Payload == nil {
		return nil
	}
	return Headers(msg.Payload.Headers)
}

// Get returns the value of the first header matching name, ignoring case.
func (h Headers) Get(name string) string {
	for _, header := range h {
		if header != nil && strings.EqualFold(header.Name, name) {
			return header.Value
		}
	}
	return ""
}

// HeaderValue returns the named top-level header of msg.
func HeaderValue(msg *gmail.Message, name string) string {
	return HeadersOf(msg).Get(name)
}
