package gmail

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/textproto"
	"strings"

	"github.com/emersion/go-message"
	_ "github.com/emersion/go-message/charset"
)

const plainTextContentType = "text/plain; charset=utf-8"

// Outgoing is a plain-text message to be built into RFC 2822 form.
type Outgoing struct {
	To         string
	Subject    string
	Body       string
	Cc         string
	Bcc        string
	References string
	InReplyTo  string
}

// BuildRaw renders o as an RFC 2822 message. Header order is fixed:
// To, Subject, Content-Type, then Cc, Bcc, References and In-Reply-To when
// set. The body follows a blank line verbatim.
func BuildRaw(o Outgoing) []byte {
	var b strings.Builder

	writeHeader(&b, "To", o.To)
	writeHeader(&b, "Subject", encodeRFC2047(sanitizeHeader(o.Subject)))
	writeHeader(&b, "Content-Type", plainTextContentType)
	if o.Cc != "" {
		writeHeader(&b, "Cc", o.Cc)
	}
	if o.Bcc != "" {
		writeHeader(&b, "Bcc", o.Bcc)
	}
	if o.References != "" {
		writeHeader(&b, "References", o.References)
	}
	if o.InReplyTo != "" {
		writeHeader(&b, "In-Reply-To", o.InReplyTo)
	}
	b.WriteString("\r\n")
	b.WriteString(o.Body)

	return []byte(b.String())
}

func writeHeader(b *strings.Builder, name, value string) {
	b.WriteString(name)
	b.WriteString(": ")
	b.WriteString(sanitizeHeader(value))
	b.WriteString("\r\n")
}

// sanitizeHeader drops CR and LF so a value can never start a new header.
func sanitizeHeader(v string) string {
	return strings.NewReplacer("\r", "", "\n", "").Replace(v)
}

// encodeRFC2047 encodes header text as RFC 2047 encoded words when it would
// not survive as-is: non-ASCII text, text that looks like an encoded word,
// and text with leading or trailing whitespace.
func encodeRFC2047(s string) string {
	if strings.Contains(s, "=?") || s != strings.TrimSpace(s) {
		return mime.BEncoding.Encode("UTF-8", s)
	}
	for _, r := range s {
		if r > 127 {
			return mime.BEncoding.Encode("UTF-8", s)
		}
	}
	return s
}

// EncodeRaw returns the URL-safe, unpadded base64 form Gmail expects in
// Message.Raw.
func EncodeRaw(raw []byte) string {
	return base64.RawURLEncoding.EncodeToString(raw)
}

// DecodeBase64URL decodes Gmail body data. Padding is optional and the
// standard alphabet is tolerated.
func DecodeBase64URL(data string) ([]byte, error) {
	trimmed := strings.TrimRight(data, "=")
	decoded, err := base64.RawURLEncoding.DecodeString(trimmed)
	if err == nil {
		return decoded, nil
	}
	decoded, stdErr := base64.RawStdEncoding.DecodeString(trimmed)
	if stdErr != nil {
		return nil, fmt.Errorf("failed to decode base64 data: %w", err)
	}
	return decoded, nil
}

// ParsedMessage is a decoded RFC 2822 message.
type ParsedMessage struct {
	// Headers holds the first value of every header, keyed by canonical
	// name, with encoded words decoded.
	Headers map[string]string `json:"headers"`
	// Body is the first text/plain leaf, falling back to the first
	// text/html leaf.
	Body         string `json:"body"`
	BodyMimeType string `json:"bodyMimeType"`
}

// Header returns the decoded value of the named header.
func (p *ParsedMessage) Header(name string) string {
	return p.Headers[canonicalHeader(name)]
}

// ParseRaw decodes a raw RFC 2822 message.
func ParseRaw(raw []byte) (*ParsedMessage, error) {
	entity, err := message.Read(bytes.NewReader(raw))
	if err != nil && !message.IsUnknownCharset(err) {
		return nil, fmt.Errorf("failed to parse message: %w", err)
	}

	parsed := &ParsedMessage{Headers: make(map[string]string)}
	fields := entity.Header.Fields()
	for fields.Next() {
		key := canonicalHeader(fields.Key())
		if _, seen := parsed.Headers[key]; seen {
			continue
		}
		value, err := fields.Text()
		if err != nil {
			value = fields.Value()
		}
		parsed.Headers[key] = value
	}

	var plain, html *string
	if err := collectTextLeaves(entity, &plain, &html); err != nil {
		return nil, err
	}
	switch {
	case plain != nil:
		parsed.Body, parsed.BodyMimeType = *plain, mimeTextPlain
	case html != nil:
		parsed.Body, parsed.BodyMimeType = *html, mimeTextHTML
	}
	return parsed, nil
}

func collectTextLeaves(e *message.Entity, plain, html **string) error {
	if mr := e.MultipartReader(); mr != nil {
		for {
			part, err := mr.NextPart()
			if errors.Is(err, io.EOF) {
				return nil
			}
			if err != nil && !message.IsUnknownCharset(err) {
				return fmt.Errorf("failed to read message part: %w", err)
			}
			if err := collectTextLeaves(part, plain, html); err != nil {
				return err
			}
		}
	}

	contentType, _, err := e.Header.ContentType()
	if err != nil || contentType == "" {
		contentType = mimeTextPlain
	}

	var target **string
	switch contentType {
	case mimeTextPlain:
		target = plain
	case mimeTextHTML:
		target = html
	default:
		return nil
	}
	if *target != nil {
		return nil
	}

	body, err := io.ReadAll(e.Body)
	if err != nil {
		return fmt.Errorf("failed to read message body: %w", err)
	}
	text := string(body)
	*target = &text
	return nil
}

func canonicalHeader(name string) string {
	return textproto.CanonicalMIMEHeaderKey(name)
}
