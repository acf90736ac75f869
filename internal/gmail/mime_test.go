package gmail

import (
	"encoding/base64"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildRaw_HeaderOrder(t *testing.T) {
	raw := string(BuildRaw(Outgoing{
		To:         "bob@example.com",
		Subject:    "Hello",
		Body:       "Hi Bob",
		Cc:         "carol@example.com",
		Bcc:        "dave@example.com",
		References: "<a@x> <b@x>",
		InReplyTo:  "<b@x>",
	}))

	want := "To: bob@example.com\r\n" +
		"Subject: Hello\r\n" +
		"Content-Type: text/plain; charset=utf-8\r\n" +
		"Cc: carol@example.com\r\n" +
		"Bcc: dave@example.com\r\n" +
		"References: <a@x> <b@x>\r\n" +
		"In-Reply-To: <b@x>\r\n" +
		"\r\n" +
		"Hi Bob"
	assert.Equal(t, want, raw)
}

func TestBuildRaw_OmitsEmptyOptionalHeaders(t *testing.T) {
	raw := string(BuildRaw(Outgoing{To: "bob@example.com", Subject: "Hello", Body: "Hi"}))

	for _, header := range []string{"Cc:", "Bcc:", "References:", "In-Reply-To:"} {
		assert.NotContains(t, raw, header)
	}
	assert.True(t, strings.HasSuffix(raw, "\r\n\r\nHi"))
}

func TestBuildRaw_StripsHeaderInjection(t *testing.T) {
	raw := string(BuildRaw(Outgoing{
		To:      "bob@example.com\r\nBcc: eve@example.com",
		Subject: "Hi\nX-Injected: yes",
		Body:    "body",
	}))

	headerBlock, _, _ := strings.Cut(raw, "\r\n\r\n")
	assert.Len(t, strings.Split(headerBlock, "\r\n"), 3)
	assert.NotContains(t, headerBlock, "\nBcc:")
	assert.NotContains(t, headerBlock, "\nX-Injected:")
}

func TestEncodeRaw_URLSafeUnpadded(t *testing.T) {
	// 0xfb 0xff encodes to "+/8=" in the standard alphabet.
	encoded := EncodeRaw([]byte{0xfb, 0xff})

	assert.Equal(t, "-_8", encoded)
	assert.NotContains(t, encoded, "=")
}

func TestDecodeBase64URL(t *testing.T) {
	payload := []byte("subjects?>>and bodies~~")

	tests := []struct {
		name  string
		input string
	}{
		{"raw url", base64.RawURLEncoding.EncodeToString(payload)},
		{"padded url", base64.URLEncoding.EncodeToString(payload)},
		{"standard alphabet", base64.StdEncoding.EncodeToString(payload)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeBase64URL(tt.input)
			require.NoError(t, err)
			assert.Equal(t, payload, got)
		})
	}
}

func TestDecodeBase64URL_Invalid(t *testing.T) {
	_, err := DecodeBase64URL("not base64 at all!")
	assert.Error(t, err)
}

func TestRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		msg  Outgoing
	}{
		{
			name: "plain",
			msg:  Outgoing{To: "a@x.com", Subject: "Hi", Body: "Hello there"},
		},
		{
			name: "all headers",
			msg: Outgoing{
				To:         "a@x.com, b@x.com",
				Subject:    "Re: Quarterly numbers",
				Body:       "Line one\r\nLine two\r\n",
				Cc:         "c@x.com",
				Bcc:        "d@x.com",
				References: "<1@x.com> <2@x.com>",
				InReplyTo:  "<2@x.com>",
			},
		},
		{
			name: "non-ascii subject and body",
			msg:  Outgoing{To: "jörg@example.de", Subject: "Grüße aus Köln", Body: "Schöne Grüße ☕"},
		},
		{
			name: "empty body",
			msg:  Outgoing{To: "a@x.com", Subject: "Empty"},
		},
		{
			name: "subject with leading space",
			msg:  Outgoing{To: "a@x.com", Subject: " leading space", Body: "x"},
		},
		{
			name: "subject with trailing space",
			msg:  Outgoing{To: "a@x.com", Subject: "trailing space ", Body: "x"},
		},
		{
			name: "subject with literal encoded word",
			msg:  Outgoing{To: "a@x.com", Subject: "=?utf-8?q?literal?=", Body: "x"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			encoded := EncodeRaw(BuildRaw(tt.msg))
			decoded, err := DecodeBase64URL(encoded)
			require.NoError(t, err)

			parsed, err := ParseRaw(decoded)
			require.NoError(t, err)

			assert.Equal(t, tt.msg.To, parsed.Header("To"))
			assert.Equal(t, tt.msg.Subject, parsed.Header("Subject"))
			assert.Equal(t, tt.msg.Cc, parsed.Header("Cc"))
			assert.Equal(t, tt.msg.Bcc, parsed.Header("Bcc"))
			assert.Equal(t, tt.msg.References, parsed.Header("References"))
			assert.Equal(t, tt.msg.InReplyTo, parsed.Header("In-Reply-To"))
			assert.Equal(t, tt.msg.Body, parsed.Body)
		})
	}
}

func TestParseRaw_Multipart(t *testing.T) {
	raw := "From: a@x.com\r\n" +
		"Subject: Mixed\r\n" +
		"Content-Type: multipart/alternative; boundary=b1\r\n" +
		"\r\n" +
		"--b1\r\n" +
		"Content-Type: text/html; charset=utf-8\r\n" +
		"\r\n" +
		"<p>html</p>\r\n" +
		"--b1\r\n" +
		"Content-Type: text/plain; charset=utf-8\r\n" +
		"\r\n" +
		"plain\r\n" +
		"--b1--\r\n"

	parsed, err := ParseRaw([]byte(raw))
	require.NoError(t, err)

	assert.Equal(t, "Mixed", parsed.Header("subject"))
	assert.Equal(t, "plain", parsed.Body)
	assert.Equal(t, "text/plain", parsed.BodyMimeType)
}

func TestEncodeRFC2047(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		encoded bool
	}{
		{name: "plain ascii", in: "Quarterly numbers", encoded: false},
		{name: "empty", in: "", encoded: false},
		{name: "non-ascii", in: "Grüße", encoded: true},
		{name: "leading space", in: " leading space", encoded: true},
		{name: "trailing space", in: "trailing space ", encoded: true},
		{name: "encoded word lookalike", in: "=?utf-8?q?literal?=", encoded: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := encodeRFC2047(tt.in)
			if !tt.encoded {
				assert.Equal(t, tt.in, got)
				return
			}
			assert.True(t, strings.HasPrefix(got, "=?UTF-8?b?"), "got %q", got)
		})
	}
}
