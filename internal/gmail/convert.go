package gmail

import (
	"fmt"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/k3a/html2text"
)

// Body formats accepted by ConvertBody.
const (
	BodyFormatRaw      = "raw"
	BodyFormatMarkdown = "markdown"
	BodyFormatText     = "text"
)

var htmlConverter = md.NewConverter(
	md.WithPlugins(
		base.NewBasePlugin(),
		commonmark.NewCommonmarkPlugin(
			commonmark.WithStrongDelimiter("**"),
			commonmark.WithEmDelimiter("_"),
			commonmark.WithCodeBlockFence("```"),
		),
	),
	md.WithEscapeMode(md.EscapeModeDisabled),
)

// ConvertBody renders an HTML body in the requested format. Non-HTML
// bodies and the raw format are returned unchanged.
func ConvertBody(body Body, format string) (Body, error) {
	if body.MimeType != mimeTextHTML || format == "" || format == BodyFormatRaw {
		return body, nil
	}

	switch format {
	case BodyFormatMarkdown:
		markdown, err := htmlConverter.ConvertString(body.Text)
		if err != nil {
			return Body{}, fmt.Errorf("failed to convert HTML body to markdown: %w", err)
		}
		return Body{Text: strings.TrimSpace(markdown), MimeType: "text/markdown"}, nil
	case BodyFormatText:
		return Body{Text: collapseBlankLines(html2text.HTML2Text(body.Text)), MimeType: mimeTextPlain}, nil
	default:
		return Body{}, fmt.Errorf("unknown body format %q", format)
	}
}

// collapseBlankLines keeps at most two consecutive blank lines.
func collapseBlankLines(text string) string {
	var out []string
	blank := 0
	text = strings.ReplaceAll(text, "\r\n", "\n")
	for _, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) == "" {
			blank++
			if blank <= 2 {
				out = append(out, "")
			}
			continue
		}
		blank = 0
		out = append(out, line)
	}
	return strings.TrimSpace(strings.Join(out, "\n"))
}
