package cmd

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/teemow/gmailmcp/internal/tools/gmail_tools"
)

func TestGenerateToolsMarkdown(t *testing.T) {
	tools := gmail_tools.Tools(false)
	md := generateToolsMarkdown(tools, readOnlyNames())

	for _, tool := range tools {
		assert.Contains(t, md, "### "+tool.Name+"\n", tool.Name)
	}
	assert.Contains(t, md, "- `messageId` (string, required): ")
	assert.Contains(t, md, "- `messageIds` (string[], required): ")
	assert.Contains(t, md, "One of: `full`, `metadata`, `raw`.")

	get := md[strings.Index(md, "### get\n"):]
	get = get[:strings.Index(get[1:], "### ")+1]
	assert.Contains(t, get, "*read-only*")

	send := md[strings.Index(md, "### send\n"):]
	send = send[:strings.Index(send[1:], "### ")+1]
	assert.NotContains(t, send, "*read-only*")
}
