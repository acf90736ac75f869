package google

import (
	gmail "google.golang.org/api/gmail/v1"
)

// GmailScopes are the scopes requested by `gmailmcp auth`. The full
// mail.google.com scope is needed for permanent deletion.
var GmailScopes = []string{
	gmail.MailGoogleComScope,
	gmail.GmailModifyScope,
	gmail.GmailSendScope,
	gmail.GmailLabelsScope,
	gmail.GmailComposeScope,
}
