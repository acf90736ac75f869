package gmail

import (
	"strings"
)

const (
	replyPrefix   = "Re: "
	forwardPrefix = "Fwd: "

	forwardBanner = "---------- Forwarded message ---------"
)

// ReplyOptions controls how a reply is composed.
type ReplyOptions struct {
	Body     string
	ReplyAll bool
	Cc       string
	Bcc      string
}

// Reply is a composed reply, ready to send on the original thread.
type Reply struct {
	To         string
	Subject    string
	References string
	InReplyTo  string
	Raw        []byte
}

// ComposeReply derives the reply to a message with the given headers.
//
// The recipient is the original From, or with ReplyAll the From followed by
// every To and Cc address. Addresses are neither parsed nor deduplicated.
func ComposeReply(original Headers, opts ReplyOptions) Reply {
	messageID := original.Get("Message-ID")

	r := Reply{
		To:      replyRecipients(original, opts.ReplyAll),
		Subject: ReplySubject(original.Get("Subject")),
	}
	if messageID != "" {
		r.InReplyTo = messageID
		r.References = messageID
		if refs := strings.TrimSpace(original.Get("References")); refs != "" {
			r.References = refs + " " + messageID
		}
	}

	r.Raw = BuildRaw(Outgoing{
		To:         r.To,
		Subject:    r.Subject,
		Body:       opts.Body,
		Cc:         opts.Cc,
		Bcc:        opts.Bcc,
		References: r.References,
		InReplyTo:  r.InReplyTo,
	})
	return r
}

// ReplySubject prefixes subject with "Re: " unless it already starts with
// "Re:". The check is case-sensitive.
func ReplySubject(subject string) string {
	if strings.HasPrefix(subject, strings.TrimSpace(replyPrefix)) {
		return subject
	}
	return replyPrefix + subject
}

func replyRecipients(original Headers, replyAll bool) string {
	from := original.Get("From")
	if !replyAll {
		return from
	}

	var recipients []string
	for _, list := range []string{from, original.Get("To"), original.Get("Cc")} {
		recipients = append(recipients, SplitAddresses(list)...)
	}
	return strings.Join(recipients, ",")
}

// SplitAddresses splits a comma-separated address list, trimming entries
// and dropping blanks.
func SplitAddresses(list string) []string {
	var out []string
	for _, addr := range strings.Split(list, ",") {
		if addr = strings.TrimSpace(addr); addr != "" {
			out = append(out, addr)
		}
	}
	return out
}

// Forward is a composed forward. It carries no threading headers.
type Forward struct {
	Subject string
	Body    string
}

// ComposeForward derives the subject and body of a forward. originalBody is
// the resolved display body of the original message.
func ComposeForward(original Headers, originalBody, additional string) Forward {
	quoted := strings.Join([]string{
		forwardBanner,
		"From: " + original.Get("From"),
		"Date: " + original.Get("Date"),
		"Subject: " + original.Get("Subject"),
	}, "\n")

	var blocks []string
	if strings.TrimSpace(additional) != "" {
		blocks = append(blocks, additional)
	}
	blocks = append(blocks, quoted, originalBody)

	return Forward{
		Subject: ForwardSubject(original.Get("Subject")),
		Body:    strings.Join(blocks, "\n\n"),
	}
}

// ForwardSubject prefixes subject with "Fwd: " unless it already starts
// with "Fwd:".
func ForwardSubject(subject string) string {
	if strings.HasPrefix(subject, strings.TrimSpace(forwardPrefix)) {
		return subject
	}
	return forwardPrefix + subject
}
