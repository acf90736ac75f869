// Package resources provides MCP resources for the mailbox. Resources are
// read-only documents a client can fetch without a tool call: the profile
// of the authenticated account and its label list.
package resources
