// Package logging holds the slog conventions used by gmailmcp.
//
// Attribute keys are fixed here so that every package logs tool names,
// message ids and outcomes under the same names. Addresses never reach the
// log in clear text; use AnonymizeEmail or Recipients.
//
//	logger := logging.WithTool(slog.Default(), "reply")
//	logger.Info("reply sent", logging.MessageID(id), logging.Recipients(to))
//
// The server speaks MCP on stdout, so NewLogger always writes to the
// supplied writer (stderr in practice) and never to stdout.
package logging
