// Package gmail_tools exposes the Gmail mailbox as MCP tools.
//
// The catalog is a fixed table of operations. Each operation decodes its
// arguments into a typed struct and validates it before the Gmail session
// is touched, so a bad call never has a side effect. The Dispatcher
// serializes calls, ensures the session and renders every outcome, failure
// included, as a tool result envelope.
//
// With read-only mode the mutating operations are left out of the catalog
// and the dispatch table alike.
package gmail_tools
