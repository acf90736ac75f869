// Package server holds the process-wide state of the gmailmcp MCP server.
//
// ServerContext owns the Gmail session. The session is created from the
// OAuth client and token files on the first tool call, memoized on success
// and retried on failure, so a missing token fails that call with a
// remediation hint instead of stopping the server.
//
// MetricsServer exposes Prometheus metrics and health endpoints on a
// separate address; the MCP protocol runs over stdio.
package server
