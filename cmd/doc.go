// Package cmd implements the command-line interface for gmailmcp.
//
// This package provides the following commands:
//   - serve: Start the MCP server on stdio (the default)
//   - auth: Authorize Gmail access once and write the token file
//   - generate-docs: Generate markdown documentation for all MCP tools
//   - version: Display version information
package cmd
