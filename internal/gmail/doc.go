// Package gmail is the mailbox layer behind the MCP tools.
//
// It has three parts:
//
//   - a narrow API interface over the Gmail users service (api.go), so the
//     rest of the package can run against an in-memory fake;
//   - the MIME codec: BuildRaw and EncodeRaw for outbound mail, ParseRaw for
//     raw inbound mail, and PartTree for resolving bodies and attachments of
//     payloads Gmail has already parsed;
//   - reply/forward composition and the label projection that turns
//     actions like "archive" into label deltas.
//
// Client ties them together, one method per mailbox operation.
package gmail
