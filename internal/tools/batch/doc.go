// Package batch holds helpers for tools that take several message ids:
// parsing an id-or-list argument and aggregating per-item results of
// client-side loops.
package batch
