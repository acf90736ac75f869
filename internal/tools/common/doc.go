// Package common holds helpers shared by the tool packages. InstrumentedCall
// wraps a single tool invocation with a span, metrics and an audit record.
package common
