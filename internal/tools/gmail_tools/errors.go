package gmail_tools

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a failed tool call.
type ErrorKind string

const (
	KindConfigurationMissing ErrorKind = "configuration_missing"
	KindUnknownOperation     ErrorKind = "unknown_operation"
	KindUpstreamFailure      ErrorKind = "upstream"
	KindValidationFailure    ErrorKind = "validation"
)

var (
	// ErrUnknownOperation is returned for a tool name outside the dispatch table.
	ErrUnknownOperation = errors.New("unknown operation")
	// ErrValidation is wrapped by every argument error.
	ErrValidation = errors.New("invalid arguments")
)

// ToolError is the failure of one tool call.
type ToolError struct {
	Kind ErrorKind
	Op   string
	Err  error
}

// Error returns the message shown to the client. Upstream and configuration
// errors are passed through verbatim.
func (e *ToolError) Error() string {
	switch e.Kind {
	case KindUpstreamFailure, KindConfigurationMissing:
		return e.Err.Error()
	case KindUnknownOperation:
		return fmt.Sprintf("%v: %s", e.Err, e.Op)
	default:
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
}

func (e *ToolError) Unwrap() error {
	return e.Err
}

func invalidf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}
