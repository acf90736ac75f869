package common

import (
	"context"

	"go.opentelemetry.io/otel/attribute"

	"github.com/teemow/gmailmcp/internal/instrumentation"
)

// Observer supplies the metrics and audit sinks of a call. Either may be nil.
type Observer interface {
	Metrics() *instrumentation.Metrics
	AuditLogger() *instrumentation.AuditLogger
}

// Outcome is what a tool call produced. Err is nil on success, in which case
// ErrorKind is ignored.
type Outcome struct {
	Result    any
	ErrorKind string
	Err       error

	Mutating   bool
	MessageIDs []string
	Recipients string

	// BatchSize is the number of messages a bulk tool acted on. Zero for
	// tools that do not batch.
	BatchSize int
}

// InstrumentedCall runs call inside a tool span and records the tool
// metrics and an audit record for the outcome. label is the bounded metric
// label for tool; the span and the audit record carry the name as sent.
func InstrumentedCall(ctx context.Context, obs Observer, tool, label string, call func(ctx context.Context) Outcome) Outcome {
	ctx, span := instrumentation.StartToolSpan(ctx, tool)
	defer span.End()

	invocation := instrumentation.NewToolInvocation(tool).WithSpanContext(ctx)

	out := call(ctx)

	invocation.WithMutating(out.Mutating).WithTargets(out.MessageIDs, out.Recipients)
	if out.BatchSize > 0 {
		span.SetAttributes(attribute.Int(instrumentation.SpanAttrMessageCount, out.BatchSize))
	}

	errorKind := ""
	if out.Err != nil {
		errorKind = out.ErrorKind
		invocation.CompleteWithError(errorKind, out.Err)
		instrumentation.SetSpanError(span, errorKind, out.Err)
	} else {
		invocation.CompleteSuccess()
		instrumentation.SetSpanSuccess(span)
	}

	if obs == nil {
		return out
	}
	if m := obs.Metrics(); m != nil {
		m.RecordToolInvocation(ctx, label, errorKind, invocation.Duration)
		if out.Err == nil && out.BatchSize > 0 {
			m.RecordBatchMessages(ctx, label, out.BatchSize)
		}
	}
	obs.AuditLogger().LogToolInvocation(invocation)

	return out
}
