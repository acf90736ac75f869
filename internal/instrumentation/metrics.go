package instrumentation

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	attrStatus    = "status"
	attrTool      = "tool"
	attrErrorKind = "error_kind"
	attrResult    = "result"
)

// Metrics records tool server metrics. The zero value is a no-op recorder.
type Metrics struct {
	toolInvocationsTotal metric.Int64Counter
	toolDuration         metric.Float64Histogram
	sessionInitTotal     metric.Int64Counter
	batchMessagesTotal   metric.Int64Counter
}

// NewMetrics creates every instrument on meter.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	m := &Metrics{}

	var err error

	m.toolInvocationsTotal, err = meter.Int64Counter(
		"mcp_tool_invocations_total",
		metric.WithDescription("Total number of MCP tool invocations"),
		metric.WithUnit("{invocation}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create mcp_tool_invocations_total counter: %w", err)
	}

	m.toolDuration, err = meter.Float64Histogram(
		"mcp_tool_duration_seconds",
		metric.WithDescription("MCP tool execution duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.01, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create mcp_tool_duration_seconds histogram: %w", err)
	}

	m.sessionInitTotal, err = meter.Int64Counter(
		"gmail_session_init_total",
		metric.WithDescription("Total number of Gmail session initialization attempts"),
		metric.WithUnit("{attempt}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create gmail_session_init_total counter: %w", err)
	}

	m.batchMessagesTotal, err = meter.Int64Counter(
		"gmail_batch_messages_total",
		metric.WithDescription("Total number of message ids handled by batch tools"),
		metric.WithUnit("{message}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create gmail_batch_messages_total counter: %w", err)
	}

	return m, nil
}

// RecordToolInvocation records one tool call. errorKind is empty on success
// and otherwise names the failure class (unknown_operation, validation, ...).
func (m *Metrics) RecordToolInvocation(ctx context.Context, tool, errorKind string, duration time.Duration) {
	if m == nil || m.toolInvocationsTotal == nil || m.toolDuration == nil {
		return
	}

	status := StatusSuccess
	if errorKind != "" {
		status = StatusError
	}

	attrs := []attribute.KeyValue{
		attribute.String(attrTool, tool),
		attribute.String(attrStatus, status),
	}
	m.toolDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))

	if errorKind != "" {
		attrs = append(attrs, attribute.String(attrErrorKind, errorKind))
	}
	m.toolInvocationsTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordSessionInit records a Gmail session construction attempt.
// result is one of the SessionResult constants.
func (m *Metrics) RecordSessionInit(ctx context.Context, result string) {
	if m == nil || m.sessionInitTotal == nil {
		return
	}
	m.sessionInitTotal.Add(ctx, 1, metric.WithAttributes(attribute.String(attrResult, result)))
}

// RecordBatchMessages records n message ids handled by a batch tool.
func (m *Metrics) RecordBatchMessages(ctx context.Context, tool string, n int) {
	if m == nil || m.batchMessagesTotal == nil || n <= 0 {
		return
	}
	m.batchMessagesTotal.Add(ctx, int64(n), metric.WithAttributes(attribute.String(attrTool, tool)))
}
