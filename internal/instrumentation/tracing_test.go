package instrumentation

import (
	"context"
	"errors"
	"testing"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func withSpanRecorder(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))

	previous := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() {
		otel.SetTracerProvider(previous)
		_ = tp.Shutdown(context.Background())
	})
	return recorder
}

func spanAttrs(span sdktrace.ReadOnlySpan) map[string]any {
	out := map[string]any{}
	for _, kv := range span.Attributes() {
		out[string(kv.Key)] = kv.Value.AsInterface()
	}
	return out
}

func TestStartToolSpan(t *testing.T) {
	recorder := withSpanRecorder(t)

	ctx, span := StartToolSpan(context.Background(), "batch-delete", attribute.Int(SpanAttrMessageCount, 3))
	if GetTraceID(ctx) == "" || GetSpanID(ctx) == "" {
		t.Error("expected trace and span ids in context")
	}
	SetSpanSuccess(span)
	span.End()

	ended := recorder.Ended()
	if len(ended) != 1 {
		t.Fatalf("expected 1 span, got %d", len(ended))
	}
	if ended[0].Name() != "tool.batch-delete" {
		t.Errorf("unexpected span name %q", ended[0].Name())
	}
	attrs := spanAttrs(ended[0])
	if attrs[SpanAttrTool] != "batch-delete" {
		t.Errorf("expected tool attribute, got %v", attrs[SpanAttrTool])
	}
	if attrs[SpanAttrMessageCount] != int64(3) {
		t.Errorf("expected message count 3, got %v", attrs[SpanAttrMessageCount])
	}
	if ended[0].Status().Code != codes.Ok {
		t.Errorf("expected OK status, got %v", ended[0].Status().Code)
	}
}

func TestSetSpanError(t *testing.T) {
	recorder := withSpanRecorder(t)

	_, span := StartToolSpan(context.Background(), "send")
	SetSpanError(span, "validation", errors.New("to is required"))
	span.End()

	ended := recorder.Ended()[0]
	if ended.Status().Code != codes.Error || ended.Status().Description != "to is required" {
		t.Errorf("unexpected status %+v", ended.Status())
	}
	if spanAttrs(ended)[SpanAttrErrorKind] != "validation" {
		t.Errorf("expected error kind attribute, got %v", spanAttrs(ended))
	}
	if len(ended.Events()) != 1 {
		t.Errorf("expected the error to be recorded as an event, got %d events", len(ended.Events()))
	}
}

func TestSetSpanError_NilError(t *testing.T) {
	recorder := withSpanRecorder(t)

	_, span := StartToolSpan(context.Background(), "list")
	SetSpanError(span, "upstream", nil)
	span.End()

	if got := recorder.Ended()[0].Status().Code; got != codes.Unset {
		t.Errorf("expected unset status, got %v", got)
	}
}

func TestTraceIDs_NoSpan(t *testing.T) {
	if id := GetTraceID(context.Background()); id != "" {
		t.Errorf("expected empty trace ID, got %q", id)
	}
	if id := GetSpanID(context.Background()); id != "" {
		t.Errorf("expected empty span ID, got %q", id)
	}
}
