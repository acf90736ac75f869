package instrumentation

import (
	"context"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func newTestProvider(t *testing.T, config Config) *Provider {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)

	provider, err := NewProvider(ctx, config)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })
	return provider
}

func TestNewProvider_Disabled(t *testing.T) {
	provider := newTestProvider(t, Config{ServiceName: "test-service", Enabled: false})

	if provider.Enabled() {
		t.Error("expected provider to be disabled")
	}
	if provider.Metrics() == nil {
		t.Error("expected metrics to be non-nil even when disabled")
	}
	if provider.MetricsHandler() != nil {
		t.Error("expected no metrics handler when disabled")
	}
	if provider.Tracer("test") == nil {
		t.Error("expected a no-op tracer")
	}
	if err := provider.Shutdown(context.Background()); err != nil {
		t.Errorf("expected no error on shutdown, got %v", err)
	}
}

func TestNewProvider_PrometheusHandlerServesToolMetrics(t *testing.T) {
	provider := newTestProvider(t, Config{
		ServiceName:     "test-service",
		ServiceVersion:  "1.0.0",
		Enabled:         true,
		MetricsExporter: ExporterPrometheus,
		TracingExporter: ExporterNone,
	})

	provider.Metrics().RecordToolInvocation(context.Background(), "list", "", 5*time.Millisecond)

	handler := provider.MetricsHandler()
	if handler == nil {
		t.Fatal("expected metrics handler for prometheus exporter")
	}

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)

	if !strings.Contains(string(body), "mcp_tool_invocations_total") {
		t.Errorf("expected mcp_tool_invocations_total in output, got:\n%s", body)
	}
	if !strings.Contains(string(body), `tool="list"`) {
		t.Errorf("expected tool label in output, got:\n%s", body)
	}
}

func TestNewProvider_ConsoleExporters(t *testing.T) {
	provider := newTestProvider(t, Config{
		ServiceName:       "test-service",
		Enabled:           true,
		MetricsExporter:   ExporterConsole,
		TracingExporter:   ExporterConsole,
		TraceSamplingRate: 1,
	})

	if !provider.Enabled() {
		t.Error("expected provider to be enabled")
	}
	if provider.MetricsHandler() != nil {
		t.Error("expected no metrics handler for the console exporter")
	}
}

func TestNewProvider_InvalidConfig(t *testing.T) {
	tests := []struct {
		name   string
		config Config
	}{
		{"invalid metrics exporter", Config{Enabled: true, MetricsExporter: "invalid", TracingExporter: ExporterNone}},
		{"invalid tracing exporter", Config{Enabled: true, MetricsExporter: ExporterPrometheus, TracingExporter: "invalid"}},
		{"otlp tracing without endpoint", Config{Enabled: true, MetricsExporter: ExporterPrometheus, TracingExporter: ExporterOTLP}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewProvider(context.Background(), tt.config); err == nil {
				t.Error("expected an error")
			}
		})
	}
}
