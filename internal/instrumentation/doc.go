// Package instrumentation provides OpenTelemetry instrumentation for the
// gmailmcp tool server.
//
// # Metrics
//
//   - mcp_tool_invocations_total: tool invocations by tool, status and error kind
//   - mcp_tool_duration_seconds: tool execution time by tool and status
//   - gmail_session_init_total: Gmail session construction attempts by result
//   - gmail_batch_messages_total: message ids handled by batch tools
//
// Outbound Gmail HTTP calls are traced and measured by otelhttp, which
// reports through the global providers installed by NewProvider.
//
// # Tracing
//
// Each tool invocation runs in a span named tool.<name>.
//
// # Configuration
//
// Instrumentation is configured through the environment:
//   - INSTRUMENTATION_ENABLED: enable or disable instrumentation (default: true)
//   - METRICS_EXPORTER: prometheus, otlp or console (default: prometheus)
//   - TRACING_EXPORTER: otlp, console or none (default: none)
//   - OTEL_EXPORTER_OTLP_ENDPOINT: OTLP endpoint for traces and metrics
//   - OTEL_TRACES_SAMPLER_ARG: sampling rate (0.0 to 1.0, default: 0.1)
//   - OTEL_SERVICE_NAME: service name (default: gmailmcp)
//
// The console exporters write to stderr; stdout carries the MCP protocol.
package instrumentation
