package instrumentation

import (
	"context"
	"log/slog"
	"time"

	"github.com/teemow/gmailmcp/internal/logging"
)

// ToolInvocation is the audit record of one tool call.
//
// Recipients and MessageIDs identify mail content; they are only logged in
// clear when the AuditLogger includes PII.
type ToolInvocation struct {
	Tool     string
	Mutating bool

	MessageIDs []string
	Recipients string

	StartTime time.Time
	Duration  time.Duration
	Success   bool
	ErrorKind string
	Error     string

	TraceID string
	SpanID  string
}

// NewToolInvocation starts timing a tool call.
func NewToolInvocation(tool string) *ToolInvocation {
	return &ToolInvocation{
		Tool:      tool,
		StartTime: time.Now(),
	}
}

// WithMutating marks whether the tool changes the mailbox.
func (ti *ToolInvocation) WithMutating(mutating bool) *ToolInvocation {
	ti.Mutating = mutating
	return ti
}

// WithTargets records the message ids and recipients the call touches.
func (ti *ToolInvocation) WithTargets(messageIDs []string, recipients string) *ToolInvocation {
	ti.MessageIDs = messageIDs
	ti.Recipients = recipients
	return ti
}

// WithSpanContext copies the trace context of the span in ctx.
func (ti *ToolInvocation) WithSpanContext(ctx context.Context) *ToolInvocation {
	ti.TraceID = GetTraceID(ctx)
	ti.SpanID = GetSpanID(ctx)
	return ti
}

// CompleteSuccess marks the invocation as successful.
func (ti *ToolInvocation) CompleteSuccess() *ToolInvocation {
	ti.Duration = time.Since(ti.StartTime)
	ti.Success = true
	return ti
}

// CompleteWithError marks the invocation as failed with the given kind.
func (ti *ToolInvocation) CompleteWithError(kind string, err error) *ToolInvocation {
	ti.Duration = time.Since(ti.StartTime)
	ti.Success = false
	ti.ErrorKind = kind
	if err != nil {
		ti.Error = err.Error()
	}
	return ti
}

// Status returns "success" or "error".
func (ti *ToolInvocation) Status() string {
	if ti.Success {
		return StatusSuccess
	}
	return StatusError
}

// LogAttrs returns the attributes of the invocation. Message ids and
// recipients are reduced to a count and hashes unless includePII is set.
func (ti *ToolInvocation) LogAttrs(includePII bool) []slog.Attr {
	attrs := []slog.Attr{
		logging.Tool(ti.Tool),
		logging.Status(ti.Status()),
		slog.Bool("mutating", ti.Mutating),
		slog.Duration(logging.KeyDuration, ti.Duration),
	}

	if len(ti.MessageIDs) > 0 {
		if includePII {
			attrs = append(attrs, slog.Any("message_ids", ti.MessageIDs))
		} else {
			attrs = append(attrs, slog.Int("message_count", len(ti.MessageIDs)))
		}
	}
	if ti.Recipients != "" {
		if includePII {
			attrs = append(attrs, slog.String(logging.KeyRecipients, ti.Recipients))
		} else {
			attrs = append(attrs, logging.Recipients(ti.Recipients))
		}
	}
	if ti.ErrorKind != "" {
		attrs = append(attrs, slog.String("error_kind", ti.ErrorKind))
	}
	if ti.Error != "" {
		attrs = append(attrs, slog.String(logging.KeyError, ti.Error))
	}
	if ti.TraceID != "" {
		attrs = append(attrs, slog.String("trace_id", ti.TraceID), slog.String("span_id", ti.SpanID))
	}
	return attrs
}

// AuditLogger writes one structured record per tool invocation.
type AuditLogger struct {
	logger     *slog.Logger
	includePII bool
	enabled    bool
}

// NewAuditLogger creates an enabled AuditLogger that anonymizes targets.
func NewAuditLogger(logger *slog.Logger) *AuditLogger {
	return NewAuditLoggerWithConfig(logger, AuditLoggingConfig{Enabled: true})
}

// NewAuditLoggerWithConfig creates an AuditLogger from config.
func NewAuditLoggerWithConfig(logger *slog.Logger, config AuditLoggingConfig) *AuditLogger {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuditLogger{
		logger:     logger.With(slog.String("component", "audit")),
		includePII: config.IncludePII,
		enabled:    config.Enabled,
	}
}

// LogToolInvocation logs ti at info level on success and warn otherwise.
func (al *AuditLogger) LogToolInvocation(ti *ToolInvocation) {
	if al == nil || !al.enabled {
		return
	}

	level := slog.LevelInfo
	msg := "tool_executed"
	if !ti.Success {
		level = slog.LevelWarn
		msg = "tool_failed"
	}
	al.logger.LogAttrs(context.Background(), level, msg, ti.LogAttrs(al.includePII)...)
}
