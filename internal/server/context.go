package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/teemow/gmailmcp/internal/gmail"
	"github.com/teemow/gmailmcp/internal/google"
	"github.com/teemow/gmailmcp/internal/instrumentation"
	"github.com/teemow/gmailmcp/internal/logging"
)

// Paths locates the OAuth files a session is built from.
type Paths struct {
	CredentialsFile string
	TokenFile       string
}

// Session is the authenticated Gmail session shared by every tool call.
type Session struct {
	Gmail     *gmail.Client
	CreatedAt time.Time
}

// SessionFactory builds a Gmail client. ctx is the server's long-lived
// context, not the context of the call that triggered construction.
type SessionFactory func(ctx context.Context) (*gmail.Client, error)

// Option configures a ServerContext.
type Option func(*ServerContext)

// WithLogger sets the logger. It must not write to stdout.
func WithLogger(logger *slog.Logger) Option {
	return func(sc *ServerContext) { sc.logger = logger }
}

// WithMetrics sets the metrics recorder.
func WithMetrics(m *instrumentation.Metrics) Option {
	return func(sc *ServerContext) { sc.metrics = m }
}

// WithAuditLogger sets the audit logger.
func WithAuditLogger(al *instrumentation.AuditLogger) Option {
	return func(sc *ServerContext) { sc.auditLogger = al }
}

// WithSessionFactory replaces the file based session construction.
func WithSessionFactory(f SessionFactory) Option {
	return func(sc *ServerContext) { sc.factory = f }
}

// WithReadOnly hides the tools that change the mailbox.
func WithReadOnly(readOnly bool) Option {
	return func(sc *ServerContext) { sc.readOnly = readOnly }
}

// ServerContext holds the process-wide state of the MCP server: the lazily
// created Gmail session and the ambient observability handles.
type ServerContext struct {
	ctx    context.Context
	cancel context.CancelFunc
	paths  Paths

	logger      *slog.Logger
	metrics     *instrumentation.Metrics
	auditLogger *instrumentation.AuditLogger
	factory     SessionFactory
	readOnly    bool

	mu       sync.Mutex
	session  *Session
	shutdown bool
}

// NewServerContext creates a server context. No file is read until the
// first call to Session.
func NewServerContext(ctx context.Context, paths Paths, opts ...Option) *ServerContext {
	shutdownCtx, cancel := context.WithCancel(ctx)

	sc := &ServerContext{
		ctx:    shutdownCtx,
		cancel: cancel,
		paths:  paths,
	}
	for _, opt := range opts {
		opt(sc)
	}
	if sc.logger == nil {
		sc.logger = slog.Default()
	}
	if sc.factory == nil {
		sc.factory = sc.fileSession
	}
	return sc
}

// Context returns the server context.
func (sc *ServerContext) Context() context.Context {
	return sc.ctx
}

// Paths returns the OAuth file locations.
func (sc *ServerContext) Paths() Paths {
	return sc.paths
}

// Logger returns the server logger.
func (sc *ServerContext) Logger() *slog.Logger {
	return sc.logger
}

// Metrics returns the metrics recorder, which may be nil.
func (sc *ServerContext) Metrics() *instrumentation.Metrics {
	return sc.metrics
}

// AuditLogger returns the audit logger, which may be nil.
func (sc *ServerContext) AuditLogger() *instrumentation.AuditLogger {
	return sc.auditLogger
}

// ReadOnly reports whether mutating tools are hidden.
func (sc *ServerContext) ReadOnly() bool {
	return sc.readOnly
}

// Session returns the Gmail session, creating it on first use. A successful
// session is kept for the life of the process; a failure is returned to the
// caller and retried on the next call.
func (sc *ServerContext) Session(ctx context.Context) (*Session, error) {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	if sc.shutdown {
		return nil, errors.New("server is shutting down")
	}
	if sc.session != nil {
		return sc.session, nil
	}

	client, err := sc.factory(sc.ctx)
	if err != nil {
		result := instrumentation.SessionResultFailure
		if errors.Is(err, google.ErrConfigurationMissing) {
			result = instrumentation.SessionResultMissing
		}
		sc.metrics.RecordSessionInit(ctx, result)
		sc.logger.Warn("gmail session unavailable", logging.Status(result), logging.Err(err))
		return nil, err
	}

	sc.metrics.RecordSessionInit(ctx, instrumentation.SessionResultSuccess)
	sc.session = &Session{Gmail: client, CreatedAt: time.Now()}
	sc.logger.Info("gmail session established")
	return sc.session, nil
}

// GmailClient returns the client of the shared session.
func (sc *ServerContext) GmailClient(ctx context.Context) (*gmail.Client, error) {
	s, err := sc.Session(ctx)
	if err != nil {
		return nil, err
	}
	return s.Gmail, nil
}

// CurrentSession returns the session if it has been established, without
// attempting to create it.
func (sc *ServerContext) CurrentSession() *Session {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	return sc.session
}

func (sc *ServerContext) fileSession(ctx context.Context) (*gmail.Client, error) {
	conf, err := google.LoadOAuthConfig(sc.paths.CredentialsFile, google.GmailScopes...)
	if err != nil {
		return nil, err
	}
	tok, err := google.LoadToken(sc.paths.TokenFile)
	if err != nil {
		return nil, err
	}

	client, err := gmail.NewClient(ctx, google.HTTPClient(ctx, conf, tok), logging.NewSlogAdapter(sc.logger))
	if err != nil {
		return nil, fmt.Errorf("failed to create gmail client: %w", err)
	}
	return client, nil
}

// IsShutdown returns whether the server has been shut down.
func (sc *ServerContext) IsShutdown() bool {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	return sc.shutdown
}

// Shutdown cancels the server context and drops the session.
func (sc *ServerContext) Shutdown() error {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	if sc.shutdown {
		return nil
	}
	sc.shutdown = true
	sc.session = nil
	sc.cancel()
	return nil
}
