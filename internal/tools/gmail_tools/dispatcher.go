package gmail_tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/teemow/gmailmcp/internal/gmail"
	"github.com/teemow/gmailmcp/internal/google"
	"github.com/teemow/gmailmcp/internal/instrumentation"
	"github.com/teemow/gmailmcp/internal/logging"
	"github.com/teemow/gmailmcp/internal/tools/common"
)

// ClientProvider hands out the Gmail client of the session, creating the
// session on first use.
type ClientProvider interface {
	GmailClient(ctx context.Context) (*gmail.Client, error)
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithReadOnly drops the mutating tools.
func WithReadOnly(readOnly bool) Option {
	return func(d *Dispatcher) { d.readOnly = readOnly }
}

// WithObserver sets where metrics and audit records go.
func WithObserver(obs common.Observer) Option {
	return func(d *Dispatcher) { d.observer = obs }
}

// WithLogger sets the logger for failed and completed calls. A nil logger
// keeps slog.Default.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Dispatcher) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// Dispatcher routes tool calls to their handlers. Calls run one at a time.
type Dispatcher struct {
	mu sync.Mutex

	provider ClientProvider
	readOnly bool
	observer common.Observer
	logger   *slog.Logger

	specs map[string]toolSpec
	tools []mcp.Tool
}

// NewDispatcher creates a Dispatcher over provider.
func NewDispatcher(provider ClientProvider, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		provider: provider,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(d)
	}

	specs := filterReadOnly(catalog(), d.readOnly)
	d.specs = make(map[string]toolSpec, len(specs))
	d.tools = make([]mcp.Tool, 0, len(specs))
	for _, s := range specs {
		d.specs[s.tool.Name] = s
		d.tools = append(d.tools, s.tool)
	}
	return d
}

// Tools returns the tools this Dispatcher serves, in catalog order.
func (d *Dispatcher) Tools() []mcp.Tool {
	return d.tools
}

// Known reports whether name is served.
func (d *Dispatcher) Known(name string) bool {
	_, ok := d.specs[name]
	return ok
}

// Handle runs tool name with args. The result is never nil; failures are
// returned as error results.
func (d *Dispatcher) Handle(ctx context.Context, name string, args map[string]any) *mcp.CallToolResult {
	d.mu.Lock()
	defer d.mu.Unlock()

	label := instrumentation.ToolLabel(name, d.Known)
	out := common.InstrumentedCall(ctx, d.observer, name, label, func(ctx context.Context) common.Outcome {
		return d.dispatch(ctx, name, args)
	})

	logger := logging.WithTool(d.logger, label)
	if out.Err != nil {
		logger.Warn("tool call failed", slog.String("error_kind", out.ErrorKind), logging.Err(out.Err))
		return mcp.NewToolResultError(out.Err.Error())
	}

	data, err := json.MarshalIndent(out.Result, "", "  ")
	if err != nil {
		logger.Error("failed to encode tool result", logging.Err(err))
		return mcp.NewToolResultError(fmt.Sprintf("failed to encode result: %v", err))
	}
	logger.Debug("tool call succeeded")
	return mcp.NewToolResultText(string(data))
}

func (d *Dispatcher) dispatch(ctx context.Context, name string, args map[string]any) common.Outcome {
	// Names and arguments are checked before the session is opened.
	spec, ok := d.specs[name]
	if !ok {
		return failed(&ToolError{Kind: KindUnknownOperation, Op: name, Err: ErrUnknownOperation})
	}

	out := common.Outcome{Mutating: spec.mutating}

	normalized, err := normalizeArgs(spec.tool, args)
	if err != nil {
		return withError(out, &ToolError{Kind: KindValidationFailure, Op: name, Err: err})
	}
	c, err := spec.bind(normalized)
	if err != nil {
		return withError(out, &ToolError{Kind: KindValidationFailure, Op: name, Err: err})
	}
	out.MessageIDs, out.Recipients = c.messageIDs, c.recipients

	client, err := d.provider.GmailClient(ctx)
	if err != nil {
		kind := KindUpstreamFailure
		if errors.Is(err, google.ErrConfigurationMissing) {
			kind = KindConfigurationMissing
		}
		return withError(out, &ToolError{Kind: kind, Op: name, Err: err})
	}

	result, err := invoke(ctx, c.run, client)
	if err != nil {
		return withError(out, &ToolError{Kind: KindUpstreamFailure, Op: name, Err: err})
	}

	out.Result = result
	if spec.batch {
		out.BatchSize = len(c.messageIDs)
	}
	return out
}

// invoke runs a handler and turns a panic into an error.
func invoke(ctx context.Context, run handlerFunc, client *gmail.Client) (result any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("internal error: %v", r)
		}
	}()
	return run(ctx, client)
}

func failed(err *ToolError) common.Outcome {
	return withError(common.Outcome{}, err)
}

func withError(out common.Outcome, err *ToolError) common.Outcome {
	out.ErrorKind = string(err.Kind)
	out.Err = err
	return out
}
