package gmail_tools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/gmailmcp/internal/gmail"
	"github.com/teemow/gmailmcp/internal/server"
)

type handlerFunc func(ctx context.Context, c *gmail.Client) (any, error)

// call is a decoded and validated tool invocation.
type call struct {
	run        handlerFunc
	messageIDs []string
	recipients string
}

type binder func(args map[string]any) (call, error)

// toolSpec is one entry of the catalog.
type toolSpec struct {
	tool     mcp.Tool
	mutating bool
	// batch tools report the number of messages they act on.
	batch bool
	bind  binder
}

// bind decodes the arguments into A and validates them before returning a
// call that runs fn.
func bind[A validator](fn func(ctx context.Context, c *gmail.Client, a A) (any, error)) binder {
	return func(args map[string]any) (call, error) {
		var a A
		if err := decodeArgs(args, &a); err != nil {
			return call{}, err
		}
		if err := a.Validate(); err != nil {
			return call{}, err
		}

		c := call{run: func(ctx context.Context, client *gmail.Client) (any, error) {
			return fn(ctx, client, a)
		}}
		if t, ok := any(a).(targeter); ok {
			c.messageIDs, c.recipients = t.targets()
		}
		return c, nil
	}
}

func readTool(name string, opts ...mcp.ToolOption) mcp.Tool {
	return mcp.NewTool(name, append(opts, mcp.WithReadOnlyHintAnnotation(true))...)
}

func writeTool(name string, destructive bool, opts ...mcp.ToolOption) mcp.Tool {
	return mcp.NewTool(name, append(opts,
		mcp.WithReadOnlyHintAnnotation(false),
		mcp.WithDestructiveHintAnnotation(destructive),
	)...)
}

// catalog returns every tool in its stable order.
func catalog() []toolSpec {
	var specs []toolSpec
	specs = append(specs, emailTools()...)
	specs = append(specs, messageStateTools()...)
	specs = append(specs, labelTools()...)
	specs = append(specs, draftTools()...)
	specs = append(specs, attachmentTools()...)
	specs = append(specs, batchTools()...)
	return specs
}

func filterReadOnly(specs []toolSpec, readOnly bool) []toolSpec {
	if !readOnly {
		return specs
	}
	out := make([]toolSpec, 0, len(specs))
	for _, s := range specs {
		if !s.mutating {
			out = append(out, s)
		}
	}
	return out
}

// Tools returns the tool definitions advertised to clients. Mutating tools
// are left out when readOnly is set.
func Tools(readOnly bool) []mcp.Tool {
	specs := filterReadOnly(catalog(), readOnly)
	tools := make([]mcp.Tool, 0, len(specs))
	for _, s := range specs {
		tools = append(tools, s.tool)
	}
	return tools
}

// Register adds the catalog to s. Every call goes through one Dispatcher
// bound to the session of sc.
func Register(s *mcpserver.MCPServer, sc *server.ServerContext) *Dispatcher {
	d := NewDispatcher(sc,
		WithReadOnly(sc.ReadOnly()),
		WithObserver(sc),
		WithLogger(sc.Logger()),
	)
	for _, tool := range d.Tools() {
		s.AddTool(tool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return d.Handle(ctx, request.Params.Name, request.GetArguments()), nil
		})
	}
	return d
}
