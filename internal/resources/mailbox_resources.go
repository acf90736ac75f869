package resources

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/gmailmcp/internal/gmail"
)

// Resource URIs.
const (
	ProfileURI = "gmail://profile"
	LabelsURI  = "gmail://labels"
)

const mimeJSON = "application/json"

// ClientProvider hands out the Gmail client of the session.
type ClientProvider interface {
	GmailClient(ctx context.Context) (*gmail.Client, error)
}

// RegisterMailboxResources registers the profile and label resources.
func RegisterMailboxResources(s *mcpserver.MCPServer, provider ClientProvider) {
	profileResource := mcp.NewResource(
		ProfileURI,
		"Mailbox Profile",
		mcp.WithResourceDescription("Email address and message and thread totals of the authenticated mailbox"),
		mcp.WithMIMEType(mimeJSON),
	)
	s.AddResource(profileResource, func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		return readJSON(ctx, request, provider, func(ctx context.Context, c *gmail.Client) (any, error) {
			return c.Profile(ctx)
		})
	})

	labelsResource := mcp.NewResource(
		LabelsURI,
		"Mailbox Labels",
		mcp.WithResourceDescription("System and user labels of the mailbox with their IDs"),
		mcp.WithMIMEType(mimeJSON),
	)
	s.AddResource(labelsResource, func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		return readJSON(ctx, request, provider, func(ctx context.Context, c *gmail.Client) (any, error) {
			labels, err := c.ListLabels(ctx)
			if err != nil {
				return nil, err
			}
			return map[string]any{"labels": labels}, nil
		})
	})
}

func readJSON(ctx context.Context, request mcp.ReadResourceRequest, provider ClientProvider, fetch func(context.Context, *gmail.Client) (any, error)) ([]mcp.ResourceContents, error) {
	client, err := provider.GmailClient(ctx)
	if err != nil {
		return nil, err
	}

	data, err := fetch(ctx, client)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", request.Params.URI, err)
	}

	jsonData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s: %w", request.Params.URI, err)
	}

	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      request.Params.URI,
			MIMEType: mimeJSON,
			Text:     string(jsonData),
		},
	}, nil
}
