// Copyright © 2025 Prabhjot Singh Sethi, All Rights reserved
// Author: Prabhjot Singh Sethi <prabhjot.sethi@gmail.com>

package proxy

import (
	"context"
	"net/http"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/go-core-stack/dependents-proxy/pkg/router"
	"github.com/go-core-stack/dependents-proxy/pkg/tools"
)

const (
	mcpServerName    = "dependents-proxy"
	mcpServerVersion = "1.0.0"
)

// newMCPServer registers every catalog tool; calls run through rt.
func newMCPServer(rt *router.Router, catalog []tools.Descriptor) (*server.MCPServer, error) {
	s := server.NewMCPServer(
		mcpServerName,
		mcpServerVersion,
		server.WithToolCapabilities(true),
	)

	for _, d := range catalog {
		schema, err := d.RawSchema()
		if err != nil {
			return nil, err
		}
		s.AddTool(mcp.NewToolWithRawSchema(d.Name, d.Description, schema), mcpToolHandler(rt, d.Name))
	}

	return s, nil
}

// mcpToolHandler adapts an envelope to an MCP result. Envelopes carrying an
// error status become error results with the envelope body as text.
func mcpToolHandler(rt *router.Router, name string) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		env := rt.Route(ctx, req.GetArguments(), name)
		if env.StatusCode >= http.StatusBadRequest {
			return mcp.NewToolResultError(env.Body), nil
		}
		return mcp.NewToolResultText(env.Body), nil
	}
}
