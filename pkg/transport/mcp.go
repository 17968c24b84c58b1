package transport

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/stacklok/mcp-vgateway/pkg/vgw/dispatcher"
)

// mcpEndpointPath and messageEndpointPath are fixed per spec §6; no
// version segment, no trailing-slash redirect.
const (
	mcpEndpointPath     = "/mcp"
	sseEndpointPath     = "/sse"
	messageEndpointPath = "/messages/"
)

// buildMCPServer registers every tool currently visible in the dispatcher
// (including strict-disabled ones, so a client can still see them listed)
// and routes every tools/call through disp.CallTool.
func buildMCPServer(disp *dispatcher.Dispatcher) *server.MCPServer {
	mcpServer := server.NewMCPServer(
		"mcp-vgateway",
		"dev",
		server.WithToolCapabilities(false),
	)

	for _, desc := range disp.ListTools() {
		tool := mcp.Tool{
			Name:        desc.Name,
			Description: desc.Description,
			InputSchema: schemaToToolInputSchema(desc.InputSchema),
		}
		mcpServer.AddTool(tool, callToolHandler(disp, desc.Name))
	}

	return mcpServer
}

func callToolHandler(disp *dispatcher.Dispatcher, name string) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args, _ := req.Params.Arguments.(map[string]any)

		result, err := disp.CallTool(ctx, name, args)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		if r, ok := result.(*mcp.CallToolResult); ok {
			return r, nil
		}
		return mcp.NewToolResultStructuredOnly(result), nil
	}
}

// schemaToToolInputSchema converts a plain JSON-Schema map (the outward,
// defaults-hidden schema produced at load time) into mcp-go's typed
// ToolInputSchema.
func schemaToToolInputSchema(schema map[string]any) mcp.ToolInputSchema {
	out := mcp.ToolInputSchema{Type: "object"}
	if schema == nil {
		return out
	}
	if t, ok := schema["type"].(string); ok && t != "" {
		out.Type = t
	}
	if props, ok := schema["properties"].(map[string]any); ok {
		out.Properties = props
	}
	if req, ok := schema["required"].([]any); ok {
		for _, r := range req {
			if s, ok := r.(string); ok {
				out.Required = append(out.Required, s)
			}
		}
	}
	return out
}

// mountMCPTransports wires the streamable-HTTP and SSE surfaces onto r,
// both backed by the same mcpServer instance, per spec §4.8. When
// stateless is true, no Mcp-Session-Id is assigned: every request is
// handled independently, per the CLI's --stateless flag.
func mountMCPTransports(r chi.Router, mcpServer *server.MCPServer, activity *activityTracker, stateless bool) {
	opts := []server.StreamableHTTPOption{
		server.WithEndpointPath(mcpEndpointPath),
		server.WithHTTPContextFunc(func(ctx context.Context, _ *http.Request) context.Context {
			activity.touch()
			return ctx
		}),
	}
	if stateless {
		opts = append(opts, server.WithStateLess(true))
	} else {
		opts = append(opts, server.WithSessionIdManager(uuidSessionIDManager{}))
	}
	streamable := server.NewStreamableHTTPServer(mcpServer, opts...)
	// Both with and without a trailing slash hit the same handler: no
	// redirect, matching the original's single mounted ASGI app.
	r.Handle(mcpEndpointPath, streamable)
	r.Handle(mcpEndpointPath+"/", streamable)

	sseServer := server.NewSSEServer(
		mcpServer,
		server.WithSSEEndpoint(sseEndpointPath),
		server.WithMessageEndpoint(messageEndpointPath),
		server.WithSSEContextFunc(func(ctx context.Context, _ *http.Request) context.Context {
			activity.touch()
			return ctx
		}),
	)
	r.Handle(sseEndpointPath, sseServer)
	r.Handle(messageEndpointPath+"*", sseServer)
}
