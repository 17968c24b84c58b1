// Package transport implements the gateway's protocol surface (C8):
// streamable-HTTP and SSE endpoints backed by mark3labs/mcp-go's server
// package, plus the /status and /oauth/connect control endpoints.
package transport

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	apierrors "github.com/stacklok/mcp-vgateway/pkg/apierrors"
	"github.com/stacklok/mcp-vgateway/pkg/logger"
	"github.com/stacklok/mcp-vgateway/pkg/vgw"
	"github.com/stacklok/mcp-vgateway/pkg/vgw/backend"
	"github.com/stacklok/mcp-vgateway/pkg/vgw/dispatcher"
)

// Server is the gateway's HTTP-facing surface: one mcp-go MCPServer
// exposed over both streamable-HTTP and SSE, plus the status and OAuth
// control endpoints.
type Server struct {
	handler http.Handler
	addr    string
}

// New builds the full router: /mcp, /sse + /messages/, /status,
// /oauth/connect. allowOrigins enables a CORS preflight handler when
// non-empty, per spec §4.8's "optional CORS preflight if origin allow-list
// configured".
func New(addr string, disp *dispatcher.Dispatcher, tools []*vgw.VirtualTool, mgr *backend.Manager, allowOrigins []string, stateless bool) *Server {
	activity := newActivityTracker()
	mcpServer := buildMCPServer(disp)

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	if len(allowOrigins) > 0 {
		r.Use(corsMiddleware(allowOrigins))
	}

	mountMCPTransports(r, mcpServer, activity, stateless)

	status := &statusRoutes{tools: tools, activity: activity}
	r.Get("/status", status.getStatus)

	oauth := &oauthRoutes{attach: mgr.AttachOAuth}
	r.Post("/oauth/connect", apierrors.ErrorHandler(oauth.connect))

	return &Server{handler: r, addr: addr}
}

// Run starts the HTTP server and blocks until ctx is canceled, then
// drains in-flight requests within shutdownTimeout. Mirrors the
// ListenAndServe/Shutdown pattern used for the gateway's MCP server.
func (s *Server) Run(ctx context.Context) error {
	const shutdownTimeout = 10 * time.Second

	httpServer := &http.Server{
		Addr:              s.addr,
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Infof("gateway listening on http://%s", s.addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down gateway http server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}
