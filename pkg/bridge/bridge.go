// Package bridge implements mcpgw's client-bridge mode: a local stdio MCP
// server that proxies every list_tools/call_tool straight through to a
// remote gateway's SSE or streamable-HTTP endpoint. Unlike the gateway
// itself (pkg/transport, pkg/vgw/dispatcher), bridge mode has no registry
// and no virtual-tool transformation; it exists so a stdio-only MCP client
// (an IDE plugin, a CLI agent) can reach a gateway that only speaks HTTP.
package bridge

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/http"
	"os"

	mcpclient "github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/client/transport"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/stacklok/mcp-vgateway/pkg/logger"
)

// Transport selects which wire transport the bridge dials the remote
// gateway with, mirroring the original client's --transport sse|streamablehttp
// choice.
type Transport string

const (
	TransportSSE            Transport = "sse"
	TransportStreamableHTTP Transport = "streamablehttp"
)

// Options configures how Run authenticates to and dials the remote
// gateway. A zero-value Options dials plain SSE with no auth and default
// TLS verification, matching the original client's own defaults.
type Options struct {
	Transport Transport

	// ClientID/ClientSecret/TokenURL, when all three are set, make Run
	// fetch and refresh a bearer token via the OAuth2 client-credentials
	// grant, re-attaching it to every outbound request.
	ClientID     string
	ClientSecret string
	TokenURL     string

	// VerifySSL controls TLS certificate verification on the outbound
	// connection to the remote gateway. nil means "verify" (the
	// platform default); false disables verification.
	VerifySSL *bool
}

// Run dials url over the configured transport, mirrors its current tool
// catalog onto a freshly built local MCPServer, and serves that server
// over stdio until ctx is canceled or stdin closes.
//
// If the API_ACCESS_TOKEN environment variable is set, its value is sent
// as a bearer token on every outbound request, same as the original
// client reads it to set an Authorization header.
func Run(ctx context.Context, url string, opts Options) error {
	httpClient, err := buildHTTPClient(opts)
	if err != nil {
		return fmt.Errorf("failed to configure bridge HTTP client: %w", err)
	}

	remote, err := newRemoteClient(url, opts.Transport, httpClient)
	if err != nil {
		return fmt.Errorf("failed to create bridge client for %q: %w", url, err)
	}
	defer func() { _ = remote.Close() }()

	if err := remote.Start(ctx); err != nil {
		return fmt.Errorf("failed to start bridge client for %q: %w", url, err)
	}

	initReq := mcp.InitializeRequest{}
	initReq.Params.ProtocolVersion = mcp.LATEST_PROTOCOL_VERSION
	initReq.Params.ClientInfo = mcp.Implementation{Name: "mcpgw-bridge", Version: "dev"}
	if _, err := remote.Initialize(ctx, initReq); err != nil {
		return fmt.Errorf("failed to initialize bridge session with %q: %w", url, err)
	}

	listed, err := remote.ListTools(ctx, mcp.ListToolsRequest{})
	if err != nil {
		return fmt.Errorf("failed to list tools from %q: %w", url, err)
	}

	local := server.NewMCPServer("mcpgw-bridge", "dev", server.WithToolCapabilities(false))
	for _, tool := range listed.Tools {
		local.AddTool(tool, proxyHandler(remote, tool.Name))
	}

	logger.Infof("bridging %d tools from %s over %s", len(listed.Tools), url, transportLabel(opts.Transport))
	return server.NewStdioServer(local).Listen(ctx, os.Stdin, os.Stdout)
}

func newRemoteClient(url string, kind Transport, httpClient *http.Client) (*mcpclient.Client, error) {
	if kind == TransportStreamableHTTP {
		return mcpclient.NewStreamableHttpClient(url, transport.WithHTTPBasicClient(httpClient))
	}
	// SSE is the default, matching the original client's backwards-compatible default.
	return mcpclient.NewSSEMCPClient(url, transport.WithHTTPClient(httpClient))
}

func transportLabel(kind Transport) Transport {
	if kind == "" {
		return TransportSSE
	}
	return kind
}

// buildHTTPClient assembles the *http.Client used to dial the remote
// gateway: TLS verification per VerifySSL, and a bearer token attached by
// either a static API_ACCESS_TOKEN env var or a refreshing OAuth2
// client-credentials token source, matching the original client's
// resolution of its own --client-id/--client-secret/--token-url and
// API_ACCESS_TOKEN inputs.
func buildHTTPClient(opts Options) (*http.Client, error) {
	base := &http.Transport{}
	if opts.VerifySSL != nil && !*opts.VerifySSL {
		base.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec // explicit opt-out via --no-verify-ssl
	}

	if opts.ClientID != "" && opts.ClientSecret != "" && opts.TokenURL != "" {
		cfg := &clientcredentials.Config{
			ClientID:     opts.ClientID,
			ClientSecret: opts.ClientSecret,
			TokenURL:     opts.TokenURL,
		}
		// Route the token fetch itself through base so --no-verify-ssl
		// also applies to the token endpoint, not just the gateway calls.
		ctx := context.WithValue(context.Background(), oauth2.HTTPClient, &http.Client{Transport: base})
		return cfg.Client(ctx), nil
	}

	if token := os.Getenv("API_ACCESS_TOKEN"); token != "" {
		return &http.Client{Transport: &bearerTokenTransport{token: token, base: base}}, nil
	}

	return &http.Client{Transport: base}, nil
}

// bearerTokenTransport attaches a fixed Authorization: Bearer header to
// every outbound request, for the static API_ACCESS_TOKEN case where no
// OAuth2 token refresh is in play.
type bearerTokenTransport struct {
	token string
	base  http.RoundTripper
}

func (t *bearerTokenTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	req.Header.Set("Authorization", "Bearer "+t.token)
	return t.base.RoundTrip(req)
}

func proxyHandler(remote *mcpclient.Client, name string) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args, _ := req.Params.Arguments.(map[string]any)
		callReq := mcp.CallToolRequest{}
		callReq.Params.Name = name
		callReq.Params.Arguments = args
		return remote.CallTool(ctx, callReq)
	}
}
