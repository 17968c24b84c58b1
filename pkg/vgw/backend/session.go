// Package backend implements the backend session manager (C6): bringing
// up and multiplexing sessions to stdio and remote MCP backends,
// supporting deferred OAuth connections, and serializing calls per
// backend session.
package backend

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"
	mcpclient "github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/client/transport"
	"github.com/mark3labs/mcp-go/mcp"
	"golang.org/x/oauth2"
	"golang.org/x/sync/errgroup"

	"github.com/stacklok/mcp-vgateway/pkg/logger"
	"github.com/stacklok/mcp-vgateway/pkg/vgw"
)

// Default timeouts per spec §5.
const (
	initializeTimeout = 30 * time.Second
	callTimeout       = 60 * time.Second
	shutdownGrace     = 5 * time.Second
)

// Session wraps one live MCP client session to a backend, serializing
// calls through a mutex (a backend session is single-consumer).
type Session struct {
	ServerID string
	URL      string
	client   *mcpclient.Client
	mu       sync.Mutex
}

// ListTools calls tools/list on the backend.
func (s *Session) ListTools(ctx context.Context) (*mcp.ListToolsResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.client.ListTools(ctx, mcp.ListToolsRequest{})
}

// CallTool calls tools/call on the backend with the given name and args.
func (s *Session) CallTool(ctx context.Context, name string, args map[string]any) (*mcp.CallToolResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ctx, cancel := context.WithTimeout(ctx, callTimeout)
	defer cancel()
	req := mcp.CallToolRequest{}
	req.Params.Name = name
	req.Params.Arguments = args
	return s.client.CallTool(ctx, req)
}

// Close shuts down the underlying client.
func (s *Session) Close() error {
	return s.client.Close()
}

// Manager owns every backend session: the active map (populated eagerly
// at startup or lazily via OAuth attach) and the pending-OAuth map. The
// active map is write-rare (startup plus OAuth attaches); a single mutex
// is sufficient, per spec §5.
type Manager struct {
	mu      sync.RWMutex
	active  map[string]*Session              // serverID -> session
	pending map[string]*vgw.ServerConfig      // serverID -> config awaiting a token
	order   []string                          // acquisition order, for LIFO shutdown
}

// NewManager constructs an empty Manager.
func NewManager() *Manager {
	return &Manager{
		active:  make(map[string]*Session),
		pending: make(map[string]*vgw.ServerConfig),
	}
}

// Start brings up one session per ServerConfig in servers. OAuth backends
// are deferred into the pending map rather than connected. Sessions come
// up concurrently; a single backend's initialization failure is logged
// and does not abort the others.
func (m *Manager) Start(ctx context.Context, servers map[string]*vgw.ServerConfig) error {
	g, gctx := errgroup.WithContext(ctx)
	var mu sync.Mutex

	for _, cfg := range servers {
		cfg := cfg
		if cfg.Auth == vgw.AuthOAuth {
			mu.Lock()
			m.deferOAuth(cfg)
			mu.Unlock()
			continue
		}
		g.Go(func() error {
			sess, err := connect(gctx, cfg, nil)
			if err != nil {
				logger.Errorf("backend %s failed to initialize: %v", cfg.ID, err)
				return nil // do not abort other backends
			}
			mu.Lock()
			m.activate(cfg.ID, sess)
			mu.Unlock()
			return nil
		})
	}
	return g.Wait()
}

func (m *Manager) deferOAuth(cfg *vgw.ServerConfig) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pending[cfg.ID] = cfg
}

func (m *Manager) activate(serverID string, sess *Session) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.active[serverID] = sess
	m.order = append(m.order, serverID)
	delete(m.pending, serverID)
}

// Get returns the active session for serverID, or (nil, false, pending)
// where pending indicates an OAuth backend awaiting attachment.
func (m *Manager) Get(serverID string) (sess *Session, ok bool, pending bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if s, found := m.active[serverID]; found {
		return s, true, false
	}
	_, isPending := m.pending[serverID]
	return nil, false, isPending
}

// AttachOAuth finds the pending backend whose ServerConfig URL matches
// serverURL, opens a session with Authorization: Bearer <token>,
// initializes it, and moves it from pending to active. This entire
// operation runs within the caller's task (the HTTP handler), per spec.
// Returns alreadyConnected=true if a matching backend is already active.
func (m *Manager) AttachOAuth(ctx context.Context, serverURL, token string) (alreadyConnected bool, err error) {
	m.mu.Lock()
	for _, sess := range m.active {
		if sess.URL == serverURL {
			m.mu.Unlock()
			return true, nil
		}
	}
	var target *vgw.ServerConfig
	for _, cfg := range m.pending {
		if cfg.URL == serverURL {
			target = cfg
			break
		}
	}
	m.mu.Unlock()

	if target == nil {
		return false, fmt.Errorf("no pending backend for url %q", serverURL)
	}

	tokenSource := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	tok, _ := tokenSource.Token()

	sess, err := connect(ctx, target, tok)
	if err != nil {
		return false, fmt.Errorf("failed to attach oauth backend %q: %w", serverURL, err)
	}
	m.activate(target.ID, sess)
	return false, nil
}

// Shutdown closes every active session in reverse acquisition order,
// each given up to shutdownGrace to terminate cleanly.
func (m *Manager) Shutdown(ctx context.Context) {
	m.mu.Lock()
	order := append([]string(nil), m.order...)
	active := m.active
	m.active = make(map[string]*Session)
	m.order = nil
	m.mu.Unlock()

	for i := len(order) - 1; i >= 0; i-- {
		sess, ok := active[order[i]]
		if !ok {
			continue
		}
		done := make(chan struct{})
		go func() {
			defer close(done)
			if err := sess.Close(); err != nil {
				logger.Warnf("error closing backend %s: %v", sess.ServerID, err)
			}
		}()
		select {
		case <-done:
		case <-time.After(shutdownGrace):
			logger.Warnf("backend %s did not close within grace period", sess.ServerID)
		case <-ctx.Done():
			return
		}
	}
}

// connect opens and initializes an MCP client session for cfg. token, if
// non-nil, carries a bearer token for an OAuth-authenticated remote
// backend.
func connect(ctx context.Context, cfg *vgw.ServerConfig, token *oauth2.Token) (*Session, error) {
	var c *mcpclient.Client
	var err error

	operation := func() (*mcpclient.Client, error) {
		return newClient(ctx, cfg, token)
	}

	c, err = backoff.Retry(ctx, operation,
		backoff.WithMaxTries(3),
		backoff.WithBackOff(backoff.NewExponentialBackOff()))
	if err != nil {
		return nil, err
	}

	initCtx, cancel := context.WithTimeout(ctx, initializeTimeout)
	defer cancel()

	initReq := mcp.InitializeRequest{}
	initReq.Params.ProtocolVersion = mcp.LATEST_PROTOCOL_VERSION
	initReq.Params.ClientInfo = mcp.Implementation{Name: "mcp-vgateway", Version: "dev"}

	if _, err := c.Initialize(initCtx, initReq); err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("initialize failed: %w", err)
	}

	return &Session{ServerID: cfg.ID, URL: cfg.URL, client: c}, nil
}

func newClient(ctx context.Context, cfg *vgw.ServerConfig, token *oauth2.Token) (*mcpclient.Client, error) {
	switch {
	case cfg.IsStdio():
		env := make([]string, 0, len(cfg.Env))
		for k, v := range cfg.Env {
			env = append(env, k+"="+v)
		}
		return mcpclient.NewStdioMCPClient(cfg.Command, env, cfg.Args...)

	case cfg.Transport == vgw.TransportStreamableHTTP:
		opts := []transport.StreamableHTTPCOption{}
		if token != nil {
			opts = append(opts, transport.WithHTTPHeaders(map[string]string{
				"Authorization": "Bearer " + token.AccessToken,
			}))
		}
		cl, err := mcpclient.NewStreamableHttpClient(cfg.URL, opts...)
		if err != nil {
			return nil, err
		}
		if err := cl.Start(ctx); err != nil {
			return nil, err
		}
		return cl, nil

	default: // SSE
		opts := []transport.ClientOption{}
		if token != nil {
			opts = append(opts, transport.WithHeaders(map[string]string{
				"Authorization": "Bearer " + token.AccessToken,
			}))
		}
		cl, err := mcpclient.NewSSEMCPClient(cfg.URL, opts...)
		if err != nil {
			return nil, err
		}
		if err := cl.Start(ctx); err != nil {
			return nil, err
		}
		return cl, nil
	}
}
