package dispatcher

import "github.com/stacklok/mcp-vgateway/pkg/vgw/backend"

// ManagerSource adapts a *backend.Manager to SessionSource. It exists
// because Manager.Get returns the concrete *backend.Session type (for its
// own callers' convenience) while the dispatcher depends only on the
// narrow BackendSession interface, so it can run against a fake in tests.
type ManagerSource struct {
	Manager *backend.Manager
}

// NewManagerSource wraps m for use as a Dispatcher's SessionSource.
func NewManagerSource(m *backend.Manager) *ManagerSource {
	return &ManagerSource{Manager: m}
}

func (a *ManagerSource) Get(serverID string) (BackendSession, bool, bool) {
	sess, ok, pending := a.Manager.Get(serverID)
	if sess == nil {
		return nil, ok, pending
	}
	return sess, ok, pending
}
