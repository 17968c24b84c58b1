package transport

import "github.com/google/uuid"

// uuidSessionIDManager generates the Mcp-Session-Id values the streamable
// HTTP transport attaches to a stateful session. IDs are opaque to us;
// only mcp-go's session manager interprets them.
type uuidSessionIDManager struct{}

// Generate returns a fresh session identifier.
func (uuidSessionIDManager) Generate() string {
	return uuid.NewString()
}

// Validate reports a session ID as never-terminated: the gateway doesn't
// track per-session lifecycle itself, only the backend Manager's own
// connection state.
func (uuidSessionIDManager) Validate(string) (isTerminated bool, err error) {
	return false, nil
}
