package transport

import (
	"sync/atomic"
	"time"
)

// activityTracker records the timestamp of the most recently handled
// MCP request (streamable-HTTP or SSE), exposed by the status endpoint. A plain atomic.Int64 of
// UnixNano avoids a mutex on the hot request path.
type activityTracker struct {
	lastNano atomic.Int64
}

func newActivityTracker() *activityTracker {
	t := &activityTracker{}
	t.touch()
	return t
}

func (t *activityTracker) touch() {
	t.lastNano.Store(time.Now().UnixNano())
}

func (t *activityTracker) last() time.Time {
	return time.Unix(0, t.lastNano.Load()).UTC()
}
