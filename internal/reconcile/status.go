package reconcile

import (
	"sync"
	"time"
)

// Status is a snapshot of the reconciliation loop's recent history.
type Status struct {
	LastAttempt time.Time `json:"lastAttempt"`
	LastSuccess time.Time `json:"lastSuccess"`
	LastError   string    `json:"lastError,omitempty"`
}

// StatusTracker records push outcomes for the agent's status endpoint.
// Safe for concurrent use.
type StatusTracker struct {
	mu     sync.Mutex
	status Status
}

func (t *StatusTracker) recordAttempt(at time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.status.LastAttempt = at
}

func (t *StatusTracker) recordSuccess(at time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.status.LastSuccess = at
	t.status.LastError = ""
}

func (t *StatusTracker) recordFailure(err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.status.LastError = err.Error()
}

// Snapshot returns a copy of the current status.
func (t *StatusTracker) Snapshot() Status {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.status
}
