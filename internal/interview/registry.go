package interview

import (
	"errors"
	"sync"
)

// ErrSessionActive is returned when a second connection is opened for a
// session that already has a live orchestrator.
var ErrSessionActive = errors.New("session already has an active connection")

// Registry enforces at most one active connection per session id.
type Registry struct {
	mu     sync.Mutex
	active map[string]struct{}
}

func NewRegistry() *Registry {
	return &Registry{active: make(map[string]struct{})}
}

// Acquire reserves the session id for one connection.
func (r *Registry) Acquire(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.active[id]; ok {
		return ErrSessionActive
	}
	r.active[id] = struct{}{}
	return nil
}

// Release frees the session id. Safe to call for ids that were never acquired.
func (r *Registry) Release(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.active, id)
}
