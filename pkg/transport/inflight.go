package transport

import (
	"context"
	"sync"
	"time"
)

// InFlightRegistry maps the IDs of running streaming executions to the
// cancel functions of their contexts. DELETE /v1/executions/{id} and server
// shutdown use it to stop executions mid-batch. Safe for concurrent use.
type InFlightRegistry struct {
	mu      sync.Mutex
	entries map[string]*inflight
}

type inflight struct {
	cancel context.CancelFunc
	since  time.Time
}

func NewInFlightRegistry() *InFlightRegistry {
	return &InFlightRegistry{entries: make(map[string]*inflight)}
}

// Track registers a running execution and returns the function that
// unregisters it once the execution ends. The release function is
// idempotent and never cancels; a later Track of the same ID is left alone.
func (r *InFlightRegistry) Track(id string, cancel context.CancelFunc) (release func()) {
	e := &inflight{cancel: cancel, since: time.Now()}
	r.mu.Lock()
	r.entries[id] = e
	r.mu.Unlock()

	return func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		if r.entries[id] == e {
			delete(r.entries, id)
		}
	}
}

// Cancel stops a running execution. It reports false when id is not
// running.
func (r *InFlightRegistry) Cancel(id string) bool {
	r.mu.Lock()
	e, ok := r.entries[id]
	delete(r.entries, id)
	r.mu.Unlock()

	if ok {
		e.cancel()
	}
	return ok
}

// Running reports how long id has been running.
func (r *InFlightRegistry) Running(id string) (time.Duration, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.entries[id]; ok {
		return time.Since(e.since), true
	}
	return 0, false
}

func (r *InFlightRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// CancelAll stops every running execution and returns how many there were.
func (r *InFlightRegistry) CancelAll() int {
	r.mu.Lock()
	entries := r.entries
	r.entries = make(map[string]*inflight)
	r.mu.Unlock()

	for _, e := range entries {
		e.cancel()
	}
	return len(entries)
}
