// Package memory provides an in-memory implementation of transport.ExecutionStore
// for testing and lightweight deployments. Executions are stored in memory and
// lost when the process restarts. Optional LRU eviction limits memory usage.
package memory

import (
	"container/list"
	"context"
	"sort"
	"sync"

	"github.com/rhuss/claudenode/pkg/api"
	"github.com/rhuss/claudenode/pkg/debug"
	"github.com/rhuss/claudenode/pkg/storage"
	"github.com/rhuss/claudenode/pkg/transport"
)

// entry holds a stored execution and its metadata.
type entry struct {
	exec     *api.Execution
	tenantID string
	lruElem  *list.Element // position in LRU list
}

// Store is an in-memory ExecutionStore with optional LRU eviction.
type Store struct {
	mu      sync.RWMutex
	entries map[string]*entry
	lruList *list.List // front = most recently written, back = least recently written
	maxSize int        // 0 = unlimited
}

// Ensure Store implements transport.ExecutionStore at compile time.
var _ transport.ExecutionStore = (*Store)(nil)

// New creates a new in-memory store. If maxSize is 0, the store grows
// without limit. If maxSize > 0, the least recently written entry is
// evicted when the limit is reached.
func New(maxSize int) *Store {
	return &Store{
		entries: make(map[string]*entry),
		lruList: list.New(),
		maxSize: maxSize,
	}
}

// SaveExecution stores a copy of a new execution.
func (s *Store) SaveExecution(ctx context.Context, exec *api.Execution) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.entries[exec.ID]; exists {
		return storage.ErrConflict
	}

	if s.maxSize > 0 && len(s.entries) >= s.maxSize {
		s.evictOldest()
	}

	elem := s.lruList.PushFront(exec.ID)
	s.entries[exec.ID] = &entry{
		exec:     storage.Clone(exec),
		tenantID: storage.GetTenant(ctx),
		lruElem:  elem,
	}

	return nil
}

// UpdateExecution replaces a stored execution. A status change must be a
// valid lifecycle transition.
func (s *Store) UpdateExecution(ctx context.Context, exec *api.Execution) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.lookup(ctx, exec.ID)
	if !ok {
		return storage.ErrNotFound
	}

	if e.exec.Status != exec.Status {
		if apiErr := api.ValidateExecutionTransition(e.exec.Status, exec.Status); apiErr != nil {
			return apiErr
		}
	}

	e.exec = storage.Clone(exec)
	s.lruList.MoveToFront(e.lruElem)
	return nil
}

// GetExecution retrieves an execution by ID. Scoped by tenant when a
// tenant is present in the context.
func (s *Store) GetExecution(ctx context.Context, id string) (*api.Execution, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.lookup(ctx, id)
	if !ok {
		return nil, storage.ErrNotFound
	}
	return storage.Clone(e.exec), nil
}

// DeleteExecution removes an execution.
func (s *Store) DeleteExecution(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.lookup(ctx, id)
	if !ok {
		return storage.ErrNotFound
	}

	s.lruList.Remove(e.lruElem)
	delete(s.entries, id)
	return nil
}

// HealthCheck always returns nil for the in-memory store.
func (s *Store) HealthCheck(_ context.Context) error {
	return nil
}

// Close is a no-op for the in-memory store.
func (s *Store) Close() error {
	return nil
}

// Len returns the number of stored executions across all tenants.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// ListExecutions returns a page of stored executions filtered by tenant
// and optionally by status, with cursor-based pagination.
func (s *Store) ListExecutions(ctx context.Context, opts transport.ListOptions) (*api.ExecutionList, error) {
	opts = opts.Normalize()

	s.mu.RLock()
	defer s.mu.RUnlock()

	var matches []*api.Execution
	for _, e := range s.entries {
		if !storage.Visible(ctx, e.tenantID) {
			continue
		}
		if opts.Status != "" && e.exec.Status != opts.Status {
			continue
		}
		matches = append(matches, e.exec)
	}

	// Sort by created_at, ties broken by ID. Default is desc (newest first).
	asc := opts.Order == "asc"
	sort.Slice(matches, func(i, j int) bool {
		a, b := matches[i], matches[j]
		if a.CreatedAt != b.CreatedAt {
			if asc {
				return a.CreatedAt < b.CreatedAt
			}
			return a.CreatedAt > b.CreatedAt
		}
		if asc {
			return a.ID < b.ID
		}
		return a.ID > b.ID
	})

	if opts.After != "" {
		idx := indexOf(matches, opts.After)
		if idx >= 0 {
			matches = matches[idx+1:]
		} else {
			matches = nil
		}
	} else if opts.Before != "" {
		idx := indexOf(matches, opts.Before)
		if idx > 0 {
			matches = matches[:idx]
		} else {
			matches = nil
		}
	}

	hasMore := len(matches) > opts.Limit
	if hasMore {
		matches = matches[:opts.Limit]
	}

	result := &api.ExecutionList{
		Object:  "list",
		Data:    make([]*api.Execution, 0, len(matches)),
		HasMore: hasMore,
	}
	for _, m := range matches {
		result.Data = append(result.Data, storage.Clone(m))
	}
	if len(matches) > 0 {
		result.FirstID = matches[0].ID
		result.LastID = matches[len(matches)-1].ID
	}

	return result, nil
}

// lookup finds an entry visible to the tenant in ctx.
// Must be called with s.mu held.
func (s *Store) lookup(ctx context.Context, id string) (*entry, bool) {
	e, ok := s.entries[id]
	if !ok {
		return nil, false
	}
	if !storage.Visible(ctx, e.tenantID) {
		return nil, false
	}
	return e, true
}

func indexOf(execs []*api.Execution, id string) int {
	for i, e := range execs {
		if e.ID == id {
			return i
		}
	}
	return -1
}

// evictOldest removes the least recently written entry.
// Must be called with s.mu held.
func (s *Store) evictOldest() {
	back := s.lruList.Back()
	if back == nil {
		return
	}

	id := back.Value.(string)
	s.lruList.Remove(back)
	delete(s.entries, id)
	debug.Log("storage", "evicted execution", "execution_id", id)
}
