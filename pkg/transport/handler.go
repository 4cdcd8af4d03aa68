package transport

import (
	"context"

	"github.com/rhuss/claudenode/pkg/api"
)

// ExecutionRunner handles the core execute operation. The implementation
// receives a request and writes the result (streaming events or a complete
// execution) to the ExecutionWriter.
type ExecutionRunner interface {
	Execute(ctx context.Context, req *api.ExecuteRequest, w ExecutionWriter) error
}

// ExecutionRunnerFunc is an adapter that allows using an ordinary function
// as an ExecutionRunner.
type ExecutionRunnerFunc func(ctx context.Context, req *api.ExecuteRequest, w ExecutionWriter) error

// Execute calls f(ctx, req, w).
func (f ExecutionRunnerFunc) Execute(ctx context.Context, req *api.ExecuteRequest, w ExecutionWriter) error {
	return f(ctx, req, w)
}

// ListOptions controls pagination, filtering, and ordering for list operations.
type ListOptions struct {
	After  string              // Cursor: return executions after this ID.
	Before string              // Cursor: return executions before this ID.
	Limit  int                 // Maximum number of executions to return (default 20, max 100).
	Status api.ExecutionStatus // Filter by status.
	Order  string              // Sort order: "asc" or "desc" (default "desc").
}

// Normalize clamps Limit to [1, 100] and defaults Order to "desc".
func (o ListOptions) Normalize() ListOptions {
	if o.Limit <= 0 {
		o.Limit = 20
	}
	if o.Limit > 100 {
		o.Limit = 100
	}
	if o.Order != "asc" {
		o.Order = "desc"
	}
	return o
}

// ExecutionStore persists execution records.
type ExecutionStore interface {
	// SaveExecution stores a new execution. Returns storage.ErrConflict
	// when the ID already exists.
	SaveExecution(ctx context.Context, exec *api.Execution) error

	// UpdateExecution replaces a stored execution, typically on its
	// transition to a terminal status.
	UpdateExecution(ctx context.Context, exec *api.Execution) error

	// GetExecution retrieves an execution by ID. Returns storage.ErrNotFound
	// when it does not exist or has been deleted.
	GetExecution(ctx context.Context, id string) (*api.Execution, error)

	// DeleteExecution removes an execution by ID.
	DeleteExecution(ctx context.Context, id string) error

	// ListExecutions returns a page of executions, filtered by tenant
	// (when present in context) and optionally by status.
	ListExecutions(ctx context.Context, opts ListOptions) (*api.ExecutionList, error)

	// HealthCheck verifies the store is usable.
	HealthCheck(ctx context.Context) error

	// Close releases connections and resources.
	Close() error
}

// ExecutionWriter abstracts streaming and non-streaming output for the runner.
//
// WriteEvent and WriteExecution are mutually exclusive on a single writer
// instance. Calling WriteEvent after a terminal event (execution.completed,
// execution.failed or execution.cancelled) returns an error.
type ExecutionWriter interface {
	// WriteEvent sends a single streaming event.
	WriteEvent(ctx context.Context, event api.ExecutionEvent) error

	// WriteExecution sends a complete non-streaming execution.
	WriteExecution(ctx context.Context, exec *api.Execution) error

	// Flush ensures buffered data is sent to the client. Returns an error
	// if the client has disconnected.
	Flush() error
}
