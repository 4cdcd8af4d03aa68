package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/rhuss/claudenode/pkg/api"
	"github.com/rhuss/claudenode/pkg/auth"
	"github.com/rhuss/claudenode/pkg/debug"
	"github.com/rhuss/claudenode/pkg/node"
	"github.com/rhuss/claudenode/pkg/observability"
	"github.com/rhuss/claudenode/pkg/storage"
	"github.com/rhuss/claudenode/pkg/transport"
)

// Runner executes node runs on behalf of the transport layer.
type Runner struct {
	node   *node.Node
	store  transport.ExecutionStore
	cfg    Config
	logger *slog.Logger
	now    func() time.Time
}

// Ensure Runner implements transport.ExecutionRunner at compile time.
var _ transport.ExecutionRunner = (*Runner)(nil)

// Option configures a Runner.
type Option func(*Runner)

// WithLogger sets the logger for execution lifecycle messages.
func WithLogger(l *slog.Logger) Option {
	return func(r *Runner) { r.logger = l }
}

// New creates a runner. The node must not be nil. The store can be nil
// for stateless operation.
func New(n *node.Node, store transport.ExecutionStore, cfg Config, opts ...Option) (*Runner, error) {
	if n == nil {
		return nil, errors.New("engine: node must not be nil")
	}
	if cfg.Validation == (api.ValidationConfig{}) {
		cfg.Validation = api.DefaultValidationConfig()
	}
	r := &Runner{
		node:   n,
		store:  store,
		cfg:    cfg,
		logger: slog.Default(),
		now:    time.Now,
	}
	for _, o := range opts {
		o(r)
	}
	return r, nil
}

// EventFunc receives execution events as they happen.
type EventFunc func(api.ExecutionEvent)

// Execute runs req and reports it through w. Streaming requests receive
// execution.created, one item event per processed item and a terminal
// event. Other requests receive the finished execution, or an error when
// the execution did not succeed.
func (r *Runner) Execute(ctx context.Context, req *api.ExecuteRequest, w transport.ExecutionWriter) error {
	var emit EventFunc
	if req.Stream {
		emit = func(ev api.ExecutionEvent) {
			if err := w.WriteEvent(ctx, ev); err != nil {
				debug.Log("http", "dropping event", "type", ev.Type, "error", err)
			}
		}
	}

	exec, err := r.Run(ctx, req, emit)
	if req.Stream {
		if exec == nil {
			// Rejected before the execution was created.
			return err
		}
		return nil
	}
	if err != nil {
		return err
	}
	return w.WriteExecution(ctx, exec)
}

// Run executes req and returns the recorded execution. The error is non-nil
// when the execution was rejected (exec is nil) or did not succeed (exec
// carries the final status). emit may be nil.
func (r *Runner) Run(ctx context.Context, req *api.ExecuteRequest, emit EventFunc) (*api.Execution, error) {
	if emit == nil {
		emit = func(api.ExecutionEvent) {}
	}

	if apiErr := api.ValidateExecuteRequest(req, r.cfg.Validation); apiErr != nil {
		return nil, apiErr
	}

	continueOnFail := r.cfg.ContinueOnFail
	if req.ContinueOnFail != nil {
		continueOnFail = *req.ContinueOnFail
	}
	params := r.cfg.parameters(req.Parameters)

	exec := &api.Execution{
		ID:             api.NewExecutionID(),
		Object:         "execution",
		Status:         api.ExecutionStatusRunning,
		Invoker:        r.node.Invoker().Name(),
		Parameters:     params,
		ContinueOnFail: continueOnFail,
		ItemCount:      len(req.Items),
		CreatedAt:      r.now().Unix(),
	}

	log := r.logger.With(
		"execution_id", exec.ID,
		"request_id", transport.RequestIDFromContext(ctx),
	)
	if tenant := storage.GetTenant(ctx); tenant != "" {
		log = log.With("tenant", tenant)
	}
	if subject := auth.Subject(ctx); subject != "" {
		log = log.With("subject", subject)
	}

	if r.store != nil {
		if err := r.store.SaveExecution(ctx, exec); err != nil {
			log.Error("saving execution failed", "error", err)
			return nil, api.NewServerError(fmt.Sprintf("saving execution: %v", err))
		}
	}

	emit(api.ExecutionEvent{Type: api.EventExecutionCreated, Execution: storage.Clone(exec)})
	log.Info("execution started", "items", exec.ItemCount, "invoker", exec.Invoker, "continue_on_fail", continueOnFail)

	host := node.NewBatchHost(req.Items, params, continueOnFail)
	host.Observer = func(o node.ItemOutcome) {
		emit(itemEvent(o))
	}

	start := r.now()
	out, runErr := r.node.Execute(ctx, host)

	completed := r.now().Unix()
	exec.CompletedAt = &completed
	var terminal api.ExecutionEventType

	switch {
	case runErr == nil:
		exec.Status = api.ExecutionStatusSucceeded
		exec.Output = out
		terminal = api.EventExecutionCompleted
	case ctx.Err() != nil:
		exec.Status = api.ExecutionStatusCancelled
		exec.Error = &api.APIError{Type: api.ErrorTypeServerError, Code: "cancelled", Message: "execution cancelled"}
		terminal = api.EventExecutionCancelled
	default:
		exec.Status = api.ExecutionStatusFailed
		exec.Error = executionError(runErr)
		terminal = api.EventExecutionFailed
	}

	if r.store != nil {
		// The request context may be gone; the final state is recorded regardless.
		if err := r.store.UpdateExecution(context.WithoutCancel(ctx), exec); err != nil {
			log.Error("recording execution result failed", "error", err)
		}
	}

	observability.ExecutionsTotal.WithLabelValues(string(exec.Status)).Inc()
	log.Info("execution finished",
		"status", exec.Status,
		"duration", r.now().Sub(start),
		"error", runErr,
	)

	emit(api.ExecutionEvent{Type: terminal, Execution: storage.Clone(exec), Error: exec.Error})

	if runErr != nil {
		return exec, runErr
	}
	return exec, nil
}

// itemEvent converts an item outcome into its streaming event.
func itemEvent(o node.ItemOutcome) api.ExecutionEvent {
	idx := o.Index
	ev := api.ExecutionEvent{Type: api.EventItemCompleted, ItemIndex: &idx, Item: o.Output}
	if o.Err != nil {
		ev.Type = api.EventItemFailed
		ev.Error = api.AsAPIError(o.Err)
	}
	return ev
}

// executionError converts a failed run into the recorded error, naming the
// failing item when the batch was aborted.
func executionError(err error) *api.APIError {
	apiErr := *api.AsAPIError(err)
	var opErr *node.NodeOperationError
	if errors.As(err, &opErr) && apiErr.Param == "" {
		apiErr.Param = fmt.Sprintf("items[%d]", opErr.ItemIndex)
	}
	return &apiErr
}
