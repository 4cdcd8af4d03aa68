package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/rhuss/claudenode/pkg/api"
	"github.com/rhuss/claudenode/pkg/node"
	"github.com/rhuss/claudenode/pkg/storage"
	"github.com/rhuss/claudenode/pkg/transport"
)

// Adapter serves the node execution API over HTTP.
type Adapter struct {
	runner   transport.ExecutionRunner
	store    transport.ExecutionStore // nil disables retrieval endpoints
	inflight *transport.InFlightRegistry
	mux      *http.ServeMux
	config   Config
}

// Config holds configuration for the HTTP adapter.
type Config struct {
	MaxBodySize int64
}

// DefaultConfig returns the default adapter configuration.
func DefaultConfig() Config {
	return Config{
		MaxBodySize: 10 << 20, // 10 MB
	}
}

// NewAdapter creates an HTTP adapter. The store is optional; without it
// the GET and DELETE endpoints answer 501, except that DELETE still
// cancels running executions. Middleware wraps the runner in the given
// order.
func NewAdapter(runner transport.ExecutionRunner, store transport.ExecutionStore, cfg Config, middlewares ...transport.Middleware) *Adapter {
	if len(middlewares) > 0 {
		runner = transport.Chain(middlewares...)(runner)
	}
	if cfg.MaxBodySize <= 0 {
		cfg.MaxBodySize = DefaultConfig().MaxBodySize
	}

	a := &Adapter{
		runner:   runner,
		store:    store,
		inflight: transport.NewInFlightRegistry(),
		mux:      http.NewServeMux(),
		config:   cfg,
	}

	a.mux.HandleFunc("GET /v1/node", a.handleNodeDescription)
	a.mux.HandleFunc("POST /v1/executions", a.handleExecute)
	a.mux.HandleFunc("GET /v1/executions/{id}", a.handleGetExecution)
	a.mux.HandleFunc("GET /v1/executions", a.handleListExecutions)
	a.mux.HandleFunc("DELETE /v1/executions/{id}", a.handleDeleteExecution)

	return a
}

// Handler returns the http.Handler for this adapter, wrapped with request
// ID propagation and access logging.
func (a *Adapter) Handler() http.Handler {
	return RequestLogging(a.mux)
}

// InFlight exposes the registry of running streaming executions.
func (a *Adapter) InFlight() *transport.InFlightRegistry {
	return a.inflight
}

// RequestLogging assigns every request an ID (from X-Request-ID or a new
// UUID), echoes it in the response header and logs method, path, status
// and duration once the request completes.
func RequestLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = transport.NewRequestID()
		}
		r = r.WithContext(transport.ContextWithRequestID(r.Context(), id))
		w.Header().Set("X-Request-ID", id)

		rw := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rw, r)

		slog.LogAttrs(r.Context(), slog.LevelInfo, "http request",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("status", rw.status),
			slog.String("request_id", id),
			slog.Duration("duration", time.Since(start)),
		)
	})
}

// statusRecorder captures the status code for the access log.
type statusRecorder struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (w *statusRecorder) WriteHeader(code int) {
	if !w.wroteHeader {
		w.status = code
		w.wroteHeader = true
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusRecorder) Write(b []byte) (int, error) {
	w.wroteHeader = true
	return w.ResponseWriter.Write(b)
}

func (w *statusRecorder) Flush() {
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// Unwrap returns the underlying ResponseWriter for http.NewResponseController.
func (w *statusRecorder) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}

// handleNodeDescription handles GET /v1/node.
func (a *Adapter) handleNodeDescription(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, node.NodeDescription())
}

// handleExecute handles POST /v1/executions.
func (a *Adapter) handleExecute(w http.ResponseWriter, r *http.Request) {
	ct := r.Header.Get("Content-Type")
	if ct != "" && ct != "application/json" {
		transport.WriteErrorResponse(w,
			api.NewInvalidRequestError("content_type", "Content-Type must be application/json"),
			http.StatusUnsupportedMediaType,
		)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, a.config.MaxBodySize)

	var req api.ExecuteRequest
	dec := json.NewDecoder(r.Body)
	dec.UseNumber()
	if err := dec.Decode(&req); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			transport.WriteErrorResponse(w,
				api.NewInvalidRequestError("body", fmt.Sprintf("request body too large (max %d bytes)", a.config.MaxBodySize)),
				http.StatusRequestEntityTooLarge,
			)
			return
		}
		transport.WriteErrorResponse(w,
			api.NewInvalidRequestError("body", "invalid JSON: "+err.Error()),
			http.StatusBadRequest,
		)
		return
	}

	if req.Stream {
		a.handleStreamingExecute(w, r, &req)
		return
	}

	ew := newSSEWriter(w, nil)
	if err := a.runner.Execute(r.Context(), &req, ew); err != nil {
		a.writeRunnerError(w, ew, err)
	}
}

// handleStreamingExecute runs a streaming execution that DELETE can cancel
// while it is in flight.
func (a *Adapter) handleStreamingExecute(w http.ResponseWriter, r *http.Request, req *api.ExecuteRequest) {
	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	release := func() {}
	ew := newSSEWriter(w, func(id string) {
		release = a.inflight.Track(id, cancel)
	})

	err := a.runner.Execute(ctx, req, ew)
	release()

	if err != nil {
		a.writeRunnerError(w, ew, err)
	}
}

// handleGetExecution handles GET /v1/executions/{id}.
func (a *Adapter) handleGetExecution(w http.ResponseWriter, r *http.Request) {
	if !a.requireStore(w, "execution retrieval") {
		return
	}

	id := r.PathValue("id")
	if !api.ValidateExecutionID(id) {
		transport.WriteErrorResponse(w,
			api.NewInvalidRequestError("id", "malformed execution ID"),
			http.StatusBadRequest,
		)
		return
	}

	exec, err := a.store.GetExecution(r.Context(), id)
	if err != nil {
		writeStoreError(w, id, err)
		return
	}

	writeJSON(w, http.StatusOK, exec)
}

// handleDeleteExecution handles DELETE /v1/executions/{id}. A running
// streaming execution is cancelled; otherwise the stored record is deleted.
// Cancelled executions stay stored with status cancelled.
func (a *Adapter) handleDeleteExecution(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if !api.ValidateExecutionID(id) {
		transport.WriteErrorResponse(w,
			api.NewInvalidRequestError("id", "malformed execution ID"),
			http.StatusBadRequest,
		)
		return
	}

	// With a store, only executions visible to the caller's tenant can be
	// cancelled. Running executions are stored when they are created.
	if a.store != nil {
		if _, err := a.store.GetExecution(r.Context(), id); err != nil {
			writeStoreError(w, id, err)
			return
		}
	}

	ran, running := a.inflight.Running(id)
	if running && a.inflight.Cancel(id) {
		slog.Info("execution cancelled", "execution_id", id, "ran", ran.Round(time.Millisecond))
		w.WriteHeader(http.StatusNoContent)
		return
	}

	if !a.requireStore(w, "execution deletion") {
		return
	}

	if err := a.store.DeleteExecution(r.Context(), id); err != nil {
		writeStoreError(w, id, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// handleListExecutions handles GET /v1/executions.
func (a *Adapter) handleListExecutions(w http.ResponseWriter, r *http.Request) {
	if !a.requireStore(w, "execution listing") {
		return
	}

	opts, apiErr := parseListOptions(r)
	if apiErr != nil {
		transport.WriteErrorResponse(w, apiErr, http.StatusBadRequest)
		return
	}

	list, err := a.store.ListExecutions(r.Context(), opts)
	if err != nil {
		transport.WriteError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, list)
}

func (a *Adapter) requireStore(w http.ResponseWriter, what string) bool {
	if a.store != nil {
		return true
	}
	transport.WriteErrorResponse(w,
		api.NewInvalidRequestError("", what+" is not available (no store configured)"),
		http.StatusNotImplemented,
	)
	return false
}

// parseListOptions extracts pagination parameters from the query string.
func parseListOptions(r *http.Request) (transport.ListOptions, *api.APIError) {
	q := r.URL.Query()
	opts := transport.ListOptions{
		After:  q.Get("after"),
		Before: q.Get("before"),
		Order:  q.Get("order"),
		Status: api.ExecutionStatus(q.Get("status")),
	}

	if opts.After != "" && opts.Before != "" {
		return opts, api.NewInvalidRequestError("after", "cannot use both 'after' and 'before' cursors")
	}

	if opts.Order != "" && opts.Order != "asc" && opts.Order != "desc" {
		return opts, api.NewInvalidRequestError("order", "order must be 'asc' or 'desc'")
	}

	switch opts.Status {
	case "", api.ExecutionStatusRunning, api.ExecutionStatusSucceeded, api.ExecutionStatusFailed, api.ExecutionStatusCancelled:
	default:
		return opts, api.NewInvalidRequestError("status", fmt.Sprintf("unknown status %q", opts.Status))
	}

	if limitStr := q.Get("limit"); limitStr != "" {
		limit, err := strconv.Atoi(limitStr)
		if err != nil || limit < 1 {
			return opts, api.NewInvalidRequestError("limit", "limit must be a positive integer")
		}
		opts.Limit = limit
	}

	return opts.Normalize(), nil
}

// writeRunnerError reports a runner error. Once streaming has started the
// error becomes an execution.failed event; otherwise a JSON error.
func (a *Adapter) writeRunnerError(w http.ResponseWriter, ew *sseWriter, err error) {
	apiErr := api.AsAPIError(err)

	if ew.hasStartedStreaming() {
		if ew.isCompleted() {
			return
		}
		ew.WriteEvent(context.Background(), api.ExecutionEvent{
			Type: api.EventExecutionFailed,
			Execution: &api.Execution{
				Object: "execution",
				Status: api.ExecutionStatusFailed,
				Error:  apiErr,
			},
			Error: apiErr,
		})
		return
	}
	if ew.isCompleted() {
		return
	}

	transport.WriteAPIError(w, apiErr)
}

func writeStoreError(w http.ResponseWriter, id string, err error) {
	if errors.Is(err, storage.ErrNotFound) {
		transport.WriteAPIError(w, api.NewNotFoundError("execution "+id+" not found"))
		return
	}
	transport.WriteError(w, err)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
