package transport

import (
	"context"

	"github.com/google/uuid"

	"github.com/rhuss/claudenode/pkg/api"
)

// RequestID returns middleware that assigns a request ID to each execution.
// An ID already in the context (propagated from X-Request-ID by the HTTP
// adapter) is kept; otherwise a random UUID is generated.
func RequestID() Middleware {
	return func(next ExecutionRunner) ExecutionRunner {
		return ExecutionRunnerFunc(func(ctx context.Context, req *api.ExecuteRequest, w ExecutionWriter) error {
			if RequestIDFromContext(ctx) == "" {
				ctx = ContextWithRequestID(ctx, NewRequestID())
			}
			return next.Execute(ctx, req, w)
		})
	}
}

// NewRequestID returns a random UUID string.
func NewRequestID() string {
	return uuid.NewString()
}

type requestIDKey struct{}

// RequestIDFromContext returns the request ID, or "" if none was set.
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// ContextWithRequestID returns a copy of ctx carrying id.
func ContextWithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}
