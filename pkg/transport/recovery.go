package transport

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"

	"github.com/rhuss/claudenode/pkg/api"
)

// Recovery returns middleware that converts a panic in the runner into a
// server_error. The server keeps accepting requests afterwards.
func Recovery() Middleware {
	return func(next ExecutionRunner) ExecutionRunner {
		return ExecutionRunnerFunc(func(ctx context.Context, req *api.ExecuteRequest, w ExecutionWriter) (retErr error) {
			defer func() {
				if r := recover(); r != nil {
					slog.Error("panic in execution runner",
						"request_id", RequestIDFromContext(ctx),
						"panic", r,
						"stack", string(debug.Stack()),
					)
					retErr = api.NewServerError(fmt.Sprintf("internal server error: %v", r))
				}
			}()
			return next.Execute(ctx, req, w)
		})
	}
}
