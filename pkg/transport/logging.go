package transport

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/rhuss/claudenode/pkg/api"
)

// Logging logs one line per execution request. Client cancellations log at
// WARN; every other failure logs at ERROR with its error kind.
func Logging(logger *slog.Logger) Middleware {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next ExecutionRunner) ExecutionRunner {
		return ExecutionRunnerFunc(func(ctx context.Context, req *api.ExecuteRequest, w ExecutionWriter) error {
			start := time.Now()
			err := next.Execute(ctx, req, w)

			attrs := []slog.Attr{
				slog.String("request_id", RequestIDFromContext(ctx)),
				slog.Int("items", len(req.Items)),
				slog.Bool("stream", req.Stream),
				slog.Duration("duration", time.Since(start)),
			}
			switch {
			case err == nil:
				logger.LogAttrs(ctx, slog.LevelInfo, "execution request completed", attrs...)
			case errors.Is(err, context.Canceled):
				logger.LogAttrs(ctx, slog.LevelWarn, "execution request cancelled", attrs...)
			default:
				attrs = append(attrs, slog.String("kind", kindOf(err)), slog.String("error", err.Error()))
				logger.LogAttrs(ctx, slog.LevelError, "execution request failed", attrs...)
			}
			return err
		})
	}
}

// kindOf labels err, looking through the wire form the runner returns.
func kindOf(err error) string {
	var apiErr *api.APIError
	if errors.As(err, &apiErr) {
		if apiErr.Code != "" {
			return apiErr.Code
		}
		return string(apiErr.Type)
	}
	return api.ErrorKind(err)
}
