package transport

import (
	"context"
	"fmt"

	"golang.org/x/sync/semaphore"

	"github.com/rhuss/claudenode/pkg/api"
	"github.com/rhuss/claudenode/pkg/debug"
)

// Middleware decorates an ExecutionRunner.
type Middleware func(ExecutionRunner) ExecutionRunner

// Chain composes middleware so that the first one sees the request first:
// Chain(a, b)(r) == a(b(r)).
func Chain(middlewares ...Middleware) Middleware {
	return func(next ExecutionRunner) ExecutionRunner {
		for i := len(middlewares) - 1; i >= 0; i-- {
			next = middlewares[i](next)
		}
		return next
	}
}

// Limiter caps the number of executions running at once. Each execution
// spawns one CLI process per item in turn, so the cap bounds the number of
// live processes. One Limiter is shared by every surface that starts
// executions (the HTTP API and the MCP tool). Requests over the cap fail
// immediately with a too_many_requests error instead of queueing. A nil
// Limiter admits everything.
type Limiter struct {
	sem *semaphore.Weighted
	n   int64
}

// NewLimiter returns a Limiter admitting n concurrent executions. n <= 0
// disables the limit and returns nil.
func NewLimiter(n int64) *Limiter {
	if n <= 0 {
		return nil
	}
	return &Limiter{sem: semaphore.NewWeighted(n), n: n}
}

// Acquire reserves a slot without blocking. The returned release must be
// called once the execution ends.
func (l *Limiter) Acquire() (release func(), err error) {
	if l == nil {
		return func() {}, nil
	}
	if !l.sem.TryAcquire(1) {
		debug.Log("http", "execution rejected", "limit", l.n)
		return nil, api.NewTooManyRequestsError(fmt.Sprintf("too many concurrent executions (limit %d)", l.n))
	}
	return func() { l.sem.Release(1) }, nil
}

// Limit runs executions under l.
func Limit(l *Limiter) Middleware {
	if l == nil {
		return func(next ExecutionRunner) ExecutionRunner { return next }
	}
	return func(next ExecutionRunner) ExecutionRunner {
		return ExecutionRunnerFunc(func(ctx context.Context, req *api.ExecuteRequest, w ExecutionWriter) error {
			release, err := l.Acquire()
			if err != nil {
				return err
			}
			defer release()
			return next.Execute(ctx, req, w)
		})
	}
}

// ConcurrencyLimit is Limit with a Limiter of its own. n <= 0 disables the
// limit.
func ConcurrencyLimit(n int64) Middleware {
	return Limit(NewLimiter(n))
}
