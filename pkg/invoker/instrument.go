package invoker

import (
	"context"
	"log/slog"
	"time"

	"github.com/rhuss/claudenode/pkg/api"
	"github.com/rhuss/claudenode/pkg/debug"
	"github.com/rhuss/claudenode/pkg/observability"
)

// instrumented records metrics and debug logs around another invoker.
type instrumented struct {
	next Invoker
}

// Instrument wraps inv so that every call is counted, timed and logged.
// Wrapping an already instrumented invoker returns it unchanged.
func Instrument(inv Invoker) Invoker {
	if _, ok := inv.(*instrumented); ok {
		return inv
	}
	return &instrumented{next: inv}
}

func (i *instrumented) Name() string { return i.next.Name() }

func (i *instrumented) Invoke(ctx context.Context, prompt string, opts Options) (*api.InvocationResult, error) {
	debug.Log("invoker", "invoking", "invoker", i.next.Name(), "model", opts.Model,
		"max_turns", opts.MaxTurns, "timeout", opts.Timeout)
	debug.Trace("invoker", "prompt", "text", prompt)

	start := time.Now()
	res, err := i.next.Invoke(ctx, prompt, opts)
	elapsed := time.Since(start)

	observability.ObserveInvocation(i.next.Name(), opts.Model, elapsed, err)

	if err != nil {
		debug.Log("invoker", "invocation failed", "invoker", i.next.Name(),
			"kind", api.ErrorKind(err), "error", err, "elapsed", elapsed)
		if kind := api.ErrorKind(err); kind == "timeout" || kind == "launch" {
			slog.Warn("claude code invocation failed", "invoker", i.next.Name(), "kind", kind, "error", err)
		}
		return nil, err
	}

	debug.Log("invoker", "invocation finished", "invoker", i.next.Name(),
		"duration_ms", res.DurationMs, "messages", len(res.Messages))
	return res, nil
}

// Check forwards to the wrapped invoker when it implements Checker.
func (i *instrumented) Check(ctx context.Context) error {
	if c, ok := i.next.(Checker); ok {
		return c.Check(ctx)
	}
	return nil
}
