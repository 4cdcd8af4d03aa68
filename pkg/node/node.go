package node

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/rhuss/claudenode/pkg/api"
	"github.com/rhuss/claudenode/pkg/debug"
	"github.com/rhuss/claudenode/pkg/invoker"
	"github.com/rhuss/claudenode/pkg/observability"
)

// NodeOperationError aborts a batch. Its message is the failing item's
// error message.
type NodeOperationError struct {
	ItemIndex int
	Err       error
}

func (e *NodeOperationError) Error() string { return e.Err.Error() }

func (e *NodeOperationError) Unwrap() error { return e.Err }

// Node runs the Claude Code node with a fixed invoker.
type Node struct {
	invoker    invoker.Invoker
	validation api.ValidationConfig
	logger     *slog.Logger
}

// Option configures a Node.
type Option func(*Node)

// WithValidation overrides the parameter limits.
func WithValidation(cfg api.ValidationConfig) Option {
	return func(n *Node) { n.validation = cfg }
}

// WithLogger sets the logger used for item failures.
func WithLogger(l *slog.Logger) Option {
	return func(n *Node) { n.logger = l }
}

// New creates a node backed by inv.
func New(inv invoker.Invoker, opts ...Option) *Node {
	n := &Node{
		invoker:    inv,
		validation: api.DefaultValidationConfig(),
		logger:     slog.Default(),
	}
	for _, o := range opts {
		o(n)
	}
	return n
}

// Invoker returns the invoker the node forwards prompts to.
func (n *Node) Invoker() invoker.Invoker { return n.invoker }

// Execute processes the host's items in index order and returns a single
// output batch. Every output item is paired with its input index.
//
// A failing item becomes an {error, prompt} record when the host continues
// on failure; otherwise Execute returns a *NodeOperationError and no
// output. Cancellation of ctx always aborts.
func (n *Node) Execute(ctx context.Context, host Host) ([][]api.Item, error) {
	if _, err := Operation(host); err != nil {
		return nil, err
	}

	observer, _ := host.(ItemObserver)
	items := host.InputData()
	out := make([]api.Item, 0, len(items))

	for i := range items {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		start := time.Now()
		item, err := n.executeItem(ctx, host, i)
		outcome := ItemOutcome{Index: i, Err: err, Duration: time.Since(start)}

		if err != nil {
			observability.ItemsTotal.WithLabelValues("failed").Inc()
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			if !host.ContinueOnFail() {
				n.logger.Warn("item failed, aborting execution", "item", i, "kind", api.ErrorKind(err), "error", err)
				if observer != nil {
					observer.OnItem(outcome)
				}
				return nil, &NodeOperationError{ItemIndex: i, Err: err}
			}
			n.logger.Info("item failed, continuing", "item", i, "kind", api.ErrorKind(err), "error", err)
			item = api.Item{
				JSON:       ErrorRecord(err, promptFor(host, i)),
				PairedItem: &api.PairedItem{Item: i},
			}
		} else {
			observability.ItemsTotal.WithLabelValues("succeeded").Inc()
		}

		out = append(out, item)
		if observer != nil {
			emitted := item
			outcome.Output = &emitted
			observer.OnItem(outcome)
		}
	}

	debug.Log("node", "execution finished", "items", len(items))
	return [][]api.Item{out}, nil
}

func (n *Node) executeItem(ctx context.Context, host Host, index int) (api.Item, error) {
	opts, err := CollectOptions(host, index, n.validation)
	if err != nil {
		return api.Item{}, err
	}

	debug.Log("node", "invoking", "item", index, "model", opts.Model, "format", opts.OutputFormat)
	res, err := n.invoker.Invoke(ctx, opts.Prompt, invoker.OptionsFrom(opts))
	if err != nil {
		return api.Item{}, err
	}
	if res == nil {
		return api.Item{}, fmt.Errorf("invoker %s returned no result", n.invoker.Name())
	}

	return api.Item{
		JSON:       Shape(opts.OutputFormat, res, opts),
		PairedItem: &api.PairedItem{Item: index},
	}, nil
}
