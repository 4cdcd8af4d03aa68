// Package stream invokes Claude Code as an ordered sequence of message
// records and concatenates their text fragments in arrival order.
//
// The default Source runs
//
//	claude -p --output-format stream-json --verbose --max-turns <n> --model <m> <prompt>
//
// and decodes its standard output as newline-delimited JSON. Other sources
// (an in-process client, a test double) plug in through the Source interface.
package stream

import (
	"context"
	"errors"
	"iter"
	"strings"
	"time"

	"github.com/rhuss/claudenode/pkg/api"
	"github.com/rhuss/claudenode/pkg/debug"
	"github.com/rhuss/claudenode/pkg/invoker"
)

// Name is the registered variant name.
const Name = "stream"

func init() {
	invoker.Register(Name, func(cfg invoker.Config) (invoker.Invoker, error) {
		return New(&CLISource{Config: cfg}), nil
	})
}

// Source produces the message records for one prompt. The sequence must
// stop promptly once ctx is done; the invoker relies on that to enforce the
// timeout.
type Source interface {
	Messages(ctx context.Context, prompt string, opts invoker.Options) iter.Seq2[api.Message, error]
}

// Invoker consumes a Source under the invocation timeout.
type Invoker struct {
	source Source
}

var _ invoker.Invoker = (*Invoker)(nil)

// New creates a stream invoker reading from source.
func New(source Source) *Invoker {
	return &Invoker{source: source}
}

func (i *Invoker) Name() string { return Name }

// Check forwards to the source when it can verify its prerequisites.
func (i *Invoker) Check(ctx context.Context) error {
	if c, ok := i.source.(invoker.Checker); ok {
		return c.Check(ctx)
	}
	return nil
}

func (i *Invoker) Invoke(ctx context.Context, prompt string, opts invoker.Options) (*api.InvocationResult, error) {
	start := time.Now()

	runCtx := ctx
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	var (
		text     strings.Builder
		messages []api.Message
		failure  error
	)
	for msg, err := range i.source.Messages(runCtx, prompt, opts) {
		if err != nil {
			failure = err
			break
		}
		messages = append(messages, msg)
		text.WriteString(TextOf(msg))
		if serr := ErrorOf(msg); serr != nil {
			failure = serr
			break
		}
	}

	// A deadline on runCtx that the caller's ctx does not share is our timeout.
	if runCtx.Err() != nil && ctx.Err() == nil && errors.Is(runCtx.Err(), context.DeadlineExceeded) {
		return nil, &api.TimeoutError{After: opts.Timeout}
	}
	if failure != nil {
		return nil, failure
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if messages == nil {
		messages = []api.Message{}
	}
	debug.Log("invoker", "stream finished", "messages", len(messages), "text_bytes", text.Len())

	return &api.InvocationResult{
		Text:       text.String(),
		Messages:   messages,
		DurationMs: time.Since(start).Milliseconds(),
	}, nil
}

// TextOf returns the text fragment carried by msg. A top-level "text"
// string wins; otherwise the text blocks of an assistant message are joined.
func TextOf(msg api.Message) string {
	if s, ok := msg["text"].(string); ok {
		return s
	}
	if msg["type"] != "assistant" {
		return ""
	}
	inner, ok := msg["message"].(map[string]any)
	if !ok {
		return ""
	}
	blocks, ok := inner["content"].([]any)
	if !ok {
		return ""
	}
	var b strings.Builder
	for _, block := range blocks {
		m, ok := block.(map[string]any)
		if !ok || m["type"] != "text" {
			continue
		}
		if s, ok := m["text"].(string); ok {
			b.WriteString(s)
		}
	}
	return b.String()
}

// ErrorOf reports a result record flagged as an error.
func ErrorOf(msg api.Message) error {
	if msg["type"] != "result" {
		return nil
	}
	if isErr, _ := msg["is_error"].(bool); !isErr {
		return nil
	}
	subtype, _ := msg["subtype"].(string)
	detail, _ := msg["result"].(string)
	return &api.StreamError{Subtype: subtype, Detail: detail}
}
