// Package stub answers prompts locally from a text/template, without
// contacting Claude Code. Output is deterministic for a fixed prompt and
// options, which makes the variant useful for workflow dry runs and tests.
package stub

import (
	"context"
	"fmt"
	"strings"
	"text/template"
	"time"

	"github.com/rhuss/claudenode/pkg/api"
	"github.com/rhuss/claudenode/pkg/invoker"
)

// Name is the registered variant name.
const Name = "stub"

// DefaultTemplate is rendered when no template is configured.
const DefaultTemplate = "Claude Code ({{.Model}}, max {{.MaxTurns}} turns) received: {{.Prompt}}"

func init() {
	invoker.Register(Name, func(cfg invoker.Config) (invoker.Invoker, error) {
		return New(cfg.StubTemplate, cfg.StubDelay)
	})
}

// Data is the template input.
type Data struct {
	Prompt   string
	Model    api.Model
	MaxTurns int
}

// Invoker renders a template after an optional delay.
type Invoker struct {
	tmpl  *template.Template
	delay time.Duration
}

var _ invoker.Invoker = (*Invoker)(nil)

// New parses text (DefaultTemplate when empty) and returns a stub invoker
// that waits delay before answering.
func New(text string, delay time.Duration) (*Invoker, error) {
	if text == "" {
		text = DefaultTemplate
	}
	tmpl, err := template.New(Name).Option("missingkey=error").Parse(text)
	if err != nil {
		return nil, fmt.Errorf("parsing stub template: %w", err)
	}
	return &Invoker{tmpl: tmpl, delay: delay}, nil
}

func (i *Invoker) Name() string { return Name }

func (i *Invoker) Invoke(ctx context.Context, prompt string, opts invoker.Options) (*api.InvocationResult, error) {
	start := time.Now()

	if i.delay > 0 {
		wait := time.NewTimer(i.delay)
		defer wait.Stop()

		var expired <-chan time.Time
		if opts.Timeout > 0 {
			timer := time.NewTimer(opts.Timeout)
			defer timer.Stop()
			expired = timer.C
		}

		select {
		case <-wait.C:
		case <-expired:
			return nil, &api.TimeoutError{After: opts.Timeout}
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	var b strings.Builder
	if err := i.tmpl.Execute(&b, Data{Prompt: prompt, Model: opts.Model, MaxTurns: opts.MaxTurns}); err != nil {
		return nil, fmt.Errorf("rendering stub template: %w", err)
	}

	return &api.InvocationResult{
		Text:       b.String(),
		DurationMs: time.Since(start).Milliseconds(),
	}, nil
}
