// Package cli invokes the claude executable with the prompt on argv:
//
//	claude -p <prompt> --output-format text --max-turns <n> --model <model>
//
// Standard output is the result; a non-zero exit is reported with the
// captured standard error.
package cli

import (
	"context"
	"strings"
	"time"

	"github.com/rhuss/claudenode/pkg/api"
	"github.com/rhuss/claudenode/pkg/invoker"
	"github.com/rhuss/claudenode/pkg/invoker/process"
)

// Name is the registered variant name.
const Name = "argv"

func init() {
	invoker.Register(Name, func(cfg invoker.Config) (invoker.Invoker, error) {
		return New(cfg), nil
	})
}

// Invoker runs one claude process per call.
type Invoker struct {
	cfg invoker.Config
}

var _ invoker.Invoker = (*Invoker)(nil)
var _ invoker.Checker = (*Invoker)(nil)

// New creates an argv invoker. The executable is located on every call so
// that installing claude after startup needs no restart.
func New(cfg invoker.Config) *Invoker {
	return &Invoker{cfg: cfg}
}

func (i *Invoker) Name() string { return Name }

// Args builds the argument list for prompt and opts.
func Args(prompt string, opts invoker.Options) []string {
	args := []string{"-p", prompt, "--output-format", "text"}
	return append(args, opts.Flags()...)
}

func (i *Invoker) Invoke(ctx context.Context, prompt string, opts invoker.Options) (*api.InvocationResult, error) {
	start := time.Now()

	path, err := invoker.FindCLI(i.cfg.CLIPath)
	if err != nil {
		return nil, err
	}

	out, err := process.Run(ctx, process.Spec{
		Path:      path,
		Args:      Args(prompt, opts),
		Env:       i.cfg.Env,
		Dir:       i.cfg.WorkDir,
		Timeout:   opts.Timeout,
		WaitDelay: i.cfg.WaitDelay,
	})
	if err != nil {
		return nil, err
	}

	return &api.InvocationResult{
		Text:       strings.TrimRight(string(out.Stdout), "\r\n"),
		DurationMs: time.Since(start).Milliseconds(),
	}, nil
}

// Check verifies that the claude executable can be located.
func (i *Invoker) Check(context.Context) error {
	_, err := invoker.FindCLI(i.cfg.CLIPath)
	return err
}
