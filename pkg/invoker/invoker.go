// Package invoker defines the capability that turns a prompt into Claude
// Code output, together with a registry that selects an implementation by
// configuration.
//
// Implementations live in subpackages and register themselves from init():
//
//	argv    claude -p <prompt> --output-format text ...   (pkg/invoker/cli)
//	stdin   bundled executable, prompt on standard input  (pkg/invoker/bundled)
//	stream  stream-json message sequence                  (pkg/invoker/stream)
//	stub    local template rendering                      (pkg/invoker/stub)
//
// Import pkg/invoker/all to make every variant available to New.
package invoker

import (
	"context"
	"strconv"
	"time"

	"github.com/rhuss/claudenode/pkg/api"
)

// Invoker runs one prompt to completion.
//
// Implementations must be safe for concurrent use. A call resolves exactly
// once and must not leave a spawned process running after it returns.
type Invoker interface {
	// Name returns the registered variant name (e.g. "argv", "stub").
	Name() string

	// Invoke runs prompt with opts. Errors are *api.LaunchError,
	// *api.ProcessError, *api.TimeoutError, *api.StreamError or ctx.Err().
	Invoke(ctx context.Context, prompt string, opts Options) (*api.InvocationResult, error)
}

// Checker is implemented by invokers that can verify their prerequisites
// (an installed executable, for instance) ahead of the first call.
type Checker interface {
	Check(ctx context.Context) error
}

// Options are the per-call settings shared by all variants.
type Options struct {
	Model    api.Model
	MaxTurns int
	Timeout  time.Duration
}

// OptionsFrom extracts invoker options from resolved item options.
func OptionsFrom(o api.InvocationOptions) Options {
	return Options{
		Model:    o.Model,
		MaxTurns: o.MaxTurns,
		Timeout:  o.Timeout(),
	}
}

// Flags renders the turn and model flags as "--max-turns <n> --model <m>".
func (o Options) Flags() []string {
	return []string{"--max-turns", strconv.Itoa(o.MaxTurns), "--model", string(o.Model)}
}

// Config selects and configures an invoker variant.
type Config struct {
	// Type is the registered variant name.
	Type string

	// CLIPath overrides discovery of the claude executable (argv, stream).
	CLIPath string

	// BundledCommand is the command line of the bundled executable (stdin),
	// e.g. ["node", "/opt/claude-code/cli.js"].
	BundledCommand []string

	// WorkDir is the working directory of spawned processes.
	WorkDir string

	// Env is appended to the environment of spawned processes.
	Env []string

	// WaitDelay bounds output draining after exit. Zero uses the default.
	WaitDelay time.Duration

	// StubTemplate and StubDelay configure the stub variant.
	StubTemplate string
	StubDelay    time.Duration
}
