// Package bundled invokes a bundled Claude Code executable that reads the
// prompt from standard input:
//
//	<bundled command...> --model <model> --max-turns <n>  < prompt
//
// The executable is resolved before each spawn, so a missing installation
// fails fast with a LaunchError instead of running into the timeout.
package bundled

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/rhuss/claudenode/pkg/api"
	"github.com/rhuss/claudenode/pkg/invoker"
	"github.com/rhuss/claudenode/pkg/invoker/process"
)

// Name is the registered variant name.
const Name = "stdin"

// DefaultCommand runs the CLI shipped in the npm package next to the
// working directory.
var DefaultCommand = []string{"node", filepath.Join("node_modules", "@anthropic-ai", "claude-code", "cli.js")}

func init() {
	invoker.Register(Name, func(cfg invoker.Config) (invoker.Invoker, error) {
		return New(cfg)
	})
}

// Invoker writes the prompt to the bundled executable's standard input.
type Invoker struct {
	command []string
	cfg     invoker.Config
}

var _ invoker.Invoker = (*Invoker)(nil)
var _ invoker.Checker = (*Invoker)(nil)

// New creates a stdin invoker. An empty cfg.BundledCommand selects DefaultCommand.
func New(cfg invoker.Config) (*Invoker, error) {
	command := cfg.BundledCommand
	if len(command) == 0 {
		command = DefaultCommand
	}
	if strings.TrimSpace(command[0]) == "" {
		return nil, errors.New("bundled command must name an executable")
	}
	return &Invoker{command: command, cfg: cfg}, nil
}

func (i *Invoker) Name() string { return Name }

// Args builds the arguments that follow the bundled command.
func Args(opts invoker.Options) []string {
	return []string{"--model", string(opts.Model), "--max-turns", strconv.Itoa(opts.MaxTurns)}
}

func (i *Invoker) Invoke(ctx context.Context, prompt string, opts invoker.Options) (*api.InvocationResult, error) {
	start := time.Now()

	path, err := i.resolve()
	if err != nil {
		return nil, err
	}

	args := append(append([]string{}, i.command[1:]...), Args(opts)...)
	out, err := process.Run(ctx, process.Spec{
		Path:      path,
		Args:      args,
		Env:       i.cfg.Env,
		Dir:       i.cfg.WorkDir,
		Stdin:     strings.NewReader(prompt),
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

// Check verifies that the bundled command can be started.
func (i *Invoker) Check(context.Context) error {
	_, err := i.resolve()
	return err
}

// resolve locates the executable and, for interpreter commands such as
// "node cli.js", the script it runs.
func (i *Invoker) resolve() (string, error) {
	path, err := exec.LookPath(i.command[0])
	if err != nil {
		return "", &api.LaunchError{Path: i.command[0], Err: err}
	}
	if len(i.command) > 1 && isScript(i.command[1]) {
		script := i.command[1]
		if !filepath.IsAbs(script) && i.cfg.WorkDir != "" {
			script = filepath.Join(i.cfg.WorkDir, script)
		}
		if _, err := os.Stat(script); err != nil {
			return "", &api.LaunchError{Path: i.command[1], Err: fmt.Errorf("bundled script: %w", err)}
		}
	}
	return path, nil
}

func isScript(arg string) bool {
	if strings.HasPrefix(arg, "-") {
		return false
	}
	switch filepath.Ext(arg) {
	case ".js", ".mjs", ".cjs":
		return true
	}
	return false
}
