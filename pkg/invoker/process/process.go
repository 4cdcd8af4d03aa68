// Package process runs one external command under a wall-clock budget.
//
// Run owns the child for its whole lifetime: exactly one of process exit,
// timer expiry or context cancellation decides the outcome, and on every
// path the child (and its process group on unix) has been reaped before Run
// returns.
package process

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/rhuss/claudenode/pkg/api"
	"github.com/rhuss/claudenode/pkg/debug"
	"github.com/rhuss/claudenode/pkg/observability"
)

// DefaultWaitDelay bounds how long output pipes are drained after the
// process has exited or been killed.
const DefaultWaitDelay = 500 * time.Millisecond

// Spec describes a single process invocation.
type Spec struct {
	Path string
	Args []string

	// Env is appended to the current environment.
	Env []string
	Dir string

	// Stdin, when set, is copied to the process's standard input and closed.
	Stdin io.Reader

	// Stdout, when set, receives standard output as it is produced. The
	// output is still captured in Output.Stdout.
	Stdout io.Writer

	// Timeout is the wall-clock budget. Zero disables the timer.
	Timeout time.Duration

	// WaitDelay overrides DefaultWaitDelay.
	WaitDelay time.Duration
}

// Output is the captured result of a completed process.
type Output struct {
	Stdout   []byte
	Stderr   string
	ExitCode int
	PID      int
	Duration time.Duration
}

// Run starts the process described by spec and waits for it.
//
// Errors:
//   - *api.LaunchError when the executable cannot be started
//   - *api.TimeoutError when spec.Timeout elapses first
//   - ctx.Err() when ctx is done first
//   - *api.ProcessError on a non-zero exit (Output is returned as well)
func Run(ctx context.Context, spec Spec) (*Output, error) {
	cmd := exec.Command(spec.Path, spec.Args...)
	cmd.Dir = spec.Dir
	cmd.Env = append(os.Environ(), spec.Env...)
	cmd.Stdin = spec.Stdin

	var stdout, stderr bytes.Buffer
	if spec.Stdout != nil {
		cmd.Stdout = io.MultiWriter(&stdout, spec.Stdout)
	} else {
		cmd.Stdout = &stdout
	}
	cmd.Stderr = &stderr

	cmd.WaitDelay = spec.WaitDelay
	if cmd.WaitDelay <= 0 {
		cmd.WaitDelay = DefaultWaitDelay
	}
	setProcessGroup(cmd)

	start := time.Now()
	if err := cmd.Start(); err != nil {
		return nil, &api.LaunchError{Path: spec.Path, Err: err}
	}
	pid := cmd.Process.Pid
	observability.ProcessesActive.Inc()
	defer observability.ProcessesActive.Dec()

	debug.Log("process", "spawned", "path", spec.Path, "pid", pid, "timeout", spec.Timeout)
	debug.Trace("process", "arguments", "pid", pid, "args", spec.Args)

	done := make(chan error, 1)
	go func() {
		done <- cmd.Wait()
	}()

	var expired <-chan time.Time
	if spec.Timeout > 0 {
		timer := time.NewTimer(spec.Timeout)
		defer timer.Stop()
		expired = timer.C
	}

	var waitErr error
	select {
	case waitErr = <-done:
	case <-expired:
		terminate(cmd, "timeout")
		<-done
		debug.Log("process", "killed after timeout", "pid", pid, "elapsed", time.Since(start))
		return nil, &api.TimeoutError{After: spec.Timeout}
	case <-ctx.Done():
		terminate(cmd, "cancelled")
		<-done
		debug.Log("process", "killed after cancellation", "pid", pid, "elapsed", time.Since(start))
		return nil, ctx.Err()
	}

	out := &Output{
		Stdout:   stdout.Bytes(),
		Stderr:   strings.TrimSpace(stderr.String()),
		PID:      pid,
		Duration: time.Since(start),
	}

	var exitErr *exec.ExitError
	switch {
	case waitErr == nil:
	case errors.As(waitErr, &exitErr):
		out.ExitCode = exitErr.ExitCode()
	case errors.Is(waitErr, exec.ErrWaitDelay):
		// Exited cleanly but a descendant kept the pipes open.
		debug.Log("process", "output pipes closed after wait delay", "pid", pid)
	default:
		return out, &api.LaunchError{Path: spec.Path, Err: waitErr}
	}

	debug.Log("process", "exited", "pid", pid, "exit_code", out.ExitCode, "duration", out.Duration)

	if out.ExitCode != 0 {
		return out, &api.ProcessError{ExitCode: out.ExitCode, Stderr: out.Stderr}
	}
	return out, nil
}

func terminate(cmd *exec.Cmd, reason string) {
	observability.ProcessKillsTotal.WithLabelValues(reason).Inc()
	killProcessGroup(cmd)
}
