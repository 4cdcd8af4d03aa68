package process

import (
	"bytes"
	"context"
	"errors"
	"os"
	"os/exec"
	"strings"
	"testing"
	"time"

	"github.com/rhuss/claudenode/pkg/api"
	"github.com/rhuss/claudenode/pkg/invoker/fakecli"
)

func TestMain(m *testing.M) {
	fakecli.RunIfRequested()
	os.Exit(m.Run())
}

// fakeSpec returns a Spec that re-executes the test binary as a fake claude.
func fakeSpec(args ...string) Spec {
	return Spec{
		Path:    os.Args[0],
		Args:    args,
		Env:     []string{fakecli.EnvVar + "=1"},
		Timeout: 10 * time.Second,
	}
}

func TestRunCapturesStdout(t *testing.T) {
	out, err := Run(context.Background(), fakeSpec("-p", "hello"))
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if got := string(out.Stdout); got != "echo: hello\n" {
		t.Errorf("Stdout = %q", got)
	}
	if out.ExitCode != 0 {
		t.Errorf("ExitCode = %d, want 0", out.ExitCode)
	}
	if out.PID == 0 {
		t.Error("PID should be recorded")
	}
}

func TestRunWritesStdin(t *testing.T) {
	spec := fakeSpec("--model", "opus")
	spec.Stdin = strings.NewReader("via stdin")
	out, err := Run(context.Background(), spec)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if got := string(out.Stdout); got != "echo: via stdin\n" {
		t.Errorf("Stdout = %q", got)
	}
}

func TestRunTeesStdout(t *testing.T) {
	var tee bytes.Buffer
	spec := fakeSpec("-p", "tee me")
	spec.Stdout = &tee
	out, err := Run(context.Background(), spec)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if tee.String() != string(out.Stdout) {
		t.Errorf("tee = %q, captured = %q", tee.String(), out.Stdout)
	}
}

func TestRunNonZeroExit(t *testing.T) {
	out, err := Run(context.Background(), fakeSpec("-p", "[fail:1]"))

	var perr *api.ProcessError
	if !errors.As(err, &perr) {
		t.Fatalf("Run() error = %v, want ProcessError", err)
	}
	if perr.ExitCode != 1 {
		t.Errorf("ExitCode = %d, want 1", perr.ExitCode)
	}
	if perr.Error() != "exit 1: bad flag" {
		t.Errorf("Error() = %q, want %q", perr.Error(), "exit 1: bad flag")
	}
	if out == nil || out.ExitCode != 1 {
		t.Errorf("Output = %+v, want exit code 1", out)
	}
}

func TestRunMissingExecutable(t *testing.T) {
	_, err := Run(context.Background(), Spec{Path: "/nonexistent/claude", Timeout: time.Second})

	var lerr *api.LaunchError
	if !errors.As(err, &lerr) {
		t.Fatalf("Run() error = %v, want LaunchError", err)
	}
	if lerr.Path != "/nonexistent/claude" {
		t.Errorf("Path = %q", lerr.Path)
	}
}

func TestRunMissingExecutableOnPath(t *testing.T) {
	_, err := Run(context.Background(), Spec{Path: "claude-definitely-not-installed", Timeout: time.Second})
	if !errors.Is(err, exec.ErrNotFound) {
		t.Fatalf("Run() error = %v, want exec.ErrNotFound", err)
	}
}

func TestRunTimeout(t *testing.T) {
	if testing.Short() {
		t.Skip("timing test")
	}

	spec := fakeSpec("-p", "[hang]")
	spec.Timeout = time.Second

	start := time.Now()
	_, err := Run(context.Background(), spec)
	elapsed := time.Since(start)

	var terr *api.TimeoutError
	if !errors.As(err, &terr) {
		t.Fatalf("Run() error = %v, want TimeoutError", err)
	}
	if terr.After != time.Second {
		t.Errorf("After = %v, want 1s", terr.After)
	}
	if elapsed < time.Second || elapsed >= 1100*time.Millisecond {
		t.Errorf("rejected after %v, want within [1s, 1.1s)", elapsed)
	}
}

func TestRunContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(100*time.Millisecond, cancel)

	start := time.Now()
	_, err := Run(ctx, fakeSpec("-p", "[hang]"))
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Run() error = %v, want context.Canceled", err)
	}
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Errorf("cancellation took %v", elapsed)
	}
}

func TestRunCompletesBeforeTimeout(t *testing.T) {
	spec := fakeSpec("-p", "[sleep:50ms] quick")
	spec.Timeout = 5 * time.Second

	out, err := Run(context.Background(), spec)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if out.Duration < 50*time.Millisecond {
		t.Errorf("Duration = %v, want >= 50ms", out.Duration)
	}
}
