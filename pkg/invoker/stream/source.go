package stream

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"iter"

	"github.com/rhuss/claudenode/pkg/api"
	"github.com/rhuss/claudenode/pkg/debug"
	"github.com/rhuss/claudenode/pkg/invoker"
	"github.com/rhuss/claudenode/pkg/invoker/process"
)

// maxLineSize bounds a single stream-json record.
const maxLineSize = 10 * 1024 * 1024

// CLISource runs the claude executable in stream-json mode.
type CLISource struct {
	Config invoker.Config
}

var _ Source = (*CLISource)(nil)

// Args builds the stream-json argument list.
func Args(prompt string, opts invoker.Options) []string {
	args := []string{"-p", "--output-format", "stream-json", "--verbose"}
	args = append(args, opts.Flags()...)
	return append(args, prompt)
}

// Check verifies that the claude executable can be located.
func (s *CLISource) Check(context.Context) error {
	_, err := invoker.FindCLI(s.Config.CLIPath)
	return err
}

// Messages spawns claude and yields each decoded stdout line. Lines that
// are not JSON objects are skipped. A failed process is yielded as the
// final error. Stopping the iteration early kills the process.
func (s *CLISource) Messages(ctx context.Context, prompt string, opts invoker.Options) iter.Seq2[api.Message, error] {
	return func(yield func(api.Message, error) bool) {
		path, err := invoker.FindCLI(s.Config.CLIPath)
		if err != nil {
			yield(nil, err)
			return
		}

		ctx, cancel := context.WithCancel(ctx)
		defer cancel()

		pr, pw := io.Pipe()
		runErr := make(chan error, 1)
		go func() {
			_, err := process.Run(ctx, process.Spec{
				Path:      path,
				Args:      Args(prompt, opts),
				Env:       s.Config.Env,
				Dir:       s.Config.WorkDir,
				Stdout:    pw,
				WaitDelay: s.Config.WaitDelay,
			})
			pw.Close()
			runErr <- err
		}()

		// finish releases the process and returns its error.
		finish := func() error {
			_, _ = io.Copy(io.Discard, pr)
			return <-runErr
		}

		scanner := bufio.NewScanner(pr)
		scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
		for scanner.Scan() {
			line := scanner.Bytes()
			if len(line) == 0 {
				continue
			}
			var msg api.Message
			if err := json.Unmarshal(line, &msg); err != nil {
				debug.Log("invoker", "skipping malformed stream line", "error", err,
					"line", debug.Truncate(string(line), 200))
				continue
			}
			debug.Trace("invoker", "stream record", "type", msg["type"])
			if !yield(msg, nil) {
				cancel()
				finish()
				return
			}
		}
		if err := scanner.Err(); err != nil {
			cancel()
			finish()
			yield(nil, fmt.Errorf("reading claude stream: %w", err))
			return
		}

		if err := finish(); err != nil {
			yield(nil, err)
		}
	}
}
