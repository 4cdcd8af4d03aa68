// Package fakecli implements a stand-in for the claude executable.
//
// It understands the flags the invokers pass (-p, --output-format,
// --verbose, --max-turns, --model) and reads the prompt from argv in print
// mode or from stdin otherwise. The reply is "echo: <prompt>". Directives
// embedded in the prompt change the behavior:
//
//	[hang]            never exit
//	[sleep:<dur>]     sleep before replying (time.ParseDuration syntax)
//	[fail:<code>]     write "bad flag" to stderr and exit with code
//	[stream-error]    end a stream-json run with an error result record
//	[garbage]         emit a non-JSON line before the stream-json records
//
// Tests re-exec their own binary with EnvVar=1 and call RunIfRequested from
// TestMain; cmd/mock-claude wraps Main as a standalone executable.
package fakecli

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// EnvVar switches a test binary into fake claude mode.
const EnvVar = "GO_WANT_FAKE_CLAUDE"

var (
	sleepDirective = regexp.MustCompile(`\[sleep:([^\]]+)\]`)
	failDirective  = regexp.MustCompile(`\[fail:(\d+)\]`)
)

// RunIfRequested runs Main and exits when EnvVar is set to "1".
func RunIfRequested() {
	if os.Getenv(EnvVar) != "1" {
		return
	}
	os.Exit(Main(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

type options struct {
	print        bool
	outputFormat string
	verbose      bool
	maxTurns     int
	model        string
	prompt       string
}

// Main runs the fake and returns the process exit code.
func Main(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	opts, err := parseArgs(args)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 2
	}

	if !opts.print || opts.prompt == "" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			fmt.Fprintln(stderr, "reading stdin:", err)
			return 1
		}
		opts.prompt = strings.TrimRight(string(data), "\n")
	}

	prompt := opts.prompt
	if strings.Contains(prompt, "[hang]") {
		select {}
	}
	if m := sleepDirective.FindStringSubmatch(prompt); m != nil {
		if d, err := time.ParseDuration(m[1]); err == nil {
			time.Sleep(d)
		}
	}
	if m := failDirective.FindStringSubmatch(prompt); m != nil {
		code, _ := strconv.Atoi(m[1])
		fmt.Fprintln(stderr, "bad flag")
		return code
	}

	reply := "echo: " + prompt
	if opts.outputFormat == "stream-json" {
		return writeStream(stdout, stderr, opts, reply)
	}
	fmt.Fprintln(stdout, reply)
	return 0
}

func parseArgs(args []string) (options, error) {
	opts := options{outputFormat: "text", maxTurns: 1, model: "sonnet"}
	for i := 0; i < len(args); i++ {
		arg := args[i]
		next := func() (string, error) {
			if i+1 >= len(args) {
				return "", fmt.Errorf("flag %s needs a value", arg)
			}
			i++
			return args[i], nil
		}
		switch arg {
		case "-p", "--print":
			opts.print = true
		case "--verbose":
			opts.verbose = true
		case "--output-format":
			v, err := next()
			if err != nil {
				return opts, err
			}
			opts.outputFormat = v
		case "--max-turns":
			v, err := next()
			if err != nil {
				return opts, err
			}
			n, err := strconv.Atoi(v)
			if err != nil || n <= 0 {
				return opts, fmt.Errorf("invalid --max-turns %q", v)
			}
			opts.maxTurns = n
		case "--model":
			v, err := next()
			if err != nil {
				return opts, err
			}
			opts.model = v
		default:
			if strings.HasPrefix(arg, "-") {
				return opts, fmt.Errorf("unknown flag %s", arg)
			}
			opts.prompt = arg
		}
	}
	return opts, nil
}

func writeStream(stdout, stderr io.Writer, opts options, reply string) int {
	if opts.outputFormat == "stream-json" && opts.print && !opts.verbose {
		fmt.Fprintln(stderr, "--output-format=stream-json requires --verbose")
		return 1
	}

	w := bufio.NewWriter(stdout)
	defer w.Flush()
	enc := json.NewEncoder(w)

	if strings.Contains(opts.prompt, "[garbage]") {
		fmt.Fprintln(w, "not json at all")
	}

	half := len(reply) / 2
	records := []map[string]any{
		{"type": "system", "subtype": "init", "model": opts.model, "max_turns": opts.maxTurns},
		assistantText(reply[:half]),
		assistantText(reply[half:]),
	}
	if strings.Contains(opts.prompt, "[stream-error]") {
		records = append(records, map[string]any{
			"type": "result", "subtype": "error_max_turns", "is_error": true,
			"result": "reached maximum number of turns", "num_turns": opts.maxTurns,
		})
	} else {
		records = append(records, map[string]any{
			"type": "result", "subtype": "success", "is_error": false,
			"result": reply, "num_turns": 1,
		})
	}

	for _, rec := range records {
		if err := enc.Encode(rec); err != nil {
			fmt.Fprintln(stderr, err)
			return 1
		}
	}
	return 0
}

func assistantText(text string) map[string]any {
	return map[string]any{
		"type": "assistant",
		"message": map[string]any{
			"role":    "assistant",
			"content": []any{map[string]any{"type": "text", "text": text}},
		},
	}
}
