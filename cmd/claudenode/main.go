// Command claudenode runs the Claude Code node once over a batch of items
// and prints the output batch as JSON.
//
//	claudenode -items items.json -prompt '={{ $json.question }}' -model opus
//
// Items are read from a JSON array of objects (file, or "-" for stdin).
// Without -items the node runs over a single empty item. Parameters not
// given on the command line fall back to the config file's node defaults.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/rhuss/claudenode/pkg/api"
	"github.com/rhuss/claudenode/pkg/config"
	"github.com/rhuss/claudenode/pkg/debug"
	"github.com/rhuss/claudenode/pkg/engine"
	"github.com/rhuss/claudenode/pkg/invoker"
	_ "github.com/rhuss/claudenode/pkg/invoker/all"
	"github.com/rhuss/claudenode/pkg/node"
)

type flags struct {
	configPath     string
	items          string
	prompt         string
	model          string
	maxTurns       int
	timeout        float64
	outputFormat   string
	continueOnFail bool
	invoker        string
	set            map[string]bool
}

func parseFlags(args []string) (*flags, error) {
	f := &flags{}
	fs := flag.NewFlagSet("claudenode", flag.ContinueOnError)
	fs.StringVar(&f.configPath, "config", "", "path to the config file")
	fs.StringVar(&f.items, "items", "", "JSON array of input items (file path, - for stdin)")
	fs.StringVar(&f.prompt, "prompt", "", "prompt, or an expression such as '={{ $json.question }}'")
	fs.StringVar(&f.model, "model", "", "model: sonnet or opus")
	fs.IntVar(&f.maxTurns, "max-turns", 0, "maximum agent turns")
	fs.Float64Var(&f.timeout, "timeout", 0, "per-item timeout in seconds")
	fs.StringVar(&f.outputFormat, "output-format", "", "output format: text, messages or full")
	fs.BoolVar(&f.continueOnFail, "continue-on-fail", false, "record failed items instead of aborting")
	fs.StringVar(&f.invoker, "invoker", "", "invoker: stream, argv, stdin or stub")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	f.set = make(map[string]bool)
	fs.Visit(func(fl *flag.Flag) { f.set[fl.Name] = true })

	if f.prompt == "" {
		return nil, errors.New("-prompt is required")
	}
	return f, nil
}

// request builds the execution request. Only flags given explicitly become
// parameters so that configured defaults still apply.
func (f *flags) request(items []api.JSON) *api.ExecuteRequest {
	params := map[string]any{api.ParamPrompt: f.prompt}
	if f.set["model"] {
		params[api.ParamModel] = f.model
	}
	if f.set["max-turns"] {
		params[api.ParamMaxTurns] = f.maxTurns
	}
	if f.set["timeout"] {
		params[api.ParamTimeout] = f.timeout
	}
	if f.set["output-format"] {
		params[api.ParamOutputFormat] = f.outputFormat
	}

	req := &api.ExecuteRequest{Items: items, Parameters: params}
	if f.set["continue-on-fail"] {
		req.ContinueOnFail = &f.continueOnFail
	}
	return req
}

func main() {
	f, err := parseFlags(os.Args[1:])
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintln(os.Stderr, "claudenode:", err)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, f, os.Stdin, os.Stdout); err != nil {
		slog.Error("execution failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, f *flags, stdin io.Reader, stdout io.Writer) error {
	cfg, err := config.Load(f.configPath)
	if err != nil {
		return err
	}
	debug.Init(cfg.Logging.Settings())

	if f.invoker != "" {
		cfg.Invoker.Type = f.invoker
	}
	inv, err := invoker.New(cfg.Invoker.Settings())
	if err != nil {
		return err
	}

	items, err := readItems(f.items, stdin)
	if err != nil {
		return err
	}

	validation := cfg.Node.Validation()
	runner, err := engine.New(node.New(inv, node.WithValidation(validation)), nil, engine.Config{
		Defaults:       cfg.Node.Defaults.Parameters(),
		ContinueOnFail: cfg.Node.ContinueOnFail,
		Validation:     validation,
	})
	if err != nil {
		return err
	}

	exec, err := runner.Run(ctx, f.request(items), func(ev api.ExecutionEvent) {
		if ev.ItemIndex != nil {
			debug.Log("node", "item done", "type", ev.Type, "item", *ev.ItemIndex)
		}
	})
	if err != nil {
		return err
	}

	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(exec.Output)
}

// readItems loads the input batch. An empty path yields one empty item.
func readItems(path string, stdin io.Reader) ([]api.JSON, error) {
	if path == "" {
		return []api.JSON{{}}, nil
	}

	var data []byte
	var err error
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("reading items: %w", err)
	}

	var items []api.JSON
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("parsing items %s: %w", path, err)
	}
	return items, nil
}
