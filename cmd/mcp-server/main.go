// Command mcp-server serves the claude_code MCP tool over stdio, for MCP
// clients that launch their servers as subprocesses. Logs go to stderr;
// stdout carries the protocol.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/rhuss/claudenode/pkg/config"
	"github.com/rhuss/claudenode/pkg/debug"
	"github.com/rhuss/claudenode/pkg/engine"
	"github.com/rhuss/claudenode/pkg/invoker"
	_ "github.com/rhuss/claudenode/pkg/invoker/all"
	"github.com/rhuss/claudenode/pkg/mcp"
	"github.com/rhuss/claudenode/pkg/node"
	"github.com/rhuss/claudenode/pkg/storage/memory"
	"github.com/rhuss/claudenode/pkg/transport"
)

var version = "dev"

func main() {
	configPath := flag.String("config", "", "path to the config file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		slog.Error("mcp server failed", "error", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	debug.Init(cfg.Logging.Settings())

	inv, err := invoker.New(cfg.Invoker.Settings())
	if err != nil {
		return err
	}
	validation := cfg.Node.Validation()
	runner, err := engine.New(node.New(inv, node.WithValidation(validation)), memory.New(cfg.Storage.MaxSize), engine.Config{
		Defaults:       cfg.Node.Defaults.Parameters(),
		ContinueOnFail: false,
		Validation:     validation,
	})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	slog.Info("mcp server starting", "transport", "stdio", "invoker", inv.Name())
	limiter := transport.NewLimiter(cfg.Server.MaxConcurrentExecutions)
	return mcp.NewServer(runner, version, mcp.WithLimiter(limiter)).Run(ctx, &sdkmcp.StdioTransport{})
}
