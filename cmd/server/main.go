// Command server runs the claudenode HTTP service: the execution API,
// the claude_code MCP tool and Prometheus metrics.
//
// Configuration is read from a YAML file (-config, CLAUDENODE_CONFIG,
// ./config.yaml or /etc/claudenode/config.yaml) with CLAUDENODE_*
// environment overrides. Logging settings are reloaded when the file
// changes.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/rhuss/claudenode/pkg/auth/setup"
	"github.com/rhuss/claudenode/pkg/config"
	"github.com/rhuss/claudenode/pkg/debug"
	"github.com/rhuss/claudenode/pkg/engine"
	"github.com/rhuss/claudenode/pkg/invoker"
	_ "github.com/rhuss/claudenode/pkg/invoker/all"
	"github.com/rhuss/claudenode/pkg/mcp"
	"github.com/rhuss/claudenode/pkg/node"
	"github.com/rhuss/claudenode/pkg/observability"
	"github.com/rhuss/claudenode/pkg/storage/memory"
	"github.com/rhuss/claudenode/pkg/storage/postgres"
	"github.com/rhuss/claudenode/pkg/transport"
	transporthttp "github.com/rhuss/claudenode/pkg/transport/http"
)

var version = "dev"

func main() {
	configPath := flag.String("config", "", "path to the config file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	debug.Init(cfg.Logging.Settings())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	inv, err := invoker.New(cfg.Invoker.Settings())
	if err != nil {
		return err
	}
	validation := cfg.Node.Validation()
	n := node.New(inv, node.WithValidation(validation))

	store, err := openStore(ctx, cfg.Storage)
	if err != nil {
		return err
	}
	defer store.Close()

	runner, err := engine.New(n, store, engine.Config{
		Defaults:       cfg.Node.Defaults.Parameters(),
		ContinueOnFail: cfg.Node.ContinueOnFail,
		Validation:     validation,
	})
	if err != nil {
		return fmt.Errorf("creating runner: %w", err)
	}

	limiter := transport.NewLimiter(cfg.Server.MaxConcurrentExecutions)

	var bypass []string
	opts := []transporthttp.ServerOption{
		transporthttp.WithAddr(fmt.Sprintf(":%d", cfg.Server.Port)),
		transporthttp.WithMaxBodySize(cfg.Server.MaxBodySize),
		transporthttp.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout),
		transporthttp.WithLimiter(limiter),
		transporthttp.WithShutdownTimeout(cfg.Server.ShutdownTimeout),
	}
	if cfg.Observability.Metrics.Enabled {
		opts = append(opts, transporthttp.WithRoute("GET "+cfg.Observability.Metrics.Path, promhttp.Handler()))
		bypass = append(bypass, cfg.Observability.Metrics.Path)
	}
	if cfg.MCP.Enabled {
		opts = append(opts, transporthttp.WithRoute(cfg.MCP.Path, mcp.Handler(mcp.NewServer(runner, version, mcp.WithLimiter(limiter)))))
	}

	authMW, err := setup.Middleware(cfg.Auth, bypass...)
	if err != nil {
		return fmt.Errorf("configuring auth: %w", err)
	}
	opts = append(opts,
		transporthttp.WithHTTPMiddleware(observability.MetricsMiddleware),
		transporthttp.WithHTTPMiddleware(authMW),
	)

	srv := transporthttp.NewServer(runner, store, opts...)

	if path := config.DiscoverConfigFile(configPath); path != "" {
		go func() {
			err := config.Watch(ctx, path, func(c *config.Config) {
				debug.Apply(c.Logging.Settings())
			})
			if err != nil {
				slog.Warn("config watch stopped", "error", err)
			}
		}()
	}

	slog.Info("claudenode configured",
		"version", version,
		"port", cfg.Server.Port,
		"invoker", inv.Name(),
		"storage", cfg.Storage.Type,
		"auth", cfg.Auth.Type,
		"mcp", cfg.MCP.Enabled,
	)
	if err := srv.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	slog.Info("server stopped")
	return nil
}

func openStore(ctx context.Context, cfg config.StorageConfig) (transport.ExecutionStore, error) {
	switch cfg.Type {
	case "postgres":
		store, err := postgres.New(ctx, postgres.Config{
			DSN:             cfg.Postgres.DSN,
			MaxConns:        cfg.Postgres.MaxConns,
			MinConns:        cfg.Postgres.MinConns,
			MaxConnLifetime: cfg.Postgres.MaxConnLifetime,
			ConnectTimeout:  cfg.Postgres.ConnectTimeout,
			MigrateOnStart:  cfg.Postgres.MigrateOnStart,
		})
		if err != nil {
			return nil, fmt.Errorf("opening postgres store: %w", err)
		}
		return store, nil
	default:
		return memory.New(cfg.MaxSize), nil
	}
}
