// Package config provides unified configuration for the claudenode server.
//
// Configuration is loaded with a layered approach:
//  1. Built-in defaults
//  2. YAML config file (discovered or explicitly specified)
//  3. Environment variable overrides (CLAUDENODE_ prefix)
//  4. File reference resolution (_file suffix fields)
//  5. Validation
package config

import (
	"time"

	"github.com/rhuss/claudenode/pkg/api"
	"github.com/rhuss/claudenode/pkg/debug"
	"github.com/rhuss/claudenode/pkg/invoker"
)

// Config holds all configuration for the claudenode server.
type Config struct {
	Server        ServerConfig        `yaml:"server"`
	Invoker       InvokerConfig       `yaml:"invoker"`
	Node          NodeConfig          `yaml:"node"`
	Storage       StorageConfig       `yaml:"storage"`
	Auth          AuthConfig          `yaml:"auth"`
	MCP           MCPConfig           `yaml:"mcp"`
	Observability ObservabilityConfig `yaml:"observability"`
	Logging       LoggingConfig       `yaml:"logging"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port            int           `yaml:"port"`             // default: 8080
	ReadTimeout     time.Duration `yaml:"read_timeout"`     // default: 30s
	WriteTimeout    time.Duration `yaml:"write_timeout"`    // default: 0 (executions may run long)
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"` // default: 30s
	MaxBodySize     int64         `yaml:"max_body_size"`    // default: 10MB

	MaxConcurrentExecutions int64 `yaml:"max_concurrent_executions"` // default: 0 (unlimited)
}

// InvokerConfig selects and configures the Claude Code invoker.
type InvokerConfig struct {
	Type           string        `yaml:"type"`            // "stream", "argv", "stdin" or "stub", default: "argv"
	CLIPath        string        `yaml:"cli_path"`        // optional, discovered when empty
	BundledCommand []string      `yaml:"bundled_command"` // for type=stdin
	WorkDir        string        `yaml:"work_dir"`
	Env            []string      `yaml:"env"`        // extra KEY=VALUE entries for the child process
	WaitDelay      time.Duration `yaml:"wait_delay"` // default: 500ms
	Stub           StubConfig    `yaml:"stub"`
}

// Settings converts the invoker section for the invoker registry.
func (c InvokerConfig) Settings() invoker.Config {
	return invoker.Config{
		Type:           c.Type,
		CLIPath:        c.CLIPath,
		BundledCommand: c.BundledCommand,
		WorkDir:        c.WorkDir,
		Env:            c.Env,
		WaitDelay:      c.WaitDelay,
		StubTemplate:   c.Stub.Template,
		StubDelay:      c.Stub.Delay,
	}
}

// StubConfig configures the local stub invoker.
type StubConfig struct {
	Template string        `yaml:"template"`
	Delay    time.Duration `yaml:"delay"`
}

// NodeConfig holds node parameter defaults and request limits.
type NodeConfig struct {
	Defaults       NodeDefaults `yaml:"defaults"`
	ContinueOnFail bool         `yaml:"continue_on_fail"`
	MaxItems       int          `yaml:"max_items"`        // default: 1000
	MaxPromptBytes int          `yaml:"max_prompt_bytes"` // default: 1MB
	MaxTurns       int          `yaml:"max_turns"`        // upper bound, default: 100
	MaxTimeout     float64      `yaml:"max_timeout"`      // seconds, default: 3600
}

// NodeDefaults are parameter values applied when a request omits them.
type NodeDefaults struct {
	Model        string  `yaml:"model"`
	MaxTurns     int     `yaml:"max_turns"`
	Timeout      float64 `yaml:"timeout"`
	OutputFormat string  `yaml:"output_format"`
}

// Parameters returns the defaults as node parameters. Zero values are
// omitted so the node's own schema defaults apply.
func (d NodeDefaults) Parameters() map[string]any {
	params := make(map[string]any)
	if d.Model != "" {
		params[api.ParamModel] = d.Model
	}
	if d.MaxTurns > 0 {
		params[api.ParamMaxTurns] = d.MaxTurns
	}
	if d.Timeout > 0 {
		params[api.ParamTimeout] = d.Timeout
	}
	if d.OutputFormat != "" {
		params[api.ParamOutputFormat] = d.OutputFormat
	}
	return params
}

// Validation returns the request limits for the api validators.
func (n NodeConfig) Validation() api.ValidationConfig {
	return api.ValidationConfig{
		MaxItems:       n.MaxItems,
		MaxPromptBytes: n.MaxPromptBytes,
		MaxTurns:       n.MaxTurns,
		MaxTimeout:     n.MaxTimeout,
	}
}

// StorageConfig holds execution store settings.
type StorageConfig struct {
	Type     string         `yaml:"type"`     // "memory" or "postgres", default: "memory"
	MaxSize  int            `yaml:"max_size"` // for memory store, default: 10000
	Postgres PostgresConfig `yaml:"postgres"`
}

// PostgresConfig holds PostgreSQL-specific settings.
type PostgresConfig struct {
	DSN            string `yaml:"dsn"`
	DSNFile        string `yaml:"dsn_file"`         // _file variant for dsn
	MaxConns       int32  `yaml:"max_conns"`        // default: 25
	MinConns       int32  `yaml:"min_conns"`        // default: 2
	MigrateOnStart bool   `yaml:"migrate_on_start"` // default: false

	MaxConnLifetime time.Duration `yaml:"max_conn_lifetime"` // default: 5m
	ConnectTimeout  time.Duration `yaml:"connect_timeout"`
}

// AuthConfig holds authentication settings.
type AuthConfig struct {
	Type      string          `yaml:"type"`     // "none", "apikey" or "jwt", default: "none"
	Header    string          `yaml:"header"`   // apikey header, default: "Authorization"
	APIKeys   []APIKeyConfig  `yaml:"api_keys"` // entries for type=apikey
	JWT       JWTConfig       `yaml:"jwt"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
}

// APIKeyConfig describes a single API key entry.
type APIKeyConfig struct {
	Key         string `yaml:"key" json:"key"`
	KeyFile     string `yaml:"key_file" json:"key_file"` // _file variant for key
	Subject     string `yaml:"subject" json:"subject"`
	TenantID    string `yaml:"tenant_id" json:"tenant_id"`
	ServiceTier string `yaml:"service_tier" json:"service_tier"`
}

// JWTConfig configures bearer token validation with static keys.
// Either Secret (HMAC) or PublicKeyFile (RSA PEM) must be set.
type JWTConfig struct {
	Secret        string `yaml:"secret"`
	SecretFile    string `yaml:"secret_file"` // _file variant for secret
	PublicKeyFile string `yaml:"public_key_file"`
	Issuer        string `yaml:"issuer"`
	Audience      string `yaml:"audience"`
	UserClaim     string `yaml:"user_claim"`   // default: "sub"
	TenantClaim   string `yaml:"tenant_claim"` // default: "tenant_id"
	ScopesClaim   string `yaml:"scopes_claim"` // default: "scope"
}

// RateLimitConfig limits requests per subject and minute. Zero disables.
type RateLimitConfig struct {
	DefaultRPM int            `yaml:"default_rpm"`
	Tiers      map[string]int `yaml:"tiers"` // service tier -> requests per minute
}

// MCPConfig holds settings for the MCP tool endpoint.
type MCPConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"` // default: "/mcp"
}

// ObservabilityConfig holds monitoring and instrumentation settings.
type ObservabilityConfig struct {
	Metrics MetricsConfig `yaml:"metrics"`
}

// MetricsConfig holds Prometheus metrics endpoint settings.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"` // default: true
	Path    string `yaml:"path"`    // default: "/metrics"
}

// LoggingConfig holds log level, format and debug categories.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // default: "INFO"
	Format string `yaml:"format"` // "text" or "json", default: "text"
	Debug  string `yaml:"debug"`  // comma-separated categories
}

// Settings converts the logging section for pkg/debug.
func (l LoggingConfig) Settings() debug.Settings {
	return debug.Settings{Categories: l.Debug, Level: l.Level, Format: l.Format}
}

// Defaults returns a Config with all default values filled in.
func Defaults() Config {
	validation := api.DefaultValidationConfig()
	return Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     30 * time.Second,
			ShutdownTimeout: 30 * time.Second,
			MaxBodySize:     10 << 20,
		},
		Invoker: InvokerConfig{
			Type:      "argv",
			WaitDelay: 500 * time.Millisecond,
		},
		Node: NodeConfig{
			MaxItems:       validation.MaxItems,
			MaxPromptBytes: validation.MaxPromptBytes,
			MaxTurns:       validation.MaxTurns,
			MaxTimeout:     validation.MaxTimeout,
		},
		Storage: StorageConfig{
			Type:    "memory",
			MaxSize: 10000,
			Postgres: PostgresConfig{
				MaxConns: 25,
			},
		},
		Auth: AuthConfig{
			Type:   "none",
			Header: "Authorization",
		},
		MCP: MCPConfig{
			Path: "/mcp",
		},
		Observability: ObservabilityConfig{
			Metrics: MetricsConfig{
				Enabled: true,
				Path:    "/metrics",
			},
		},
		Logging: LoggingConfig{
			Level:  "INFO",
			Format: "text",
		},
	}
}
