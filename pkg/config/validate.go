package config

import (
	"errors"
	"fmt"

	"github.com/rhuss/claudenode/pkg/api"
)

// Validate checks the configuration for required fields and valid values.
// All problems are reported together, each with its field path.
func (c *Config) Validate() error {
	var errs []error

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port))
	}
	if c.Server.MaxBodySize < 0 {
		errs = append(errs, fmt.Errorf("server.max_body_size must be >= 0, got %d", c.Server.MaxBodySize))
	}
	if c.Server.MaxConcurrentExecutions < 0 {
		errs = append(errs, fmt.Errorf("server.max_concurrent_executions must be >= 0, got %d", c.Server.MaxConcurrentExecutions))
	}

	switch c.Invoker.Type {
	case "stream", "argv", "stdin", "stub":
	default:
		errs = append(errs, fmt.Errorf("invoker.type must be \"stream\", \"argv\", \"stdin\" or \"stub\", got %q", c.Invoker.Type))
	}
	if c.Invoker.WaitDelay < 0 {
		errs = append(errs, fmt.Errorf("invoker.wait_delay must be >= 0, got %s", c.Invoker.WaitDelay))
	}
	if c.Invoker.Stub.Delay < 0 {
		errs = append(errs, fmt.Errorf("invoker.stub.delay must be >= 0, got %s", c.Invoker.Stub.Delay))
	}

	errs = append(errs, c.Node.validate()...)

	switch c.Storage.Type {
	case "memory", "postgres":
	default:
		errs = append(errs, fmt.Errorf("storage.type must be \"memory\" or \"postgres\", got %q", c.Storage.Type))
	}
	if c.Storage.Type == "postgres" && c.Storage.Postgres.DSN == "" && c.Storage.Postgres.DSNFile == "" {
		errs = append(errs, fmt.Errorf("storage.postgres.dsn or storage.postgres.dsn_file is required when storage.type is \"postgres\""))
	}

	switch c.Auth.Type {
	case "none":
	case "apikey":
		if len(c.Auth.APIKeys) == 0 {
			errs = append(errs, fmt.Errorf("auth.api_keys must not be empty when auth.type is \"apikey\""))
		}
		for i, k := range c.Auth.APIKeys {
			if k.Key == "" && k.KeyFile == "" {
				errs = append(errs, fmt.Errorf("auth.api_keys[%d]: key or key_file is required", i))
			}
			if k.Subject == "" {
				errs = append(errs, fmt.Errorf("auth.api_keys[%d].subject is required", i))
			}
		}
	case "jwt":
		if c.Auth.JWT.Secret == "" && c.Auth.JWT.SecretFile == "" && c.Auth.JWT.PublicKeyFile == "" {
			errs = append(errs, fmt.Errorf("auth.jwt.secret, auth.jwt.secret_file or auth.jwt.public_key_file is required when auth.type is \"jwt\""))
		}
	default:
		errs = append(errs, fmt.Errorf("auth.type must be \"none\", \"apikey\", or \"jwt\", got %q", c.Auth.Type))
	}

	switch c.Logging.Format {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("logging.format must be \"text\" or \"json\", got %q", c.Logging.Format))
	}

	return errors.Join(errs...)
}

func (n NodeConfig) validate() []error {
	var errs []error

	d := n.Defaults
	switch api.Model(d.Model) {
	case "", api.ModelSonnet, api.ModelOpus:
	default:
		errs = append(errs, fmt.Errorf("node.defaults.model must be \"sonnet\" or \"opus\", got %q", d.Model))
	}
	switch api.OutputFormat(d.OutputFormat) {
	case "", api.OutputFormatText, api.OutputFormatMessages, api.OutputFormatFull:
	default:
		errs = append(errs, fmt.Errorf("node.defaults.output_format must be \"text\", \"messages\" or \"full\", got %q", d.OutputFormat))
	}
	if d.MaxTurns < 0 {
		errs = append(errs, fmt.Errorf("node.defaults.max_turns must be >= 0, got %d", d.MaxTurns))
	}
	if d.Timeout < 0 {
		errs = append(errs, fmt.Errorf("node.defaults.timeout must be >= 0, got %g", d.Timeout))
	}
	if n.MaxTurns > 0 && d.MaxTurns > n.MaxTurns {
		errs = append(errs, fmt.Errorf("node.defaults.max_turns %d exceeds node.max_turns %d", d.MaxTurns, n.MaxTurns))
	}
	if n.MaxTimeout > 0 && d.Timeout > n.MaxTimeout {
		errs = append(errs, fmt.Errorf("node.defaults.timeout %g exceeds node.max_timeout %g", d.Timeout, n.MaxTimeout))
	}
	if n.MaxItems < 0 {
		errs = append(errs, fmt.Errorf("node.max_items must be >= 0, got %d", n.MaxItems))
	}

	return errs
}
