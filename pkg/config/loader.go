package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/rhuss/claudenode/pkg/debug"
)

// EnvConfigPath names the environment variable holding the config file path.
const EnvConfigPath = "CLAUDENODE_CONFIG"

// Load loads configuration from a layered set of sources.
//
// The loading order is:
//  1. Built-in defaults
//  2. YAML config file (explicit path, CLAUDENODE_CONFIG env, ./config.yaml, /etc/claudenode/config.yaml)
//  3. Environment variable overrides
//  4. File reference resolution (_file suffix)
//  5. Validation
func Load(configPath string) (*Config, error) {
	cfg := Defaults()

	filePath := DiscoverConfigFile(configPath)
	if filePath != "" {
		if err := loadYAMLFile(filePath, &cfg); err != nil {
			return nil, fmt.Errorf("loading config file %s: %w", filePath, err)
		}
		debug.Log("config", "loaded config file", "path", filePath)
	}

	if err := applyEnvOverrides(&cfg); err != nil {
		return nil, fmt.Errorf("applying environment: %w", err)
	}

	if err := resolveFileReferences(&cfg); err != nil {
		return nil, fmt.Errorf("resolving file references: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return &cfg, nil
}

// DiscoverConfigFile finds the config file path using the discovery order:
// 1. Explicit configPath argument
// 2. CLAUDENODE_CONFIG environment variable
// 3. ./config.yaml in the current directory
// 4. /etc/claudenode/config.yaml
//
// Returns empty string if no config file is found.
func DiscoverConfigFile(configPath string) string {
	if configPath != "" {
		return configPath
	}

	if envPath := os.Getenv(EnvConfigPath); envPath != "" {
		return envPath
	}

	candidates := []string{
		"config.yaml",
		"/etc/claudenode/config.yaml",
	}
	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// loadYAMLFile reads and parses a YAML file into the Config struct.
// Fields not present in the YAML retain their current (default) values.
func loadYAMLFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// applyEnvOverrides maps CLAUDENODE_* environment variables onto config
// fields. Malformed numeric or JSON values are reported rather than ignored.
func applyEnvOverrides(cfg *Config) error {
	if v := os.Getenv("CLAUDENODE_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("CLAUDENODE_PORT: %w", err)
		}
		cfg.Server.Port = port
	}
	if v := os.Getenv("CLAUDENODE_MAX_CONCURRENT"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("CLAUDENODE_MAX_CONCURRENT: %w", err)
		}
		cfg.Server.MaxConcurrentExecutions = n
	}

	if v := os.Getenv("CLAUDENODE_INVOKER"); v != "" {
		cfg.Invoker.Type = v
	}
	if v := os.Getenv("CLAUDENODE_CLI_PATH"); v != "" {
		cfg.Invoker.CLIPath = v
	}
	if v := os.Getenv("CLAUDENODE_BUNDLED_COMMAND"); v != "" {
		cfg.Invoker.BundledCommand = strings.Fields(v)
	}
	if v := os.Getenv("CLAUDENODE_WORK_DIR"); v != "" {
		cfg.Invoker.WorkDir = v
	}

	if v := os.Getenv("CLAUDENODE_MODEL"); v != "" {
		cfg.Node.Defaults.Model = v
	}
	if v := os.Getenv("CLAUDENODE_CONTINUE_ON_FAIL"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("CLAUDENODE_CONTINUE_ON_FAIL: %w", err)
		}
		cfg.Node.ContinueOnFail = b
	}

	if v := os.Getenv("CLAUDENODE_STORAGE"); v != "" {
		cfg.Storage.Type = v
	}
	if v := os.Getenv("CLAUDENODE_STORAGE_SIZE"); v != "" {
		size, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("CLAUDENODE_STORAGE_SIZE: %w", err)
		}
		cfg.Storage.MaxSize = size
	}
	if v := os.Getenv("CLAUDENODE_POSTGRES_DSN"); v != "" {
		cfg.Storage.Postgres.DSN = v
	}

	if v := os.Getenv("CLAUDENODE_AUTH_TYPE"); v != "" {
		cfg.Auth.Type = v
	}
	if v := os.Getenv("CLAUDENODE_JWT_SECRET"); v != "" {
		cfg.Auth.JWT.Secret = v
	}

	// CLAUDENODE_API_KEYS: JSON array of API key configs.
	if v := os.Getenv("CLAUDENODE_API_KEYS"); v != "" {
		keys, err := parseAPIKeysJSON(v)
		if err != nil {
			return err
		}
		cfg.Auth.APIKeys = keys
	}

	if v := os.Getenv("CLAUDENODE_MCP_ENABLED"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("CLAUDENODE_MCP_ENABLED: %w", err)
		}
		cfg.MCP.Enabled = b
	}

	if v := os.Getenv("CLAUDENODE_LOG_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}

	return nil
}

// parseAPIKeysJSON parses a JSON array of API key configurations.
func parseAPIKeysJSON(jsonStr string) ([]APIKeyConfig, error) {
	var keys []APIKeyConfig
	if err := json.Unmarshal([]byte(jsonStr), &keys); err != nil {
		return nil, fmt.Errorf("parsing CLAUDENODE_API_KEYS: %w", err)
	}
	return keys, nil
}

// resolveFileReferences reads _file fields and populates the corresponding value fields.
// For each field ending in _file, if the value field is empty and the file field is set,
// the file is read, whitespace is trimmed, and the value field is populated.
func resolveFileReferences(cfg *Config) error {
	// storage.postgres.dsn_file -> storage.postgres.dsn
	if cfg.Storage.Postgres.DSNFile != "" && cfg.Storage.Postgres.DSN == "" {
		val, err := readSecretFile(cfg.Storage.Postgres.DSNFile)
		if err != nil {
			return fmt.Errorf("storage.postgres.dsn_file: %w", err)
		}
		cfg.Storage.Postgres.DSN = val
	}

	// auth.jwt.secret_file -> auth.jwt.secret
	if cfg.Auth.JWT.SecretFile != "" && cfg.Auth.JWT.Secret == "" {
		val, err := readSecretFile(cfg.Auth.JWT.SecretFile)
		if err != nil {
			return fmt.Errorf("auth.jwt.secret_file: %w", err)
		}
		cfg.Auth.JWT.Secret = val
	}

	// auth.api_keys[*].key_file -> auth.api_keys[*].key
	for i := range cfg.Auth.APIKeys {
		if cfg.Auth.APIKeys[i].KeyFile != "" && cfg.Auth.APIKeys[i].Key == "" {
			val, err := readSecretFile(cfg.Auth.APIKeys[i].KeyFile)
			if err != nil {
				return fmt.Errorf("auth.api_keys[%d].key_file: %w", i, err)
			}
			cfg.Auth.APIKeys[i].Key = val
		}
	}

	return nil
}

// readSecretFile reads a file and returns its content with surrounding whitespace trimmed.
func readSecretFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}
