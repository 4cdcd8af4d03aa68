package invoker

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/rhuss/claudenode/pkg/api"
)

// CLIPathEnv names the environment variable that points at the claude executable.
const CLIPathEnv = "CLAUDE_CODE_CLI_PATH"

// ErrCLINotFound is wrapped by the LaunchError returned when no claude
// executable can be located.
var ErrCLINotFound = errors.New("claude executable not found; install with: npm install -g @anthropic-ai/claude-code")

// FindCLI locates the claude executable. The search order is the configured
// path, CLAUDE_CODE_CLI_PATH, PATH, then common npm and yarn install
// locations. Failures are reported as *api.LaunchError.
func FindCLI(configured string) (string, error) {
	if configured != "" {
		return checkExecutable(configured)
	}

	if path := os.Getenv(CLIPathEnv); path != "" {
		return checkExecutable(path)
	}

	if path, err := exec.LookPath("claude"); err == nil {
		return path, nil
	}

	for _, path := range fallbackLocations() {
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path, nil
		}
	}

	return "", &api.LaunchError{Path: "claude", Err: ErrCLINotFound}
}

func fallbackLocations() []string {
	home, _ := os.UserHomeDir()
	return []string{
		filepath.Join(home, ".npm-global", "bin", "claude"),
		"/usr/local/bin/claude",
		filepath.Join(home, ".local", "bin", "claude"),
		filepath.Join(home, "node_modules", ".bin", "claude"),
		filepath.Join(home, ".yarn", "bin", "claude"),
	}
}

// checkExecutable resolves path via PATH when it has no separator and
// verifies that it exists.
func checkExecutable(path string) (string, error) {
	resolved, err := exec.LookPath(path)
	if err != nil {
		return "", &api.LaunchError{Path: path, Err: fmt.Errorf("not executable: %w", err)}
	}
	return resolved, nil
}
