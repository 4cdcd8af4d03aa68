// Package debug provides category-based debug logging for claudenode.
//
// Two orthogonal controls:
//   - Categories (WHAT to debug): controlled via CLAUDENODE_DEBUG env or config
//   - Levels (HOW MUCH detail): controlled via CLAUDENODE_LOG_LEVEL env or config
//
// Usage:
//
//	debug.Log("process", "spawned", "path", path, "pid", pid)
//	if debug.Enabled("invoker") { /* expensive formatting */ }
//
// Categories: invoker, process, node, http, storage, auth, mcp, config, all.
// Levels: ERROR, WARN, INFO, DEBUG, TRACE.
//
// Settings may be re-applied at runtime (config reload). Categories and the
// level are swapped atomically; the handler format is fixed by the first Init.
package debug

import (
	"context"
	"io"
	"log/slog"
	"os"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
)

// LevelTrace is below slog.LevelDebug for maximum verbosity.
// At TRACE, full prompts and raw stream lines are logged.
const LevelTrace = slog.LevelDebug - 4

// Settings carries the logging configuration.
type Settings struct {
	Categories string
	Level      string
	Format     string // "text" or "json"
}

var (
	categories atomic.Pointer[map[string]bool]
	level      slog.LevelVar
	initOnce   sync.Once
)

func init() {
	// Environment is honored before Init runs so package tests can use it.
	cats := parseCategories(os.Getenv("CLAUDENODE_DEBUG"))
	categories.Store(&cats)
}

// Init configures the debug system. The first call installs the default
// slog handler writing to stderr; later calls only update categories and
// level. Environment overrides config.
func Init(s Settings) {
	initOnce.Do(func() {
		slog.SetDefault(slog.New(NewHandler(os.Stderr, s.Format)))
	})
	Apply(s)
}

// Apply updates categories and level without replacing the handler.
func Apply(s Settings) {
	cats := os.Getenv("CLAUDENODE_DEBUG")
	if cats == "" {
		cats = s.Categories
	}
	parsed := parseCategories(cats)
	categories.Store(&parsed)

	lvl := os.Getenv("CLAUDENODE_LOG_LEVEL")
	if lvl == "" {
		lvl = s.Level
	}
	level.Set(ParseLevel(lvl))
}

// NewHandler builds a slog handler bound to the shared level.
func NewHandler(w io.Writer, format string) slog.Handler {
	opts := &slog.HandlerOptions{Level: &level}
	if strings.EqualFold(format, "json") {
		return slog.NewJSONHandler(w, opts)
	}
	return slog.NewTextHandler(w, opts)
}

// Enabled reports whether debug output is active for the given category.
func Enabled(category string) bool {
	m := *categories.Load()
	return m["all"] || m[category]
}

// Log emits a debug message for the given category.
// If the category is not enabled, this is a no-op.
func Log(category string, msg string, args ...any) {
	if !Enabled(category) {
		return
	}
	slog.Debug(msg, append([]any{"debug", category}, args...)...)
}

// Trace emits a trace-level message for the given category.
// Only visible when CLAUDENODE_LOG_LEVEL=TRACE.
func Trace(category string, msg string, args ...any) {
	if !TraceIsEnabled(category) {
		return
	}
	slog.Log(context.Background(), LevelTrace, msg, append([]any{"debug", category}, args...)...)
}

// TraceIsEnabled reports whether TRACE level is active for the given category.
func TraceIsEnabled(category string) bool {
	if !Enabled(category) {
		return false
	}
	return slog.Default().Enabled(context.Background(), LevelTrace)
}

// ParseLevel converts a level string to a slog.Level.
func ParseLevel(s string) slog.Level {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "TRACE":
		return LevelTrace
	case "DEBUG":
		return slog.LevelDebug
	case "INFO", "":
		return slog.LevelInfo
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Level returns the currently active level.
func Level() slog.Level {
	return level.Level()
}

// Categories returns the sorted list of enabled categories.
func Categories() []string {
	m := *categories.Load()
	result := make([]string, 0, len(m))
	for k := range m {
		result = append(result, k)
	}
	sort.Strings(result)
	return result
}

// Truncate returns s truncated to maxLen bytes, with "..." appended if truncated.
func Truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}

func parseCategories(s string) map[string]bool {
	m := make(map[string]bool)
	if s == "" {
		return m
	}
	for _, cat := range strings.Split(s, ",") {
		cat = strings.TrimSpace(strings.ToLower(cat))
		if cat != "" {
			m[cat] = true
		}
	}
	return m
}
