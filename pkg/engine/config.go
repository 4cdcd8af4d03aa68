package engine

import "github.com/rhuss/claudenode/pkg/api"

// Config holds configuration for the runner.
type Config struct {
	// Defaults are node parameters applied when a request omits them.
	Defaults map[string]any

	// ContinueOnFail is used when a request does not set continueOnFail.
	ContinueOnFail bool

	// Validation bounds request envelopes and resolved item options.
	Validation api.ValidationConfig
}

// parameters merges request parameters over the defaults. The result is a
// new map; neither input is modified.
func (c Config) parameters(req map[string]any) map[string]any {
	out := make(map[string]any, len(c.Defaults)+len(req))
	for k, v := range c.Defaults {
		out[k] = v
	}
	for k, v := range req {
		if v != nil {
			out[k] = v
		}
	}
	return out
}
