package storage

import "github.com/rhuss/claudenode/pkg/api"

// Clone returns a copy of exec that shares no mutable top-level state
// with the original. Item payloads are shared; stores never modify them.
func Clone(exec *api.Execution) *api.Execution {
	if exec == nil {
		return nil
	}
	c := *exec
	if exec.Parameters != nil {
		c.Parameters = make(map[string]any, len(exec.Parameters))
		for k, v := range exec.Parameters {
			c.Parameters[k] = v
		}
	}
	if exec.Output != nil {
		c.Output = make([][]api.Item, len(exec.Output))
		for i, branch := range exec.Output {
			c.Output[i] = append([]api.Item(nil), branch...)
		}
	}
	if exec.Error != nil {
		e := *exec.Error
		c.Error = &e
	}
	if exec.CompletedAt != nil {
		t := *exec.CompletedAt
		c.CompletedAt = &t
	}
	return &c
}
