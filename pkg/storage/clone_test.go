package storage

import (
	"testing"

	"github.com/rhuss/claudenode/pkg/api"
)

func TestCloneIsIndependent(t *testing.T) {
	done := int64(20)
	orig := &api.Execution{
		ID:          "exec_abcdefghijklmnopqrstuvwx",
		Status:      api.ExecutionStatusFailed,
		Parameters:  map[string]any{"model": "opus"},
		Output:      [][]api.Item{{{JSON: api.JSON{"result": "a"}}}},
		Error:       api.NewServerError("boom"),
		CompletedAt: &done,
	}

	c := Clone(orig)
	c.Parameters["model"] = "sonnet"
	c.Output[0][0] = api.Item{JSON: api.JSON{"result": "b"}}
	c.Error.Message = "changed"
	*c.CompletedAt = 99

	if orig.Parameters["model"] != "opus" {
		t.Error("parameters shared with clone")
	}
	if orig.Output[0][0].JSON["result"] != "a" {
		t.Error("output shared with clone")
	}
	if orig.Error.Message != "boom" {
		t.Error("error shared with clone")
	}
	if *orig.CompletedAt != 20 {
		t.Error("completed_at shared with clone")
	}
}

func TestCloneNil(t *testing.T) {
	if Clone(nil) != nil {
		t.Error("Clone(nil) should be nil")
	}
}
