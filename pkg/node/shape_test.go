package node

import (
	"errors"
	"reflect"
	"testing"

	"github.com/rhuss/claudenode/pkg/api"
)

func TestShapeMessagesAlwaysArray(t *testing.T) {
	res := &api.InvocationResult{Text: "x", DurationMs: 3}
	opts := api.InvocationOptions{Prompt: "p", Model: api.ModelSonnet, MaxTurns: 1}

	for _, f := range []api.OutputFormat{api.OutputFormatMessages, api.OutputFormatFull} {
		rec := Shape(f, res, opts)
		msgs, ok := rec["messages"].([]api.Message)
		if !ok || msgs == nil || len(msgs) != 0 {
			t.Errorf("%s: messages = %#v, want empty array", f, rec["messages"])
		}
	}
}

func TestShapeFullIsSuperset(t *testing.T) {
	res := &api.InvocationResult{Text: "x", Messages: []api.Message{{"type": "result"}}, DurationMs: 3}
	opts := api.InvocationOptions{Prompt: "p", Model: api.ModelOpus, MaxTurns: 2}

	full := Shape(api.OutputFormatFull, res, opts)
	for _, f := range []api.OutputFormat{api.OutputFormatText, api.OutputFormatMessages} {
		for k, v := range Shape(f, res, opts) {
			if !reflect.DeepEqual(full[k], v) {
				t.Errorf("full[%q] = %v, %s has %v", k, full[k], f, v)
			}
		}
	}
}

func TestErrorRecord(t *testing.T) {
	got := ErrorRecord(errors.New("boom"), "hello")
	want := api.JSON{"error": "boom", "prompt": "hello"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ErrorRecord() = %v, want %v", got, want)
	}
}

func TestNodeDescription(t *testing.T) {
	d := NodeDescription()
	if d.Name != "claudeCode" || d.DisplayName != "Claude Code" {
		t.Errorf("identity = %s/%s", d.Name, d.DisplayName)
	}

	defaults := map[string]any{}
	for _, p := range d.Properties {
		defaults[p.Name] = p.Default
	}
	want := map[string]any{
		"operation":    "query",
		"prompt":       "",
		"model":        "sonnet",
		"maxTurns":     1,
		"timeout":      60.0,
		"outputFormat": "text",
	}
	for name, w := range want {
		got, ok := defaults[name]
		if !ok {
			t.Errorf("property %q missing", name)
			continue
		}
		if !reflect.DeepEqual(got, w) {
			t.Errorf("default of %q = %#v, want %#v", name, got, w)
		}
	}
}
