package fakecli

import (
	"bufio"
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestMainPrintMode(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := Main([]string{"-p", "hello", "--output-format", "text", "--max-turns", "2", "--model", "opus"},
		strings.NewReader(""), &stdout, &stderr)
	if code != 0 {
		t.Fatalf("exit = %d, stderr = %q", code, stderr.String())
	}
	if got := stdout.String(); got != "echo: hello\n" {
		t.Errorf("stdout = %q", got)
	}
}

func TestMainStdinMode(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := Main([]string{"--model", "sonnet", "--max-turns", "1"}, strings.NewReader("from stdin\n"), &stdout, &stderr)
	if code != 0 {
		t.Fatalf("exit = %d, stderr = %q", code, stderr.String())
	}
	if got := stdout.String(); got != "echo: from stdin\n" {
		t.Errorf("stdout = %q", got)
	}
}

func TestMainFailDirective(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := Main([]string{"-p", "x [fail:3]"}, strings.NewReader(""), &stdout, &stderr)
	if code != 3 {
		t.Errorf("exit = %d, want 3", code)
	}
	if strings.TrimSpace(stderr.String()) != "bad flag" {
		t.Errorf("stderr = %q", stderr.String())
	}
}

func TestMainRejectsUnknownFlag(t *testing.T) {
	var stdout, stderr bytes.Buffer
	if code := Main([]string{"--bogus"}, strings.NewReader(""), &stdout, &stderr); code != 2 {
		t.Errorf("exit = %d, want 2", code)
	}
}

func TestMainStreamJSON(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := Main([]string{"-p", "--output-format", "stream-json", "--verbose", "hi there"},
		strings.NewReader(""), &stdout, &stderr)
	if code != 0 {
		t.Fatalf("exit = %d, stderr = %q", code, stderr.String())
	}

	var types []string
	var text strings.Builder
	sc := bufio.NewScanner(&stdout)
	for sc.Scan() {
		var rec map[string]any
		if err := json.Unmarshal(sc.Bytes(), &rec); err != nil {
			t.Fatalf("line %q is not JSON: %v", sc.Text(), err)
		}
		types = append(types, rec["type"].(string))
		if rec["type"] == "assistant" {
			msg := rec["message"].(map[string]any)
			for _, block := range msg["content"].([]any) {
				text.WriteString(block.(map[string]any)["text"].(string))
			}
		}
	}
	if strings.Join(types, ",") != "system,assistant,assistant,result" {
		t.Errorf("record types = %v", types)
	}
	if text.String() != "echo: hi there" {
		t.Errorf("assistant text = %q", text.String())
	}
}

func TestMainStreamJSONRequiresVerbose(t *testing.T) {
	var stdout, stderr bytes.Buffer
	if code := Main([]string{"-p", "--output-format", "stream-json", "hi"}, strings.NewReader(""), &stdout, &stderr); code != 1 {
		t.Errorf("exit = %d, want 1", code)
	}
}
