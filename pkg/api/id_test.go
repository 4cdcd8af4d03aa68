package api

import (
	"strings"
	"testing"
	"time"
)

func TestNewExecutionID(t *testing.T) {
	id := NewExecutionID()
	if !ValidateExecutionID(id) {
		t.Errorf("NewExecutionID() = %q, want valid execution ID", id)
	}
}

func TestValidateExecutionID(t *testing.T) {
	tests := []struct {
		name string
		id   string
		want bool
	}{
		{"valid", "exec_abcdefghijklmnopqrstuvwx", true},
		{"valid mixed case", "exec_AbCdEfGhIjKlMnOpQrStUvWx", true},
		{"valid digits", "exec_123456789012345678901234", true},
		{"wrong prefix", "run_abcdefghijklmnopqrstuvwxy", false},
		{"too short", "exec_abc", false},
		{"too long", "exec_abcdefghijklmnopqrstuvwxy", false},
		{"special chars", "exec_abcdefghijklmnopqrstuv!@", false},
		{"empty", "", false},
		{"prefix only", "exec_", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ValidateExecutionID(tt.id); got != tt.want {
				t.Errorf("ValidateExecutionID(%q) = %v, want %v", tt.id, got, tt.want)
			}
		})
	}
}

func TestIDUniqueness(t *testing.T) {
	const count = 1000
	seen := make(map[string]bool, count)

	for i := 0; i < count; i++ {
		id := NewExecutionID()
		if seen[id] {
			t.Fatalf("duplicate execution ID after %d generations: %s", i, id)
		}
		seen[id] = true
	}
}

func TestExecutionIDsSortByCreation(t *testing.T) {
	first := NewExecutionID()
	time.Sleep(2 * time.Millisecond)
	second := NewExecutionID()
	if first >= second {
		t.Errorf("later ID %q does not sort after %q", second, first)
	}
}

func TestEncodeBase62FixedWidth(t *testing.T) {
	if got := encodeBase62([]byte{0}); got != strings.Repeat("0", idDigits) {
		t.Errorf("encodeBase62(0) = %q", got)
	}
	if got := encodeBase62([]byte{61}); got != strings.Repeat("0", idDigits-1)+"z" {
		t.Errorf("encodeBase62(61) = %q", got)
	}
}
