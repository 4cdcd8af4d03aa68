package apikey

import (
	"context"
	"net/http"
	"testing"

	"github.com/rhuss/claudenode/pkg/auth"
)

func testEntries() []RawKeyEntry {
	return []RawKeyEntry{
		{
			Key: "sk-test-key-1",
			Identity: auth.Identity{
				Subject: "alice",
				Tier:    "standard",
				Tenant:  "org-1",
			},
		},
		{
			Key:      "sk-test-key-2",
			Identity: auth.Identity{Subject: "bob", Tier: "premium"},
		},
	}
}

func request(header, value string) *http.Request {
	r, _ := http.NewRequest("GET", "/", nil)
	if value != "" {
		r.Header.Set(header, value)
	}
	return r
}

func TestValidKey(t *testing.T) {
	a := New("", testEntries())
	result := a.Authenticate(context.Background(), request("Authorization", "Bearer sk-test-key-1"))

	if result.Decision != auth.Yes {
		t.Fatalf("Decision = %d, want Yes", result.Decision)
	}
	if result.Identity.Subject != "alice" {
		t.Errorf("Subject = %q, want %q", result.Identity.Subject, "alice")
	}
	if result.Identity.Tier != "standard" {
		t.Errorf("Tier = %q, want %q", result.Identity.Tier, "standard")
	}
	if result.Identity.TenantID() != "org-1" {
		t.Errorf("TenantID = %q, want %q", result.Identity.TenantID(), "org-1")
	}
}

func TestDecisions(t *testing.T) {
	tests := []struct {
		name   string
		header string // authenticator header
		sent   string // request header
		value  string
		want   auth.Decision
	}{
		{"second key", "", "Authorization", "Bearer sk-test-key-2", auth.Yes},
		{"unknown key", "", "Authorization", "Bearer sk-nope", auth.No},
		{"empty bearer", "", "Authorization", "Bearer ", auth.No},
		{"no header", "", "Authorization", "", auth.Abstain},
		{"basic scheme", "", "Authorization", "Basic dXNlcjpwYXNz", auth.Abstain},
		{"custom header raw key", "X-API-Key", "X-API-Key", "sk-test-key-1", auth.Yes},
		{"custom header unknown", "X-API-Key", "X-API-Key", "sk-nope", auth.No},
		{"custom header missing", "X-API-Key", "Authorization", "Bearer sk-test-key-1", auth.Abstain},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := New(tt.header, testEntries())
			got := a.Authenticate(context.Background(), request(tt.sent, tt.value))
			if got.Decision != tt.want {
				t.Errorf("Decision = %d, want %d", got.Decision, tt.want)
			}
			if got.Decision == auth.No && got.Err == nil {
				t.Error("No decision without an error")
			}
		})
	}
}

func TestIdentityIsCopied(t *testing.T) {
	a := New("", testEntries())
	r := request("Authorization", "Bearer sk-test-key-2")

	first := a.Authenticate(context.Background(), r)
	first.Identity.Subject = "mallory"

	second := a.Authenticate(context.Background(), r)
	if second.Identity.Subject != "bob" {
		t.Errorf("stored identity was mutated: %q", second.Identity.Subject)
	}
}
