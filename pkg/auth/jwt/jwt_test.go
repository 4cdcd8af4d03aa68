package jwt

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"

	"github.com/rhuss/claudenode/pkg/auth"
)

var testKeyPair *rsa.PrivateKey

func init() {
	var err error
	testKeyPair, err = rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		panic(fmt.Sprintf("generating test RSA key: %v", err))
	}
}

var testSecret = []byte("test-secret-with-enough-entropy-0123456789")

func signHS(t *testing.T, claims jwtlib.MapClaims) string {
	t.Helper()
	s, err := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims).SignedString(testSecret)
	if err != nil {
		t.Fatalf("signing token: %v", err)
	}
	return s
}

func signRS(t *testing.T, claims jwtlib.MapClaims) string {
	t.Helper()
	s, err := jwtlib.NewWithClaims(jwtlib.SigningMethodRS256, claims).SignedString(testKeyPair)
	if err != nil {
		t.Fatalf("signing token: %v", err)
	}
	return s
}

func validClaims() jwtlib.MapClaims {
	return jwtlib.MapClaims{
		"sub":       "alice",
		"iss":       "https://issuer.example",
		"aud":       "claudenode",
		"tenant_id": "org-1",
		"scope":     "executions:write executions:read",
		"tier":      "premium",
		"exp":       time.Now().Add(time.Hour).Unix(),
	}
}

func bearer(token string) *http.Request {
	r, _ := http.NewRequest("POST", "/v1/executions", nil)
	r.Header.Set("Authorization", "Bearer "+token)
	return r
}

func mustNew(t *testing.T, cfg Config) *Authenticator {
	t.Helper()
	a, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return a
}

func TestNewRequiresExactlyOneKey(t *testing.T) {
	if _, err := New(Config{}); err == nil {
		t.Error("expected error without keys")
	}
	if _, err := New(Config{Secret: testSecret, PublicKey: &testKeyPair.PublicKey}); err == nil {
		t.Error("expected error with both keys")
	}
}

func TestHMACTokenAccepted(t *testing.T) {
	a := mustNew(t, Config{Secret: testSecret, Issuer: "https://issuer.example", Audience: "claudenode"})

	result := a.Authenticate(context.Background(), bearer(signHS(t, validClaims())))
	if result.Decision != auth.Yes {
		t.Fatalf("Decision = %d, want Yes (err %v)", result.Decision, result.Err)
	}
	id := result.Identity
	if id.Subject != "alice" {
		t.Errorf("Subject = %q", id.Subject)
	}
	if id.TenantID() != "org-1" {
		t.Errorf("TenantID = %q", id.TenantID())
	}
	if id.Tier != "premium" {
		t.Errorf("Tier = %q", id.Tier)
	}
	if len(id.Scopes) != 2 || id.Scopes[0] != "executions:write" {
		t.Errorf("Scopes = %v", id.Scopes)
	}
}

func TestRSATokenAccepted(t *testing.T) {
	a := mustNew(t, Config{PublicKey: &testKeyPair.PublicKey})

	claims := validClaims()
	claims["scope"] = []any{"a", "b", 3}
	delete(claims, "tier")

	result := a.Authenticate(context.Background(), bearer(signRS(t, claims)))
	if result.Decision != auth.Yes {
		t.Fatalf("Decision = %d, want Yes (err %v)", result.Decision, result.Err)
	}
	if got := result.Identity.Scopes; len(got) != 2 || got[1] != "b" {
		t.Errorf("Scopes = %v", got)
	}
	if result.Identity.Tier != "default" {
		t.Errorf("Tier = %q, want default", result.Identity.Tier)
	}
}

func TestRejectedTokens(t *testing.T) {
	other, _ := rsa.GenerateKey(rand.Reader, 2048)

	tests := []struct {
		name  string
		cfg   Config
		token func(t *testing.T) string
	}{
		{"expired", Config{Secret: testSecret}, func(t *testing.T) string {
			c := validClaims()
			c["exp"] = time.Now().Add(-time.Minute).Unix()
			return signHS(t, c)
		}},
		{"wrong secret", Config{Secret: []byte("another-secret-another-secret-0000")}, func(t *testing.T) string {
			return signHS(t, validClaims())
		}},
		{"wrong issuer", Config{Secret: testSecret, Issuer: "https://elsewhere"}, func(t *testing.T) string {
			return signHS(t, validClaims())
		}},
		{"wrong audience", Config{Secret: testSecret, Audience: "someone-else"}, func(t *testing.T) string {
			return signHS(t, validClaims())
		}},
		{"missing subject", Config{Secret: testSecret}, func(t *testing.T) string {
			c := validClaims()
			delete(c, "sub")
			return signHS(t, c)
		}},
		{"hmac token for rsa config", Config{PublicKey: &testKeyPair.PublicKey}, func(t *testing.T) string {
			return signHS(t, validClaims())
		}},
		{"rsa token for hmac config", Config{Secret: testSecret}, func(t *testing.T) string {
			return signRS(t, validClaims())
		}},
		{"foreign rsa key", Config{PublicKey: &other.PublicKey}, func(t *testing.T) string {
			return signRS(t, validClaims())
		}},
		{"garbage", Config{Secret: testSecret}, func(t *testing.T) string { return "not.a.jwt" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := mustNew(t, tt.cfg)
			result := a.Authenticate(context.Background(), bearer(tt.token(t)))
			if result.Decision != auth.No {
				t.Errorf("Decision = %d, want No", result.Decision)
			}
			if result.Err == nil {
				t.Error("expected an error")
			}
		})
	}
}

func TestAbstainWithoutBearer(t *testing.T) {
	a := mustNew(t, Config{Secret: testSecret})

	r, _ := http.NewRequest("GET", "/", nil)
	if got := a.Authenticate(context.Background(), r).Decision; got != auth.Abstain {
		t.Errorf("no header: Decision = %d, want Abstain", got)
	}
	r.Header.Set("Authorization", "Basic dXNlcjpwYXNz")
	if got := a.Authenticate(context.Background(), r).Decision; got != auth.Abstain {
		t.Errorf("basic: Decision = %d, want Abstain", got)
	}
}

func TestCustomClaims(t *testing.T) {
	a := mustNew(t, Config{Secret: testSecret, UserClaim: "email", TenantClaim: "org", TierClaim: "plan"})

	token := signHS(t, jwtlib.MapClaims{
		"email": "bob@example.com",
		"org":   "acme",
		"plan":  "gold",
		"exp":   time.Now().Add(time.Hour).Unix(),
	})
	result := a.Authenticate(context.Background(), bearer(token))
	if result.Decision != auth.Yes {
		t.Fatalf("Decision = %d (err %v)", result.Decision, result.Err)
	}
	if result.Identity.Subject != "bob@example.com" || result.Identity.TenantID() != "acme" || result.Identity.Tier != "gold" {
		t.Errorf("identity = %+v", result.Identity)
	}
}

func TestLoadPublicKey(t *testing.T) {
	der, err := x509.MarshalPKIXPublicKey(&testKeyPair.PublicKey)
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(t.TempDir(), "key.pem")
	if err := os.WriteFile(path, pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der}), 0o600); err != nil {
		t.Fatal(err)
	}

	key, err := LoadPublicKey(path)
	if err != nil {
		t.Fatalf("LoadPublicKey: %v", err)
	}
	if key.N.Cmp(testKeyPair.PublicKey.N) != 0 {
		t.Error("loaded key does not match")
	}

	bad := filepath.Join(t.TempDir(), "bad.pem")
	os.WriteFile(bad, []byte("nope"), 0o600)
	if _, err := LoadPublicKey(bad); err == nil {
		t.Error("expected error for malformed PEM")
	}
	if _, err := LoadPublicKey(filepath.Join(t.TempDir(), "missing.pem")); err == nil {
		t.Error("expected error for missing file")
	}
}
