// Package apikey provides an API key authenticator that validates keys
// against a static store using SHA-256 hashing and constant-time
// comparison.
package apikey

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/rhuss/claudenode/pkg/auth"
)

// DefaultHeader carries keys as "Bearer <key>".
const DefaultHeader = "Authorization"

// KeyEntry maps a key hash to an identity.
type KeyEntry struct {
	KeyHash  [32]byte
	Identity auth.Identity
}

// RawKeyEntry is the configuration format for API keys.
type RawKeyEntry struct {
	Key      string
	Identity auth.Identity
}

// Authenticator validates API keys against a static key store.
type Authenticator struct {
	header string
	keys   []KeyEntry
}

// New creates an API key authenticator reading keys from header. With
// the Authorization header the key must use the Bearer scheme; any other
// header carries the raw key. Keys are hashed immediately; plaintext keys
// are not stored.
func New(header string, entries []RawKeyEntry) *Authenticator {
	if header == "" {
		header = DefaultHeader
	}
	a := &Authenticator{header: header}
	for _, e := range entries {
		a.keys = append(a.keys, KeyEntry{
			KeyHash:  sha256.Sum256([]byte(e.Key)),
			Identity: e.Identity,
		})
	}
	return a
}

// Authenticate extracts the key and validates it. Returns Abstain when
// the header is absent (or not a Bearer credential on Authorization), No
// when a key is present but unknown.
func (a *Authenticator) Authenticate(_ context.Context, r *http.Request) auth.Result {
	value := r.Header.Get(a.header)
	if value == "" {
		return auth.Result{Decision: auth.Abstain}
	}

	key := value
	if strings.EqualFold(a.header, DefaultHeader) {
		if !strings.HasPrefix(value, "Bearer ") {
			return auth.Result{Decision: auth.Abstain}
		}
		key = strings.TrimPrefix(value, "Bearer ")
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return auth.Result{Decision: auth.No, Err: auth.ErrUnauthenticated}
	}

	keyHash := sha256.Sum256([]byte(key))

	for _, entry := range a.keys {
		if subtle.ConstantTimeCompare(keyHash[:], entry.KeyHash[:]) == 1 {
			id := entry.Identity
			return auth.Result{Decision: auth.Yes, Identity: &id}
		}
	}

	return auth.Result{Decision: auth.No, Err: auth.ErrUnauthenticated}
}
