package auth

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"slices"
)

// DefaultTier is the rate-limit tier of identities that do not name one.
const DefaultTier = "default"

// Decision is an authenticator's vote on a request.
type Decision int

const (
	// Yes accepts the request with the returned identity and ends the chain.
	Yes Decision = iota

	// No rejects the request and ends the chain.
	No

	// Abstain passes the request on to the next authenticator.
	Abstain
)

func (d Decision) String() string {
	switch d {
	case Yes:
		return "yes"
	case No:
		return "no"
	case Abstain:
		return "abstain"
	}
	return "unknown"
}

// Result is the outcome of one authentication attempt. Identity is set for
// Yes, Err for No.
type Result struct {
	Decision Decision
	Identity *Identity
	Err      error
}

// Identity is the caller an execution runs on behalf of.
type Identity struct {
	Subject string
	Tier    string
	Tenant  string // scopes stored executions when set
	Scopes  []string
}

// Anonymous is the identity admitted when every authenticator abstains and
// the chain defaults to Yes.
func Anonymous() *Identity {
	return &Identity{Subject: "anonymous", Tier: DefaultTier}
}

// TenantID returns the tenant, or "" for a nil identity.
func (id *Identity) TenantID() string {
	if id == nil {
		return ""
	}
	return id.Tenant
}

// RateTier returns the tier used for rate limiting.
func (id *Identity) RateTier() string {
	if id == nil || id.Tier == "" {
		return DefaultTier
	}
	return id.Tier
}

// HasScope reports whether the identity was granted scope.
func (id *Identity) HasScope(scope string) bool {
	return id != nil && slices.Contains(id.Scopes, scope)
}

// LogValue groups the identity for structured logs. Scopes are omitted.
func (id *Identity) LogValue() slog.Value {
	if id == nil {
		return slog.StringValue("none")
	}
	attrs := []slog.Attr{slog.String("subject", id.Subject), slog.String("tier", id.RateTier())}
	if id.Tenant != "" {
		attrs = append(attrs, slog.String("tenant", id.Tenant))
	}
	return slog.GroupValue(attrs...)
}

// Authenticator votes on the credentials of a request.
type Authenticator interface {
	Authenticate(ctx context.Context, r *http.Request) Result
}

var (
	ErrUnauthenticated = errors.New("authentication required")
	ErrTooManyRequests = errors.New("rate limit exceeded")
)

// Chain asks its authenticators in order and stops at the first vote that
// is not Abstain.
type Chain struct {
	Authenticators []Authenticator

	// Default applies when every authenticator abstains. Yes admits the
	// request as Anonymous.
	Default Decision
}

func (c *Chain) Authenticate(ctx context.Context, r *http.Request) Result {
	for _, authn := range c.Authenticators {
		if result := authn.Authenticate(ctx, r); result.Decision != Abstain {
			return result
		}
	}
	if c.Default == Yes {
		return Result{Decision: Yes, Identity: Anonymous()}
	}
	return Result{Decision: No, Err: ErrUnauthenticated}
}
