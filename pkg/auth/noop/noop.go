// Package noop provides an authenticator that accepts all requests as the
// anonymous identity. Used when auth.type is "none".
package noop

import (
	"context"
	"net/http"

	"github.com/rhuss/claudenode/pkg/auth"
)

// Authenticator always returns Yes with the anonymous identity.
type Authenticator struct{}

func (Authenticator) Authenticate(_ context.Context, _ *http.Request) auth.Result {
	return auth.Result{Decision: auth.Yes, Identity: auth.Anonymous()}
}
