package auth

import (
	"context"

	"github.com/rhuss/claudenode/pkg/storage"
)

type identityKey struct{}

// WithIdentity attaches id to ctx. A tenant on the identity also scopes
// storage access for the rest of the request.
func WithIdentity(ctx context.Context, id *Identity) context.Context {
	ctx = context.WithValue(ctx, identityKey{}, id)
	if tenant := id.TenantID(); tenant != "" {
		ctx = storage.SetTenant(ctx, tenant)
	}
	return ctx
}

// IdentityFromContext returns the authenticated caller, or nil.
func IdentityFromContext(ctx context.Context) *Identity {
	id, _ := ctx.Value(identityKey{}).(*Identity)
	return id
}

// Subject returns the caller's subject, or "" when unauthenticated.
func Subject(ctx context.Context) string {
	if id := IdentityFromContext(ctx); id != nil {
		return id.Subject
	}
	return ""
}
