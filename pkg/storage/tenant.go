package storage

import "context"

type tenantKey struct{}

// SetTenant scopes ctx to tenantID. Stores record the tenant of a new
// execution and hide executions owned by other tenants.
func SetTenant(ctx context.Context, tenantID string) context.Context {
	return context.WithValue(ctx, tenantKey{}, tenantID)
}

// GetTenant returns the tenant of ctx, or "" when the context is unscoped.
func GetTenant(ctx context.Context) string {
	tenantID, _ := ctx.Value(tenantKey{}).(string)
	return tenantID
}

// Visible reports whether an execution owned by owner can be read through
// ctx. Unscoped contexts see every execution.
func Visible(ctx context.Context, owner string) bool {
	tenantID := GetTenant(ctx)
	return tenantID == "" || tenantID == owner
}
