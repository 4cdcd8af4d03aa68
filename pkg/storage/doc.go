// Package storage holds what the execution store backends share: the
// ErrNotFound sentinel, deep copies of executions, and tenant scoping.
//
// A context carrying a tenant (SetTenant) only sees executions saved under
// that tenant. An unscoped context sees everything; the server only hands
// out unscoped contexts when authentication does not assign tenants.
// The store interface itself is transport.ExecutionStore.
package storage
