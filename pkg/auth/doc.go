// Package auth guards the execution API.
//
// Authentication uses a chain of authenticators with three-outcome voting:
// each returns Yes (identity found), No (credentials invalid) or Abstain
// (can't handle). The default decision applies when all abstain.
//
// The middleware runs the chain, enforces per-tier rate limits and scopes
// storage access to the caller's tenant.
package auth
