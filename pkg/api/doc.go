// Package api defines the data model shared by the claudenode core, its
// invokers and its hosts.
//
// The package performs no I/O. It covers the workflow item envelope, the
// per-item invocation options and results, execution records with their
// status machine, streaming execution events, the typed invocation errors,
// and the APIError envelope written by the HTTP and MCP surfaces.
//
// Core types:
//   - [Item]: a workflow item, used for both input and output batches
//   - [InvocationOptions]: per-item parameters forwarded to an invoker
//   - [InvocationResult]: text, stream messages and elapsed time of one call
//   - [Execution]: a stored run of the node over a batch of items
//   - [ExecutionEvent]: server-sent event emitted while an execution runs
//   - [APIError]: structured error with type, code, param, and message
package api
