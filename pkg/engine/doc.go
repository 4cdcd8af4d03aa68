// Package engine runs node executions for the transport layer. The Runner
// implements transport.ExecutionRunner: it validates a request, applies the
// configured parameter defaults, records the execution in the store, runs
// the Claude Code node over the items and reports progress as events.
// The store is optional; without it executions are not retained.
package engine
