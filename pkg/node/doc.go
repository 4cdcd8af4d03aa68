// Package node implements the Claude Code workflow node: the parameter
// collector, the output shaper and the sequential item loop.
//
// The node depends on its host only through the Host interface, so the HTTP
// server, the MCP tool and the batch CLI all drive the same code. Items are
// processed strictly one at a time in index order; a failing item either
// becomes an error record (when the host enables continue-on-fail) or
// aborts the whole batch.
package node
