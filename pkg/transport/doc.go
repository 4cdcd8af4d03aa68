// Package transport defines the handler interfaces and middleware chain for
// the claudenode HTTP/SSE transport layer.
//
// The transport layer bridges workflow clients and the node engine. It
// deserializes execution requests into the types defined in pkg/api,
// dispatches them for processing, and serializes the result back to the
// client either as a complete JSON execution or as a stream of SSE events.
//
// # Handler Interfaces
//
//   - ExecutionRunner runs the node over a batch of items.
//   - ExecutionStore persists execution records for later retrieval,
//     listing and deletion.
//
// The ExecutionWriter interface abstracts streaming and non-streaming
// output, so the runner emits events or a complete execution without
// knowing the underlying protocol.
//
// # Middleware
//
// The middleware chain wraps ExecutionRunner with panic recovery, request
// ID assignment (X-Request-ID) and structured logging via log/slog.
package transport
