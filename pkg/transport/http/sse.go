package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/rhuss/claudenode/pkg/api"
	"github.com/rhuss/claudenode/pkg/debug"
	"github.com/rhuss/claudenode/pkg/transport"
)

// writerState tracks the state of an SSE ExecutionWriter.
type writerState int

const (
	writerIdle      writerState = iota // Initial state, no writes yet
	writerStreaming                    // WriteEvent has been called at least once
	writerCompleted                    // Terminal event sent or WriteExecution called
)

// sseWriter implements transport.ExecutionWriter for HTTP. It writes SSE
// events when streaming and a single JSON document otherwise.
type sseWriter struct {
	w  http.ResponseWriter
	rc *http.ResponseController

	mu    sync.Mutex
	state writerState
	seq   int

	// onCreated is called with the execution ID when execution.created is
	// written, for in-flight registration.
	onCreated func(id string)
}

var _ transport.ExecutionWriter = (*sseWriter)(nil)

func newSSEWriter(w http.ResponseWriter, onCreated func(id string)) *sseWriter {
	return &sseWriter{
		w:         w,
		rc:        http.NewResponseController(w),
		onCreated: onCreated,
	}
}

// WriteEvent sends a single SSE event:
//
//	event: {type}
//	data: {json}
//
// Sequence numbers are assigned here in write order. A terminal event is
// followed by "data: [DONE]".
func (s *sseWriter) WriteEvent(ctx context.Context, event api.ExecutionEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == writerCompleted {
		return errors.New("cannot write event: writer is completed")
	}

	if s.state == writerIdle {
		s.w.Header().Set("Content-Type", "text/event-stream")
		s.w.Header().Set("Cache-Control", "no-cache")
		s.w.Header().Set("Connection", "keep-alive")
		s.state = writerStreaming
	}

	if event.Type == api.EventExecutionCreated && event.Execution != nil && s.onCreated != nil {
		s.onCreated(event.Execution.ID)
		s.onCreated = nil
	}

	event.SequenceNumber = s.seq
	s.seq++

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshaling event: %w", err)
	}

	if _, err := fmt.Fprintf(s.w, "event: %s\ndata: %s\n\n", event.Type, data); err != nil {
		return fmt.Errorf("writing event: %w", err)
	}
	if err := s.rc.Flush(); err != nil {
		return fmt.Errorf("flushing event: %w", err)
	}
	debug.Log("http", "sse event", "type", event.Type, "seq", event.SequenceNumber)

	if event.Type.IsTerminal() {
		if _, err := fmt.Fprint(s.w, "data: [DONE]\n\n"); err != nil {
			return fmt.Errorf("writing [DONE]: %w", err)
		}
		if err := s.rc.Flush(); err != nil {
			return fmt.Errorf("flushing [DONE]: %w", err)
		}
		s.state = writerCompleted
	}

	return nil
}

// WriteExecution sends a complete JSON execution. It is mutually exclusive
// with WriteEvent.
func (s *sseWriter) WriteExecution(ctx context.Context, exec *api.Execution) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.state {
	case writerStreaming:
		return errors.New("cannot write execution: streaming has already started")
	case writerCompleted:
		return errors.New("cannot write execution: writer is completed")
	}

	s.w.Header().Set("Content-Type", "application/json")
	s.state = writerCompleted

	if err := json.NewEncoder(s.w).Encode(exec); err != nil {
		return fmt.Errorf("encoding execution: %w", err)
	}
	return nil
}

// Flush ensures buffered data is sent to the client.
func (s *sseWriter) Flush() error {
	return s.rc.Flush()
}

// hasStartedStreaming reports whether at least one SSE event was written.
func (s *sseWriter) hasStartedStreaming() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.seq > 0
}

// isCompleted reports whether a terminal event or full execution was written.
func (s *sseWriter) isCompleted() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state == writerCompleted
}
