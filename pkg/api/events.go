package api

// ExecutionEventType identifies the type of a streaming event.
type ExecutionEventType string

// Item events are emitted once per processed input item.
const (
	EventItemCompleted ExecutionEventType = "item.completed"
	EventItemFailed    ExecutionEventType = "item.failed"
)

// Lifecycle events track the state of an execution.
const (
	EventExecutionCreated   ExecutionEventType = "execution.created"
	EventExecutionCompleted ExecutionEventType = "execution.completed"
	EventExecutionFailed    ExecutionEventType = "execution.failed"
	EventExecutionCancelled ExecutionEventType = "execution.cancelled"
)

// ExecutionEvent represents a single server-sent event of a streaming execution.
type ExecutionEvent struct {
	Type           ExecutionEventType `json:"type"`
	SequenceNumber int                `json:"sequence_number"`
	Execution      *Execution         `json:"execution,omitempty"`
	ItemIndex      *int               `json:"item_index,omitempty"`
	Item           *Item              `json:"item,omitempty"`
	Error          *APIError          `json:"error,omitempty"`
}

// IsTerminal reports whether the event ends the stream.
func (t ExecutionEventType) IsTerminal() bool {
	switch t {
	case EventExecutionCompleted, EventExecutionFailed, EventExecutionCancelled:
		return true
	}
	return false
}
