package api

import "fmt"

// ValidateExecutionTransition checks whether an execution status transition is valid.
// An empty "from" status represents a new execution that has not been stored yet.
// Terminal states (succeeded, failed, cancelled) do not allow outgoing transitions.
func ValidateExecutionTransition(from, to ExecutionStatus) *APIError {
	valid := map[ExecutionStatus][]ExecutionStatus{
		"":                     {ExecutionStatusRunning},
		ExecutionStatusRunning: {ExecutionStatusSucceeded, ExecutionStatusFailed, ExecutionStatusCancelled},
	}

	for _, s := range valid[from] {
		if s == to {
			return nil
		}
	}

	return NewInvalidRequestError("status",
		fmt.Sprintf("invalid transition from %s to %s", from, to))
}
