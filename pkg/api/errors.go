package api

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrorType represents the category of an API error.
type ErrorType string

const (
	ErrorTypeServerError     ErrorType = "server_error"
	ErrorTypeInvalidRequest  ErrorType = "invalid_request"
	ErrorTypeNotFound        ErrorType = "not_found"
	ErrorTypeInvocationError ErrorType = "invocation_error"
	ErrorTypeTimeout         ErrorType = "timeout"
	ErrorTypeUnauthorized    ErrorType = "unauthorized"
	ErrorTypeTooManyRequests ErrorType = "too_many_requests"
)

// APIError represents a structured API error with type, code, param, and message.
type APIError struct {
	Type    ErrorType `json:"type"`
	Code    string    `json:"code,omitempty"`
	Param   string    `json:"param,omitempty"`
	Message string    `json:"message"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Param != "" {
		return fmt.Sprintf("%s: %s (param: %s)", e.Type, e.Message, e.Param)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// ErrorResponse wraps an APIError for JSON serialization as the top-level error response.
type ErrorResponse struct {
	Error *APIError `json:"error"`
}

// NewInvalidRequestError creates an APIError for invalid request parameters.
func NewInvalidRequestError(param, message string) *APIError {
	return &APIError{
		Type:    ErrorTypeInvalidRequest,
		Param:   param,
		Message: message,
	}
}

// NewNotFoundError creates an APIError for resources that cannot be found.
func NewNotFoundError(message string) *APIError {
	return &APIError{
		Type:    ErrorTypeNotFound,
		Message: message,
	}
}

// NewServerError creates an APIError for internal server errors.
func NewServerError(message string) *APIError {
	return &APIError{
		Type:    ErrorTypeServerError,
		Message: message,
	}
}

// NewInvocationError creates an APIError for a failed Claude Code invocation.
func NewInvocationError(code, message string) *APIError {
	return &APIError{
		Type:    ErrorTypeInvocationError,
		Code:    code,
		Message: message,
	}
}

// NewTooManyRequestsError creates an APIError for rate limiting.
func NewTooManyRequestsError(message string) *APIError {
	return &APIError{
		Type:    ErrorTypeTooManyRequests,
		Message: message,
	}
}

// NewUnauthorizedError creates an APIError for rejected credentials.
func NewUnauthorizedError(message string) *APIError {
	return &APIError{
		Type:    ErrorTypeUnauthorized,
		Message: message,
	}
}

// LaunchError reports that the external executable could not be started.
type LaunchError struct {
	Path string
	Err  error
}

func (e *LaunchError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("cannot launch claude: %v", e.Err)
	}
	return fmt.Sprintf("cannot launch %s: %v", e.Path, e.Err)
}

func (e *LaunchError) Unwrap() error { return e.Err }

func (e *LaunchError) Kind() string { return "launch" }

// ProcessError reports a non-zero exit of the external process.
type ProcessError struct {
	ExitCode int
	Stderr   string
}

func (e *ProcessError) Error() string {
	if e.Stderr == "" {
		return fmt.Sprintf("exit %d", e.ExitCode)
	}
	return fmt.Sprintf("exit %d: %s", e.ExitCode, e.Stderr)
}

func (e *ProcessError) Kind() string { return "process" }

// TimeoutError reports that an invocation exceeded its wall-clock budget.
type TimeoutError struct {
	After time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("claude code timed out after %s", e.After)
}

func (e *TimeoutError) Kind() string { return "timeout" }

// HostParameterError reports a missing or invalid node parameter.
type HostParameterError struct {
	Name   string
	Index  int
	Reason string
}

func (e *HostParameterError) Error() string {
	return fmt.Sprintf("parameter %q (item %d): %s", e.Name, e.Index, e.Reason)
}

func (e *HostParameterError) Kind() string { return "parameter" }

// StreamError reports an error record received on the message stream.
type StreamError struct {
	Subtype string
	Detail  string
}

func (e *StreamError) Error() string {
	detail := strings.TrimSpace(e.Detail)
	if detail == "" {
		detail = "claude code reported an error"
	}
	if e.Subtype == "" {
		return detail
	}
	return fmt.Sprintf("%s (%s)", detail, e.Subtype)
}

func (e *StreamError) Kind() string { return "stream" }

// ErrorKind returns a short, stable label for err, suitable for metrics
// and event payloads.
func ErrorKind(err error) string {
	var (
		launchErr  *LaunchError
		processErr *ProcessError
		timeoutErr *TimeoutError
		paramErr   *HostParameterError
		streamErr  *StreamError
	)
	switch {
	case err == nil:
		return ""
	case errors.As(err, &timeoutErr):
		return "timeout"
	case errors.As(err, &launchErr):
		return "launch"
	case errors.As(err, &processErr):
		return "process"
	case errors.As(err, &paramErr):
		return "parameter"
	case errors.As(err, &streamErr):
		return "stream"
	case errors.Is(err, context.Canceled):
		return "cancelled"
	default:
		return "error"
	}
}

// AsAPIError converts an invocation or parameter error into its wire form.
func AsAPIError(err error) *APIError {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}
	var paramErr *HostParameterError
	if errors.As(err, &paramErr) {
		return NewInvalidRequestError(paramErr.Name, err.Error())
	}
	switch kind := ErrorKind(err); kind {
	case "timeout":
		return &APIError{Type: ErrorTypeTimeout, Message: err.Error()}
	case "launch", "process", "stream":
		return NewInvocationError(kind, err.Error())
	default:
		return NewServerError(err.Error())
	}
}
