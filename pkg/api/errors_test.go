package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"testing"
	"time"
)

func TestAPIErrorInterface(t *testing.T) {
	var _ error = &APIError{}
}

func TestAPIErrorString(t *testing.T) {
	tests := []struct {
		name string
		err  *APIError
		want string
	}{
		{
			"with param",
			&APIError{Type: ErrorTypeInvalidRequest, Param: "prompt", Message: "is required"},
			"invalid_request: is required (param: prompt)",
		},
		{
			"without param",
			&APIError{Type: ErrorTypeServerError, Message: "internal failure"},
			"server_error: internal failure",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("APIError.Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestInvocationErrorMessages(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"process with stderr", &ProcessError{ExitCode: 1, Stderr: "bad flag"}, "exit 1: bad flag"},
		{"process without stderr", &ProcessError{ExitCode: 2}, "exit 2"},
		{"timeout", &TimeoutError{After: time.Second}, "claude code timed out after 1s"},
		{"launch", &LaunchError{Path: "/opt/claude", Err: exec.ErrNotFound}, "cannot launch /opt/claude: executable file not found in $PATH"},
		{"parameter", &HostParameterError{Name: "prompt", Index: 2, Reason: "prompt is required"}, `parameter "prompt" (item 2): prompt is required`},
		{"stream", &StreamError{Subtype: "error_max_turns", Detail: "too many turns"}, "too many turns (error_max_turns)"},
		{"stream without detail", &StreamError{}, "claude code reported an error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestLaunchErrorUnwrap(t *testing.T) {
	err := fmt.Errorf("invoke: %w", &LaunchError{Path: "claude", Err: exec.ErrNotFound})
	if !errors.Is(err, exec.ErrNotFound) {
		t.Error("LaunchError should unwrap to its cause")
	}
}

func TestErrorKind(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, ""},
		{&TimeoutError{}, "timeout"},
		{fmt.Errorf("wrapped: %w", &ProcessError{ExitCode: 1}), "process"},
		{&LaunchError{Err: exec.ErrNotFound}, "launch"},
		{&HostParameterError{Name: "model"}, "parameter"},
		{&StreamError{}, "stream"},
		{context.Canceled, "cancelled"},
		{errors.New("boom"), "error"},
	}
	for _, tt := range tests {
		if got := ErrorKind(tt.err); got != tt.want {
			t.Errorf("ErrorKind(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}

func TestAsAPIError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantType ErrorType
		wantCode string
	}{
		{"api error passes through", NewNotFoundError("gone"), ErrorTypeNotFound, ""},
		{"parameter", &HostParameterError{Name: "prompt"}, ErrorTypeInvalidRequest, ""},
		{"timeout", &TimeoutError{After: time.Second}, ErrorTypeTimeout, ""},
		{"process", &ProcessError{ExitCode: 1}, ErrorTypeInvocationError, "process"},
		{"launch", &LaunchError{Err: exec.ErrNotFound}, ErrorTypeInvocationError, "launch"},
		{"unknown", errors.New("boom"), ErrorTypeServerError, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := AsAPIError(tt.err)
			if got.Type != tt.wantType {
				t.Errorf("Type = %q, want %q", got.Type, tt.wantType)
			}
			if got.Code != tt.wantCode {
				t.Errorf("Code = %q, want %q", got.Code, tt.wantCode)
			}
		})
	}
}

func TestAPIErrorOmitEmpty(t *testing.T) {
	err := &APIError{Type: ErrorTypeServerError, Message: "fail"}
	data, marshalErr := json.Marshal(err)
	if marshalErr != nil {
		t.Fatalf("Marshal: %v", marshalErr)
	}

	var m map[string]interface{}
	if unmarshalErr := json.Unmarshal(data, &m); unmarshalErr != nil {
		t.Fatalf("Unmarshal: %v", unmarshalErr)
	}

	if _, ok := m["code"]; ok {
		t.Error("empty code should be omitted from JSON")
	}
	if _, ok := m["param"]; ok {
		t.Error("empty param should be omitted from JSON")
	}
}

func TestKindMatchesErrorKind(t *testing.T) {
	errs := []interface {
		error
		Kind() string
	}{
		&LaunchError{Err: exec.ErrNotFound},
		&ProcessError{ExitCode: 1},
		&TimeoutError{After: time.Second},
		&HostParameterError{Name: ParamPrompt},
		&StreamError{Subtype: "error_max_turns"},
	}
	for _, err := range errs {
		if got := ErrorKind(fmt.Errorf("wrapped: %w", err)); got != err.Kind() {
			t.Errorf("ErrorKind(%T) = %q, Kind() = %q", err, got, err.Kind())
		}
	}
}
