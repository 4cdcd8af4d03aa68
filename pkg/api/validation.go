package api

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// ValidationConfig holds configurable limits for request validation.
type ValidationConfig struct {
	MaxItems       int
	MaxPromptBytes int
	MaxTurns       int
	MaxTimeout     float64
}

// DefaultValidationConfig returns a ValidationConfig with sensible defaults.
func DefaultValidationConfig() ValidationConfig {
	return ValidationConfig{
		MaxItems:       1000,
		MaxPromptBytes: 1024 * 1024, // 1MB
		MaxTurns:       100,
		MaxTimeout:     3600,
	}
}

// ValidateExecuteRequest checks the envelope of an execution request. Per-item
// parameters are validated later, when they are resolved against each item.
func ValidateExecuteRequest(req *ExecuteRequest, cfg ValidationConfig) *APIError {
	if len(req.Items) == 0 {
		return NewInvalidRequestError("items", "items must contain at least one item")
	}

	if cfg.MaxItems > 0 && len(req.Items) > cfg.MaxItems {
		return NewInvalidRequestError("items",
			fmt.Sprintf("items exceeds maximum of %d", cfg.MaxItems))
	}

	if op, ok := req.Parameters[ParamOperation]; ok {
		if s, _ := op.(string); Operation(s) != OperationQuery {
			return NewInvalidRequestError(ParamOperation,
				fmt.Sprintf("unsupported operation %v", op))
		}
	}

	return nil
}

// ValidateOptions checks resolved per-item options. It returns the first
// violation as a HostParameterError for the given item index.
func ValidateOptions(opts InvocationOptions, index int, cfg ValidationConfig) error {
	if strings.TrimSpace(opts.Prompt) == "" {
		return &HostParameterError{Name: ParamPrompt, Index: index, Reason: "prompt is required"}
	}
	if cfg.MaxPromptBytes > 0 && len(opts.Prompt) > cfg.MaxPromptBytes {
		return &HostParameterError{Name: ParamPrompt, Index: index,
			Reason: fmt.Sprintf("prompt exceeds maximum of %d bytes", cfg.MaxPromptBytes)}
	}

	switch opts.Model {
	case ModelSonnet, ModelOpus:
	default:
		return &HostParameterError{Name: ParamModel, Index: index,
			Reason: fmt.Sprintf("model must be 'sonnet' or 'opus', got %q", opts.Model)}
	}

	if opts.MaxTurns <= 0 {
		return &HostParameterError{Name: ParamMaxTurns, Index: index, Reason: "maxTurns must be a positive integer"}
	}
	if cfg.MaxTurns > 0 && opts.MaxTurns > cfg.MaxTurns {
		return &HostParameterError{Name: ParamMaxTurns, Index: index,
			Reason: fmt.Sprintf("maxTurns exceeds maximum of %d", cfg.MaxTurns)}
	}

	if math.IsNaN(opts.TimeoutSeconds) || opts.Timeout() < time.Millisecond {
		return &HostParameterError{Name: ParamTimeout, Index: index, Reason: "timeout must be at least 1ms"}
	}
	if cfg.MaxTimeout > 0 && opts.TimeoutSeconds > cfg.MaxTimeout {
		return &HostParameterError{Name: ParamTimeout, Index: index,
			Reason: fmt.Sprintf("timeout exceeds maximum of %g seconds", cfg.MaxTimeout)}
	}

	switch opts.OutputFormat {
	case OutputFormatText, OutputFormatMessages, OutputFormatFull:
	default:
		return &HostParameterError{Name: ParamOutputFormat, Index: index,
			Reason: fmt.Sprintf("outputFormat must be 'text', 'messages' or 'full', got %q", opts.OutputFormat)}
	}

	return nil
}
