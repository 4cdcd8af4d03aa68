package api

import (
	"time"
)

// JSON is the opaque payload of a workflow item.
type JSON map[string]any

// PairedItem links an output item to the input item it was produced from.
type PairedItem struct {
	Item int `json:"item"`
}

// Item is one unit of workflow data. Input items only need JSON; output
// items always carry PairedItem.
type Item struct {
	JSON       JSON        `json:"json"`
	PairedItem *PairedItem `json:"pairedItem,omitempty"`
}

// Operation selects what the node does with each item.
type Operation string

const (
	OperationQuery Operation = "query"
)

// Model identifies the Claude model family requested for an invocation.
type Model string

const (
	ModelSonnet Model = "sonnet"
	ModelOpus   Model = "opus"
)

// OutputFormat selects the projection of an invocation result.
type OutputFormat string

const (
	OutputFormatText     OutputFormat = "text"
	OutputFormatMessages OutputFormat = "messages"
	OutputFormatFull     OutputFormat = "full"
)

// Parameter names as exposed by the node description.
const (
	ParamOperation    = "operation"
	ParamPrompt       = "prompt"
	ParamModel        = "model"
	ParamMaxTurns     = "maxTurns"
	ParamTimeout      = "timeout"
	ParamOutputFormat = "outputFormat"
)

// Defaults applied when an optional parameter is absent.
const (
	DefaultModel          = ModelSonnet
	DefaultMaxTurns       = 1
	DefaultTimeoutSeconds = 60.0
	DefaultOutputFormat   = OutputFormatText
)

// InvocationOptions holds the resolved parameters for a single item.
type InvocationOptions struct {
	Prompt         string       `json:"prompt"`
	Model          Model        `json:"model"`
	MaxTurns       int          `json:"maxTurns"`
	TimeoutSeconds float64      `json:"timeout"`
	OutputFormat   OutputFormat `json:"outputFormat"`
}

// Timeout returns the wall-clock budget as a duration.
func (o InvocationOptions) Timeout() time.Duration {
	return time.Duration(o.TimeoutSeconds * float64(time.Second))
}

// Message is an opaque record produced by the streaming invoker.
type Message map[string]any

// InvocationResult is what an invoker returns for one prompt.
type InvocationResult struct {
	Text       string    `json:"text"`
	Messages   []Message `json:"messages,omitempty"`
	DurationMs int64     `json:"durationMs"`
}

// ExecutionStatus is the lifecycle state of an execution.
type ExecutionStatus string

const (
	ExecutionStatusRunning   ExecutionStatus = "running"
	ExecutionStatusSucceeded ExecutionStatus = "succeeded"
	ExecutionStatusFailed    ExecutionStatus = "failed"
	ExecutionStatusCancelled ExecutionStatus = "cancelled"
)

// IsTerminal reports whether no further transitions are allowed.
func (s ExecutionStatus) IsTerminal() bool {
	return s == ExecutionStatusSucceeded || s == ExecutionStatusFailed || s == ExecutionStatusCancelled
}

// ExecuteRequest is the body of POST /v1/executions.
type ExecuteRequest struct {
	Items          []JSON         `json:"items"`
	Parameters     map[string]any `json:"parameters"`
	ContinueOnFail *bool          `json:"continueOnFail,omitempty"`
	Stream         bool           `json:"stream,omitempty"`
}

// Execution records one run of the node over a batch of input items.
type Execution struct {
	ID             string          `json:"id"`
	Object         string          `json:"object"`
	Status         ExecutionStatus `json:"status"`
	Invoker        string          `json:"invoker"`
	Parameters     map[string]any  `json:"parameters,omitempty"`
	ContinueOnFail bool            `json:"continueOnFail"`
	ItemCount      int             `json:"itemCount"`
	Output         [][]Item        `json:"output,omitempty"`
	Error          *APIError       `json:"error,omitempty"`
	CreatedAt      int64           `json:"created_at"`
	CompletedAt    *int64          `json:"completed_at,omitempty"`
}

// ExecutionList is a page of executions.
type ExecutionList struct {
	Object  string       `json:"object"`
	Data    []*Execution `json:"data"`
	HasMore bool         `json:"has_more"`
	FirstID string       `json:"first_id,omitempty"`
	LastID  string       `json:"last_id,omitempty"`
}
