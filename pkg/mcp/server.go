package mcp

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/rhuss/claudenode/pkg/api"
	"github.com/rhuss/claudenode/pkg/debug"
	"github.com/rhuss/claudenode/pkg/engine"
	"github.com/rhuss/claudenode/pkg/transport"
)

// ToolName is the name under which the node is registered.
const ToolName = "claude_code"

// Runner runs a batch through the node. *engine.Runner implements it.
type Runner interface {
	Run(ctx context.Context, req *api.ExecuteRequest, emit engine.EventFunc) (*api.Execution, error)
}

// ToolInput is the argument object of the claude_code tool.
type ToolInput struct {
	Prompt         string  `json:"prompt" jsonschema:"the prompt sent to Claude Code"`
	Model          string  `json:"model,omitempty" jsonschema:"sonnet or opus"`
	MaxTurns       int     `json:"max_turns,omitempty" jsonschema:"maximum number of agent turns"`
	TimeoutSeconds float64 `json:"timeout_seconds,omitempty" jsonschema:"wall-clock budget in seconds"`
	OutputFormat   string  `json:"output_format,omitempty" jsonschema:"text, messages or full"`
}

// request converts the tool input into a single-item execution. The prompt
// travels in the item so that it is never evaluated as an expression.
func (in ToolInput) request() *api.ExecuteRequest {
	params := map[string]any{
		api.ParamPrompt: "={{ $json.prompt }}",
	}
	if in.Model != "" {
		params[api.ParamModel] = in.Model
	}
	if in.MaxTurns != 0 {
		params[api.ParamMaxTurns] = in.MaxTurns
	}
	if in.TimeoutSeconds != 0 {
		params[api.ParamTimeout] = in.TimeoutSeconds
	}
	if in.OutputFormat != "" {
		params[api.ParamOutputFormat] = in.OutputFormat
	}
	continueOnFail := false
	return &api.ExecuteRequest{
		Items:          []api.JSON{{"prompt": in.Prompt}},
		Parameters:     params,
		ContinueOnFail: &continueOnFail,
	}
}

// Option configures the tool server.
type Option func(*toolConfig)

type toolConfig struct {
	limiter *transport.Limiter
}

// WithLimiter runs tool calls under l. Sharing the HTTP server's Limiter
// makes both surfaces count against the same cap.
func WithLimiter(l *transport.Limiter) Option {
	return func(c *toolConfig) { c.limiter = l }
}

// NewServer creates an MCP server with the claude_code tool registered.
func NewServer(runner Runner, version string, opts ...Option) *mcp.Server {
	var cfg toolConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	server := mcp.NewServer(
		&mcp.Implementation{Name: "claudenode", Version: version},
		nil,
	)

	mcp.AddTool(server, &mcp.Tool{
		Name:        ToolName,
		Description: "Runs a prompt through the Claude Code CLI and returns the shaped result.",
	}, toolHandler(runner, cfg.limiter))

	return server
}

// Handler serves server over streamable HTTP.
func Handler(server *mcp.Server) http.Handler {
	return mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server {
		return server
	}, nil)
}

func toolHandler(runner Runner, limiter *transport.Limiter) mcp.ToolHandlerFor[ToolInput, any] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, in ToolInput) (*mcp.CallToolResult, any, error) {
		debug.Log("mcp", "tool call", "tool", ToolName, "model", in.Model, "prompt_bytes", len(in.Prompt))

		release, err := limiter.Acquire()
		if err != nil {
			return errorResult(api.AsAPIError(err)), nil, nil
		}
		defer release()

		exec, err := runner.Run(ctx, in.request(), nil)
		if err != nil {
			apiErr := api.AsAPIError(err)
			debug.Log("mcp", "tool call failed", "type", apiErr.Type, "error", apiErr.Message)
			return errorResult(apiErr), nil, nil
		}

		record := map[string]any(exec.Output[0][0].JSON)
		text, err := json.Marshal(record)
		if err != nil {
			return nil, nil, err
		}
		return &mcp.CallToolResult{
			Content: []mcp.Content{&mcp.TextContent{Text: string(text)}},
		}, record, nil
	}
}

// errorResult reports a failed invocation as a tool error so that the
// calling model can see it.
func errorResult(apiErr *api.APIError) *mcp.CallToolResult {
	text, _ := json.Marshal(api.ErrorResponse{Error: apiErr})
	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{&mcp.TextContent{Text: string(text)}},
	}
}
