package node

import "github.com/rhuss/claudenode/pkg/api"

// Shape projects an invocation result into the output record selected by
// format:
//
//	text      {result, duration, model}
//	messages  {messages, result, duration, model}
//	full      {result, messages, duration, model, prompt, maxTurns}
//
// duration is in milliseconds. messages is always an array.
func Shape(format api.OutputFormat, res *api.InvocationResult, opts api.InvocationOptions) api.JSON {
	out := api.JSON{
		"result":   res.Text,
		"duration": res.DurationMs,
		"model":    string(opts.Model),
	}

	switch format {
	case api.OutputFormatMessages:
		out["messages"] = messagesOf(res)
	case api.OutputFormatFull:
		out["messages"] = messagesOf(res)
		out["prompt"] = opts.Prompt
		out["maxTurns"] = opts.MaxTurns
	}
	return out
}

// ErrorRecord is the output record of a failed item under continue-on-fail.
func ErrorRecord(err error, prompt string) api.JSON {
	return api.JSON{
		"error":  err.Error(),
		"prompt": prompt,
	}
}

func messagesOf(res *api.InvocationResult) []api.Message {
	if res.Messages == nil {
		return []api.Message{}
	}
	return res.Messages
}
