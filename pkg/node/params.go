package node

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/rhuss/claudenode/pkg/api"
)

// CollectOptions reads the per-item parameters from host, applies the
// schema defaults for absent optional fields and validates the result.
// Any problem is reported as *api.HostParameterError.
func CollectOptions(host Host, index int, cfg api.ValidationConfig) (api.InvocationOptions, error) {
	opts := api.InvocationOptions{
		Model:          api.DefaultModel,
		MaxTurns:       api.DefaultMaxTurns,
		TimeoutSeconds: api.DefaultTimeoutSeconds,
		OutputFormat:   api.DefaultOutputFormat,
	}

	prompt, ok, err := stringParam(host, api.ParamPrompt, index)
	if err != nil {
		return opts, err
	}
	if !ok {
		return opts, &api.HostParameterError{Name: api.ParamPrompt, Index: index, Reason: "prompt is required"}
	}
	opts.Prompt = prompt

	if s, ok, err := stringParam(host, api.ParamModel, index); err != nil {
		return opts, err
	} else if ok {
		opts.Model = api.Model(s)
	}

	if n, ok, err := numberParam(host, api.ParamMaxTurns, index); err != nil {
		return opts, err
	} else if ok {
		if n != math.Trunc(n) || n > math.MaxInt32 {
			return opts, &api.HostParameterError{Name: api.ParamMaxTurns, Index: index,
				Reason: fmt.Sprintf("maxTurns must be an integer, got %v", n)}
		}
		opts.MaxTurns = int(n)
	}

	if n, ok, err := numberParam(host, api.ParamTimeout, index); err != nil {
		return opts, err
	} else if ok {
		opts.TimeoutSeconds = n
	}

	if s, ok, err := stringParam(host, api.ParamOutputFormat, index); err != nil {
		return opts, err
	} else if ok {
		opts.OutputFormat = api.OutputFormat(s)
	}

	if err := api.ValidateOptions(opts, index, cfg); err != nil {
		return opts, err
	}
	return opts, nil
}

// Operation reads the operation parameter, which applies to the whole batch.
func Operation(host Host) (api.Operation, error) {
	s, ok, err := stringParam(host, api.ParamOperation, 0)
	if err != nil {
		return "", err
	}
	if !ok {
		return api.OperationQuery, nil
	}
	if api.Operation(s) != api.OperationQuery {
		return "", &api.HostParameterError{Name: api.ParamOperation, Index: 0,
			Reason: fmt.Sprintf("unsupported operation %q", s)}
	}
	return api.OperationQuery, nil
}

// rawParam fetches a parameter, folding "not set" and nil into ok=false.
func rawParam(host Host, name string, index int) (any, bool, error) {
	v, err := host.NodeParameter(name, index)
	if errors.Is(err, ErrParameterNotSet) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, &api.HostParameterError{Name: name, Index: index, Reason: err.Error()}
	}
	if v == nil {
		return nil, false, nil
	}
	return v, true, nil
}

func stringParam(host Host, name string, index int) (string, bool, error) {
	v, ok, err := rawParam(host, name, index)
	if err != nil || !ok {
		return "", ok, err
	}
	switch s := v.(type) {
	case string:
		return s, true, nil
	default:
		return "", false, &api.HostParameterError{Name: name, Index: index,
			Reason: fmt.Sprintf("expected a string, got %T", v)}
	}
}

func numberParam(host Host, name string, index int) (float64, bool, error) {
	f, ok, err := rawNumber(host, name, index)
	if err != nil || !ok {
		return 0, ok, err
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false, &api.HostParameterError{Name: name, Index: index,
			Reason: fmt.Sprintf("expected a finite number, got %v", f)}
	}
	return f, true, nil
}

func rawNumber(host Host, name string, index int) (float64, bool, error) {
	v, ok, err := rawParam(host, name, index)
	if err != nil || !ok {
		return 0, ok, err
	}
	bad := &api.HostParameterError{Name: name, Index: index,
		Reason: fmt.Sprintf("expected a number, got %v", v)}
	switch n := v.(type) {
	case float64:
		return n, true, nil
	case float32:
		return float64(n), true, nil
	case int:
		return float64(n), true, nil
	case int64:
		return float64(n), true, nil
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return 0, false, bad
		}
		return f, true, nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, false, bad
		}
		return f, true, nil
	default:
		return 0, false, bad
	}
}

// promptFor returns the item's prompt for error records, or "" when it
// cannot be resolved.
func promptFor(host Host, index int) string {
	s, _, _ := stringParam(host, api.ParamPrompt, index)
	return s
}
