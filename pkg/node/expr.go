package node

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/rhuss/claudenode/pkg/api"
)

var templatePattern = regexp.MustCompile(`\{\{\s*(.*?)\s*\}\}`)

// Resolve evaluates a parameter value against an item. Only strings that
// start with "=" are expressions; every {{ ... }} inside them is replaced.
// Supported references are $json (the whole item) and $json.<path> in gjson
// path syntax. An expression consisting of a single template keeps the
// referenced value's JSON type, so "={{ $json.turns }}" yields a number.
func Resolve(v any, item api.JSON) (any, error) {
	s, ok := v.(string)
	if !ok || !strings.HasPrefix(s, "=") {
		return v, nil
	}
	expr := s[1:]

	data, err := json.Marshal(item)
	if err != nil {
		return nil, fmt.Errorf("encoding item for expression: %w", err)
	}

	trimmed := strings.TrimSpace(expr)
	if m := templatePattern.FindStringSubmatchIndex(trimmed); m != nil && m[0] == 0 && m[1] == len(trimmed) {
		res, err := lookup(data, trimmed[m[2]:m[3]])
		if err != nil {
			return nil, err
		}
		if !res.Exists() {
			return nil, nil
		}
		return res.Value(), nil
	}

	var firstErr error
	out := templatePattern.ReplaceAllStringFunc(expr, func(tpl string) string {
		ref := templatePattern.FindStringSubmatch(tpl)[1]
		res, err := lookup(data, ref)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			return ""
		}
		return res.String()
	})
	if firstErr != nil {
		return nil, firstErr
	}
	return out, nil
}

func lookup(data []byte, ref string) (gjson.Result, error) {
	switch {
	case ref == "$json":
		return gjson.ParseBytes(data), nil
	case strings.HasPrefix(ref, "$json."):
		return gjson.GetBytes(data, strings.TrimPrefix(ref, "$json.")), nil
	default:
		return gjson.Result{}, fmt.Errorf("unsupported expression %q (only $json references are resolved)", ref)
	}
}
