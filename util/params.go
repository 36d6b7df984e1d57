package util

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/appforge/canvasflow/model"
	"github.com/oliveagle/jsonpath"
)

var tokenPattern = regexp.MustCompile(`{(\$[^}]*)}`)

// ResolveNodeParams returns a copy of the nodes with `{$.path}` tokens
// in string-valued data fields resolved against the accumulated
// context. Unresolvable tokens are left in place so authors see the gap
// instead of a silent drop.
func ResolveNodeParams(nodes []model.WorkflowNode, contextData map[string]any) []model.WorkflowNode {
	out := make([]model.WorkflowNode, len(nodes))
	for i, node := range nodes {
		out[i] = node
		if len(node.Data) == 0 {
			continue
		}
		out[i].Data = resolveMap(node.Data, contextData)
	}
	return out
}

func resolveMap(params map[string]any, contextData map[string]any) map[string]any {
	out := make(map[string]any, len(params))
	for k, v := range params {
		out[k] = resolveValue(v, contextData)
	}
	return out
}

func resolveValue(v any, contextData map[string]any) any {
	switch tv := v.(type) {
	case string:
		return resolveString(tv, contextData)
	case map[string]any:
		return resolveMap(tv, contextData)
	case []any:
		out := make([]any, len(tv))
		for i, item := range tv {
			out[i] = resolveValue(item, contextData)
		}
		return out
	default:
		return v
	}
}

func resolveString(s string, contextData map[string]any) string {
	matches := tokenPattern.FindAllStringSubmatch(s, -1)
	if len(matches) == 0 {
		return s
	}
	for _, m := range matches {
		token, path := m[0], m[1]
		value, err := jsonpath.JsonPathLookup(contextData, path)
		if err != nil {
			continue
		}
		s = strings.ReplaceAll(s, token, fmt.Sprintf("%v", value))
	}
	return s
}
