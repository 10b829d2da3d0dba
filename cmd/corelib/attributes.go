package main

import (
	"fmt"
	"sort"
	"strings"

	"github.com/astrolabe-oss/corelib/cmd/corelib/internal"
	"github.com/astrolabe-oss/corelib/internal/schema"
)

// parseAttributes turns key=value arguments into an attribute map. Values
// stay strings and are converted to the declared field type by the schema.
// "key=" stands for an absent attribute.
func parseAttributes(pairs []string) (map[string]any, error) {
	attrs := make(map[string]any, len(pairs))
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, internal.NewCLIError(internal.ExitInvalidInput,
				fmt.Sprintf("invalid attribute %q, expected key=value", pair))
		}
		if value == "" {
			attrs[key] = nil
			continue
		}
		attrs[key] = value
	}
	return attrs, nil
}

// describeAttributes renders attrs as sorted key=value pairs for messages.
func describeAttributes(attrs map[string]any) string {
	pairs := make([]string, 0, len(attrs))
	for k, v := range attrs {
		if v == nil {
			pairs = append(pairs, k+"=")
			continue
		}
		pairs = append(pairs, fmt.Sprintf("%s=%v", k, v))
	}
	sort.Strings(pairs)
	return strings.Join(pairs, " ")
}

// vertexView is the printable form of a vertex: its attributes plus type and
// element_id. Unset attributes are omitted.
func vertexView(v schema.Vertex) map[string]any {
	view := map[string]any{
		"type":       v.Kind().String(),
		"element_id": v.ElementID(),
	}
	for k, val := range v.Attributes() {
		if val != nil {
			view[k] = val
		}
	}
	return view
}

func vertexViews(vs []schema.Vertex) []map[string]any {
	out := make([]map[string]any, 0, len(vs))
	for _, v := range vs {
		out = append(out, vertexView(v))
	}
	return out
}
