package schema

import (
	"fmt"
	"reflect"
	"sort"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"

	"github.com/astrolabe-oss/corelib/internal/graph"
	"github.com/astrolabe-oss/corelib/internal/types"
)

// Decode builds a vertex of kind from attrs. Keys that are not declared for
// the kind are dropped. Values may be given in their stored form or as
// strings: RFC 3339 timestamps, decimal floats and comma separated lists are
// converted.
func Decode(kind Kind, attrs map[string]any) (Vertex, error) {
	s, err := Lookup(kind)
	if err != nil {
		return nil, err
	}
	v, err := New(kind)
	if err != nil {
		return nil, err
	}

	declared := make(map[string]any, len(attrs))
	for k, val := range attrs {
		if _, ok := s.Field(k); ok {
			declared[k] = val
		}
	}

	if err := decodeInto(v, declared); err != nil {
		return nil, types.WrapError(types.VERTEX_VALIDATION_FAILED,
			fmt.Sprintf("cannot decode %s attributes", kind), err)
	}
	return v, nil
}

// FromNode materializes a typed vertex from a stored node, choosing the kind
// from the node's labels. Nodes without a known label fail with
// ErrUnknownVertexKind.
func FromNode(node graph.Node) (Vertex, error) {
	kind, err := KindFromLabels(node.Labels)
	if err != nil {
		return nil, err
	}
	v, err := Decode(kind, node.Props)
	if err != nil {
		return nil, err
	}
	v.base().ID = node.ID
	return v, nil
}

// Apply overwrites the fields of v named in attrs and leaves the others
// untouched. A nil value clears the field. Undeclared keys are dropped, and
// immutable fields are skipped once v has been persisted.
func Apply(v Vertex, attrs map[string]any) error {
	s, err := Lookup(v.Kind())
	if err != nil {
		return err
	}

	merged := v.Attributes()
	for k, val := range attrs {
		f, ok := s.Field(k)
		if !ok {
			continue
		}
		if f.Immutable && v.base().Persisted() {
			continue
		}
		merged[k] = val
	}

	fresh, err := Decode(v.Kind(), merged)
	if err != nil {
		return err
	}
	fresh.base().ID = v.ElementID()

	reflect.ValueOf(v).Elem().Set(reflect.ValueOf(fresh).Elem())
	return nil
}

// Normalize converts attrs to the exact values the store holds for kind, so
// they can be used in equality lookups. Unlike Decode, undeclared keys are
// an error.
func Normalize(kind Kind, attrs map[string]any) (Attributes, error) {
	if err := CheckDeclared(kind, attrs); err != nil {
		return nil, err
	}
	v, err := Decode(kind, attrs)
	if err != nil {
		return nil, err
	}

	full := v.Attributes()
	out := make(Attributes, len(attrs))
	for k := range attrs {
		out[k] = full[k]
	}
	return out, nil
}

// CheckDeclared fails with ErrUnknownAttribute if attrs names a field kind
// does not declare.
func CheckDeclared(kind Kind, attrs map[string]any) error {
	s, err := Lookup(kind)
	if err != nil {
		return err
	}
	var unknown []string
	for k := range attrs {
		if _, ok := s.Field(k); !ok {
			unknown = append(unknown, k)
		}
	}
	if len(unknown) == 0 {
		return nil
	}
	sort.Strings(unknown)
	return types.WrapError(types.UNKNOWN_ATTRIBUTE,
		fmt.Sprintf("%s has no attribute %s", kind, strings.Join(unknown, ", ")), ErrUnknownAttribute)
}

func decodeInto(v Vertex, attrs map[string]any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeHookFunc(time.RFC3339),
			mapstructure.StringToSliceHookFunc(","),
		),
		WeaklyTypedInput: true,
		Result:           v,
	})
	if err != nil {
		return err
	}
	return decoder.Decode(attrs)
}
