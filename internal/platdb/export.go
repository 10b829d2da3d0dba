package platdb

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/astrolabe-oss/corelib/internal/graph"
	"github.com/astrolabe-oss/corelib/internal/schema"
)

// FlatVertex is a vertex reduced to plain values: every declared attribute,
// every relationship field as a list of neighbor element ids, and "type"
// holding the kind label.
type FlatVertex map[string]any

// Kind returns the value of the "type" key.
func (v FlatVertex) Kind() string {
	s, _ := v["type"].(string)
	return s
}

// FlatEdge is one directed relationship of the export.
type FlatEdge struct {
	StartNode  string         `json:"start_node" yaml:"start_node"`
	EndNode    string         `json:"end_node" yaml:"end_node"`
	Type       string         `json:"type" yaml:"type"`
	Properties map[string]any `json:"properties" yaml:"properties"`
}

// Export is the flattened graph: vertices keyed by element id and one edge
// per directed relationship.
type Export struct {
	Vertices map[string]FlatVertex `json:"vertices" yaml:"vertices"`
	Edges    []FlatEdge            `json:"edges" yaml:"edges"`
}

// ExportGraph flattens the whole graph.
//
// The export is edge driven: vertices that take part in no relationship are
// not included. Each vertex is materialized once, the first time an edge
// touches it, and its relationship fields are read through from the store.
// A node whose label is not a known kind aborts the export with
// ErrUnknownVertexKind.
func (s *Store) ExportGraph(ctx context.Context) (*Export, error) {
	start := time.Now()

	records, err := s.client.Edges(ctx)
	if err != nil {
		return nil, err
	}

	export := &Export{
		Vertices: make(map[string]FlatVertex),
		Edges:    make([]FlatEdge, 0, len(records)),
	}

	for _, rec := range records {
		for _, node := range []graph.Node{rec.Parent, rec.Child} {
			if _, seen := export.Vertices[node.ID]; seen {
				continue
			}
			flat, err := s.flatten(ctx, node)
			if err != nil {
				return nil, err
			}
			export.Vertices[node.ID] = flat
		}

		props := rec.Edge.Props
		if props == nil {
			props = map[string]any{}
		}
		export.Edges = append(export.Edges, FlatEdge{
			StartNode:  rec.Parent.ID,
			EndNode:    rec.Child.ID,
			Type:       rec.Edge.Type,
			Properties: props,
		})
	}

	s.logger.Info("exported graph",
		slog.Int("vertices", len(export.Vertices)),
		slog.Int("edges", len(export.Edges)),
		slog.Duration("duration", time.Since(start)))
	return export, nil
}

func (s *Store) flatten(ctx context.Context, node graph.Node) (FlatVertex, error) {
	v, err := schema.FromNode(node)
	if err != nil {
		return nil, err
	}

	flat := FlatVertex{}
	for k, val := range v.Attributes() {
		flat[k] = val
	}
	for _, rel := range schema.MustLookup(v.Kind()).Relationships {
		ids, err := s.client.Neighbors(ctx, node.ID, rel.Type, rel.Direction, rel.Target.String())
		if err != nil {
			return nil, err
		}
		if ids == nil {
			ids = []string{}
		}
		flat[rel.Field] = ids
	}
	flat["type"] = v.Kind().String()
	return flat, nil
}

// WriteJSON writes the export as JSON, indented when pretty is set.
func (e *Export) WriteJSON(w io.Writer, pretty bool) error {
	enc := json.NewEncoder(w)
	if pretty {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(e)
}

// WriteYAML writes the export as YAML. Map keys are emitted in sorted order.
func (e *Export) WriteYAML(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(e); err != nil {
		return err
	}
	return enc.Close()
}
