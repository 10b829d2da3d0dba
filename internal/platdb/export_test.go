package platdb

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/astrolabe-oss/corelib/internal/schema"
)

type sampleGraph struct {
	store              *Store
	compute1, compute2 schema.Vertex
	app1, app2         schema.Vertex
}

// buildSampleGraph creates compute1-RUNS->app1, compute2-RUNS->app2,
// app1-CALLS->app2 and app2-CALLED_BY->app1.
func buildSampleGraph(t *testing.T) sampleGraph {
	t.Helper()
	ctx := context.Background()
	s, _ := newTestStore(t)

	g := sampleGraph{
		store:    s,
		compute1: mustCreate(t, s, schema.KindCompute, map[string]any{"name": "compute1", "address": "10.0.0.1"}),
		compute2: mustCreate(t, s, schema.KindCompute, map[string]any{"name": "compute2", "address": "10.0.0.2"}),
		app1:     mustCreate(t, s, schema.KindApplication, map[string]any{"name": "app1"}),
		app2:     mustCreate(t, s, schema.KindApplication, map[string]any{"name": "app2"}),
	}

	require.NoError(t, s.Relate(ctx, g.compute1, "applications", g.app1, nil))
	require.NoError(t, s.Relate(ctx, g.compute2, "applications", g.app2, nil))
	require.NoError(t, s.Relate(ctx, g.app1, "calls", g.app2, map[string]any{"protocol": "http"}))
	require.NoError(t, s.Relate(ctx, g.app1, "called_by", g.app2, nil))
	return g
}

func TestExportGraph_Shape(t *testing.T) {
	g := buildSampleGraph(t)

	export, err := g.store.ExportGraph(context.Background())
	require.NoError(t, err)

	assert.Len(t, export.Vertices, 4)
	assert.Len(t, export.Edges, 4)

	for _, e := range export.Edges {
		assert.Contains(t, export.Vertices, e.StartNode)
		assert.Contains(t, export.Vertices, e.EndNode)
		assert.NotNil(t, e.Properties)
	}

	var compute1ID string
	for id, v := range export.Vertices {
		if v.Kind() == "Compute" && v["name"] == "compute1" {
			compute1ID = id
		}
	}
	require.Equal(t, g.compute1.ElementID(), compute1ID)

	var fromCompute1 []FlatEdge
	for _, e := range export.Edges {
		if e.StartNode == compute1ID {
			fromCompute1 = append(fromCompute1, e)
		}
	}
	require.Len(t, fromCompute1, 1)
	assert.Equal(t, schema.RelRuns, fromCompute1[0].Type)
	assert.Equal(t, "app1", export.Vertices[fromCompute1[0].EndNode]["name"])
}

func TestExportGraph_FlatVertex(t *testing.T) {
	g := buildSampleGraph(t)

	export, err := g.store.ExportGraph(context.Background())
	require.NoError(t, err)

	app1 := export.Vertices[g.app1.ElementID()]
	require.NotNil(t, app1)
	assert.Equal(t, "Application", app1["type"])
	assert.Equal(t, "app1", app1["name"])
	assert.Equal(t, []string{g.app2.ElementID()}, app1["calls"])
	assert.Equal(t, []string{g.app2.ElementID()}, app1["called_by"])
	assert.Equal(t, []string{g.compute1.ElementID()}, app1["compute"])
	assert.Equal(t, []string{}, app1["resources"])
	assert.Contains(t, app1, "profile_timestamp")
	assert.Nil(t, app1["profile_timestamp"])

	compute1 := export.Vertices[g.compute1.ElementID()]
	assert.Equal(t, "Compute", compute1["type"])
	assert.Equal(t, "10.0.0.1", compute1["address"])
	assert.Equal(t, []string{g.app1.ElementID()}, compute1["applications"])
	assert.Equal(t, []string{}, compute1["calls"])

	var calls FlatEdge
	for _, e := range export.Edges {
		if e.Type == schema.RelCalls {
			calls = e
		}
	}
	assert.Equal(t, g.app1.ElementID(), calls.StartNode)
	assert.Equal(t, g.app2.ElementID(), calls.EndNode)
	assert.Equal(t, map[string]any{"protocol": "http"}, calls.Properties)
}

func TestExportGraph_SkipsIsolatedVertices(t *testing.T) {
	g := buildSampleGraph(t)
	lonely := mustCreate(t, g.store, schema.KindRepo, map[string]any{"name": "lonely"})

	export, err := g.store.ExportGraph(context.Background())
	require.NoError(t, err)
	assert.NotContains(t, export.Vertices, lonely.ElementID())
	assert.Len(t, export.Vertices, 4)
}

func TestExportGraph_Idempotent(t *testing.T) {
	g := buildSampleGraph(t)
	ctx := context.Background()

	first, err := g.store.ExportGraph(ctx)
	require.NoError(t, err)
	second, err := g.store.ExportGraph(ctx)
	require.NoError(t, err)

	assert.Equal(t, first.Vertices, second.Vertices)
	assert.ElementsMatch(t, first.Edges, second.Edges)
}

func TestExportGraph_Empty(t *testing.T) {
	s, _ := newTestStore(t)

	export, err := s.ExportGraph(context.Background())
	require.NoError(t, err)
	assert.Empty(t, export.Vertices)
	assert.Empty(t, export.Edges)

	var buf bytes.Buffer
	require.NoError(t, export.WriteJSON(&buf, false))
	assert.JSONEq(t, `{"vertices":{},"edges":[]}`, buf.String())
}

func TestExportGraph_UnknownLabelAborts(t *testing.T) {
	ctx := context.Background()
	s, mock := newTestStore(t)

	app := mustCreate(t, s, schema.KindApplication, map[string]any{"name": "app"})
	stranger, err := mock.CreateNode(ctx, []string{"Mystery"}, map[string]any{"name": "?"})
	require.NoError(t, err)
	require.NoError(t, mock.CreateRelationship(ctx, stranger, app.ElementID(), "KNOWS", nil))

	export, err := s.ExportGraph(ctx)
	assert.ErrorIs(t, err, ErrUnknownVertexKind)
	assert.Nil(t, export)
}

func TestExport_WriteJSON(t *testing.T) {
	g := buildSampleGraph(t)
	export, err := g.store.ExportGraph(context.Background())
	require.NoError(t, err)

	for _, pretty := range []bool{false, true} {
		var buf bytes.Buffer
		require.NoError(t, export.WriteJSON(&buf, pretty))

		var doc struct {
			Vertices map[string]map[string]any `json:"vertices"`
			Edges    []map[string]any          `json:"edges"`
		}
		require.NoError(t, json.Unmarshal(buf.Bytes(), &doc))
		assert.Len(t, doc.Vertices, 4)
		require.Len(t, doc.Edges, 4)
		for _, key := range []string{"start_node", "end_node", "type", "properties"} {
			assert.Contains(t, doc.Edges[0], key)
		}
		assert.Equal(t, pretty, bytes.Contains(buf.Bytes(), []byte("\n  ")))
	}
}

func TestExport_WriteYAML(t *testing.T) {
	g := buildSampleGraph(t)
	export, err := g.store.ExportGraph(context.Background())
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, export.WriteYAML(&buf))

	var doc map[string]any
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &doc))
	assert.Len(t, doc["vertices"], 4)
	assert.Len(t, doc["edges"], 4)
	assert.Contains(t, buf.String(), "start_node: ")
}
