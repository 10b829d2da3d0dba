//go:build integration && docker

package graph_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/astrolabe-oss/corelib/internal/graph"
	"github.com/astrolabe-oss/corelib/internal/graph/neo4jtest"
)

func TestNeo4jClient_Lifecycle(t *testing.T) {
	ctx := context.Background()
	client := neo4jtest.Connect(t)

	assert.True(t, client.Health(ctx).IsHealthy())

	t.Run("create find update", func(t *testing.T) {
		ts := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
		id, err := client.CreateNode(ctx, []string{"Resource"}, map[string]any{
			"name":              "db",
			"dns_names":         []string{"db.internal"},
			"profile_timestamp": ts,
			"address":           nil,
		})
		require.NoError(t, err)

		nodes, err := client.FindNodes(ctx, "Resource", map[string]any{"dns_names": []string{"db.internal"}})
		require.NoError(t, err)
		require.Len(t, nodes, 1)
		assert.Equal(t, id, nodes[0].ID)
		assert.Equal(t, []any{"db.internal"}, nodes[0].Props["dns_names"])
		assert.NotContains(t, nodes[0].Props, "address")

		require.NoError(t, client.SetNodeProperties(ctx, id, map[string]any{"name": nil, "address": "10.0.0.9"}))
		nodes, err = client.FindNodes(ctx, "Resource", map[string]any{"address": "10.0.0.9"})
		require.NoError(t, err)
		require.Len(t, nodes, 1)
		assert.NotContains(t, nodes[0].Props, "name")
	})

	t.Run("relationships and edges", func(t *testing.T) {
		compute, err := client.CreateNode(ctx, []string{"Compute"}, map[string]any{"name": "compute1"})
		require.NoError(t, err)
		app, err := client.CreateNode(ctx, []string{"Application"}, map[string]any{"name": "app1"})
		require.NoError(t, err)
		require.NoError(t, client.CreateRelationship(ctx, compute, app, "RUNS", map[string]any{"since": "2024"}))

		ids, err := client.Neighbors(ctx, compute, "RUNS", graph.DirectionOutgoing, "Application")
		require.NoError(t, err)
		assert.Equal(t, []string{app}, ids)

		ids, err = client.Neighbors(ctx, app, "RUNS", graph.DirectionIncoming, "Compute")
		require.NoError(t, err)
		assert.Equal(t, []string{compute}, ids)

		edges, err := client.Edges(ctx)
		require.NoError(t, err)
		require.Len(t, edges, 1)
		assert.Equal(t, compute, edges[0].Parent.ID)
		assert.Equal(t, []string{"Compute"}, edges[0].Parent.Labels)
		assert.Equal(t, "RUNS", edges[0].Edge.Type)
		assert.Equal(t, "2024", edges[0].Edge.Props["since"])
		assert.Equal(t, app, edges[0].Child.ID)

		require.NoError(t, client.DeleteNode(ctx, compute))
		edges, err = client.Edges(ctx)
		require.NoError(t, err)
		assert.Empty(t, edges)
	})

	t.Run("unique constraint", func(t *testing.T) {
		require.NoError(t, client.EnsureUniqueConstraint(ctx, "Compute", "address"))
		require.NoError(t, client.EnsureUniqueConstraint(ctx, "Compute", "address"))

		_, err := client.CreateNode(ctx, []string{"Compute"}, map[string]any{"address": "10.1.1.1"})
		require.NoError(t, err)
		_, err = client.CreateNode(ctx, []string{"Compute"}, map[string]any{"address": "10.1.1.1"})
		assert.ErrorIs(t, err, graph.ErrConstraintViolation)
	})

	t.Run("credentials are not reusable", func(t *testing.T) {
		require.NoError(t, client.Close(ctx))
		err := client.Connect(ctx)
		assert.Error(t, err)
	})
}
