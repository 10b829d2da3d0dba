package platdb

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/astrolabe-oss/corelib/internal/graph"
	"github.com/astrolabe-oss/corelib/internal/schema"
	"github.com/astrolabe-oss/corelib/internal/types"
)

func newTestStore(t *testing.T, opts ...StoreOption) (*Store, *graph.MockGraphClient) {
	t.Helper()
	mock := graph.NewMockGraphClient()
	require.NoError(t, mock.Connect(context.Background()))
	return NewStore(mock, opts...), mock
}

// steppingClock returns a clock that advances by step on every call.
func steppingClock(start time.Time, step time.Duration) func() time.Time {
	next := start
	return func() time.Time {
		now := next
		next = next.Add(step)
		return now
	}
}

func mustCreate(t *testing.T, s *Store, kind schema.Kind, attrs map[string]any) schema.Vertex {
	t.Helper()
	v, err := schema.Decode(kind, attrs)
	require.NoError(t, err)
	created, err := s.Create(context.Background(), v)
	require.NoError(t, err)
	require.NotEmpty(t, created.ElementID())
	return created
}

func validPayloads() map[schema.Kind]map[string]any {
	return map[schema.Kind]map[string]any{
		schema.KindApplication: {"name": "checkout"},
		schema.KindCDN:         {"name": "edge-cdn"},
		schema.KindCompute: {
			"name":                 "ip-10-0-0-1",
			"platform":             "ec2",
			"address":              "10.0.0.1",
			"protocol":             "TCP",
			"protocol_multiplexor": "8080",
		},
		schema.KindDeployment: {
			"deployment_type":      "target_group",
			"name":                 "checkout-tg",
			"address":              "arn:aws:elasticloadbalancing:tg/checkout",
			"protocol":             "HTTP",
			"protocol_multiplexor": "80",
		},
		schema.KindEgressController: {"name": "nat-gw"},
		schema.KindInsights: {
			"attribute_name":  "instance_type",
			"recommendation":  "downsize",
			"starting_state":  "m5.xlarge",
			"upgraded_state":  "m5.large",
			"min_improvement": 0.1,
			"note":            "low cpu",
		},
		schema.KindRepo: {"name": "github.com/acme/checkout"},
		schema.KindResource: {
			"name":      "orders-db",
			"address":   "10.0.1.5",
			"dns_names": []string{"orders.db.internal"},
			"protocol":  "TCP",
		},
		schema.KindTrafficController: {
			"name":      "public-alb",
			"address":   "10.0.2.9",
			"dns_names": []string{"alb.acme.com", "www.acme.com"},
		},
	}
}

func TestStore_CreateThenFindRoundTrip(t *testing.T) {
	payloads := validPayloads()
	for _, kind := range schema.Kinds() {
		t.Run(kind.String(), func(t *testing.T) {
			s, _ := newTestStore(t)
			attrs, ok := payloads[kind]
			require.True(t, ok, "missing payload")

			created := mustCreate(t, s, kind, attrs)

			found, err := s.FindOneByAttributes(context.Background(), kind, attrs)
			require.NoError(t, err)
			assert.Equal(t, created.ElementID(), found.ElementID())
			assert.Equal(t, kind, found.Kind())

			got := found.Attributes()
			for k, want := range attrs {
				assert.Equal(t, want, got[k], "attribute %s", k)
			}
		})
	}
}

func TestStore_CreateRejectsInvalidVertex(t *testing.T) {
	s, mock := newTestStore(t)

	v, err := schema.Decode(schema.KindCompute, map[string]any{"name": "no-address"})
	require.NoError(t, err)

	_, err = s.Create(context.Background(), v)
	require.Error(t, err)
	assert.ErrorIs(t, err, schema.ErrValidation)
	assert.Equal(t, 0, mock.CallCount("CreateNode"))
}

func TestStore_CreateRejectsPersistedVertex(t *testing.T) {
	s, _ := newTestStore(t)
	v := mustCreate(t, s, schema.KindApplication, map[string]any{"name": "a"})

	_, err := s.Create(context.Background(), v)
	require.Error(t, err)
	assert.Equal(t, types.VERTEX_VALIDATION_FAILED, types.CodeOf(err))
}

func TestStore_SaveCreatesThenUpdates(t *testing.T) {
	s, mock := newTestStore(t)
	ctx := context.Background()

	app := &schema.Application{Name: "first"}
	require.NoError(t, s.Save(ctx, app))
	require.NotEmpty(t, app.ElementID())

	app.Name = "second"
	require.NoError(t, s.Save(ctx, app))

	assert.Equal(t, 1, mock.CallCount("CreateNode"))
	assert.Equal(t, 1, mock.CallCount("SetNodeProperties"))

	nodes := mock.GetNodes()
	require.Len(t, nodes, 1)
	assert.Equal(t, "second", nodes[0].Props["name"])
}

func TestStore_SaveClearsUnsetAttributes(t *testing.T) {
	s, mock := newTestStore(t)
	ctx := context.Background()

	c := mustCreate(t, s, schema.KindCompute, map[string]any{
		"address":  "10.0.0.1",
		"platform": "ec2",
	}).(*schema.Compute)

	c.Platform = ""
	require.NoError(t, s.Save(ctx, c))

	nodes := mock.GetNodes()
	require.Len(t, nodes, 1)
	assert.NotContains(t, nodes[0].Props, "platform")
	assert.Equal(t, "10.0.0.1", nodes[0].Props["address"])
}

func TestStore_FindOneByAttributes(t *testing.T) {
	ctx := context.Background()

	t.Run("not found", func(t *testing.T) {
		s, _ := newTestStore(t)
		_, err := s.FindOneByAttributes(ctx, schema.KindApplication, map[string]any{"name": "missing"})
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("unknown attribute", func(t *testing.T) {
		s, mock := newTestStore(t)
		_, err := s.FindOneByAttributes(ctx, schema.KindApplication, map[string]any{"colour": "red"})
		assert.ErrorIs(t, err, schema.ErrUnknownAttribute)
		assert.Equal(t, 0, mock.CallCount("FindNodes"))
	})

	t.Run("unknown kind", func(t *testing.T) {
		s, _ := newTestStore(t)
		_, err := s.FindOneByAttributes(ctx, schema.Kind("Mystery"), map[string]any{"name": "x"})
		assert.ErrorIs(t, err, schema.ErrUnknownVertexKind)
	})

	t.Run("several matches returns first and warns", func(t *testing.T) {
		var buf bytes.Buffer
		logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
		s, _ := newTestStore(t, WithLogger(logger))

		first := mustCreate(t, s, schema.KindApplication, map[string]any{"name": "dup"})
		mustCreate(t, s, schema.KindApplication, map[string]any{"name": "dup"})

		found, err := s.FindOneByAttributes(ctx, schema.KindApplication, map[string]any{"name": "dup"})
		require.NoError(t, err)
		assert.Equal(t, first.ElementID(), found.ElementID())
		assert.Contains(t, buf.String(), "attribute match is not unique")
	})

	t.Run("string values are converted", func(t *testing.T) {
		s, _ := newTestStore(t)
		ts := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
		created := mustCreate(t, s, schema.KindApplication, map[string]any{
			"name":              "stamped",
			"profile_timestamp": ts,
		})

		found, err := s.FindOneByAttributes(ctx, schema.KindApplication, map[string]any{
			"profile_timestamp": "2024-03-01T12:00:00Z",
		})
		require.NoError(t, err)
		assert.Equal(t, created.ElementID(), found.ElementID())
	})

	t.Run("store error propagates", func(t *testing.T) {
		s, mock := newTestStore(t)
		boom := errors.New("boom")
		mock.SetMethodError("FindNodes", boom)

		_, err := s.FindOneByAttributes(ctx, schema.KindApplication, map[string]any{"name": "x"})
		assert.ErrorIs(t, err, boom)
	})
}

func TestStore_UpdateByAttributes(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)

	before := mustCreate(t, s, schema.KindCompute, map[string]any{
		"name":     "c1",
		"platform": "ec2",
		"address":  "10.0.0.1",
		"protocol": "TCP",
	})
	beforeAttrs := before.Attributes()

	updated, err := s.UpdateByAttributes(ctx, schema.KindCompute,
		map[string]any{"address": "10.0.0.1"},
		map[string]any{"platform": "k8s", "name": "c1-renamed"})
	require.NoError(t, err)
	require.NotNil(t, updated)
	assert.Equal(t, before.ElementID(), updated.ElementID())

	reloaded, err := s.FindOneByAttributes(ctx, schema.KindCompute, map[string]any{"address": "10.0.0.1"})
	require.NoError(t, err)

	for _, v := range []schema.Vertex{updated, reloaded} {
		attrs := v.Attributes()
		assert.Equal(t, "k8s", attrs["platform"])
		assert.Equal(t, "c1-renamed", attrs["name"])
		for _, k := range []string{"address", "protocol", "protocol_multiplexor", "profile_timestamp"} {
			assert.Equal(t, beforeAttrs[k], attrs[k], "attribute %s", k)
		}
	}
}

func TestStore_UpdateByAttributesDropsUndeclaredKeys(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)
	mustCreate(t, s, schema.KindApplication, map[string]any{"name": "a"})

	updated, err := s.UpdateByAttributes(ctx, schema.KindApplication,
		map[string]any{"name": "a"},
		map[string]any{"name": "b", "colour": "red"})
	require.NoError(t, err)
	require.NotNil(t, updated)
	assert.Equal(t, "b", updated.Attributes()["name"])
	assert.NotContains(t, updated.Attributes(), "colour")
}

func TestStore_MissingMatchIsNotAnError(t *testing.T) {
	ctx := context.Background()
	s, mock := newTestStore(t)

	updated, err := s.UpdateByAttributes(ctx, schema.KindApplication,
		map[string]any{"name": "ghost"}, map[string]any{"name": "still-ghost"})
	assert.NoError(t, err)
	assert.Nil(t, updated)

	deleted, err := s.DeleteByAttributes(ctx, schema.KindApplication, map[string]any{"name": "ghost"})
	assert.NoError(t, err)
	assert.False(t, deleted)

	assert.Equal(t, 0, mock.CallCount("SetNodeProperties"))
	assert.Equal(t, 0, mock.CallCount("DeleteNode"))
}

func TestStore_DeleteByAttributes(t *testing.T) {
	ctx := context.Background()
	s, mock := newTestStore(t)

	app := mustCreate(t, s, schema.KindApplication, map[string]any{"name": "doomed"})
	other := mustCreate(t, s, schema.KindApplication, map[string]any{"name": "caller"})
	require.NoError(t, s.Relate(ctx, other, "calls", app, nil))

	deleted, err := s.DeleteByAttributes(ctx, schema.KindApplication, map[string]any{"name": "doomed"})
	require.NoError(t, err)
	assert.True(t, deleted)

	_, err = s.FindOneByAttributes(ctx, schema.KindApplication, map[string]any{"name": "doomed"})
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Empty(t, mock.GetRelationships())
}

func TestStore_InsightsLifecycle(t *testing.T) {
	ctx := context.Background()
	t0 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	s, _ := newTestStore(t, WithClock(steppingClock(t0, time.Minute)))

	insight := &schema.Insights{
		AttributeName:  "instance_type",
		Recommendation: "downsize",
		StartingState:  "m5.xlarge",
		UpgradedState:  "m5.large",
	}
	require.NoError(t, s.Save(ctx, insight))
	require.NotNil(t, insight.Created)
	require.NotNil(t, insight.Updated)
	assert.True(t, insight.Created.Equal(t0))
	assert.True(t, insight.Updated.Equal(t0))

	insight.Note = "second pass"
	require.NoError(t, s.Save(ctx, insight))
	assert.True(t, insight.Created.Equal(t0))
	assert.True(t, insight.Updated.Equal(t0.Add(time.Minute)))

	updated, err := s.UpdateByAttributes(ctx, schema.KindInsights,
		map[string]any{"attribute_name": "instance_type"},
		map[string]any{"recommendation": "terminate", "created": "1999-01-01T00:00:00Z"})
	require.NoError(t, err)
	require.NotNil(t, updated)

	got := updated.(*schema.Insights)
	assert.Equal(t, "terminate", got.Recommendation)
	assert.True(t, got.Created.Equal(t0), "created must not change once set")
	assert.True(t, got.Updated.Equal(t0.Add(2*time.Minute)))

	reloaded, err := s.FindOneByAttributes(ctx, schema.KindInsights, map[string]any{"recommendation": "terminate"})
	require.NoError(t, err)
	stored := reloaded.(*schema.Insights)
	assert.True(t, stored.Created.Equal(t0))
	assert.True(t, stored.Updated.After(*stored.Created))
}

func TestStore_InsightsKeepsSuppliedCreated(t *testing.T) {
	s, _ := newTestStore(t)
	supplied := time.Date(2020, 6, 1, 0, 0, 0, 0, time.UTC)

	insight := &schema.Insights{
		AttributeName:  "a",
		Recommendation: "r",
		StartingState:  "s",
		UpgradedState:  "u",
		Created:        &supplied,
	}
	require.NoError(t, s.Save(context.Background(), insight))
	assert.True(t, insight.Created.Equal(supplied))
	assert.True(t, insight.Updated.After(supplied))
}

func TestStore_List(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	a := mustCreate(t, s, schema.KindApplication, map[string]any{"name": "a"})
	b := mustCreate(t, s, schema.KindApplication, map[string]any{"name": "b"})
	mustCreate(t, s, schema.KindRepo, map[string]any{"name": "r"})

	apps, err := s.List(ctx, schema.KindApplication)
	require.NoError(t, err)
	require.Len(t, apps, 2)
	assert.Equal(t, a.ElementID(), apps[0].ElementID())
	assert.Equal(t, b.ElementID(), apps[1].ElementID())

	_, err = s.List(ctx, schema.Kind("Mystery"))
	assert.ErrorIs(t, err, schema.ErrUnknownVertexKind)
}

func TestStore_Relate(t *testing.T) {
	ctx := context.Background()

	t.Run("incoming field stores reversed edge", func(t *testing.T) {
		s, mock := newTestStore(t)
		app1 := mustCreate(t, s, schema.KindApplication, map[string]any{"name": "app1"})
		app2 := mustCreate(t, s, schema.KindApplication, map[string]any{"name": "app2"})

		require.NoError(t, s.Relate(ctx, app1, "called_by", app2, map[string]any{"protocol": "http"}))

		rels := mock.GetRelationships()
		require.Len(t, rels, 1)
		assert.Equal(t, app2.ElementID(), rels[0].StartID)
		assert.Equal(t, app1.ElementID(), rels[0].EndID)
		assert.Equal(t, schema.RelCalledBy, rels[0].Type)
		assert.Equal(t, "http", rels[0].Props["protocol"])

		ids, err := s.Neighbors(ctx, app1, "called_by")
		require.NoError(t, err)
		assert.Equal(t, []string{app2.ElementID()}, ids)
	})

	t.Run("target kind mismatch", func(t *testing.T) {
		s, _ := newTestStore(t)
		app := mustCreate(t, s, schema.KindApplication, map[string]any{"name": "app"})
		repo := mustCreate(t, s, schema.KindRepo, map[string]any{"name": "repo"})

		err := s.Relate(ctx, app, "calls", repo, nil)
		assert.ErrorIs(t, err, ErrTargetMismatch)
	})

	t.Run("unknown field", func(t *testing.T) {
		s, _ := newTestStore(t)
		app := mustCreate(t, s, schema.KindApplication, map[string]any{"name": "app"})

		err := s.Relate(ctx, app, "friends", app, nil)
		assert.ErrorIs(t, err, schema.ErrUnknownRelation)

		_, err = s.Neighbors(ctx, app, "friends")
		assert.ErrorIs(t, err, schema.ErrUnknownRelation)
	})

	t.Run("unsaved vertex", func(t *testing.T) {
		s, mock := newTestStore(t)
		app := mustCreate(t, s, schema.KindApplication, map[string]any{"name": "app"})

		err := s.Relate(ctx, app, "calls", &schema.Application{Name: "draft"}, nil)
		assert.ErrorIs(t, err, ErrNotPersisted)
		assert.Equal(t, 0, mock.CallCount("CreateRelationship"))
	})
}

func TestStore_EnsureConstraints(t *testing.T) {
	ctx := context.Background()
	s, mock := newTestStore(t)

	require.NoError(t, s.EnsureConstraints(ctx))
	require.NoError(t, s.EnsureConstraints(ctx))

	var unique int
	for _, kind := range schema.Kinds() {
		for _, f := range schema.MustLookup(kind).Fields {
			if f.Unique {
				unique++
			}
		}
	}
	assert.Equal(t, 2*unique, mock.CallCount("EnsureUniqueConstraint"))

	mustCreate(t, s, schema.KindCompute, map[string]any{"address": "10.0.0.1"})
	dup, err := schema.Decode(schema.KindCompute, map[string]any{"address": "10.0.0.1"})
	require.NoError(t, err)
	_, err = s.Create(ctx, dup)
	assert.ErrorIs(t, err, graph.ErrConstraintViolation)
}

func TestStore_ClosedClient(t *testing.T) {
	ctx := context.Background()
	s, mock := newTestStore(t)
	require.NoError(t, mock.Close(ctx))

	_, err := s.FindOneByAttributes(ctx, schema.KindApplication, map[string]any{"name": "x"})
	assert.ErrorIs(t, err, graph.ErrConnectionClosed)

	_, err = s.DeleteByAttributes(ctx, schema.KindApplication, map[string]any{"name": "x"})
	assert.ErrorIs(t, err, graph.ErrConnectionClosed)
}
