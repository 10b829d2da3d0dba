package graph

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/astrolabe-oss/corelib/internal/types"
)

// Span names emitted by TracedGraphClient.
const (
	SpanGraphConnect          = "corelib.graph.connect"
	SpanGraphClose            = "corelib.graph.close"
	SpanGraphHealth           = "corelib.graph.health"
	SpanGraphCreateNode       = "corelib.graph.create_node"
	SpanGraphSetProperties    = "corelib.graph.set_properties"
	SpanGraphDeleteNode       = "corelib.graph.delete_node"
	SpanGraphCreateRel        = "corelib.graph.create_relationship"
	SpanGraphFindNodes        = "corelib.graph.find_nodes"
	SpanGraphNeighbors        = "corelib.graph.neighbors"
	SpanGraphEdges            = "corelib.graph.edges"
	SpanGraphEnsureConstraint = "corelib.graph.ensure_constraint"
)

// Attribute keys set on graph spans.
const (
	AttrDBSystem     = attribute.Key("db.system")
	AttrGraphLabel   = attribute.Key("corelib.graph.label")
	AttrGraphNodeID  = attribute.Key("corelib.graph.node_id")
	AttrGraphRelType = attribute.Key("corelib.graph.relationship_type")
	AttrGraphCount   = attribute.Key("corelib.graph.result_count")
	AttrGraphMatch   = attribute.Key("corelib.graph.match_keys")
)

// TracedGraphClient wraps a GraphClient with OpenTelemetry tracing.
// Every operation gets its own span; failures are recorded on the span and
// returned unchanged.
//
// Thread-safety: Safe for concurrent access (delegates to inner client).
type TracedGraphClient struct {
	inner  GraphClient
	tracer trace.Tracer
	system string
}

// NewTracedGraphClient wraps inner so each call produces a span from tracer.
//
// Example:
//
//	traced := graph.NewTracedGraphClient(client, otel.Tracer("corelib.graph"))
func NewTracedGraphClient(inner GraphClient, tracer trace.Tracer) *TracedGraphClient {
	return &TracedGraphClient{
		inner:  inner,
		tracer: tracer,
		system: "neo4j",
	}
}

func (t *TracedGraphClient) start(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	ctx, span := t.tracer.Start(ctx, name, trace.WithSpanKind(trace.SpanKindClient))
	span.SetAttributes(AttrDBSystem.String(t.system))
	span.SetAttributes(attrs...)
	return ctx, span
}

func finish(span trace.Span, start time.Time, err error) {
	span.SetAttributes(attribute.Float64("corelib.graph.duration_ms", float64(time.Since(start).Milliseconds())))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		if code := types.CodeOf(err); code != "" {
			span.SetAttributes(attribute.String("error.code", string(code)))
		}
		return
	}
	span.SetStatus(codes.Ok, "")
}

// Connect establishes the inner connection under a span.
func (t *TracedGraphClient) Connect(ctx context.Context) error {
	ctx, span := t.start(ctx, SpanGraphConnect)
	defer span.End()

	start := time.Now()
	err := t.inner.Connect(ctx)
	finish(span, start, err)
	return err
}

// Close closes the inner connection under a span.
func (t *TracedGraphClient) Close(ctx context.Context) error {
	ctx, span := t.start(ctx, SpanGraphClose)
	defer span.End()

	start := time.Now()
	err := t.inner.Close(ctx)
	finish(span, start, err)
	return err
}

// Health reports the inner client's health under a span.
func (t *TracedGraphClient) Health(ctx context.Context) types.HealthStatus {
	ctx, span := t.start(ctx, SpanGraphHealth)
	defer span.End()

	status := t.inner.Health(ctx)
	span.SetAttributes(attribute.String("corelib.graph.health", status.State.String()))
	if !status.IsHealthy() {
		span.SetStatus(codes.Error, status.Message)
	}
	return status
}

// CreateNode creates a node under a span.
func (t *TracedGraphClient) CreateNode(ctx context.Context, labels []string, props map[string]any) (string, error) {
	ctx, span := t.start(ctx, SpanGraphCreateNode, AttrGraphLabel.StringSlice(labels))
	defer span.End()

	start := time.Now()
	id, err := t.inner.CreateNode(ctx, labels, props)
	if err == nil {
		span.SetAttributes(AttrGraphNodeID.String(id))
	}
	finish(span, start, err)
	return id, err
}

// SetNodeProperties updates a node under a span.
func (t *TracedGraphClient) SetNodeProperties(ctx context.Context, nodeID string, props map[string]any) error {
	ctx, span := t.start(ctx, SpanGraphSetProperties,
		AttrGraphNodeID.String(nodeID),
		attribute.Int("corelib.graph.property_count", len(props)))
	defer span.End()

	start := time.Now()
	err := t.inner.SetNodeProperties(ctx, nodeID, props)
	finish(span, start, err)
	return err
}

// DeleteNode deletes a node under a span.
func (t *TracedGraphClient) DeleteNode(ctx context.Context, nodeID string) error {
	ctx, span := t.start(ctx, SpanGraphDeleteNode, AttrGraphNodeID.String(nodeID))
	defer span.End()

	start := time.Now()
	err := t.inner.DeleteNode(ctx, nodeID)
	finish(span, start, err)
	return err
}

// CreateRelationship creates a relationship under a span.
func (t *TracedGraphClient) CreateRelationship(ctx context.Context, fromID, toID, relType string, props map[string]any) error {
	ctx, span := t.start(ctx, SpanGraphCreateRel,
		AttrGraphRelType.String(relType),
		attribute.String("corelib.graph.from_id", fromID),
		attribute.String("corelib.graph.to_id", toID))
	defer span.End()

	start := time.Now()
	err := t.inner.CreateRelationship(ctx, fromID, toID, relType, props)
	finish(span, start, err)
	return err
}

// FindNodes runs an exact-match lookup under a span. Only match keys are
// recorded, never values.
func (t *TracedGraphClient) FindNodes(ctx context.Context, label string, match map[string]any) ([]Node, error) {
	keys := make([]string, 0, len(match))
	for k := range match {
		keys = append(keys, k)
	}
	ctx, span := t.start(ctx, SpanGraphFindNodes, AttrGraphLabel.String(label), AttrGraphMatch.StringSlice(keys))
	defer span.End()

	start := time.Now()
	nodes, err := t.inner.FindNodes(ctx, label, match)
	span.SetAttributes(AttrGraphCount.Int(len(nodes)))
	finish(span, start, err)
	return nodes, err
}

// Neighbors reads relationship neighbors under a span.
func (t *TracedGraphClient) Neighbors(ctx context.Context, nodeID, relType string, dir Direction, label string) ([]string, error) {
	ctx, span := t.start(ctx, SpanGraphNeighbors,
		AttrGraphNodeID.String(nodeID),
		AttrGraphRelType.String(relType),
		attribute.String("corelib.graph.direction", dir.String()),
		AttrGraphLabel.String(label))
	defer span.End()

	start := time.Now()
	ids, err := t.inner.Neighbors(ctx, nodeID, relType, dir, label)
	span.SetAttributes(AttrGraphCount.Int(len(ids)))
	finish(span, start, err)
	return ids, err
}

// Edges runs the whole-graph traversal under a span.
func (t *TracedGraphClient) Edges(ctx context.Context) ([]EdgeRecord, error) {
	ctx, span := t.start(ctx, SpanGraphEdges)
	defer span.End()

	start := time.Now()
	edges, err := t.inner.Edges(ctx)
	span.SetAttributes(AttrGraphCount.Int(len(edges)))
	finish(span, start, err)
	return edges, err
}

// EnsureUniqueConstraint declares a constraint under a span.
func (t *TracedGraphClient) EnsureUniqueConstraint(ctx context.Context, label, property string) error {
	ctx, span := t.start(ctx, SpanGraphEnsureConstraint,
		AttrGraphLabel.String(label),
		attribute.String("corelib.graph.property", property))
	defer span.End()

	start := time.Now()
	err := t.inner.EnsureUniqueConstraint(ctx, label, property)
	finish(span, start, err)
	return err
}

var _ GraphClient = (*TracedGraphClient)(nil)
var _ GraphClient = (*MockGraphClient)(nil)
var _ GraphClient = (*Neo4jClient)(nil)
