package graph

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func newTracedMock(t *testing.T) (*TracedGraphClient, *MockGraphClient, *tracetest.SpanRecorder) {
	t.Helper()
	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })

	mock := NewMockGraphClient()
	traced := NewTracedGraphClient(mock, provider.Tracer("corelib.graph"))
	require.NoError(t, traced.Connect(context.Background()))
	return traced, mock, recorder
}

func spanAttr(span sdktrace.ReadOnlySpan, key attribute.Key) (attribute.Value, bool) {
	for _, kv := range span.Attributes() {
		if kv.Key == key {
			return kv.Value, true
		}
	}
	return attribute.Value{}, false
}

func TestTracedGraphClient_SuccessfulSpans(t *testing.T) {
	traced, mock, recorder := newTracedMock(t)
	ctx := context.Background()

	id, err := traced.CreateNode(ctx, []string{"Application"}, map[string]any{"name": "a"})
	require.NoError(t, err)
	nodes, err := traced.FindNodes(ctx, "Application", map[string]any{"name": "a"})
	require.NoError(t, err)
	require.Len(t, nodes, 1)

	spans := recorder.Ended()
	require.Len(t, spans, 3)
	assert.Equal(t, SpanGraphConnect, spans[0].Name())
	assert.Equal(t, SpanGraphCreateNode, spans[1].Name())
	assert.Equal(t, SpanGraphFindNodes, spans[2].Name())

	nodeID, ok := spanAttr(spans[1], AttrGraphNodeID)
	require.True(t, ok)
	assert.Equal(t, id, nodeID.AsString())

	count, ok := spanAttr(spans[2], AttrGraphCount)
	require.True(t, ok)
	assert.Equal(t, int64(1), count.AsInt64())

	system, ok := spanAttr(spans[2], AttrDBSystem)
	require.True(t, ok)
	assert.Equal(t, "neo4j", system.AsString())

	assert.Equal(t, codes.Ok, spans[2].Status().Code)
	assert.Equal(t, 1, mock.CallCount("FindNodes"), "calls reach the inner client")
}

func TestTracedGraphClient_MatchValuesNotRecorded(t *testing.T) {
	traced, _, recorder := newTracedMock(t)

	_, err := traced.FindNodes(context.Background(), "Resource", map[string]any{"address": "10.9.9.9"})
	require.NoError(t, err)

	spans := recorder.Ended()
	last := spans[len(spans)-1]
	keys, ok := spanAttr(last, AttrGraphMatch)
	require.True(t, ok)
	assert.Equal(t, []string{"address"}, keys.AsStringSlice())
	for _, kv := range last.Attributes() {
		assert.NotContains(t, kv.Value.Emit(), "10.9.9.9")
	}
}

func TestTracedGraphClient_ErrorSpans(t *testing.T) {
	traced, _, recorder := newTracedMock(t)

	err := traced.DeleteNode(context.Background(), "4:missing:0")
	require.ErrorIs(t, err, ErrNodeNotFound)

	spans := recorder.Ended()
	last := spans[len(spans)-1]
	assert.Equal(t, SpanGraphDeleteNode, last.Name())
	assert.Equal(t, codes.Error, last.Status().Code)
	require.NotEmpty(t, last.Events(), "error recorded as span event")

	code, ok := spanAttr(last, attribute.Key("error.code"))
	require.True(t, ok)
	assert.Equal(t, string(ErrCodeGraphNodeDeleteFailed), code.AsString())
}

func TestTracedGraphClient_Health(t *testing.T) {
	traced, _, recorder := newTracedMock(t)

	status := traced.Health(context.Background())
	assert.True(t, status.IsHealthy())

	require.NoError(t, traced.Close(context.Background()))
	assert.False(t, traced.Health(context.Background()).IsHealthy())

	spans := recorder.Ended()
	last := spans[len(spans)-1]
	assert.Equal(t, SpanGraphHealth, last.Name())
	assert.Equal(t, codes.Error, last.Status().Code)
}
