package platdb

import (
	"context"
	"log/slog"
	"sync"

	"go.opentelemetry.io/otel/trace"

	"github.com/astrolabe-oss/corelib/internal/graph"
	"github.com/astrolabe-oss/corelib/internal/types"
)

// Connection owns the single graph client shared by a process and the Store
// built on it. Closing the connection invalidates every later operation on
// the Store.
type Connection struct {
	client graph.GraphClient
	store  *Store
	logger *slog.Logger

	mu     sync.Mutex
	closed bool
}

type connectionOptions struct {
	logger    *slog.Logger
	tracer    trace.Tracer
	storeOpts []StoreOption
}

// ConnectionOption configures Open and NewConnection.
type ConnectionOption func(*connectionOptions)

// WithConnectionLogger sets the logger for the connection, its client and its store.
func WithConnectionLogger(logger *slog.Logger) ConnectionOption {
	return func(o *connectionOptions) {
		o.logger = logger
	}
}

// WithTracer wraps the graph client so every store call produces a span.
func WithTracer(tracer trace.Tracer) ConnectionOption {
	return func(o *connectionOptions) {
		o.tracer = tracer
	}
}

// WithStoreOptions passes options through to the Store.
func WithStoreOptions(opts ...StoreOption) ConnectionOption {
	return func(o *connectionOptions) {
		o.storeOpts = append(o.storeOpts, opts...)
	}
}

func buildOptions(opts []ConnectionOption) connectionOptions {
	o := connectionOptions{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.New(slog.DiscardHandler)
	}
	return o
}

// Open connects to Neo4j with cfg. The client keeps the password only until
// the driver has been created.
func Open(ctx context.Context, cfg graph.GraphClientConfig, opts ...ConnectionOption) (*Connection, error) {
	o := buildOptions(opts)

	client, err := graph.NewNeo4jClient(cfg, graph.WithClientLogger(o.logger))
	if err != nil {
		return nil, err
	}
	return NewConnection(ctx, client, opts...)
}

// NewConnection connects client and builds a Store on it.
func NewConnection(ctx context.Context, client graph.GraphClient, opts ...ConnectionOption) (*Connection, error) {
	o := buildOptions(opts)

	if o.tracer != nil {
		client = graph.NewTracedGraphClient(client, o.tracer)
	}
	if err := client.Connect(ctx); err != nil {
		return nil, err
	}

	storeOpts := append([]StoreOption{WithLogger(o.logger)}, o.storeOpts...)
	return &Connection{
		client: client,
		store:  NewStore(client, storeOpts...),
		logger: o.logger,
	}, nil
}

// Store returns the store bound to this connection.
func (c *Connection) Store() *Store {
	return c.store
}

// Health checks connectivity to the graph database.
func (c *Connection) Health(ctx context.Context) types.HealthStatus {
	c.mu.Lock()
	closed := c.closed
	c.mu.Unlock()
	if closed {
		return types.Unhealthy("connection closed")
	}
	return c.client.Health(ctx)
}

// Close closes the underlying client. Calling Close more than once is a no-op.
func (c *Connection) Close(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	return c.client.Close(ctx)
}
