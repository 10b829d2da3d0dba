package graph

import (
	"context"
	"log/slog"
	"time"

	"github.com/astrolabe-oss/corelib/internal/types"
)

// GraphClient is the boundary between corelib and the property-graph store.
// It exposes only the primitive reads and writes the typed layer above needs:
// exact-match lookups, property overwrite, single-node delete, relationship
// creation, neighbor enumeration and the whole-graph edge traversal.
//
// Implementations must be thread-safe for concurrent access.
type GraphClient interface {
	// Connect establishes a connection to the graph database.
	Connect(ctx context.Context) error

	// Close releases all resources and closes the database connection.
	// Every subsequent call fails with ErrCodeGraphConnectionClosed.
	Close(ctx context.Context) error

	// Health returns the current health status of the graph database connection.
	Health(ctx context.Context) types.HealthStatus

	// CreateNode creates a new node with the specified labels and properties.
	// Nil property values are not stored. Returns the element id of the node.
	CreateNode(ctx context.Context, labels []string, props map[string]any) (string, error)

	// SetNodeProperties merges props into the node's property map.
	// A nil value removes the property.
	SetNodeProperties(ctx context.Context, nodeID string, props map[string]any) error

	// DeleteNode deletes a node and all of its relationships.
	DeleteNode(ctx context.Context, nodeID string) error

	// CreateRelationship creates a directed relationship fromID -[relType]-> toID.
	CreateRelationship(ctx context.Context, fromID, toID, relType string, props map[string]any) error

	// FindNodes returns every node carrying label whose properties equal all
	// entries of match, in the store's enumeration order. A nil match value
	// matches nodes where the property is absent. An empty match returns
	// every node with the label.
	FindNodes(ctx context.Context, label string, match map[string]any) ([]Node, error)

	// Neighbors returns the element ids of nodes connected to nodeID by a
	// relationship of relType in the given direction. A non-empty label
	// restricts the result to neighbors carrying that label.
	Neighbors(ctx context.Context, nodeID, relType string, dir Direction, label string) ([]string, error)

	// Edges returns every directed relationship in the graph together with
	// both endpoints.
	Edges(ctx context.Context) ([]EdgeRecord, error)

	// EnsureUniqueConstraint declares property as unique among nodes with label.
	// Calling it again for the same pair is a no-op.
	EnsureUniqueConstraint(ctx context.Context, label, property string) error
}

// Direction is the orientation of a relationship relative to a node.
type Direction int

const (
	// DirectionOutgoing follows (n)-[r]->(m).
	DirectionOutgoing Direction = iota
	// DirectionIncoming follows (n)<-[r]-(m).
	DirectionIncoming
)

// String returns "outgoing" or "incoming".
func (d Direction) String() string {
	if d == DirectionIncoming {
		return "incoming"
	}
	return "outgoing"
}

// Node is a node as read back from the store.
type Node struct {
	ID     string
	Labels []string
	Props  map[string]any
}

// HasLabel reports whether the node carries label.
func (n Node) HasLabel(label string) bool {
	for _, l := range n.Labels {
		if l == label {
			return true
		}
	}
	return false
}

// Relationship is a directed, typed relationship as read back from the store.
type Relationship struct {
	ID      string
	StartID string
	EndID   string
	Type    string
	Props   map[string]any
}

// EdgeRecord is one row of the whole-graph traversal: a relationship and both
// of its endpoints.
type EdgeRecord struct {
	Parent Node
	Edge   Relationship
	Child  Node
}

// GraphClientConfig contains configuration options for graph database clients.
type GraphClientConfig struct {
	// URI is the connection URI for the graph database.
	// For Neo4j, use:
	//   - "bolt://host:port" for unencrypted connections
	//   - "bolt+s://host:port" for TLS encrypted connections
	//   - "bolt+ssc://host:port" for TLS with self-signed certificates
	//   - "neo4j://" or "neo4j+s://" for routing
	URI string

	// Username for authentication.
	Username string

	// Password for authentication. Cleared from the client once the
	// driver has been created.
	Password string

	// Database name to connect to.
	// Empty string uses the default database.
	Database string

	// MaxConnectionPoolSize limits the number of connections in the pool.
	// Zero or negative values use the driver default.
	MaxConnectionPoolSize int

	// ConnectionTimeout is the maximum time to wait for a connection.
	ConnectionTimeout time.Duration

	// MaxTransactionRetryTime is the maximum time the driver retries failed transactions.
	MaxTransactionRetryTime time.Duration
}

// DefaultConfig returns a GraphClientConfig with sensible defaults.
// The password is left empty and must be supplied by the caller.
func DefaultConfig() GraphClientConfig {
	return GraphClientConfig{
		URI:                     "bolt://localhost:7687",
		Username:                "neo4j",
		Database:                "",
		MaxConnectionPoolSize:   50,
		ConnectionTimeout:       30 * time.Second,
		MaxTransactionRetryTime: 30 * time.Second,
	}
}

// Validate checks if the configuration is valid.
func (c GraphClientConfig) Validate() error {
	if c.URI == "" {
		return types.NewError(ErrCodeGraphInvalidConfig, "URI cannot be empty")
	}
	if c.Username == "" {
		return types.NewError(ErrCodeGraphInvalidConfig, "Username cannot be empty")
	}
	if c.Password == "" {
		return types.NewError(ErrCodeGraphInvalidConfig, "Password cannot be empty")
	}
	if c.ConnectionTimeout <= 0 {
		return types.NewError(ErrCodeGraphInvalidConfig, "ConnectionTimeout must be positive")
	}
	if c.MaxTransactionRetryTime <= 0 {
		return types.NewError(ErrCodeGraphInvalidConfig, "MaxTransactionRetryTime must be positive")
	}
	return nil
}

// LogValue implements slog.LogValuer so the password never reaches a log sink.
func (c GraphClientConfig) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("uri", c.URI),
		slog.String("username", c.Username),
		slog.String("password", redacted(c.Password)),
		slog.String("database", c.Database),
		slog.Int("max_pool_size", c.MaxConnectionPoolSize),
		slog.Duration("connection_timeout", c.ConnectionTimeout),
	)
}

func redacted(secret string) string {
	if secret == "" {
		return ""
	}
	return "[REDACTED]"
}
