package graph

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j/dbtype"

	"github.com/astrolabe-oss/corelib/internal/types"
)

const neo4jConstraintViolation = "Neo.ClientError.Schema.ConstraintValidationFailed"

// Neo4jClient implements GraphClient for Neo4j graph databases.
// It relies on the driver's connection pool and managed transactions; the
// only retry it performs itself is the initial connect.
type Neo4jClient struct {
	config GraphClientConfig
	driver neo4j.DriverWithContext
	logger *slog.Logger
}

// Neo4jOption configures a Neo4jClient.
type Neo4jOption func(*Neo4jClient)

// WithClientLogger sets the logger used for connection lifecycle events.
func WithClientLogger(logger *slog.Logger) Neo4jOption {
	return func(c *Neo4jClient) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewNeo4jClient creates a new Neo4j client with the given configuration.
// The client must be connected via Connect() before use.
func NewNeo4jClient(config GraphClientConfig, opts ...Neo4jOption) (*Neo4jClient, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	c := &Neo4jClient{
		config: config,
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Connect establishes a connection to the Neo4j database.
// Uses exponential backoff for connection retries. The password is dropped
// from the client as soon as Connect returns, so a closed client cannot be
// reconnected; build a new one instead.
func (c *Neo4jClient) Connect(ctx context.Context) error {
	if c.config.Password == "" {
		return types.NewError(ErrCodeGraphInvalidConfig,
			"credentials have been discarded, create a new client to reconnect")
	}

	auth := neo4j.BasicAuth(c.config.Username, c.config.Password, "")
	defer func() {
		c.config.Password = ""
	}()

	driverConfig := func(config *neo4j.Config) {
		if c.config.MaxConnectionPoolSize > 0 {
			config.MaxConnectionPoolSize = c.config.MaxConnectionPoolSize
		}
		config.ConnectionAcquisitionTimeout = c.config.ConnectionTimeout
		config.MaxTransactionRetryTime = c.config.MaxTransactionRetryTime
		// Encryption is controlled by the URI scheme (bolt:// vs bolt+s://)
	}

	var lastErr error
	maxRetries := 5
	baseDelay := 100 * time.Millisecond

	for attempt := 0; attempt < maxRetries; attempt++ {
		driver, err := neo4j.NewDriverWithContext(c.config.URI, auth, driverConfig)
		if err == nil {
			err = driver.VerifyConnectivity(ctx)
			if err == nil {
				c.driver = driver
				c.logger.Info("connected to graph database",
					slog.String("uri", c.config.URI),
					slog.Int("attempt", attempt+1))
				return nil
			}
			_ = driver.Close(ctx)
		}

		lastErr = err
		c.logger.Warn("graph database connection attempt failed",
			slog.String("uri", c.config.URI),
			slog.Int("attempt", attempt+1),
			slog.String("error", err.Error()))

		if ctx.Err() != nil {
			return types.WrapError(ErrCodeGraphConnectionFailed,
				"connection attempt cancelled", ctx.Err())
		}

		// baseDelay * 2^attempt, capped at the connection timeout
		delay := baseDelay * time.Duration(math.Pow(2, float64(attempt)))
		if delay > c.config.ConnectionTimeout {
			delay = c.config.ConnectionTimeout
		}

		select {
		case <-time.After(delay):
			continue
		case <-ctx.Done():
			return types.WrapError(ErrCodeGraphConnectionFailed,
				"connection attempt cancelled", ctx.Err())
		}
	}

	return types.WrapError(ErrCodeGraphConnectionFailed,
		fmt.Sprintf("failed to connect after %d attempts", maxRetries), lastErr)
}

// Close releases all resources and closes the database connection.
func (c *Neo4jClient) Close(ctx context.Context) error {
	if c.driver == nil {
		return nil
	}

	if err := c.driver.Close(ctx); err != nil {
		return types.WrapError(ErrCodeGraphConnectionClosed,
			"failed to close driver", err)
	}

	c.driver = nil
	c.logger.Info("closed graph database connection", slog.String("uri", c.config.URI))
	return nil
}

// Health returns the current health status of the Neo4j connection.
func (c *Neo4jClient) Health(ctx context.Context) types.HealthStatus {
	if c.driver == nil {
		return types.Unhealthy("driver not initialized")
	}

	healthCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	start := time.Now()
	if err := c.driver.VerifyConnectivity(healthCtx); err != nil {
		return types.Unhealthy(fmt.Sprintf("connectivity check failed: %v", err))
	}

	return types.Healthy("connected to Neo4j").WithLatency(time.Since(start))
}

// CreateNode creates a new node with the specified labels and properties.
func (c *Neo4jClient) CreateNode(ctx context.Context, labels []string, props map[string]any) (string, error) {
	cypher, err := buildCreateNode(labels)
	if err != nil {
		return "", err
	}

	result, err := c.executeWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		neoResult, err := tx.Run(ctx, cypher, map[string]any{"props": withoutNils(props)})
		if err != nil {
			return nil, err
		}

		record, err := neoResult.Single(ctx)
		if err != nil {
			return nil, err
		}

		id, ok := record.Get("id")
		if !ok {
			return nil, fmt.Errorf("id not found in result")
		}
		return id.(string), nil
	})
	if err != nil {
		return "", wrapStoreError(ErrCodeGraphNodeCreateFailed, "failed to create node", err)
	}

	return result.(string), nil
}

// SetNodeProperties merges props into the node identified by nodeID.
func (c *Neo4jClient) SetNodeProperties(ctx context.Context, nodeID string, props map[string]any) error {
	_, err := c.executeWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		neoResult, err := tx.Run(ctx, setPropertiesQuery, map[string]any{
			"id":    nodeID,
			"props": props,
		})
		if err != nil {
			return nil, err
		}

		records, err := neoResult.Collect(ctx)
		if err != nil {
			return nil, err
		}
		if len(records) == 0 {
			return nil, ErrNodeNotFound
		}
		return nil, nil
	})
	if err != nil {
		return wrapStoreError(ErrCodeGraphNodeUpdateFailed,
			fmt.Sprintf("failed to update node %s", nodeID), err)
	}
	return nil
}

// DeleteNode deletes a node by its element ID.
// DETACH DELETE removes the node's relationships along with it.
func (c *Neo4jClient) DeleteNode(ctx context.Context, nodeID string) error {
	_, err := c.executeWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		neoResult, err := tx.Run(ctx, deleteNodeQuery, map[string]any{"id": nodeID})
		if err != nil {
			return nil, err
		}

		record, err := neoResult.Single(ctx)
		if err != nil {
			return nil, err
		}
		if deleted, _ := record.Get("deleted"); deleted == int64(0) {
			return nil, ErrNodeNotFound
		}
		return nil, nil
	})
	if err != nil {
		return wrapStoreError(ErrCodeGraphNodeDeleteFailed,
			fmt.Sprintf("failed to delete node %s", nodeID), err)
	}
	return nil
}

// CreateRelationship creates a relationship between two nodes.
func (c *Neo4jClient) CreateRelationship(ctx context.Context, fromID, toID, relType string, props map[string]any) error {
	cypher, err := buildCreateRelationship(relType)
	if err != nil {
		return err
	}

	params := map[string]any{
		"fromId": fromID,
		"toId":   toID,
		"props":  withoutNils(props),
	}

	_, err = c.executeWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		neoResult, err := tx.Run(ctx, cypher, params)
		if err != nil {
			return nil, err
		}

		records, err := neoResult.Collect(ctx)
		if err != nil {
			return nil, err
		}
		if len(records) == 0 {
			return nil, ErrNodeNotFound
		}
		return nil, nil
	})
	if err != nil {
		return wrapStoreError(ErrCodeGraphRelationshipCreateFailed,
			"failed to create relationship", err)
	}

	return nil
}

// FindNodes returns every node with label whose properties equal match.
func (c *Neo4jClient) FindNodes(ctx context.Context, label string, match map[string]any) ([]Node, error) {
	cypher, params, err := buildFindNodes(label, match)
	if err != nil {
		return nil, err
	}

	result, err := c.executeRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		neoResult, err := tx.Run(ctx, cypher, params)
		if err != nil {
			return nil, err
		}

		records, err := neoResult.Collect(ctx)
		if err != nil {
			return nil, err
		}

		nodes := make([]Node, 0, len(records))
		for _, record := range records {
			raw, ok := record.Get("n")
			if !ok {
				return nil, types.NewError(ErrCodeGraphResultParsing, "column n missing from result")
			}
			node, ok := raw.(dbtype.Node)
			if !ok {
				return nil, types.NewError(ErrCodeGraphResultParsing,
					fmt.Sprintf("column n is %T, not a node", raw))
			}
			nodes = append(nodes, fromDriverNode(node, nil))
		}
		return nodes, nil
	})
	if err != nil {
		return nil, wrapStoreError(ErrCodeGraphQueryFailed,
			fmt.Sprintf("failed to find %s nodes", label), err)
	}

	return result.([]Node), nil
}

// Neighbors returns element ids of nodes connected to nodeID through relType.
func (c *Neo4jClient) Neighbors(ctx context.Context, nodeID, relType string, dir Direction, label string) ([]string, error) {
	cypher, err := buildNeighbors(relType, dir, label)
	if err != nil {
		return nil, err
	}

	result, err := c.executeRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		neoResult, err := tx.Run(ctx, cypher, map[string]any{"id": nodeID})
		if err != nil {
			return nil, err
		}

		records, err := neoResult.Collect(ctx)
		if err != nil {
			return nil, err
		}

		ids := make([]string, 0, len(records))
		for _, record := range records {
			id, ok := record.Get("id")
			if !ok {
				return nil, types.NewError(ErrCodeGraphResultParsing, "column id missing from result")
			}
			ids = append(ids, id.(string))
		}
		return ids, nil
	})
	if err != nil {
		return nil, wrapStoreError(ErrCodeGraphQueryFailed,
			fmt.Sprintf("failed to read %s %s neighbors", dir, relType), err)
	}

	return result.([]string), nil
}

// Edges runs the whole-graph traversal and returns one record per directed relationship.
func (c *Neo4jClient) Edges(ctx context.Context) ([]EdgeRecord, error) {
	result, err := c.executeRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		neoResult, err := tx.Run(ctx, edgesQuery, nil)
		if err != nil {
			return nil, err
		}

		records, err := neoResult.Collect(ctx)
		if err != nil {
			return nil, err
		}

		edges := make([]EdgeRecord, 0, len(records))
		for _, record := range records {
			edge, err := convertEdgeRecord(record)
			if err != nil {
				return nil, err
			}
			edges = append(edges, edge)
		}
		return edges, nil
	})
	if err != nil {
		return nil, wrapStoreError(ErrCodeGraphQueryFailed, "failed to traverse graph edges", err)
	}

	return result.([]EdgeRecord), nil
}

// EnsureUniqueConstraint creates a uniqueness constraint if it does not already exist.
func (c *Neo4jClient) EnsureUniqueConstraint(ctx context.Context, label, property string) error {
	cypher, err := buildUniqueConstraint(label, property)
	if err != nil {
		return err
	}

	_, err = c.executeWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		neoResult, err := tx.Run(ctx, cypher, nil)
		if err != nil {
			return nil, err
		}
		_, err = neoResult.Consume(ctx)
		return nil, err
	})
	if err != nil {
		return wrapStoreError(ErrCodeGraphConstraintFailed,
			fmt.Sprintf("failed to ensure unique %s.%s", label, property), err)
	}
	return nil
}

func (c *Neo4jClient) executeRead(ctx context.Context, work neo4j.ManagedTransactionWork) (any, error) {
	if c.driver == nil {
		return nil, ErrConnectionClosed
	}

	session := c.driver.NewSession(ctx, neo4j.SessionConfig{
		DatabaseName: c.config.Database,
		AccessMode:   neo4j.AccessModeRead,
	})
	defer session.Close(ctx)

	return session.ExecuteRead(ctx, work)
}

func (c *Neo4jClient) executeWrite(ctx context.Context, work neo4j.ManagedTransactionWork) (any, error) {
	if c.driver == nil {
		return nil, ErrConnectionClosed
	}

	session := c.driver.NewSession(ctx, neo4j.SessionConfig{
		DatabaseName: c.config.Database,
		AccessMode:   neo4j.AccessModeWrite,
	})
	defer session.Close(ctx)

	return session.ExecuteWrite(ctx, work)
}

// wrapStoreError attaches code to a driver failure. Errors that already carry
// a corelib code pass through unchanged, and Neo4j constraint failures are
// reported as ErrCodeGraphConstraintViolation.
func wrapStoreError(code types.ErrorCode, message string, err error) error {
	var ce *types.CorelibError
	if errors.As(err, &ce) {
		return err
	}
	var neoErr *neo4j.Neo4jError
	if errors.As(err, &neoErr) && neoErr.Code == neo4jConstraintViolation {
		return types.WrapError(ErrCodeGraphConstraintViolation, message, err)
	}
	return types.WrapError(code, message, err)
}

func convertEdgeRecord(record *neo4j.Record) (EdgeRecord, error) {
	parent, err := nodeColumn(record, "p")
	if err != nil {
		return EdgeRecord{}, err
	}
	child, err := nodeColumn(record, "c")
	if err != nil {
		return EdgeRecord{}, err
	}

	rawRel, _ := record.Get("r")
	rel, ok := rawRel.(dbtype.Relationship)
	if !ok {
		return EdgeRecord{}, types.NewError(ErrCodeGraphResultParsing,
			fmt.Sprintf("column r is %T, not a relationship", rawRel))
	}
	edgeType := rel.Type
	if raw, ok := record.Get("edge_type"); ok {
		if s, ok := raw.(string); ok {
			edgeType = s
		}
	}

	parentLabels, _ := record.Get("parent_labels")
	childLabels, _ := record.Get("child_labels")

	return EdgeRecord{
		Parent: fromDriverNode(parent, parentLabels),
		Edge: Relationship{
			ID:      rel.ElementId,
			StartID: rel.StartElementId,
			EndID:   rel.EndElementId,
			Type:    edgeType,
			Props:   rel.Props,
		},
		Child: fromDriverNode(child, childLabels),
	}, nil
}

func nodeColumn(record *neo4j.Record, key string) (dbtype.Node, error) {
	raw, ok := record.Get(key)
	if !ok {
		return dbtype.Node{}, types.NewError(ErrCodeGraphResultParsing,
			fmt.Sprintf("column %s missing from result", key))
	}
	node, ok := raw.(dbtype.Node)
	if !ok {
		return dbtype.Node{}, types.NewError(ErrCodeGraphResultParsing,
			fmt.Sprintf("column %s is %T, not a node", key, raw))
	}
	return node, nil
}

// fromDriverNode converts a driver node. labels, when it is a non-empty list
// column, takes precedence over the labels embedded in the node.
func fromDriverNode(node dbtype.Node, labels any) Node {
	out := Node{
		ID:     node.ElementId,
		Labels: node.Labels,
		Props:  node.Props,
	}
	if list, ok := labels.([]any); ok && len(list) > 0 {
		out.Labels = make([]string, 0, len(list))
		for _, l := range list {
			if s, ok := l.(string); ok {
				out.Labels = append(out.Labels, s)
			}
		}
	}
	if out.Props == nil {
		out.Props = map[string]any{}
	}
	return out
}

func withoutNils(props map[string]any) map[string]any {
	out := make(map[string]any, len(props))
	for k, v := range props {
		if v != nil {
			out[k] = v
		}
	}
	return out
}
