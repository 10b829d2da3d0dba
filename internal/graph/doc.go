// Package graph is the boundary between corelib and the property-graph store.
//
// The GraphClient interface covers the handful of primitives the typed layer
// in internal/platdb is built on: exact-match node lookups, property merge,
// single-node delete, relationship creation, neighbor enumeration and the
// whole-graph edge traversal used for export.
//
//   - Neo4jClient: production implementation on neo4j-go-driver v5
//   - MockGraphClient: in-memory property graph for unit tests
//   - TracedGraphClient: OpenTelemetry decorator for any GraphClient
//
// # Usage
//
//	config := graph.DefaultConfig()
//	config.Password = os.Getenv("NEO4J_PASSWORD")
//
//	client, err := graph.NewNeo4jClient(config)
//	if err != nil {
//	    return err
//	}
//	if err := client.Connect(ctx); err != nil {
//	    return err
//	}
//	defer client.Close(ctx)
//
//	id, err := client.CreateNode(ctx, []string{"Application"}, map[string]any{"name": "checkout"})
//
// # Credentials
//
// Neo4jClient drops the password from its configuration once Connect
// returns. A closed client cannot reconnect; create a new one.
//
// # Identifiers
//
// Labels, relationship types and property names are interpolated into Cypher
// and must match [A-Za-z_][A-Za-z0-9_]*. Property values are always passed as
// query parameters.
package graph
