//go:build integration && docker

// Package neo4jtest starts a throwaway Neo4j server for integration tests.
package neo4jtest

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/astrolabe-oss/corelib/internal/graph"
)

// Image is the Neo4j image used for integration tests.
const Image = "neo4j:5.26-community"

const password = "integration-pass"

// Start runs a Neo4j container for the duration of t and returns a client
// configuration pointing at it. The container is terminated on cleanup.
func Start(t *testing.T) graph.GraphClientConfig {
	t.Helper()
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        Image,
		ExposedPorts: []string{"7687/tcp"},
		Env: map[string]string{
			"NEO4J_AUTH":                         "neo4j/" + password,
			"NEO4J_PLUGINS":                      "[]",
			"NEO4J_server_memory_heap_max__size": "512m",
		},
		WaitingFor: wait.ForAll(
			wait.ForListeningPort("7687/tcp"),
			wait.ForLog("Started."),
		).WithDeadline(2 * time.Minute),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err, "failed to start neo4j container")
	t.Cleanup(func() {
		_ = container.Terminate(context.Background())
	})

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "7687")
	require.NoError(t, err)

	cfg := graph.DefaultConfig()
	cfg.URI = fmt.Sprintf("bolt://%s:%s", host, port.Port())
	cfg.Password = password
	return cfg
}

// Connect starts a container and returns a connected client.
func Connect(t *testing.T) *graph.Neo4jClient {
	t.Helper()
	client, err := graph.NewNeo4jClient(Start(t))
	require.NoError(t, err)
	require.NoError(t, client.Connect(context.Background()))
	t.Cleanup(func() {
		_ = client.Close(context.Background())
	})
	return client
}
