//go:build integration

package graph

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/seocho-ai/seocho/internal/model"
)

// startNeo4j runs a disposable Neo4j container for the duration of the test.
func startNeo4j(t *testing.T) string {
	t.Helper()
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "neo4j:5",
			ExposedPorts: []string{"7687/tcp"},
			Env: map[string]string{
				"NEO4J_AUTH": "neo4j/integration",
			},
			WaitingFor: wait.ForLog("Started.").WithStartupTimeout(3 * time.Minute),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = container.Terminate(context.Background())
	})

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "7687")
	require.NoError(t, err)
	return fmt.Sprintf("bolt://%s:%s", host, port.Port())
}

func TestConnectorRoundTrip(t *testing.T) {
	uri := startNeo4j(t)
	ctx := context.Background()
	logger := testLogger()

	// The community image ships a single "neo4j" database, which the
	// registry always knows about.
	registry := NewRegistry()
	conn, err := NewNeo4jConnector(ctx, uri, "neo4j", "integration", registry, logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close(context.Background()) })

	rows, err := conn.Run(ctx, "neo4j", "RETURN 1 AS one", nil)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.EqualValues(t, 1, rows[0]["one"])
}

func TestLoadAndQueryRoundTrip(t *testing.T) {
	uri := startNeo4j(t)
	ctx := context.Background()
	logger := testLogger()

	registry := NewRegistry()
	conn, err := NewNeo4jConnector(ctx, uri, "neo4j", "integration", registry, logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close(context.Background()) })

	manager := NewManager(conn, registry, logger)
	g := model.Graph{
		Nodes: []model.Node{
			{ID: "acme", Label: "Company", Properties: map[string]any{"name": "Acme"}},
			{ID: "globex", Label: "Company", Properties: map[string]any{"name": "Globex"}},
		},
		Relationships: []model.Relationship{
			{Source: "acme", Target: "globex", Type: "PARTNERS_WITH"},
		},
	}
	require.NoError(t, manager.LoadGraph(ctx, "neo4j", g, "it_src"))

	rows, err := conn.Run(ctx, "neo4j",
		"MATCH (a:Company {id: $id})-[r:PARTNERS_WITH]->(b) RETURN b.name AS partner",
		map[string]any{"id": "acme"})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Globex", rows[0]["partner"])

	schema, err := manager.SchemaSummary(ctx, "neo4j")
	require.NoError(t, err)
	assert.Contains(t, schema, "Company")
}
