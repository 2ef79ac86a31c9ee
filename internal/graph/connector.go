package graph

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/seocho-ai/seocho/internal/model"
)

// Connector executes a query against a named database and returns the
// result rows. Implementations must be safe for concurrent use.
type Connector interface {
	Run(ctx context.Context, database, query string, params map[string]any) ([]map[string]any, error)
}

// retry policy for graph-store calls.
const (
	graphRetries   = 3
	graphBaseDelay = 500 * time.Millisecond
	graphMaxDelay  = 8 * time.Second
)

// Neo4jConnector runs Cypher through a pooled driver, one session per call,
// targeted at the requested database. Queries against unregistered
// databases fail before the backend is contacted.
type Neo4jConnector struct {
	driver   neo4j.DriverWithContext
	registry *Registry
	logger   *slog.Logger
}

// NewNeo4jConnector connects to the graph backend and verifies reachability.
func NewNeo4jConnector(ctx context.Context, uri, user, password string, registry *Registry, logger *slog.Logger) (*Neo4jConnector, error) {
	driver, err := neo4j.NewDriverWithContext(uri, neo4j.BasicAuth(user, password, ""))
	if err != nil {
		return nil, model.Errorf(model.KindConfiguration, "graph: create driver: %v", err)
	}
	if err := driver.VerifyConnectivity(ctx); err != nil {
		return nil, model.Errorf(model.KindInfrastructure, "graph: verify connectivity: %v", err)
	}
	return &Neo4jConnector{driver: driver, registry: registry, logger: logger}, nil
}

// Run executes a query against database and returns its rows as maps.
// Transient backend failures are retried with backoff; data and syntax
// errors pass through unretried.
func (c *Neo4jConnector) Run(ctx context.Context, database, query string, params map[string]any) ([]map[string]any, error) {
	if !c.registry.IsValid(database) {
		return nil, model.Errorf(model.KindValidation, "graph: database %q is not registered", database)
	}

	var rows []map[string]any
	err := WithRetry(ctx, graphRetries, graphBaseDelay, graphMaxDelay, func() error {
		var runErr error
		rows, runErr = c.runOnce(ctx, database, query, params)
		return runErr
	})
	return rows, err
}

func (c *Neo4jConnector) runOnce(ctx context.Context, database, query string, params map[string]any) ([]map[string]any, error) {
	session := c.driver.NewSession(ctx, neo4j.SessionConfig{DatabaseName: database})
	defer session.Close(ctx)

	result, err := session.Run(ctx, query, params)
	if err != nil {
		return nil, classify(err)
	}
	records, err := result.Collect(ctx)
	if err != nil {
		return nil, classify(err)
	}
	rows := make([]map[string]any, 0, len(records))
	for _, rec := range records {
		rows = append(rows, rec.AsMap())
	}
	return rows, nil
}

// Close releases the driver's connection pool.
func (c *Neo4jConnector) Close(ctx context.Context) error {
	return c.driver.Close(ctx)
}

// classify maps driver errors onto error kinds. Connectivity and
// transient server errors are infrastructure (retry-eligible);
// everything else is a non-retryable pipeline error.
func classify(err error) error {
	if neo4j.IsConnectivityError(err) {
		return model.NewError(model.KindInfrastructure, err)
	}
	var neoErr *neo4j.Neo4jError
	if errors.As(err, &neoErr) {
		if strings.HasPrefix(neoErr.Code, "Neo.TransientError") {
			return model.NewError(model.KindInfrastructure, err)
		}
		return model.NewError(model.KindPipeline, err)
	}
	return model.NewError(model.KindInfrastructure, err)
}

// RunJSON executes a query and returns the rows as a compact JSON array.
// This is the canonical form stored in the shared-memory query cache,
// so a cache hit is byte-equal to a fresh execution.
func RunJSON(ctx context.Context, c Connector, database, query string, params map[string]any) (string, error) {
	rows, err := c.Run(ctx, database, query, params)
	if err != nil {
		return "", err
	}
	if rows == nil {
		rows = []map[string]any{}
	}
	data, err := json.Marshal(rows)
	if err != nil {
		return "", model.NewError(model.KindUnknown, fmt.Errorf("graph: marshal rows: %w", err))
	}
	return string(data), nil
}
