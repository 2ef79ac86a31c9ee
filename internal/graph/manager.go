package graph

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/seocho-ai/seocho/internal/model"
)

// Manager handles database lifecycle: provision, schema inspection,
// and graph loading against a registered database.
type Manager struct {
	connector Connector
	registry  *Registry
	logger    *slog.Logger
}

// NewManager creates a manager over the shared connector and registry.
func NewManager(connector Connector, registry *Registry, logger *slog.Logger) *Manager {
	return &Manager{connector: connector, registry: registry, logger: logger}
}

// Registry exposes the backing registry.
func (m *Manager) Registry() *Registry { return m.registry }

// Connector exposes the backing connector.
func (m *Manager) Connector() Connector { return m.connector }

// Provision creates the database if missing and registers it.
// The name is validated before the backend is contacted.
func (m *Manager) Provision(ctx context.Context, name string) error {
	if !dbNameRe.MatchString(name) {
		return model.Errorf(model.KindValidation,
			"graph: invalid database name %q: must be alphanumeric and start with a letter", name)
	}
	// CREATE DATABASE runs through the system database. The name is
	// interpolated, which is safe after the regex check above.
	if _, err := m.connector.Run(ctx, "system",
		fmt.Sprintf("CREATE DATABASE %s IF NOT EXISTS", name), nil); err != nil {
		return model.NewError(model.KindInfrastructure, fmt.Errorf("graph: create database %s: %w", name, err))
	}
	if err := m.registry.Register(name); err != nil {
		return err
	}
	m.logger.Info("database provisioned", "database", name)
	return nil
}

// SchemaSummary renders the database's labels, relationship types, and
// property keys as human-readable text for worker instructions.
func (m *Manager) SchemaSummary(ctx context.Context, database string) (string, error) {
	labels, err := m.catalogValues(ctx, database, "CALL db.labels()", "label")
	if err != nil {
		return "", fmt.Errorf("graph: schema for %s: %w", database, err)
	}
	relTypes, err := m.catalogValues(ctx, database, "CALL db.relationshipTypes()", "relationshipType")
	if err != nil {
		return "", fmt.Errorf("graph: schema for %s: %w", database, err)
	}
	propKeys, err := m.catalogValues(ctx, database, "CALL db.propertyKeys()", "propertyKey")
	if err != nil {
		return "", fmt.Errorf("graph: schema for %s: %w", database, err)
	}

	lines := []string{
		"Database: " + database,
		"Node Labels: " + orNone(labels),
		"Relationship Types: " + orNone(relTypes),
		"Property Keys: " + orNone(propKeys),
	}
	return strings.Join(lines, "\n"), nil
}

func (m *Manager) catalogValues(ctx context.Context, database, query, column string) ([]string, error) {
	rows, err := m.connector.Run(ctx, database, query, nil)
	if err != nil {
		return nil, err
	}
	values := make([]string, 0, len(rows))
	for _, row := range rows {
		if v, ok := row[column].(string); ok {
			values = append(values, v)
		}
	}
	return values, nil
}

func orNone(values []string) string {
	if len(values) == 0 {
		return "none"
	}
	return strings.Join(values, ", ")
}
