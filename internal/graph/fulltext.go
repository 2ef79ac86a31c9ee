package graph

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/seocho-ai/seocho/internal/model"
)

// FulltextIndex describes one fulltext index from the catalog.
type FulltextIndex struct {
	Name       string   `json:"name"`
	State      string   `json:"state"`
	EntityType string   `json:"entity_type,omitempty"`
	Labels     []string `json:"labels,omitempty"`
	Properties []string `json:"properties,omitempty"`
}

// EnsureIndexResult reports the outcome of an ensure-index call.
// Two consecutive calls return created=true then created=false,exists=true.
type EnsureIndexResult struct {
	Database   string   `json:"database"`
	IndexName  string   `json:"index_name"`
	Exists     bool     `json:"exists"`
	Created    bool     `json:"created"`
	State      string   `json:"state,omitempty"`
	Labels     []string `json:"labels"`
	Properties []string `json:"properties"`
	Message    string   `json:"message"`
}

// FulltextManager inspects and ensures fulltext indexes. The catalog is
// probed with two alternative queries because DozerDB and newer Neo4j
// versions expose fulltext indexes differently.
type FulltextManager struct {
	connector Connector
	logger    *slog.Logger
}

// NewFulltextManager creates a fulltext index manager over connector.
func NewFulltextManager(connector Connector, logger *slog.Logger) *FulltextManager {
	return &FulltextManager{connector: connector, logger: logger}
}

var catalogQueries = []string{
	`SHOW FULLTEXT INDEXES YIELD name, state, entityType, labelsOrTypes, properties
	 RETURN name, state, entityType, labelsOrTypes, properties`,
	`SHOW INDEXES YIELD name, type, state, entityType, labelsOrTypes, properties
	 WHERE type = 'FULLTEXT'
	 RETURN name, state, entityType, labelsOrTypes, properties`,
}

// List returns the fulltext indexes visible in database's catalog.
func (f *FulltextManager) List(ctx context.Context, database string) ([]FulltextIndex, error) {
	var lastErr error
	for _, query := range catalogQueries {
		rows, err := f.connector.Run(ctx, database, query, nil)
		if err != nil {
			lastErr = err
			continue
		}
		if len(rows) == 0 {
			continue
		}
		return parseIndexRows(rows), nil
	}
	if lastErr != nil && model.KindOf(lastErr) == model.KindInfrastructure {
		return nil, lastErr
	}
	return nil, nil
}

// Ensure validates all identifiers, checks existence, and creates the
// index when missing: DDL first, then the legacy procedural create.
// After either path the catalog is re-read to report the actual state.
func (f *FulltextManager) Ensure(ctx context.Context, database, indexName string, labels, properties []string, createIfMissing bool) (EnsureIndexResult, error) {
	indexName, err := validIdentifier(indexName, "index_name")
	if err != nil {
		return EnsureIndexResult{}, err
	}
	safeLabels, err := validIdentifiers(labels, "labels")
	if err != nil {
		return EnsureIndexResult{}, err
	}
	safeProps, err := validIdentifiers(properties, "properties")
	if err != nil {
		return EnsureIndexResult{}, err
	}

	result := EnsureIndexResult{
		Database:   database,
		IndexName:  indexName,
		Labels:     safeLabels,
		Properties: safeProps,
	}

	existing, err := f.List(ctx, database)
	if err != nil {
		return result, err
	}
	if idx := findIndex(existing, indexName); idx != nil {
		result.Exists = true
		result.State = idx.State
		result.Message = "Index already exists."
		return result, nil
	}
	if !createIfMissing {
		result.Message = "Index not found."
		return result, nil
	}

	mode, createErr := f.create(ctx, database, indexName, safeLabels, safeProps)

	refreshed, err := f.List(ctx, database)
	if err != nil {
		return result, err
	}
	if idx := findIndex(refreshed, indexName); idx != nil {
		result.Exists = true
		result.Created = true
		result.State = idx.State
		result.Message = fmt.Sprintf("Index created via %s.", mode)
		return result, nil
	}

	result.Message = fmt.Sprintf("Index creation attempted via %s but not visible.", mode)
	if createErr != nil {
		result.Message += " Last error: " + createErr.Error()
	}
	return result, nil
}

// create attempts the DDL statement and falls back to the procedural API.
// Returns the mode that succeeded (or was last attempted) and its error.
func (f *FulltextManager) create(ctx context.Context, database, indexName string, labels, properties []string) (string, error) {
	propExprs := make([]string, len(properties))
	for i, p := range properties {
		propExprs[i] = "n." + p
	}
	ddl := fmt.Sprintf("CREATE FULLTEXT INDEX %s IF NOT EXISTS FOR (n:%s) ON EACH [%s]",
		indexName, strings.Join(labels, "|"), strings.Join(propExprs, ", "))

	if _, err := f.connector.Run(ctx, database, ddl, nil); err == nil {
		return "cypher_ddl", nil
	} else {
		f.logger.Debug("fulltext DDL create failed, trying procedural fallback",
			"database", database, "index", indexName, "error", err)
	}

	_, err := f.connector.Run(ctx, database,
		"CALL db.index.fulltext.createNodeIndex($name, $labels, $properties)",
		map[string]any{"name": indexName, "labels": labels, "properties": properties})
	return "procedure_fallback", err
}

func parseIndexRows(rows []map[string]any) []FulltextIndex {
	indexes := make([]FulltextIndex, 0, len(rows))
	for _, row := range rows {
		name, _ := row["name"].(string)
		if name == "" {
			continue
		}
		state, _ := row["state"].(string)
		entityType, _ := row["entityType"].(string)
		indexes = append(indexes, FulltextIndex{
			Name:       name,
			State:      state,
			EntityType: entityType,
			Labels:     stringSlice(row["labelsOrTypes"]),
			Properties: stringSlice(row["properties"]),
		})
	}
	return indexes
}

func findIndex(indexes []FulltextIndex, name string) *FulltextIndex {
	for i := range indexes {
		if indexes[i].Name == name {
			return &indexes[i]
		}
	}
	return nil
}

func stringSlice(v any) []string {
	items, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func validIdentifier(value, field string) (string, error) {
	ident := strings.TrimSpace(value)
	if !model.ValidLabel(ident) {
		return "", model.Errorf(model.KindValidation,
			"graph: invalid identifier %q in %s: use letters, digits, underscore; must not start with a digit", value, field)
	}
	return ident, nil
}

func validIdentifiers(values []string, field string) ([]string, error) {
	cleaned := make([]string, 0, len(values))
	for _, value := range values {
		if strings.TrimSpace(value) == "" {
			continue
		}
		ident, err := validIdentifier(value, field)
		if err != nil {
			return nil, err
		}
		cleaned = append(cleaned, ident)
	}
	if len(cleaned) == 0 {
		return nil, model.Errorf(model.KindValidation, "graph: %s must contain at least one valid identifier", field)
	}
	return cleaned, nil
}
