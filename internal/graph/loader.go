package graph

import (
	"context"
	"fmt"
	"strings"

	"github.com/seocho-ai/seocho/internal/model"
)

// LoadGraph merges a graph payload into database, tagging every node with
// source_id. Labels and relationship types are validated before any write;
// a single invalid identifier rejects the whole payload.
func (m *Manager) LoadGraph(ctx context.Context, database string, g model.Graph, sourceID string) error {
	if !m.registry.IsValid(database) {
		return model.Errorf(model.KindValidation, "graph: database %q is not registered", database)
	}
	if err := g.Validate(); err != nil {
		return model.NewError(model.KindValidation, err)
	}

	for _, node := range g.Nodes {
		props := make(map[string]any, len(node.Properties)+2)
		for k, v := range node.Properties {
			props[k] = v
		}
		props["id"] = node.ID
		props["source_id"] = sourceID

		// The label passed validation, so backtick-quoting it is safe.
		query := fmt.Sprintf("MERGE (n:`%s` {id: $id}) SET n += $props RETURN n.id", node.Label)
		if _, err := m.connector.Run(ctx, database, query, map[string]any{
			"id": node.ID, "props": props,
		}); err != nil {
			return model.NewError(model.KindPipeline, fmt.Errorf("graph: load node %s: %w", node.ID, err))
		}
	}

	for _, rel := range g.Relationships {
		relType := normalizeRelType(rel.Type)
		query := fmt.Sprintf(
			"MATCH (a {id: $source_id}), (b {id: $target_id}) MERGE (a)-[r:`%s`]->(b) SET r += $props RETURN type(r)",
			relType)
		props := rel.Properties
		if props == nil {
			props = map[string]any{}
		}
		if _, err := m.connector.Run(ctx, database, query, map[string]any{
			"source_id": rel.Source, "target_id": rel.Target, "props": props,
		}); err != nil {
			return model.NewError(model.KindPipeline,
				fmt.Errorf("graph: load relationship %s-[%s]->%s: %w", rel.Source, relType, rel.Target, err))
		}
	}
	return nil
}

// normalizeRelType upper-cases a validated relationship type the way the
// loader stores it.
func normalizeRelType(t string) string {
	if t == "" {
		return "RELATED_TO"
	}
	return strings.ToUpper(t)
}
