package semantic

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/seocho-ai/seocho/internal/graph"
)

const (
	specialistTopMatches = 3
	neighborLimit        = 25
)

// SpecialistResult is the output of the LPG or RDF specialist.
type SpecialistResult struct {
	Records  []map[string]any `json:"records"`
	Fallback bool             `json:"fallback,omitempty"`
	Note     string           `json:"note,omitempty"`
}

// LPGSpecialist answers by expanding the neighborhoods of resolved
// entities; with nothing resolved it reports the label distribution.
type LPGSpecialist struct {
	connector graph.Connector
	logger    *slog.Logger
}

// NewLPGSpecialist creates the LPG specialist.
func NewLPGSpecialist(connector graph.Connector, logger *slog.Logger) *LPGSpecialist {
	return &LPGSpecialist{connector: connector, logger: logger}
}

// Run expands the top-scored matches. Lookup failures for one entity
// are logged and skipped.
func (s *LPGSpecialist) Run(ctx context.Context, sc *Context, databases []string) SpecialistResult {
	matches := topMatches(sc, specialistTopMatches)
	if len(matches) == 0 {
		return s.labelDistribution(ctx, databases)
	}

	var records []map[string]any
	for _, m := range matches {
		rows, err := s.connector.Run(ctx, m.Database,
			`MATCH (n) WHERE elementId(n) = $id
			 OPTIONAL MATCH (n)-[r]-(t)
			 RETURN type(r) AS rel_type,
			        coalesce(t.name, t.title, t.uri, t.id) AS target,
			        labels(t) AS target_labels
			 LIMIT `+fmt.Sprint(neighborLimit),
			map[string]any{"id": m.NodeID})
		if err != nil {
			s.logger.Warn("neighborhood query failed", "database", m.Database, "node", m.NodeID, "error", err)
			continue
		}
		neighbors := make([]map[string]any, 0, len(rows))
		seen := map[string]bool{}
		for _, row := range rows {
			relType, _ := row["rel_type"].(string)
			target := fmt.Sprint(row["target"])
			if relType == "" || target == "" || target == "<nil>" {
				continue
			}
			key := relType + "|" + target
			if seen[key] {
				continue
			}
			seen[key] = true
			neighbors = append(neighbors, map[string]any{
				"type":          relType,
				"target":        target,
				"target_labels": toStrings(row["target_labels"]),
			})
		}
		records = append(records, map[string]any{
			"entity":    m.DisplayName,
			"database":  m.Database,
			"labels":    m.Labels,
			"neighbors": neighbors,
		})
	}
	return SpecialistResult{Records: records}
}

func (s *LPGSpecialist) labelDistribution(ctx context.Context, databases []string) SpecialistResult {
	result := SpecialistResult{Fallback: true, Note: "no entities resolved; reporting label distribution"}
	for _, db := range databases {
		rows, err := s.connector.Run(ctx, db,
			`MATCH (n) RETURN labels(n) AS labels, count(*) AS count ORDER BY count DESC LIMIT 10`, nil)
		if err != nil {
			s.logger.Warn("label distribution query failed", "database", db, "error", err)
			continue
		}
		for _, row := range rows {
			result.Records = append(result.Records, map[string]any{
				"database": db,
				"labels":   toStrings(row["labels"]),
				"count":    row["count"],
			})
		}
	}
	return result
}

// RDFSpecialist looks up resource signatures: nodes labelled as RDF
// artifacts or carrying a uri property.
type RDFSpecialist struct {
	connector graph.Connector
	logger    *slog.Logger
}

// NewRDFSpecialist creates the RDF specialist.
func NewRDFSpecialist(connector graph.Connector, logger *slog.Logger) *RDFSpecialist {
	return &RDFSpecialist{connector: connector, logger: logger}
}

// Run fetches resource signatures for resolved entities, or a label
// overview when nothing resolved.
func (s *RDFSpecialist) Run(ctx context.Context, sc *Context, databases []string) SpecialistResult {
	matches := topMatches(sc, specialistTopMatches)
	if len(matches) == 0 {
		return s.labelOverview(ctx, databases)
	}

	var records []map[string]any
	for _, m := range matches {
		rows, err := s.connector.Run(ctx, m.Database,
			`MATCH (n) WHERE elementId(n) = $id
			   AND (any(l IN labels(n) WHERE toLower(l) IN ['resource', 'class', 'ontology', 'individual'])
			        OR n.uri IS NOT NULL)
			 RETURN coalesce(n.uri, n.name) AS resource, labels(n) AS labels, properties(n) AS props`,
			map[string]any{"id": m.NodeID})
		if err != nil {
			s.logger.Warn("resource signature query failed", "database", m.Database, "node", m.NodeID, "error", err)
			continue
		}
		for _, row := range rows {
			records = append(records, map[string]any{
				"entity":   m.DisplayName,
				"database": m.Database,
				"resource": fmt.Sprint(row["resource"]),
				"labels":   toStrings(row["labels"]),
			})
		}
	}
	return SpecialistResult{Records: records}
}

func (s *RDFSpecialist) labelOverview(ctx context.Context, databases []string) SpecialistResult {
	result := SpecialistResult{Fallback: true, Note: "no entities resolved; reporting label overview"}
	for _, db := range databases {
		rows, err := s.connector.Run(ctx, db,
			`MATCH (n) UNWIND labels(n) AS label RETURN label, count(*) AS count ORDER BY count DESC LIMIT 10`, nil)
		if err != nil {
			s.logger.Warn("label overview query failed", "database", db, "error", err)
			continue
		}
		for _, row := range rows {
			result.Records = append(result.Records, map[string]any{
				"database": db,
				"label":    row["label"],
				"count":    row["count"],
			})
		}
	}
	return result
}

// topMatches flattens the best candidate per entity and returns the
// overall top-n by score, deterministically ordered.
func topMatches(sc *Context, n int) []CandidateMatch {
	var all []CandidateMatch
	for _, entity := range sc.Entities {
		if matches := sc.Matches[entity]; len(matches) > 0 {
			all = append(all, matches[0])
		}
	}
	sort.SliceStable(all, func(i, j int) bool {
		if all[i].FinalScore != all[j].FinalScore {
			return all[i].FinalScore > all[j].FinalScore
		}
		return all[i].NodeID < all[j].NodeID
	})
	if len(all) > n {
		all = all[:n]
	}
	return all
}
