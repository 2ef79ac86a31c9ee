package semantic

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/seocho-ai/seocho/internal/graph"
	"github.com/seocho-ai/seocho/internal/model"
)

const (
	topKCandidates  = 5
	confidenceGap   = 0.15
	labelBoostScore = 0.15
	exactBoostScore = 0.2
	aliasBoostScore = 0.12
	containsBase    = 0.3
	searchLimit     = 10
)

// Properties probed by the CONTAINS fallback, in display-name priority
// order.
var lookupProperties = []string{"name", "title", "id", "uri", "code", "symbol", "alias"}

// CandidateMatch is one scored node candidate for a question entity.
type CandidateMatch struct {
	Database     string   `json:"database"`
	NodeID       string   `json:"node_id"`
	Labels       []string `json:"labels"`
	DisplayName  string   `json:"display_name"`
	BaseScore    float64  `json:"base_score"`
	LexicalScore float64  `json:"lexical_score"`
	LabelBoost   float64  `json:"label_boost"`
	AliasBoost   float64  `json:"alias_boost"`
	FinalScore   float64  `json:"final_score"`
	Source       string   `json:"source"`
	IsConfident  bool     `json:"is_confident,omitempty"`
}

// Context is the resolution result handed to the router and specialists.
type Context struct {
	Entities         []string                    `json:"entities"`
	Matches          map[string][]CandidateMatch `json:"matches"`
	Unresolved       []string                    `json:"unresolved"`
	LabelHints       []string                    `json:"label_hints"`
	AliasResolved    map[string]string           `json:"alias_resolved,omitempty"`
	OverridesApplied map[string]bool             `json:"overrides_applied,omitempty"`
}

// Resolver finds graph nodes for question entities: fulltext indexes
// first, a CONTAINS property scan as fallback.
type Resolver struct {
	connector graph.Connector
	fulltext  *graph.FulltextManager
	hints     *HintStore
	logger    *slog.Logger
}

// NewResolver creates a resolver.
func NewResolver(connector graph.Connector, fulltext *graph.FulltextManager, hints *HintStore, logger *slog.Logger) *Resolver {
	return &Resolver{connector: connector, fulltext: fulltext, hints: hints, logger: logger}
}

// Resolve extracts entities from question and scores candidates across
// databases. Lookup failures in one database degrade to no candidates
// there; they never abort the resolution.
func (r *Resolver) Resolve(ctx context.Context, question string, databases []string, overrides []model.EntityOverride) (*Context, error) {
	sc := &Context{
		Entities:         ExtractEntities(question),
		Matches:          map[string][]CandidateMatch{},
		LabelHints:       r.hints.LabelHints(question),
		AliasResolved:    map[string]string{},
		OverridesApplied: map[string]bool{},
	}

	// Fulltext catalogs are probed once per database per request.
	indexCache := map[string][]graph.FulltextIndex{}
	indexesFor := func(db string) []graph.FulltextIndex {
		if cached, ok := indexCache[db]; ok {
			return cached
		}
		indexes, err := r.fulltext.List(ctx, db)
		if err != nil {
			r.logger.Warn("fulltext catalog probe failed", "database", db, "error", err)
			indexes = nil
		}
		indexCache[db] = indexes
		return indexes
	}

	for _, entity := range sc.Entities {
		lookup := entity
		aliased := false
		if canonical, ok := r.hints.ResolveAlias(entity); ok {
			sc.AliasResolved[entity] = canonical
			lookup = canonical
			aliased = true
		}

		var candidates []CandidateMatch
		for _, db := range databases {
			found, err := r.search(ctx, db, lookup, indexesFor(db))
			if err != nil {
				if ctx.Err() != nil {
					return nil, ctx.Err()
				}
				r.logger.Warn("entity lookup failed", "database", db, "entity", lookup, "error", err)
				continue
			}
			candidates = append(candidates, found...)
		}
		sc.Matches[entity] = r.rank(lookup, candidates, sc.LabelHints, aliased)
	}

	applyOverrides(sc, overrides)

	for _, entity := range sc.Entities {
		if len(sc.Matches[entity]) == 0 {
			sc.Unresolved = append(sc.Unresolved, entity)
		}
	}
	return sc, nil
}

// search runs the fulltext indexes in catalog order, stopping at the
// first index that returns rows, then falls back to a CONTAINS scan.
func (r *Resolver) search(ctx context.Context, database, entity string, indexes []graph.FulltextIndex) ([]CandidateMatch, error) {
	for _, idx := range indexes {
		if !strings.EqualFold(idx.State, "online") {
			continue
		}
		rows, err := r.connector.Run(ctx, database,
			`CALL db.index.fulltext.queryNodes($index, $term) YIELD node, score
			 RETURN elementId(node) AS node_id, labels(node) AS labels, properties(node) AS props, score
			 ORDER BY score DESC LIMIT `+fmt.Sprint(searchLimit),
			map[string]any{"index": idx.Name, "term": entity})
		if err != nil {
			return nil, err
		}
		if len(rows) > 0 {
			return parseCandidates(database, "fulltext", rows), nil
		}
	}
	return r.containsScan(ctx, database, entity)
}

func (r *Resolver) containsScan(ctx context.Context, database, entity string) ([]CandidateMatch, error) {
	conditions := make([]string, len(lookupProperties))
	for i, prop := range lookupProperties {
		conditions[i] = fmt.Sprintf("toLower(toString(coalesce(n.%s, ''))) CONTAINS $term", prop)
	}
	query := fmt.Sprintf(
		`MATCH (n) WHERE %s
		 RETURN elementId(n) AS node_id, labels(n) AS labels, properties(n) AS props, 0.0 AS score
		 LIMIT %d`,
		strings.Join(conditions, " OR "), searchLimit)

	rows, err := r.connector.Run(ctx, database, query, map[string]any{"term": strings.ToLower(entity)})
	if err != nil {
		return nil, err
	}
	return parseCandidates(database, "contains", rows), nil
}

func parseCandidates(database, source string, rows []map[string]any) []CandidateMatch {
	var maxScore float64
	for _, row := range rows {
		if s := toFloat(row["score"]); s > maxScore {
			maxScore = s
		}
	}
	out := make([]CandidateMatch, 0, len(rows))
	for _, row := range rows {
		nodeID := fmt.Sprint(row["node_id"])
		if nodeID == "" || nodeID == "<nil>" {
			continue
		}
		props, _ := row["props"].(map[string]any)
		m := CandidateMatch{
			Database:    database,
			NodeID:      nodeID,
			Labels:      toStrings(row["labels"]),
			DisplayName: displayName(props),
			Source:      source,
		}
		if source == "fulltext" && maxScore > 0 {
			m.BaseScore = toFloat(row["score"]) / maxScore
		} else {
			m.BaseScore = containsBase
		}
		out = append(out, m)
	}
	return out
}

// rank scores, dedups on (db, node_id), sorts, trims to top-K, and sets
// the confidence flag from the rank-1/rank-2 gap.
func (r *Resolver) rank(entity string, candidates []CandidateMatch, labelHints []string, aliased bool) []CandidateMatch {
	hintSet := map[string]bool{}
	for _, h := range labelHints {
		hintSet[strings.ToLower(h)] = true
	}

	seen := map[string]bool{}
	ranked := make([]CandidateMatch, 0, len(candidates))
	for _, c := range candidates {
		key := c.Database + "|" + c.NodeID
		if seen[key] {
			continue
		}
		seen[key] = true

		c.LexicalScore = lexicalRatio(entity, c.DisplayName)
		for _, label := range c.Labels {
			if hintSet[strings.ToLower(label)] {
				c.LabelBoost = labelBoostScore
				break
			}
		}
		exact := 0.0
		if normalizeName(c.DisplayName) == normalizeName(entity) {
			exact = exactBoostScore
		}
		if aliased {
			c.AliasBoost = aliasBoostScore
		}
		c.FinalScore = c.BaseScore + c.LexicalScore + c.LabelBoost + exact + c.AliasBoost
		ranked = append(ranked, c)
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].FinalScore != ranked[j].FinalScore {
			return ranked[i].FinalScore > ranked[j].FinalScore
		}
		return ranked[i].NodeID < ranked[j].NodeID
	})
	if len(ranked) > topKCandidates {
		ranked = ranked[:topKCandidates]
	}
	if len(ranked) >= 2 && ranked[0].FinalScore-ranked[1].FinalScore > confidenceGap {
		ranked[0].IsConfident = true
	} else if len(ranked) == 1 {
		ranked[0].IsConfident = true
	}
	return ranked
}

// applyOverrides pins entities to caller-specified nodes. An override
// candidate outranks everything the resolver found.
func applyOverrides(sc *Context, overrides []model.EntityOverride) {
	for _, o := range overrides {
		if o.QuestionEntity == "" || o.Database == "" || o.NodeID == "" {
			continue
		}
		entity := o.QuestionEntity
		if _, ok := sc.Matches[entity]; !ok {
			sc.Entities = append(sc.Entities, entity)
		}
		pinned := CandidateMatch{
			Database:    o.Database,
			NodeID:      o.NodeID,
			Labels:      o.Labels,
			DisplayName: o.DisplayName,
			FinalScore:  10.0,
			Source:      "override",
			IsConfident: true,
		}
		if pinned.DisplayName == "" {
			pinned.DisplayName = entity
		}
		sc.Matches[entity] = append([]CandidateMatch{pinned}, sc.Matches[entity]...)
		sc.OverridesApplied[entity] = true
	}
}

func displayName(props map[string]any) string {
	for _, prop := range lookupProperties {
		if v, ok := props[prop]; ok {
			if s := fmt.Sprint(v); s != "" && s != "<nil>" {
				return s
			}
		}
	}
	return ""
}

func toFloat(v any) float64 {
	switch x := v.(type) {
	case float64:
		return x
	case float32:
		return float64(x)
	case int64:
		return float64(x)
	case int:
		return float64(x)
	}
	return 0
}

func toStrings(v any) []string {
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
