package extract

import (
	"context"
	"log/slog"
	"math"
	"strings"
	"sync"

	"github.com/seocho-ai/seocho/internal/llm"
	"github.com/seocho-ai/seocho/internal/model"
)

const (
	// DefaultMergeThreshold is the cosine similarity above which two
	// entity names are treated as the same entity.
	DefaultMergeThreshold = 0.92
	maxCanonicals         = 1024
)

// Deduplicator merges nodes whose names refer to the same entity:
// exact-name hits first, then embedding cosine similarity against the
// canonical table. The table is bounded; the oldest entry is evicted
// on overflow.
type Deduplicator struct {
	mu         sync.Mutex
	llm        llm.Client
	threshold  float64
	names      map[string]string
	embeddings map[string][]float32
	order      []string
	logger     *slog.Logger
}

// NewDeduplicator creates a deduplicator. A non-positive threshold
// falls back to DefaultMergeThreshold.
func NewDeduplicator(client llm.Client, threshold float64, logger *slog.Logger) *Deduplicator {
	if threshold <= 0 {
		threshold = DefaultMergeThreshold
	}
	return &Deduplicator{
		llm:        client,
		threshold:  threshold,
		names:      map[string]string{},
		embeddings: map[string][]float32{},
		logger:     logger,
	}
}

// Dedup rewrites node IDs to canonical IDs and drops relationship
// duplicates after endpoint remapping. Embedding failures leave the
// node as its own canonical.
func (d *Deduplicator) Dedup(ctx context.Context, g model.Graph) model.Graph {
	idToCanonical := map[string]string{}
	out := model.Graph{}
	seenNodes := map[string]bool{}

	for _, node := range g.Nodes {
		canonical := d.canonicalID(ctx, node)
		idToCanonical[node.ID] = canonical
		if seenNodes[canonical] {
			continue
		}
		seenNodes[canonical] = true
		node.ID = canonical
		out.Nodes = append(out.Nodes, node)
	}

	seenRels := map[string]bool{}
	for _, rel := range g.Relationships {
		if c, ok := idToCanonical[rel.Source]; ok {
			rel.Source = c
		}
		if c, ok := idToCanonical[rel.Target]; ok {
			rel.Target = c
		}
		key := rel.Source + "|" + rel.Target + "|" + rel.Type
		if seenRels[key] {
			continue
		}
		seenRels[key] = true
		out.Relationships = append(out.Relationships, rel)
	}
	return out
}

func (d *Deduplicator) canonicalID(ctx context.Context, node model.Node) string {
	name := strings.ToLower(strings.TrimSpace(node.Name()))
	if name == "" {
		return node.ID
	}

	d.mu.Lock()
	if canonical, ok := d.names[name]; ok {
		d.mu.Unlock()
		return canonical
	}
	d.mu.Unlock()

	embedding, err := d.llm.Embed(ctx, name)
	if err != nil {
		d.logger.Warn("dedup embedding failed", "name", name, "error", err)
		d.register(name, node.ID, nil)
		return node.ID
	}

	d.mu.Lock()
	bestID, bestScore := "", 0.0
	for id, candidate := range d.embeddings {
		if score := cosine(embedding, candidate); score > bestScore {
			bestID, bestScore = id, score
		}
	}
	if bestScore >= d.threshold {
		d.names[name] = bestID
		d.mu.Unlock()
		return bestID
	}
	d.mu.Unlock()

	d.register(name, node.ID, embedding)
	return node.ID
}

func (d *Deduplicator) register(name, id string, embedding []float32) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.names[name] = id
	if embedding != nil {
		d.embeddings[id] = embedding
	}
	d.order = append(d.order, id)
	if len(d.order) > maxCanonicals {
		oldest := d.order[0]
		d.order = d.order[1:]
		delete(d.embeddings, oldest)
		for n, c := range d.names {
			if c == oldest {
				delete(d.names, n)
			}
		}
	}
}

func cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
