package extract

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/seocho-ai/seocho/internal/llm"
	"github.com/seocho-ai/seocho/internal/model"
)

const linkerPrompt = `The graph below was extracted from one document. The target database
already contains entities named:
%s

Propose additional relationships that connect the graph's nodes to each
other or to the existing entities, and return the COMPLETE graph with
those relationships merged in. Keep all input nodes and relationships.
Return one JSON object with the same shape as the input.

Graph:
%s`

// Linker asks the LM to connect an extracted graph to the entities
// already present in the target database.
type Linker struct {
	llm    llm.Client
	logger *slog.Logger
}

// NewLinker creates a linker.
func NewLinker(client llm.Client, logger *slog.Logger) *Linker {
	return &Linker{llm: client, logger: logger}
}

// Link returns the graph with LM-proposed relationships merged in. On
// any failure the input graph is returned unchanged with a warning.
func (l *Linker) Link(ctx context.Context, g model.Graph, existingNames []string) (model.Graph, string) {
	payload, err := l.llm.CompleteJSON(ctx, "You are a knowledge-graph linking engine.",
		fmt.Sprintf(linkerPrompt, strings.Join(existingNames, ", "), compactJSON(g)))
	if err != nil {
		l.logger.Warn("linker completion failed", "error", err)
		return g, "linker failed: " + err.Error()
	}
	linked, err := ParseGraph(payload)
	if err != nil {
		l.logger.Warn("linker returned an unparseable graph", "error", err)
		return g, "linker output discarded: " + err.Error()
	}
	if len(linked.Nodes) == 0 {
		return g, "linker output discarded: empty graph"
	}
	// The model may drop relationships; merge the input's back in.
	linked.Relationships = mergeRelationships(g.Relationships, linked.Relationships)
	return linked, ""
}

func mergeRelationships(original, linked []model.Relationship) []model.Relationship {
	seen := map[string]bool{}
	out := make([]model.Relationship, 0, len(original)+len(linked))
	for _, r := range append(linked, original...) {
		key := r.Source + "|" + r.Target + "|" + r.Type
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, r)
	}
	return out
}
