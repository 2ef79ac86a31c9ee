package extract

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/seocho-ai/seocho/internal/model"
)

const maxFallbackEntities = 12

var fallbackTokenRe = regexp.MustCompile(`\b[A-Z][A-Za-z0-9]{2,}\b`)

// Fallback deterministically extracts a minimal graph when no LM is
// available: one Document node plus up to maxFallbackEntities
// capitalized tokens linked via MENTIONS.
func Fallback(recordID, text string) model.Graph {
	docID := "doc_" + recordID
	g := model.Graph{
		Nodes: []model.Node{{
			ID:    docID,
			Label: "Document",
			Properties: map[string]any{
				"name":    docID,
				"preview": model.Truncate(strings.TrimSpace(text), 200),
			},
		}},
	}

	seen := map[string]bool{}
	for _, token := range fallbackTokenRe.FindAllString(text, -1) {
		key := strings.ToLower(token)
		if seen[key] {
			continue
		}
		seen[key] = true
		entityID := fmt.Sprintf("%s_ent_%d", recordID, len(seen))
		g.Nodes = append(g.Nodes, model.Node{
			ID:         entityID,
			Label:      "Entity",
			Properties: map[string]any{"name": token},
		})
		g.Relationships = append(g.Relationships, model.Relationship{
			Source: docID,
			Target: entityID,
			Type:   "MENTIONS",
		})
		if len(seen) >= maxFallbackEntities {
			break
		}
	}
	return g
}
