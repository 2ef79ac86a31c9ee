// Package model defines the shared data shapes exchanged between the
// retrieval plane, the orchestrators, and the HTTP API.
package model

import (
	"fmt"
	"regexp"
)

// labelRe validates node labels and relationship types before they are
// interpolated into a query. Anything else is rejected to prevent injection.
var labelRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// ValidLabel reports whether s is a safe label or relationship type.
func ValidLabel(s string) bool {
	return labelRe.MatchString(s)
}

// Node is a single extracted graph node. ID is stable within a source
// document; after deduplication it may be a canonical ID shared with
// other mentions of the same entity.
type Node struct {
	ID         string         `json:"id"`
	Label      string         `json:"label"`
	Properties map[string]any `json:"properties"`
}

// Name returns the node's display name, falling back to its ID.
func (n Node) Name() string {
	if v, ok := n.Properties["name"].(string); ok && v != "" {
		return v
	}
	return n.ID
}

// Validate checks the label against the allowed identifier pattern.
func (n Node) Validate() error {
	if !ValidLabel(n.Label) {
		return fmt.Errorf("model: invalid node label %q", n.Label)
	}
	return nil
}

// Relationship is a typed edge between two nodes, addressed by node ID.
type Relationship struct {
	Source     string         `json:"source"`
	Target     string         `json:"target"`
	Type       string         `json:"type"`
	Properties map[string]any `json:"properties,omitempty"`
}

// Validate checks the relationship type against the identifier pattern.
func (r Relationship) Validate() error {
	if !ValidLabel(r.Type) {
		return fmt.Errorf("model: invalid relationship type %q", r.Type)
	}
	return nil
}

// Graph is the canonical inter-component payload: the pair of nodes and
// relationships produced by extraction and consumed by the loader.
type Graph struct {
	Nodes         []Node         `json:"nodes"`
	Relationships []Relationship `json:"relationships"`
}

// Validate rejects the graph if any label or relationship type fails the
// identifier pattern.
func (g Graph) Validate() error {
	for _, n := range g.Nodes {
		if err := n.Validate(); err != nil {
			return err
		}
	}
	for _, r := range g.Relationships {
		if err := r.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Merge appends another graph's nodes and relationships.
func (g *Graph) Merge(other Graph) {
	g.Nodes = append(g.Nodes, other.Nodes...)
	g.Relationships = append(g.Relationships, other.Relationships...)
}
