// Package extract turns raw text into graph payloads. The pipeline runs
// three passes: an ontology sketch, a constraint sketch seeded by it,
// and the entity-graph extraction. The first two degrade to empty
// payloads on failure; the third is required.
package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/seocho-ai/seocho/internal/llm"
	"github.com/seocho-ai/seocho/internal/model"
)

const ontologyPrompt = `Read the text and sketch the ontology it implies.
Return one JSON object:
{"ontology_name": string, "classes": [{"name": string, "description": string, "properties": [string]}], "relationships": [{"type": string, "source": string, "target": string, "description": string}]}`

const constraintPrompt = `Given the ontology draft below, propose SHACL-like property constraints.
Return one JSON object:
{"shapes": [{"target_class": string, "properties": [{"path": string, "constraint": "required" | "datatype" | "enum" | "range", "params": object}]}]}

Ontology draft:
%s`

const graphPrompt = `Extract a knowledge graph from the text.
Node labels and relationship types must match ^[A-Za-z_][A-Za-z0-9_]*$.
Return one JSON object:
{"nodes": [{"id": string, "label": string, "properties": object}], "relationships": [{"source": string, "target": string, "type": string, "properties": object}]}

Ontology context:
%s

Constraint context:
%s

Text:
%s`

// Result is the outcome of one extraction run.
type Result struct {
	Graph       model.Graph       `json:"graph"`
	Ontology    map[string]any    `json:"ontology,omitempty"`
	Constraints map[string]any    `json:"constraints,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

// Pipeline runs the three extraction passes against the LM client.
type Pipeline struct {
	llm    llm.Client
	logger *slog.Logger
}

// NewPipeline creates an extraction pipeline.
func NewPipeline(client llm.Client, logger *slog.Logger) *Pipeline {
	return &Pipeline{llm: client, logger: logger}
}

// Run extracts a graph from text. Ontology and constraint passes record
// their failures in Metadata and continue; a graph-pass failure fails
// the run.
func (p *Pipeline) Run(ctx context.Context, text string) (*Result, error) {
	result := &Result{Metadata: map[string]string{}}

	ontology, err := p.llm.CompleteJSON(ctx, ontologyPrompt, text)
	if err != nil {
		p.logger.Warn("ontology pass failed", "error", err)
		result.Metadata["ontology_error"] = string(model.KindOf(err))
		ontology = map[string]any{}
	}
	result.Ontology = ontology

	constraints, err := p.llm.CompleteJSON(ctx, fmt.Sprintf(constraintPrompt, compactJSON(ontology)), text)
	if err != nil {
		p.logger.Warn("constraint pass failed", "error", err)
		result.Metadata["constraint_error"] = string(model.KindOf(err))
		constraints = map[string]any{}
	}
	result.Constraints = constraints

	payload, err := p.llm.CompleteJSON(ctx, "You are a knowledge-graph extraction engine.",
		fmt.Sprintf(graphPrompt, compactJSON(ontology), compactJSON(constraints), text))
	if err != nil {
		return nil, fmt.Errorf("extract: graph pass: %w", err)
	}
	g, err := ParseGraph(payload)
	if err != nil {
		return nil, err
	}
	result.Graph = g
	return result, nil
}

// ParseGraph decodes an LM graph payload and validates its identifiers.
func ParseGraph(payload map[string]any) (model.Graph, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return model.Graph{}, model.NewError(model.KindPipeline, fmt.Errorf("extract: encode payload: %w", err))
	}
	var g model.Graph
	if err := json.Unmarshal(data, &g); err != nil {
		return model.Graph{}, model.NewError(model.KindPipeline, fmt.Errorf("extract: decode graph payload: %w", err))
	}
	if err := g.Validate(); err != nil {
		return model.Graph{}, model.NewError(model.KindPipeline, err)
	}
	return g, nil
}

func compactJSON(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return "{}"
	}
	return string(data)
}
