package semantic

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/seocho-ai/seocho/internal/graph"
	"github.com/seocho-ai/seocho/internal/model"
)

// Response is the semantic-path reply.
type Response struct {
	Response        string            `json:"response"`
	TraceSteps      []model.TraceStep `json:"trace_steps"`
	Route           string            `json:"route"`
	SemanticContext *Context          `json:"semantic_context"`
	LPGResult       *SpecialistResult `json:"lpg_result,omitempty"`
	RDFResult       *SpecialistResult `json:"rdf_result,omitempty"`
}

// Flow wires resolver, router, and specialists into the deterministic
// semantic query path. No LM call is made on this path.
type Flow struct {
	resolver *Resolver
	registry *graph.Registry
	lpg      *LPGSpecialist
	rdf      *RDFSpecialist
	logger   *slog.Logger
}

// NewFlow creates the semantic flow.
func NewFlow(resolver *Resolver, registry *graph.Registry, connector graph.Connector, logger *slog.Logger) *Flow {
	return &Flow{
		resolver: resolver,
		registry: registry,
		lpg:      NewLPGSpecialist(connector, logger),
		rdf:      NewRDFSpecialist(connector, logger),
		logger:   logger,
	}
}

// Run resolves entities, routes the question, executes the selected
// specialists, and composes the deterministic answer.
func (f *Flow) Run(ctx context.Context, query string, databases []string, overrides []model.EntityOverride) (*Response, error) {
	if len(databases) == 0 {
		databases = f.registry.ListUserDatabases()
	}
	for _, db := range databases {
		if !f.registry.IsValid(db) {
			return nil, model.Errorf(model.KindValidation, "semantic: database %q is not registered", db)
		}
	}

	sc, err := f.resolver.Resolve(ctx, query, databases, overrides)
	if err != nil {
		return nil, err
	}

	resp := &Response{
		Route:           Route(query),
		SemanticContext: sc,
	}
	steps := []model.TraceStep{
		flowStep(model.StepSemantic, "resolver",
			fmt.Sprintf("Resolved %d of %d entities", len(sc.Entities)-len(sc.Unresolved), len(sc.Entities)),
			map[string]any{"entities": sc.Entities, "unresolved": sc.Unresolved}),
		flowStep(model.StepRouter, "router", resp.Route, nil),
	}

	if resp.Route == RouteLPG || resp.Route == RouteHybrid {
		result := f.lpg.Run(ctx, sc, databases)
		resp.LPGResult = &result
		steps = append(steps, flowStep(model.StepSpecialist, "lpg_specialist",
			fmt.Sprintf("%d records", len(result.Records)), map[string]any{"fallback": result.Fallback}))
	}
	if resp.Route == RouteRDF || resp.Route == RouteHybrid {
		result := f.rdf.Run(ctx, sc, databases)
		resp.RDFResult = &result
		steps = append(steps, flowStep(model.StepSpecialist, "rdf_specialist",
			fmt.Sprintf("%d records", len(result.Records)), map[string]any{"fallback": result.Fallback}))
	}

	resp.Response = synthesize(resp.Route, sc, resp.LPGResult, resp.RDFResult)
	resp.TraceSteps = append(steps, flowStep(model.StepGeneration, "synthesizer", resp.Response, nil))
	return resp, nil
}

// synthesize composes the answer without an LM call, so the semantic
// path stays deterministic.
func synthesize(route string, sc *Context, lpg, rdf *SpecialistResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Route selected: %s.", routeLabel(route))

	var resolved []string
	for _, entity := range sc.Entities {
		if matches := sc.Matches[entity]; len(matches) > 0 {
			resolved = append(resolved, fmt.Sprintf("%s (%s)", matches[0].DisplayName, matches[0].Database))
		}
	}
	if len(resolved) > 0 {
		fmt.Fprintf(&b, " Resolved entities: %s.", strings.Join(resolved, ", "))
	}
	if len(sc.Unresolved) > 0 {
		fmt.Fprintf(&b, " Unresolved entities: %s.", strings.Join(sc.Unresolved, ", "))
	}

	empty := true
	if lpg != nil {
		fmt.Fprintf(&b, " LPG specialist returned %d record(s).", len(lpg.Records))
		empty = empty && len(lpg.Records) == 0
	}
	if rdf != nil {
		fmt.Fprintf(&b, " RDF specialist returned %d record(s).", len(rdf.Records))
		empty = empty && len(rdf.Records) == 0
	}
	if empty {
		b.WriteString(" No matching graph records were found.")
	}
	return b.String()
}

func routeLabel(route string) string {
	switch route {
	case RouteLPG:
		return "LPG"
	case RouteRDF:
		return "RDF"
	default:
		return "Hybrid"
	}
}

func flowStep(t model.StepType, agent, content string, metadata map[string]any) model.TraceStep {
	return model.TraceStep{
		ID:       uuid.NewString(),
		Type:     t,
		Agent:    agent,
		Content:  content,
		Metadata: metadata,
	}
}
