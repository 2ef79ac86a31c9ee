package platform

import (
	"fmt"

	"github.com/seocho-ai/seocho/internal/model"
)

// UIPayload shapes a runtime result for the chat frontend: answer cards,
// a trace summary, and grouped entity candidates.
type UIPayload struct {
	Cards            []Card                `json:"cards"`
	TraceSummary     map[string]int        `json:"trace_summary"`
	EntityCandidates []EntityCandidateItem `json:"entity_candidates,omitempty"`
}

// Card is one display block in the chat answer.
type Card struct {
	Title    string `json:"title"`
	Body     string `json:"body"`
	Kind     string `json:"kind"`
	Database string `json:"database,omitempty"`
}

// EntityCandidateItem groups the resolver's candidates for one entity.
type EntityCandidateItem struct {
	Entity     string `json:"entity"`
	Candidates []any  `json:"candidates"`
}

// BuildUIPayload renders a runtime payload for the frontend.
func BuildUIPayload(payload *RuntimePayload) UIPayload {
	ui := UIPayload{
		Cards:        []Card{{Title: "Answer", Body: payload.Response, Kind: "answer"}},
		TraceSummary: map[string]int{},
	}
	for _, step := range payload.TraceSteps {
		ui.TraceSummary[string(step.Type)]++
	}

	if payload.Debate != nil {
		for _, r := range payload.Debate.DebateResults {
			kind := "agent_result"
			if r.Failed() {
				kind = "agent_error"
			}
			ui.Cards = append(ui.Cards, Card{
				Title:    r.AgentName,
				Body:     model.Truncate(r.Response, 400),
				Kind:     kind,
				Database: r.DBName,
			})
		}
	}

	if payload.Semantic != nil {
		ui.Cards = append(ui.Cards, Card{
			Title: "Route",
			Body:  payload.Semantic.Route,
			Kind:  "route",
		})
		if lpg := payload.Semantic.LPGResult; lpg != nil {
			ui.Cards = append(ui.Cards, Card{
				Title: "LPG records",
				Body:  fmt.Sprintf("%d record(s)", len(lpg.Records)),
				Kind:  "specialist",
			})
		}
		if rdf := payload.Semantic.RDFResult; rdf != nil {
			ui.Cards = append(ui.Cards, Card{
				Title: "RDF records",
				Body:  fmt.Sprintf("%d record(s)", len(rdf.Records)),
				Kind:  "specialist",
			})
		}
		if sc := payload.Semantic.SemanticContext; sc != nil {
			for _, entity := range sc.Entities {
				matches := sc.Matches[entity]
				if len(matches) == 0 {
					continue
				}
				candidates := make([]any, 0, len(matches))
				for _, m := range matches {
					candidates = append(candidates, m)
				}
				ui.EntityCandidates = append(ui.EntityCandidates, EntityCandidateItem{
					Entity:     entity,
					Candidates: candidates,
				})
			}
		}
	}
	return ui
}
