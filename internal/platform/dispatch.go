package platform

import (
	"context"
	"log/slog"

	"github.com/seocho-ai/seocho/internal/agent"
	"github.com/seocho-ai/seocho/internal/debate"
	"github.com/seocho-ai/seocho/internal/model"
	"github.com/seocho-ai/seocho/internal/semantic"
)

// Dispatch modes.
const (
	ModeRouter   = "router"
	ModeDebate   = "debate"
	ModeSemantic = "semantic"
)

// RuntimePayload is the mode-dispatched result handed to the UI layer.
type RuntimePayload struct {
	Mode           string                   `json:"mode"`
	Response       string                   `json:"response"`
	TraceSteps     []model.TraceStep        `json:"trace_steps"`
	Debate         *model.RunDebateResponse `json:"debate,omitempty"`
	Semantic       *semantic.Response       `json:"semantic,omitempty"`
	RuntimeControl map[string]any           `json:"runtime_control,omitempty"`
}

// Dispatcher routes a query to the debate orchestrator or the semantic
// flow. Debate mode falls back to semantic when the debate is blocked.
type Dispatcher struct {
	orchestrator *debate.Orchestrator
	flow         *semantic.Flow
	logger       *slog.Logger
}

// NewDispatcher creates a dispatcher over both runners.
func NewDispatcher(orchestrator *debate.Orchestrator, flow *semantic.Flow, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{orchestrator: orchestrator, flow: flow, logger: logger}
}

// Run executes query under mode. Router mode and unknown modes use the
// semantic flow, whose own router selects the specialists.
func (d *Dispatcher) Run(ctx context.Context, mode, query string, databases []string, overrides []model.EntityOverride) (*RuntimePayload, error) {
	switch mode {
	case ModeDebate:
		resp, err := d.orchestrator.Run(ctx, query)
		if err != nil {
			return nil, err
		}
		if resp.DebateState == agent.StateBlocked {
			d.logger.Warn("debate blocked, falling back to semantic flow")
			payload, err := d.runSemantic(ctx, query, databases, overrides)
			if err != nil {
				return nil, err
			}
			payload.RuntimeControl = map[string]any{
				"fallback_from": ModeDebate,
				"reason":        "no specialist workers ready",
			}
			return payload, nil
		}
		return &RuntimePayload{
			Mode:       ModeDebate,
			Response:   resp.Response,
			TraceSteps: resp.TraceSteps,
			Debate:     resp,
		}, nil
	case ModeSemantic, ModeRouter, "":
		return d.runSemantic(ctx, query, databases, overrides)
	default:
		return nil, model.Errorf(model.KindValidation, "platform: unknown mode %q", mode)
	}
}

func (d *Dispatcher) runSemantic(ctx context.Context, query string, databases []string, overrides []model.EntityOverride) (*RuntimePayload, error) {
	resp, err := d.flow.Run(ctx, query, databases, overrides)
	if err != nil {
		return nil, err
	}
	return &RuntimePayload{
		Mode:       ModeSemantic,
		Response:   resp.Response,
		TraceSteps: resp.TraceSteps,
		Semantic:   resp,
	}, nil
}
