// Package debate implements the parallel debate orchestrator: fan a
// query out to every ready specialist worker, collect their results,
// and synthesize one answer through the supervisor.
package debate

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/seocho-ai/seocho/internal/agent"
	"github.com/seocho-ai/seocho/internal/llm"
	"github.com/seocho-ai/seocho/internal/memory"
	"github.com/seocho-ai/seocho/internal/model"
)

// Orchestrator runs one debate per call. It owns the shared memory for
// the request and the lifetimes of the worker tasks.
type Orchestrator struct {
	pool             *agent.Pool
	supervisor       *agent.Supervisor
	workerTimeout    time.Duration
	synthesisTimeout time.Duration
	logger           *slog.Logger
}

// New creates an orchestrator.
func New(pool *agent.Pool, client llm.Client, workerTimeout, synthesisTimeout time.Duration, logger *slog.Logger) *Orchestrator {
	return &Orchestrator{
		pool:             pool,
		supervisor:       agent.NewSupervisor(client, logger),
		workerTimeout:    workerTimeout,
		synthesisTimeout: synthesisTimeout,
		logger:           logger,
	}
}

// Run executes the debate for query. Worker failures never propagate;
// each becomes an error-typed result. With zero ready workers the
// debate is blocked and no synthesis runs.
func (o *Orchestrator) Run(ctx context.Context, query string) (*model.RunDebateResponse, error) {
	mem := memory.New(0)
	workers, statuses := o.pool.Provision(ctx)
	readiness := agent.Summarize(statuses)

	resp := &model.RunDebateResponse{
		DebateState:   readiness.DebateState,
		AgentStatuses: statuses,
	}
	if len(workers) == 0 {
		resp.Response = "No specialist workers are available."
		return resp, nil
	}

	names := make([]string, len(workers))
	for i, w := range workers {
		names[i] = w.Name
	}
	fanout := model.TraceStep{
		ID:      uuid.NewString(),
		Type:    model.StepFanout,
		Agent:   "orchestrator",
		Content: fmt.Sprintf("Dispatching query to %d workers", len(workers)),
		Metadata: map[string]any{
			"node_id": uuid.NewString(),
			"workers": names,
		},
	}

	results := make([]model.DebateResult, len(workers))
	var g errgroup.Group
	for i, w := range workers {
		g.Go(func() error {
			results[i] = o.runWorker(ctx, w, query, mem)
			return nil
		})
	}
	g.Wait()

	for _, r := range results {
		mem.Set("agent_result:"+r.DBName, map[string]any{
			"agent": r.AgentName, "response": r.Response,
		})
	}

	synthCtx, cancel := context.WithTimeout(ctx, o.synthesisTimeout)
	defer cancel()
	answer, err := o.supervisor.Synthesize(synthCtx, query, results)
	if err != nil {
		return nil, err
	}

	resp.Response = answer
	resp.DebateResults = results
	resp.TraceSteps = assembleTrace(fanout, results, answer)
	return resp, nil
}

// runWorker executes one worker under its own deadline, converting any
// failure into an error-typed result.
func (o *Orchestrator) runWorker(ctx context.Context, w *agent.Worker, query string, mem *memory.SharedMemory) model.DebateResult {
	workerCtx, cancel := context.WithTimeout(ctx, o.workerTimeout)
	defer cancel()

	result := model.DebateResult{AgentName: w.Name, DBName: w.Database}
	answer, steps, err := w.Run(workerCtx, query, mem)
	if err != nil {
		o.logger.Warn("debate worker failed", "agent", w.Name, "error", err)
		result.Response = "Error: " + err.Error()
		return result
	}
	result.Response = answer
	result.TraceSteps = steps
	return result
}

// assembleTrace builds the deterministic trace tree: FANOUT, then each
// worker's DEBATE subtree in worker order, then COLLECT, then SYNTHESIS.
func assembleTrace(fanout model.TraceStep, results []model.DebateResult, answer string) []model.TraceStep {
	fanoutNode := fanout.Metadata["node_id"].(string)
	steps := []model.TraceStep{fanout}

	debateNodes := make([]string, 0, len(results))
	for _, r := range results {
		nodeID := uuid.NewString()
		debateNodes = append(debateNodes, nodeID)
		steps = append(steps, model.TraceStep{
			ID:      uuid.NewString(),
			Type:    model.StepDebate,
			Agent:   r.AgentName,
			Content: model.Truncate(r.Response, 200),
			Metadata: map[string]any{
				"node_id":   nodeID,
				"parent_id": fanoutNode,
				"db":        r.DBName,
			},
		})
		for _, inner := range r.TraceSteps {
			if inner.Metadata == nil {
				inner.Metadata = map[string]any{}
			}
			inner.Metadata["parent_id"] = nodeID
			steps = append(steps, inner)
		}
	}

	collectNode := uuid.NewString()
	steps = append(steps, model.TraceStep{
		ID:      uuid.NewString(),
		Type:    model.StepCollect,
		Agent:   "orchestrator",
		Content: fmt.Sprintf("Collected %d results", len(results)),
		Metadata: map[string]any{
			"node_id":    collectNode,
			"parent_ids": debateNodes,
		},
	})
	steps = append(steps, model.TraceStep{
		ID:      uuid.NewString(),
		Type:    model.StepSynthesis,
		Agent:   "supervisor",
		Content: answer,
		Metadata: map[string]any{
			"node_id":   uuid.NewString(),
			"parent_id": collectNode,
		},
	})
	return steps
}
