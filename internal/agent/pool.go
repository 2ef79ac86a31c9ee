package agent

import (
	"context"
	"log/slog"
	"sync"

	"github.com/seocho-ai/seocho/internal/graph"
	"github.com/seocho-ai/seocho/internal/llm"
	"github.com/seocho-ai/seocho/internal/model"
)

// Worker status values.
const (
	StatusReady    = "ready"
	StatusDegraded = "degraded"
)

// Debate states derived from worker statuses.
const (
	StateReady    = "ready"
	StateDegraded = "degraded"
	StateBlocked  = "blocked"
)

// Pool provisions one worker per registered user database, lazily.
// A worker whose schema fetch fails is reported degraded and excluded
// from the ready set; the schema is retried on the next provision call.
type Pool struct {
	mu      sync.Mutex
	manager *graph.Manager
	llm     llm.Client
	logger  *slog.Logger
	workers map[string]*Worker
}

// NewPool creates a pool over the graph manager.
func NewPool(manager *graph.Manager, client llm.Client, logger *slog.Logger) *Pool {
	return &Pool{
		manager: manager,
		llm:     client,
		logger:  logger,
		workers: make(map[string]*Worker),
	}
}

// Provision returns the ready workers and the status of every registered
// database, in registry order.
func (p *Pool) Provision(ctx context.Context) ([]*Worker, []model.WorkerStatus) {
	databases := p.manager.Registry().ListUserDatabases()

	var ready []*Worker
	statuses := make([]model.WorkerStatus, 0, len(databases))

	for _, db := range databases {
		worker, err := p.workerFor(ctx, db)
		if err != nil {
			p.logger.Warn("worker degraded", "database", db, "error", err)
			statuses = append(statuses, model.WorkerStatus{Database: db, Status: StatusDegraded, Reason: err.Error()})
			continue
		}
		ready = append(ready, worker)
		statuses = append(statuses, model.WorkerStatus{Database: db, Status: StatusReady})
	}
	return ready, statuses
}

// Names returns the names of all currently provisioned workers.
func (p *Pool) Names() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	names := make([]string, 0, len(p.workers))
	for _, w := range p.workers {
		names = append(names, w.Name)
	}
	return names
}

func (p *Pool) workerFor(ctx context.Context, database string) (*Worker, error) {
	p.mu.Lock()
	if w, ok := p.workers[database]; ok {
		p.mu.Unlock()
		return w, nil
	}
	p.mu.Unlock()

	schema, err := p.manager.SchemaSummary(ctx, database)
	if err != nil {
		return nil, err
	}
	worker := NewWorker(database, schema, p.llm, p.manager.Connector(), p.logger)

	p.mu.Lock()
	defer p.mu.Unlock()
	if existing, ok := p.workers[database]; ok {
		return existing, nil
	}
	p.workers[database] = worker
	return worker, nil
}

// Readiness summarizes per-worker statuses for the UI.
type Readiness struct {
	DebateState   string `json:"debate_state"`
	Degraded      bool   `json:"degraded"`
	ReadyCount    int    `json:"ready_count"`
	DegradedCount int    `json:"degraded_count"`
	TotalCount    int    `json:"total_count"`
}

// Summarize folds worker statuses into a readiness report. The state is
// blocked when no worker is ready.
func Summarize(statuses []model.WorkerStatus) Readiness {
	r := Readiness{TotalCount: len(statuses)}
	for _, s := range statuses {
		switch s.Status {
		case StatusReady:
			r.ReadyCount++
		default:
			r.DegradedCount++
		}
	}
	r.Degraded = r.DegradedCount > 0
	switch {
	case r.ReadyCount == 0:
		r.DebateState = StateBlocked
	case r.Degraded:
		r.DebateState = StateDegraded
	default:
		r.DebateState = StateReady
	}
	return r
}
