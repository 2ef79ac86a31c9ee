// Package agent implements the per-database specialist workers, the
// supervisor that synthesizes their answers, and the pool that
// provisions workers lazily with readiness tracking.
package agent

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/seocho-ai/seocho/internal/graph"
	"github.com/seocho-ai/seocho/internal/llm"
	"github.com/seocho-ai/seocho/internal/memory"
	"github.com/seocho-ai/seocho/internal/model"
)

const (
	maxWorkerSteps    = 6
	toolOutputPreview = 500
)

const instructionTemplate = `You are %s, a graph database specialist scoped to the "%s" database.

Schema:
%s

Ground every answer in this database. If the question cannot be answered from this database, state explicitly that it is out of scope for %s.

Respond with one JSON object:
{"thought": string, "action": "get_schema" | "query_db" | "final_answer", "query": string (Cypher, when action is query_db), "answer": string (when action is final_answer)}`

// Worker answers questions scoped to a single database. It exposes two
// tools to its own reasoning loop: get_schema and query_db.
type Worker struct {
	Name      string
	Database  string
	schema    string
	llm       llm.Client
	connector graph.Connector
	logger    *slog.Logger
}

// NewWorker creates a worker bound to database with a pre-fetched schema.
func NewWorker(database, schema string, client llm.Client, connector graph.Connector, logger *slog.Logger) *Worker {
	return &Worker{
		Name:      "agent_" + database,
		Database:  database,
		schema:    schema,
		llm:       client,
		connector: connector,
		logger:    logger,
	}
}

// Run executes the worker's reasoning loop for query. Trace steps record
// tool names but not tool arguments.
func (w *Worker) Run(ctx context.Context, query string, mem *memory.SharedMemory) (string, []model.TraceStep, error) {
	instruction := fmt.Sprintf(instructionTemplate, w.Name, w.Database, w.schema, w.Database)

	var steps []model.TraceStep
	transcript := []string{"Question: " + query}

	for i := 0; i < maxWorkerSteps; i++ {
		decision, err := w.llm.CompleteJSON(ctx, instruction, strings.Join(transcript, "\n\n"))
		if err != nil {
			return "", steps, fmt.Errorf("agent: %s completion: %w", w.Name, err)
		}

		if thought, _ := decision["thought"].(string); thought != "" {
			steps = append(steps, w.step(model.StepThought, thought, nil))
		}

		action, _ := decision["action"].(string)
		switch action {
		case "final_answer":
			answer, _ := decision["answer"].(string)
			if answer == "" {
				return "", steps, model.Errorf(model.KindPipeline, "agent: %s produced an empty answer", w.Name)
			}
			steps = append(steps, w.step(model.StepGeneration, answer, nil))
			return answer, steps, nil

		case "get_schema":
			steps = append(steps, w.step(model.StepToolCall, "get_schema", map[string]any{"tool": "get_schema"}))
			steps = append(steps, w.step(model.StepToolOutput, model.Truncate(w.schema, toolOutputPreview), nil))
			transcript = append(transcript, "Schema:\n"+w.schema)

		case "query_db":
			cypher, _ := decision["query"].(string)
			if cypher == "" {
				transcript = append(transcript, "Observation: query_db requires a non-empty query.")
				continue
			}
			steps = append(steps, w.step(model.StepToolCall, "query_db", map[string]any{"tool": "query_db"}))
			rows, err := w.queryDB(ctx, cypher, mem)
			if err != nil {
				if model.KindOf(err) == model.KindInfrastructure {
					return "", steps, err
				}
				rows = "Query failed: " + err.Error()
			}
			steps = append(steps, w.step(model.StepToolOutput, model.Truncate(rows, toolOutputPreview), nil))
			transcript = append(transcript, "Query result:\n"+rows)

		default:
			transcript = append(transcript, fmt.Sprintf("Observation: unknown action %q. Use get_schema, query_db, or final_answer.", action))
		}
	}

	return "", steps, model.Errorf(model.KindPipeline, "agent: %s exceeded %d steps without an answer", w.Name, maxWorkerSteps)
}

// queryDB consults the shared-memory cache, then the connector, writing
// through on a miss.
func (w *Worker) queryDB(ctx context.Context, cypher string, mem *memory.SharedMemory) (string, error) {
	if cached, ok := mem.GetCached(w.Database, cypher); ok {
		return cached, nil
	}
	rows, err := graph.RunJSON(ctx, w.connector, w.Database, cypher, nil)
	if err != nil {
		return "", err
	}
	mem.PutCached(w.Database, cypher, rows)
	return rows, nil
}

func (w *Worker) step(t model.StepType, content string, metadata map[string]any) model.TraceStep {
	return model.TraceStep{
		ID:       uuid.NewString(),
		Type:     t,
		Agent:    w.Name,
		Content:  content,
		Metadata: metadata,
	}
}
