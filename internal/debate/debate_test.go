package debate

import (
	"context"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seocho-ai/seocho/internal/agent"
	"github.com/seocho-ai/seocho/internal/graph"
	"github.com/seocho-ai/seocho/internal/llm"
	"github.com/seocho-ai/seocho/internal/model"
	"github.com/seocho-ai/seocho/internal/testutil"
)

func schemaRules() []testutil.QueryRule {
	return []testutil.QueryRule{
		{Match: "db.labels", Rows: []map[string]any{{"label": "Company"}}},
		{Match: "db.relationshipTypes", Rows: nil},
		{Match: "db.propertyKeys", Rows: nil},
	}
}

func newOrchestrator(t *testing.T, client llm.Client, databases ...string) *Orchestrator {
	t.Helper()
	conn := testutil.NewFakeConnector(schemaRules()...)
	manager := graph.NewManager(conn, graph.NewRegistry(databases...), slog.Default())
	pool := agent.NewPool(manager, client, slog.Default())
	return New(pool, client, 5*time.Second, 5*time.Second, slog.Default())
}

// answerByDatabase scripts each worker to answer immediately; the system
// instruction names the target database.
func answerByDatabase(answers map[string]string) func(context.Context, string, string) (map[string]any, error) {
	return func(ctx context.Context, system, user string) (map[string]any, error) {
		for db, answer := range answers {
			if strings.Contains(system, `"`+db+`"`) {
				return map[string]any{"action": "final_answer", "answer": answer}, nil
			}
		}
		return map[string]any{"action": "final_answer", "answer": "out of scope"}, nil
	}
}

func TestDebateHappyPath(t *testing.T) {
	client := llm.NewMockClient()
	client.CompleteJSONFunc = answerByDatabase(map[string]string{
		"kgnormal": "Acme and Globex are companies.",
		"kgfibo":   "FIBO lists Acme as an issuer.",
	})
	client.CompleteFunc = func(ctx context.Context, system, user string) (string, error) {
		assert.Contains(t, user, "Original Question:")
		assert.Contains(t, user, "--- agent_kgnormal (kgnormal) ---")
		assert.Contains(t, user, "--- agent_kgfibo (kgfibo) ---")
		return "Both kgnormal and kgfibo agree that Acme is present.", nil
	}

	o := newOrchestrator(t, client, "kgnormal", "kgfibo")
	resp, err := o.Run(context.Background(), "What companies are in the graph?")
	require.NoError(t, err)

	assert.Equal(t, agent.StateReady, resp.DebateState)
	require.Len(t, resp.DebateResults, 2)
	for _, r := range resp.DebateResults {
		assert.False(t, r.Failed())
	}
	assert.Contains(t, resp.Response, "kgnormal")
	assert.Contains(t, resp.Response, "kgfibo")

	require.NotEmpty(t, resp.TraceSteps)
	assert.Equal(t, model.StepFanout, resp.TraceSteps[0].Type)
	assert.Equal(t, model.StepSynthesis, resp.TraceSteps[len(resp.TraceSteps)-1].Type)

	var debates []string
	for _, s := range resp.TraceSteps {
		if s.Type == model.StepDebate {
			debates = append(debates, s.Metadata["db"].(string))
		}
	}
	// Registry iteration order is sorted.
	assert.Equal(t, []string{"kgfibo", "kgnormal"}, debates)
}

func TestDebatePartialFailure(t *testing.T) {
	client := llm.NewMockClient()
	client.CompleteJSONFunc = func(ctx context.Context, system, user string) (map[string]any, error) {
		if strings.Contains(system, `"kgfibo"`) {
			return nil, model.Errorf(model.KindInfrastructure, "deadline exceeded")
		}
		return map[string]any{"action": "final_answer", "answer": "Acme is a company."}, nil
	}
	client.CompleteFunc = func(ctx context.Context, system, user string) (string, error) {
		return "Only kgnormal responded: Acme is a company.", nil
	}

	o := newOrchestrator(t, client, "kgnormal", "kgfibo")
	resp, err := o.Run(context.Background(), "What companies are in the graph?")
	require.NoError(t, err)

	require.Len(t, resp.DebateResults, 2)
	var failed, ok int
	for _, r := range resp.DebateResults {
		if r.Failed() {
			failed++
			assert.True(t, strings.HasPrefix(r.Response, "Error:"))
			assert.Empty(t, r.TraceSteps)
		} else {
			ok++
		}
	}
	assert.Equal(t, 1, failed)
	assert.Equal(t, 1, ok)
}

func TestDebateBlockedWhenNoWorkersReady(t *testing.T) {
	client := llm.NewMockClient()
	conn := testutil.NewFakeConnector(testutil.QueryRule{
		Match: "db.labels", Err: model.Errorf(model.KindInfrastructure, "connection refused"),
	})
	manager := graph.NewManager(conn, graph.NewRegistry("kgnormal"), slog.Default())
	pool := agent.NewPool(manager, client, slog.Default())
	o := New(pool, client, time.Second, time.Second, slog.Default())

	resp, err := o.Run(context.Background(), "anything")
	require.NoError(t, err)
	assert.Equal(t, agent.StateBlocked, resp.DebateState)
	assert.Empty(t, resp.DebateResults)
	assert.Empty(t, resp.TraceSteps)
}

func TestDebateWorkerResultsPublishedToMemory(t *testing.T) {
	// Shared memory is request-scoped; observable effect is that both
	// results reach the supervisor prompt even when one failed.
	client := llm.NewMockClient()
	client.CompleteJSONFunc = func(ctx context.Context, system, user string) (map[string]any, error) {
		if strings.Contains(system, `"kgfibo"`) {
			return nil, model.Errorf(model.KindPipeline, "bad completion")
		}
		return map[string]any{"action": "final_answer", "answer": "ok"}, nil
	}
	var prompt string
	client.CompleteFunc = func(ctx context.Context, system, user string) (string, error) {
		prompt = user
		return "synthesized", nil
	}

	o := newOrchestrator(t, client, "kgnormal", "kgfibo")
	_, err := o.Run(context.Background(), "q")
	require.NoError(t, err)
	assert.Contains(t, prompt, "Error:")
	assert.Contains(t, prompt, "ok")
}
