package agent

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seocho-ai/seocho/internal/llm"
	"github.com/seocho-ai/seocho/internal/memory"
	"github.com/seocho-ai/seocho/internal/model"
	"github.com/seocho-ai/seocho/internal/testutil"
)

func scriptedClient(t *testing.T, decisions []map[string]any) *llm.MockClient {
	t.Helper()
	i := 0
	client := llm.NewMockClient()
	client.CompleteJSONFunc = func(ctx context.Context, system, user string) (map[string]any, error) {
		require.Less(t, i, len(decisions), "more completions requested than scripted")
		d := decisions[i]
		i++
		return d, nil
	}
	return client
}

func TestWorkerRunQueryThenAnswer(t *testing.T) {
	conn := testutil.NewFakeConnector(testutil.QueryRule{
		Match: "MATCH (c:Company)",
		Rows:  []map[string]any{{"c.name": "Acme"}, {"c.name": "Globex"}},
	})
	client := scriptedClient(t, []map[string]any{
		{"thought": "List the companies.", "action": "query_db", "query": "MATCH (c:Company) RETURN c.name"},
		{"action": "final_answer", "answer": "The graph contains Acme and Globex."},
	})

	w := NewWorker("kgnormal", "Database: kgnormal\nNode Labels: Company", client, conn, slog.Default())
	answer, steps, err := w.Run(context.Background(), "What companies are in the graph?", memory.New(0))
	require.NoError(t, err)
	assert.Equal(t, "The graph contains Acme and Globex.", answer)

	var types []model.StepType
	for _, s := range steps {
		types = append(types, s.Type)
	}
	assert.Equal(t, []model.StepType{
		model.StepThought, model.StepToolCall, model.StepToolOutput, model.StepGeneration,
	}, types)

	// Tool-call steps carry the tool name only, never the query text.
	for _, s := range steps {
		if s.Type == model.StepToolCall {
			assert.Equal(t, "query_db", s.Content)
		}
	}
}

func TestWorkerQueryDBWriteThroughCache(t *testing.T) {
	conn := testutil.NewFakeConnector(testutil.QueryRule{
		Match: "RETURN n",
		Rows:  []map[string]any{{"n": "x"}},
	})
	client := scriptedClient(t, []map[string]any{
		{"action": "query_db", "query": "MATCH (n) RETURN n"},
		{"action": "query_db", "query": "match (n)  RETURN n"},
		{"action": "final_answer", "answer": "done"},
	})

	mem := memory.New(0)
	w := NewWorker("kgnormal", "schema", client, conn, slog.Default())
	_, _, err := w.Run(context.Background(), "q", mem)
	require.NoError(t, err)

	// Second query normalizes to the same cache key; backend hit once.
	assert.Equal(t, 1, conn.CallCount("RETURN n"))
}

func TestWorkerGetSchemaTool(t *testing.T) {
	client := scriptedClient(t, []map[string]any{
		{"action": "get_schema"},
		{"action": "final_answer", "answer": "out of scope for kgnormal"},
	})
	w := NewWorker("kgnormal", "Database: kgnormal", client, testutil.NewFakeConnector(), slog.Default())

	answer, steps, err := w.Run(context.Background(), "What is the weather?", memory.New(0))
	require.NoError(t, err)
	assert.Contains(t, answer, "out of scope")
	require.GreaterOrEqual(t, len(steps), 2)
	assert.Equal(t, "get_schema", steps[0].Content)
}

func TestWorkerStepLimit(t *testing.T) {
	client := llm.NewMockClient()
	client.CompleteJSONFunc = func(ctx context.Context, system, user string) (map[string]any, error) {
		return map[string]any{"action": "get_schema"}, nil
	}
	w := NewWorker("kgnormal", "schema", client, testutil.NewFakeConnector(), slog.Default())

	_, _, err := w.Run(context.Background(), "q", memory.New(0))
	require.Error(t, err)
	assert.Equal(t, model.KindPipeline, model.KindOf(err))
}
