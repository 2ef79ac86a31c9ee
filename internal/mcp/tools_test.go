package mcp

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	mcplib "github.com/mark3labs/mcp-go/mcp"

	"github.com/seocho-ai/seocho/internal/agent"
	"github.com/seocho-ai/seocho/internal/debate"
	"github.com/seocho-ai/seocho/internal/extract"
	"github.com/seocho-ai/seocho/internal/graph"
	"github.com/seocho-ai/seocho/internal/ingest"
	"github.com/seocho-ai/seocho/internal/llm"
	"github.com/seocho-ai/seocho/internal/platform"
	"github.com/seocho-ai/seocho/internal/semantic"
	"github.com/seocho-ai/seocho/internal/testutil"
)

func newTestMCPServer(t *testing.T, conn *testutil.FakeConnector, client *llm.MockClient) *Server {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	registry := graph.NewRegistry("kgnormal")
	manager := graph.NewManager(conn, registry, logger)
	fulltext := graph.NewFulltextManager(conn, logger)

	hints, err := semantic.LoadHintStore(t.TempDir() + "/hints.json")
	require.NoError(t, err)
	resolver := semantic.NewResolver(conn, fulltext, hints, logger)
	flow := semantic.NewFlow(resolver, registry, conn, logger)

	pool := agent.NewPool(manager, client, logger)
	orchestrator := debate.New(pool, client, time.Second, time.Second, logger)
	dispatcher := platform.NewDispatcher(orchestrator, flow, logger)

	ingestor := ingest.NewIngestor(manager,
		extract.NewPipeline(client, logger),
		extract.NewLinker(client, logger),
		extract.NewDeduplicator(client, extract.DefaultMergeThreshold, logger),
		false, 0.2, logger)

	return New(dispatcher, ingestor, registry, logger)
}

func toolRequest(name string, args map[string]any) mcplib.CallToolRequest {
	return mcplib.CallToolRequest{
		Params: mcplib.CallToolParams{
			Name:      name,
			Arguments: args,
		},
	}
}

// parseToolText extracts the first TextContent text from a CallToolResult.
func parseToolText(t *testing.T, result *mcplib.CallToolResult) string {
	t.Helper()
	require.NotEmpty(t, result.Content)
	text, ok := result.Content[0].(mcplib.TextContent)
	require.True(t, ok)
	return text.Text
}

func TestAskGraphTool(t *testing.T) {
	srv := newTestMCPServer(t, testutil.NewFakeConnector(), llm.NewMockClient())

	result, err := srv.handleAskGraph(context.Background(),
		toolRequest("ask_graph", map[string]any{
			"query": "Who are the neighbors of 'Acme Corp'?",
		}))
	require.NoError(t, err)
	require.False(t, result.IsError)

	var body map[string]any
	require.NoError(t, json.Unmarshal([]byte(parseToolText(t, result)), &body))
	assert.Equal(t, semantic.RouteLPG, body["route"])
	assert.Contains(t, body["response"], "Route selected: LPG.")
}

func TestAskGraphToolRequiresQuery(t *testing.T) {
	srv := newTestMCPServer(t, testutil.NewFakeConnector(), llm.NewMockClient())

	result, err := srv.handleAskGraph(context.Background(),
		toolRequest("ask_graph", map[string]any{}))
	require.NoError(t, err)
	assert.True(t, result.IsError)
}

func TestRunDebateTool(t *testing.T) {
	client := llm.NewMockClient()
	client.CompleteJSONFunc = func(ctx context.Context, system, user string) (map[string]any, error) {
		return map[string]any{
			"thought": "answer directly",
			"action":  "final_answer",
			"answer":  "7 companies",
		}, nil
	}
	client.CompleteFunc = func(ctx context.Context, system, user string) (string, error) {
		return "The databases agree on 7 companies.", nil
	}
	srv := newTestMCPServer(t, testutil.NewFakeConnector(), client)

	result, err := srv.handleRunDebate(context.Background(),
		toolRequest("run_debate", map[string]any{
			"query": "How many companies are there?",
		}))
	require.NoError(t, err)
	require.False(t, result.IsError)

	var body struct {
		Response      string           `json:"response"`
		DebateResults []map[string]any `json:"debate_results"`
	}
	require.NoError(t, json.Unmarshal([]byte(parseToolText(t, result)), &body))
	assert.Equal(t, "The databases agree on 7 companies.", body.Response)
	require.Len(t, body.DebateResults, 1)
	assert.Equal(t, "kgnormal", body.DebateResults[0]["database"])
}

func TestIngestRawTool(t *testing.T) {
	srv := newTestMCPServer(t, testutil.NewFakeConnector(), llm.NewMockClient())

	result, err := srv.handleIngestRaw(context.Background(),
		toolRequest("ingest_raw", map[string]any{
			"target_database": "kgnormal",
			"content":         "Samsung partners with Hyundai on battery logistics.",
		}))
	require.NoError(t, err)
	require.False(t, result.IsError, parseToolText(t, result))

	var body struct {
		Status       string `json:"status"`
		TotalRecords int    `json:"total_records"`
	}
	require.NoError(t, json.Unmarshal([]byte(parseToolText(t, result)), &body))
	assert.Equal(t, 1, body.TotalRecords)
	assert.Equal(t, "success_with_fallback", body.Status)
}

func TestDatabasesResource(t *testing.T) {
	srv := newTestMCPServer(t, testutil.NewFakeConnector(), llm.NewMockClient())

	contents, err := srv.handleDatabasesResource(context.Background(), mcplib.ReadResourceRequest{})
	require.NoError(t, err)
	require.Len(t, contents, 1)

	text, ok := contents[0].(mcplib.TextResourceContents)
	require.True(t, ok)
	assert.Contains(t, text.Text, "kgnormal")
}
