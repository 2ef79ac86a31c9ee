package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seocho-ai/seocho/internal/agent"
	"github.com/seocho-ai/seocho/internal/auth"
	"github.com/seocho-ai/seocho/internal/config"
	"github.com/seocho-ai/seocho/internal/debate"
	"github.com/seocho-ai/seocho/internal/extract"
	"github.com/seocho-ai/seocho/internal/graph"
	"github.com/seocho-ai/seocho/internal/ingest"
	"github.com/seocho-ai/seocho/internal/llm"
	"github.com/seocho-ai/seocho/internal/model"
	"github.com/seocho-ai/seocho/internal/platform"
	"github.com/seocho-ai/seocho/internal/policy"
	"github.com/seocho-ai/seocho/internal/semantic"
	"github.com/seocho-ai/seocho/internal/store"
	"github.com/seocho-ai/seocho/internal/testutil"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestServer(t *testing.T, conn *testutil.FakeConnector, client *llm.MockClient, jwtMgr *auth.JWTManager) *Server {
	t.Helper()
	logger := discardLogger()

	registry := graph.NewRegistry("kgnormal")
	manager := graph.NewManager(conn, registry, logger)
	fulltext := graph.NewFulltextManager(conn, logger)

	hints, err := semantic.LoadHintStore(filepath.Join(t.TempDir(), "hints.json"))
	require.NoError(t, err)
	resolver := semantic.NewResolver(conn, fulltext, hints, logger)
	flow := semantic.NewFlow(resolver, registry, conn, logger)

	pool := agent.NewPool(manager, client, logger)
	orchestrator := debate.New(pool, client, time.Second, time.Second, logger)
	dispatcher := platform.NewDispatcher(orchestrator, flow, logger)
	facade := platform.NewFacade(platform.NewSessionStore(10), dispatcher, logger)

	ingestor := ingest.NewIngestor(manager,
		extract.NewPipeline(client, logger),
		extract.NewLinker(client, logger),
		extract.NewDeduplicator(client, extract.DefaultMergeThreshold, logger),
		false, 0.2, logger)

	cfg := &config.Config{
		Port:                8080,
		ReadTimeout:         5 * time.Second,
		WriteTimeout:        5 * time.Second,
		MaxRequestBodyBytes: 1 << 20,
	}

	return New(ServerConfig{
		Config:     cfg,
		Dispatcher: dispatcher,
		Facade:     facade,
		Flow:       flow,
		Pool:       pool,
		Ingestor:   ingestor,
		Registry:   registry,
		Fulltext:   fulltext,
		Profiles:   store.NewRuleProfileStore(t.TempDir()),
		Artifacts:  store.NewArtifactStore(t.TempDir()),
		JWTManager: jwtMgr,
		Logger:     logger,
	})
}

func doJSON(t *testing.T, handler http.Handler, method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestHealthCheck(t *testing.T) {
	srv := newTestServer(t, testutil.NewFakeConnector(), llm.NewMockClient(), nil)

	rec := doJSON(t, srv.Handler(), http.MethodGet, "/healthz", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestRunSemanticNoMatches(t *testing.T) {
	srv := newTestServer(t, testutil.NewFakeConnector(), llm.NewMockClient(), nil)

	rec := doJSON(t, srv.Handler(), http.MethodPost, "/run_agent_semantic",
		model.RunSemanticRequest{Query: "Who are the neighbors of 'Orphanode'?"}, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp semantic.Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, semantic.RouteLPG, resp.Route)
	assert.Contains(t, resp.Response, "No matching graph records were found.")
}

func TestRunSemanticUnknownDatabase(t *testing.T) {
	srv := newTestServer(t, testutil.NewFakeConnector(), llm.NewMockClient(), nil)

	rec := doJSON(t, srv.Handler(), http.MethodPost, "/run_agent_semantic",
		model.RunSemanticRequest{Query: "anything", Databases: []string{"nope"}}, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestErrorEnvelopeEchoesRequestID(t *testing.T) {
	srv := newTestServer(t, testutil.NewFakeConnector(), llm.NewMockClient(), nil)

	rec := doJSON(t, srv.Handler(), http.MethodPost, "/run_agent",
		model.RunAgentRequest{}, map[string]string{"X-Request-ID": "req-123"})
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	var body model.APIError
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, string(model.KindValidation), body.Error.ErrorCode)
	assert.Equal(t, "req-123", body.Error.RequestID)
	assert.Equal(t, "req-123", rec.Header().Get("X-Request-ID"))
}

func TestRunDebateOverHTTP(t *testing.T) {
	client := llm.NewMockClient()
	client.CompleteJSONFunc = func(ctx context.Context, system, user string) (map[string]any, error) {
		return map[string]any{
			"thought": "direct answer",
			"action":  "final_answer",
			"answer":  "42 nodes",
		}, nil
	}
	client.CompleteFunc = func(ctx context.Context, system, user string) (string, error) {
		return "All agents agree: 42 nodes.", nil
	}
	srv := newTestServer(t, testutil.NewFakeConnector(), client, nil)

	rec := doJSON(t, srv.Handler(), http.MethodPost, "/run_debate",
		model.RunAgentRequest{Query: "How many nodes are there?"}, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp model.RunDebateResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "All agents agree: 42 nodes.", resp.Response)
	require.Len(t, resp.DebateResults, 1)
	assert.Equal(t, "kgnormal", resp.DebateResults[0].DBName)
}

func TestAuthRequiredWhenEnabled(t *testing.T) {
	jwtMgr := auth.NewJWTManager("test-secret", time.Hour)
	srv := newTestServer(t, testutil.NewFakeConnector(), llm.NewMockClient(), jwtMgr)

	// No token.
	rec := doJSON(t, srv.Handler(), http.MethodGet, "/databases", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// Health stays open.
	rec = doJSON(t, srv.Handler(), http.MethodGet, "/healthz", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	token, _, err := jwtMgr.IssueToken("u1", policy.RoleUser, "ws1")
	require.NoError(t, err)
	rec = doJSON(t, srv.Handler(), http.MethodGet, "/databases", nil,
		map[string]string{"Authorization": "Bearer " + token})
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string][]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, []string{"kgnormal"}, body["databases"])
}

func TestViewerIsReadOnly(t *testing.T) {
	jwtMgr := auth.NewJWTManager("test-secret", time.Hour)
	srv := newTestServer(t, testutil.NewFakeConnector(), llm.NewMockClient(), jwtMgr)

	token, _, err := jwtMgr.IssueToken("v1", policy.RoleViewer, "")
	require.NoError(t, err)
	headers := map[string]string{"Authorization": "Bearer " + token}

	rec := doJSON(t, srv.Handler(), http.MethodGet, "/databases", nil, headers)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, srv.Handler(), http.MethodPost, "/run_debate",
		model.RunAgentRequest{Query: "q"}, headers)
	require.Equal(t, http.StatusForbidden, rec.Code)

	var body model.APIError
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, string(model.KindPermission), body.Error.ErrorCode)
}

func TestEnsureFulltextIndexOverHTTP(t *testing.T) {
	conn := testutil.NewFakeConnector()
	srv := newTestServer(t, conn, llm.NewMockClient(), nil)

	// First call: the catalog is empty, so the DDL create is issued.
	rec := doJSON(t, srv.Handler(), http.MethodPost, "/indexes/fulltext/ensure",
		model.EnsureIndexRequest{Databases: []string{"kgnormal"}}, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, 1, conn.CallCount("CREATE FULLTEXT INDEX"))

	var body struct {
		Results []graph.EnsureIndexResult `json:"results"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Results, 1)
	assert.Equal(t, "entity_name_search", body.Results[0].IndexName)

	// Second call with the catalog reporting the index: no new create.
	conn.AddRule(testutil.QueryRule{Match: "SHOW FULLTEXT INDEXES", Rows: []map[string]any{{
		"name":          "entity_name_search",
		"state":         "ONLINE",
		"entityType":    "NODE",
		"labelsOrTypes": []any{"Entity"},
		"properties":    []any{"name", "title"},
	}}})
	rec = doJSON(t, srv.Handler(), http.MethodPost, "/indexes/fulltext/ensure",
		model.EnsureIndexRequest{Databases: []string{"kgnormal"}}, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Results, 1)
	assert.True(t, body.Results[0].Exists)
	assert.False(t, body.Results[0].Created)
	assert.Equal(t, 1, conn.CallCount("CREATE FULLTEXT INDEX"))
}

func TestRulesInferValidateExportOverHTTP(t *testing.T) {
	srv := newTestServer(t, testutil.NewFakeConnector(), llm.NewMockClient(), nil)

	g := model.Graph{}
	for i := 0; i < 10; i++ {
		g.Nodes = append(g.Nodes, model.Node{
			ID:    "c" + string(rune('0'+i)),
			Label: "Company",
			Properties: map[string]any{
				"name": "Company " + string(rune('0'+i)),
			},
		})
	}

	rec := doJSON(t, srv.Handler(), http.MethodPost, "/rules/infer", map[string]any{
		"workspace_id": "ws1",
		"graph":        g,
		"profile_name": "baseline",
		"save":         true,
	}, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var inferred struct {
		Profile json.RawMessage `json:"profile"`
		Saved   *struct {
			ProfileID string `json:"profile_id"`
		} `json:"saved"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &inferred))
	require.NotNil(t, inferred.Saved)

	rec = doJSON(t, srv.Handler(), http.MethodPost, "/rules/validate", map[string]any{
		"workspace_id": "ws1",
		"graph":        g,
		"profile_id":   inferred.Saved.ProfileID,
	}, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var validated struct {
		Summary struct {
			Total  int `json:"total"`
			Failed int `json:"failed"`
		} `json:"summary"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &validated))
	assert.Equal(t, 10, validated.Summary.Total)
	assert.Equal(t, 0, validated.Summary.Failed)

	rec = doJSON(t, srv.Handler(), http.MethodPost, "/rules/export", map[string]any{
		"workspace_id": "ws1",
		"profile_id":   inferred.Saved.ProfileID,
	}, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), "CREATE CONSTRAINT")
	assert.Contains(t, rec.Body.String(), "sh:NodeShape")
}

func TestChatSessionLifecycle(t *testing.T) {
	srv := newTestServer(t, testutil.NewFakeConnector(), llm.NewMockClient(), nil)

	rec := doJSON(t, srv.Handler(), http.MethodPost, "/platform/chat/send",
		model.ChatSendRequest{Message: "Describe the 'Widget' node", Mode: "semantic"}, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp struct {
		SessionID string `json:"session_id"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.SessionID)

	rec = doJSON(t, srv.Handler(), http.MethodGet, "/platform/chat/session/"+resp.SessionID, nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, srv.Handler(), http.MethodDelete, "/platform/chat/session/"+resp.SessionID, nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, srv.Handler(), http.MethodGet, "/platform/chat/session/"+resp.SessionID, nil, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestIssueTokenEndpoint(t *testing.T) {
	jwtMgr := auth.NewJWTManager("test-secret", time.Hour)
	srv := newTestServer(t, testutil.NewFakeConnector(), llm.NewMockClient(), jwtMgr)

	rec := doJSON(t, srv.Handler(), http.MethodPost, "/auth/token",
		map[string]string{"user_id": "u1", "role": "viewer"}, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var body struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	claims, err := jwtMgr.ValidateToken(body.Token)
	require.NoError(t, err)
	assert.Equal(t, policy.RoleViewer, claims.Role)
}

func TestDecodeRejectsUnknownFields(t *testing.T) {
	srv := newTestServer(t, testutil.NewFakeConnector(), llm.NewMockClient(), nil)

	rec := doJSON(t, srv.Handler(), http.MethodPost, "/run_agent",
		map[string]any{"query": "q", "bogus": true}, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}
