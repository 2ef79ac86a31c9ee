package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	mcplib "github.com/mark3labs/mcp-go/mcp"

	"github.com/seocho-ai/seocho/internal/model"
	"github.com/seocho-ai/seocho/internal/platform"
)

func (s *Server) registerTools() {
	// ask_graph: deterministic semantic question answering.
	s.mcpServer.AddTool(
		mcplib.NewTool("ask_graph",
			mcplib.WithDescription(`Ask a question over the knowledge graphs.

The question is answered deterministically: entities are resolved
against the graph indexes, a keyword router picks the LPG or RDF
specialist, and the answer is composed from the returned records.
No generation step is involved, so identical questions yield
identical answers.`),
			mcplib.WithReadOnlyHintAnnotation(true),
			mcplib.WithIdempotentHintAnnotation(true),
			mcplib.WithString("query",
				mcplib.Description("The natural-language question. Quote entity names for exact resolution, e.g. neighbors of 'Acme Corp'."),
				mcplib.Required(),
			),
			mcplib.WithString("databases",
				mcplib.Description("Optional comma-separated database names to search. All registered databases when omitted."),
			),
		),
		s.handleAskGraph,
	)

	// run_debate: multi-agent debate across every database.
	s.mcpServer.AddTool(
		mcplib.NewTool("run_debate",
			mcplib.WithDescription(`Run a multi-agent debate over the question.

One specialist worker per registered database answers independently
and in parallel; a supervisor synthesizes the responses, highlighting
agreements and noting disagreements. Use this for questions where
databases may disagree or complement each other.`),
			mcplib.WithReadOnlyHintAnnotation(true),
			mcplib.WithString("query",
				mcplib.Description("The natural-language question to debate"),
				mcplib.Required(),
			),
		),
		s.handleRunDebate,
	)

	// ingest_raw: load raw material into a graph database.
	s.mcpServer.AddTool(
		mcplib.NewTool("ingest_raw",
			mcplib.WithDescription(`Ingest raw material (text, CSV, or base64 PDF) into a graph database.

Each record is parsed, turned into nodes and relationships, deduplicated,
validated against an inferred rule profile, and loaded. The batch status
reports how many records loaded and which needed the deterministic
fallback extractor.`),
			mcplib.WithDestructiveHintAnnotation(false),
			mcplib.WithString("target_database",
				mcplib.Description("The database to load into"),
				mcplib.Required(),
			),
			mcplib.WithString("content",
				mcplib.Description("The raw material content"),
				mcplib.Required(),
			),
			mcplib.WithString("source_type",
				mcplib.Description("One of text, csv, pdf. Defaults to text."),
			),
			mcplib.WithString("content_encoding",
				mcplib.Description("plain or base64. PDF content must be base64."),
			),
		),
		s.handleIngestRaw,
	)
}

func (s *Server) handleAskGraph(ctx context.Context, request mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
	query := request.GetString("query", "")
	if query == "" {
		return errorResult("query is required"), nil
	}

	var databases []string
	if raw := request.GetString("databases", ""); raw != "" {
		for _, db := range strings.Split(raw, ",") {
			if db = strings.TrimSpace(db); db != "" {
				databases = append(databases, db)
			}
		}
	}

	payload, err := s.dispatcher.Run(ctx, platform.ModeSemantic, query, databases, nil)
	if err != nil {
		return errorResult(fmt.Sprintf("query failed: %v", err)), nil
	}

	result := map[string]any{
		"response": payload.Response,
	}
	if payload.Semantic != nil {
		result["route"] = payload.Semantic.Route
		result["semantic_context"] = payload.Semantic.SemanticContext
	}
	return jsonResult(result), nil
}

func (s *Server) handleRunDebate(ctx context.Context, request mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
	query := request.GetString("query", "")
	if query == "" {
		return errorResult("query is required"), nil
	}

	payload, err := s.dispatcher.Run(ctx, platform.ModeDebate, query, nil, nil)
	if err != nil {
		return errorResult(fmt.Sprintf("debate failed: %v", err)), nil
	}

	result := map[string]any{
		"response": payload.Response,
	}
	if payload.Debate != nil {
		agents := make([]map[string]any, 0, len(payload.Debate.DebateResults))
		for _, dr := range payload.Debate.DebateResults {
			agents = append(agents, map[string]any{
				"agent":    dr.AgentName,
				"database": dr.DBName,
				"response": dr.Response,
				"failed":   dr.Failed(),
			})
		}
		result["debate_results"] = agents
		if payload.Debate.DebateState != "" {
			result["debate_state"] = payload.Debate.DebateState
		}
	}
	if payload.RuntimeControl != nil {
		result["runtime_control"] = payload.RuntimeControl
	}
	return jsonResult(result), nil
}

func (s *Server) handleIngestRaw(ctx context.Context, request mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
	targetDB := request.GetString("target_database", "")
	content := request.GetString("content", "")
	if targetDB == "" || content == "" {
		return errorResult("target_database and content are required"), nil
	}

	record := model.IngestRecord{
		Content:         content,
		SourceType:      request.GetString("source_type", "text"),
		ContentEncoding: request.GetString("content_encoding", ""),
	}
	summary, err := s.ingestor.Run(ctx, targetDB, []model.IngestRecord{record})
	if err != nil {
		return errorResult(fmt.Sprintf("ingest failed: %v", err)), nil
	}
	return jsonResult(summary), nil
}

func (s *Server) handleDatabasesResource(ctx context.Context, request mcplib.ReadResourceRequest) ([]mcplib.ResourceContents, error) {
	data, err := json.MarshalIndent(map[string]any{
		"databases": s.registry.ListUserDatabases(),
	}, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("mcp: marshal databases: %w", err)
	}
	return []mcplib.ResourceContents{
		mcplib.TextResourceContents{
			URI:      "seocho://databases",
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}
