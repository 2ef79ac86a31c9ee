// Command seocho runs the knowledge-graph question-answering service.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/seocho-ai/seocho/internal/agent"
	"github.com/seocho-ai/seocho/internal/auth"
	"github.com/seocho-ai/seocho/internal/config"
	"github.com/seocho-ai/seocho/internal/debate"
	"github.com/seocho-ai/seocho/internal/extract"
	"github.com/seocho-ai/seocho/internal/graph"
	"github.com/seocho-ai/seocho/internal/ingest"
	"github.com/seocho-ai/seocho/internal/llm"
	"github.com/seocho-ai/seocho/internal/mcp"
	"github.com/seocho-ai/seocho/internal/platform"
	"github.com/seocho-ai/seocho/internal/semantic"
	"github.com/seocho-ai/seocho/internal/server"
	"github.com/seocho-ai/seocho/internal/store"
	"github.com/seocho-ai/seocho/internal/telemetry"
)

// version is set at build time via -ldflags.
var version = "dev"

// seedDatabases are provisioned at startup. System databases are never
// registered.
var seedDatabases = []string{"kgnormal", "kgfibo", "agenttraces"}

func main() {
	os.Exit(run0())
}

func run0() int {
	level := slog.LevelInfo
	if os.Getenv("SEOCHO_LOG_LEVEL") == "debug" {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, logger); err != nil {
		slog.Error("fatal error", "error", err)
		return 1
	}
	return 0
}

func run(ctx context.Context, logger *slog.Logger) error {
	// Load .env file if present (non-fatal; production won't have one).
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	slog.Info("seocho starting", "version", version, "port", cfg.Port)

	otelShutdown, err := telemetry.Init(ctx, cfg.OTELEndpoint, cfg.ServiceName, version, cfg.OTELInsecure)
	if err != nil {
		return fmt.Errorf("telemetry: %w", err)
	}
	defer func() { _ = otelShutdown(context.Background()) }()

	// Connect to the graph store.
	registry := graph.NewRegistry()
	connector, err := graph.NewNeo4jConnector(ctx, cfg.Neo4jURI, cfg.Neo4jUser, cfg.Neo4jPassword, registry, logger)
	if err != nil {
		return fmt.Errorf("graph: %w", err)
	}
	defer func() { _ = connector.Close(context.Background()) }()

	manager := graph.NewManager(connector, registry, logger)
	for _, db := range seedDatabases {
		if err := manager.Provision(ctx, db); err != nil {
			logger.Warn("database provision failed", "database", db, "error", err)
		}
	}

	// Language model client: real Gemini or the deterministic mock.
	client, err := newLLMClient(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("llm: %w", err)
	}

	// Semantic layer.
	fulltext := graph.NewFulltextManager(connector, logger)
	hints, err := semantic.LoadHintStore(cfg.OntologyHintsPath)
	if err != nil {
		return fmt.Errorf("hints: %w", err)
	}
	resolver := semantic.NewResolver(connector, fulltext, hints, logger)
	flow := semantic.NewFlow(resolver, registry, connector, logger)

	// Debate orchestration.
	pool := agent.NewPool(manager, client, logger)
	orchestrator := debate.New(pool, client, cfg.WorkerTimeout, cfg.SynthesisTimeout, logger)

	// Platform surface.
	dispatcher := platform.NewDispatcher(orchestrator, flow, logger)
	facade := platform.NewFacade(platform.NewSessionStore(cfg.SessionMaxTurns), dispatcher, logger)

	// Runtime ingest. The LM extraction chain is active only when a real
	// client is configured; the mock runs the deterministic fallback.
	ingestor := ingest.NewIngestor(manager,
		extract.NewPipeline(client, logger),
		extract.NewLinker(client, logger),
		extract.NewDeduplicator(client, extract.DefaultMergeThreshold, logger),
		!cfg.LLMMock, cfg.RelatednessThreshold, logger)
	if cfg.EnableRuleConstraints {
		ingestor.EnableConstraints()
	}

	// Persistence for rule profiles and semantic artifacts.
	profiles := store.NewRuleProfileStore(cfg.RuleProfileDir)
	artifacts := store.NewArtifactStore(cfg.SemanticArtifactDir)

	// Auth. An empty secret disables auth entirely (dev mode).
	var jwtMgr *auth.JWTManager
	if cfg.JWTSecret != "" {
		jwtMgr = auth.NewJWTManager(cfg.JWTSecret, cfg.JWTExpiration)
	} else {
		logger.Warn("auth disabled: SEOCHO_JWT_SECRET is not set, all callers act as admin")
	}

	// MCP surface over stdio, for MCP-compatible agent hosts.
	if cfg.MCPStdio {
		logger.Info("serving MCP over stdio")
		return mcp.New(dispatcher, ingestor, registry, logger).ServeStdio()
	}

	srv := server.New(server.ServerConfig{
		Config:     &cfg,
		Dispatcher: dispatcher,
		Facade:     facade,
		Flow:       flow,
		Pool:       pool,
		Ingestor:   ingestor,
		Registry:   registry,
		Fulltext:   fulltext,
		Profiles:   profiles,
		Artifacts:  artifacts,
		JWTManager: jwtMgr,
		Logger:     logger,
	})

	errCh := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		return err
	}

	slog.Info("seocho shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("http shutdown error", "error", err)
	}

	slog.Info("seocho stopped")
	return nil
}

func newLLMClient(ctx context.Context, cfg config.Config, logger *slog.Logger) (llm.Client, error) {
	if cfg.LLMMock {
		logger.Info("llm: mock client (deterministic responses)")
		return llm.NewMockClient(), nil
	}
	logger.Info("llm: gemini", "model", cfg.LLMModel, "embedding_model", cfg.EmbeddingModel)
	return llm.NewGeminiClient(ctx, cfg.GeminiAPIKey, cfg.LLMModel, cfg.EmbeddingModel, logger)
}
