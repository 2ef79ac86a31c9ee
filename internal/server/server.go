package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/seocho-ai/seocho/internal/agent"
	"github.com/seocho-ai/seocho/internal/auth"
	"github.com/seocho-ai/seocho/internal/config"
	"github.com/seocho-ai/seocho/internal/graph"
	"github.com/seocho-ai/seocho/internal/ingest"
	"github.com/seocho-ai/seocho/internal/platform"
	"github.com/seocho-ai/seocho/internal/policy"
	"github.com/seocho-ai/seocho/internal/semantic"
	"github.com/seocho-ai/seocho/internal/store"
)

// Server is the HTTP front of the service.
type Server struct {
	httpServer *http.Server
	handler    http.Handler
	handlers   *Handlers
	logger     *slog.Logger
}

// ServerConfig carries the dependencies for constructing a Server.
type ServerConfig struct {
	Config     *config.Config
	Dispatcher *platform.Dispatcher
	Facade     *platform.Facade
	Flow       *semantic.Flow
	Pool       *agent.Pool
	Ingestor   *ingest.Ingestor
	Registry   *graph.Registry
	Fulltext   *graph.FulltextManager
	Profiles   *store.RuleProfileStore
	Artifacts  *store.ArtifactStore
	JWTManager *auth.JWTManager
	Logger     *slog.Logger
}

// New wires the handlers, routes, and middleware chain.
func New(cfg ServerConfig) *Server {
	handlers := &Handlers{
		dispatcher: cfg.Dispatcher,
		facade:     cfg.Facade,
		flow:       cfg.Flow,
		pool:       cfg.Pool,
		ingestor:   cfg.Ingestor,
		registry:   cfg.Registry,
		fulltext:   cfg.Fulltext,
		profiles:   cfg.Profiles,
		artifacts:  cfg.Artifacts,
		jwtMgr:     cfg.JWTManager,
		logger:     cfg.Logger,
	}

	mux := http.NewServeMux()

	mux.Handle("GET /healthz", http.HandlerFunc(handlers.HealthCheck))
	mux.Handle("POST /auth/token", http.HandlerFunc(handlers.IssueToken))

	mux.Handle("POST /run_agent",
		requireAction(policy.ActionRunAgent)(http.HandlerFunc(handlers.RunAgent)))
	mux.Handle("POST /run_debate",
		requireAction(policy.ActionRunDebate)(http.HandlerFunc(handlers.RunDebate)))
	mux.Handle("POST /run_agent_semantic",
		requireAction(policy.ActionRunSemantic)(http.HandlerFunc(handlers.RunSemantic)))

	mux.Handle("POST /platform/chat/send",
		requireAction(policy.ActionRunPlatform)(http.HandlerFunc(handlers.ChatSend)))
	mux.Handle("GET /platform/chat/session/{id}",
		requireAction(policy.ActionRunPlatform)(http.HandlerFunc(handlers.GetChatSession)))
	mux.Handle("DELETE /platform/chat/session/{id}",
		requireAction(policy.ActionRunPlatform)(http.HandlerFunc(handlers.DeleteChatSession)))
	mux.Handle("POST /platform/ingest/raw",
		requireAction(policy.ActionIngestRaw)(http.HandlerFunc(handlers.IngestRaw)))

	mux.Handle("GET /databases",
		requireAction(policy.ActionReadDatabases)(http.HandlerFunc(handlers.ListDatabases)))
	mux.Handle("GET /agents",
		requireAction(policy.ActionReadAgents)(http.HandlerFunc(handlers.ListAgents)))
	mux.Handle("POST /indexes/fulltext/ensure",
		requireAction(policy.ActionManageIndexes)(http.HandlerFunc(handlers.EnsureFulltextIndexes)))

	mux.Handle("POST /rules/infer",
		requireAction(policy.ActionInferRules)(http.HandlerFunc(handlers.InferRules)))
	mux.Handle("POST /rules/validate",
		requireAction(policy.ActionValidateRules)(http.HandlerFunc(handlers.ValidateRules)))
	mux.Handle("POST /rules/export",
		requireAction(policy.ActionExportRules)(http.HandlerFunc(handlers.ExportRules)))
	mux.Handle("POST /rules/profiles",
		requireAction(policy.ActionManageRuleProfiles)(http.HandlerFunc(handlers.SaveRuleProfile)))
	mux.Handle("GET /rules/profiles",
		requireAction(policy.ActionManageRuleProfiles)(http.HandlerFunc(handlers.ListRuleProfiles)))
	mux.Handle("GET /rules/profiles/{id}",
		requireAction(policy.ActionManageRuleProfiles)(http.HandlerFunc(handlers.GetRuleProfile)))

	mux.Handle("POST /semantic/artifacts",
		requireAction(policy.ActionManageArtifacts)(http.HandlerFunc(handlers.SaveSemanticArtifact)))
	mux.Handle("GET /semantic/artifacts",
		requireAction(policy.ActionManageArtifacts)(http.HandlerFunc(handlers.ListSemanticArtifacts)))
	mux.Handle("POST /semantic/artifacts/{id}/approve",
		requireAction(policy.ActionManageArtifacts)(http.HandlerFunc(handlers.ApproveSemanticArtifact)))

	var handler http.Handler = mux
	handler = authMiddleware(cfg.JWTManager, handler)
	handler = tracingMiddleware(handler)
	handler = loggingMiddleware(cfg.Logger, handler)
	handler = http.MaxBytesHandler(handler, cfg.Config.MaxRequestBodyBytes)
	handler = requestIDMiddleware(handler)

	return &Server{
		httpServer: &http.Server{
			Addr:         fmt.Sprintf(":%d", cfg.Config.Port),
			Handler:      handler,
			ReadTimeout:  cfg.Config.ReadTimeout,
			WriteTimeout: cfg.Config.WriteTimeout,
		},
		handler:  handler,
		handlers: handlers,
		logger:   cfg.Logger,
	}
}

// Handler exposes the full middleware chain for tests.
func (s *Server) Handler() http.Handler { return s.handler }

// Start blocks serving HTTP until the listener fails or Shutdown is
// called.
func (s *Server) Start() error {
	s.logger.Info("http server listening", "addr", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server: listen: %w", err)
	}
	return nil
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return s.httpServer.Shutdown(ctx)
}
