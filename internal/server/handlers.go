package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/seocho-ai/seocho/internal/agent"
	"github.com/seocho-ai/seocho/internal/auth"
	"github.com/seocho-ai/seocho/internal/graph"
	"github.com/seocho-ai/seocho/internal/ingest"
	"github.com/seocho-ai/seocho/internal/model"
	"github.com/seocho-ai/seocho/internal/platform"
	"github.com/seocho-ai/seocho/internal/policy"
	"github.com/seocho-ai/seocho/internal/rules"
	"github.com/seocho-ai/seocho/internal/semantic"
	"github.com/seocho-ai/seocho/internal/store"
)

// Handlers bundles the HTTP handlers and their dependencies.
type Handlers struct {
	dispatcher *platform.Dispatcher
	facade     *platform.Facade
	flow       *semantic.Flow
	pool       *agent.Pool
	ingestor   *ingest.Ingestor
	registry   *graph.Registry
	fulltext   *graph.FulltextManager
	profiles   *store.RuleProfileStore
	artifacts  *store.ArtifactStore
	jwtMgr     *auth.JWTManager
	logger     *slog.Logger
}

func validateWorkspace(workspaceID string) error {
	if workspaceID == "" {
		return nil
	}
	return policy.ValidateWorkspace(workspaceID)
}

// HealthCheck reports liveness.
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
}

// RunAgent answers a question through the deterministic semantic flow.
func (h *Handlers) RunAgent(w http.ResponseWriter, r *http.Request) {
	var req model.RunAgentRequest
	if err := decodeJSON(r, &req); err != nil {
		writeKindedError(w, r, err)
		return
	}
	if req.Query == "" {
		writeKindedError(w, r, model.Errorf(model.KindValidation, "query is required"))
		return
	}
	if err := validateWorkspace(req.WorkspaceID); err != nil {
		writeKindedError(w, r, err)
		return
	}

	payload, err := h.dispatcher.Run(r.Context(), platform.ModeRouter, req.Query, nil, nil)
	if err != nil {
		writeKindedError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, model.RunAgentResponse{
		Response:   payload.Response,
		TraceSteps: payload.TraceSteps,
	})
}

// RunDebate fans the question out to every specialist worker and
// synthesizes the responses.
func (h *Handlers) RunDebate(w http.ResponseWriter, r *http.Request) {
	var req model.RunAgentRequest
	if err := decodeJSON(r, &req); err != nil {
		writeKindedError(w, r, err)
		return
	}
	if req.Query == "" {
		writeKindedError(w, r, model.Errorf(model.KindValidation, "query is required"))
		return
	}
	if err := validateWorkspace(req.WorkspaceID); err != nil {
		writeKindedError(w, r, err)
		return
	}

	payload, err := h.dispatcher.Run(r.Context(), platform.ModeDebate, req.Query, nil, nil)
	if err != nil {
		writeKindedError(w, r, err)
		return
	}
	if payload.Debate != nil {
		writeJSON(w, r, http.StatusOK, payload.Debate)
		return
	}
	// Blocked debates fall back to the semantic flow.
	writeJSON(w, r, http.StatusOK, payload)
}

// RunSemantic answers a question through entity resolution, routing,
// and the graph specialists.
func (h *Handlers) RunSemantic(w http.ResponseWriter, r *http.Request) {
	var req model.RunSemanticRequest
	if err := decodeJSON(r, &req); err != nil {
		writeKindedError(w, r, err)
		return
	}
	if req.Query == "" {
		writeKindedError(w, r, model.Errorf(model.KindValidation, "query is required"))
		return
	}
	if err := validateWorkspace(req.WorkspaceID); err != nil {
		writeKindedError(w, r, err)
		return
	}

	resp, err := h.flow.Run(r.Context(), req.Query, req.Databases, req.EntityOverrides)
	if err != nil {
		writeKindedError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, resp)
}

// ChatSend routes one conversational turn through the platform facade.
func (h *Handlers) ChatSend(w http.ResponseWriter, r *http.Request) {
	var req model.ChatSendRequest
	if err := decodeJSON(r, &req); err != nil {
		writeKindedError(w, r, err)
		return
	}
	if err := validateWorkspace(req.WorkspaceID); err != nil {
		writeKindedError(w, r, err)
		return
	}

	resp, err := h.facade.Send(r.Context(), req)
	if err != nil {
		writeKindedError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, resp)
}

// GetChatSession returns a session's turn history.
func (h *Handlers) GetChatSession(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("id")
	session, ok := h.facade.Sessions().Get(sessionID)
	if !ok {
		writeError(w, r, http.StatusNotFound, string(model.KindNotFound), "session not found: "+sessionID)
		return
	}
	writeJSON(w, r, http.StatusOK, session)
}

// DeleteChatSession removes a session.
func (h *Handlers) DeleteChatSession(w http.ResponseWriter, r *http.Request) {
	h.facade.Sessions().Delete(r.PathValue("id"))
	writeJSON(w, r, http.StatusOK, map[string]string{"status": "deleted"})
}

// IngestRaw runs an ingest batch against a target database.
func (h *Handlers) IngestRaw(w http.ResponseWriter, r *http.Request) {
	var req model.IngestRequest
	if err := decodeJSON(r, &req); err != nil {
		writeKindedError(w, r, err)
		return
	}
	if req.TargetDatabase == "" {
		writeKindedError(w, r, model.Errorf(model.KindValidation, "target_database is required"))
		return
	}
	if len(req.Records) == 0 {
		writeKindedError(w, r, model.Errorf(model.KindValidation, "records must not be empty"))
		return
	}
	if err := validateWorkspace(req.WorkspaceID); err != nil {
		writeKindedError(w, r, err)
		return
	}

	summary, err := h.ingestor.Run(r.Context(), req.TargetDatabase, req.Records)
	if err != nil {
		writeKindedError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, summary)
}

// ListDatabases returns the registered user databases.
func (h *Handlers) ListDatabases(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, map[string]any{
		"databases": h.registry.ListUserDatabases(),
	})
}

// ListAgents reports the specialist worker roster with readiness.
func (h *Handlers) ListAgents(w http.ResponseWriter, r *http.Request) {
	_, statuses := h.pool.Provision(r.Context())
	writeJSON(w, r, http.StatusOK, map[string]any{"agents": statuses})
}

// EnsureFulltextIndexes ensures a fulltext index exists per database.
func (h *Handlers) EnsureFulltextIndexes(w http.ResponseWriter, r *http.Request) {
	var req model.EnsureIndexRequest
	if err := decodeJSON(r, &req); err != nil {
		writeKindedError(w, r, err)
		return
	}
	if err := validateWorkspace(req.WorkspaceID); err != nil {
		writeKindedError(w, r, err)
		return
	}
	databases := req.Databases
	if len(databases) == 0 {
		databases = h.registry.ListUserDatabases()
	}
	if req.IndexName == "" {
		req.IndexName = "entity_name_search"
	}
	if len(req.Labels) == 0 {
		req.Labels = []string{"Entity"}
	}
	if len(req.Properties) == 0 {
		req.Properties = []string{"name", "title"}
	}

	results := make([]graph.EnsureIndexResult, 0, len(databases))
	for _, db := range databases {
		if !h.registry.IsValid(db) {
			writeKindedError(w, r, model.Errorf(model.KindValidation, "unknown database: %s", db))
			return
		}
		result, err := h.fulltext.Ensure(r.Context(), db, req.IndexName, req.Labels, req.Properties, true)
		if err != nil {
			writeKindedError(w, r, err)
			return
		}
		results = append(results, result)
	}
	writeJSON(w, r, http.StatusOK, map[string]any{"results": results})
}

type inferRulesRequest struct {
	WorkspaceID string      `json:"workspace_id"`
	Graph       model.Graph `json:"graph"`
	ProfileName string      `json:"profile_name,omitempty"`
	Save        bool        `json:"save,omitempty"`
}

type inferRulesResponse struct {
	Profile rules.RuleSet            `json:"profile"`
	Saved   *store.RuleProfileRecord `json:"saved,omitempty"`
}

// InferRules derives a rule profile from a graph payload, optionally
// persisting it.
func (h *Handlers) InferRules(w http.ResponseWriter, r *http.Request) {
	var req inferRulesRequest
	if err := decodeJSON(r, &req); err != nil {
		writeKindedError(w, r, err)
		return
	}
	if len(req.Graph.Nodes) == 0 {
		writeKindedError(w, r, model.Errorf(model.KindValidation, "graph.nodes must not be empty"))
		return
	}
	if err := validateWorkspace(req.WorkspaceID); err != nil {
		writeKindedError(w, r, err)
		return
	}

	profile := rules.Infer(req.Graph, rules.DefaultOptions())
	resp := inferRulesResponse{Profile: profile}
	if req.Save {
		if req.WorkspaceID == "" {
			writeKindedError(w, r, model.Errorf(model.KindValidation, "workspace_id is required to save a profile"))
			return
		}
		name := req.ProfileName
		if name == "" {
			name = "inferred"
		}
		record, err := h.profiles.Save(req.WorkspaceID, name, profile)
		if err != nil {
			writeKindedError(w, r, err)
			return
		}
		resp.Saved = &record
	}
	writeJSON(w, r, http.StatusOK, resp)
}

type validateRulesRequest struct {
	WorkspaceID string         `json:"workspace_id"`
	Graph       model.Graph    `json:"graph"`
	ProfileID   string         `json:"profile_id,omitempty"`
	Profile     *rules.RuleSet `json:"profile,omitempty"`
}

type validateRulesResponse struct {
	Summary rules.Summary `json:"summary"`
	Graph   model.Graph   `json:"graph"`
}

// ValidateRules applies a rule profile to a graph payload and returns
// the annotated graph with a pass/fail summary.
func (h *Handlers) ValidateRules(w http.ResponseWriter, r *http.Request) {
	var req validateRulesRequest
	if err := decodeJSON(r, &req); err != nil {
		writeKindedError(w, r, err)
		return
	}
	if len(req.Graph.Nodes) == 0 {
		writeKindedError(w, r, model.Errorf(model.KindValidation, "graph.nodes must not be empty"))
		return
	}
	if err := validateWorkspace(req.WorkspaceID); err != nil {
		writeKindedError(w, r, err)
		return
	}

	profile, err := h.resolveProfile(req.WorkspaceID, req.ProfileID, req.Profile)
	if err != nil {
		writeKindedError(w, r, err)
		return
	}
	summary := rules.Apply(&req.Graph, profile)
	writeJSON(w, r, http.StatusOK, validateRulesResponse{Summary: summary, Graph: req.Graph})
}

type exportRulesRequest struct {
	WorkspaceID string         `json:"workspace_id"`
	ProfileID   string         `json:"profile_id,omitempty"`
	Profile     *rules.RuleSet `json:"profile,omitempty"`
}

type exportRulesResponse struct {
	Cypher rules.CypherExport `json:"cypher"`
	Shacl  rules.ShaclExport  `json:"shacl"`
}

// ExportRules renders a rule profile as Cypher constraints and SHACL
// shapes.
func (h *Handlers) ExportRules(w http.ResponseWriter, r *http.Request) {
	var req exportRulesRequest
	if err := decodeJSON(r, &req); err != nil {
		writeKindedError(w, r, err)
		return
	}
	if err := validateWorkspace(req.WorkspaceID); err != nil {
		writeKindedError(w, r, err)
		return
	}

	profile, err := h.resolveProfile(req.WorkspaceID, req.ProfileID, req.Profile)
	if err != nil {
		writeKindedError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, exportRulesResponse{
		Cypher: rules.ExportCypher(profile),
		Shacl:  rules.ExportShacl(profile),
	})
}

func (h *Handlers) resolveProfile(workspaceID, profileID string, inline *rules.RuleSet) (rules.RuleSet, error) {
	if inline != nil {
		return *inline, nil
	}
	if profileID == "" {
		return rules.RuleSet{}, model.Errorf(model.KindValidation, "either profile or profile_id is required")
	}
	record, err := h.profiles.Get(workspaceID, profileID)
	if err != nil {
		return rules.RuleSet{}, err
	}
	return record.RuleProfile, nil
}

type saveProfileRequest struct {
	WorkspaceID string        `json:"workspace_id"`
	Name        string        `json:"name"`
	Profile     rules.RuleSet `json:"profile"`
}

// SaveRuleProfile persists a rule profile under a workspace.
func (h *Handlers) SaveRuleProfile(w http.ResponseWriter, r *http.Request) {
	var req saveProfileRequest
	if err := decodeJSON(r, &req); err != nil {
		writeKindedError(w, r, err)
		return
	}
	if req.WorkspaceID == "" || req.Name == "" {
		writeKindedError(w, r, model.Errorf(model.KindValidation, "workspace_id and name are required"))
		return
	}
	if err := policy.ValidateWorkspace(req.WorkspaceID); err != nil {
		writeKindedError(w, r, err)
		return
	}
	record, err := h.profiles.Save(req.WorkspaceID, req.Name, req.Profile)
	if err != nil {
		writeKindedError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, record)
}

// ListRuleProfiles lists the profiles saved under a workspace.
func (h *Handlers) ListRuleProfiles(w http.ResponseWriter, r *http.Request) {
	workspaceID := r.URL.Query().Get("workspace_id")
	if err := validateWorkspace(workspaceID); err != nil {
		writeKindedError(w, r, err)
		return
	}
	records, err := h.profiles.List(workspaceID)
	if err != nil {
		writeKindedError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, map[string]any{"profiles": records})
}

// GetRuleProfile fetches one saved profile.
func (h *Handlers) GetRuleProfile(w http.ResponseWriter, r *http.Request) {
	workspaceID := r.URL.Query().Get("workspace_id")
	record, err := h.profiles.Get(workspaceID, r.PathValue("id"))
	if err != nil {
		writeKindedError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, record)
}

type saveArtifactRequest struct {
	WorkspaceID       string         `json:"workspace_id"`
	SourceSummary     string         `json:"source_summary"`
	OntologyCandidate map[string]any `json:"ontology_candidate,omitempty"`
	ShaclCandidate    map[string]any `json:"shacl_candidate,omitempty"`
}

// SaveSemanticArtifact stores an ontology/SHACL candidate draft for
// review.
func (h *Handlers) SaveSemanticArtifact(w http.ResponseWriter, r *http.Request) {
	var req saveArtifactRequest
	if err := decodeJSON(r, &req); err != nil {
		writeKindedError(w, r, err)
		return
	}
	if req.WorkspaceID == "" {
		writeKindedError(w, r, model.Errorf(model.KindValidation, "workspace_id is required"))
		return
	}
	if err := policy.ValidateWorkspace(req.WorkspaceID); err != nil {
		writeKindedError(w, r, err)
		return
	}
	artifact, err := h.artifacts.SaveDraft(req.WorkspaceID, req.SourceSummary, req.OntologyCandidate, req.ShaclCandidate)
	if err != nil {
		writeKindedError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, artifact)
}

// ListSemanticArtifacts lists the artifacts under a workspace.
func (h *Handlers) ListSemanticArtifacts(w http.ResponseWriter, r *http.Request) {
	workspaceID := r.URL.Query().Get("workspace_id")
	if err := validateWorkspace(workspaceID); err != nil {
		writeKindedError(w, r, err)
		return
	}
	artifacts, err := h.artifacts.List(workspaceID)
	if err != nil {
		writeKindedError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, map[string]any{"artifacts": artifacts})
}

type approveArtifactRequest struct {
	WorkspaceID string `json:"workspace_id"`
	Note        string `json:"note,omitempty"`
}

// ApproveSemanticArtifact promotes a draft artifact to approved.
func (h *Handlers) ApproveSemanticArtifact(w http.ResponseWriter, r *http.Request) {
	var req approveArtifactRequest
	if err := decodeJSON(r, &req); err != nil {
		writeKindedError(w, r, err)
		return
	}
	approvedBy := "unknown"
	if claims := ClaimsFromContext(r.Context()); claims != nil {
		approvedBy = claims.UserID
	}
	artifact, err := h.artifacts.Approve(req.WorkspaceID, r.PathValue("id"), approvedBy, req.Note)
	if err != nil {
		writeKindedError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, artifact)
}

type tokenRequest struct {
	UserID      string `json:"user_id"`
	Role        string `json:"role"`
	WorkspaceID string `json:"workspace_id,omitempty"`
}

type tokenResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// IssueToken mints a development JWT for the given user and role.
func (h *Handlers) IssueToken(w http.ResponseWriter, r *http.Request) {
	if h.jwtMgr == nil {
		writeError(w, r, http.StatusNotFound, string(model.KindNotFound), "token issuance is disabled")
		return
	}
	var req tokenRequest
	if err := decodeJSON(r, &req); err != nil {
		writeKindedError(w, r, err)
		return
	}
	if req.UserID == "" {
		writeKindedError(w, r, model.Errorf(model.KindValidation, "user_id is required"))
		return
	}
	role := policy.Role(req.Role)
	if role == "" {
		role = policy.RoleUser
	}
	if !role.Valid() {
		writeKindedError(w, r, model.Errorf(model.KindValidation, "unknown role: %s", req.Role))
		return
	}
	if err := validateWorkspace(req.WorkspaceID); err != nil {
		writeKindedError(w, r, err)
		return
	}

	token, exp, err := h.jwtMgr.IssueToken(req.UserID, role, req.WorkspaceID)
	if err != nil {
		writeKindedError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, tokenResponse{Token: token, ExpiresAt: exp})
}
