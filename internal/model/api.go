package model

// APIError is the body shape for all non-2xx responses.
type APIError struct {
	Error ErrorBody `json:"error"`
}

// ErrorBody carries the error code, message, and correlation token.
type ErrorBody struct {
	ErrorCode string `json:"error_code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id"`
}

// RunAgentRequest is the body for POST /run_agent and POST /run_debate.
type RunAgentRequest struct {
	Query       string `json:"query"`
	UserID      string `json:"user_id"`
	WorkspaceID string `json:"workspace_id"`
}

// RunAgentResponse is the router-mode reply.
type RunAgentResponse struct {
	Response   string      `json:"response"`
	TraceSteps []TraceStep `json:"trace_steps"`
}

// RunDebateResponse adds the per-agent results and the debate state.
type RunDebateResponse struct {
	Response      string         `json:"response"`
	TraceSteps    []TraceStep    `json:"trace_steps"`
	DebateResults []DebateResult `json:"debate_results"`
	DebateState   string         `json:"debate_state,omitempty"`
	AgentStatuses []WorkerStatus `json:"agent_statuses,omitempty"`
}

// WorkerStatus reports per-database worker readiness.
type WorkerStatus struct {
	Database string `json:"database"`
	Status   string `json:"status"`
	Reason   string `json:"reason,omitempty"`
}

// EntityOverride pins a question entity to a specific graph node,
// bypassing resolution scoring.
type EntityOverride struct {
	QuestionEntity string   `json:"question_entity"`
	Database       string   `json:"database"`
	NodeID         string   `json:"node_id"`
	DisplayName    string   `json:"display_name,omitempty"`
	Labels         []string `json:"labels,omitempty"`
}

// RunSemanticRequest is the body for POST /run_agent_semantic.
type RunSemanticRequest struct {
	Query           string           `json:"query"`
	WorkspaceID     string           `json:"workspace_id"`
	Databases       []string         `json:"databases,omitempty"`
	EntityOverrides []EntityOverride `json:"entity_overrides,omitempty"`
}

// ChatSendRequest is the body for POST /platform/chat/send.
type ChatSendRequest struct {
	SessionID   string   `json:"session_id"`
	Message     string   `json:"message"`
	Mode        string   `json:"mode"`
	WorkspaceID string   `json:"workspace_id"`
	Databases   []string `json:"databases,omitempty"`
}

// IngestRecord is one raw material item in an ingest batch.
type IngestRecord struct {
	ID              string `json:"id,omitempty"`
	SourceType      string `json:"source_type,omitempty"` // text, csv, pdf
	Content         string `json:"content"`
	ContentEncoding string `json:"content_encoding,omitempty"` // plain, base64
	Category        string `json:"category,omitempty"`
}

// IngestRequest is the body for POST /platform/ingest/raw.
type IngestRequest struct {
	WorkspaceID    string         `json:"workspace_id"`
	TargetDatabase string         `json:"target_database"`
	Records        []IngestRecord `json:"records"`
}

// EnsureIndexRequest is the body for POST /indexes/fulltext/ensure.
type EnsureIndexRequest struct {
	WorkspaceID string   `json:"workspace_id"`
	Databases   []string `json:"databases"`
	IndexName   string   `json:"index_name,omitempty"`
	Labels      []string `json:"labels,omitempty"`
	Properties  []string `json:"properties,omitempty"`
}
