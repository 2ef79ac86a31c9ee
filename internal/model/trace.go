package model

import "strings"

// StepType classifies a trace step for the UI orchestration tree.
type StepType string

const (
	StepUserInput  StepType = "USER_INPUT"
	StepThought    StepType = "THOUGHT"
	StepGeneration StepType = "GENERATION"
	StepToolCall   StepType = "TOOL_CALL"
	StepToolOutput StepType = "TOOL_OUTPUT"
	StepFanout     StepType = "FANOUT"
	StepDebate     StepType = "DEBATE"
	StepCollect    StepType = "COLLECT"
	StepSynthesis  StepType = "SYNTHESIS"
	StepSemantic   StepType = "SEMANTIC"
	StepRouter     StepType = "ROUTER"
	StepSpecialist StepType = "SPECIALIST"
)

// TraceStep is a single UI event in the orchestration tree. Parent/child
// links live in Metadata under "node_id"/"parent_id" ("parent_ids" for
// fan-in nodes).
type TraceStep struct {
	ID       string         `json:"id"`
	Type     StepType       `json:"type"`
	Agent    string         `json:"agent"`
	Content  string         `json:"content"`
	Metadata map[string]any `json:"metadata"`
}

// DebateResult is the outcome of one specialist worker in a debate.
// Worker failures never abort the debate; they yield a result whose
// Response starts with "Error:" and carries no steps.
type DebateResult struct {
	AgentName  string      `json:"agent"`
	DBName     string      `json:"db"`
	Response   string      `json:"response"`
	TraceSteps []TraceStep `json:"trace_steps,omitempty"`
}

// Failed reports whether the result is an error-typed placeholder.
func (r DebateResult) Failed() bool {
	return strings.HasPrefix(r.Response, "Error:")
}

// Truncate shortens s for trace step previews.
func Truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
