package agent

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/seocho-ai/seocho/internal/llm"
	"github.com/seocho-ai/seocho/internal/model"
)

const supervisorInstruction = `You are the debate supervisor for a multi-database knowledge-graph assistant. You receive the answers of several database specialists and produce the final answer for the user.`

// Supervisor synthesizes the per-worker answers into one response.
type Supervisor struct {
	llm    llm.Client
	logger *slog.Logger
}

// NewSupervisor creates a supervisor over client.
func NewSupervisor(client llm.Client, logger *slog.Logger) *Supervisor {
	return &Supervisor{llm: client, logger: logger}
}

// Synthesize composes the structured debate prompt and runs one
// completion. Failed worker results are included verbatim so the model
// can note which sources were unavailable.
func (s *Supervisor) Synthesize(ctx context.Context, question string, results []model.DebateResult) (string, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "Original Question: %s\n\nAgent Responses:\n", question)
	for _, r := range results {
		fmt.Fprintf(&b, "--- %s (%s) ---\n%s\n", r.AgentName, r.DBName, r.Response)
	}
	b.WriteString("\nSynthesize these responses into a single, coherent answer. Highlight agreements and note disagreements.")

	answer, err := s.llm.Complete(ctx, supervisorInstruction, b.String())
	if err != nil {
		return "", fmt.Errorf("agent: supervisor synthesis: %w", err)
	}
	return answer, nil
}
