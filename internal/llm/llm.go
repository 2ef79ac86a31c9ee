// Package llm provides the language-model client used for structured JSON
// completion and text embeddings.
//
// Defines a Client interface with a Gemini implementation and a scripted
// mock. The interface allows swapping providers without changing consumers.
package llm

import (
	"context"
)

// Client generates structured completions and embeddings. Implementations
// must be safe for concurrent use; calls are idempotent from the caller's
// perspective (transient failures are retried internally).
type Client interface {
	// CompleteJSON runs a completion constrained to a JSON object and
	// returns the decoded map.
	CompleteJSON(ctx context.Context, system, user string) (map[string]any, error)

	// Complete runs a free-text completion.
	Complete(ctx context.Context, system, user string) (string, error)

	// Embed generates an embedding vector for text.
	Embed(ctx context.Context, text string) ([]float32, error)
}
