package llm

import (
	"context"
	"crypto/sha256"
	"math"
	"strings"
)

// MockClient is a deterministic Client for local development and tests.
// Each func field overrides the default behavior when set.
type MockClient struct {
	CompleteJSONFunc func(ctx context.Context, system, user string) (map[string]any, error)
	CompleteFunc     func(ctx context.Context, system, user string) (string, error)
	EmbedFunc        func(ctx context.Context, text string) ([]float32, error)
}

// NewMockClient creates a mock with the default deterministic behavior.
func NewMockClient() *MockClient { return &MockClient{} }

func (m *MockClient) CompleteJSON(ctx context.Context, system, user string) (map[string]any, error) {
	if m.CompleteJSONFunc != nil {
		return m.CompleteJSONFunc(ctx, system, user)
	}
	// Empty object: pipeline stages treat it as "nothing extracted" and
	// fall back to their deterministic paths.
	return map[string]any{}, nil
}

func (m *MockClient) Complete(ctx context.Context, system, user string) (string, error) {
	if m.CompleteFunc != nil {
		return m.CompleteFunc(ctx, system, user)
	}
	return "[mock] " + firstLine(user), nil
}

// Embed returns a unit vector derived from a content hash. Identical text
// maps to identical vectors, distinct text almost surely does not.
func (m *MockClient) Embed(ctx context.Context, text string) ([]float32, error) {
	if m.EmbedFunc != nil {
		return m.EmbedFunc(ctx, text)
	}
	sum := sha256.Sum256([]byte(text))
	vec := make([]float32, 16)
	var norm float64
	for i := range vec {
		v := float32(int8(sum[i]))
		vec[i] = v
		norm += float64(v) * float64(v)
	}
	norm = math.Sqrt(norm)
	if norm == 0 {
		vec[0] = 1
		return vec, nil
	}
	for i := range vec {
		vec[i] = float32(float64(vec[i]) / norm)
	}
	return vec, nil
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
