package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"google.golang.org/genai"

	"github.com/seocho-ai/seocho/internal/graph"
	"github.com/seocho-ai/seocho/internal/model"
)

// retry policy for completion calls.
const (
	completionRetries   = 3
	completionBaseDelay = 1 * time.Second
	completionMaxDelay  = 16 * time.Second
)

// GeminiClient implements Client over the Gemini API.
type GeminiClient struct {
	client         *genai.Client
	model          string
	embeddingModel string
	logger         *slog.Logger
}

// NewGeminiClient creates a Gemini-backed client.
func NewGeminiClient(ctx context.Context, apiKey, completionModel, embeddingModel string, logger *slog.Logger) (*GeminiClient, error) {
	if apiKey == "" {
		return nil, model.Errorf(model.KindConfiguration, "llm: API key is required")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey})
	if err != nil {
		return nil, model.Errorf(model.KindConfiguration, "llm: create client: %v", err)
	}
	return &GeminiClient{
		client:         client,
		model:          completionModel,
		embeddingModel: embeddingModel,
		logger:         logger,
	}, nil
}

// CompleteJSON runs a JSON-constrained completion and decodes the object.
// Transient API failures are retried; parse errors are not.
func (c *GeminiClient) CompleteJSON(ctx context.Context, system, user string) (map[string]any, error) {
	text, err := c.generate(ctx, system, user, "application/json")
	if err != nil {
		return nil, err
	}
	var payload map[string]any
	if err := json.Unmarshal([]byte(text), &payload); err != nil {
		return nil, model.NewError(model.KindParse, fmt.Errorf("llm: decode completion JSON: %w", err))
	}
	return payload, nil
}

// Complete runs a free-text completion.
func (c *GeminiClient) Complete(ctx context.Context, system, user string) (string, error) {
	return c.generate(ctx, system, user, "")
}

func (c *GeminiClient) generate(ctx context.Context, system, user, mimeType string) (string, error) {
	config := &genai.GenerateContentConfig{}
	if system != "" {
		config.SystemInstruction = genai.NewContentFromText(system, genai.RoleUser)
	}
	if mimeType != "" {
		config.ResponseMIMEType = mimeType
	}

	var text string
	err := graph.WithRetry(ctx, completionRetries, completionBaseDelay, completionMaxDelay, func() error {
		result, err := c.client.Models.GenerateContent(ctx, c.model, genai.Text(user), config)
		if err != nil {
			return classifyAPIError(err)
		}
		text = result.Text()
		if text == "" {
			return model.Errorf(model.KindParse, "llm: empty completion")
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	return text, nil
}

// Embed generates a single embedding vector.
func (c *GeminiClient) Embed(ctx context.Context, text string) ([]float32, error) {
	contents := []*genai.Content{genai.NewContentFromText(text, genai.RoleUser)}

	var values []float32
	err := graph.WithRetry(ctx, completionRetries, completionBaseDelay, completionMaxDelay, func() error {
		result, err := c.client.Models.EmbedContent(ctx, c.embeddingModel, contents,
			&genai.EmbedContentConfig{TaskType: "SEMANTIC_SIMILARITY"})
		if err != nil {
			return classifyAPIError(err)
		}
		if len(result.Embeddings) == 0 {
			return model.Errorf(model.KindParse, "llm: no embeddings returned")
		}
		values = result.Embeddings[0].Values
		return nil
	})
	if err != nil {
		return nil, err
	}
	return values, nil
}

// classifyAPIError separates transient API failures (retry) from policy
// and request errors (no retry).
func classifyAPIError(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		if apiErr.Code == 429 || apiErr.Code >= 500 {
			return model.NewError(model.KindInfrastructure, err)
		}
		return model.NewError(model.KindPipeline, err)
	}
	// Network-level failures surface as plain errors.
	return model.NewError(model.KindInfrastructure, err)
}
