package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"google.golang.org/genai"
)

// GenerationConfig tunes the completion call.
type GenerationConfig struct {
	Model           string
	Temperature     float32
	TopK            float32
	TopP            float32
	MaxOutputTokens int32
}

// DefaultGenerationConfig matches the settings the scenario prompts
// were tuned against.
func DefaultGenerationConfig() GenerationConfig {
	return GenerationConfig{
		Model:           "gemini-1.5-pro",
		Temperature:     0.7,
		TopK:            40,
		TopP:            0.95,
		MaxOutputTokens: 8192,
	}
}

// GeminiClient implements Client on the Google GenAI SDK.
type GeminiClient struct {
	client *genai.Client
	cfg    GenerationConfig
}

// NewGeminiClient creates a Gemini-backed completion client.
func NewGeminiClient(ctx context.Context, apiKey string, cfg GenerationConfig) (*GeminiClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini api key is required")
	}
	if cfg.Model == "" {
		cfg.Model = DefaultGenerationConfig().Model
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	return &GeminiClient{client: client, cfg: cfg}, nil
}

// Complete sends the prompt and returns the raw reply text. API and
// transport failures are folded into the package error taxonomy so
// callers can treat every failure mode uniformly.
func (c *GeminiClient) Complete(ctx context.Context, prompt string) (string, error) {
	result, err := c.client.Models.GenerateContent(ctx,
		c.cfg.Model,
		genai.Text(prompt),
		&genai.GenerateContentConfig{
			Temperature:     genai.Ptr(c.cfg.Temperature),
			TopK:            genai.Ptr(c.cfg.TopK),
			TopP:            genai.Ptr(c.cfg.TopP),
			MaxOutputTokens: c.cfg.MaxOutputTokens,
		},
	)
	if err != nil {
		var apiErr genai.APIError
		if errors.As(err, &apiErr) && apiErr.Code == http.StatusTooManyRequests {
			return "", fmt.Errorf("%w: %v", ErrRateLimited, err)
		}
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	text := result.Text()
	if text == "" {
		return "", fmt.Errorf("%w: empty completion", ErrUnavailable)
	}
	return text, nil
}
