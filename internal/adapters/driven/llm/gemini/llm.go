// Package gemini provides an LLM service adapter using the Google
// Generative Language API.
package gemini

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/api/generativelanguage/v1beta"

	"github.com/custodia-labs/notewise/internal/adapters/driven/provider"
	"github.com/custodia-labs/notewise/internal/core/ports/driven"
)

// Ensure LLMService implements the interface.
var _ driven.LLMService = (*LLMService)(nil)

// DefaultModel is used when no model is configured.
const DefaultModel = "gemini-2.0-flash"

// Config holds configuration for the Gemini LLM service.
type Config struct {
	// APIKey is the Google AI Studio API key (required).
	APIKey string

	// BaseURL overrides the API endpoint.
	BaseURL string

	// Model is the LLM model to use (default: gemini-2.0-flash).
	Model string
}

// LLMService provides LLM operations using Gemini.
//
// Sampling parameters are left to the model defaults.
type LLMService struct {
	models *generativelanguage.ModelsService
	model  string
}

// NewLLMService creates a new Gemini LLM service.
func NewLLMService(ctx context.Context, cfg Config) (*LLMService, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini: API key is required")
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	svc, err := provider.NewGeminiService(ctx, cfg.APIKey, cfg.BaseURL)
	if err != nil {
		return nil, err
	}
	return &LLMService{models: svc.Models, model: cfg.Model}, nil
}

// Generate produces text completion from a prompt.
func (s *LLMService) Generate(ctx context.Context, prompt string, opts driven.GenerateOptions) (string, error) {
	req := &generativelanguage.GenerateContentRequest{
		Contents: []*generativelanguage.Content{{
			Role:  "user",
			Parts: []*generativelanguage.Part{{Text: prompt}},
		}},
	}
	if opts.SystemPrompt != "" {
		req.SystemInstruction = &generativelanguage.Content{
			Parts: []*generativelanguage.Part{{Text: opts.SystemPrompt}},
		}
	}
	if opts.JSON {
		req.GenerationConfig = &generativelanguage.GenerationConfig{
			ResponseMimeType: "application/json",
		}
	}

	resp, err := s.models.GenerateContent(provider.GeminiResource(s.model), req).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("gemini: generate: %w", provider.Redact(err))
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", fmt.Errorf("gemini: no candidates returned")
	}

	var text strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if part != nil {
			text.WriteString(part.Text)
		}
	}
	return text.String(), nil
}

// ModelName returns the name of the LLM model being used.
func (s *LLMService) ModelName() string {
	return s.model
}

// Ping fetches the model metadata, which validates the key without inference.
func (s *LLMService) Ping(ctx context.Context) error {
	if _, err := s.models.Get(provider.GeminiResource(s.model)).Context(ctx).Do(); err != nil {
		return fmt.Errorf("gemini: ping failed: %w", provider.Redact(err))
	}
	return nil
}

// Close releases resources.
func (s *LLMService) Close() error {
	return nil
}
