// Package gemini provides an embedding service adapter using the Google
// Generative Language API.
package gemini

import (
	"context"
	"fmt"

	"google.golang.org/api/generativelanguage/v1beta"

	"github.com/custodia-labs/notewise/internal/adapters/driven/provider"
	"github.com/custodia-labs/notewise/internal/core/ports/driven"
)

// Ensure EmbeddingService implements the interface.
var _ driven.EmbeddingService = (*EmbeddingService)(nil)

// Default configuration values.
const (
	DefaultModel      = "gemini-embedding-001"
	DefaultDimensions = 3072
)

// Config holds configuration for the Gemini embedding service.
type Config struct {
	// APIKey is the Google AI Studio API key (required).
	APIKey string

	// BaseURL overrides the API endpoint.
	BaseURL string

	// Model is the embedding model to use (default: gemini-embedding-001).
	Model string

	// Dimensions is the embedding vector size (model-dependent).
	Dimensions int
}

// EmbeddingService generates embeddings using Gemini.
type EmbeddingService struct {
	models     *generativelanguage.ModelsService
	model      string
	dimensions int
}

// NewEmbeddingService creates a new Gemini embedding service.
func NewEmbeddingService(ctx context.Context, cfg Config) (*EmbeddingService, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini: API key is required")
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Dimensions == 0 {
		cfg.Dimensions = DefaultDimensions
	}

	svc, err := provider.NewGeminiService(ctx, cfg.APIKey, cfg.BaseURL)
	if err != nil {
		return nil, err
	}
	return &EmbeddingService{
		models:     svc.Models,
		model:      cfg.Model,
		dimensions: cfg.Dimensions,
	}, nil
}

// Embed generates a vector embedding for the given text.
func (s *EmbeddingService) Embed(ctx context.Context, text string) ([]float32, error) {
	resp, err := s.models.EmbedContent(provider.GeminiResource(s.model), s.request(text)).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("gemini: embed: %w", provider.Redact(err))
	}
	if resp.Embedding == nil || len(resp.Embedding.Values) == 0 {
		return nil, fmt.Errorf("gemini: no embedding returned")
	}
	return provider.ToFloat32(resp.Embedding.Values), nil
}

// EmbedBatch embeds all texts in one batchEmbedContents call.
func (s *EmbeddingService) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	reqs := make([]*generativelanguage.EmbedContentRequest, len(texts))
	for i, t := range texts {
		reqs[i] = s.request(t)
	}
	resp, err := s.models.BatchEmbedContents(provider.GeminiResource(s.model),
		&generativelanguage.BatchEmbedContentsRequest{Requests: reqs}).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("gemini: batch embed: %w", provider.Redact(err))
	}
	if len(resp.Embeddings) != len(texts) {
		return nil, fmt.Errorf("gemini: got %d embeddings for %d inputs", len(resp.Embeddings), len(texts))
	}
	out := make([][]float32, len(texts))
	for i, e := range resp.Embeddings {
		if e == nil {
			return nil, fmt.Errorf("gemini: no embedding returned for input %d", i)
		}
		out[i] = provider.ToFloat32(e.Values)
	}
	return out, nil
}

func (s *EmbeddingService) request(text string) *generativelanguage.EmbedContentRequest {
	return &generativelanguage.EmbedContentRequest{
		Model: provider.GeminiResource(s.model),
		Content: &generativelanguage.Content{
			Parts: []*generativelanguage.Part{{Text: text}},
		},
	}
}

// Dimensions returns the embedding vector size.
func (s *EmbeddingService) Dimensions() int {
	return s.dimensions
}

// ModelName returns the name of the embedding model being used.
func (s *EmbeddingService) ModelName() string {
	return s.model
}

// Ping fetches the model metadata, which validates the key without inference.
func (s *EmbeddingService) Ping(ctx context.Context) error {
	if _, err := s.models.Get(provider.GeminiResource(s.model)).Context(ctx).Do(); err != nil {
		return fmt.Errorf("gemini: ping failed: %w", provider.Redact(err))
	}
	return nil
}

// Close releases resources.
func (s *EmbeddingService) Close() error {
	return nil
}
