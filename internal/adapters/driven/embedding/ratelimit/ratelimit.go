// Package ratelimit wraps an embedding service with a token bucket so bulk
// ingestion stays under a provider's request quota.
package ratelimit

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"

	"github.com/custodia-labs/notewise/internal/core/ports/driven"
)

// Ensure EmbeddingService implements the interface.
var _ driven.EmbeddingService = (*EmbeddingService)(nil)

// EmbeddingService delays calls to the wrapped service until a token is available.
// A batch call costs one token.
type EmbeddingService struct {
	driven.EmbeddingService
	limiter *rate.Limiter
}

// Wrap limits inner to perSecond calls. A non-positive rate returns inner unchanged.
func Wrap(inner driven.EmbeddingService, perSecond float64) driven.EmbeddingService {
	if perSecond <= 0 || inner == nil {
		return inner
	}
	burst := int(perSecond)
	if burst < 1 {
		burst = 1
	}
	return &EmbeddingService{
		EmbeddingService: inner,
		limiter:          rate.NewLimiter(rate.Limit(perSecond), burst),
	}
}

// Embed waits for a token, then delegates.
func (s *EmbeddingService) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := s.wait(ctx); err != nil {
		return nil, err
	}
	return s.EmbeddingService.Embed(ctx, text)
}

// EmbedBatch waits for a token, then delegates.
func (s *EmbeddingService) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if err := s.wait(ctx); err != nil {
		return nil, err
	}
	return s.EmbeddingService.EmbedBatch(ctx, texts)
}

func (s *EmbeddingService) wait(ctx context.Context) error {
	if err := s.limiter.Wait(ctx); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("rate limit: %w", err)
	}
	return nil
}
