package driven

import (
	"context"

	"github.com/custodia-labs/notewise/internal/core/domain"
)

// VectorIndex persists embedded chunk records and answers filtered
// nearest-neighbour queries. It never computes embeddings itself.
//
// Implementations wrap transport and connection failures in
// domain.ErrStoreUnavailable and must not put endpoints in error text.
type VectorIndex interface {
	// EnsureCollection creates the collection if absent. Idempotent.
	EnsureCollection(ctx context.Context, collection string) error

	// Upsert writes all records or none. Existing ids are overwritten.
	Upsert(ctx context.Context, collection string, records []domain.VectorRecord) error

	// Replace removes records matching filter and writes records as one step.
	// Transactional backends make the pair atomic. Returns how many
	// existing records were removed, including ones rewritten in place.
	Replace(ctx context.Context, collection string, filter domain.Filter, records []domain.VectorRecord) (int, error)

	// Query returns up to topK records matching filter, nearest first.
	Query(ctx context.Context, collection string, vector []float32, topK int, filter domain.Filter) ([]domain.QueryResult, error)

	// Delete removes records matching filter and returns how many were removed.
	// An empty filter is rejected with domain.ErrInvalidInput.
	Delete(ctx context.Context, collection string, filter domain.Filter) (int, error)

	// Backend names the storage kind (e.g. "sqlite", "qdrant").
	Backend() string

	// Close releases resources.
	Close() error
}
