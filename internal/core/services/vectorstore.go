package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/custodia-labs/notewise/internal/core/domain"
	"github.com/custodia-labs/notewise/internal/core/ports/driven"
	"github.com/custodia-labs/notewise/internal/logger"
)

// batchEmbedder is implemented by providers that embed many texts per call.
type batchEmbedder interface {
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// VectorStore couples an Embedder with a VectorIndex. Every embedder and
// index call runs under a bounded timeout; expiry surfaces as
// ErrEmbeddingFailed or ErrStoreUnavailable instead of hanging.
type VectorStore struct {
	embedder driven.Embedder
	index    driven.VectorIndex
	timeout  time.Duration

	mu      sync.Mutex
	ensured map[string]bool
}

// NewVectorStore creates a vector store. A non-positive timeout uses
// domain.DefaultOperationTimeout.
func NewVectorStore(embedder driven.Embedder, index driven.VectorIndex, timeout time.Duration) (*VectorStore, error) {
	if embedder == nil {
		return nil, domain.ErrEmbeddingUnavailable
	}
	if index == nil {
		return nil, fmt.Errorf("%w: vector index is required", domain.ErrInvalidConfiguration)
	}
	if timeout <= 0 {
		timeout = domain.DefaultOperationTimeout
	}
	return &VectorStore{
		embedder: embedder,
		index:    index,
		timeout:  timeout,
		ensured:  make(map[string]bool),
	}, nil
}

// EnsureCollection creates the collection if absent. Idempotent.
func (s *VectorStore) EnsureCollection(ctx context.Context, name string) (*domain.CollectionHandle, error) {
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("%w: collection name is required", domain.ErrInvalidInput)
	}
	handle := &domain.CollectionHandle{Name: name, Backend: s.index.Backend()}

	s.mu.Lock()
	ok := s.ensured[name]
	s.mu.Unlock()
	if ok {
		return handle, nil
	}

	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	if err := s.index.EnsureCollection(callCtx, name); err != nil {
		return nil, storeError(ctx, "ensure collection", err)
	}

	s.mu.Lock()
	s.ensured[name] = true
	s.mu.Unlock()
	return handle, nil
}

// Upsert embeds every chunk, then writes them all. If any embedding fails
// nothing is written and the error wraps ErrEmbeddingFailed.
func (s *VectorStore) Upsert(ctx context.Context, collection string, chunks []domain.ChunkRecord) error {
	if len(chunks) == 0 {
		return nil
	}
	if _, err := s.EnsureCollection(ctx, collection); err != nil {
		return err
	}

	records, err := s.embedAll(ctx, chunks)
	if err != nil {
		return err
	}

	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	if err := s.index.Upsert(callCtx, collection, records); err != nil {
		return storeError(ctx, "upsert", err)
	}
	return nil
}

// ReplaceDocument embeds every chunk, then swaps the document's stored
// records for the new ones. Embedding failures leave the old records intact.
func (s *VectorStore) ReplaceDocument(
	ctx context.Context, collection, documentID string, chunks []domain.ChunkRecord,
) (int, error) {
	if strings.TrimSpace(documentID) == "" {
		return 0, fmt.Errorf("%w: document id is required", domain.ErrInvalidInput)
	}
	if _, err := s.EnsureCollection(ctx, collection); err != nil {
		return 0, err
	}

	records, err := s.embedAll(ctx, chunks)
	if err != nil {
		return 0, err
	}

	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	removed, err := s.index.Replace(callCtx, collection, domain.DocumentFilter(documentID), records)
	if err != nil {
		return 0, storeError(ctx, "replace", err)
	}
	return removed, nil
}

// Query returns up to topK records matching filter, nearest first.
// Empty query text is replaced by domain.NeutralProbe. An empty result is
// not an error; transport failures are.
func (s *VectorStore) Query(
	ctx context.Context, collection, queryText string, topK int, filter domain.Filter,
) ([]domain.QueryResult, error) {
	if topK <= 0 {
		return nil, fmt.Errorf("%w: top_k must be positive", domain.ErrInvalidInput)
	}
	if _, err := s.EnsureCollection(ctx, collection); err != nil {
		return nil, err
	}

	probe := queryText
	if strings.TrimSpace(probe) == "" {
		logger.Debug("Empty query, using neutral probe")
		probe = domain.NeutralProbe
	}

	vector, err := s.embedOne(ctx, probe)
	if err != nil {
		return nil, err
	}

	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	results, err := s.index.Query(callCtx, collection, vector, topK, filter)
	if err != nil {
		return nil, storeError(ctx, "query", err)
	}

	// Backends filter natively; re-check so a misbehaving backend can never
	// leak records of another document.
	kept := results[:0]
	for _, r := range results {
		if filter.Matches(r.Metadata) {
			kept = append(kept, r)
		} else {
			logger.Warn("Dropping record %s that does not match filter", r.ID)
		}
	}
	if len(kept) > topK {
		kept = kept[:topK]
	}
	return kept, nil
}

// DeleteDocument removes every record of a document from a collection.
func (s *VectorStore) DeleteDocument(ctx context.Context, collection, documentID string) (int, error) {
	if strings.TrimSpace(documentID) == "" {
		return 0, fmt.Errorf("%w: document id is required", domain.ErrInvalidInput)
	}
	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	n, err := s.index.Delete(callCtx, collection, domain.DocumentFilter(documentID))
	if err != nil {
		return 0, storeError(ctx, "delete", err)
	}
	return n, nil
}

// Backend names the underlying index kind.
func (s *VectorStore) Backend() string {
	return s.index.Backend()
}

// embedAll embeds every chunk before anything is written.
func (s *VectorStore) embedAll(ctx context.Context, chunks []domain.ChunkRecord) ([]domain.VectorRecord, error) {
	if len(chunks) == 0 {
		return nil, nil
	}
	vectors, err := s.embedTexts(ctx, chunks)
	if err != nil {
		return nil, err
	}

	records := make([]domain.VectorRecord, len(chunks))
	dims := len(vectors[0])
	for i, chunk := range chunks {
		if len(vectors[i]) == 0 || len(vectors[i]) != dims {
			return nil, fmt.Errorf("%w: chunk %s: inconsistent embedding size %d (want %d)",
				domain.ErrEmbeddingFailed, chunk.ID, len(vectors[i]), dims)
		}
		records[i] = domain.VectorRecord{ChunkRecord: chunk, Embedding: vectors[i]}
	}
	return records, nil
}

func (s *VectorStore) embedTexts(ctx context.Context, chunks []domain.ChunkRecord) ([][]float32, error) {
	if batch, ok := s.embedder.(batchEmbedder); ok && len(chunks) > 1 {
		texts := make([]string, len(chunks))
		for i, c := range chunks {
			texts[i] = c.Text
		}
		callCtx, cancel := context.WithTimeout(ctx, s.timeout)
		defer cancel()
		vectors, err := batch.EmbedBatch(callCtx, texts)
		if err != nil {
			return nil, embeddingError(ctx, fmt.Sprintf("%d chunks", len(chunks)), err)
		}
		if len(vectors) != len(chunks) {
			return nil, fmt.Errorf("%w: got %d embeddings for %d chunks",
				domain.ErrEmbeddingFailed, len(vectors), len(chunks))
		}
		return vectors, nil
	}

	vectors := make([][]float32, len(chunks))
	for i, c := range chunks {
		v, err := s.embedOne(ctx, c.Text)
		if err != nil {
			return nil, fmt.Errorf("chunk %s: %w", c.ID, err)
		}
		vectors[i] = v
	}
	return vectors, nil
}

func (s *VectorStore) embedOne(ctx context.Context, text string) ([]float32, error) {
	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	v, err := s.embedder.Embed(callCtx, text)
	if err != nil {
		return nil, embeddingError(ctx, "text", err)
	}
	if len(v) == 0 {
		return nil, fmt.Errorf("%w: provider returned an empty vector", domain.ErrEmbeddingFailed)
	}
	return v, nil
}

// embeddingError wraps a provider failure. Caller cancellation is returned
// as is so it is not mistaken for a provider fault.
func embeddingError(ctx context.Context, what string, err error) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if errors.Is(err, domain.ErrEmbeddingFailed) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: embedding %s timed out", domain.ErrEmbeddingFailed, what)
	}
	return fmt.Errorf("%w: embedding %s: %w", domain.ErrEmbeddingFailed, what, err)
}

// storeError wraps an index failure in ErrStoreUnavailable unless it is a
// caller error or cancellation.
func storeError(ctx context.Context, op string, err error) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	switch {
	case errors.Is(err, domain.ErrStoreUnavailable),
		errors.Is(err, domain.ErrInvalidInput),
		errors.Is(err, domain.ErrNotFound):
		return err
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%w: %s timed out", domain.ErrStoreUnavailable, op)
	default:
		return fmt.Errorf("%w: %s: %w", domain.ErrStoreUnavailable, op, err)
	}
}
