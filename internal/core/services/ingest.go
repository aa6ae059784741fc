package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/custodia-labs/notewise/internal/core/domain"
	"github.com/custodia-labs/notewise/internal/core/ports/driving"
	"github.com/custodia-labs/notewise/internal/logger"
	"github.com/custodia-labs/notewise/internal/postprocessors/chunker"
)

// Ensure IngestService implements the interface.
var _ driving.IngestService = (*IngestService)(nil)

// IngestService chunks documents and stores them in the vector store.
// Ingestion of one document id is serialised; different ids run in parallel.
type IngestService struct {
	store   *VectorStore
	chunker *chunker.Processor
	locks   *KeyedMutex
}

// NewIngestService creates an ingest service whose chunker uses the given
// size and overlap unless a request overrides them.
func NewIngestService(store *VectorStore, chunking domain.ChunkingSettings) (*IngestService, error) {
	if store == nil {
		return nil, fmt.Errorf("%w: vector store is required", domain.ErrInvalidConfiguration)
	}
	processor, err := chunker.New(chunker.WithChunkSize(chunking.Size), chunker.WithOverlap(chunking.Overlap))
	if err != nil {
		return nil, err
	}
	return &IngestService{
		store:   store,
		chunker: processor,
		locks:   NewKeyedMutex(),
	}, nil
}

// Ingest indexes text under the owner/document identity.
//
// Empty text is a no-op and is checked before anything else, so an empty
// request never fails. Records of a previous ingestion of the same
// document are replaced, so a shorter re-ingestion leaves no stale chunks.
// ErrEmbeddingFailed and ErrStoreUnavailable are returned unchanged in
// the error chain.
func (s *IngestService) Ingest(ctx context.Context, req driving.IngestRequest) (*driving.IngestResult, error) {
	collection := req.Collection
	if collection == "" {
		collection = domain.CollectionNotes
	}
	result := &driving.IngestResult{DocumentID: req.DocumentID, Collection: collection}

	if req.Text == "" {
		logger.Debug("Ingest %s: empty text, nothing to do", req.DocumentID)
		return result, nil
	}

	if strings.TrimSpace(req.OwnerID) == "" || strings.TrimSpace(req.DocumentID) == "" {
		return nil, fmt.Errorf("ingest: %w: owner and document id are required", domain.ErrInvalidInput)
	}

	processor, err := s.processorFor(req)
	if err != nil {
		return nil, fmt.Errorf("ingest: %w", err)
	}

	records, err := processor.Process(ctx, &domain.Document{
		ID:      req.DocumentID,
		OwnerID: req.OwnerID,
		Content: req.Text,
	})
	if err != nil {
		return nil, fmt.Errorf("ingest: %w", err)
	}
	if len(records) == 0 {
		return result, nil
	}

	logger.Section("Ingest")
	logger.Debug("Document %s: %d chunks (size=%d, overlap=%d) into %q",
		req.DocumentID, len(records), processor.ChunkSize(), processor.Overlap(), collection)

	unlock, err := s.locks.Lock(ctx, req.DocumentID)
	if err != nil {
		return nil, fmt.Errorf("ingest: %w", err)
	}
	defer unlock()

	removed, err := s.store.ReplaceDocument(ctx, collection, req.DocumentID, records)
	if err != nil {
		logger.Warn("Ingest %s failed: %v", req.DocumentID, err)
		return nil, fmt.Errorf("ingest: %w", err)
	}

	result.Chunks = len(records)
	result.Replaced = removed
	logger.Info("Ingested %s: %d chunks, %d previous records replaced", req.DocumentID, result.Chunks, removed)
	return result, nil
}

// processorFor returns the configured chunker, or a one-off chunker when
// the request overrides size or overlap.
func (s *IngestService) processorFor(req driving.IngestRequest) (*chunker.Processor, error) {
	if req.ChunkSize <= 0 && req.Overlap <= 0 {
		return s.chunker, nil
	}
	size, overlap := s.chunker.ChunkSize(), s.chunker.Overlap()
	if req.ChunkSize > 0 {
		size = req.ChunkSize
	}
	if req.Overlap > 0 {
		overlap = req.Overlap
	}
	return chunker.New(chunker.WithChunkSize(size), chunker.WithOverlap(overlap))
}

// DeleteDocument removes every chunk of a document from a collection.
func (s *IngestService) DeleteDocument(ctx context.Context, collection, documentID string) (int, error) {
	if collection == "" {
		collection = domain.CollectionNotes
	}

	unlock, err := s.locks.Lock(ctx, documentID)
	if err != nil {
		return 0, fmt.Errorf("delete: %w", err)
	}
	defer unlock()

	n, err := s.store.DeleteDocument(ctx, collection, documentID)
	if err != nil {
		return 0, fmt.Errorf("delete: %w", err)
	}
	return n, nil
}
