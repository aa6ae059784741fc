package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/custodia-labs/notewise/internal/core/domain"
	"github.com/custodia-labs/notewise/internal/core/ports/driving"
	"github.com/custodia-labs/notewise/internal/logger"
)

// Ensure RetrievalService implements the interface.
var _ driving.RetrievalService = (*RetrievalService)(nil)

// RetrievalService runs similarity queries scoped to one document.
type RetrievalService struct {
	store *VectorStore
	topK  int
}

// NewRetrievalService creates a retrieval service. A non-positive topK
// uses domain.DefaultTopK.
func NewRetrievalService(store *VectorStore, topK int) *RetrievalService {
	if topK <= 0 {
		topK = domain.DefaultTopK
	}
	return &RetrievalService{store: store, topK: topK}
}

// Retrieve returns the chunks of one document nearest to the query.
// The filter always pins document_id; owner_id is added when given.
func (s *RetrievalService) Retrieve(ctx context.Context, req driving.RetrieveRequest) ([]domain.QueryResult, error) {
	if strings.TrimSpace(req.DocumentID) == "" {
		return nil, fmt.Errorf("retrieve: %w: document id is required", domain.ErrInvalidInput)
	}

	collection := req.Collection
	if collection == "" {
		collection = domain.CollectionNotes
	}
	topK := req.TopK
	if topK <= 0 {
		topK = s.topK
	}

	filter := domain.DocumentFilter(req.DocumentID)
	if req.OwnerID != "" {
		filter[domain.MetaOwnerID] = req.OwnerID
	}

	logger.Debug("Retrieve %q from %s/%s (top_k=%d)", req.Query, collection, req.DocumentID, topK)

	results, err := s.store.Query(ctx, collection, req.Query, topK, filter)
	if err != nil {
		return nil, fmt.Errorf("retrieve: %w", err)
	}

	logger.Debug("Retrieved %d chunks", len(results))
	return results, nil
}

// JoinTexts concatenates result texts in rank order, separated by blank lines.
func JoinTexts(results []domain.QueryResult) string {
	texts := make([]string, len(results))
	for i, r := range results {
		texts[i] = r.Text
	}
	return strings.Join(texts, "\n\n")
}
