package driving

import (
	"context"

	"github.com/custodia-labs/notewise/internal/core/domain"
)

// IngestRequest describes one document to index.
type IngestRequest struct {
	// OwnerID identifies the document owner. Required.
	OwnerID string

	// DocumentID identifies the document. Required.
	DocumentID string

	// Collection is the target collection. Defaults to domain.CollectionNotes.
	Collection string

	// Text is the extracted document text. Empty text is a no-op.
	Text string

	// ChunkSize overrides the configured chunk size when positive.
	ChunkSize int

	// Overlap overrides the configured overlap when positive.
	Overlap int
}

// IngestResult reports what an ingestion wrote.
type IngestResult struct {
	// DocumentID is the indexed document.
	DocumentID string `json:"document_id"`

	// Collection is the collection written to.
	Collection string `json:"collection"`

	// Chunks is the number of chunk records written.
	Chunks int `json:"chunks"`

	// Replaced is the number of stale records removed first.
	Replaced int `json:"replaced"`
}

// IngestService indexes documents into the vector store.
type IngestService interface {
	// Ingest chunks, embeds and stores text under the owner/document identity.
	Ingest(ctx context.Context, req IngestRequest) (*IngestResult, error)

	// DeleteDocument removes every chunk of a document from a collection.
	DeleteDocument(ctx context.Context, collection, documentID string) (int, error)
}

// RetrieveRequest describes a document-scoped similarity query.
type RetrieveRequest struct {
	// DocumentID pins the query to one document. Required.
	DocumentID string

	// OwnerID additionally pins the owner when set. It never replaces DocumentID.
	OwnerID string

	// Query is the query text. Empty uses the neutral probe.
	Query string

	// TopK caps the results. Defaults to the configured top_k.
	TopK int

	// Collection defaults to domain.CollectionNotes.
	Collection string
}

// RetrievalService answers document-scoped similarity queries.
type RetrievalService interface {
	// Retrieve returns ranked chunks of one document. No matches is not an error.
	Retrieve(ctx context.Context, req RetrieveRequest) ([]domain.QueryResult, error)
}
