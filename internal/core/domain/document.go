package domain

import (
	"fmt"
	"time"
)

// Well-known collections. Collections are created lazily on first use.
const (
	// CollectionNotes holds chunks of uploaded document content.
	CollectionNotes = "notes"

	// CollectionChatHistory holds chat exchanges as retrievable text.
	CollectionChatHistory = "chat_history"
)

// Metadata keys stored with every chunk record.
const (
	// MetaOwnerID is the owner of the document a chunk belongs to.
	MetaOwnerID = "owner_id"

	// MetaDocumentID is the document a chunk belongs to.
	MetaDocumentID = "document_id"
)

// Document represents extracted text submitted for indexing.
// The text is not persisted beyond chunking.
type Document struct {
	// ID is the caller-supplied or generated document identifier.
	ID string

	// OwnerID identifies the user the document belongs to.
	OwnerID string

	// Title is an optional human-readable name (e.g. the uploaded file name).
	Title string

	// MIMEType is the content type the text was extracted from.
	MIMEType string

	// Content is the full extracted text before chunking.
	Content string

	// CreatedAt is when the document was extracted.
	CreatedAt time.Time
}

// ChunkRecord is a segment of a document as written to a vector store.
// Identity is (DocumentID, Index) and is unique within a collection.
type ChunkRecord struct {
	// ID is the record identifier, "{document_id}:{chunk_index}" by default.
	ID string

	// DocumentID links to the parent document.
	DocumentID string

	// OwnerID identifies the document owner.
	OwnerID string

	// Index is the 0-based position of the chunk within its document.
	Index int

	// Text is the chunk content.
	Text string

	// Metadata holds the exact-match filterable attributes.
	// Always contains MetaOwnerID and MetaDocumentID.
	Metadata map[string]string
}

// VectorRecord is a ChunkRecord paired with its embedding.
// The embedding is owned by the record and never mutated.
type VectorRecord struct {
	ChunkRecord

	// Embedding is the vector representation of Text.
	Embedding []float32
}

// ChunkID builds the default record identifier for a chunk.
// Callers must not parse ids produced by other means.
func ChunkID(documentID string, index int) string {
	return fmt.Sprintf("%s:%d", documentID, index)
}

// NewChunkRecord builds a record carrying the standard owner/document metadata.
func NewChunkRecord(ownerID, documentID string, index int, text string) ChunkRecord {
	return ChunkRecord{
		ID:         ChunkID(documentID, index),
		DocumentID: documentID,
		OwnerID:    ownerID,
		Index:      index,
		Text:       text,
		Metadata: map[string]string{
			MetaOwnerID:    ownerID,
			MetaDocumentID: documentID,
		},
	}
}
