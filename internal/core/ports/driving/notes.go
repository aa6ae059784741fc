package driving

import (
	"context"

	"github.com/custodia-labs/notewise/internal/core/domain"
)

// SummarizeRequest asks for a summary of extracted text.
type SummarizeRequest struct {
	// DocumentID identifies the document. Generated when empty.
	DocumentID string

	// OwnerID identifies the document owner. Required.
	OwnerID string

	// Style is a free-form style hint.
	Style domain.SummaryStyle

	// TargetPercent is the summary length as a percentage of the source.
	TargetPercent int

	// Text is the extracted document text. Required.
	Text string
}

// ChatRequest asks a question about an ingested document.
type ChatRequest struct {
	// DocumentID identifies the document. Required.
	DocumentID string

	// OwnerID identifies the user. Required.
	OwnerID string

	// Question is the user's question. Required.
	Question string
}

// NoteService provides the summarize and chat entry points.
type NoteService interface {
	// Summarize summarises the text and ingests it into the notes collection.
	Summarize(ctx context.Context, req SummarizeRequest) (*domain.Summary, error)

	// Chat answers a question grounded in the document and the conversation so far.
	Chat(ctx context.Context, req ChatRequest) (*domain.ChatAnswer, error)
}
