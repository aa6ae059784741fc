package mcp

import (
	"github.com/custodia-labs/notewise/internal/core/ports/driving"
)

// Ports aggregates all driving port interfaces required by the MCP server.
// This provides a single injection point for dependency injection.
type Ports struct {
	// Notes provides summarize and chat.
	Notes driving.NoteService

	// Ingest indexes text without summarising it. Optional.
	Ingest driving.IngestService

	// Retrieval exposes raw similarity search. Optional.
	Retrieval driving.RetrievalService

	// Conversation exposes chat history. Optional.
	Conversation driving.ConversationService
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p.Notes == nil {
		return ErrMissingNoteService
	}
	return nil
}
