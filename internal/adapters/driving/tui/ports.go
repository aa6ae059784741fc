// Package tui provides an interactive terminal chat over one ingested note.
// It implements a driving adapter following hexagonal architecture principles.
package tui

import (
	"github.com/custodia-labs/notewise/internal/core/ports/driving"
)

// Ports aggregates the driving ports the TUI uses.
type Ports struct {
	// Notes answers questions. Required.
	Notes driving.NoteService

	// Conversation loads and resets the transcript. Required.
	Conversation driving.ConversationService

	// Retrieval shows the passages behind each answer. Optional.
	Retrieval driving.RetrievalService
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p == nil {
		return ErrInvalidPorts
	}
	if p.Notes == nil {
		return ErrMissingNoteService
	}
	if p.Conversation == nil {
		return ErrMissingConversationService
	}
	return nil
}
