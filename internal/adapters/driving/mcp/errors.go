// Package mcp provides an MCP (Model Context Protocol) server adapter for notewise.
// It lets AI assistants summarise notes, ask questions about them and
// read conversation history.
package mcp

import (
	"errors"

	"github.com/custodia-labs/notewise/internal/core/domain"
)

// ErrMissingNoteService is returned when the note service is not provided.
var ErrMissingNoteService = errors.New("mcp: note service is required")

// toolError converts a service error into the message shown to the client.
// Configuration and input errors are actionable and kept; everything else
// is replaced so store endpoints and provider responses never leak.
func toolError(err error) error {
	if domain.Classify(err) == domain.ErrorClassConfiguration {
		return err
	}
	return errors.New(domain.PublicMessage(err))
}
