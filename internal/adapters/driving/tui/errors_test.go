package tui

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrors_AreDistinct(t *testing.T) {
	seen := make(map[string]bool)
	for _, err := range []error{ErrMissingNoteService, ErrMissingConversationService, ErrInvalidPorts} {
		msg := err.Error()
		assert.False(t, seen[msg], "duplicate error message: %s", msg)
		assert.Contains(t, msg, "tui:")
		seen[msg] = true
	}
}
