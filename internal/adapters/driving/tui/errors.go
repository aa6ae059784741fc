package tui

import "errors"

// ErrMissingNoteService is returned when the note service is not provided.
var ErrMissingNoteService = errors.New("tui: note service is required")

// ErrMissingConversationService is returned when the conversation service is not provided.
var ErrMissingConversationService = errors.New("tui: conversation service is required")

// ErrInvalidPorts is returned when ports validation fails.
var ErrInvalidPorts = errors.New("tui: invalid ports configuration")
