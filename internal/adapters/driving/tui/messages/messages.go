// Package messages defines Bubbletea message types for the TUI.
// Messages represent events and commands that flow through the Elm architecture.
package messages

import (
	"github.com/custodia-labs/notewise/internal/core/domain"
)

// HistoryLoaded carries the session transcript loaded at start-up.
type HistoryLoaded struct {
	Turns []domain.Turn
	Err   error
}

// ChatCompleted carries the answer to a question.
type ChatCompleted struct {
	Question string
	Answer   *domain.ChatAnswer
	Err      error
}

// PassagesLoaded carries the passages retrieved for the last question.
type PassagesLoaded struct {
	Query   string
	Results []domain.QueryResult
	Err     error
}

// HistoryReset signals the conversation was forgotten.
type HistoryReset struct {
	Err error
}

// ViewChanged is sent when navigating between views.
type ViewChanged struct {
	View ViewType
}

// ViewType identifies which view is currently active.
type ViewType int

const (
	// ViewChat is the transcript and question input.
	ViewChat ViewType = iota
	// ViewPassages lists the passages behind the last answer.
	ViewPassages
	// ViewHelp is the help/keybindings view.
	ViewHelp
)

// String returns the string representation of the view type.
func (v ViewType) String() string {
	switch v {
	case ViewChat:
		return "chat"
	case ViewPassages:
		return "passages"
	case ViewHelp:
		return "help"
	default:
		return "unknown"
	}
}

// ErrorOccurred signals that an error happened.
type ErrorOccurred struct {
	Err error
}

// Quit signals the application should exit.
type Quit struct{}
