// Package status provides status bar components for the TUI.
package status

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/notewise/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/notewise/internal/adapters/driving/tui/styles"
)

// State represents the current application state for display.
type State string

const (
	StateReady    State = "ready"
	StateThinking State = "thinking"
	StateDegraded State = "degraded"
	StateError    State = "error"
)

// Bar displays the session, chat state and keybinding hints.
type Bar struct {
	styles    *styles.Styles
	keymap    *keymap.KeyMap
	state     State
	message   string
	session   string
	turnCount int
	width     int
}

// NewBar creates a new status bar component.
func NewBar(s *styles.Styles, km *keymap.KeyMap) *Bar {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}

	return &Bar{
		styles: s,
		keymap: km,
		state:  StateReady,
		width:  80,
	}
}

// Init initialises the status bar.
func (s *Bar) Init() tea.Cmd {
	return nil
}

// Update handles status bar messages.
func (s *Bar) Update(_ tea.Msg) (*Bar, tea.Cmd) {
	// Bar is passive, updated via Set methods
	return s, nil
}

// View renders the status bar.
func (s *Bar) View() string {
	left := s.renderLeft()
	right := s.renderRight()

	padding := s.width - lipgloss.Width(left) - lipgloss.Width(right)
	if padding < 1 {
		padding = 1
	}

	return s.styles.StatusBar.Width(s.width).Render(
		left + strings.Repeat(" ", padding) + right,
	)
}

func (s *Bar) renderLeft() string {
	var state string
	switch s.state {
	case StateThinking:
		state = s.styles.Muted.Render("Thinking...")
	case StateError:
		if s.message != "" {
			state = s.styles.Error.Render(fmt.Sprintf("Error: %s", s.message))
		} else {
			state = s.styles.Error.Render("Error")
		}
	case StateDegraded:
		state = s.styles.Warning.Render("Answer could not be parsed")
	case StateReady:
		if s.turnCount > 0 {
			state = s.styles.Normal.Render(fmt.Sprintf("%d turns", s.turnCount))
		} else {
			state = s.styles.Muted.Render("Ready")
		}
	}
	if s.session == "" {
		return state
	}
	return s.styles.Muted.Render(s.session) + "  " + state
}

func (s *Bar) renderRight() string {
	bindings := s.keymap.ShortHelp()
	hints := make([]string, 0, len(bindings))
	for _, b := range bindings {
		h := b.Help()
		hints = append(hints, fmt.Sprintf("%s: %s", h.Key, h.Desc))
	}
	return s.styles.Muted.Render(strings.Join(hints, " | "))
}

// SetState sets the current state.
func (s *Bar) SetState(state State) {
	s.state = state
}

// State returns the current state.
func (s *Bar) State() State {
	return s.state
}

// SetMessage sets the error message shown in StateError.
func (s *Bar) SetMessage(message string) {
	s.message = message
}

// Message returns the current message.
func (s *Bar) Message() string {
	return s.message
}

// SetSession sets the session label.
func (s *Bar) SetSession(session string) {
	s.session = session
}

// SetTurnCount sets the number of turns in the transcript.
func (s *Bar) SetTurnCount(count int) {
	s.turnCount = count
}

// TurnCount returns the turn count.
func (s *Bar) TurnCount() int {
	return s.turnCount
}

// SetWidth sets the status bar width.
func (s *Bar) SetWidth(width int) {
	s.width = width
}

// Width returns the current width.
func (s *Bar) Width() int {
	return s.width
}

// Clear resets the status bar to its ready state, keeping the session.
func (s *Bar) Clear() {
	s.state = StateReady
	s.message = ""
	s.turnCount = 0
}
