// Package styles holds the chat TUI palette and the lipgloss styles built from it.
package styles

import (
	"github.com/charmbracelet/lipgloss"
)

// Theme is the chat palette. Every colour adapts to light and dark terminals.
type Theme struct {
	// Accent marks titles and the active view.
	Accent lipgloss.AdaptiveColor

	// User labels the user's turns.
	User lipgloss.AdaptiveColor

	// Assistant labels the model's turns.
	Assistant lipgloss.AdaptiveColor

	// Text is the transcript body.
	Text lipgloss.AdaptiveColor

	// Subtle is hints, scores and references.
	Subtle lipgloss.AdaptiveColor

	// Caution marks degraded answers.
	Caution lipgloss.AdaptiveColor

	// Danger marks failed requests.
	Danger lipgloss.AdaptiveColor

	// Frame is the transcript and input border.
	Frame lipgloss.AdaptiveColor

	// Bar is the status bar background.
	Bar lipgloss.AdaptiveColor
}

// DefaultTheme returns the notewise palette.
func DefaultTheme() *Theme {
	return &Theme{
		Accent:    lipgloss.AdaptiveColor{Light: "#0F766E", Dark: "#2DD4BF"},
		User:      lipgloss.AdaptiveColor{Light: "#1D4ED8", Dark: "#60A5FA"},
		Assistant: lipgloss.AdaptiveColor{Light: "#15803D", Dark: "#86EFAC"},
		Text:      lipgloss.AdaptiveColor{Light: "#1F2937", Dark: "#E5E7EB"},
		Subtle:    lipgloss.AdaptiveColor{Light: "#6B7280", Dark: "#9CA3AF"},
		Caution:   lipgloss.AdaptiveColor{Light: "#B45309", Dark: "#FCD34D"},
		Danger:    lipgloss.AdaptiveColor{Light: "#B91C1C", Dark: "#FCA5A5"},
		Frame:     lipgloss.AdaptiveColor{Light: "#D1D5DB", Dark: "#4B5563"},
		Bar:       lipgloss.AdaptiveColor{Light: "#F3F4F6", Dark: "#111827"},
	}
}

// Styles are the rendered styles the views use.
type Styles struct {
	theme *Theme

	Title         lipgloss.Style
	Normal        lipgloss.Style
	Muted         lipgloss.Style
	UserTurn      lipgloss.Style
	AssistantTurn lipgloss.Style
	Error         lipgloss.Style
	Warning       lipgloss.Style
	InputField    lipgloss.Style
	StatusBar     lipgloss.Style
	Border        lipgloss.Style
}

// NewStyles builds styles from theme. A nil theme uses DefaultTheme.
func NewStyles(theme *Theme) *Styles {
	if theme == nil {
		theme = DefaultTheme()
	}

	frame := lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(theme.Frame)

	return &Styles{
		theme:         theme,
		Title:         lipgloss.NewStyle().Bold(true).Foreground(theme.Accent),
		Normal:        lipgloss.NewStyle().Foreground(theme.Text),
		Muted:         lipgloss.NewStyle().Foreground(theme.Subtle),
		UserTurn:      lipgloss.NewStyle().Bold(true).Foreground(theme.User),
		AssistantTurn: lipgloss.NewStyle().Bold(true).Foreground(theme.Assistant),
		Error:         lipgloss.NewStyle().Foreground(theme.Danger),
		Warning:       lipgloss.NewStyle().Italic(true).Foreground(theme.Caution),
		InputField:    frame.Padding(0, 1),
		StatusBar:     lipgloss.NewStyle().Foreground(theme.Subtle).Background(theme.Bar).Padding(0, 1),
		Border:        frame,
	}
}

// DefaultStyles returns styles for the default theme.
func DefaultStyles() *Styles {
	return NewStyles(DefaultTheme())
}

// Theme returns the palette the styles were built from.
func (s *Styles) Theme() *Theme {
	return s.theme
}
