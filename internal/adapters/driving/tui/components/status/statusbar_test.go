package status

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/notewise/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/notewise/internal/adapters/driving/tui/styles"
)

func TestNewBar(t *testing.T) {
	bar := NewBar(styles.DefaultStyles(), keymap.DefaultKeyMap())

	require.NotNil(t, bar)
	assert.Equal(t, StateReady, bar.State())
	assert.Equal(t, "", bar.Message())
	assert.Equal(t, 0, bar.TurnCount())
	assert.Equal(t, 80, bar.Width())
}

func TestNewBar_NilDependencies(t *testing.T) {
	bar := NewBar(nil, nil)

	require.NotNil(t, bar)
	assert.NotNil(t, bar.styles)
	assert.NotNil(t, bar.keymap)
}

func TestBar_InitAndUpdate(t *testing.T) {
	bar := NewBar(nil, nil)
	assert.Nil(t, bar.Init())

	updated, cmd := bar.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.Equal(t, bar, updated)
	assert.Nil(t, cmd)
}

func TestBar_View(t *testing.T) {
	tests := []struct {
		name    string
		state   State
		message string
		turns   int
		want    string
	}{
		{name: "ready", state: StateReady, want: "Ready"},
		{name: "ready with turns", state: StateReady, turns: 4, want: "4 turns"},
		{name: "thinking", state: StateThinking, want: "Thinking..."},
		{name: "degraded", state: StateDegraded, want: "could not be parsed"},
		{name: "error with message", state: StateError, message: "llm down", want: "Error: llm down"},
		{name: "error without message", state: StateError, want: "Error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bar := NewBar(nil, nil)
			bar.SetWidth(160)
			bar.SetState(tt.state)
			bar.SetMessage(tt.message)
			bar.SetTurnCount(tt.turns)

			view := bar.View()
			assert.Contains(t, view, tt.want)
			assert.Contains(t, view, "enter: send")
		})
	}
}

func TestBar_View_Session(t *testing.T) {
	bar := NewBar(nil, nil)
	bar.SetWidth(160)
	bar.SetSession("alice/doc-1")

	assert.Contains(t, bar.View(), "alice/doc-1")
}

func TestBar_View_NarrowWidth(t *testing.T) {
	bar := NewBar(nil, nil)
	bar.SetWidth(5)

	assert.NotEmpty(t, bar.View())
}

func TestBar_Clear(t *testing.T) {
	bar := NewBar(nil, nil)
	bar.SetSession("alice/doc-1")
	bar.SetState(StateError)
	bar.SetMessage("boom")
	bar.SetTurnCount(3)

	bar.Clear()

	assert.Equal(t, StateReady, bar.State())
	assert.Equal(t, "", bar.Message())
	assert.Equal(t, 0, bar.TurnCount())
	bar.SetWidth(160)
	assert.Contains(t, bar.View(), "alice/doc-1")
}
