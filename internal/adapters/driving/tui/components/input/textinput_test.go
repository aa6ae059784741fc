package input

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/notewise/internal/adapters/driving/tui/styles"
)

func TestNewQuestionInput(t *testing.T) {
	input := NewQuestionInput(styles.DefaultStyles())

	require.NotNil(t, input)
	assert.Equal(t, "", input.Value())
	assert.True(t, input.Focused())

	input = NewQuestionInput(nil)
	assert.NotNil(t, input.styles)
}

func TestQuestionInput_Init(t *testing.T) {
	assert.NotNil(t, NewQuestionInput(nil).Init())
}

func TestQuestionInput_Update(t *testing.T) {
	input := NewQuestionInput(nil)

	for _, r := range "why?" {
		input, _ = input.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}

	assert.Equal(t, "why?", input.Value())
}

func TestQuestionInput_View(t *testing.T) {
	view := NewQuestionInput(nil).View()
	assert.Contains(t, view, "Ask")
}

func TestQuestionInput_Take(t *testing.T) {
	tests := []struct {
		name      string
		value     string
		want      string
		wantAfter string
	}{
		{"trims and clears", "  what changed?  ", "what changed?", ""},
		{"blank is left alone", "   ", "", "   "},
		{"empty", "", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := NewQuestionInput(nil)
			input.SetValue(tt.value)

			assert.Equal(t, tt.want, input.Take())
			assert.Equal(t, tt.wantAfter, input.Value())
		})
	}
}

func TestQuestionInput_FocusAndBlur(t *testing.T) {
	input := NewQuestionInput(nil)
	input.Blur()
	assert.False(t, input.Focused())

	input.Focus()
	assert.True(t, input.Focused())
}

func TestQuestionInput_SetWidth(t *testing.T) {
	tests := []struct {
		name      string
		width     int
		wantInner int
	}{
		{"wide", 100, 90},
		{"narrow clamps", 15, 20},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := NewQuestionInput(nil)
			input.SetWidth(tt.width)

			assert.Equal(t, tt.width, input.Width())
			assert.Equal(t, tt.wantInner, input.textinput.Width)
		})
	}
}
