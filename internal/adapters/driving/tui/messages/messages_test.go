package messages

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestViewType_String(t *testing.T) {
	tests := []struct {
		view ViewType
		want string
	}{
		{ViewChat, "chat"},
		{ViewPassages, "passages"},
		{ViewHelp, "help"},
		{ViewType(99), "unknown"},
		{ViewType(-1), "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.view.String())
		})
	}
}

func TestViewChat_IsZeroValue(t *testing.T) {
	var v ViewType
	assert.Equal(t, ViewChat, v)
}
