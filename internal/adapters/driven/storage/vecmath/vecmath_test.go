package vecmath

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/notewise/internal/core/domain"
)

func TestCosine(t *testing.T) {
	tests := []struct {
		name     string
		a, b     []float32
		expected float64
	}{
		{name: "identical", a: []float32{1, 2, 3}, b: []float32{1, 2, 3}, expected: 1},
		{name: "orthogonal", a: []float32{1, 0}, b: []float32{0, 1}, expected: 0},
		{name: "opposite", a: []float32{1, 0}, b: []float32{-1, 0}, expected: -1},
		{name: "zero vector", a: []float32{0, 0}, b: []float32{1, 0}, expected: 0},
		{name: "length mismatch", a: []float32{1}, b: []float32{1, 0}, expected: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, Cosine(tt.a, tt.b), 1e-9)
		})
	}
}

func TestRank(t *testing.T) {
	results := []domain.QueryResult{
		{ID: "b", Score: 0.5},
		{ID: "a", Score: 0.5},
		{ID: "c", Score: 0.9},
		{ID: "d", Score: 0.1},
	}

	ranked := Rank(results, 3)

	require.Len(t, ranked, 3)
	assert.Equal(t, "c", ranked[0].ID)
	assert.Equal(t, "a", ranked[1].ID)
	assert.Equal(t, "b", ranked[2].ID)
}

func TestEncodeDecode(t *testing.T) {
	v := []float32{0.25, -1.5, 3}

	decoded, err := Decode(Encode(v))
	require.NoError(t, err)
	assert.Equal(t, v, decoded)

	_, err = Decode([]byte{1, 2, 3})
	assert.Error(t, err)
}
