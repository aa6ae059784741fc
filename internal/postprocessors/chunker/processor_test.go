package chunker

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/notewise/internal/core/domain"
)

// words builds "w0000 w0001 ..." so every token is unique and fixed width.
func words(n int) string {
	parts := make([]string, n)
	for i := range parts {
		parts[i] = fmt.Sprintf("w%04d", i)
	}
	return strings.Join(parts, " ")
}

func TestSplit_InvalidConfiguration(t *testing.T) {
	tests := []struct {
		name    string
		size    int
		overlap int
	}{
		{name: "overlap equals size", size: 100, overlap: 100},
		{name: "overlap exceeds size", size: 100, overlap: 150},
		{name: "zero size", size: 0, overlap: 0},
		{name: "zero overlap", size: 100, overlap: 0},
		{name: "negative overlap", size: 100, overlap: -5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Split("some text", tt.size, tt.overlap)
			require.Error(t, err)
			assert.ErrorIs(t, err, domain.ErrInvalidConfiguration)
		})
	}
}

func TestSplit_EmptyInput(t *testing.T) {
	chunks, err := Split("", 1000, 200)
	require.NoError(t, err)
	assert.Empty(t, chunks)

	chunks, err = Split("   \n\t ", 1000, 200)
	require.NoError(t, err)
	assert.Empty(t, chunks)
}

func TestSplit_ShortTextIsSingleTrimmedChunk(t *testing.T) {
	// Longer than size-overlap but shorter than size.
	text := "  " + strings.Repeat("a", 900) + "  \n"

	chunks, err := Split(text, 1000, 200)
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, strings.TrimSpace(text), chunks[0])
}

func TestSplit_NormalisesLineEndings(t *testing.T) {
	chunks, err := Split("line one\r\nline two", 100, 10)
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, "line one\nline two", chunks[0])
}

func TestSplit_HardBoundaryWithOverlap(t *testing.T) {
	text := strings.Repeat("x", 250)

	chunks, err := Split(text, 100, 20)
	require.NoError(t, err)

	// Windows start at 0, 80, 160; the third reaches the end.
	require.Len(t, chunks, 3)
	assert.Len(t, chunks[0], 100)
	assert.Len(t, chunks[1], 100)
	assert.Len(t, chunks[2], 90)
}

func TestSplit_PrefersSentenceBoundary(t *testing.T) {
	// Period at index 79 of a 100 character window, followed by a space.
	first := strings.Repeat("a", 79) + ". "
	text := first + strings.Repeat("b", 200)

	chunks, err := Split(text, 100, 20)
	require.NoError(t, err)
	require.NotEmpty(t, chunks)
	assert.Equal(t, strings.Repeat("a", 79)+".", chunks[0])
}

func TestSplit_IgnoresEarlySentenceBoundary(t *testing.T) {
	// Period at index 30 is before 60% of the window, so the cut is hard.
	text := strings.Repeat("a", 30) + ". " + strings.Repeat("b", 200)

	chunks, err := Split(text, 100, 20)
	require.NoError(t, err)
	require.NotEmpty(t, chunks)
	assert.Equal(t, 100, utf8.RuneCountInString(chunks[0]))
}

func TestSplit_PeriodWithoutWhitespaceIsNotBoundary(t *testing.T) {
	text := strings.Repeat("a", 80) + ".b" + strings.Repeat("c", 200)

	chunks, err := Split(text, 100, 20)
	require.NoError(t, err)
	assert.Equal(t, 100, utf8.RuneCountInString(chunks[0]))
}

func TestSplit_ChunksAreBounded(t *testing.T) {
	text := strings.Repeat("Sentence number one is here. And another follows it! ", 200)

	for _, size := range []int{50, 137, 1000} {
		t.Run(fmt.Sprintf("size %d", size), func(t *testing.T) {
			chunks, err := Split(text, size, size/5)
			require.NoError(t, err)
			require.NotEmpty(t, chunks)
			for _, c := range chunks {
				assert.LessOrEqual(t, utf8.RuneCountInString(c), size)
				assert.NotEmpty(t, c)
				assert.Equal(t, strings.TrimSpace(c), c)
			}
		})
	}
}

func TestSplit_CountsCharactersNotBytes(t *testing.T) {
	text := strings.Repeat("é", 150)

	chunks, err := Split(text, 100, 10)
	require.NoError(t, err)
	require.Len(t, chunks, 2)
	assert.Equal(t, 100, utf8.RuneCountInString(chunks[0]))
	assert.True(t, utf8.ValidString(chunks[0]))
}

func TestSplit_EveryWordSurvives(t *testing.T) {
	text := words(600) + ". " + words(400)

	chunks, err := Split(text, 120, 30)
	require.NoError(t, err)

	joined := strings.Join(chunks, "\n")
	for i := 0; i < 600; i++ {
		assert.Contains(t, joined, fmt.Sprintf("w%04d", i))
	}
}

func TestSplit_IsDeterministic(t *testing.T) {
	text := words(500)

	a, err := Split(text, 200, 50)
	require.NoError(t, err)
	b, err := Split(text, 200, 50)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestNew(t *testing.T) {
	t.Run("default values", func(t *testing.T) {
		p, err := New()
		require.NoError(t, err)
		assert.Equal(t, DefaultChunkSize, p.ChunkSize())
		assert.Equal(t, DefaultChunkOverlap, p.Overlap())
	})

	t.Run("custom values", func(t *testing.T) {
		p, err := New(WithChunkSize(500), WithOverlap(100))
		require.NoError(t, err)
		assert.Equal(t, 500, p.ChunkSize())
		assert.Equal(t, 100, p.Overlap())
	})

	t.Run("overlap exceeds chunk size", func(t *testing.T) {
		_, err := New(WithChunkSize(100), WithOverlap(150))
		assert.ErrorIs(t, err, domain.ErrInvalidConfiguration)
	})
}

func TestProcessor_Process(t *testing.T) {
	p, err := New(WithChunkSize(100), WithOverlap(20))
	require.NoError(t, err)

	doc := &domain.Document{
		ID:      "doc-1",
		OwnerID: "u1",
		Content: strings.Repeat("y", 250),
	}

	records, err := p.Process(context.Background(), doc)
	require.NoError(t, err)
	require.Len(t, records, 3)

	for i, rec := range records {
		assert.Equal(t, i, rec.Index)
		assert.Equal(t, fmt.Sprintf("doc-1:%d", i), rec.ID)
		assert.Equal(t, "doc-1", rec.Metadata[domain.MetaDocumentID])
		assert.Equal(t, "u1", rec.Metadata[domain.MetaOwnerID])
	}
}

func TestProcessor_Process_EmptyContent(t *testing.T) {
	p, err := New()
	require.NoError(t, err)

	records, err := p.Process(context.Background(), &domain.Document{ID: "doc"})
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestProcessor_Process_CancelledContext(t *testing.T) {
	p, err := New()
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = p.Process(ctx, &domain.Document{ID: "doc", Content: "text"})
	assert.ErrorIs(t, err, context.Canceled)
}
