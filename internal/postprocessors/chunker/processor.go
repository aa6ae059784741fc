// Package chunker splits extracted document text into overlapping,
// bounded-size chunks that prefer to end on sentence boundaries.
package chunker

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"github.com/custodia-labs/notewise/internal/core/domain"
)

// DefaultChunkSize is the default number of characters per chunk.
const DefaultChunkSize = domain.DefaultChunkSize

// DefaultChunkOverlap is the default number of overlapping characters.
const DefaultChunkOverlap = domain.DefaultChunkOverlap

// sentenceCutRatio is how far into a window a sentence boundary must lie
// before the chunk is shortened to end there.
const sentenceCutRatio = 0.6

// Split divides text into chunks of at most chunkSize characters.
//
// Line endings are normalised to "\n". When a window ends before the end of
// the text, it is shortened to the last period followed by whitespace that
// lies at or beyond 60% of chunkSize. Consecutive windows start
// chunkSize-overlap characters apart, never past the end of the previous
// chunk. Chunks are trimmed and empty chunks dropped.
//
// Returns domain.ErrInvalidConfiguration unless 0 < overlap < chunkSize.
func Split(text string, chunkSize, overlap int) ([]string, error) {
	if chunkSize <= 0 || overlap <= 0 || overlap >= chunkSize {
		return nil, fmt.Errorf("%w: chunk size %d and overlap %d (need 0 < overlap < size)",
			domain.ErrInvalidConfiguration, chunkSize, overlap)
	}

	runes := []rune(strings.ReplaceAll(text, "\r\n", "\n"))
	if len(runes) == 0 {
		return nil, nil
	}

	stride := chunkSize - overlap
	minCut := sentenceCutRatio * float64(chunkSize)
	chunks := make([]string, 0, len(runes)/stride+1)

	for start := 0; start < len(runes); {
		end := min(start+chunkSize, len(runes))
		window := runes[start:end]

		if end < len(runes) {
			if cut := lastSentenceEnd(window); cut >= 0 && float64(cut) >= minCut {
				window = window[:cut+1]
			}
		}

		if chunk := strings.TrimSpace(string(window)); chunk != "" {
			chunks = append(chunks, chunk)
		}

		if end == len(runes) {
			break
		}
		start += min(stride, len(window))
	}

	return chunks, nil
}

// lastSentenceEnd returns the index of the last period followed by
// whitespace in window, or -1.
func lastSentenceEnd(window []rune) int {
	for i := len(window) - 2; i >= 0; i-- {
		if window[i] == '.' && unicode.IsSpace(window[i+1]) {
			return i
		}
	}
	return -1
}

// Processor turns documents into chunk records using fixed parameters.
type Processor struct {
	chunkSize int
	overlap   int
}

// Option configures the chunker processor.
type Option func(*Processor)

// WithChunkSize sets the chunk size in characters.
func WithChunkSize(size int) Option {
	return func(p *Processor) {
		p.chunkSize = size
	}
}

// WithOverlap sets the overlap between chunks in characters.
func WithOverlap(overlap int) Option {
	return func(p *Processor) {
		p.overlap = overlap
	}
}

// New creates a chunker processor. Parameters are validated up front so a
// misconfigured processor can never be used.
func New(opts ...Option) (*Processor, error) {
	p := &Processor{
		chunkSize: DefaultChunkSize,
		overlap:   DefaultChunkOverlap,
	}

	for _, opt := range opts {
		opt(p)
	}

	if p.chunkSize <= 0 || p.overlap <= 0 || p.overlap >= p.chunkSize {
		return nil, fmt.Errorf("%w: chunk size %d and overlap %d (need 0 < overlap < size)",
			domain.ErrInvalidConfiguration, p.chunkSize, p.overlap)
	}

	return p, nil
}

// ChunkSize returns the configured chunk size.
func (p *Processor) ChunkSize() int {
	return p.chunkSize
}

// Overlap returns the configured overlap.
func (p *Processor) Overlap() int {
	return p.overlap
}

// Process splits the document content into records carrying the
// document's owner and id. Indices are contiguous from 0.
func (p *Processor) Process(ctx context.Context, doc *domain.Document) ([]domain.ChunkRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	texts, err := Split(doc.Content, p.chunkSize, p.overlap)
	if err != nil {
		return nil, err
	}

	records := make([]domain.ChunkRecord, 0, len(texts))
	for i, text := range texts {
		records = append(records, domain.NewChunkRecord(doc.OwnerID, doc.ID, i, text))
	}

	return records, nil
}
