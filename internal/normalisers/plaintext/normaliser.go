// Package plaintext extracts text from text/* uploads.
package plaintext

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/custodia-labs/notewise/internal/core/domain"
	"github.com/custodia-labs/notewise/internal/core/ports/driven"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

// Normaliser handles plain text documents.
type Normaliser struct{}

// New creates a new plain text normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// SupportedMIMETypes returns the MIME types this normaliser handles.
func (n *Normaliser) SupportedMIMETypes() []string {
	return []string{
		domain.MIMETypePlainText,
		"text/csv",
		"text/tab-separated-values",
		"text/rtf",
		"application/json",
		"application/x-ndjson",
	}
}

// Normalise decodes the bytes as UTF-8, replacing invalid sequences,
// and strips a leading byte order mark.
func (n *Normaliser) Normalise(_ context.Context, raw *domain.RawDocument) (*domain.Document, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}

	content := string(raw.Content)
	if !utf8.ValidString(content) {
		content = strings.ToValidUTF8(content, "\uFFFD")
	}
	content = strings.TrimPrefix(content, "\uFEFF")

	return &domain.Document{
		Title:     raw.DisplayName(),
		MIMEType:  domain.MIMETypePlainText,
		Content:   content,
		CreatedAt: time.Now(),
	}, nil
}
