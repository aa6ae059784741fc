// Package pdf extracts text from PDF uploads.
package pdf

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/ledongthuc/pdf"

	"github.com/custodia-labs/notewise/internal/core/domain"
	"github.com/custodia-labs/notewise/internal/core/ports/driven"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

// Normaliser handles PDF documents.
type Normaliser struct{}

// New creates a new PDF normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// SupportedMIMETypes returns the MIME types this normaliser handles.
func (n *Normaliser) SupportedMIMETypes() []string {
	return []string{domain.MIMETypePDF}
}

// Normalise extracts the text of every page in order. The title is the
// document info Title when set.
func (n *Normaliser) Normalise(ctx context.Context, raw *domain.RawDocument) (*domain.Document, error) {
	if raw == nil || len(raw.Content) == 0 {
		return nil, domain.ErrInvalidInput
	}

	content, title, err := extract(ctx, raw.Content)
	if err != nil {
		return nil, err
	}
	if title == "" {
		title = raw.DisplayName()
	}

	return &domain.Document{
		Title:     title,
		MIMEType:  domain.MIMETypePDF,
		Content:   content,
		CreatedAt: time.Now(),
	}, nil
}

// extract reads the plain text and info title. The parser panics on some
// malformed files; that is reported as invalid input.
func extract(ctx context.Context, data []byte) (content, title string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: malformed pdf: %v", domain.ErrInvalidInput, r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", "", fmt.Errorf("%w: not a pdf: %v", domain.ErrInvalidInput, err)
	}
	if err := ctx.Err(); err != nil {
		return "", "", err
	}

	textReader, err := reader.GetPlainText()
	if err != nil {
		return "", "", fmt.Errorf("%w: extract pdf text: %v", domain.ErrInvalidInput, err)
	}
	text, err := io.ReadAll(textReader)
	if err != nil {
		return "", "", fmt.Errorf("read pdf text: %w", err)
	}

	info := reader.Trailer().Key("Info")
	if !info.IsNull() {
		title = strings.TrimSpace(info.Key("Title").Text())
	}

	return strings.TrimSpace(string(text)), title, nil
}
