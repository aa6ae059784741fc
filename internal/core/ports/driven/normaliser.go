package driven

import (
	"context"

	"github.com/custodia-labs/notewise/internal/core/domain"
)

// Normaliser extracts plain text from uploaded bytes.
// Each normaliser handles specific MIME types (e.g., PDF, DOCX).
type Normaliser interface {
	// SupportedMIMETypes returns the MIME types this normaliser handles.
	SupportedMIMETypes() []string

	// Normalise extracts the document text. The returned Document has no ID or owner.
	Normalise(ctx context.Context, raw *domain.RawDocument) (*domain.Document, error)
}

// NormaliserRegistry selects a normaliser by MIME type.
type NormaliserRegistry interface {
	// Register adds a normaliser for its MIME types.
	Register(n Normaliser)

	// Normalise detects the MIME type when absent and dispatches.
	// Returns domain.ErrUnsupportedType for unknown types.
	Normalise(ctx context.Context, raw *domain.RawDocument) (*domain.Document, error)

	// SupportedMIMETypes lists every registered type.
	SupportedMIMETypes() []string
}
