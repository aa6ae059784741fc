package domain

import (
	"path/filepath"
	"strings"
)

// RawDocument represents uploaded bytes before text extraction.
type RawDocument struct {
	// URI is where the bytes came from (file path, upload file name).
	URI string

	// MIMEType is the content type (e.g., "application/pdf").
	// Empty means the type is sniffed from Content.
	MIMEType string

	// Content is the raw bytes.
	Content []byte
}

// Supported upload MIME types.
const (
	MIMETypePlainText = "text/plain"
	MIMETypePDF       = "application/pdf"
	MIMETypeDOCX      = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
)

// DisplayName derives a readable title from the URI's base name:
// extension dropped, underscores and dashes turned into spaces.
func (r *RawDocument) DisplayName() string {
	if r == nil || r.URI == "" {
		return ""
	}
	name := filepath.Base(r.URI)
	name = strings.TrimSuffix(name, filepath.Ext(name))
	return strings.NewReplacer("_", " ", "-", " ").Replace(name)
}
