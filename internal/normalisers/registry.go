package normalisers

import (
	"context"
	"fmt"
	"mime"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/gabriel-vasile/mimetype"

	"github.com/custodia-labs/notewise/internal/core/domain"
	"github.com/custodia-labs/notewise/internal/core/ports/driven"
)

// Ensure Registry implements the interface.
var _ driven.NormaliserRegistry = (*Registry)(nil)

// octetStream is what browsers and curl send when they do not know the type.
const octetStream = "application/octet-stream"

// extensionTypes covers formats content sniffing cannot tell apart from text/plain.
var extensionTypes = map[string]string{
	".md":       "text/markdown",
	".markdown": "text/markdown",
}

// Registry maps MIME types to normalisers. Later registrations win.
type Registry struct {
	mu     sync.RWMutex
	byType map[string]driven.Normaliser
}

// NewRegistry creates a registry holding the given normalisers.
func NewRegistry(normalisers ...driven.Normaliser) *Registry {
	r := &Registry{byType: make(map[string]driven.Normaliser)}
	for _, n := range normalisers {
		r.Register(n)
	}
	return r
}

// Register adds a normaliser for each of its MIME types.
func (r *Registry) Register(n driven.Normaliser) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range n.SupportedMIMETypes() {
		r.byType[t] = n
	}
}

// SupportedMIMETypes lists every registered type, sorted.
func (r *Registry) SupportedMIMETypes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	types := make([]string, 0, len(r.byType))
	for t := range r.byType {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

// Normalise resolves the document type and dispatches to its normaliser.
// The returned document carries the resolved type when the normaliser
// leaves it empty.
func (r *Registry) Normalise(ctx context.Context, raw *domain.RawDocument) (*domain.Document, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}

	mimeType := r.Resolve(raw)
	r.mu.RLock()
	n, ok := r.byType[mimeType]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnsupportedType, mimeType)
	}

	doc, err := n.Normalise(ctx, raw)
	if err != nil {
		return nil, err
	}
	if doc.MIMEType == "" {
		doc.MIMEType = mimeType
	}
	return doc, nil
}

// Resolve returns the MIME type the registry would dispatch raw to. A
// declared type wins. Otherwise the extension is consulted and then the
// content is sniffed, walking up the detected type's parents until one
// is registered. The result may be unregistered.
func (r *Registry) Resolve(raw *domain.RawDocument) string {
	declared := baseType(raw.MIMEType)
	if declared != "" && declared != octetStream {
		return declared
	}

	if t, ok := extensionTypes[strings.ToLower(filepath.Ext(raw.URI))]; ok {
		return t
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	detected := mimetype.Detect(raw.Content)
	for m := detected; m != nil; m = m.Parent() {
		t := baseType(m.String())
		if _, ok := r.byType[t]; ok {
			return t
		}
	}
	return baseType(detected.String())
}

// DetectMIMEType sniffs content and returns its type without parameters.
func DetectMIMEType(content []byte) string {
	return baseType(mimetype.Detect(content).String())
}

// baseType lower-cases a media type and drops parameters such as charset.
func baseType(t string) string {
	t = strings.TrimSpace(t)
	if t == "" {
		return ""
	}
	if parsed, _, err := mime.ParseMediaType(t); err == nil {
		return parsed
	}
	if i := strings.IndexByte(t, ';'); i >= 0 {
		t = t[:i]
	}
	return strings.ToLower(strings.TrimSpace(t))
}
