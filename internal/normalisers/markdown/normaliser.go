// Package markdown extracts readable text from markdown notes.
package markdown

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/custodia-labs/notewise/internal/core/domain"
	"github.com/custodia-labs/notewise/internal/core/ports/driven"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

// Normaliser handles Markdown documents.
type Normaliser struct{}

// New creates a new Markdown normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// MIMEType is the canonical markdown type.
const MIMEType = "text/markdown"

// SupportedMIMETypes returns the MIME types this normaliser handles.
func (n *Normaliser) SupportedMIMETypes() []string {
	return []string{MIMEType, "text/x-markdown"}
}

// Normalise strips markdown syntax and takes the title from the first
// level-one heading.
func (n *Normaliser) Normalise(_ context.Context, raw *domain.RawDocument) (*domain.Document, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}

	rawContent := strings.ReplaceAll(string(raw.Content), "\r\n", "\n")
	title := extractMarkdownTitle(rawContent)
	if title == "" {
		title = raw.DisplayName()
	}

	return &domain.Document{
		Title:     title,
		MIMEType:  MIMEType,
		Content:   stripMarkdown(rawContent),
		CreatedAt: time.Now(),
	}, nil
}

// extractMarkdownTitle returns the first "# " heading, or "".
func extractMarkdownTitle(content string) string {
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "# ") {
			return strings.TrimSpace(strings.TrimPrefix(line, "#"))
		}
	}
	return ""
}

var (
	codeFence    = regexp.MustCompile("(?s)```[^\n]*\n(.*?)```")
	inlineCode   = regexp.MustCompile("`([^`]+)`")
	images       = regexp.MustCompile(`!\[([^\]]*)\]\([^)]+\)`)
	links        = regexp.MustCompile(`\[([^\]]+)\]\([^)]+\)`)
	headings     = regexp.MustCompile(`(?m)^#{1,6}\s+`)
	emphasis     = regexp.MustCompile(`(\*\*|__|\*|~~)([^*_~\n]+)(\*\*|__|\*|~~)`)
	blockquote   = regexp.MustCompile(`(?m)^>\s?`)
	rule         = regexp.MustCompile(`(?m)^\s*([-*_]\s*){3,}$`)
	listMarker   = regexp.MustCompile(`(?m)^(\s*)[-*+]\s+`)
	multiNewline = regexp.MustCompile(`\n{3,}`)
)

// stripMarkdown reduces markdown to its readable text. Code blocks keep
// their body since notes often quote commands; image alt text is kept.
func stripMarkdown(content string) string {
	content = codeFence.ReplaceAllString(content, "$1")
	content = inlineCode.ReplaceAllString(content, "$1")
	content = images.ReplaceAllString(content, "$1")
	content = links.ReplaceAllString(content, "$1")
	content = headings.ReplaceAllString(content, "")
	content = emphasis.ReplaceAllString(content, "$2")
	content = blockquote.ReplaceAllString(content, "")
	content = rule.ReplaceAllString(content, "")
	content = listMarker.ReplaceAllString(content, "$1")
	content = multiNewline.ReplaceAllString(content, "\n\n")
	return strings.TrimSpace(content)
}
