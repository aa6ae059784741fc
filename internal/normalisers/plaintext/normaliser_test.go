package plaintext

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/notewise/internal/core/domain"
	"github.com/custodia-labs/notewise/internal/core/ports/driven"
)

func TestSupportedMIMETypes(t *testing.T) {
	types := New().SupportedMIMETypes()
	assert.Contains(t, types, domain.MIMETypePlainText)
	assert.Contains(t, types, "text/csv")
	assert.Contains(t, types, "application/json")
}

func TestNormalise(t *testing.T) {
	tests := []struct {
		name        string
		uri         string
		content     []byte
		wantContent string
		wantTitle   string
	}{
		{
			name:        "plain text",
			uri:         "/notes/standup_2024-05-01.txt",
			content:     []byte("Shipped the importer.\nNext: retries."),
			wantContent: "Shipped the importer.\nNext: retries.",
			wantTitle:   "standup 2024 05 01",
		},
		{
			name:        "empty content",
			uri:         "empty.txt",
			content:     nil,
			wantContent: "",
			wantTitle:   "empty",
		},
		{
			name:        "byte order mark stripped",
			uri:         "bom.txt",
			content:     []byte("\uFEFFhello"),
			wantContent: "hello",
			wantTitle:   "bom",
		},
		{
			name:        "invalid utf-8 replaced",
			uri:         "bad.txt",
			content:     []byte{'o', 'k', 0xff, '!'},
			wantContent: "ok\uFFFD!",
			wantTitle:   "bad",
		},
		{
			name:        "unicode preserved",
			uri:         "",
			content:     []byte("こんにちは 🌍"),
			wantContent: "こんにちは 🌍",
			wantTitle:   "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := New().Normalise(context.Background(), &domain.RawDocument{
				URI:      tt.uri,
				MIMEType: domain.MIMETypePlainText,
				Content:  tt.content,
			})
			require.NoError(t, err)
			assert.Equal(t, tt.wantContent, doc.Content)
			assert.Equal(t, tt.wantTitle, doc.Title)
			assert.Equal(t, domain.MIMETypePlainText, doc.MIMEType)
			assert.Empty(t, doc.ID)
			assert.False(t, doc.CreatedAt.IsZero())
		})
	}
}

func TestNormalise_NilDocument(t *testing.T) {
	doc, err := New().Normalise(context.Background(), nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Nil(t, doc)
}

func TestNormalise_LargeContent(t *testing.T) {
	content := strings.Repeat("line of notes\n", 10000)
	doc, err := New().Normalise(context.Background(), &domain.RawDocument{Content: []byte(content)})
	require.NoError(t, err)
	assert.Len(t, doc.Content, len(content))
}

func TestInterfaceCompliance(t *testing.T) {
	var _ driven.Normaliser = (*Normaliser)(nil)
}

func BenchmarkNormalise(b *testing.B) {
	n := New()
	raw := &domain.RawDocument{URI: "bench.txt", Content: []byte(strings.Repeat("benchmark text ", 1000))}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = n.Normalise(context.Background(), raw)
	}
}
