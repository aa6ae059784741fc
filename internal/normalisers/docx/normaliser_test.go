package docx

import (
	"archive/zip"
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/notewise/internal/core/domain"
	"github.com/custodia-labs/notewise/internal/core/ports/driven"
)

const wordNS = `xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"`

// createTestDOCX builds a minimal archive; empty parts are omitted.
func createTestDOCX(t testing.TB, documentXML, coreXML string) []byte {
	t.Helper()
	buf := new(bytes.Buffer)
	w := zip.NewWriter(buf)

	parts := []struct{ name, body string }{
		{"[Content_Types].xml", `<?xml version="1.0" encoding="UTF-8"?><Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types"/>`},
		{"word/document.xml", documentXML},
		{"docProps/core.xml", coreXML},
	}
	for _, p := range parts {
		if p.body == "" {
			continue
		}
		f, err := w.Create(p.name)
		require.NoError(t, err)
		_, err = f.Write([]byte(p.body))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return buf.Bytes()
}

func body(paragraphs string) string {
	return `<?xml version="1.0" encoding="UTF-8"?><w:document ` + wordNS + `><w:body>` + paragraphs + `</w:body></w:document>`
}

func core(title string) string {
	return `<?xml version="1.0" encoding="UTF-8"?>
<cp:coreProperties xmlns:cp="http://schemas.openxmlformats.org/package/2006/metadata/core-properties"
xmlns:dc="http://purl.org/dc/elements/1.1/"><dc:title>` + title + `</dc:title></cp:coreProperties>`
}

func TestSupportedMIMETypes(t *testing.T) {
	assert.Equal(t, []string{domain.MIMETypeDOCX}, New().SupportedMIMETypes())
}

func TestNormalise(t *testing.T) {
	tests := []struct {
		name        string
		uri         string
		documentXML string
		coreXML     string
		wantContent string
		wantTitle   string
	}{
		{
			name:        "title from core properties",
			uri:         "/uploads/plan.docx",
			documentXML: body(`<w:p><w:r><w:t>Hello World</w:t></w:r></w:p>`),
			coreXML:     core("Quarterly Plan"),
			wantContent: "Hello World",
			wantTitle:   "Quarterly Plan",
		},
		{
			name:        "title falls back to file name",
			uri:         "/uploads/meeting_notes.docx",
			documentXML: body(`<w:p><w:r><w:t>Agenda</w:t></w:r></w:p>`),
			wantContent: "Agenda",
			wantTitle:   "meeting notes",
		},
		{
			name:        "blank core title falls back",
			uri:         "draft.docx",
			documentXML: body(`<w:p><w:r><w:t>x</w:t></w:r></w:p>`),
			coreXML:     core("   "),
			wantContent: "x",
			wantTitle:   "draft",
		},
		{
			name: "paragraphs become lines",
			uri:  "p.docx",
			documentXML: body(`<w:p><w:r><w:t>First</w:t></w:r></w:p>` +
				`<w:p><w:r><w:t>Second</w:t></w:r></w:p>` +
				`<w:p><w:r><w:t>Third</w:t></w:r></w:p>`),
			wantContent: "First\nSecond\nThird",
			wantTitle:   "p",
		},
		{
			name:        "runs are joined",
			uri:         "r.docx",
			documentXML: body(`<w:p><w:r><w:t>Hello </w:t></w:r><w:r><w:t>there</w:t></w:r></w:p>`),
			wantContent: "Hello there",
			wantTitle:   "r",
		},
		{
			name:        "empty body",
			uri:         "empty.docx",
			documentXML: body(``),
			wantContent: "",
			wantTitle:   "empty",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := New().Normalise(context.Background(), &domain.RawDocument{
				URI:      tt.uri,
				MIMEType: domain.MIMETypeDOCX,
				Content:  createTestDOCX(t, tt.documentXML, tt.coreXML),
			})
			require.NoError(t, err)
			assert.Equal(t, tt.wantContent, doc.Content)
			assert.Equal(t, tt.wantTitle, doc.Title)
			assert.Equal(t, domain.MIMETypeDOCX, doc.MIMEType)
		})
	}
}

func TestNormalise_InvalidInput(t *testing.T) {
	tests := []struct {
		name string
		raw  *domain.RawDocument
	}{
		{name: "nil document", raw: nil},
		{name: "not a zip", raw: &domain.RawDocument{Content: []byte("not a zip file")}},
		{name: "zip without document part", raw: &domain.RawDocument{Content: createTestDOCX(t, "", core("t"))}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := New().Normalise(context.Background(), tt.raw)
			assert.ErrorIs(t, err, domain.ErrInvalidInput)
			assert.Nil(t, doc)
		})
	}
}

func TestInterfaceCompliance(t *testing.T) {
	var _ driven.Normaliser = (*Normaliser)(nil)
}

func BenchmarkNormalise(b *testing.B) {
	raw := &domain.RawDocument{
		URI:     "bench.docx",
		Content: createTestDOCX(b, body(`<w:p><w:r><w:t>Benchmark paragraph</w:t></w:r></w:p>`), ""),
	}
	n := New()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = n.Normalise(context.Background(), raw)
	}
}
