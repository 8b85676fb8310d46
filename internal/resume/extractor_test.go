package resume

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"os"
	"strings"
	"testing"
)

func TestIsAllowed(t *testing.T) {
	tests := []struct {
		contentType string
		want        bool
	}{
		{"text/plain", true},
		{"text/plain; charset=utf-8", true},
		{"application/pdf", true},
		{"application/msword", true},
		{MIMEDocx, true},
		{"APPLICATION/PDF", true},
		{"image/png", false},
		{"", false},
	}

	for _, tt := range tests {
		if got := IsAllowed(tt.contentType); got != tt.want {
			t.Errorf("IsAllowed(%q) = %v, want %v", tt.contentType, got, tt.want)
		}
	}
}

func TestExtractPlainTextVerbatim(t *testing.T) {
	ex, err := NewExtractor("")
	if err != nil {
		t.Fatalf("NewExtractor failed: %v", err)
	}

	resume := "Jane Doe\n  Senior Go engineer\n"
	if got := ex.Extract(context.Background(), []byte(resume), "text/plain; charset=utf-8"); got != resume {
		t.Errorf("expected verbatim text, got %q", got)
	}
}

func TestExtractUnsupportedUsesPlaceholder(t *testing.T) {
	ex, _ := NewExtractor("")

	for _, ct := range []string{"application/msword", "image/png", ""} {
		if got := ex.Extract(context.Background(), []byte{0xD0, 0xCF, 0x11, 0xE0}, ct); got != Placeholder {
			t.Errorf("content type %q: expected placeholder, got %q", ct, got)
		}
	}
}

func TestExtractCorruptPDFUsesPlaceholder(t *testing.T) {
	ex, _ := NewExtractor("")

	got := ex.Extract(context.Background(), []byte("definitely not a pdf"), MIMEPDF)
	if got != Placeholder {
		t.Errorf("expected placeholder for corrupt PDF, got %q", got)
	}
}

func TestExtractPDF(t *testing.T) {
	// unipdf only extracts text with a metered license key
	key := os.Getenv("RESUME_PDF_LICENSE_KEY")
	if key == "" {
		t.Skip("RESUME_PDF_LICENSE_KEY not set")
	}
	ex, err := NewExtractor(key)
	if err != nil {
		t.Fatalf("NewExtractor failed: %v", err)
	}

	got := ex.Extract(context.Background(), buildPDF("Senior Go Engineer"), MIMEPDF)
	if !strings.Contains(got, "Senior Go Engineer") {
		t.Errorf("expected extracted text, got %q", got)
	}
}

func TestExtractDocx(t *testing.T) {
	ex, _ := NewExtractor("")

	data := buildDocx(t, `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
  <w:body>
    <w:p><w:r><w:t>Jane Doe</w:t></w:r></w:p>
    <w:p><w:r><w:t xml:space="preserve">Backend </w:t></w:r><w:r><w:t>engineer</w:t></w:r></w:p>
  </w:body>
</w:document>`)

	got := ex.Extract(context.Background(), data, MIMEDocx)
	if got != "Jane Doe\nBackend engineer" {
		t.Errorf("unexpected docx text %q", got)
	}

	if got := ex.Extract(context.Background(), []byte("PK broken"), MIMEDocx); got != Placeholder {
		t.Errorf("expected placeholder for corrupt docx, got %q", got)
	}
}

func TestDocumentText(t *testing.T) {
	content := `<w:document xmlns:w="w"><w:body>` +
		`<w:p><w:r><w:t>Skills:</w:t><w:tab/><w:t>Go</w:t></w:r></w:p>` +
		`<w:p><w:r><w:t>Line one</w:t><w:br/><w:t>Line two</w:t></w:r></w:p>` +
		`<w:p><w:r><w:instrText>IGNORED</w:instrText></w:r></w:p>` +
		`</w:body></w:document>`

	got, err := documentText(content)
	if err != nil {
		t.Fatalf("documentText failed: %v", err)
	}
	want := "Skills:\tGo\nLine one\nLine two"
	if got != want {
		t.Errorf("documentText() = %q, want %q", got, want)
	}

	if _, err := documentText("<w:p><w:t>unclosed"); err == nil {
		t.Error("expected error for malformed XML")
	}
}

func buildDocx(t *testing.T, document string) []byte {
	t.Helper()

	files := map[string]string{
		"[Content_Types].xml": `<?xml version="1.0" encoding="UTF-8"?>
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">
  <Default Extension="xml" ContentType="application/xml"/>
  <Override PartName="/word/document.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"/>
</Types>`,
		"word/document.xml": document,
		"word/_rels/document.xml.rels": `<?xml version="1.0" encoding="UTF-8"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships"></Relationships>`,
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, content := range files {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatalf("zip create %s: %v", name, err)
		}
		if _, err := w.Write([]byte(content)); err != nil {
			t.Fatalf("zip write %s: %v", name, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("zip close: %v", err)
	}
	return buf.Bytes()
}

// buildPDF writes a single page PDF showing text in Helvetica
func buildPDF(text string) []byte {
	content := fmt.Sprintf("BT /F1 18 Tf 72 720 Td (%s) Tj ET", text)
	objects := []string{
		"<< /Type /Catalog /Pages 2 0 R >>",
		"<< /Type /Pages /Kids [3 0 R] /Count 1 >>",
		"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Contents 4 0 R /Resources << /Font << /F1 5 0 R >> >> >>",
		fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(content), content),
		"<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica >>",
	}

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objects))
	for i, obj := range objects {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}

	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n0000000000 65535 f \n", len(objects)+1)
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objects)+1, xref)
	return buf.Bytes()
}
