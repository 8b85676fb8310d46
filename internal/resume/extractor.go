// Package resume turns uploaded resume files into plain text.
//
// Plain text is used verbatim, PDF is extracted page by page and DOCX from
// its document body. Anything else, and any file whose extraction fails,
// yields Placeholder: a degraded stand-in rather than real parsing.
package resume

import (
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"strings"

	"github.com/nguyenthenguyen/docx"
	"github.com/unidoc/unipdf/v3/common/license"
	"github.com/unidoc/unipdf/v3/extractor"
	"github.com/unidoc/unipdf/v3/model"
)

// Placeholder is returned when no text can be extracted
const Placeholder = "Resume file processed successfully. Ready for AI interview analysis."

// DefaultMaxBytes is the upload size limit
const DefaultMaxBytes = 5 << 20

// Supported upload types
const (
	MIMEText = "text/plain"
	MIMEPDF  = "application/pdf"
	MIMEDoc  = "application/msword"
	MIMEDocx = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
)

var allowedTypes = map[string]bool{
	MIMEText: true,
	MIMEPDF:  true,
	MIMEDoc:  true,
	MIMEDocx: true,
}

// IsAllowed reports whether uploads of the given content type are accepted
func IsAllowed(contentType string) bool {
	return allowedTypes[mediaType(contentType)]
}

// Extractor converts resume bytes into text
type Extractor struct{}

// NewExtractor creates an extractor. licenseKey is the UniDoc metered key
// used for PDF processing. Without it unipdf returns no text and every PDF
// resume falls back to Placeholder.
func NewExtractor(licenseKey string) (*Extractor, error) {
	key := strings.TrimSpace(licenseKey)
	if key == "" {
		slog.Warn("no pdf license key configured, pdf resumes will use placeholder text")
		return &Extractor{}, nil
	}
	if err := license.SetMeteredKey(key); err != nil {
		return nil, fmt.Errorf("failed to set pdf license key: %w", err)
	}
	return &Extractor{}, nil
}

// Extract returns the text content of data, or Placeholder when the format
// is unsupported or yields no text
func (e *Extractor) Extract(ctx context.Context, data []byte, contentType string) string {
	mt := mediaType(contentType)

	var text string
	var err error
	switch mt {
	case MIMEText:
		return string(data)
	case MIMEPDF:
		text, err = extractPDF(ctx, data)
	case MIMEDocx:
		text, err = extractDocx(data)
	default:
		slog.Debug("resume format not parsed, using placeholder", "content_type", mt)
		return Placeholder
	}

	if err != nil {
		slog.Warn("resume extraction failed, using placeholder", "content_type", mt, "error", err)
		return Placeholder
	}
	if strings.TrimSpace(text) == "" {
		slog.Warn("resume contained no text, using placeholder", "content_type", mt)
		return Placeholder
	}
	return text
}

func extractPDF(ctx context.Context, data []byte) (string, error) {
	reader, err := model.NewPdfReader(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("failed to read PDF: %w", err)
	}

	numPages, err := reader.GetNumPages()
	if err != nil {
		return "", fmt.Errorf("failed to get page count: %w", err)
	}

	pages := make([]string, 0, numPages)
	for i := 1; i <= numPages; i++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		page, err := reader.GetPage(i)
		if err != nil {
			slog.Debug("skipping unreadable pdf page", "page", i, "error", err)
			continue
		}

		ex, err := extractor.New(page)
		if err != nil {
			slog.Debug("skipping pdf page without extractor", "page", i, "error", err)
			continue
		}

		pageText, err := ex.ExtractText()
		if err != nil {
			slog.Debug("failed to extract pdf page text", "page", i, "error", err)
			continue
		}

		if pageText = strings.TrimSpace(pageText); pageText != "" {
			pages = append(pages, pageText)
		}
	}

	return strings.Join(pages, "\n\n"), nil
}

func extractDocx(data []byte) (string, error) {
	doc, err := docx.ReadDocxFromMemory(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("failed to read DOCX: %w", err)
	}
	defer doc.Close()

	return documentText(doc.Editable().GetContent())
}

// documentText collects the w:t runs of a WordprocessingML body, one line
// per paragraph
func documentText(content string) (string, error) {
	dec := xml.NewDecoder(strings.NewReader(content))

	var b strings.Builder
	inText := false
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("failed to parse document XML: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "t":
				inText = true
			case "tab":
				b.WriteByte('\t')
			case "br":
				b.WriteByte('\n')
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				b.WriteByte('\n')
			}
		case xml.CharData:
			if inText {
				b.Write(t)
			}
		}
	}

	return strings.TrimSpace(b.String()), nil
}

func mediaType(contentType string) string {
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(contentType))
	}
	return mt
}
