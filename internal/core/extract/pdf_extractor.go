// Package extract turns raw document bytes into page-segmented plain text.
package extract

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/markdave123-py/MindMesh/internal/core"
	"github.com/markdave123-py/MindMesh/internal/core/errs"
)

// PDFExtractor reads text fragments page by page, preserving page
// boundaries. Parse failures are fatal to the ingestion run; PDF corruption
// is not transient and is never retried.
type PDFExtractor struct{}

func NewPDFExtractor() *PDFExtractor {
	return &PDFExtractor{}
}

var _ core.DocumentExtractor = (*PDFExtractor)(nil)

func (e *PDFExtractor) Extract(ctx context.Context, data []byte, mimeType string) (result *core.ExtractedDocument, err error) {
	// The pdf library panics on some malformed inputs.
	defer func() {
		if r := recover(); r != nil {
			result = nil
			err = errs.Extraction(fmt.Errorf("pdf parse panic: %v", r))
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, errs.Extraction(fmt.Errorf("open pdf: %w", err))
	}

	numPages := reader.NumPage()
	pages := make([]string, 0, numPages)

	for i := 1; i <= numPages; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		page := reader.Page(i)
		if page.V.IsNull() {
			pages = append(pages, "")
			continue
		}
		pages = append(pages, assemblePage(page.Content().Text))
	}

	return &core.ExtractedDocument{
		FullText:  strings.Join(pages, "\n"),
		PageTexts: pages,
		PageCount: numPages,
		Metadata:  readInfo(reader),
	}, nil
}

// assemblePage concatenates fragments in document order. Fragments sharing a
// vertical offset belong to one line; a changed offset starts a new line.
func assemblePage(fragments []pdf.Text) string {
	var b strings.Builder
	var lastY float64
	for i, frag := range fragments {
		if i > 0 && frag.Y != lastY {
			b.WriteByte('\n')
		}
		b.WriteString(frag.S)
		lastY = frag.Y
	}
	return b.String()
}

func readInfo(reader *pdf.Reader) map[string]string {
	meta := make(map[string]string)
	info := reader.Trailer().Key("Info")
	if info.IsNull() {
		return meta
	}
	for _, key := range []string{"Title", "Author", "Producer"} {
		if v := info.Key(key); v.Kind() == pdf.String {
			if s := strings.TrimSpace(v.Text()); s != "" {
				meta[strings.ToLower(key)] = s
			}
		}
	}
	return meta
}
