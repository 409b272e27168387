package extract

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"code.sajari.com/docconv"

	"github.com/markdave123-py/MindMesh/internal/core"
	"github.com/markdave123-py/MindMesh/internal/core/errs"
)

// DocconvExtractor handles non-PDF uploads (docx, html, plain text). It has
// no page structure, so the chunker runs on FullText with pageNumber 1.
type DocconvExtractor struct {
	useReadability bool
}

func NewDocconvExtractor(useReadability bool) *DocconvExtractor {
	return &DocconvExtractor{useReadability: useReadability}
}

var _ core.DocumentExtractor = (*DocconvExtractor)(nil)

func (e *DocconvExtractor) Extract(ctx context.Context, data []byte, mimeType string) (*core.ExtractedDocument, error) {
	res, err := docconv.Convert(bytes.NewReader(data), mimeType, e.useReadability)
	if err != nil {
		return nil, errs.Extraction(fmt.Errorf("docconv %s: %w", mimeType, err))
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	text := strings.TrimSpace(res.Body)
	if text == "" {
		return nil, errs.Extraction(fmt.Errorf("docconv %s: empty text", mimeType))
	}

	return &core.ExtractedDocument{
		FullText: text,
		Metadata: res.Meta,
	}, nil
}

// ForMimeType picks the extractor for an upload's content type.
func ForMimeType(mimeType string) core.DocumentExtractor {
	if mimeType == "application/pdf" {
		return NewPDFExtractor()
	}
	return NewDocconvExtractor(false)
}
