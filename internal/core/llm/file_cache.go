package llm

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/google/generative-ai-go/genai"

	"github.com/markdave123-py/MindMesh/internal/core"
	"github.com/markdave123-py/MindMesh/internal/core/errs"
	"github.com/markdave123-py/MindMesh/internal/models"
)

// FileHandleCache resolves a Gemini file URI for a document's extracted
// text, reusing the handle cached on the document row while it is still
// valid and re-uploading when it is absent or expired. The provider keeps
// uploaded files for roughly 48 hours.
type FileHandleCache struct {
	client *genai.Client
	db     core.DbClient
	obj    core.ObjectClient
}

func NewFileHandleCache(client *genai.Client, db core.DbClient, obj core.ObjectClient) *FileHandleCache {
	return &FileHandleCache{client: client, db: db, obj: obj}
}

var _ core.FileHandleResolver = (*FileHandleCache)(nil)

func (c *FileHandleCache) ResolveFileURI(ctx context.Context, doc *models.Document) (string, time.Time, bool, error) {
	now := time.Now()
	if doc.GeminiURIValid(now) {
		return doc.GeminiFileURI, *doc.GeminiURIExpires, false, nil
	}

	if !doc.HasExtractedText() {
		return "", time.Time{}, false, errs.Configurationf("document %s has no extracted text artifact", doc.ID)
	}

	data, err := c.obj.GetFile(ctx, doc.ExtractedText.Folder, doc.ExtractedText.FileName)
	if err != nil {
		return "", time.Time{}, false, errs.Persistence(fmt.Errorf("read extracted text: %w", err))
	}

	file, err := c.client.UploadFile(ctx, "", bytes.NewReader(data), &genai.UploadFileOptions{
		MIMEType:    doc.ExtractedText.MimeType,
		DisplayName: doc.ExtractedText.FileName,
	})
	if err != nil {
		return "", time.Time{}, false, ClassifyProviderError(fmt.Errorf("gemini upload file: %w", err))
	}

	if err := c.db.SetGeminiFileURI(ctx, doc.ID, file.URI, file.ExpirationTime); err != nil {
		return "", time.Time{}, false, errs.Persistence(fmt.Errorf("persist file handle: %w", err))
	}

	return file.URI, file.ExpirationTime, true, nil
}
