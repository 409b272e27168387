package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/markdave123-py/MindMesh/internal/core"
	"github.com/markdave123-py/MindMesh/internal/core/pipeline"
	"github.com/markdave123-py/MindMesh/internal/models"
)

var (
	ErrDocumentNotFound = errors.New("document not found")
	ErrUnsupportedType  = errors.New("unsupported file type")
)

type DocumentService struct {
	db       core.DbClient
	obj      core.ObjectClient
	ingestor *pipeline.DocumentIngestor
	bucket   string
	logger   *slog.Logger
}

func NewDocumentService(db core.DbClient, obj core.ObjectClient, ingestor *pipeline.DocumentIngestor, bucket string, logger *slog.Logger) *DocumentService {
	return &DocumentService{db: db, obj: obj, ingestor: ingestor, bucket: bucket, logger: logger}
}

// supportedUploadTypes are the formats the extractors can handle; PDFs get
// page-segmented extraction, everything else goes through the docconv
// fallback and is chunked without page structure.
var supportedUploadTypes = map[string]bool{
	"application/pdf":    true,
	"text/plain":         true,
	"text/html":          true,
	"application/msword": true,
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": true,
	"application/vnd.oasis.opendocument.text":                                 true,
	"application/rtf":                                                         true,
}

// Upload stores the raw document and registers it, then hands the object
// key to the ingestion queue. The document is created as uploading and
// flipped to processing once the bytes are in the bucket, so a crash
// between the two leaves an honest record behind.
func (s *DocumentService) Upload(ctx context.Context, userID, title, fileName string, data []byte, mimeType string) (*models.Document, error) {
	if !supportedUploadTypes[mimeType] {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedType, mimeType)
	}

	docID := uuid.NewString()
	cleanName := filepath.Base(fileName)
	if title == "" {
		title = cleanName
	}

	source := models.StoredFile{
		Folder:   pipeline.DocumentsFolder + "/" + userID,
		FileName: fmt.Sprintf("%s_%s", docID, cleanName),
		MimeType: mimeType,
	}
	// The stored key must survive the ingestion trigger filter, or the
	// document would sit in processing forever.
	if !pipeline.MatchesTrigger(source.Folder + "/" + source.FileName) {
		return nil, fmt.Errorf("%w: unrecognized file extension on %s", ErrUnsupportedType, cleanName)
	}

	now := time.Now()
	doc := &models.Document{
		ID:               docID,
		UserID:           userID,
		Title:            title,
		OriginalFileName: cleanName,
		FileSize:         int64(len(data)),
		SourceFile:       source,
		Status:           models.StatusUploading,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := s.db.CreateDocument(ctx, doc); err != nil {
		return nil, err
	}

	if err := s.obj.PutFile(ctx, source.Folder, source.FileName, data, mimeType); err != nil {
		if statusErr := s.db.UpdateDocumentStatus(ctx, docID, models.StatusFailed); statusErr != nil {
			s.logger.Error("could not mark document failed after upload error", "document_id", docID, "error", statusErr)
		}
		return nil, fmt.Errorf("store source object: %w", err)
	}

	if err := s.db.UpdateDocumentStatus(ctx, docID, models.StatusProcessing); err != nil {
		return nil, err
	}
	doc.Status = models.StatusProcessing

	s.ingestor.Enqueue(pipeline.IngestJob{
		Bucket: s.bucket,
		Key:    source.Folder + "/" + source.FileName,
	})
	s.logger.Info("document queued for ingestion", "document_id", docID, "user_id", userID, "size", doc.FileSize)

	return doc, nil
}

// Get returns a document only to its owner. Deleted documents behave as if
// they never existed.
func (s *DocumentService) Get(ctx context.Context, userID, docID string) (*models.Document, error) {
	doc, err := s.db.GetDocumentByID(ctx, docID)
	if err != nil {
		return nil, err
	}
	if doc == nil || doc.UserID != userID || doc.Status == models.StatusDeleted {
		return nil, ErrDocumentNotFound
	}
	return doc, nil
}

func (s *DocumentService) List(ctx context.Context, userID string) ([]models.Document, error) {
	return s.db.ListDocumentsByUser(ctx, userID)
}

// Delete soft-deletes the document and drops its stored objects. Object
// removal is best effort; the status flip is what hides the document.
func (s *DocumentService) Delete(ctx context.Context, userID, docID string) error {
	doc, err := s.Get(ctx, userID, docID)
	if err != nil {
		return err
	}

	if err := s.db.SoftDeleteDocument(ctx, doc.ID); err != nil {
		return err
	}

	if err := s.obj.DeleteFile(ctx, doc.SourceFile.Folder, doc.SourceFile.FileName); err != nil {
		s.logger.Warn("source object cleanup failed", "document_id", doc.ID, "error", err)
	}
	if doc.HasExtractedText() {
		if err := s.obj.DeleteFile(ctx, doc.ExtractedText.Folder, doc.ExtractedText.FileName); err != nil {
			s.logger.Warn("extracted text cleanup failed", "document_id", doc.ID, "error", err)
		}
	}
	return nil
}
