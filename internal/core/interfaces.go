package core

import (
	"context"
	"time"

	"github.com/markdave123-py/MindMesh/internal/models"
)

// EmbeddingProvider turns text into a fixed-dimension vector.
type EmbeddingProvider interface {
	EmbedText(ctx context.Context, text string) ([]float32, error)
	// Dimension is the vector length every embedding must have.
	Dimension() int
}

// LLMProvider generates free text from an assembled context.
type LLMProvider interface {
	ChatWithContext(ctx context.Context, contextText, question string) (string, error)
	ExplainConcept(ctx context.Context, contextText, concept string) (string, error)
	SummarizeFile(ctx context.Context, mimeType, fileURI string) (string, error)
}

// FileHandleResolver returns a provider-side URI for a stored artifact,
// reusing a cached handle when it has not expired.
type FileHandleResolver interface {
	ResolveFileURI(ctx context.Context, doc *models.Document) (uri string, expires time.Time, refreshed bool, err error)
}

// DocumentExtractor turns raw document bytes into page-segmented text.
type DocumentExtractor interface {
	Extract(ctx context.Context, data []byte, mimeType string) (*ExtractedDocument, error)
}

// ExtractedDocument is the extractor output. PageTexts preserves document
// order; it is empty when the source format has no page structure, in which
// case FullText is the chunker's fallback input.
type ExtractedDocument struct {
	FullText  string
	PageTexts []string
	PageCount int
	Metadata  map[string]string
}

// DbClient defines all persistence operations the services need.
// It abstracts Postgres/pgvector so higher layers never depend on a specific DB.
type DbClient interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)

	CreateDocument(ctx context.Context, doc *models.Document) error
	GetDocumentByID(ctx context.Context, id string) (*models.Document, error)
	ListDocumentsByUser(ctx context.Context, userID string) ([]models.Document, error)
	UpdateDocumentStatus(ctx context.Context, id string, status models.Status) error
	SetExtractedText(ctx context.Context, id string, file models.StoredFile) error
	SetGeminiFileURI(ctx context.Context, id, uri string, expires time.Time) error
	SoftDeleteDocument(ctx context.Context, id string) error

	InsertDocumentChunks(ctx context.Context, chunks []models.DocumentChunk) error
	DeleteChunksByDocument(ctx context.Context, documentID string) error
	SearchDocumentChunks(ctx context.Context, documentID, userID string, queryVec []float32, topK, candidatePool int) ([]ScoredChunk, error)

	Close() error
}

// ScoredChunk is one similarity-search hit.
type ScoredChunk struct {
	Chunk models.DocumentChunk
	Score float64
}

// ObjectClient defines interactions with S3 or any object storage.
type ObjectClient interface {
	PutFile(ctx context.Context, folder, fileName string, data []byte, mimeType string) error
	GetFile(ctx context.Context, folder, fileName string) ([]byte, error)
	DeleteFile(ctx context.Context, folder, fileName string) error
}
