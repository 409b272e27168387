package models

import (
	"time"
)

// User represents an authenticated user of the system.
type User struct {
	ID           string    `db:"id" json:"id"`
	FirstName    string    `db:"first_name" json:"first_name"`
	Email        string    `db:"email" json:"email"`
	PasswordHash string    `db:"password" json:"-"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// StoredFile points at an object in the bucket.
type StoredFile struct {
	Folder   string `json:"folder"`
	FileName string `json:"file_name"`
	MimeType string `json:"mime_type"`
}

// Document represents a user-uploaded PDF and its processing state.
//
// SourceFile is set at upload intake. ExtractedText is set only once the
// ingestion run has uploaded the plain-text artifact (status=ready).
// GeminiFileURI caches the provider-side file handle so generation calls
// don't re-upload the extracted text; the handle expires after ~48h.
type Document struct {
	ID               string     `db:"id" json:"id"`
	UserID           string     `db:"user_id" json:"user_id"`
	Title            string     `db:"title" json:"title"`
	OriginalFileName string     `db:"original_file_name" json:"original_file_name"`
	FileSize         int64      `db:"file_size" json:"file_size"`
	SourceFile       StoredFile `json:"source_file"`
	ExtractedText    StoredFile `json:"extracted_text"`
	GeminiFileURI    string     `db:"gemini_file_uri" json:"-"`
	GeminiURIExpires *time.Time `db:"gemini_uri_expires_at" json:"-"`
	Status           Status     `db:"status" json:"status"`
	CreatedAt        time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time  `db:"updated_at" json:"updated_at"`
}

// HasExtractedText reports whether the plain-text artifact pointer is set.
func (d *Document) HasExtractedText() bool {
	return d.ExtractedText.Folder != "" && d.ExtractedText.FileName != ""
}

// GeminiURIValid reports whether the cached file handle can still be used.
func (d *Document) GeminiURIValid(now time.Time) bool {
	return d.GeminiFileURI != "" && d.GeminiURIExpires != nil && d.GeminiURIExpires.After(now)
}

// DocumentChunk is one embedded span of extracted text, the unit of retrieval.
// Rows are append-only: created by the batch processor, never updated.
type DocumentChunk struct {
	ID         string    `db:"id" json:"id"`
	DocumentID string    `db:"document_id" json:"document_id"`
	UserID     string    `db:"user_id" json:"user_id"`
	Content    string    `db:"content" json:"content"`
	Embedding  []float32 `db:"embedding" json:"-"`
	ChunkIndex int       `db:"chunk_index" json:"chunk_index"`
	PageNumber int       `db:"page_number" json:"page_number"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// ChunkCandidate is a chunk before embedding. It exists only in memory
// during one ingestion run.
type ChunkCandidate struct {
	Content    string
	ChunkIndex int
	PageNumber int
}
