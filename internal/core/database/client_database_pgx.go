package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/pgvector/pgvector-go"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/markdave123-py/MindMesh/internal/core"
	"github.com/markdave123-py/MindMesh/internal/core/errs"
	"github.com/markdave123-py/MindMesh/internal/models"
)

type DatabaseClient struct {
	db *sql.DB
}

func NewDatabaseClient(ctx context.Context, databaseURL string) (*DatabaseClient, error) {
	if databaseURL == "" {
		return nil, errs.Configurationf("database URL is empty")
	}

	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)
	db.SetConnMaxIdleTime(10 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}

	if err := EnsureBootstrapped(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("bootstrap: %w", err)
	}

	return &DatabaseClient{db: db}, nil
}

func (c *DatabaseClient) Close() error {
	if c.db != nil {
		return c.db.Close()
	}
	return nil
}

func (c *DatabaseClient) CreateUser(ctx context.Context, user *models.User) error {
	if user == nil {
		return errors.New("nil user")
	}
	const q = `
		INSERT INTO users (id, first_name, email, password_hash, created_at, updated_at)
		VALUES ($1, $2, $3, $4, now(), now())
	`
	_, err := c.db.ExecContext(ctx, q, user.ID, user.FirstName, user.Email, user.PasswordHash)
	return err
}

func (c *DatabaseClient) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	const q = `
		SELECT id, first_name, email, password_hash, created_at, updated_at
		FROM users WHERE email = $1
	`
	var u models.User
	err := c.db.QueryRowContext(ctx, q, email).Scan(
		&u.ID, &u.FirstName, &u.Email, &u.PasswordHash, &u.CreatedAt, &u.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (c *DatabaseClient) CreateDocument(ctx context.Context, doc *models.Document) error {
	if doc == nil {
		return errors.New("nil document")
	}
	const q = `
		INSERT INTO documents
			(id, user_id, title, original_file_name, file_size,
			 source_folder, source_file_name, source_mime_type, status, created_at, updated_at)
		VALUES
			($1, $2, $3, $4, $5, $6, $7, $8, $9, now(), now())
	`
	_, err := c.db.ExecContext(ctx, q,
		doc.ID, doc.UserID, doc.Title, doc.OriginalFileName, doc.FileSize,
		doc.SourceFile.Folder, doc.SourceFile.FileName, doc.SourceFile.MimeType, doc.Status)
	if err != nil {
		return errs.Persistence(err)
	}
	return nil
}

func (c *DatabaseClient) GetDocumentByID(ctx context.Context, id string) (*models.Document, error) {
	const q = `
		SELECT id, user_id, title, original_file_name, file_size,
		       source_folder, source_file_name, source_mime_type,
		       COALESCE(extracted_folder, ''), COALESCE(extracted_file_name, ''), COALESCE(extracted_mime_type, ''),
		       COALESCE(gemini_file_uri, ''), gemini_uri_expires_at,
		       status, created_at, updated_at
		FROM documents
		WHERE id = $1
	`
	var d models.Document
	err := c.db.QueryRowContext(ctx, q, id).Scan(
		&d.ID, &d.UserID, &d.Title, &d.OriginalFileName, &d.FileSize,
		&d.SourceFile.Folder, &d.SourceFile.FileName, &d.SourceFile.MimeType,
		&d.ExtractedText.Folder, &d.ExtractedText.FileName, &d.ExtractedText.MimeType,
		&d.GeminiFileURI, &d.GeminiURIExpires,
		&d.Status, &d.CreatedAt, &d.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, errs.Persistence(err)
	}
	return &d, nil
}

func (c *DatabaseClient) ListDocumentsByUser(ctx context.Context, userID string) ([]models.Document, error) {
	const q = `
		SELECT id, user_id, title, original_file_name, file_size, status, created_at, updated_at
		FROM documents
		WHERE user_id = $1 AND status <> 'deleted'
		ORDER BY created_at DESC
	`
	rows, err := c.db.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, errs.Persistence(err)
	}
	defer rows.Close()

	var out []models.Document
	for rows.Next() {
		var d models.Document
		if err := rows.Scan(
			&d.ID, &d.UserID, &d.Title, &d.OriginalFileName, &d.FileSize, &d.Status, &d.CreatedAt, &d.UpdatedAt,
		); err != nil {
			return nil, errs.Persistence(err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// UpdateDocumentStatus applies a single atomic status flip, guarded by the
// transition table: the UPDATE only matches rows whose current status may
// move to the requested one, so a concurrent or redelivered writer cannot
// regress a settled document.
func (c *DatabaseClient) UpdateDocumentStatus(ctx context.Context, id string, status models.Status) error {
	if !status.Valid() {
		return fmt.Errorf("unknown document status %q", status)
	}
	sources := models.TransitionSources(status)
	if len(sources) == 0 {
		return fmt.Errorf("no status may transition to %q", status)
	}

	// The IN list is built from the transition table's own constants, never
	// caller input.
	quoted := make([]string, len(sources))
	for i, s := range sources {
		quoted[i] = "'" + string(s) + "'"
	}
	q := fmt.Sprintf(`
		UPDATE documents
		SET status = $2, updated_at = now()
		WHERE id = $1 AND status IN (%s)
	`, strings.Join(quoted, ", "))

	res, err := c.db.ExecContext(ctx, q, id, string(status))
	if err != nil {
		return errs.Persistence(err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return fmt.Errorf("document %s not found or may not move to %s", id, status)
	}
	return nil
}

func (c *DatabaseClient) SetExtractedText(ctx context.Context, id string, file models.StoredFile) error {
	const q = `
		UPDATE documents
		SET extracted_folder = $2, extracted_file_name = $3, extracted_mime_type = $4, updated_at = now()
		WHERE id = $1
	`
	res, err := c.db.ExecContext(ctx, q, id, file.Folder, file.FileName, file.MimeType)
	if err != nil {
		return errs.Persistence(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("document not found: %s", id)
	}
	return nil
}

func (c *DatabaseClient) SetGeminiFileURI(ctx context.Context, id, uri string, expires time.Time) error {
	const q = `
		UPDATE documents
		SET gemini_file_uri = $2, gemini_uri_expires_at = $3, updated_at = now()
		WHERE id = $1
	`
	res, err := c.db.ExecContext(ctx, q, id, uri, expires)
	if err != nil {
		return errs.Persistence(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("document not found: %s", id)
	}
	return nil
}

// SoftDeleteDocument marks the document deleted and best-effort drops its
// chunks. The chunk delete failing does not undo the status flip.
func (c *DatabaseClient) SoftDeleteDocument(ctx context.Context, id string) error {
	if err := c.UpdateDocumentStatus(ctx, id, models.StatusDeleted); err != nil {
		return err
	}
	return c.DeleteChunksByDocument(ctx, id)
}

func (c *DatabaseClient) DeleteChunksByDocument(ctx context.Context, documentID string) error {
	const q = `DELETE FROM document_chunks WHERE document_id = $1`
	if _, err := c.db.ExecContext(ctx, q, documentID); err != nil {
		return errs.Persistence(err)
	}
	return nil
}

// InsertDocumentChunks inserts chunks in a single transaction.
func (c *DatabaseClient) InsertDocumentChunks(ctx context.Context, chunks []models.DocumentChunk) error {
	if len(chunks) == 0 {
		return nil
	}
	tx, err := c.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return errs.Persistence(err)
	}

	const q = `
		INSERT INTO document_chunks
			(id, document_id, user_id, content, embedding, chunk_index, page_number, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, now())
	`
	stmt, err := tx.PrepareContext(ctx, q)
	if err != nil {
		_ = tx.Rollback()
		return errs.Persistence(err)
	}
	defer stmt.Close()

	for i := range chunks {
		ch := &chunks[i]
		vec := pgvector.NewVector(ch.Embedding)
		if _, err := stmt.ExecContext(ctx,
			ch.ID, ch.DocumentID, ch.UserID, ch.Content, vec, ch.ChunkIndex, ch.PageNumber,
		); err != nil {
			_ = tx.Rollback()
			return errs.Persistence(err)
		}
	}
	if err := tx.Commit(); err != nil {
		return errs.Persistence(err)
	}
	return nil
}

// SearchDocumentChunks runs the approximate similarity search restricted to
// one {document, user} pair: a cosine-distance candidate pool of size
// candidatePool is narrowed to the topK hits, each annotated with
// 1 - distance as its score.
func (c *DatabaseClient) SearchDocumentChunks(ctx context.Context, documentID, userID string, queryVec []float32, topK, candidatePool int) ([]core.ScoredChunk, error) {
	if topK <= 0 {
		topK = 5
	}
	if candidatePool < topK {
		candidatePool = topK
	}
	const q = `
		SELECT id, document_id, user_id, content, chunk_index, page_number, score
		FROM (
			SELECT id, document_id, user_id, content, chunk_index, page_number,
			       1 - (embedding <=> $3) AS score
			FROM document_chunks
			WHERE document_id = $1 AND user_id = $2
			ORDER BY embedding <=> $3
			LIMIT $4
		) pool
		ORDER BY score DESC
		LIMIT $5
	`
	vec := pgvector.NewVector(queryVec)
	rows, err := c.db.QueryContext(ctx, q, documentID, userID, vec, candidatePool, topK)
	if err != nil {
		return nil, errs.Persistence(err)
	}
	defer rows.Close()

	var out []core.ScoredChunk
	for rows.Next() {
		var sc core.ScoredChunk
		if err := rows.Scan(
			&sc.Chunk.ID, &sc.Chunk.DocumentID, &sc.Chunk.UserID,
			&sc.Chunk.Content, &sc.Chunk.ChunkIndex, &sc.Chunk.PageNumber, &sc.Score,
		); err != nil {
			return nil, errs.Persistence(err)
		}
		out = append(out, sc)
	}
	return out, rows.Err()
}

var _ core.DbClient = (*DatabaseClient)(nil)
