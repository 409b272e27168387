package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/markdave123-py/MindMesh/internal/core"
	"github.com/markdave123-py/MindMesh/internal/core/errs"
	"github.com/markdave123-py/MindMesh/internal/models"
)

func testDocument(id, userID string) *models.Document {
	return &models.Document{
		ID:               id,
		UserID:           userID,
		Title:            "notes",
		OriginalFileName: "notes.pdf",
		SourceFile: models.StoredFile{
			Folder:   DocumentsFolder + "/" + userID,
			FileName: id + "_notes.pdf",
			MimeType: "application/pdf",
		},
		Status: models.StatusProcessing,
	}
}

func newTestIngestor(db *fakeDB, obj *fakeObjectStore, extractor core.DocumentExtractor, cfg Config) *DocumentIngestor {
	batcher := NewBatchProcessor(db, newFakeEmbedder(), testPolicy(), discardLogger())
	ing := NewDocumentIngestor(db, obj, batcher, cfg, discardLogger())
	ing.extractorFor = func(string) core.DocumentExtractor { return extractor }
	return ing
}

func TestMatchesTrigger(t *testing.T) {
	assert.True(t, MatchesTrigger("documents/u1/d1_notes.pdf"))
	assert.True(t, MatchesTrigger("documents/u1/d1_notes.txt"))
	assert.True(t, MatchesTrigger("documents/u1/d1_thesis.docx"))
	assert.True(t, MatchesTrigger("documents/u1/d1_REPORT.PDF"))
	assert.False(t, MatchesTrigger("documents/u1/d1_photo.png"))
	assert.False(t, MatchesTrigger("extracted-text/d1_123.txt"))
	assert.False(t, MatchesTrigger("uploads/u1/d1_notes.pdf"))
}

func TestDocumentIDFromKey(t *testing.T) {
	id := uuid.NewString()

	got, err := DocumentIDFromKey(fmt.Sprintf("documents/u1/%s_my_notes.pdf", id))
	require.NoError(t, err)
	assert.Equal(t, id, got)

	_, err = DocumentIDFromKey("documents/u1/no-separator.pdf")
	assert.Error(t, err)

	_, err = DocumentIDFromKey("documents/u1/not-a-uuid_file.pdf")
	assert.Error(t, err)
}

func TestProcessObjectHappyPath(t *testing.T) {
	docID := uuid.NewString()
	userID := uuid.NewString()
	doc := testDocument(docID, userID)

	db := newFakeDB(doc)
	obj := newFakeObjectStore()
	obj.objects[doc.SourceFile.Folder+"/"+doc.SourceFile.FileName] = []byte("%PDF-1.4 raw bytes")

	extractor := &fakeExtractor{doc: &core.ExtractedDocument{
		FullText:  "one two three four five six seven eight",
		PageTexts: []string{"one two three four", "five six seven eight"},
		PageCount: 2,
	}}
	ing := newTestIngestor(db, obj, extractor, Config{ChunkSize: 3, Overlap: 1, BatchSize: 2})

	err := ing.ProcessObject(context.Background(), "bucket", doc.SourceFile.Folder+"/"+doc.SourceFile.FileName)
	require.NoError(t, err)

	// The plain-text artifact is uploaded and recorded before the flip to ready.
	require.Len(t, db.extractedSet, 1)
	artifact := db.extractedSet[0]
	assert.Equal(t, ExtractedTextFolder, artifact.Folder)
	assert.True(t, strings.HasPrefix(artifact.FileName, docID+"_"))
	assert.True(t, strings.HasSuffix(artifact.FileName, ".txt"))
	assert.Equal(t, extractor.doc.FullText, string(obj.objects[artifact.Folder+"/"+artifact.FileName]))

	require.NotEmpty(t, db.statusUpdates)
	assert.Equal(t, models.StatusReady, db.statusUpdates[len(db.statusUpdates)-1])

	rows := db.insertedChunks()
	require.NotEmpty(t, rows)
	for i, row := range rows {
		assert.Equal(t, docID, row.DocumentID)
		assert.Equal(t, userID, row.UserID)
		assert.Equal(t, i, row.ChunkIndex)
	}
	pages := map[int]bool{}
	for _, row := range rows {
		pages[row.PageNumber] = true
	}
	assert.True(t, pages[1])
	assert.True(t, pages[2])
}

func TestProcessObjectExtractionFailureMarksFailed(t *testing.T) {
	docID := uuid.NewString()
	doc := testDocument(docID, uuid.NewString())

	db := newFakeDB(doc)
	obj := newFakeObjectStore()
	obj.objects[doc.SourceFile.Folder+"/"+doc.SourceFile.FileName] = []byte("not a pdf")

	extractor := &fakeExtractor{err: errs.Extraction(errors.New("malformed xref table"))}
	ing := newTestIngestor(db, obj, extractor, Config{})

	err := ing.ProcessObject(context.Background(), "bucket", doc.SourceFile.Folder+"/"+doc.SourceFile.FileName)
	require.Error(t, err)
	assert.ErrorIs(t, err, errs.ErrExtraction)

	// No chunk work happened; the document is failed, never ready.
	assert.Empty(t, db.insertedChunks())
	require.NotEmpty(t, db.statusUpdates)
	assert.Equal(t, models.StatusFailed, db.statusUpdates[len(db.statusUpdates)-1])
	assert.NotContains(t, db.statusUpdates, models.StatusReady)
}

func TestProcessObjectIgnoresForeignKeys(t *testing.T) {
	db := newFakeDB()
	ing := newTestIngestor(db, newFakeObjectStore(), &fakeExtractor{}, Config{})

	err := ing.ProcessObject(context.Background(), "bucket", "avatars/u1/pic.png")
	require.NoError(t, err)
	assert.Empty(t, db.statusUpdates)
}

func TestProcessObjectSkipsSettledDocuments(t *testing.T) {
	for _, status := range []models.Status{models.StatusReady, models.StatusFailed, models.StatusDeleted} {
		t.Run(string(status), func(t *testing.T) {
			docID := uuid.NewString()
			doc := testDocument(docID, uuid.NewString())
			doc.Status = status

			db := newFakeDB(doc)
			ing := newTestIngestor(db, newFakeObjectStore(), &fakeExtractor{}, Config{})

			err := ing.ProcessObject(context.Background(), "bucket", doc.SourceFile.Folder+"/"+doc.SourceFile.FileName)
			require.NoError(t, err)
			assert.Empty(t, db.statusUpdates)
			assert.Empty(t, db.insertedChunks())
			assert.Equal(t, status, doc.Status)
		})
	}
}

func TestRedeliveredTriggerCannotRegressReadyDocument(t *testing.T) {
	docID := uuid.NewString()
	doc := testDocument(docID, uuid.NewString())
	doc.Status = models.StatusReady

	db := newFakeDB(doc)
	obj := newFakeObjectStore()
	obj.objects[doc.SourceFile.Folder+"/"+doc.SourceFile.FileName] = []byte("pdf")

	// Even if the re-run would fail, a ready document must not flip to failed.
	extractor := &fakeExtractor{err: errs.Extraction(errors.New("malformed xref table"))}
	ing := newTestIngestor(db, obj, extractor, Config{})

	err := ing.ProcessObject(context.Background(), "bucket", doc.SourceFile.Folder+"/"+doc.SourceFile.FileName)
	require.NoError(t, err)
	assert.Equal(t, models.StatusReady, doc.Status)
	assert.NotContains(t, db.statusUpdates, models.StatusFailed)
}

func TestProcessObjectUnknownDocument(t *testing.T) {
	db := newFakeDB()
	ing := newTestIngestor(db, newFakeObjectStore(), &fakeExtractor{}, Config{})

	key := fmt.Sprintf("documents/u1/%s_ghost.pdf", uuid.NewString())
	err := ing.ProcessObject(context.Background(), "bucket", key)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestProcessObjectFailOnPartial(t *testing.T) {
	docID := uuid.NewString()
	doc := testDocument(docID, uuid.NewString())

	db := newFakeDB(doc)
	obj := newFakeObjectStore()
	obj.objects[doc.SourceFile.Folder+"/"+doc.SourceFile.FileName] = []byte("pdf")

	extractor := &fakeExtractor{doc: &core.ExtractedDocument{
		FullText:  "alpha beta gamma delta",
		PageTexts: []string{"alpha beta", "gamma delta"},
		PageCount: 2,
	}}

	emb := newFakeEmbedder()
	emb.failTimes("gamma delta", -1, errs.Permanent(errors.New("status 400")))
	batcher := NewBatchProcessor(db, emb, testPolicy(), discardLogger())
	ing := NewDocumentIngestor(db, obj, batcher, Config{ChunkSize: 2, Overlap: 0, FailOnPartial: true}, discardLogger())
	ing.extractorFor = func(string) core.DocumentExtractor { return extractor }

	err := ing.ProcessObject(context.Background(), "bucket", doc.SourceFile.Folder+"/"+doc.SourceFile.FileName)
	require.Error(t, err)
	assert.Equal(t, models.StatusFailed, db.statusUpdates[len(db.statusUpdates)-1])
}
