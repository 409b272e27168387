package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/markdave123-py/MindMesh/internal/core"
	"github.com/markdave123-py/MindMesh/internal/models"
)

func discardLogger() *slog.Logger { return slog.New(slog.DiscardHandler) }

type fakeDB struct {
	users map[string]*models.User
	docs  map[string]*models.Document

	statusUpdates map[string][]models.Status
	softDeleted   []string
	createErr     error

	searchHits []core.ScoredChunk
	searchErr  error
}

func newFakeDB() *fakeDB {
	return &fakeDB{
		users:         make(map[string]*models.User),
		docs:          make(map[string]*models.Document),
		statusUpdates: make(map[string][]models.Status),
	}
}

func (f *fakeDB) CreateUser(ctx context.Context, user *models.User) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.users[user.Email] = user
	return nil
}

func (f *fakeDB) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return f.users[email], nil
}

func (f *fakeDB) CreateDocument(ctx context.Context, doc *models.Document) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.docs[doc.ID] = doc
	return nil
}

func (f *fakeDB) GetDocumentByID(ctx context.Context, id string) (*models.Document, error) {
	return f.docs[id], nil
}

func (f *fakeDB) ListDocumentsByUser(ctx context.Context, userID string) ([]models.Document, error) {
	var out []models.Document
	for _, d := range f.docs {
		if d.UserID == userID && d.Status != models.StatusDeleted {
			out = append(out, *d)
		}
	}
	return out, nil
}

func (f *fakeDB) UpdateDocumentStatus(ctx context.Context, id string, status models.Status) error {
	f.statusUpdates[id] = append(f.statusUpdates[id], status)
	if d, ok := f.docs[id]; ok {
		d.Status = status
	}
	return nil
}

func (f *fakeDB) SetExtractedText(ctx context.Context, id string, file models.StoredFile) error {
	if d, ok := f.docs[id]; ok {
		d.ExtractedText = file
	}
	return nil
}

func (f *fakeDB) SetGeminiFileURI(ctx context.Context, id, uri string, expires time.Time) error {
	return nil
}

func (f *fakeDB) SoftDeleteDocument(ctx context.Context, id string) error {
	f.softDeleted = append(f.softDeleted, id)
	if d, ok := f.docs[id]; ok {
		d.Status = models.StatusDeleted
	}
	return nil
}

func (f *fakeDB) InsertDocumentChunks(ctx context.Context, chunks []models.DocumentChunk) error {
	return nil
}

func (f *fakeDB) DeleteChunksByDocument(ctx context.Context, documentID string) error { return nil }

func (f *fakeDB) SearchDocumentChunks(ctx context.Context, documentID, userID string, queryVec []float32, topK, candidatePool int) ([]core.ScoredChunk, error) {
	return f.searchHits, f.searchErr
}

func (f *fakeDB) Close() error { return nil }

type fakeObjectStore struct {
	objects map[string][]byte
	deleted []string
	putErr  error
}

func newFakeObjectStore() *fakeObjectStore {
	return &fakeObjectStore{objects: make(map[string][]byte)}
}

func (f *fakeObjectStore) PutFile(ctx context.Context, folder, fileName string, data []byte, mimeType string) error {
	if f.putErr != nil {
		return f.putErr
	}
	f.objects[folder+"/"+fileName] = data
	return nil
}

func (f *fakeObjectStore) GetFile(ctx context.Context, folder, fileName string) ([]byte, error) {
	return f.objects[folder+"/"+fileName], nil
}

func (f *fakeObjectStore) DeleteFile(ctx context.Context, folder, fileName string) error {
	f.deleted = append(f.deleted, folder+"/"+fileName)
	delete(f.objects, folder+"/"+fileName)
	return nil
}

type fakeEmbedder struct{ vec []float32 }

func (f *fakeEmbedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	return f.vec, nil
}

func (f *fakeEmbedder) Dimension() int { return len(f.vec) }

type fakeLLM struct {
	lastContext string
	lastPrompt  string
	reply       string
	err         error
}

func (f *fakeLLM) ChatWithContext(ctx context.Context, contextText, question string) (string, error) {
	f.lastContext, f.lastPrompt = contextText, question
	return f.reply, f.err
}

func (f *fakeLLM) ExplainConcept(ctx context.Context, contextText, concept string) (string, error) {
	f.lastContext, f.lastPrompt = contextText, concept
	return f.reply, f.err
}

func (f *fakeLLM) SummarizeFile(ctx context.Context, mimeType, fileURI string) (string, error) {
	f.lastContext, f.lastPrompt = mimeType, fileURI
	return f.reply, f.err
}

type fakeResolver struct {
	uri       string
	refreshed bool
	err       error
}

func (f *fakeResolver) ResolveFileURI(ctx context.Context, doc *models.Document) (string, time.Time, bool, error) {
	return f.uri, time.Now().Add(48 * time.Hour), f.refreshed, f.err
}
