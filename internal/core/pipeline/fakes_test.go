package pipeline

import (
	"context"
	"sync"
	"time"

	"github.com/markdave123-py/MindMesh/internal/core"
	"github.com/markdave123-py/MindMesh/internal/models"
)

// fakeDB records the persistence calls the pipeline makes.
type fakeDB struct {
	mu sync.Mutex

	docs          map[string]*models.Document
	inserted      [][]models.DocumentChunk
	statusUpdates []models.Status
	extractedSet  []models.StoredFile
	insertErr     error
}

func newFakeDB(docs ...*models.Document) *fakeDB {
	f := &fakeDB{docs: make(map[string]*models.Document)}
	for _, d := range docs {
		f.docs[d.ID] = d
	}
	return f
}

func (f *fakeDB) CreateUser(ctx context.Context, user *models.User) error { return nil }
func (f *fakeDB) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return nil, nil
}

func (f *fakeDB) CreateDocument(ctx context.Context, doc *models.Document) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.docs[doc.ID] = doc
	return nil
}

func (f *fakeDB) GetDocumentByID(ctx context.Context, id string) (*models.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.docs[id], nil
}

func (f *fakeDB) ListDocumentsByUser(ctx context.Context, userID string) ([]models.Document, error) {
	return nil, nil
}

func (f *fakeDB) UpdateDocumentStatus(ctx context.Context, id string, status models.Status) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statusUpdates = append(f.statusUpdates, status)
	if d, ok := f.docs[id]; ok {
		d.Status = status
	}
	return nil
}

func (f *fakeDB) SetExtractedText(ctx context.Context, id string, file models.StoredFile) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.extractedSet = append(f.extractedSet, file)
	return nil
}

func (f *fakeDB) SetGeminiFileURI(ctx context.Context, id, uri string, expires time.Time) error {
	return nil
}

func (f *fakeDB) SoftDeleteDocument(ctx context.Context, id string) error { return nil }

func (f *fakeDB) InsertDocumentChunks(ctx context.Context, chunks []models.DocumentChunk) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.insertErr != nil {
		return f.insertErr
	}
	f.inserted = append(f.inserted, chunks)
	return nil
}

func (f *fakeDB) DeleteChunksByDocument(ctx context.Context, documentID string) error { return nil }

func (f *fakeDB) SearchDocumentChunks(ctx context.Context, documentID, userID string, queryVec []float32, topK, candidatePool int) ([]core.ScoredChunk, error) {
	return nil, nil
}

func (f *fakeDB) Close() error { return nil }

func (f *fakeDB) insertedChunks() []models.DocumentChunk {
	f.mu.Lock()
	defer f.mu.Unlock()
	var all []models.DocumentChunk
	for _, batch := range f.inserted {
		all = append(all, batch...)
	}
	return all
}

// fakeEmbedder fails scripted texts a scripted number of times with a
// scripted error, then succeeds. Unscripted texts succeed immediately.
type fakeEmbedder struct {
	mu       sync.Mutex
	failWith map[string]error
	failMax  map[string]int
	attempts map[string]int
	dim      int
}

func newFakeEmbedder() *fakeEmbedder {
	return &fakeEmbedder{
		failWith: make(map[string]error),
		failMax:  make(map[string]int),
		attempts: make(map[string]int),
		dim:      4,
	}
}

// failTimes makes the given text fail with err for its first n attempts.
// n < 0 means it fails forever.
func (f *fakeEmbedder) failTimes(text string, n int, err error) {
	f.failWith[text] = err
	f.failMax[text] = n
}

func (f *fakeEmbedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.attempts[text]++
	if err, ok := f.failWith[text]; ok {
		max := f.failMax[text]
		if max < 0 || f.attempts[text] <= max {
			return nil, err
		}
	}
	return make([]float32, f.dim), nil
}

func (f *fakeEmbedder) Dimension() int { return f.dim }

func (f *fakeEmbedder) attemptsFor(text string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.attempts[text]
}

// fakeObjectStore keeps objects in a map keyed by folder/fileName.
type fakeObjectStore struct {
	mu      sync.Mutex
	objects map[string][]byte
	getErr  error
}

func newFakeObjectStore() *fakeObjectStore {
	return &fakeObjectStore{objects: make(map[string][]byte)}
}

func (f *fakeObjectStore) key(folder, fileName string) string { return folder + "/" + fileName }

func (f *fakeObjectStore) PutFile(ctx context.Context, folder, fileName string, data []byte, mimeType string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[f.key(folder, fileName)] = data
	return nil
}

func (f *fakeObjectStore) GetFile(ctx context.Context, folder, fileName string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.objects[f.key(folder, fileName)], nil
}

func (f *fakeObjectStore) DeleteFile(ctx context.Context, folder, fileName string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.objects, f.key(folder, fileName))
	return nil
}

// fakeExtractor returns canned pages without touching real document bytes.
type fakeExtractor struct {
	doc *core.ExtractedDocument
	err error
}

func (f *fakeExtractor) Extract(ctx context.Context, data []byte, mimeType string) (*core.ExtractedDocument, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.doc, nil
}
