// Package pipeline runs the ingestion flow for one uploaded document:
// fetch -> extract -> chunk -> embed in batches -> persist, driving the
// document status state machine to ready or failed.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/markdave123-py/MindMesh/internal/core"
	"github.com/markdave123-py/MindMesh/internal/core/chunker"
	"github.com/markdave123-py/MindMesh/internal/core/extract"
	"github.com/markdave123-py/MindMesh/internal/models"
)

const (
	DocumentsFolder     = "documents"
	ExtractedTextFolder = "extracted-text"
	DefaultBatchSize    = 300
)

// Config tunes one ingestion run.
type Config struct {
	ChunkSize int
	Overlap   int
	BatchSize int

	// FailOnPartial marks the document failed when any chunk in an
	// otherwise successful run could not be embedded. Off by default: the
	// observed behavior is best-effort, surfaced only through counts.
	FailOnPartial bool
}

func (c Config) withDefaults() Config {
	if c.ChunkSize <= 0 {
		c.ChunkSize = chunker.DefaultChunkSize
	}
	if c.Overlap < 0 || c.Overlap >= c.ChunkSize {
		c.Overlap = chunker.DefaultOverlap
	}
	if c.BatchSize <= 0 {
		c.BatchSize = DefaultBatchSize
	}
	return c
}

// IngestJob is one "object created" trigger. Delivery is at-least-once; a
// trigger redelivered while the document is still processing re-ingests and
// appends a fresh generation of chunks, while one arriving after the
// document has settled is dropped.
type IngestJob struct {
	Bucket string
	Key    string
}

// DocumentIngestor consumes ingest jobs from a bounded queue. Each run is an
// independent short-lived unit of work; batches within a run are sequential,
// embedding inside a batch is the only fan-out point.
type DocumentIngestor struct {
	db      core.DbClient
	obj     core.ObjectClient
	batcher *BatchProcessor
	cfg     Config
	logger  *slog.Logger
	jobs    chan IngestJob

	// extractorFor overrides extractor selection; nil means extract.ForMimeType.
	extractorFor func(mimeType string) core.DocumentExtractor
}

func NewDocumentIngestor(db core.DbClient, obj core.ObjectClient, batcher *BatchProcessor, cfg Config, logger *slog.Logger) *DocumentIngestor {
	return &DocumentIngestor{
		db:      db,
		obj:     obj,
		batcher: batcher,
		cfg:     cfg.withDefaults(),
		logger:  logger,
		jobs:    make(chan IngestJob, 64),
	}
}

// Start runs worker goroutines reading from the jobs channel.
func (i *DocumentIngestor) Start(ctx context.Context, numWorkers int) {
	if numWorkers <= 0 {
		numWorkers = 1
	}
	for w := 1; w <= numWorkers; w++ {
		go func(w int) {
			for {
				select {
				case <-ctx.Done():
					i.logger.Info("ingest worker shutting down", "worker", w)
					return
				case job := <-i.jobs:
					if err := i.ProcessObject(ctx, job.Bucket, job.Key); err != nil {
						i.logger.Error("ingestion run failed", "worker", w, "key", job.Key, "error", err)
					}
				}
			}
		}(w)
	}
}

// Enqueue schedules a trigger for ingestion. Blocks when the queue is full.
func (i *DocumentIngestor) Enqueue(job IngestJob) {
	i.jobs <- job
}

// triggerSuffixes are the document formats the extractors handle: PDF goes
// through the page-aware extractor, the rest through the docconv fallback.
var triggerSuffixes = []string{".pdf", ".txt", ".html", ".doc", ".docx", ".odt", ".rtf"}

// MatchesTrigger reports whether an object key is one the pipeline ingests:
// a supported document format under the documents prefix.
func MatchesTrigger(key string) bool {
	if !strings.HasPrefix(key, DocumentsFolder+"/") {
		return false
	}
	lower := strings.ToLower(key)
	for _, suffix := range triggerSuffixes {
		if strings.HasSuffix(lower, suffix) {
			return true
		}
	}
	return false
}

// DocumentIDFromKey pulls the document ID out of an uploaded object key.
// Keys look like documents/{userID}/{documentID}_{originalName}.
func DocumentIDFromKey(key string) (string, error) {
	base := path.Base(key)
	id, _, found := strings.Cut(base, "_")
	if !found {
		return "", fmt.Errorf("object key %q carries no document id", key)
	}
	if _, err := uuid.Parse(id); err != nil {
		return "", fmt.Errorf("object key %q carries no document id: %w", key, err)
	}
	return id, nil
}

// ProcessObject resolves the trigger to a document and runs ingestion.
func (i *DocumentIngestor) ProcessObject(ctx context.Context, bucket, key string) error {
	if !MatchesTrigger(key) {
		i.logger.Debug("ignoring object outside trigger scope", "bucket", bucket, "key", key)
		return nil
	}

	docID, err := DocumentIDFromKey(key)
	if err != nil {
		return err
	}

	doc, err := i.db.GetDocumentByID(ctx, docID)
	if err != nil {
		return fmt.Errorf("load document %s: %w", docID, err)
	}
	if doc == nil {
		return fmt.Errorf("document not found: %s", docID)
	}
	if doc.Status != models.StatusProcessing {
		// Settled documents stay settled: a redelivered trigger for a ready,
		// failed, or deleted document is a no-op.
		i.logger.Info("skipping document outside processing state", "document_id", docID, "status", doc.Status)
		return nil
	}

	if err := i.run(ctx, doc); err != nil {
		if statusErr := i.db.UpdateDocumentStatus(ctx, doc.ID, models.StatusFailed); statusErr != nil {
			i.logger.Error("could not mark document failed", "document_id", doc.ID, "error", statusErr)
		}
		return err
	}
	return nil
}

// run performs one ingestion. Any error returned here is fatal to the run;
// batches already persisted stay in place (ingestion is not transactional
// across batches).
func (i *DocumentIngestor) run(ctx context.Context, doc *models.Document) error {
	started := time.Now()

	data, err := i.obj.GetFile(ctx, doc.SourceFile.Folder, doc.SourceFile.FileName)
	if err != nil {
		return fmt.Errorf("fetch source object: %w", err)
	}

	extractorFor := i.extractorFor
	if extractorFor == nil {
		extractorFor = extract.ForMimeType
	}
	extracted, err := extractorFor(doc.SourceFile.MimeType).Extract(ctx, data, doc.SourceFile.MimeType)
	if err != nil {
		return err
	}

	textFile := models.StoredFile{
		Folder:   ExtractedTextFolder,
		FileName: fmt.Sprintf("%s_%d.txt", doc.ID, started.UnixNano()),
		MimeType: "text/plain",
	}
	if err := i.obj.PutFile(ctx, textFile.Folder, textFile.FileName, []byte(extracted.FullText), textFile.MimeType); err != nil {
		return fmt.Errorf("upload extracted text: %w", err)
	}

	total, err := i.embedAll(ctx, doc, extracted)
	if err != nil {
		return err
	}

	i.logger.Info("ingestion finished",
		"document_id", doc.ID,
		"pages", extracted.PageCount,
		"succeeded", total.Succeeded,
		"failed", total.Failed,
		"elapsed", time.Since(started).String(),
	)

	if i.cfg.FailOnPartial && total.Failed > 0 {
		return fmt.Errorf("%d of %d chunks failed to embed", total.Failed, total.Succeeded+total.Failed)
	}

	if err := i.db.SetExtractedText(ctx, doc.ID, textFile); err != nil {
		return err
	}
	return i.db.UpdateDocumentStatus(ctx, doc.ID, models.StatusReady)
}

// embedAll streams chunk candidates into fixed-size batches, processing
// batches sequentially to bound memory and outstanding requests.
func (i *DocumentIngestor) embedAll(ctx context.Context, doc *models.Document, extracted *core.ExtractedDocument) (BatchResult, error) {
	ch := chunker.New(i.cfg.ChunkSize, i.cfg.Overlap)

	var total BatchResult
	batch := make([]models.ChunkCandidate, 0, i.cfg.BatchSize)

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		res, err := i.batcher.ProcessBatch(ctx, doc.ID, doc.UserID, batch)
		if err != nil {
			return err
		}
		total = total.add(res)
		batch = batch[:0]
		return nil
	}

	for cand := range ch.Chunks(extracted.PageTexts, extracted.FullText) {
		if err := ctx.Err(); err != nil {
			return total, err
		}
		batch = append(batch, cand)
		if len(batch) == i.cfg.BatchSize {
			if err := flush(); err != nil {
				return total, err
			}
		}
	}
	if err := flush(); err != nil {
		return total, err
	}
	return total, nil
}
