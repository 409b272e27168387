package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/markdave123-py/MindMesh/internal/core"
	"github.com/markdave123-py/MindMesh/internal/core/errs"
	"github.com/markdave123-py/MindMesh/internal/core/retry"
	"github.com/markdave123-py/MindMesh/internal/models"
)

// BatchResult accounts for every candidate in a batch:
// Succeeded + Failed == len(batch), always.
type BatchResult struct {
	Succeeded int
	Failed    int
}

func (r BatchResult) add(other BatchResult) BatchResult {
	return BatchResult{Succeeded: r.Succeeded + other.Succeeded, Failed: r.Failed + other.Failed}
}

// BatchProcessor embeds one batch of chunk candidates concurrently and
// persists the survivors. Each candidate carries its own retry loop; the
// join collects every outcome instead of short-circuiting on the first
// failure, so one slow or failing candidate never blocks the rest.
type BatchProcessor struct {
	db       core.DbClient
	embedder core.EmbeddingProvider
	policy   *retry.Policy
	logger   *slog.Logger

	// MaxConcurrency bounds in-flight embedding calls per batch; <=0 means
	// one goroutine per candidate.
	MaxConcurrency int
}

func NewBatchProcessor(db core.DbClient, embedder core.EmbeddingProvider, policy *retry.Policy, logger *slog.Logger) *BatchProcessor {
	return &BatchProcessor{db: db, embedder: embedder, policy: policy, logger: logger}
}

// ProcessBatch returns exact per-batch counts. Per-candidate embedding
// failures are counted and logged, never propagated; a configuration error
// (dimension mismatch, bad credentials) or a store failure aborts the run.
func (p *BatchProcessor) ProcessBatch(ctx context.Context, documentID, userID string, batch []models.ChunkCandidate) (BatchResult, error) {
	if len(batch) == 0 {
		return BatchResult{}, nil
	}

	embeddings := make([][]float32, len(batch))
	failures := make([]error, len(batch))

	var g errgroup.Group
	if p.MaxConcurrency > 0 {
		g.SetLimit(p.MaxConcurrency)
	}
	for i := range batch {
		g.Go(func() error {
			err := p.policy.Do(ctx, func(ctx context.Context) error {
				vec, err := p.embedder.EmbedText(ctx, batch[i].Content)
				if err != nil {
					return err
				}
				embeddings[i] = vec
				return nil
			})
			failures[i] = err
			return nil
		})
	}
	// Join barrier: every candidate has settled once Wait returns.
	_ = g.Wait()

	var result BatchResult
	rows := make([]models.DocumentChunk, 0, len(batch))
	for i, cand := range batch {
		if err := failures[i]; err != nil {
			if errors.Is(err, errs.ErrConfiguration) {
				return result, err
			}
			result.Failed++
			p.logger.Error("chunk embedding failed",
				"document_id", documentID,
				"chunk_index", cand.ChunkIndex,
				"error", err,
			)
			continue
		}
		result.Succeeded++
		rows = append(rows, models.DocumentChunk{
			ID:         uuid.NewString(),
			DocumentID: documentID,
			UserID:     userID,
			Content:    cand.Content,
			Embedding:  embeddings[i],
			ChunkIndex: cand.ChunkIndex,
			PageNumber: cand.PageNumber,
		})
	}

	if err := p.db.InsertDocumentChunks(ctx, rows); err != nil {
		return BatchResult{}, fmt.Errorf("insert chunks: %w", err)
	}
	return result, nil
}
