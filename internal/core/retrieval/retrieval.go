// Package retrieval answers "what does this document say about X": it embeds
// the query, runs a filtered similarity search over the document's chunks,
// and assembles the ranked hits into a prompt context block.
package retrieval

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/markdave123-py/MindMesh/internal/core"
)

const (
	DefaultTopK          = 5
	DefaultCandidatePool = 100
)

// ErrNoRelevantContext signals that the search matched nothing for this
// document and user. Callers turn it into a "no relevant information" reply
// instead of sending the model an empty context.
var ErrNoRelevantContext = errors.New("no relevant context found in the document")

type Engine struct {
	db       core.DbClient
	embedder core.EmbeddingProvider
	logger   *slog.Logger

	// TopK is how many hits make it into the context; CandidatePool is how
	// many nearest neighbors the index considers before the final ranking.
	TopK          int
	CandidatePool int
}

func NewEngine(db core.DbClient, embedder core.EmbeddingProvider, logger *slog.Logger) *Engine {
	return &Engine{
		db:            db,
		embedder:      embedder,
		logger:        logger,
		TopK:          DefaultTopK,
		CandidatePool: DefaultCandidatePool,
	}
}

// Retrieve returns the top hits for the query, scoped to one document and
// its owner. Both filters apply inside the index scan, so another user's
// chunks can never leak into the pool.
func (e *Engine) Retrieve(ctx context.Context, documentID, userID, query string) ([]core.ScoredChunk, error) {
	vec, err := e.embedder.EmbedText(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	topK := e.TopK
	if topK <= 0 {
		topK = DefaultTopK
	}
	pool := e.CandidatePool
	if pool < topK {
		pool = DefaultCandidatePool
	}

	hits, err := e.db.SearchDocumentChunks(ctx, documentID, userID, vec, topK, pool)
	if err != nil {
		return nil, err
	}

	e.logger.Debug("similarity search finished",
		"document_id", documentID,
		"hits", len(hits),
	)
	return hits, nil
}

// ContextFor runs Retrieve and renders the hits. Returns ErrNoRelevantContext
// when the search comes back empty.
func (e *Engine) ContextFor(ctx context.Context, documentID, userID, query string) (string, error) {
	hits, err := e.Retrieve(ctx, documentID, userID, query)
	if err != nil {
		return "", err
	}
	if len(hits) == 0 {
		return "", ErrNoRelevantContext
	}
	return BuildContext(hits), nil
}

// BuildContext renders ranked hits as labeled sections:
//
//	[Chunk 1 (Score: 0.92)]
//	<content>
//
// Chunk numbers are 1-based result positions, not stored chunk indices, so
// the model sees a stable "best first" ordering.
func BuildContext(hits []core.ScoredChunk) string {
	var b strings.Builder
	for i, hit := range hits {
		if i > 0 {
			b.WriteString("\n\n")
		}
		fmt.Fprintf(&b, "[Chunk %d (Score: %.2f)]\n%s", i+1, hit.Score, hit.Chunk.Content)
	}
	return b.String()
}
