package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/markdave123-py/MindMesh/internal/core"
	"github.com/markdave123-py/MindMesh/internal/core/retrieval"
	"github.com/markdave123-py/MindMesh/internal/models"
)

// ErrDocumentNotReady means the document exists but ingestion has not
// finished (or failed), so there is nothing to retrieve against yet.
var ErrDocumentNotReady = errors.New("document is not ready")

// NoRelevantInfoReply is returned verbatim when retrieval finds nothing,
// instead of letting the model improvise over an empty context.
const NoRelevantInfoReply = "I couldn't find relevant information in this document to answer that."

type AIService struct {
	docs      *DocumentService
	retriever *retrieval.Engine
	llm       core.LLMProvider
	files     core.FileHandleResolver
	logger    *slog.Logger
}

func NewAIService(docs *DocumentService, retriever *retrieval.Engine, llm core.LLMProvider, files core.FileHandleResolver, logger *slog.Logger) *AIService {
	return &AIService{docs: docs, retriever: retriever, llm: llm, files: files, logger: logger}
}

func (s *AIService) readyDocument(ctx context.Context, userID, docID string) (*models.Document, error) {
	doc, err := s.docs.Get(ctx, userID, docID)
	if err != nil {
		return nil, err
	}
	if doc.Status != models.StatusReady {
		return nil, fmt.Errorf("%w: status is %s", ErrDocumentNotReady, doc.Status)
	}
	return doc, nil
}

// Chat answers a question grounded in the document's retrieved chunks.
func (s *AIService) Chat(ctx context.Context, userID, docID, question string) (string, error) {
	if _, err := s.readyDocument(ctx, userID, docID); err != nil {
		return "", err
	}

	contextText, err := s.retriever.ContextFor(ctx, docID, userID, question)
	if errors.Is(err, retrieval.ErrNoRelevantContext) {
		s.logger.Info("chat query matched no chunks", "document_id", docID)
		return NoRelevantInfoReply, nil
	}
	if err != nil {
		return "", err
	}
	return s.llm.ChatWithContext(ctx, contextText, question)
}

// Explain asks for a focused explanation of one concept from the document.
func (s *AIService) Explain(ctx context.Context, userID, docID, concept string) (string, error) {
	if _, err := s.readyDocument(ctx, userID, docID); err != nil {
		return "", err
	}

	contextText, err := s.retriever.ContextFor(ctx, docID, userID, concept)
	if errors.Is(err, retrieval.ErrNoRelevantContext) {
		return NoRelevantInfoReply, nil
	}
	if err != nil {
		return "", err
	}
	return s.llm.ExplainConcept(ctx, contextText, concept)
}

// Summarize feeds the whole extracted-text artifact to the model through a
// provider file handle, reusing a cached handle while it is still valid.
func (s *AIService) Summarize(ctx context.Context, userID, docID string) (string, error) {
	doc, err := s.readyDocument(ctx, userID, docID)
	if err != nil {
		return "", err
	}

	uri, _, refreshed, err := s.files.ResolveFileURI(ctx, doc)
	if err != nil {
		return "", fmt.Errorf("resolve file handle: %w", err)
	}
	if refreshed {
		s.logger.Info("uploaded fresh provider file handle", "document_id", docID)
	}
	return s.llm.SummarizeFile(ctx, doc.ExtractedText.MimeType, uri)
}
