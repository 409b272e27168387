package llm

import (
	"context"
	"fmt"
	"os"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/markdave123-py/MindMesh/internal/core"
	"github.com/markdave123-py/MindMesh/internal/core/errs"
)

// GeminiEmbedder produces fixed-dimension vectors. A response whose length
// differs from the configured dimension is a configuration error, never a
// partial result.
type GeminiEmbedder struct {
	client    *genai.Client
	modelName string
	dim       int
}

func NewGeminiEmbedder(ctx context.Context, apiKey, modelName string, dim int) (*GeminiEmbedder, error) {
	if apiKey == "" {
		apiKey = os.Getenv("GEMINI_API_KEY")
	}
	if apiKey == "" {
		return nil, errs.Configurationf("gemini api key is not set")
	}
	cl, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, err
	}
	if modelName == "" {
		modelName = "text-embedding-004"
	}
	if dim <= 0 {
		dim = 768
	}
	return &GeminiEmbedder{client: cl, modelName: modelName, dim: dim}, nil
}

func (g *GeminiEmbedder) Close() error {
	if g.client != nil {
		return g.client.Close()
	}
	return nil
}

func (g *GeminiEmbedder) Dimension() int { return g.dim }

func (g *GeminiEmbedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	em := g.client.EmbeddingModel(g.modelName)

	res, err := em.EmbedContent(ctx, genai.Text(text))
	if err != nil {
		return nil, ClassifyProviderError(fmt.Errorf("gemini embed: %w", err))
	}
	if res.Embedding == nil || len(res.Embedding.Values) == 0 {
		return nil, errs.Permanent(fmt.Errorf("gemini embed: no embedding returned"))
	}
	if len(res.Embedding.Values) != g.dim {
		return nil, errs.Configurationf("embedding dimension mismatch: got %d want %d", len(res.Embedding.Values), g.dim)
	}
	return res.Embedding.Values, nil
}

var _ core.EmbeddingProvider = (*GeminiEmbedder)(nil)
