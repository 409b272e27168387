package llm

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/markdave123-py/MindMesh/internal/core"
	"github.com/markdave123-py/MindMesh/internal/core/errs"
)

type GeminiLLM struct {
	client    *genai.Client
	modelName string
}

func NewGeminiLLM(ctx context.Context, apiKey, modelName string) (*GeminiLLM, error) {
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
		modelName = "gemini-2.0-flash-exp"
	}
	return &GeminiLLM{client: cl, modelName: modelName}, nil
}

func (g *GeminiLLM) Close() error {
	if g.client != nil {
		return g.client.Close()
	}
	return nil
}

// Client exposes the underlying genai client for the file-handle cache.
func (g *GeminiLLM) Client() *genai.Client { return g.client }

func (g *GeminiLLM) ChatWithContext(ctx context.Context, contextText, question string) (string, error) {
	prompt := fmt.Sprintf(`Based on the following context from a document, analyse the context and answer the user's question.
If the answer is not in the context, say so.

Context:
%s

Question: %s

Answer:`, contextText, question)

	return g.generate(ctx, prompt)
}

func (g *GeminiLLM) ExplainConcept(ctx context.Context, contextText, concept string) (string, error) {
	prompt := fmt.Sprintf(`Explain the concept of %q based on the following context.
Provide a clear, educational explanation that's easy to understand.
Include examples if relevant.

here is context:
%s`, concept, contextText)

	return g.generate(ctx, prompt)
}

// SummarizeFile summarizes a previously uploaded extracted-text artifact,
// addressed by its provider-side file URI.
func (g *GeminiLLM) SummarizeFile(ctx context.Context, mimeType, fileURI string) (string, error) {
	prompt := `Provide a concise summary of the following text, highlighting the key concepts, main ideas, and important details.
Keep the summary clear and structured.`

	m := g.client.GenerativeModel(g.modelName)
	resp, err := m.GenerateContent(ctx,
		genai.Text(prompt),
		genai.FileData{MIMEType: mimeType, URI: fileURI},
	)
	if err != nil {
		return "", ClassifyProviderError(fmt.Errorf("gemini summarize: %w", err))
	}
	return flatten(resp), nil
}

func (g *GeminiLLM) generate(ctx context.Context, prompt string) (string, error) {
	m := g.client.GenerativeModel(g.modelName)
	resp, err := m.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", ClassifyProviderError(fmt.Errorf("gemini generate: %w", err))
	}
	return flatten(resp), nil
}

func flatten(resp *genai.GenerateContentResponse) string {
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var b strings.Builder
	for _, p := range resp.Candidates[0].Content.Parts {
		if t, ok := p.(genai.Text); ok {
			b.WriteString(string(t))
		}
	}
	return b.String()
}

var _ core.LLMProvider = (*GeminiLLM)(nil)
