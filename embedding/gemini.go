package embedding

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// GeminiProvider generates embeddings through the Google GenAI API.
//
// Example:
//
//	p, err := NewGeminiProvider(ctx, "", "text-embedding-004")
//	vecs, err := p.EmbedBatch(ctx, []string{"hello"})
type GeminiProvider struct {
	client *genai.Client
	model  string
	dim    int
}

// NewGeminiProvider creates a Gemini embedding provider.
//
// Parameters:
//   - apiKey: Google API key. If empty, GEMINI_API_KEY or GOOGLE_API_KEY is used
//   - model: embedding model identifier (default "text-embedding-004")
func NewGeminiProvider(ctx context.Context, apiKey, model string) (*GeminiProvider, error) {
	if apiKey == "" {
		apiKey = os.Getenv("GEMINI_API_KEY")
		if apiKey == "" {
			apiKey = os.Getenv("GOOGLE_API_KEY")
		}
		if apiKey == "" {
			return nil, errors.New("gemini api key required: provide apiKey or set GEMINI_API_KEY or GOOGLE_API_KEY")
		}
	}
	if model == "" {
		model = "text-embedding-004"
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	return &GeminiProvider{client: client, model: model, dim: 768}, nil
}

// EmbedBatch embeds all texts in a single batched API call.
func (p *GeminiProvider) EmbedBatch(ctx context.Context, texts []string) ([][]float64, error) {
	em := p.client.EmbeddingModel(p.model)
	batch := em.NewBatch()
	for _, t := range texts {
		batch.AddContent(genai.Text(t))
	}
	resp, err := em.BatchEmbedContents(ctx, batch)
	if err != nil {
		return nil, fmt.Errorf("gemini embeddings: %w", err)
	}
	if len(resp.Embeddings) != len(texts) {
		return nil, fmt.Errorf("gemini embeddings: got %d vectors for %d texts", len(resp.Embeddings), len(texts))
	}
	out := make([][]float64, len(texts))
	for i, e := range resp.Embeddings {
		vec := make([]float64, len(e.Values))
		for j, v := range e.Values {
			vec[j] = float64(v)
		}
		out[i] = vec
	}
	return out, nil
}

// Dimension returns the embedding dimension.
func (p *GeminiProvider) Dimension() int { return p.dim }

// Close releases the underlying client.
func (p *GeminiProvider) Close() error { return p.client.Close() }
