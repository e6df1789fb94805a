package embedding

import (
	"context"
	"fmt"

	"github.com/sashabaranov/go-openai"
)

// OpenAIProvider generates embeddings through the OpenAI API.
//
// Example:
//
//	p := NewOpenAIProvider("sk-...", "")
//	vecs, err := p.EmbedBatch(ctx, []string{"hello"})
type OpenAIProvider struct {
	client *openai.Client
	model  openai.EmbeddingModel
	dim    int
}

// NewOpenAIProvider creates an OpenAI embedding provider.
//
// Parameters:
//   - apiKey: OpenAI API key
//   - model: embedding model identifier (default "text-embedding-3-small")
func NewOpenAIProvider(apiKey, model string) *OpenAIProvider {
	m := openai.SmallEmbedding3
	dim := 1536
	if model != "" {
		m = openai.EmbeddingModel(model)
	}
	if m == openai.LargeEmbedding3 {
		dim = 3072
	}
	return &OpenAIProvider{
		client: openai.NewClient(apiKey),
		model:  m,
		dim:    dim,
	}
}

// EmbedBatch embeds all texts in a single API call.
func (p *OpenAIProvider) EmbedBatch(ctx context.Context, texts []string) ([][]float64, error) {
	resp, err := p.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: texts,
		Model: p.model,
	})
	if err != nil {
		return nil, fmt.Errorf("openai embeddings: %w", err)
	}
	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("openai embeddings: got %d vectors for %d texts", len(resp.Data), len(texts))
	}
	out := make([][]float64, len(texts))
	for _, d := range resp.Data {
		vec := make([]float64, len(d.Embedding))
		for i, v := range d.Embedding {
			vec[i] = float64(v)
		}
		out[d.Index] = vec
	}
	return out, nil
}

// Dimension returns the embedding dimension.
func (p *OpenAIProvider) Dimension() int { return p.dim }
