// Package embedding maps text to fixed-dimension dense vectors.
//
// The engine batches provider calls, caches vectors by content hash, and
// degrades cleanly when the provider is down: callers receive
// memkit.ErrEmbeddingUnavailable and fall back to keyword-only retrieval.
package embedding

import (
	"context"
	"hash/fnv"
	"math"

	"github.com/scttfrdmn/memkit/sessions"
)

// Provider is the interface for embedding backends.
//
// Implementations must be deterministic: identical text maps to the same
// vector for a fixed model configuration.
type Provider interface {
	// EmbedBatch generates embeddings for texts in one call.
	EmbedBatch(ctx context.Context, texts []string) ([][]float64, error)

	// Dimension returns the embedding dimension.
	Dimension() int
}

// HashingProvider is a deterministic local provider that projects keyword
// tokens into a fixed-size vector by feature hashing.
//
// It needs no model or network and is the offline / test fallback; vectors
// capture lexical overlap only, not semantics.
type HashingProvider struct {
	dim int
}

// NewHashingProvider creates a hashing provider with the given dimension
// (default 256 when dim <= 0).
func NewHashingProvider(dim int) *HashingProvider {
	if dim <= 0 {
		dim = 256
	}
	return &HashingProvider{dim: dim}
}

// EmbedBatch hashes each text's tokens into a normalized vector.
func (p *HashingProvider) EmbedBatch(ctx context.Context, texts []string) ([][]float64, error) {
	out := make([][]float64, len(texts))
	for i, text := range texts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		out[i] = p.embed(text)
	}
	return out, nil
}

// Dimension returns the embedding dimension.
func (p *HashingProvider) Dimension() int { return p.dim }

func (p *HashingProvider) embed(text string) []float64 {
	vec := make([]float64, p.dim)
	for _, token := range sessions.Tokens(text) {
		h := fnv.New64a()
		h.Write([]byte(token))
		sum := h.Sum64()
		idx := int(sum % uint64(p.dim))
		sign := 1.0
		if (sum>>32)&1 == 1 {
			sign = -1.0
		}
		vec[idx] += sign
	}
	norm := 0.0
	for _, v := range vec {
		norm += v * v
	}
	if norm > 0 {
		norm = math.Sqrt(norm)
		for i := range vec {
			vec[i] /= norm
		}
	}
	return vec
}
