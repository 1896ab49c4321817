package ai

import (
	"context"
	"fmt"
	"math"

	"github.com/archivist-labs/docchat-core/internal/core/domain"
	"github.com/archivist-labs/docchat-core/internal/core/ports/driven"
)

// Ensure HashEmbedding implements EmbeddingService
var _ driven.EmbeddingService = (*HashEmbedding)(nil)

// HashEmbedding is the built-in provider: a pure function of the text
// and the configured dimension, so identical text always lands on the
// identical vector. It needs no credentials and no network, which makes
// it the default for local setups; retrieval quality is far below a
// learned model.
type HashEmbedding struct {
	dimensions int
}

// NewHashEmbedding creates the deterministic local embedding provider.
func NewHashEmbedding(dimensions int) (driven.EmbeddingService, error) {
	if dimensions <= 0 {
		return nil, fmt.Errorf("%w: embedding dimensions must be positive", domain.ErrInvalidConfig)
	}
	return &HashEmbedding{dimensions: dimensions}, nil
}

// Embed generates embeddings for multiple texts, order-preserving.
func (e *HashEmbedding) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	embeddings := make([][]float32, len(texts))
	for i, text := range texts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		embeddings[i] = e.embed(text)
	}
	return embeddings, nil
}

// EmbedQuery generates an embedding for a search query.
func (e *HashEmbedding) EmbedQuery(ctx context.Context, query string) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return e.embed(query), nil
}

// embed folds each rune into the bucket indexed by its code point and
// L2-normalizes the result. The zero vector (empty text) is returned
// as-is rather than divided by a zero norm.
func (e *HashEmbedding) embed(text string) []float32 {
	vec := make([]float64, e.dimensions)
	for _, r := range text {
		code := int(r)
		vec[code%e.dimensions] += math.Sin(float64(code) * 0.1)
	}

	var sum float64
	for _, v := range vec {
		sum += v * v
	}
	norm := math.Sqrt(sum)

	out := make([]float32, e.dimensions)
	for i, v := range vec {
		if norm > 0 {
			out[i] = float32(v / norm)
		}
	}
	return out
}

// Dimensions returns the embedding dimension size
func (e *HashEmbedding) Dimensions() int {
	return e.dimensions
}

// Model returns the model name being used
func (e *HashEmbedding) Model() string {
	return "hash"
}

// HealthCheck verifies the embedding service is available
func (e *HashEmbedding) HealthCheck(ctx context.Context) error {
	return nil
}

// Close releases resources held by the embedding service
func (e *HashEmbedding) Close() error {
	return nil
}
