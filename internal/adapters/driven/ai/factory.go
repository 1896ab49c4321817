package ai

import (
	"fmt"

	"github.com/archivist-labs/docchat-core/internal/core/domain"
	"github.com/archivist-labs/docchat-core/internal/core/ports/driven"
)

// Ensure Factory implements AIFactory
var _ driven.AIFactory = (*Factory)(nil)

// Factory creates AI clients based on the current settings snapshot.
type Factory struct{}

// NewFactory creates a new AI client factory
func NewFactory() *Factory {
	return &Factory{}
}

// EmbeddingService builds the embedding client the snapshot selects.
// An API-backed provider without credentials yields (nil, nil): the
// server starts, and ingestion fails with a clear error until a key is
// configured.
func (f *Factory) EmbeddingService(cfg domain.Settings) (driven.EmbeddingService, error) {
	switch cfg.Embedding.Provider {
	case domain.EmbeddingProviderHash:
		return NewHashEmbedding(cfg.Embedding.Dimensions)
	case domain.EmbeddingProviderOpenAI:
		if cfg.API.APIKey == "" {
			return nil, nil
		}
		return NewOpenAIEmbedding(cfg.API.APIKey, cfg.API.APIBase, cfg.Embedding.Dimensions)
	default:
		return nil, fmt.Errorf("%w: unknown embedding provider %q", domain.ErrInvalidConfig, cfg.Embedding.Provider)
	}
}

// ChatModel builds the generative model client, or (nil, nil) when no
// API key is configured yet.
func (f *Factory) ChatModel(cfg domain.Settings) (driven.ChatModel, error) {
	if cfg.API.APIKey == "" {
		return nil, nil
	}
	return NewOpenAIChat(cfg.API.APIKey, cfg.API.APIBase, cfg.Model.Name)
}
