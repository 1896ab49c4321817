package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/archivist-labs/docchat-core/internal/core/domain"
	"github.com/archivist-labs/docchat-core/internal/core/ports/driven"
	"github.com/archivist-labs/docchat-core/internal/core/ports/driving"
	"github.com/archivist-labs/docchat-core/internal/runtime"
)

// retrievalService turns a query into ranked context: embed, similarity
// search, map distances to relevance. An empty result is a valid
// outcome, not an error; the chat prompt then proceeds without context.
type retrievalService struct {
	store    driven.VectorStore
	services *runtime.Services
	settings driving.SettingsService
	logger   *slog.Logger
}

func newRetrievalService(
	store driven.VectorStore,
	services *runtime.Services,
	settings driving.SettingsService,
	logger *slog.Logger,
) *retrievalService {
	return &retrievalService{
		store:    store,
		services: services,
		settings: settings,
		logger:   logger,
	}
}

// Retrieve returns the top-k chunks for the query, scoped to collection
// when non-empty. k <= 0 falls back to the configured retrieval count.
func (s *retrievalService) Retrieve(ctx context.Context, query string, k int, collection string) ([]domain.RetrievedContext, error) {
	if k <= 0 {
		k = s.settings.Current().Processing.RetrievalCount
	}

	embedder := s.services.EmbeddingService()
	if embedder == nil {
		return nil, fmt.Errorf("%w: no embedding service configured", domain.ErrEmbeddingFailed)
	}
	embedding, err := embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrEmbeddingFailed, err)
	}

	hits, err := s.store.Query(ctx, embedding, k, collection)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrStoreFailed, err)
	}

	contexts := make([]domain.RetrievedContext, 0, len(hits))
	for _, hit := range hits {
		contexts = append(contexts, domain.RetrievedContext{
			Text:     hit.Text,
			Metadata: hit.Metadata,
			Distance: hit.Distance,
		})
	}
	return contexts, nil
}
