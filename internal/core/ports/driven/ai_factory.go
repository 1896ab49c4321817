package driven

import "github.com/archivist-labs/docchat-core/internal/core/domain"

// AIFactory builds embedding and chat model clients from a settings
// snapshot. Settings updates run the factory again and swap the
// results into the runtime registry.
type AIFactory interface {
	// EmbeddingService builds the embedding client the snapshot selects.
	EmbeddingService(cfg domain.Settings) (EmbeddingService, error)

	// ChatModel builds the generative model client.
	ChatModel(cfg domain.Settings) (ChatModel, error)
}
