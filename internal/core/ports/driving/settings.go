package driving

import (
	"context"

	"github.com/archivist-labs/docchat-core/internal/core/domain"
)

// SettingsUpdate is a partial settings update. Nil fields leave the
// current value untouched; the merge is applied to a copy of the
// current snapshot, validated, persisted, and only then made visible.
type SettingsUpdate struct {
	APIProvider         *string  `json:"apiProvider,omitempty"`
	APIKey              *string  `json:"apiKey,omitempty"`
	APIBase             *string  `json:"apiBase,omitempty"`
	Port                *int     `json:"port,omitempty"`
	StoreBackend        *string  `json:"storeBackend,omitempty"`
	StorePath           *string  `json:"storePath,omitempty"`
	ChromaURL           *string  `json:"chromaUrl,omitempty"`
	PostgresURL         *string  `json:"postgresUrl,omitempty"`
	EmbeddingProvider   *string  `json:"embeddingProvider,omitempty"`
	EmbeddingDimensions *int     `json:"embeddingDimensions,omitempty"`
	ChunkSize           *int     `json:"chunkSize,omitempty"`
	ChunkOverlap        *int     `json:"chunkOverlap,omitempty"`
	RetrievalCount      *int     `json:"retrievalCount,omitempty"`
	ModelName           *string  `json:"modelName,omitempty"`
	Temperature         *float64 `json:"temperature,omitempty"`
	MaxTokens           *int     `json:"maxTokens,omitempty"`
}

// SettingsView is the flat client-facing settings shape.
type SettingsView struct {
	APIProvider         string  `json:"apiProvider"`
	APIKey              string  `json:"apiKey"`
	APIBase             string  `json:"apiBase"`
	Port                int     `json:"port"`
	StoreBackend        string  `json:"storeBackend"`
	StorePath           string  `json:"storePath"`
	ChromaURL           string  `json:"chromaUrl"`
	PostgresURL         string  `json:"postgresUrl"`
	EmbeddingProvider   string  `json:"embeddingProvider"`
	EmbeddingDimensions int     `json:"embeddingDimensions"`
	ChunkSize           int     `json:"chunkSize"`
	ChunkOverlap        int     `json:"chunkOverlap"`
	RetrievalCount      int     `json:"retrievalCount"`
	ModelName           string  `json:"modelName"`
	Temperature         float64 `json:"temperature"`
	MaxTokens           int     `json:"maxTokens"`
}

// SettingsService owns the live settings snapshot.
type SettingsService interface {
	// Current returns the resolved snapshot. Components call this per
	// request rather than caching values across updates.
	Current() domain.Settings

	// View returns the client-facing flat shape.
	View() SettingsView

	// Update merges a partial update, validates it, persists it
	// atomically, and swaps in the new snapshot.
	Update(ctx context.Context, update SettingsUpdate) (SettingsView, error)

	// ResetDatabase drops and recreates the vector index.
	ResetDatabase(ctx context.Context) error
}
