package domain

import (
	"fmt"
	"strings"
)

// Store backends selectable via settings.
const (
	StoreBackendBolt     = "bolt"
	StoreBackendChroma   = "chroma"
	StoreBackendPostgres = "postgres"
)

// Embedding providers selectable via settings.
const (
	EmbeddingProviderHash   = "hash"
	EmbeddingProviderOpenAI = "openai"
)

// AllowedExtensions is the upload allow-list; anything else is rejected
// before extraction.
var AllowedExtensions = map[string]bool{
	".txt":  true,
	".pdf":  true,
	".docx": true,
}

// ExtensionAllowed reports whether ext (with leading dot, any case) is
// an accepted upload format.
func ExtensionAllowed(ext string) bool {
	return AllowedExtensions[strings.ToLower(ext)]
}

// Settings is the persisted service configuration. Values are treated
// as an immutable snapshot: updates produce a new value that replaces
// the old one atomically.
type Settings struct {
	API        APISettings        `json:"api"`
	Server     ServerSettings     `json:"server"`
	Database   DatabaseSettings   `json:"database"`
	Embedding  EmbeddingSettings  `json:"embedding"`
	Processing ProcessingSettings `json:"processing"`
	Model      ModelSettings      `json:"model"`
}

// APISettings configures the generative model provider.
type APISettings struct {
	Provider string `json:"provider"`
	APIKey   string `json:"apiKey"`
	APIBase  string `json:"apiBase"`
}

// ServerSettings configures the HTTP listener.
type ServerSettings struct {
	Port int `json:"port"`
}

// DatabaseSettings selects and configures the vector store backend.
// Backend and connection changes take effect on restart.
type DatabaseSettings struct {
	Backend     string `json:"backend"`
	Path        string `json:"path"`
	ChromaURL   string `json:"chromaUrl"`
	PostgresURL string `json:"postgresUrl"`
}

// EmbeddingSettings configures the embedding provider.
type EmbeddingSettings struct {
	Provider   string `json:"provider"`
	Dimensions int    `json:"dimensions"`
}

// ProcessingSettings drives chunking and retrieval.
type ProcessingSettings struct {
	ChunkSize      int `json:"chunkSize"`
	ChunkOverlap   int `json:"chunkOverlap"`
	RetrievalCount int `json:"retrievalCount"`
}

// ModelSettings drives generative model calls.
type ModelSettings struct {
	Name        string  `json:"name"`
	Temperature float64 `json:"temperature"`
	MaxTokens   int     `json:"maxTokens"`
}

// DefaultSettings returns the configuration written on first start.
func DefaultSettings() Settings {
	return Settings{
		API: APISettings{
			Provider: "deepseek",
			APIBase:  "https://api.deepseek.com/v1",
		},
		Server: ServerSettings{
			Port: 8080,
		},
		Database: DatabaseSettings{
			Backend:   StoreBackendBolt,
			Path:      "./data/vectors.db",
			ChromaURL: "http://localhost:8000",
		},
		Embedding: EmbeddingSettings{
			Provider:   EmbeddingProviderHash,
			Dimensions: 384,
		},
		Processing: ProcessingSettings{
			ChunkSize:      500,
			ChunkOverlap:   50,
			RetrievalCount: 5,
		},
		Model: ModelSettings{
			Name:        "deepseek-chat",
			Temperature: 0.7,
			MaxTokens:   2000,
		},
	}
}

// Validate checks every constraint a settings snapshot must satisfy.
// Updates that fail validation are rejected before persisting.
func (s Settings) Validate() error {
	if s.Server.Port <= 0 || s.Server.Port > 65535 {
		return fmt.Errorf("%w: server port %d out of range", ErrInvalidConfig, s.Server.Port)
	}
	switch s.Database.Backend {
	case StoreBackendBolt, StoreBackendChroma, StoreBackendPostgres:
	default:
		return fmt.Errorf("%w: unknown store backend %q", ErrInvalidConfig, s.Database.Backend)
	}
	switch s.Embedding.Provider {
	case EmbeddingProviderHash, EmbeddingProviderOpenAI:
	default:
		return fmt.Errorf("%w: unknown embedding provider %q", ErrInvalidConfig, s.Embedding.Provider)
	}
	if s.Embedding.Dimensions <= 0 {
		return fmt.Errorf("%w: embedding dimensions must be positive", ErrInvalidConfig)
	}
	if s.Processing.ChunkSize <= 0 {
		return fmt.Errorf("%w: chunk size must be positive", ErrInvalidConfig)
	}
	if s.Processing.ChunkOverlap < 0 {
		return fmt.Errorf("%w: chunk overlap must not be negative", ErrInvalidConfig)
	}
	if s.Processing.ChunkOverlap >= s.Processing.ChunkSize {
		return fmt.Errorf("%w: chunk overlap %d must be less than chunk size %d",
			ErrInvalidConfig, s.Processing.ChunkOverlap, s.Processing.ChunkSize)
	}
	if s.Processing.RetrievalCount <= 0 {
		return fmt.Errorf("%w: retrieval count must be positive", ErrInvalidConfig)
	}
	if s.Model.Temperature < 0 || s.Model.Temperature > 2 {
		return fmt.Errorf("%w: temperature %v out of range [0, 2]", ErrInvalidConfig, s.Model.Temperature)
	}
	if s.Model.MaxTokens <= 0 {
		return fmt.Errorf("%w: max tokens must be positive", ErrInvalidConfig)
	}
	return nil
}
