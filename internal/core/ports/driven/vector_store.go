package driven

import (
	"context"

	"github.com/archivist-labs/docchat-core/internal/core/domain"
)

// VectorStore is the sole durable home of chunk text, embeddings and
// metadata. Implementations serialize conflicting writes internally;
// callers hold no locks of their own.
type VectorStore interface {
	// Add stores a batch of chunks. The four slices must line up
	// one-to-one; implementations return domain.ErrInvalidBatch
	// otherwise. IDs are always fresh - upsert is not required.
	Add(ctx context.Context, ids []string, texts []string, embeddings [][]float32, metadatas []domain.ChunkMetadata) error

	// Query returns at most k hits ordered by ascending distance. When
	// collection is non-empty only chunks whose metadata collection
	// matches exactly participate. An empty store or an unmatched
	// filter yields an empty slice, not an error.
	Query(ctx context.Context, embedding []float32, k int, collection string) ([]domain.QueryHit, error)

	// GetAll lists every live chunk's id and metadata.
	GetAll(ctx context.Context) ([]domain.ChunkRecord, error)

	// Delete removes exactly one chunk. Deleting a nonexistent id is a
	// no-op.
	Delete(ctx context.Context, id string) error

	// Reset drops and recreates the entire index.
	Reset(ctx context.Context) error

	// Ping verifies the store is reachable.
	Ping(ctx context.Context) error

	// Close releases resources held by the store.
	Close() error
}

// ValidateBatch checks the one-to-one alignment contract of Add.
func ValidateBatch(ids []string, texts []string, embeddings [][]float32, metadatas []domain.ChunkMetadata) error {
	n := len(ids)
	if len(texts) != n || len(embeddings) != n || len(metadatas) != n {
		return domain.ErrInvalidBatch
	}
	return nil
}
