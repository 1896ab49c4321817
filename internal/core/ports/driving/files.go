package driving

import (
	"context"

	"github.com/archivist-labs/docchat-core/internal/core/domain"
)

// FileService exposes per-document views reconstructed from the vector
// store's chunk metadata.
type FileService interface {
	// List returns one entry per ingested document.
	List(ctx context.Context) ([]domain.FileInfo, error)

	// Delete removes every chunk of the given document and reports how
	// many were deleted. Unknown ids return domain.ErrNotFound.
	Delete(ctx context.Context, fileID string) (int, error)

	// Stats summarises the corpus.
	Stats(ctx context.Context) (domain.StoreStats, error)

	// DisplayName resolves a stored file name back to the original
	// upload name, or domain.ErrNotFound.
	DisplayName(ctx context.Context, storedFileName string) (string, error)
}
