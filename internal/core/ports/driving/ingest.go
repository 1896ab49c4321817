package driving

import (
	"context"

	"github.com/archivist-labs/docchat-core/internal/core/domain"
)

// IngestRequest describes a staged upload ready for processing. The
// file at FilePath is owned by the ingestion pipeline from this point:
// every failure path removes it.
type IngestRequest struct {
	// FilePath is the staged file on disk.
	FilePath string

	// StoredFileName is the unique name the upload was staged under.
	StoredFileName string

	// FileName is the caller-facing display name; its extension decides
	// the extractor.
	FileName string

	// Collection scopes the document's chunks for retrieval.
	Collection string
}

// IngestService turns an uploaded document into retrievable chunks.
type IngestService interface {
	Ingest(ctx context.Context, req IngestRequest) (*domain.IngestResult, error)
}
