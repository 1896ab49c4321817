package services

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/archivist-labs/docchat-core/internal/core/domain"
	"github.com/archivist-labs/docchat-core/internal/core/ports/driven"
	"github.com/archivist-labs/docchat-core/internal/core/ports/driving"
)

// Ensure fileService implements FileService
var _ driving.FileService = (*fileService)(nil)

// fileService reconstructs per-document views by grouping the store's
// chunk metadata on fileId. The store is the only source of truth; no
// document list is cached here.
type fileService struct {
	store  driven.VectorStore
	logger *slog.Logger
}

// NewFileService creates a new FileService
func NewFileService(store driven.VectorStore, logger *slog.Logger) driving.FileService {
	return &fileService{store: store, logger: logger}
}

// List returns one entry per ingested document, newest first.
func (s *fileService) List(ctx context.Context) ([]domain.FileInfo, error) {
	records, err := s.store.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrStoreFailed, err)
	}

	byFile := make(map[string]domain.FileInfo)
	for _, rec := range records {
		meta := rec.Metadata
		if _, seen := byFile[meta.FileID]; !seen {
			byFile[meta.FileID] = domain.FileInfo{
				FileID:         meta.FileID,
				FileName:       meta.FileName,
				StoredFileName: meta.StoredFileName,
				Collection:     meta.Collection,
				ChunkCount:     meta.TotalChunks,
				UploadDate:     meta.UploadDate,
			}
		}
	}

	files := make([]domain.FileInfo, 0, len(byFile))
	for _, f := range byFile {
		files = append(files, f)
	}
	sort.Slice(files, func(i, j int) bool {
		if !files[i].UploadDate.Equal(files[j].UploadDate) {
			return files[i].UploadDate.After(files[j].UploadDate)
		}
		return files[i].FileID < files[j].FileID
	})
	return files, nil
}

// Delete removes every chunk belonging to fileID and nothing else.
func (s *fileService) Delete(ctx context.Context, fileID string) (int, error) {
	records, err := s.store.GetAll(ctx)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", domain.ErrStoreFailed, err)
	}

	deleted := 0
	for _, rec := range records {
		if rec.Metadata.FileID != fileID {
			continue
		}
		if err := s.store.Delete(ctx, rec.ID); err != nil {
			return deleted, fmt.Errorf("%w: deleting chunk %s: %v", domain.ErrStoreFailed, rec.ID, err)
		}
		deleted++
	}

	if deleted == 0 {
		return 0, fmt.Errorf("%w: file %s", domain.ErrNotFound, fileID)
	}
	s.logger.Info("document deleted", "fileId", fileID, "chunks", deleted)
	return deleted, nil
}

// Stats summarises the corpus.
func (s *fileService) Stats(ctx context.Context) (domain.StoreStats, error) {
	records, err := s.store.GetAll(ctx)
	if err != nil {
		return domain.StoreStats{}, fmt.Errorf("%w: %v", domain.ErrStoreFailed, err)
	}

	files := make(map[string]struct{})
	for _, rec := range records {
		files[rec.Metadata.FileID] = struct{}{}
	}
	return domain.StoreStats{
		TotalFiles:  len(files),
		TotalChunks: len(records),
	}, nil
}

// DisplayName resolves a stored file name to the original upload name.
func (s *fileService) DisplayName(ctx context.Context, storedFileName string) (string, error) {
	records, err := s.store.GetAll(ctx)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrStoreFailed, err)
	}
	for _, rec := range records {
		if rec.Metadata.StoredFileName == storedFileName {
			return rec.Metadata.FileName, nil
		}
	}
	return "", domain.ErrNotFound
}
