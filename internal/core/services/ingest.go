package services

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/archivist-labs/docchat-core/internal/chunker"
	"github.com/archivist-labs/docchat-core/internal/core/domain"
	"github.com/archivist-labs/docchat-core/internal/core/ports/driven"
	"github.com/archivist-labs/docchat-core/internal/core/ports/driving"
	"github.com/archivist-labs/docchat-core/internal/runtime"
)

// Ensure ingestService implements IngestService
var _ driving.IngestService = (*ingestService)(nil)

// ingestService runs the ingestion pipeline: fingerprint guard, text
// extraction, chunking, embedding, and a single store add per document.
// Every failure path removes the staged upload so nothing orphans.
type ingestService struct {
	store     driven.VectorStore
	extractor driven.TextExtractor
	services  *runtime.Services
	settings  driving.SettingsService
	logger    *slog.Logger
}

// NewIngestService creates a new IngestService
func NewIngestService(
	store driven.VectorStore,
	extractor driven.TextExtractor,
	services *runtime.Services,
	settings driving.SettingsService,
	logger *slog.Logger,
) driving.IngestService {
	return &ingestService{
		store:     store,
		extractor: extractor,
		services:  services,
		settings:  settings,
		logger:    logger,
	}
}

// Ingest processes one staged upload into stored chunks.
func (s *ingestService) Ingest(ctx context.Context, req driving.IngestRequest) (*domain.IngestResult, error) {
	result, err := s.ingest(ctx, req)
	if err != nil {
		if rmErr := os.Remove(req.FilePath); rmErr != nil && !os.IsNotExist(rmErr) {
			s.logger.Warn("removing staged upload", "path", req.FilePath, "error", rmErr)
		}
		return nil, err
	}
	return result, nil
}

func (s *ingestService) ingest(ctx context.Context, req driving.IngestRequest) (*domain.IngestResult, error) {
	collection := strings.TrimSpace(req.Collection)
	if collection == "" {
		return nil, fmt.Errorf("%w: collection is required", domain.ErrInvalidInput)
	}
	if req.FileName == "" {
		return nil, fmt.Errorf("%w: file name is required", domain.ErrInvalidInput)
	}
	ext := strings.ToLower(filepath.Ext(req.FileName))
	if !domain.ExtensionAllowed(ext) {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnsupportedFormat, ext)
	}

	cfg := s.settings.Current()

	// Duplicate checks run before extraction and embedding, the
	// expensive parts of the pipeline.
	contentHash, err := fingerprintFile(req.FilePath)
	if err != nil {
		return nil, err
	}
	records, err := s.store.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: listing chunks: %v", domain.ErrStoreFailed, err)
	}
	if err := checkDuplicates(records, contentHash, req.FileName, collection); err != nil {
		return nil, err
	}

	text, err := s.extractor.Extract(ctx, req.FilePath)
	if err != nil {
		return nil, err
	}

	chunks, err := chunker.Split(text, cfg.Processing.ChunkSize, cfg.Processing.ChunkOverlap)
	if err != nil {
		return nil, err
	}
	if len(chunks) == 0 {
		return nil, fmt.Errorf("%w: document contains no extractable text", domain.ErrInvalidInput)
	}

	embedder := s.services.EmbeddingService()
	if embedder == nil {
		return nil, fmt.Errorf("%w: no embedding service configured", domain.ErrEmbeddingFailed)
	}
	embeddings, err := embedder.Embed(ctx, chunks)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrEmbeddingFailed, err)
	}
	if len(embeddings) != len(chunks) {
		return nil, fmt.Errorf("%w: got %d embeddings for %d chunks", domain.ErrEmbeddingFailed, len(embeddings), len(chunks))
	}

	fileID := uuid.NewString()
	uploadedAt := time.Now().UTC()

	ids := make([]string, len(chunks))
	metadatas := make([]domain.ChunkMetadata, len(chunks))
	for i := range chunks {
		ids[i] = fmt.Sprintf("%s_chunk_%d", fileID, i)
		metadatas[i] = domain.ChunkMetadata{
			FileName:       req.FileName,
			StoredFileName: req.StoredFileName,
			FileID:         fileID,
			ContentHash:    contentHash,
			Collection:     collection,
			ChunkIndex:     i,
			TotalChunks:    len(chunks),
			UploadDate:     uploadedAt,
		}
	}

	// One add per document: either every chunk lands or the caller
	// treats the whole document as failed ingestion.
	if err := s.store.Add(ctx, ids, chunks, embeddings, metadatas); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrStoreFailed, err)
	}

	s.logger.Info("document ingested",
		"file", req.FileName,
		"fileId", fileID,
		"collection", collection,
		"chunks", len(chunks))

	return &domain.IngestResult{
		FileName:   req.FileName,
		FileID:     fileID,
		ChunkCount: len(chunks),
		TextLength: len(text),
	}, nil
}
