package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/archivist-labs/docchat-core/internal/core/domain"
	"github.com/archivist-labs/docchat-core/internal/core/ports/driven/mocks"
	"github.com/archivist-labs/docchat-core/internal/core/ports/driving"
)

type filesFixture struct {
	svc   driving.FileService
	store *mocks.MockVectorStore
}

func newFilesFixture(t *testing.T) *filesFixture {
	t.Helper()
	store := mocks.NewMockVectorStore()
	return &filesFixture{
		svc:   NewFileService(store, slog.Default()),
		store: store,
	}
}

// seedFile stores chunkCount chunks for one logical document.
func (f *filesFixture) seedFile(t *testing.T, fileID, fileName, collection string, chunkCount int, uploaded time.Time) {
	t.Helper()

	ids := make([]string, chunkCount)
	texts := make([]string, chunkCount)
	embeddings := make([][]float32, chunkCount)
	metas := make([]domain.ChunkMetadata, chunkCount)
	for i := 0; i < chunkCount; i++ {
		ids[i] = fmt.Sprintf("%s_chunk_%d", fileID, i)
		texts[i] = fmt.Sprintf("chunk %d of %s", i, fileName)
		embeddings[i] = []float32{1, 0, 0}
		metas[i] = domain.ChunkMetadata{
			FileName:       fileName,
			StoredFileName: "12345-" + fileName,
			FileID:         fileID,
			Collection:     collection,
			ChunkIndex:     i,
			TotalChunks:    chunkCount,
			UploadDate:     uploaded,
		}
	}
	if err := f.store.Add(context.Background(), ids, texts, embeddings, metas); err != nil {
		t.Fatalf("seeding store: %v", err)
	}
}

func TestFiles_ListGroupsChunksByFile(t *testing.T) {
	f := newFilesFixture(t)
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	f.seedFile(t, "file-a", "older.txt", "manuals", 3, base)
	f.seedFile(t, "file-b", "newer.txt", "manuals", 2, base.Add(time.Hour))

	files, err := f.svc.List(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(files) != 2 {
		t.Fatalf("expected 2 files, got %d", len(files))
	}
	if files[0].FileName != "newer.txt" || files[1].FileName != "older.txt" {
		t.Errorf("files not sorted newest-first: %q, %q", files[0].FileName, files[1].FileName)
	}
	if files[0].ChunkCount != 2 || files[1].ChunkCount != 3 {
		t.Errorf("chunk counts wrong: %d, %d", files[0].ChunkCount, files[1].ChunkCount)
	}
	if files[1].Collection != "manuals" {
		t.Errorf("collection lost in grouping: %q", files[1].Collection)
	}
}

func TestFiles_ListEmptyStore(t *testing.T) {
	f := newFilesFixture(t)

	files, err := f.svc.List(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(files) != 0 {
		t.Errorf("expected empty list, got %d files", len(files))
	}
}

func TestFiles_DeleteRemovesOnlyOwnChunks(t *testing.T) {
	f := newFilesFixture(t)
	now := time.Now().UTC()
	f.seedFile(t, "file-a", "keep.txt", "manuals", 3, now)
	f.seedFile(t, "file-b", "drop.txt", "manuals", 4, now)

	deleted, err := f.svc.Delete(context.Background(), "file-b")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if deleted != 4 {
		t.Errorf("expected 4 deleted chunks, got %d", deleted)
	}
	if f.store.Len() != 3 {
		t.Errorf("expected 3 surviving chunks, got %d", f.store.Len())
	}

	records, err := f.store.GetAll(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, rec := range records {
		if rec.Metadata.FileID != "file-a" {
			t.Errorf("chunk of wrong file survived: %s", rec.ID)
		}
	}
}

func TestFiles_DeleteUnknownFile(t *testing.T) {
	f := newFilesFixture(t)
	f.seedFile(t, "file-a", "keep.txt", "manuals", 2, time.Now().UTC())

	_, err := f.svc.Delete(context.Background(), "no-such-file")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if f.store.Len() != 2 {
		t.Errorf("store mutated on failed delete: %d chunks", f.store.Len())
	}
}

func TestFiles_Stats(t *testing.T) {
	f := newFilesFixture(t)
	now := time.Now().UTC()
	f.seedFile(t, "file-a", "a.txt", "manuals", 3, now)
	f.seedFile(t, "file-b", "b.txt", "archive", 5, now)

	stats, err := f.svc.Stats(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stats.TotalFiles != 2 {
		t.Errorf("expected 2 files, got %d", stats.TotalFiles)
	}
	if stats.TotalChunks != 8 {
		t.Errorf("expected 8 chunks, got %d", stats.TotalChunks)
	}
}

func TestFiles_DisplayName(t *testing.T) {
	f := newFilesFixture(t)
	f.seedFile(t, "file-a", "report.pdf", "manuals", 1, time.Now().UTC())

	name, err := f.svc.DisplayName(context.Background(), "12345-report.pdf")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if name != "report.pdf" {
		t.Errorf("expected original name, got %q", name)
	}

	if _, err := f.svc.DisplayName(context.Background(), "unknown-stored-name"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
