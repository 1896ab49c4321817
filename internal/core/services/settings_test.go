package services

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/archivist-labs/docchat-core/internal/core/domain"
	"github.com/archivist-labs/docchat-core/internal/core/ports/driven/mocks"
	"github.com/archivist-labs/docchat-core/internal/core/ports/driving"
	"github.com/archivist-labs/docchat-core/internal/runtime"
)

func newTestSettingsService(t *testing.T, store *mocks.MockSettingsStore, vectors *mocks.MockVectorStore) driving.SettingsService {
	t.Helper()
	svc, err := NewSettingsService(
		context.Background(),
		store,
		vectors,
		mocks.NewMockAIFactory(),
		runtime.NewServices(),
		slog.Default(),
	)
	if err != nil {
		t.Fatalf("NewSettingsService: %v", err)
	}
	return svc
}

func intPtr(v int) *int { return &v }

func strPtr(v string) *string { return &v }

func floatPtr(v float64) *float64 { return &v }

func TestSettingsService_DefaultsOnFirstStart(t *testing.T) {
	store := mocks.NewMockSettingsStore()
	svc := newTestSettingsService(t, store, mocks.NewMockVectorStore())

	cfg := svc.Current()
	want := domain.DefaultSettings()
	if cfg != want {
		t.Errorf("expected defaults, got %+v", cfg)
	}
	if store.Saves() != 1 {
		t.Errorf("expected defaults persisted once, got %d saves", store.Saves())
	}
}

func TestSettingsService_UpdateMergesPartially(t *testing.T) {
	svc := newTestSettingsService(t, mocks.NewMockSettingsStore(), mocks.NewMockVectorStore())

	view, err := svc.Update(context.Background(), driving.SettingsUpdate{
		ChunkSize:   intPtr(800),
		Temperature: floatPtr(0.2),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if view.ChunkSize != 800 {
		t.Errorf("expected chunk size 800, got %d", view.ChunkSize)
	}
	if view.Temperature != 0.2 {
		t.Errorf("expected temperature 0.2, got %v", view.Temperature)
	}

	// Untouched fields keep their defaults.
	defaults := domain.DefaultSettings()
	if view.ChunkOverlap != defaults.Processing.ChunkOverlap {
		t.Errorf("overlap changed unexpectedly: %d", view.ChunkOverlap)
	}
	if view.EmbeddingDimensions != defaults.Embedding.Dimensions {
		t.Errorf("dimensions changed unexpectedly: %d", view.EmbeddingDimensions)
	}
}

func TestSettingsService_RejectsOverlapNotBelowChunkSize(t *testing.T) {
	svc := newTestSettingsService(t, mocks.NewMockSettingsStore(), mocks.NewMockVectorStore())

	cases := []struct {
		name    string
		size    int
		overlap int
	}{
		{"equal", 100, 100},
		{"greater", 100, 150},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Update(context.Background(), driving.SettingsUpdate{
				ChunkSize:    intPtr(tc.size),
				ChunkOverlap: intPtr(tc.overlap),
			})
			if !errors.Is(err, domain.ErrInvalidConfig) {
				t.Fatalf("expected ErrInvalidConfig, got %v", err)
			}
		})
	}

	// The failed update must not be visible.
	if got := svc.Current().Processing.ChunkOverlap; got != domain.DefaultSettings().Processing.ChunkOverlap {
		t.Errorf("rejected update leaked into snapshot: overlap %d", got)
	}
}

func TestSettingsService_UpdateNotVisibleWhenPersistFails(t *testing.T) {
	store := mocks.NewMockSettingsStore()
	svc := newTestSettingsService(t, store, mocks.NewMockVectorStore())

	store.SetFailNext(errors.New("disk full"))
	if _, err := svc.Update(context.Background(), driving.SettingsUpdate{ChunkSize: intPtr(999)}); err == nil {
		t.Fatal("expected error")
	}
	if svc.Current().Processing.ChunkSize == 999 {
		t.Error("unpersisted update became visible")
	}
}

func TestSettingsService_ResetDatabase(t *testing.T) {
	vectors := mocks.NewMockVectorStore()
	svc := newTestSettingsService(t, mocks.NewMockSettingsStore(), vectors)

	emb := make([]float32, 4)
	err := vectors.Add(context.Background(),
		[]string{"id-1"}, []string{"text"}, [][]float32{emb},
		[]domain.ChunkMetadata{{FileID: "f1", Collection: "c"}})
	if err != nil {
		t.Fatalf("seeding store: %v", err)
	}

	if err := svc.ResetDatabase(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if vectors.Len() != 0 {
		t.Errorf("expected empty store after reset, got %d chunks", vectors.Len())
	}
}
