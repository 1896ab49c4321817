package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/archivist-labs/docchat-core/internal/core/domain"
	"github.com/archivist-labs/docchat-core/internal/core/ports/driven"
	"github.com/archivist-labs/docchat-core/internal/core/ports/driving"
	"github.com/archivist-labs/docchat-core/internal/runtime"
)

// Ensure settingsService implements SettingsService
var _ driving.SettingsService = (*settingsService)(nil)

// settingsService owns the live settings snapshot. The snapshot is an
// immutable value swapped under the mutex; readers always see a
// complete configuration, never a torn one.
type settingsService struct {
	mu      sync.RWMutex
	current domain.Settings

	store       driven.SettingsStore
	vectorStore driven.VectorStore
	aiFactory   driven.AIFactory
	services    *runtime.Services
	logger      *slog.Logger
}

// NewSettingsService loads the persisted settings (writing defaults on
// first start), builds the AI services they select, and returns the
// service.
func NewSettingsService(
	ctx context.Context,
	store driven.SettingsStore,
	vectorStore driven.VectorStore,
	aiFactory driven.AIFactory,
	services *runtime.Services,
	logger *slog.Logger,
) (driving.SettingsService, error) {
	settings, err := store.Load(ctx)
	if errors.Is(err, domain.ErrNotFound) {
		settings = domain.DefaultSettings()
		if err := store.Save(ctx, settings); err != nil {
			return nil, fmt.Errorf("writing default settings: %w", err)
		}
		logger.Info("created default settings")
	} else if err != nil {
		return nil, fmt.Errorf("loading settings: %w", err)
	}

	if err := settings.Validate(); err != nil {
		return nil, fmt.Errorf("persisted settings invalid: %w", err)
	}

	s := &settingsService{
		current:     settings,
		store:       store,
		vectorStore: vectorStore,
		aiFactory:   aiFactory,
		services:    services,
		logger:      logger,
	}

	if err := s.rebuildAIServices(settings); err != nil {
		return nil, err
	}
	return s, nil
}

// Current returns the resolved snapshot.
func (s *settingsService) Current() domain.Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// View returns the client-facing flat shape.
func (s *settingsService) View() driving.SettingsView {
	return toView(s.Current())
}

// Update merges the partial update into a copy of the current
// snapshot, validates it, persists it, and only then makes it visible.
func (s *settingsService) Update(ctx context.Context, update driving.SettingsUpdate) (driving.SettingsView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	merged := applyUpdate(s.current, update)
	if err := merged.Validate(); err != nil {
		return driving.SettingsView{}, err
	}

	if err := s.store.Save(ctx, merged); err != nil {
		return driving.SettingsView{}, fmt.Errorf("persisting settings: %w", err)
	}

	if aiChanged(s.current, merged) {
		if err := s.rebuildAIServices(merged); err != nil {
			s.logger.Error("rebuilding AI services after settings update", "error", err)
		}
	}
	if s.current.Database != merged.Database || s.current.Server != merged.Server {
		s.logger.Info("database/server settings changed; new values take effect on restart")
	}

	s.current = merged
	s.logger.Info("settings updated")
	return toView(merged), nil
}

// ResetDatabase drops and recreates the vector index.
func (s *settingsService) ResetDatabase(ctx context.Context) error {
	if err := s.vectorStore.Reset(ctx); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrStoreFailed, err)
	}
	s.logger.Info("vector index reset")
	return nil
}

func (s *settingsService) rebuildAIServices(cfg domain.Settings) error {
	embedding, err := s.aiFactory.EmbeddingService(cfg)
	if err != nil {
		return fmt.Errorf("building embedding service: %w", err)
	}
	s.services.SetEmbeddingService(embedding)

	model, err := s.aiFactory.ChatModel(cfg)
	if err != nil {
		return fmt.Errorf("building chat model: %w", err)
	}
	s.services.SetChatModel(model)
	return nil
}

func aiChanged(old, updated domain.Settings) bool {
	return old.API != updated.API ||
		old.Embedding != updated.Embedding ||
		old.Model != updated.Model
}

// applyUpdate deep-merges the partial update into a copy of cur.
func applyUpdate(cur domain.Settings, u driving.SettingsUpdate) domain.Settings {
	if u.APIProvider != nil {
		cur.API.Provider = *u.APIProvider
	}
	if u.APIKey != nil {
		cur.API.APIKey = *u.APIKey
	}
	if u.APIBase != nil {
		cur.API.APIBase = *u.APIBase
	}
	if u.Port != nil {
		cur.Server.Port = *u.Port
	}
	if u.StoreBackend != nil {
		cur.Database.Backend = *u.StoreBackend
	}
	if u.StorePath != nil {
		cur.Database.Path = *u.StorePath
	}
	if u.ChromaURL != nil {
		cur.Database.ChromaURL = *u.ChromaURL
	}
	if u.PostgresURL != nil {
		cur.Database.PostgresURL = *u.PostgresURL
	}
	if u.EmbeddingProvider != nil {
		cur.Embedding.Provider = *u.EmbeddingProvider
	}
	if u.EmbeddingDimensions != nil {
		cur.Embedding.Dimensions = *u.EmbeddingDimensions
	}
	if u.ChunkSize != nil {
		cur.Processing.ChunkSize = *u.ChunkSize
	}
	if u.ChunkOverlap != nil {
		cur.Processing.ChunkOverlap = *u.ChunkOverlap
	}
	if u.RetrievalCount != nil {
		cur.Processing.RetrievalCount = *u.RetrievalCount
	}
	if u.ModelName != nil {
		cur.Model.Name = *u.ModelName
	}
	if u.Temperature != nil {
		cur.Model.Temperature = *u.Temperature
	}
	if u.MaxTokens != nil {
		cur.Model.MaxTokens = *u.MaxTokens
	}
	return cur
}

func toView(s domain.Settings) driving.SettingsView {
	return driving.SettingsView{
		APIProvider:         s.API.Provider,
		APIKey:              s.API.APIKey,
		APIBase:             s.API.APIBase,
		Port:                s.Server.Port,
		StoreBackend:        s.Database.Backend,
		StorePath:           s.Database.Path,
		ChromaURL:           s.Database.ChromaURL,
		PostgresURL:         s.Database.PostgresURL,
		EmbeddingProvider:   s.Embedding.Provider,
		EmbeddingDimensions: s.Embedding.Dimensions,
		ChunkSize:           s.Processing.ChunkSize,
		ChunkOverlap:        s.Processing.ChunkOverlap,
		RetrievalCount:      s.Processing.RetrievalCount,
		ModelName:           s.Model.Name,
		Temperature:         s.Model.Temperature,
		MaxTokens:           s.Model.MaxTokens,
	}
}
