// Package runtime holds the AI services that can be swapped while the
// process runs. Settings updates rebuild the embedding and chat model
// clients; everything else reads them through this registry.
package runtime

import (
	"context"
	"sync"

	"github.com/archivist-labs/docchat-core/internal/core/ports/driven"
)

// Services holds references to dynamically configurable services.
// Thread-safe for concurrent access.
type Services struct {
	mu sync.RWMutex

	embeddingService driven.EmbeddingService
	chatModel        driven.ChatModel
}

// NewServices creates an empty registry.
func NewServices() *Services {
	return &Services{}
}

// EmbeddingService returns the current embedding service (may be nil).
func (s *Services) EmbeddingService() driven.EmbeddingService {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.embeddingService
}

// ChatModel returns the current chat model client (may be nil).
func (s *Services) ChatModel() driven.ChatModel {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.chatModel
}

// SetEmbeddingService swaps the embedding service, closing the old one.
func (s *Services) SetEmbeddingService(svc driven.EmbeddingService) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.embeddingService != nil {
		_ = s.embeddingService.Close()
	}
	s.embeddingService = svc
}

// SetChatModel swaps the chat model client, closing the old one.
func (s *Services) SetChatModel(m driven.ChatModel) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.chatModel != nil {
		_ = s.chatModel.Close()
	}
	s.chatModel = m
}

// ValidateAndSetEmbedding verifies connectivity before swapping in the
// embedding service.
func (s *Services) ValidateAndSetEmbedding(ctx context.Context, svc driven.EmbeddingService) error {
	if svc == nil {
		s.SetEmbeddingService(nil)
		return nil
	}
	if err := svc.HealthCheck(ctx); err != nil {
		_ = svc.Close()
		return err
	}
	s.SetEmbeddingService(svc)
	return nil
}

// Close shuts down all held services.
func (s *Services) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.embeddingService != nil {
		_ = s.embeddingService.Close()
		s.embeddingService = nil
	}
	if s.chatModel != nil {
		_ = s.chatModel.Close()
		s.chatModel = nil
	}
	return nil
}
