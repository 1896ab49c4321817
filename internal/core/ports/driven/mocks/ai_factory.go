package mocks

import (
	"github.com/archivist-labs/docchat-core/internal/core/domain"
	"github.com/archivist-labs/docchat-core/internal/core/ports/driven"
)

// MockAIFactory hands out the configured mock services.
type MockAIFactory struct {
	Embedding *MockEmbeddingService
	Chat      *MockChatModel
	FailWith  error
}

// NewMockAIFactory creates a factory wired to fresh mocks.
func NewMockAIFactory() *MockAIFactory {
	return &MockAIFactory{
		Embedding: NewMockEmbeddingService(),
		Chat:      NewMockChatModel(),
	}
}

func (f *MockAIFactory) EmbeddingService(cfg domain.Settings) (driven.EmbeddingService, error) {
	if f.FailWith != nil {
		return nil, f.FailWith
	}
	f.Embedding.SetDimensions(cfg.Embedding.Dimensions)
	return f.Embedding, nil
}

func (f *MockAIFactory) ChatModel(cfg domain.Settings) (driven.ChatModel, error) {
	if f.FailWith != nil {
		return nil, f.FailWith
	}
	return f.Chat, nil
}
