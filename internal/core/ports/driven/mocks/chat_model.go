package mocks

import (
	"context"
	"errors"

	"github.com/archivist-labs/docchat-core/internal/core/domain"
	"github.com/archivist-labs/docchat-core/internal/core/ports/driven"
)

// MockChatModel is a scriptable ChatModel for testing. ChatFn and
// StreamFn override the default behavior when set.
type MockChatModel struct {
	ChatFn   func(ctx context.Context, messages []domain.ConversationMessage, opts driven.ChatOptions) (*driven.ChatResult, error)
	StreamFn func(ctx context.Context, messages []domain.ConversationMessage, opts driven.ChatOptions) (<-chan driven.StreamToken, error)

	// Reply and Tokens drive the defaults.
	Reply  string
	Tokens []string
	Usage  *domain.Usage
}

// NewMockChatModel creates a MockChatModel with a canned answer.
func NewMockChatModel() *MockChatModel {
	return &MockChatModel{
		Reply:  "mock answer",
		Tokens: []string{"mock ", "answer"},
		Usage:  &domain.Usage{PromptTokens: 10, CompletionTokens: 2, TotalTokens: 12},
	}
}

func (m *MockChatModel) Chat(ctx context.Context, messages []domain.ConversationMessage, opts driven.ChatOptions) (*driven.ChatResult, error) {
	if m.ChatFn != nil {
		return m.ChatFn(ctx, messages, opts)
	}
	if len(messages) == 0 {
		return nil, errors.New("no messages")
	}
	return &driven.ChatResult{Message: m.Reply, Usage: m.Usage}, nil
}

func (m *MockChatModel) ChatStream(ctx context.Context, messages []domain.ConversationMessage, opts driven.ChatOptions) (<-chan driven.StreamToken, error) {
	if m.StreamFn != nil {
		return m.StreamFn(ctx, messages, opts)
	}

	ch := make(chan driven.StreamToken, len(m.Tokens)+1)
	go func() {
		defer close(ch)
		for _, tok := range m.Tokens {
			select {
			case <-ctx.Done():
				return
			case ch <- driven.StreamToken{Content: tok}:
			}
		}
		select {
		case <-ctx.Done():
		case ch <- driven.StreamToken{Usage: m.Usage, Done: true}:
		}
	}()
	return ch, nil
}

func (m *MockChatModel) Model() string {
	return "mock-chat-model"
}

func (m *MockChatModel) Ping(ctx context.Context) error {
	return nil
}

func (m *MockChatModel) Close() error {
	return nil
}
