package driven

import (
	"context"

	"github.com/archivist-labs/docchat-core/internal/core/domain"
)

// ChatOptions carries the per-call generation parameters resolved from
// settings.
type ChatOptions struct {
	Model       string
	Temperature float64
	MaxTokens   int
}

// ChatResult is a complete, non-streamed model answer.
type ChatResult struct {
	Message string
	Usage   *domain.Usage
}

// StreamToken is one increment of a streamed model answer. Usage, when
// the provider reports it, arrives on the final token before Done.
type StreamToken struct {
	Content string
	Usage   *domain.Usage
	Done    bool
	Err     error
}

// ChatModel invokes the generative model, either atomically or as an
// incremental token stream.
type ChatModel interface {
	// Chat performs a synchronous completion over the full message list.
	Chat(ctx context.Context, messages []domain.ConversationMessage, opts ChatOptions) (*ChatResult, error)

	// ChatStream opens a completion as a token stream. The returned
	// channel is closed after the Done or error token, or when ctx is
	// cancelled; the underlying call terminates with it.
	ChatStream(ctx context.Context, messages []domain.ConversationMessage, opts ChatOptions) (<-chan StreamToken, error)

	// Model returns the model name being used
	Model() string

	// Ping verifies the model provider is reachable
	Ping(ctx context.Context) error

	// Close releases resources held by the client
	Close() error
}
