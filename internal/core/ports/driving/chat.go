package driving

import (
	"context"

	"github.com/archivist-labs/docchat-core/internal/core/domain"
)

// ChatRequest is a user turn plus the caller-supplied conversation
// history. Collection optionally narrows retrieval to one scope.
type ChatRequest struct {
	Message    string                       `json:"message"`
	History    []domain.ConversationMessage `json:"history"`
	Collection string                       `json:"collection,omitempty"`
}

// ChatService answers questions over the ingested corpus.
type ChatService interface {
	// Ask runs the full pipeline synchronously and returns one answer.
	Ask(ctx context.Context, req ChatRequest) (*domain.ChatAnswer, error)

	// AskStream runs the same pipeline but delivers the answer as an
	// ordered event stream: sources first, then content fragments, an
	// optional usage event, and a terminal done event. Errors raised
	// before any event is produced are returned directly; later
	// failures arrive as a terminal error event. Cancelling ctx stops
	// the stream without a done event.
	AskStream(ctx context.Context, req ChatRequest) (<-chan domain.StreamEvent, error)
}
