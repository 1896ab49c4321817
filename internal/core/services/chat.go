package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/archivist-labs/docchat-core/internal/core/domain"
	"github.com/archivist-labs/docchat-core/internal/core/ports/driven"
	"github.com/archivist-labs/docchat-core/internal/core/ports/driving"
	"github.com/archivist-labs/docchat-core/internal/runtime"
)

// Ensure chatService implements ChatService
var _ driving.ChatService = (*chatService)(nil)

// chatService assembles the prompt from history plus retrieved context
// and invokes the generative model, atomically or as an event stream.
type chatService struct {
	retrieval *retrievalService
	services  *runtime.Services
	settings  driving.SettingsService
	logger    *slog.Logger
}

// NewChatService creates a new ChatService
func NewChatService(
	store driven.VectorStore,
	services *runtime.Services,
	settings driving.SettingsService,
	logger *slog.Logger,
) driving.ChatService {
	return &chatService{
		retrieval: newRetrievalService(store, services, settings, logger),
		services:  services,
		settings:  settings,
		logger:    logger,
	}
}

// prepared is the shared front half of both delivery modes: validated
// input, retrieved context, and the assembled message list.
type prepared struct {
	messages []domain.ConversationMessage
	contexts []domain.RetrievedContext
	opts     driven.ChatOptions
}

func (s *chatService) prepare(ctx context.Context, req driving.ChatRequest) (*prepared, error) {
	message := strings.TrimSpace(req.Message)
	if message == "" {
		return nil, fmt.Errorf("%w: message is required", domain.ErrInvalidInput)
	}
	if err := domain.ValidateHistory(req.History); err != nil {
		return nil, err
	}

	cfg := s.settings.Current()

	contexts, err := s.retrieval.Retrieve(ctx, message, cfg.Processing.RetrievalCount, strings.TrimSpace(req.Collection))
	if err != nil {
		return nil, err
	}

	messages := make([]domain.ConversationMessage, 0, len(req.History)+2)
	messages = append(messages, domain.ConversationMessage{
		Role:    domain.RoleSystem,
		Content: domain.BuildSystemPrompt(contexts),
	})
	messages = append(messages, req.History...)
	messages = append(messages, domain.ConversationMessage{
		Role:    domain.RoleUser,
		Content: message,
	})

	return &prepared{
		messages: messages,
		contexts: contexts,
		opts: driven.ChatOptions{
			Model:       cfg.Model.Name,
			Temperature: cfg.Model.Temperature,
			MaxTokens:   cfg.Model.MaxTokens,
		},
	}, nil
}

func sourceRefs(contexts []domain.RetrievedContext) []domain.SourceRef {
	sources := make([]domain.SourceRef, 0, len(contexts))
	for _, c := range contexts {
		sources = append(sources, c.Source())
	}
	return sources
}

// Ask runs the pipeline synchronously and returns one answer.
func (s *chatService) Ask(ctx context.Context, req driving.ChatRequest) (*domain.ChatAnswer, error) {
	prep, err := s.prepare(ctx, req)
	if err != nil {
		return nil, err
	}

	model := s.services.ChatModel()
	if model == nil {
		return nil, fmt.Errorf("%w: no chat model configured", domain.ErrModelFailed)
	}

	result, err := model.Chat(ctx, prep.messages, prep.opts)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrModelFailed, err)
	}

	return &domain.ChatAnswer{
		Message: result.Message,
		Sources: sourceRefs(prep.contexts),
		Usage:   result.Usage,
	}, nil
}

// AskStream runs the pipeline and delivers the answer as an ordered
// event stream. Preparation errors are returned directly so the caller
// can still answer with a plain error response; once the channel is
// handed out every failure arrives as a terminal error event. The
// sources event always precedes any content; cancellation closes the
// channel without a done event.
func (s *chatService) AskStream(ctx context.Context, req driving.ChatRequest) (<-chan domain.StreamEvent, error) {
	prep, err := s.prepare(ctx, req)
	if err != nil {
		return nil, err
	}

	model := s.services.ChatModel()
	if model == nil {
		return nil, fmt.Errorf("%w: no chat model configured", domain.ErrModelFailed)
	}

	events := make(chan domain.StreamEvent)
	go s.stream(ctx, model, prep, events)
	return events, nil
}

func (s *chatService) stream(ctx context.Context, model driven.ChatModel, prep *prepared, events chan<- domain.StreamEvent) {
	defer close(events)

	emit := func(ev domain.StreamEvent) bool {
		select {
		case <-ctx.Done():
			return false
		case events <- ev:
			return true
		}
	}

	if !emit(domain.SourcesEvent(sourceRefs(prep.contexts))) {
		return
	}

	tokens, err := model.ChatStream(ctx, prep.messages, prep.opts)
	if err != nil {
		emit(domain.ErrorEvent(fmt.Errorf("%w: %v", domain.ErrModelFailed, err)))
		return
	}

	var usage *domain.Usage
	for tok := range tokens {
		if tok.Err != nil {
			emit(domain.ErrorEvent(tok.Err))
			return
		}
		if tok.Content != "" {
			if !emit(domain.ContentEvent(tok.Content)) {
				return
			}
		}
		if tok.Usage != nil {
			usage = tok.Usage
		}
		if tok.Done {
			break
		}
	}

	select {
	case <-ctx.Done():
		// Cancelled mid-stream: no done event.
		return
	default:
	}

	if usage != nil {
		if !emit(domain.UsageEvent(usage)) {
			return
		}
	}
	emit(domain.DoneEvent())
}
