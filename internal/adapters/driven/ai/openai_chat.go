package ai

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/archivist-labs/docchat-core/internal/core/domain"
	"github.com/archivist-labs/docchat-core/internal/core/ports/driven"
)

// Ensure OpenAIChat implements ChatModel
var _ driven.ChatModel = (*OpenAIChat)(nil)

// OpenAIChat talks to any OpenAI-compatible chat completions endpoint
// (OpenAI, DeepSeek, local gateways). The model name travels with each
// call, so one client survives settings updates that only change the
// model.
type OpenAIChat struct {
	apiKey  string
	baseURL string
	model   string
	client  *http.Client
}

// NewOpenAIChat creates a chat client for an OpenAI-compatible API.
func NewOpenAIChat(apiKey, baseURL, model string) (driven.ChatModel, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("%w: chat API key is required", domain.ErrInvalidConfig)
	}
	if baseURL == "" {
		return nil, fmt.Errorf("%w: chat API base URL is required", domain.ErrInvalidConfig)
	}

	return &OpenAIChat{
		apiKey:  apiKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		model:   model,
		client: &http.Client{
			// Generation can legitimately take minutes; streaming
			// reads are bounded by the request context instead.
			Timeout: 5 * time.Minute,
		},
	}, nil
}

// chatRequest is the request body for the chat completions endpoint
type chatRequest struct {
	Model         string                       `json:"model"`
	Messages      []domain.ConversationMessage `json:"messages"`
	Temperature   float64                      `json:"temperature"`
	MaxTokens     int                          `json:"max_tokens,omitempty"`
	Stream        bool                         `json:"stream,omitempty"`
	StreamOptions *streamOptions               `json:"stream_options,omitempty"`
}

type streamOptions struct {
	IncludeUsage bool `json:"include_usage"`
}

// chatResponse is the non-streamed response body
type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Usage *domain.Usage `json:"usage"`
	Error *apiError     `json:"error,omitempty"`
}

// chatStreamChunk is one SSE data payload of a streamed response
type chatStreamChunk struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
		FinishReason *string `json:"finish_reason"`
	} `json:"choices"`
	Usage *domain.Usage `json:"usage"`
	Error *apiError     `json:"error,omitempty"`
}

// Chat performs a synchronous completion over the full message list.
func (c *OpenAIChat) Chat(ctx context.Context, messages []domain.ConversationMessage, opts driven.ChatOptions) (*driven.ChatResult, error) {
	resp, err := c.send(ctx, chatRequest{
		Model:       c.resolveModel(opts),
		Messages:    messages,
		Temperature: opts.Temperature,
		MaxTokens:   opts.MaxTokens,
	})
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var chatResp chatResponse
	if err := json.Unmarshal(body, &chatResp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	if chatResp.Error != nil {
		return nil, fmt.Errorf("chat API error: %s (type: %s, code: %s)",
			chatResp.Error.Message, chatResp.Error.Type, chatResp.Error.Code)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("chat API returned status %d", resp.StatusCode)
	}
	if len(chatResp.Choices) == 0 {
		return nil, fmt.Errorf("chat API returned no choices")
	}

	return &driven.ChatResult{
		Message: chatResp.Choices[0].Message.Content,
		Usage:   chatResp.Usage,
	}, nil
}

// ChatStream opens a completion as a token stream. The response body is
// consumed on a goroutine; the channel closes when the provider sends
// [DONE], on error, or when ctx cancels the request.
func (c *OpenAIChat) ChatStream(ctx context.Context, messages []domain.ConversationMessage, opts driven.ChatOptions) (<-chan driven.StreamToken, error) {
	resp, err := c.send(ctx, chatRequest{
		Model:         c.resolveModel(opts),
		Messages:      messages,
		Temperature:   opts.Temperature,
		MaxTokens:     opts.MaxTokens,
		Stream:        true,
		StreamOptions: &streamOptions{IncludeUsage: true},
	})
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		var errResp chatResponse
		if json.Unmarshal(body, &errResp) == nil && errResp.Error != nil {
			return nil, fmt.Errorf("chat API error: %s", errResp.Error.Message)
		}
		return nil, fmt.Errorf("chat API returned status %d", resp.StatusCode)
	}

	tokens := make(chan driven.StreamToken)
	go c.readStream(ctx, resp.Body, tokens)
	return tokens, nil
}

func (c *OpenAIChat) readStream(ctx context.Context, body io.ReadCloser, tokens chan<- driven.StreamToken) {
	defer close(tokens)
	defer body.Close()

	emit := func(tok driven.StreamToken) bool {
		select {
		case <-ctx.Done():
			return false
		case tokens <- tok:
			return true
		}
	}

	var usage *domain.Usage
	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if !strings.HasPrefix(line, "data:") {
			continue
		}
		payload := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		if payload == "[DONE]" {
			emit(driven.StreamToken{Usage: usage, Done: true})
			return
		}

		var chunk chatStreamChunk
		if err := json.Unmarshal([]byte(payload), &chunk); err != nil {
			emit(driven.StreamToken{Err: fmt.Errorf("failed to parse stream chunk: %w", err)})
			return
		}
		if chunk.Error != nil {
			emit(driven.StreamToken{Err: fmt.Errorf("chat API error: %s", chunk.Error.Message)})
			return
		}
		if chunk.Usage != nil {
			usage = chunk.Usage
		}
		if len(chunk.Choices) > 0 {
			if content := chunk.Choices[0].Delta.Content; content != "" {
				if !emit(driven.StreamToken{Content: content}) {
					return
				}
			}
		}
	}

	if err := scanner.Err(); err != nil && ctx.Err() == nil {
		emit(driven.StreamToken{Err: fmt.Errorf("stream read failed: %w", err)})
		return
	}
	// Stream ended without [DONE]; treat the data received so far as
	// the complete answer.
	if ctx.Err() == nil {
		emit(driven.StreamToken{Usage: usage, Done: true})
	}
}

// Model returns the model name being used
func (c *OpenAIChat) Model() string {
	return c.model
}

// Ping verifies the model provider is reachable
func (c *OpenAIChat) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, "GET", c.baseURL+"/models", nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("chat API unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusInternalServerError {
		return fmt.Errorf("chat API returned status %d", resp.StatusCode)
	}
	return nil
}

// Close releases resources held by the client
func (c *OpenAIChat) Close() error {
	c.client.CloseIdleConnections()
	return nil
}

func (c *OpenAIChat) resolveModel(opts driven.ChatOptions) string {
	if opts.Model != "" {
		return opts.Model
	}
	return c.model
}

func (c *OpenAIChat) send(ctx context.Context, reqBody chatRequest) (*http.Response, error) {
	body, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	return resp, nil
}
