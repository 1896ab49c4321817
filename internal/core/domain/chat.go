package domain

import (
	"fmt"
	"math"
	"unicode/utf8"
)

// Message roles. History is caller-supplied and never persisted server-side.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

// ConversationMessage is one turn of a chat conversation.
type ConversationMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Usage reports token accounting from the generative model, passed
// through verbatim when the provider supplies it.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// SourcePreviewLen bounds the chunk text echoed back in the sources
// payload. The full chunk text still goes into the model prompt.
const SourcePreviewLen = 200

// RetrievedContext is one retrieved chunk, produced per query and
// consumed immediately to build the prompt and the sources response.
type RetrievedContext struct {
	Text     string        `json:"text"`
	Metadata ChunkMetadata `json:"metadata"`
	Distance float64       `json:"distance"`
}

// Relevance maps distance to a display score of 1 - distance, rounded
// to three decimals.
func (c RetrievedContext) Relevance() float64 {
	return math.Round((1-c.Distance)*1000) / 1000
}

// Source converts the retrieved chunk into its client-facing form with
// a bounded text preview.
func (c RetrievedContext) Source() SourceRef {
	text := truncatePreview(c.Text, SourcePreviewLen)
	return SourceRef{
		FileName:   c.Metadata.FileName,
		ChunkIndex: c.Metadata.ChunkIndex,
		Text:       text,
		Relevance:  c.Relevance(),
	}
}

// truncatePreview cuts text to at most max bytes without splitting a
// multi-byte character, appending an ellipsis when anything was cut.
func truncatePreview(text string, max int) string {
	if len(text) <= max {
		return text
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(text[cut]) {
		cut--
	}
	return text[:cut] + "..."
}

// SourceRef is the per-source entry of a chat response.
type SourceRef struct {
	FileName   string  `json:"fileName"`
	ChunkIndex int     `json:"chunkIndex"`
	Text       string  `json:"text"`
	Relevance  float64 `json:"relevance"`
}

// ChatAnswer is the result of a batch chat request.
type ChatAnswer struct {
	Message string      `json:"message"`
	Sources []SourceRef `json:"sources"`
	Usage   *Usage      `json:"usage,omitempty"`
}

// BuildSystemPrompt assembles the instruction prompt, concatenating the
// full text of the retrieved context when any was found.
func BuildSystemPrompt(contexts []RetrievedContext) string {
	if len(contexts) == 0 {
		return "You are a helpful assistant."
	}
	prompt := "You are a helpful assistant. Use the following context to answer questions. " +
		"If the answer cannot be found in the context, say so.\n\nContext:\n"
	for i, c := range contexts {
		if i > 0 {
			prompt += "\n\n"
		}
		prompt += c.Text
	}
	return prompt
}

// ValidateHistory rejects messages with roles the model API would refuse.
func ValidateHistory(history []ConversationMessage) error {
	for _, m := range history {
		switch m.Role {
		case RoleUser, RoleAssistant:
		default:
			return fmt.Errorf("%w: history role %q", ErrInvalidInput, m.Role)
		}
	}
	return nil
}
