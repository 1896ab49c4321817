package domain

// StreamEventType enumerates the typed events of a chat stream.
type StreamEventType string

const (
	StreamEventSources StreamEventType = "sources"
	StreamEventContent StreamEventType = "content"
	StreamEventUsage   StreamEventType = "usage"
	StreamEventDone    StreamEventType = "done"
	StreamEventError   StreamEventType = "error"
)

// StreamEvent is one self-contained message of a streaming chat
// response. A successful stream emits exactly one sources event first,
// then zero or more content events, an optional usage event, and a
// terminal done event. A stream aborted by the client emits no done
// event; a failure after the stream opened emits a terminal error event.
type StreamEvent struct {
	Type    StreamEventType `json:"type"`
	Sources []SourceRef     `json:"sources"`
	Content string          `json:"content,omitempty"`
	Usage   *Usage          `json:"usage,omitempty"`
	Error   string          `json:"error,omitempty"`
}

// SourcesEvent builds the leading event of a stream.
func SourcesEvent(sources []SourceRef) StreamEvent {
	if sources == nil {
		sources = []SourceRef{}
	}
	return StreamEvent{Type: StreamEventSources, Sources: sources}
}

// ContentEvent carries an incremental text fragment.
func ContentEvent(text string) StreamEvent {
	return StreamEvent{Type: StreamEventContent, Content: text}
}

// UsageEvent carries the model's token accounting.
func UsageEvent(u *Usage) StreamEvent {
	return StreamEvent{Type: StreamEventUsage, Usage: u}
}

// DoneEvent terminates a successful stream.
func DoneEvent() StreamEvent {
	return StreamEvent{Type: StreamEventDone}
}

// ErrorEvent terminates a stream that failed after delivery started.
func ErrorEvent(err error) StreamEvent {
	return StreamEvent{Type: StreamEventError, Error: err.Error()}
}
