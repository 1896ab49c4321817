package http

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/archivist-labs/docchat-core/internal/core/domain"
	"github.com/archivist-labs/docchat-core/internal/core/ports/driving"
)

// handleChatStream answers a chat request as a server-sent event
// stream. Failures before the stream opens are plain HTTP errors;
// after the first event every failure arrives as an error event on the
// wire. A client disconnect cancels the request context, which stops
// the pipeline without a done event.
func (s *Server) handleChatStream(w http.ResponseWriter, r *http.Request) {
	var req driving.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}

	events, err := s.chatService.AskStream(r.Context(), req)
	if err != nil {
		writeServiceError(w, "Failed to process chat", err)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "Streaming unsupported", "")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	for event := range events {
		if err := writeEvent(w, event); err != nil {
			// Client gone; the context cancellation drains the rest.
			return
		}
		flusher.Flush()
	}
}

// writeEvent frames one typed event as an SSE data line.
func writeEvent(w http.ResponseWriter, event domain.StreamEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "data: %s\n\n", data)
	return err
}
