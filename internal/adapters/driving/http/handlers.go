package http

import (
	"encoding/json"
	"errors"
	"mime"
	"net/http"
	"os"
	"path/filepath"

	"github.com/archivist-labs/docchat-core/internal/core/domain"
	"github.com/archivist-labs/docchat-core/internal/core/ports/driving"
)

// ErrorResponse represents an API error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// SuccessResponse is the envelope of every successful data-carrying
// response
type SuccessResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

// Health endpoints

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Ping(r.Context()); err != nil {
		writeError(w, http.StatusServiceUnavailable, "Vector store unavailable", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"version": s.version})
}

// Chat endpoints

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req driving.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}

	answer, err := s.chatService.Ask(r.Context(), req)
	if err != nil {
		writeServiceError(w, "Failed to process chat", err)
		return
	}

	writeSuccess(w, "", answer)
}

// Ingestion endpoint

func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	staged, err := s.stageUpload(r)
	if err != nil {
		writeServiceError(w, "Failed to ingest document", err)
		return
	}

	result, err := s.ingestService.Ingest(r.Context(), driving.IngestRequest{
		FilePath:       staged.Path,
		StoredFileName: staged.StoredName,
		FileName:       staged.OriginalName,
		Collection:     staged.Collection,
	})
	if err != nil {
		writeServiceError(w, "Failed to ingest document", err)
		return
	}

	writeSuccess(w, "Document ingested successfully", result)
}

// File management endpoints

func (s *Server) handleListFiles(w http.ResponseWriter, r *http.Request) {
	files, err := s.fileService.List(r.Context())
	if err != nil {
		writeServiceError(w, "Failed to get files", err)
		return
	}
	writeSuccess(w, "", files)
}

func (s *Server) handleFileStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.fileService.Stats(r.Context())
	if err != nil {
		writeServiceError(w, "Failed to get stats", err)
		return
	}
	writeSuccess(w, "", stats)
}

func (s *Server) handleDownloadFile(w http.ResponseWriter, r *http.Request) {
	// Base strips any path traversal in the stored name.
	storedFileName := filepath.Base(r.PathValue("storedFileName"))
	if storedFileName == "" || storedFileName == "." {
		writeError(w, http.StatusBadRequest, "Stored filename is required", "")
		return
	}

	displayName, err := s.fileService.DisplayName(r.Context(), storedFileName)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeError(w, http.StatusNotFound, "File not found", "")
			return
		}
		writeServiceError(w, "Failed to download file", err)
		return
	}

	path := filepath.Join(s.uploadsDir, storedFileName)
	if _, err := os.Stat(path); err != nil {
		writeError(w, http.StatusNotFound, "File not found", "")
		return
	}

	disposition := mime.FormatMediaType("attachment", map[string]string{"filename": displayName})
	w.Header().Set("Content-Disposition", disposition)
	http.ServeFile(w, r, path)
}

func (s *Server) handleDeleteFile(w http.ResponseWriter, r *http.Request) {
	fileID := r.PathValue("fileId")

	deleted, err := s.fileService.Delete(r.Context(), fileID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeError(w, http.StatusNotFound, "File not found", "")
			return
		}
		writeServiceError(w, "Failed to delete file", err)
		return
	}

	writeSuccess(w, "File deleted successfully", map[string]any{
		"fileId":        fileID,
		"deletedChunks": deleted,
	})
}

// Settings endpoints

func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	writeSuccess(w, "", s.settingsService.View())
}

func (s *Server) handleUpdateSettings(w http.ResponseWriter, r *http.Request) {
	var update driving.SettingsUpdate
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}

	view, err := s.settingsService.Update(r.Context(), update)
	if err != nil {
		writeServiceError(w, "Failed to update settings", err)
		return
	}

	writeSuccess(w, "Settings updated successfully", view)
}

func (s *Server) handleResetDatabase(w http.ResponseWriter, r *http.Request) {
	if err := s.settingsService.ResetDatabase(r.Context()); err != nil {
		writeServiceError(w, "Failed to reset database", err)
		return
	}
	writeSuccess(w, "Database reset successfully", nil)
}

// Response helpers

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeSuccess(w http.ResponseWriter, message string, data any) {
	writeJSON(w, http.StatusOK, SuccessResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}

func writeError(w http.ResponseWriter, status int, label, message string) {
	writeJSON(w, status, ErrorResponse{Error: label, Message: message})
}

// writeServiceError maps a service error to its HTTP shape. Duplicates
// become a 409 naming the rejection mode; validation problems become a
// 400; everything else is a 500 carrying fallback as the error label.
func writeServiceError(w http.ResponseWriter, fallback string, err error) {
	if dup, ok := domain.IsDuplicate(err); ok {
		writeError(w, http.StatusConflict, string(dup.Reason), dup.Error())
		return
	}

	switch {
	case errors.Is(err, domain.ErrInvalidInput),
		errors.Is(err, domain.ErrUnsupportedFormat),
		errors.Is(err, domain.ErrInvalidConfig):
		writeError(w, http.StatusBadRequest, fallback, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, fallback, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, fallback, err.Error())
	}
}
