package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/archivist-labs/docchat-core/internal/core/domain"
	"github.com/archivist-labs/docchat-core/internal/core/ports/driving"
)

// Mock services for testing

type mockChatService struct {
	askFn       func(ctx context.Context, req driving.ChatRequest) (*domain.ChatAnswer, error)
	askStreamFn func(ctx context.Context, req driving.ChatRequest) (<-chan domain.StreamEvent, error)
}

func (m *mockChatService) Ask(ctx context.Context, req driving.ChatRequest) (*domain.ChatAnswer, error) {
	if m.askFn != nil {
		return m.askFn(ctx, req)
	}
	return nil, errors.New("not implemented")
}

func (m *mockChatService) AskStream(ctx context.Context, req driving.ChatRequest) (<-chan domain.StreamEvent, error) {
	if m.askStreamFn != nil {
		return m.askStreamFn(ctx, req)
	}
	return nil, errors.New("not implemented")
}

type mockIngestService struct {
	ingestFn func(ctx context.Context, req driving.IngestRequest) (*domain.IngestResult, error)
}

func (m *mockIngestService) Ingest(ctx context.Context, req driving.IngestRequest) (*domain.IngestResult, error) {
	if m.ingestFn != nil {
		return m.ingestFn(ctx, req)
	}
	return nil, errors.New("not implemented")
}

type mockFileService struct {
	listFn        func(ctx context.Context) ([]domain.FileInfo, error)
	deleteFn      func(ctx context.Context, fileID string) (int, error)
	statsFn       func(ctx context.Context) (domain.StoreStats, error)
	displayNameFn func(ctx context.Context, storedFileName string) (string, error)
}

func (m *mockFileService) List(ctx context.Context) ([]domain.FileInfo, error) {
	if m.listFn != nil {
		return m.listFn(ctx)
	}
	return nil, errors.New("not implemented")
}

func (m *mockFileService) Delete(ctx context.Context, fileID string) (int, error) {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, fileID)
	}
	return 0, errors.New("not implemented")
}

func (m *mockFileService) Stats(ctx context.Context) (domain.StoreStats, error) {
	if m.statsFn != nil {
		return m.statsFn(ctx)
	}
	return domain.StoreStats{}, errors.New("not implemented")
}

func (m *mockFileService) DisplayName(ctx context.Context, storedFileName string) (string, error) {
	if m.displayNameFn != nil {
		return m.displayNameFn(ctx, storedFileName)
	}
	return "", errors.New("not implemented")
}

type mockSettingsService struct {
	updateFn func(ctx context.Context, update driving.SettingsUpdate) (driving.SettingsView, error)
	resetFn  func(ctx context.Context) error
}

func (m *mockSettingsService) Current() domain.Settings {
	return domain.DefaultSettings()
}

func (m *mockSettingsService) View() driving.SettingsView {
	return driving.SettingsView{ChunkSize: 500, ChunkOverlap: 50}
}

func (m *mockSettingsService) Update(ctx context.Context, update driving.SettingsUpdate) (driving.SettingsView, error) {
	if m.updateFn != nil {
		return m.updateFn(ctx, update)
	}
	return driving.SettingsView{}, errors.New("not implemented")
}

func (m *mockSettingsService) ResetDatabase(ctx context.Context) error {
	if m.resetFn != nil {
		return m.resetFn(ctx)
	}
	return nil
}

type mockPinger struct {
	err error
}

func (m *mockPinger) Ping(ctx context.Context) error { return m.err }

type testServer struct {
	server   *Server
	chat     *mockChatService
	ingest   *mockIngestService
	files    *mockFileService
	settings *mockSettingsService
	pinger   *mockPinger
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	ts := &testServer{
		chat:     &mockChatService{},
		ingest:   &mockIngestService{},
		files:    &mockFileService{},
		settings: &mockSettingsService{},
		pinger:   &mockPinger{},
	}

	cfg := DefaultConfig()
	cfg.UploadsDir = t.TempDir()
	ts.server = NewServer(cfg, ts.chat, ts.ingest, ts.files, ts.settings, ts.pinger)
	return ts
}

func (ts *testServer) do(t *testing.T, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	ts.server.Handler().ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decoding response %q: %v", rec.Body.String(), err)
	}
	return out
}

func TestHandleHealth(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, httptest.NewRequest("GET", "/health", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d, want 200", rec.Code)
	}

	ts.pinger.err = errors.New("store down")
	rec = ts.do(t, httptest.NewRequest("GET", "/health", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status %d, want 503", rec.Code)
	}
}

func TestHandleChat(t *testing.T) {
	ts := newTestServer(t)
	ts.chat.askFn = func(ctx context.Context, req driving.ChatRequest) (*domain.ChatAnswer, error) {
		if req.Message != "what is X" || req.Collection != "manuals" {
			t.Errorf("request not decoded: %+v", req)
		}
		return &domain.ChatAnswer{
			Message: "X is Y",
			Sources: []domain.SourceRef{{FileName: "doc.txt", ChunkIndex: 0, Text: "X is Y because", Relevance: 0.91}},
			Usage:   &domain.Usage{PromptTokens: 10, CompletionTokens: 5, TotalTokens: 15},
		}, nil
	}

	body := `{"message": "what is X", "history": [], "collection": "manuals"}`
	rec := ts.do(t, httptest.NewRequest("POST", "/api/chat", strings.NewReader(body)))
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rec.Code, rec.Body.String())
	}

	resp := decodeBody[struct {
		Success bool              `json:"success"`
		Data    domain.ChatAnswer `json:"data"`
	}](t, rec)
	if !resp.Success {
		t.Error("success envelope missing")
	}
	if resp.Data.Message != "X is Y" || len(resp.Data.Sources) != 1 {
		t.Errorf("unexpected data: %+v", resp.Data)
	}
}

func TestHandleChat_ValidationError(t *testing.T) {
	ts := newTestServer(t)
	ts.chat.askFn = func(ctx context.Context, req driving.ChatRequest) (*domain.ChatAnswer, error) {
		return nil, domain.ErrInvalidInput
	}

	rec := ts.do(t, httptest.NewRequest("POST", "/api/chat", strings.NewReader(`{"message": ""}`)))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status %d, want 400", rec.Code)
	}
}

func multipartBody(t *testing.T, fileName, content, collection string) (*bytes.Buffer, string) {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if collection != "" {
		if err := mw.WriteField("collection", collection); err != nil {
			t.Fatal(err)
		}
	}
	if fileName != "" {
		fw, err := mw.CreateFormFile("file", fileName)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := fw.Write([]byte(content)); err != nil {
			t.Fatal(err)
		}
	}
	if err := mw.Close(); err != nil {
		t.Fatal(err)
	}
	return &buf, mw.FormDataContentType()
}

func TestHandleIngest(t *testing.T) {
	ts := newTestServer(t)
	ts.ingest.ingestFn = func(ctx context.Context, req driving.IngestRequest) (*domain.IngestResult, error) {
		if req.FileName != "manual.txt" || req.Collection != "manuals" {
			t.Errorf("request not staged correctly: %+v", req)
		}
		if req.FilePath == "" || req.StoredFileName == "" {
			t.Error("staging left path or stored name empty")
		}
		return &domain.IngestResult{FileName: req.FileName, FileID: "id-1", ChunkCount: 3, TextLength: 42}, nil
	}

	body, contentType := multipartBody(t, "manual.txt", "some document text", "manuals")
	req := httptest.NewRequest("POST", "/api/ingest", body)
	req.Header.Set("Content-Type", contentType)

	rec := ts.do(t, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rec.Code, rec.Body.String())
	}

	resp := decodeBody[struct {
		Success bool                `json:"success"`
		Data    domain.IngestResult `json:"data"`
	}](t, rec)
	if resp.Data.ChunkCount != 3 {
		t.Errorf("unexpected data: %+v", resp.Data)
	}
}

func TestHandleIngest_MissingCollection(t *testing.T) {
	ts := newTestServer(t)

	body, contentType := multipartBody(t, "manual.txt", "text", "   ")
	req := httptest.NewRequest("POST", "/api/ingest", body)
	req.Header.Set("Content-Type", contentType)

	rec := ts.do(t, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status %d, want 400: %s", rec.Code, rec.Body.String())
	}
}

func TestHandleIngest_UnsupportedExtension(t *testing.T) {
	ts := newTestServer(t)

	body, contentType := multipartBody(t, "malware.exe", "MZ", "manuals")
	req := httptest.NewRequest("POST", "/api/ingest", body)
	req.Header.Set("Content-Type", contentType)

	rec := ts.do(t, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status %d, want 400: %s", rec.Code, rec.Body.String())
	}
}

func TestHandleIngest_DuplicateIsConflict(t *testing.T) {
	ts := newTestServer(t)
	ts.ingest.ingestFn = func(ctx context.Context, req driving.IngestRequest) (*domain.IngestResult, error) {
		return nil, &domain.DuplicateError{
			Reason:             domain.DuplicateContent,
			FileName:           req.FileName,
			ExistingFileName:   "earlier.txt",
			ExistingCollection: "archive",
		}
	}

	body, contentType := multipartBody(t, "manual.txt", "same bytes", "manuals")
	req := httptest.NewRequest("POST", "/api/ingest", body)
	req.Header.Set("Content-Type", contentType)

	rec := ts.do(t, req)
	if rec.Code != http.StatusConflict {
		t.Fatalf("status %d, want 409: %s", rec.Code, rec.Body.String())
	}

	resp := decodeBody[ErrorResponse](t, rec)
	if resp.Error != string(domain.DuplicateContent) {
		t.Errorf("error label %q, want DuplicateContent", resp.Error)
	}
	if !strings.Contains(resp.Message, "earlier.txt") || !strings.Contains(resp.Message, "archive") {
		t.Errorf("conflict message does not name the existing document: %q", resp.Message)
	}
}

func TestHandleListFiles(t *testing.T) {
	ts := newTestServer(t)
	ts.files.listFn = func(ctx context.Context) ([]domain.FileInfo, error) {
		return []domain.FileInfo{{FileID: "f1", FileName: "doc.txt", ChunkCount: 3}}, nil
	}

	rec := ts.do(t, httptest.NewRequest("GET", "/api/files", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}

	resp := decodeBody[struct {
		Success bool              `json:"success"`
		Data    []domain.FileInfo `json:"data"`
	}](t, rec)
	if len(resp.Data) != 1 || resp.Data[0].FileID != "f1" {
		t.Errorf("unexpected data: %+v", resp.Data)
	}
}

func TestHandleDeleteFile(t *testing.T) {
	ts := newTestServer(t)
	ts.files.deleteFn = func(ctx context.Context, fileID string) (int, error) {
		if fileID != "f1" {
			t.Errorf("unexpected fileId %q", fileID)
		}
		return 4, nil
	}

	rec := ts.do(t, httptest.NewRequest("DELETE", "/api/files/f1", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}

	ts.files.deleteFn = func(ctx context.Context, fileID string) (int, error) {
		return 0, domain.ErrNotFound
	}
	rec = ts.do(t, httptest.NewRequest("DELETE", "/api/files/unknown", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status %d, want 404", rec.Code)
	}
}

func TestHandleFileStats(t *testing.T) {
	ts := newTestServer(t)
	ts.files.statsFn = func(ctx context.Context) (domain.StoreStats, error) {
		return domain.StoreStats{TotalFiles: 2, TotalChunks: 8}, nil
	}

	rec := ts.do(t, httptest.NewRequest("GET", "/api/files/stats", nil))
	resp := decodeBody[struct {
		Data domain.StoreStats `json:"data"`
	}](t, rec)
	if resp.Data.TotalFiles != 2 || resp.Data.TotalChunks != 8 {
		t.Errorf("unexpected stats: %+v", resp.Data)
	}
}

func TestHandleDownloadFile_NotFound(t *testing.T) {
	ts := newTestServer(t)
	ts.files.displayNameFn = func(ctx context.Context, storedFileName string) (string, error) {
		return "", domain.ErrNotFound
	}

	rec := ts.do(t, httptest.NewRequest("GET", "/api/files/download/unknown.txt", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status %d, want 404", rec.Code)
	}
}

func TestHandleGetSettings(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, httptest.NewRequest("GET", "/api/settings", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}

	resp := decodeBody[struct {
		Data driving.SettingsView `json:"data"`
	}](t, rec)
	if resp.Data.ChunkSize != 500 {
		t.Errorf("unexpected settings: %+v", resp.Data)
	}
}

func TestHandleUpdateSettings(t *testing.T) {
	ts := newTestServer(t)
	ts.settings.updateFn = func(ctx context.Context, update driving.SettingsUpdate) (driving.SettingsView, error) {
		if update.ChunkSize == nil || *update.ChunkSize != 750 {
			t.Errorf("update not decoded: %+v", update)
		}
		return driving.SettingsView{ChunkSize: 750}, nil
	}

	rec := ts.do(t, httptest.NewRequest("PUT", "/api/settings", strings.NewReader(`{"chunkSize": 750}`)))
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rec.Code, rec.Body.String())
	}
}

func TestHandleUpdateSettings_Invalid(t *testing.T) {
	ts := newTestServer(t)
	ts.settings.updateFn = func(ctx context.Context, update driving.SettingsUpdate) (driving.SettingsView, error) {
		return driving.SettingsView{}, domain.ErrInvalidConfig
	}

	rec := ts.do(t, httptest.NewRequest("PUT", "/api/settings", strings.NewReader(`{"chunkOverlap": 999}`)))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status %d, want 400", rec.Code)
	}
}

func TestHandleResetDatabase(t *testing.T) {
	ts := newTestServer(t)
	called := false
	ts.settings.resetFn = func(ctx context.Context) error {
		called = true
		return nil
	}

	rec := ts.do(t, httptest.NewRequest("POST", "/api/settings/reset", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}
	if !called {
		t.Error("reset not invoked")
	}
}

func TestCORSPreflight(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, httptest.NewRequest("OPTIONS", "/api/chat", nil))
	if rec.Code != http.StatusNoContent {
		t.Fatalf("status %d, want 204", rec.Code)
	}
	if rec.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Error("CORS headers missing")
	}
}
