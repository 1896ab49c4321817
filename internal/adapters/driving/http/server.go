package http

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/archivist-labs/docchat-core/internal/core/ports/driving"
)

// Pinger is a simple health check interface
type Pinger interface {
	Ping(ctx context.Context) error
}

// Server represents the HTTP server
type Server struct {
	httpServer *http.Server
	router     *http.ServeMux
	version    string
	uploadsDir string

	// Services
	chatService     driving.ChatService
	ingestService   driving.IngestService
	fileService     driving.FileService
	settingsService driving.SettingsService

	// Infrastructure
	store Pinger // vector store health check
}

// Config holds server configuration
type Config struct {
	Host       string
	Port       int
	Version    string
	UploadsDir string
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		Host:       "0.0.0.0",
		Port:       8080,
		Version:    "dev",
		UploadsDir: "./uploads",
	}
}

// NewServer creates a new HTTP server
func NewServer(
	cfg Config,
	chatService driving.ChatService,
	ingestService driving.IngestService,
	fileService driving.FileService,
	settingsService driving.SettingsService,
	store Pinger,
) *Server {
	s := &Server{
		router:          http.NewServeMux(),
		version:         cfg.Version,
		uploadsDir:      cfg.UploadsDir,
		chatService:     chatService,
		ingestService:   ingestService,
		fileService:     fileService,
		settingsService: settingsService,
		store:           store,
	}

	s.setupRoutes()

	// Streaming endpoints have no write deadline; the chat stream is
	// bounded by the request context instead.
	s.httpServer = &http.Server{
		Addr:        fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:     s.Handler(),
		ReadTimeout: 30 * time.Second,
		IdleTimeout: 60 * time.Second,
	}

	return s
}

// Handler returns the router wrapped in the middleware chain.
func (s *Server) Handler() http.Handler {
	recovery := NewRecoveryMiddleware()
	logging := NewLoggingMiddleware()
	cors := NewCORSMiddleware()
	return recovery.Handler(logging.Handler(cors.Handler(s.router)))
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() {
	// Health endpoints
	s.router.HandleFunc("GET /health", s.handleHealth)
	s.router.HandleFunc("GET /version", s.handleVersion)

	// Chat endpoints
	s.router.HandleFunc("POST /api/chat", s.handleChat)
	s.router.HandleFunc("POST /api/chat/stream", s.handleChatStream)

	// Ingestion endpoint
	s.router.HandleFunc("POST /api/ingest", s.handleIngest)

	// File management endpoints
	s.router.HandleFunc("GET /api/files", s.handleListFiles)
	s.router.HandleFunc("GET /api/files/stats", s.handleFileStats)
	s.router.HandleFunc("GET /api/files/download/{storedFileName}", s.handleDownloadFile)
	s.router.HandleFunc("DELETE /api/files/{fileId}", s.handleDeleteFile)

	// Settings endpoints
	s.router.HandleFunc("GET /api/settings", s.handleGetSettings)
	s.router.HandleFunc("PUT /api/settings", s.handleUpdateSettings)
	s.router.HandleFunc("POST /api/settings/reset", s.handleResetDatabase)
}

// Start starts the HTTP server with graceful shutdown
func (s *Server) Start() error {
	// Channel to listen for OS signals
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	// Start server in goroutine
	go func() {
		log.Printf("Starting server on %s", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	// Wait for shutdown signal
	<-stop
	log.Println("Shutting down server...")

	// Create shutdown context with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Attempt graceful shutdown
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	log.Println("Server stopped")
	return nil
}

// Stop stops the server
func (s *Server) Stop(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
