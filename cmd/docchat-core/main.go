package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/archivist-labs/docchat-core/internal/adapters/driven/ai"
	"github.com/archivist-labs/docchat-core/internal/adapters/driven/bolt"
	"github.com/archivist-labs/docchat-core/internal/adapters/driven/chroma"
	"github.com/archivist-labs/docchat-core/internal/adapters/driven/extract"
	"github.com/archivist-labs/docchat-core/internal/adapters/driven/postgres"
	settingsadapter "github.com/archivist-labs/docchat-core/internal/adapters/driven/settings"
	"github.com/archivist-labs/docchat-core/internal/adapters/driving/http"
	"github.com/archivist-labs/docchat-core/internal/core/domain"
	"github.com/archivist-labs/docchat-core/internal/core/ports/driven"
	"github.com/archivist-labs/docchat-core/internal/core/services"
	"github.com/archivist-labs/docchat-core/internal/runtime"
	"github.com/archivist-labs/docchat-core/internal/watcher"
)

var version = "dev"

func main() {
	// Optional .env for local development
	_ = godotenv.Load()

	settingsPath := getEnv("SETTINGS_PATH", "./data/settings.json")
	uploadsDir := getEnv("UPLOADS_DIR", "./uploads")
	watchDir := getEnv("WATCH_DIR", "")
	watchCollection := getEnv("WATCH_COLLECTION", "watched")

	log.Printf("docchat-core %s starting", version)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Println("Shutdown signal received, stopping...")
		cancel()
	}()

	logger := slog.Default()

	// ===== Settings =====
	settingsStore, err := settingsadapter.NewFileStore(settingsPath)
	if err != nil {
		log.Fatalf("Failed to open settings store: %v", err)
	}

	// The vector store backend is chosen by the persisted settings, but
	// the settings service needs the store for database resets. Load
	// the raw snapshot first, build the store from it, then construct
	// the service over both.
	cfg, err := settingsStore.Load(ctx)
	if errors.Is(err, domain.ErrNotFound) {
		cfg = domain.DefaultSettings()
	} else if err != nil {
		log.Fatalf("Failed to load settings: %v", err)
	}

	// ===== Vector store =====
	store, err := buildVectorStore(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to initialize vector store: %v", err)
	}
	defer store.Close()
	log.Printf("Vector store ready (backend=%s)", cfg.Database.Backend)

	// ===== Core services =====
	aiFactory := ai.NewFactory()
	runtimeServices := runtime.NewServices()

	settingsService, err := services.NewSettingsService(ctx, settingsStore, store, aiFactory, runtimeServices, logger)
	if err != nil {
		log.Fatalf("Failed to initialize settings: %v", err)
	}

	extractor := extract.NewExtractor()
	ingestService := services.NewIngestService(store, extractor, runtimeServices, settingsService, logger)
	chatService := services.NewChatService(store, runtimeServices, settingsService, logger)
	fileService := services.NewFileService(store, logger)

	// ===== Directory watcher (optional) =====
	if watchDir != "" {
		w, err := watcher.New(ingestService, watchDir, watchCollection, uploadsDir, logger)
		if err != nil {
			log.Fatalf("Failed to start directory watcher: %v", err)
		}
		go func() {
			if err := w.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Printf("Directory watcher stopped: %v", err)
			}
		}()
	}

	// ===== HTTP server =====
	serverCfg := http.Config{
		Host:       getEnv("HOST", "0.0.0.0"),
		Port:       getEnvInt("PORT", settingsService.Current().Server.Port),
		Version:    version,
		UploadsDir: uploadsDir,
	}

	server := http.NewServer(serverCfg, chatService, ingestService, fileService, settingsService, store)

	log.Printf("API server starting on :%d", serverCfg.Port)
	if err := server.Start(); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}

// buildVectorStore constructs the backend the settings select. Backend
// changes made through the settings API take effect on restart.
func buildVectorStore(ctx context.Context, cfg domain.Settings) (driven.VectorStore, error) {
	switch cfg.Database.Backend {
	case domain.StoreBackendBolt:
		return bolt.NewStore(cfg.Database.Path)

	case domain.StoreBackendChroma:
		return chroma.NewStore(ctx, chroma.DefaultConfig(cfg.Database.ChromaURL))

	case domain.StoreBackendPostgres:
		db, err := postgres.Connect(ctx, postgres.DefaultConfig(cfg.Database.PostgresURL))
		if err != nil {
			return nil, err
		}
		if err := db.InitSchema(ctx, cfg.Embedding.Dimensions); err != nil {
			db.Close()
			return nil, err
		}
		return postgres.NewVectorStore(db), nil

	default:
		return nil, fmt.Errorf("%w: unknown store backend %q", domain.ErrInvalidConfig, cfg.Database.Backend)
	}
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		var result int
		if _, err := fmt.Sscanf(value, "%d", &result); err == nil {
			return result
		}
	}
	return defaultValue
}
