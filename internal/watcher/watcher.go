// Package watcher ingests documents dropped into a watched directory.
package watcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/archivist-labs/docchat-core/internal/core/domain"
	"github.com/archivist-labs/docchat-core/internal/core/ports/driving"
)

// settleDelay gives the writing process time to finish before the file
// is read. Editors and download managers create the file first and fill
// it afterwards.
const settleDelay = 500 * time.Millisecond

// Watcher monitors a directory and feeds new documents with supported
// extensions into the ingestion pipeline. The original file stays in
// place; a staged copy is handed to the pipeline, which owns it from
// that point.
type Watcher struct {
	ingest     driving.IngestService
	dir        string
	collection string
	uploadsDir string
	logger     *slog.Logger
}

// New creates a watcher for dir that ingests into the given collection.
func New(ingest driving.IngestService, dir, collection, uploadsDir string, logger *slog.Logger) (*Watcher, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("watch directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("watch directory: %s is not a directory", dir)
	}
	if strings.TrimSpace(collection) == "" {
		return nil, fmt.Errorf("%w: watch collection is required", domain.ErrInvalidConfig)
	}
	return &Watcher{
		ingest:     ingest,
		dir:        dir,
		collection: collection,
		uploadsDir: uploadsDir,
		logger:     logger,
	}, nil
}

// Run watches until ctx is cancelled. It returns the first watcher
// setup error; per-file ingestion failures are logged and skipped.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer fw.Close()

	if err := fw.Add(w.dir); err != nil {
		return fmt.Errorf("watching %s: %w", w.dir, err)
	}
	w.logger.Info("watching directory", "dir", w.dir, "collection", w.collection)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if !event.Op.Has(fsnotify.Create) {
				continue
			}
			if !domain.ExtensionAllowed(strings.ToLower(filepath.Ext(event.Name))) {
				continue
			}
			w.handleFile(ctx, event.Name)
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watcher error", "error", err)
		}
	}
}

// handleFile stages a copy of the new file and runs it through the
// ingestion pipeline. Duplicates are expected when a file reappears and
// are logged at debug level.
func (w *Watcher) handleFile(ctx context.Context, path string) {
	select {
	case <-ctx.Done():
		return
	case <-time.After(settleDelay):
	}

	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return
	}

	fileName := filepath.Base(path)
	staged, storedName, err := w.stage(path, fileName)
	if err != nil {
		w.logger.Warn("staging watched file", "file", fileName, "error", err)
		return
	}

	result, err := w.ingest.Ingest(ctx, driving.IngestRequest{
		FilePath:       staged,
		StoredFileName: storedName,
		FileName:       fileName,
		Collection:     w.collection,
	})
	if err != nil {
		var dup *domain.DuplicateError
		if errors.As(err, &dup) {
			w.logger.Debug("watched file already ingested", "file", fileName, "reason", dup.Reason)
			return
		}
		w.logger.Warn("ingesting watched file", "file", fileName, "error", err)
		return
	}

	w.logger.Info("watched file ingested",
		"file", result.FileName,
		"fileId", result.FileID,
		"chunks", result.ChunkCount)
}

// stage copies the file into the uploads directory under a unique name
// so the pipeline can own and, on failure, remove it.
func (w *Watcher) stage(path, fileName string) (string, string, error) {
	if err := os.MkdirAll(w.uploadsDir, 0o755); err != nil {
		return "", "", err
	}

	src, err := os.Open(path)
	if err != nil {
		return "", "", err
	}
	defer src.Close()

	storedName := fmt.Sprintf("%d-%d-%s", time.Now().UnixMilli(), rand.Int63n(1_000_000_000), fileName)
	stagedPath := filepath.Join(w.uploadsDir, storedName)

	dst, err := os.Create(stagedPath)
	if err != nil {
		return "", "", err
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		os.Remove(stagedPath)
		return "", "", err
	}
	if err := dst.Close(); err != nil {
		os.Remove(stagedPath)
		return "", "", err
	}
	return stagedPath, storedName, nil
}
