// Package settings persists the configuration as a JSON file next to
// the data directory. Writes go through a temp file and rename, so a
// crash mid-write never leaves a truncated settings file behind.
package settings

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/archivist-labs/docchat-core/internal/core/domain"
	"github.com/archivist-labs/docchat-core/internal/core/ports/driven"
)

// Ensure FileStore implements SettingsStore
var _ driven.SettingsStore = (*FileStore)(nil)

// FileStore is the JSON-file-backed SettingsStore.
type FileStore struct {
	path string
}

// NewFileStore creates a settings store at path, creating the parent
// directory if needed.
func NewFileStore(path string) (*FileStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("creating settings directory: %w", err)
	}
	return &FileStore{path: path}, nil
}

// Load reads the persisted settings, or ErrNotFound when no file
// exists yet.
func (s *FileStore) Load(ctx context.Context) (domain.Settings, error) {
	if err := ctx.Err(); err != nil {
		return domain.Settings{}, err
	}

	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return domain.Settings{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.Settings{}, fmt.Errorf("reading settings file: %w", err)
	}

	var cfg domain.Settings
	if err := json.Unmarshal(data, &cfg); err != nil {
		return domain.Settings{}, fmt.Errorf("parsing settings file: %w", err)
	}
	return cfg, nil
}

// Save writes the settings atomically.
func (s *FileStore) Save(ctx context.Context, cfg domain.Settings) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding settings: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("writing settings file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("replacing settings file: %w", err)
	}
	return nil
}
