package driven

import (
	"context"

	"github.com/archivist-labs/docchat-core/internal/core/domain"
)

// SettingsStore persists the settings document.
type SettingsStore interface {
	// Load reads the persisted settings, returning domain.ErrNotFound
	// when none have been written yet.
	Load(ctx context.Context) (domain.Settings, error)

	// Save persists a settings snapshot atomically.
	Save(ctx context.Context, settings domain.Settings) error
}
