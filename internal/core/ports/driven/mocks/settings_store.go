package mocks

import (
	"context"
	"sync"

	"github.com/archivist-labs/docchat-core/internal/core/domain"
)

// MockSettingsStore is an in-memory SettingsStore for testing.
type MockSettingsStore struct {
	mu       sync.Mutex
	settings *domain.Settings
	saves    int
	failNext error
}

// NewMockSettingsStore creates a new MockSettingsStore
func NewMockSettingsStore() *MockSettingsStore {
	return &MockSettingsStore{}
}

func (m *MockSettingsStore) Load(ctx context.Context) (domain.Settings, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.settings == nil {
		return domain.Settings{}, domain.ErrNotFound
	}
	return *m.settings, nil
}

func (m *MockSettingsStore) Save(ctx context.Context, settings domain.Settings) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failNext != nil {
		err := m.failNext
		m.failNext = nil
		return err
	}
	m.settings = &settings
	m.saves++
	return nil
}

// Helper methods for testing

func (m *MockSettingsStore) Saves() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves
}

func (m *MockSettingsStore) SetFailNext(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failNext = err
}
