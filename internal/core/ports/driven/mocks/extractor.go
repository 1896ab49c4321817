package mocks

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/archivist-labs/docchat-core/internal/core/domain"
)

// MockExtractor is a TextExtractor for testing. By default it reads
// the file verbatim for allowed extensions; Texts overrides per path.
type MockExtractor struct {
	Texts    map[string]string
	FailWith error
}

// NewMockExtractor creates a new MockExtractor
func NewMockExtractor() *MockExtractor {
	return &MockExtractor{Texts: make(map[string]string)}
}

func (m *MockExtractor) Extract(ctx context.Context, path string) (string, error) {
	if m.FailWith != nil {
		return "", m.FailWith
	}
	if text, ok := m.Texts[path]; ok {
		return text, nil
	}
	ext := strings.ToLower(filepath.Ext(path))
	if !domain.ExtensionAllowed(ext) {
		return "", fmt.Errorf("%w: %s", domain.ErrUnsupportedFormat, ext)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrExtractionFailed, err)
	}
	return string(data), nil
}
