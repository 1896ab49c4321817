// Package extract turns uploaded files into plain text. One extractor
// per supported format, dispatched on the file extension of the
// original upload name.
package extract

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/archivist-labs/docchat-core/internal/core/domain"
	"github.com/archivist-labs/docchat-core/internal/core/ports/driven"
)

// Ensure Extractor implements TextExtractor
var _ driven.TextExtractor = (*Extractor)(nil)

// Extractor dispatches to the format-specific extraction.
type Extractor struct{}

// NewExtractor creates a new Extractor
func NewExtractor() *Extractor {
	return &Extractor{}
}

// Extract reads the file at path and returns its plain text. Staged
// uploads keep the original name as a suffix, so the path extension is
// the upload's extension.
func (e *Extractor) Extract(ctx context.Context, path string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".txt":
		return extractText(path)
	case ".pdf":
		return extractPDF(path)
	case ".docx":
		return extractDocx(path)
	default:
		return "", fmt.Errorf("%w: %s", domain.ErrUnsupportedFormat, filepath.Ext(path))
	}
}
