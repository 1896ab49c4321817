// Package chunker splits extracted text into overlapping fixed-size
// word windows. Splitting is pure: identical input and configuration
// always produce identical chunks.
package chunker

import (
	"fmt"
	"strings"

	"github.com/archivist-labs/docchat-core/internal/core/domain"
)

// Split tokenizes text on whitespace and produces sequential windows of
// size words advancing by size - overlap. Windows that are empty after
// trimming are dropped. overlap must be strictly less than size; that
// is enforced at settings-update time and rechecked here.
func Split(text string, size, overlap int) ([]string, error) {
	if size <= 0 {
		return nil, fmt.Errorf("%w: chunk size must be positive", domain.ErrInvalidConfig)
	}
	if overlap < 0 || overlap >= size {
		return nil, fmt.Errorf("%w: chunk overlap %d must be in [0, %d)", domain.ErrInvalidConfig, overlap, size)
	}

	words := strings.Fields(text)
	if len(words) == 0 {
		return nil, nil
	}

	step := size - overlap
	var chunks []string
	for i := 0; i < len(words); i += step {
		end := i + size
		if end > len(words) {
			end = len(words)
		}
		chunk := strings.TrimSpace(strings.Join(words[i:end], " "))
		if chunk != "" {
			chunks = append(chunks, chunk)
		}
		if end == len(words) {
			break
		}
	}
	return chunks, nil
}
