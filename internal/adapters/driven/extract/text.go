package extract

import (
	"fmt"
	"os"
)

// extractText reads a plain-text file verbatim.
func extractText(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading text file: %w", err)
	}
	return string(data), nil
}
