package extract

import (
	"bytes"
	"fmt"

	"github.com/ledongthuc/pdf"

	"github.com/archivist-labs/docchat-core/internal/core/domain"
)

// extractPDF pulls the plain text out of every page.
func extractPDF(path string) (string, error) {
	file, reader, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("%w: opening pdf: %v", domain.ErrExtractionFailed, err)
	}
	defer file.Close()

	var buf bytes.Buffer
	plain, err := reader.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("%w: reading pdf text: %v", domain.ErrExtractionFailed, err)
	}
	if _, err := buf.ReadFrom(plain); err != nil {
		return "", fmt.Errorf("%w: reading pdf text: %v", domain.ErrExtractionFailed, err)
	}
	return buf.String(), nil
}
