package services

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"

	"github.com/archivist-labs/docchat-core/internal/core/domain"
)

// fingerprintFile computes the SHA-256 content hash of the staged
// upload, streaming so large files never load into memory.
func fingerprintFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("opening staged upload: %w", err)
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("hashing staged upload: %w", err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// checkDuplicates scans every existing chunk's metadata and rejects the
// upload when the content hash matches any document anywhere in the
// store, or the display name matches a document in the same collection.
// The scan is linear over the whole corpus; that is the one ingestion
// cost that grows with total corpus size.
func checkDuplicates(records []domain.ChunkRecord, contentHash, fileName, collection string) error {
	for _, rec := range records {
		meta := rec.Metadata
		if meta.ContentHash != "" && meta.ContentHash == contentHash {
			return &domain.DuplicateError{
				Reason:             domain.DuplicateContent,
				FileName:           fileName,
				ExistingFileName:   meta.FileName,
				ExistingCollection: meta.Collection,
			}
		}
		if meta.FileName == fileName && meta.Collection == collection {
			return &domain.DuplicateError{
				Reason:             domain.DuplicateName,
				FileName:           fileName,
				ExistingFileName:   meta.FileName,
				ExistingCollection: meta.Collection,
			}
		}
	}
	return nil
}
