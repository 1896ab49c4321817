package http

import (
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/archivist-labs/docchat-core/internal/core/domain"
)

// maxUploadSize bounds the multipart form held in memory plus disk.
const maxUploadSize = 50 << 20 // 50 MB

// stagedUpload is a multipart upload written to the uploads directory,
// waiting for ingestion. Once handed to the ingestion service the file
// is owned by the pipeline's cleanup rules.
type stagedUpload struct {
	Path         string
	StoredName   string
	OriginalName string
	Collection   string
}

// stageUpload validates and stages the multipart upload. The extension
// is checked against the allow-list before any bytes touch disk, so a
// rejected format never stages a file.
func (s *Server) stageUpload(r *http.Request) (*stagedUpload, error) {
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		return nil, fmt.Errorf("%w: parsing upload form: %v", domain.ErrInvalidInput, err)
	}

	collection := strings.TrimSpace(r.FormValue("collection"))
	if collection == "" {
		return nil, fmt.Errorf("%w: collection is required", domain.ErrInvalidInput)
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		return nil, fmt.Errorf("%w: no file uploaded", domain.ErrInvalidInput)
	}
	defer file.Close()

	originalName := filepath.Base(header.Filename)
	ext := strings.ToLower(filepath.Ext(originalName))
	if !domain.ExtensionAllowed(ext) {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnsupportedFormat, ext)
	}

	if err := os.MkdirAll(s.uploadsDir, 0755); err != nil {
		return nil, fmt.Errorf("creating uploads directory: %w", err)
	}

	// Unique prefix keeps same-named uploads from clobbering each
	// other; the original name stays as the suffix so the extension
	// survives for extraction and downloads stay recognizable.
	storedName := fmt.Sprintf("%d-%d-%s", time.Now().UnixMilli(), rand.Int63n(1_000_000_000), originalName)
	path := filepath.Join(s.uploadsDir, storedName)

	dst, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("staging upload: %w", err)
	}
	if _, err := io.Copy(dst, file); err != nil {
		dst.Close()
		os.Remove(path)
		return nil, fmt.Errorf("staging upload: %w", err)
	}
	if err := dst.Close(); err != nil {
		os.Remove(path)
		return nil, fmt.Errorf("staging upload: %w", err)
	}

	return &stagedUpload{
		Path:         path,
		StoredName:   storedName,
		OriginalName: originalName,
		Collection:   collection,
	}, nil
}
