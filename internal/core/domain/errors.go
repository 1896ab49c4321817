package domain

import (
	"errors"
	"fmt"
)

// Domain errors - used across all layers
var (
	// ErrNotFound indicates the requested resource was not found
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates the input is invalid
	ErrInvalidInput = errors.New("invalid input")

	// ErrInvalidConfig indicates a settings update or loaded settings
	// value violates a configuration constraint
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrUnsupportedFormat indicates the upload extension is outside the
	// allow-list
	ErrUnsupportedFormat = errors.New("unsupported file format")

	// ErrExtractionFailed indicates a structured-format parse failed
	ErrExtractionFailed = errors.New("text extraction failed")

	// ErrInvalidBatch indicates the parallel slices of a store add do
	// not line up one-to-one
	ErrInvalidBatch = errors.New("invalid batch")

	// ErrEmbeddingFailed indicates the embedding provider failed
	ErrEmbeddingFailed = errors.New("embedding failed")

	// ErrStoreFailed indicates a vector store operation failed
	ErrStoreFailed = errors.New("vector store failure")

	// ErrModelFailed indicates the generative model call failed
	ErrModelFailed = errors.New("model provider failure")
)

// DuplicateReason distinguishes the two rejection modes of the
// fingerprint guard.
type DuplicateReason string

const (
	DuplicateContent DuplicateReason = "DuplicateContent"
	DuplicateName    DuplicateReason = "DuplicateName"
)

// DuplicateError rejects an upload that collides with an existing
// document, naming the document it collided with.
type DuplicateError struct {
	Reason             DuplicateReason
	FileName           string
	ExistingFileName   string
	ExistingCollection string
}

func (e *DuplicateError) Error() string {
	switch e.Reason {
	case DuplicateContent:
		return fmt.Sprintf("identical content already ingested as %q in collection %q",
			e.ExistingFileName, e.ExistingCollection)
	default:
		return fmt.Sprintf("a document named %q already exists in collection %q",
			e.ExistingFileName, e.ExistingCollection)
	}
}

// IsDuplicate reports whether err is a DuplicateError and returns it.
func IsDuplicate(err error) (*DuplicateError, bool) {
	var dup *DuplicateError
	if errors.As(err, &dup) {
		return dup, true
	}
	return nil, false
}
