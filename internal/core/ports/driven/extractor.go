package driven

import "context"

// TextExtractor converts an uploaded file into plain UTF-8 text,
// dispatching on the file extension. Extensions outside the allow-list
// fail with domain.ErrUnsupportedFormat; corrupt structured formats
// fail with domain.ErrExtractionFailed wrapping the parse error.
type TextExtractor interface {
	Extract(ctx context.Context, path string) (string, error)
}
