// Package ocr defines the Engine interface for optical text extraction
// backends.
//
// An OCR engine receives a complete encoded image (PNG, JPEG, …) and returns
// best-effort extracted text. Accuracy and latency are the engine's concern;
// callers treat empty output as a valid result.
//
// Implementations must be safe for concurrent use.
package ocr

import "context"

// Engine is the abstraction over any OCR backend.
type Engine interface {
	// ExtractText returns the text visible in the encoded image. An empty
	// string with a nil error means the image contains no recognisable text.
	ExtractText(ctx context.Context, image []byte) (string, error)
}
