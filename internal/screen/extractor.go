// Package screen extracts visible text from candidate screen captures.
package screen

import (
	"context"
	"log/slog"

	"github.com/vivavoce/vivavoce/pkg/provider/ocr"
)

// Extractor wraps an OCR engine with the turn policy for screen context:
// extraction never fails the caller. Any decode or engine error degrades to
// empty text, because a turn with no screen context is still a valid turn.
type Extractor struct {
	engine ocr.Engine
	logger *slog.Logger
}

// NewExtractor returns an Extractor backed by engine. A nil engine is
// allowed and always yields empty text.
func NewExtractor(engine ocr.Engine, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{engine: engine, logger: logger}
}

// Extract returns the text visible in the encoded image, or empty text when
// the image is unreadable or the engine fails. There is no minimum-length
// gating; any amount of extracted text is passed through as context.
func (e *Extractor) Extract(ctx context.Context, image []byte) string {
	if e.engine == nil || len(image) == 0 {
		return ""
	}

	text, err := e.engine.ExtractText(ctx, image)
	if err != nil {
		e.logger.Warn("screen text extraction failed, continuing without screen context", "error", err)
		return ""
	}
	return text
}
