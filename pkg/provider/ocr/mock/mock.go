// Package mock provides a test double for the ocr.Engine interface.
package mock

import (
	"context"
	"sync"

	"github.com/vivavoce/vivavoce/pkg/provider/ocr"
)

// Engine is a mock implementation of ocr.Engine.
// Set Text and Err to control the return values.
type Engine struct {
	mu sync.Mutex

	// Text is returned by ExtractText.
	Text string

	// Err, if non-nil, is returned as the error from ExtractText.
	Err error

	// Images records the image payloads passed to ExtractText.
	Images [][]byte
}

// ExtractText records the call and returns Text, Err.
func (e *Engine) ExtractText(_ context.Context, image []byte) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.Images = append(e.Images, image)
	if e.Err != nil {
		return "", e.Err
	}
	return e.Text, nil
}

// CallCount returns the number of ExtractText calls so far.
func (e *Engine) CallCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.Images)
}

// Ensure Engine implements ocr.Engine at compile time.
var _ ocr.Engine = (*Engine)(nil)
