// Package mock provides a test double for the vad.Detector interface.
package mock

import (
	"context"
	"sync"

	"github.com/vivavoce/vivavoce/pkg/provider/vad"
)

// Detector is a mock implementation of vad.Detector.
// Set Segments and Err to control the return values.
type Detector struct {
	mu sync.Mutex

	// Segments is returned by SpeechSegments.
	Segments []vad.Segment

	// Err, if non-nil, is returned as the error from SpeechSegments.
	Err error

	// CallCount is the number of times SpeechSegments was called.
	CallCount int
}

// SpeechSegments records the call and returns Segments, Err.
func (d *Detector) SpeechSegments(_ context.Context, _ []float32, _ int) ([]vad.Segment, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.CallCount++
	if d.Err != nil {
		return nil, d.Err
	}
	out := make([]vad.Segment, len(d.Segments))
	copy(out, d.Segments)
	return out, nil
}

// Ensure Detector implements vad.Detector at compile time.
var _ vad.Detector = (*Detector)(nil)
