// Package vad defines the Detector interface for Voice Activity Detection
// backends.
//
// A detector analyses a complete mono waveform and returns the time ranges
// that contain speech, expressed as sample-index segments. The interview
// pipeline sums segment durations to decide whether a clip carries enough
// speech to be worth transcribing; it never inspects individual segments.
//
// Implementations must be safe for concurrent use.
package vad

import "context"

// Segment is a half-open range [Start, End) of sample indices classified as
// speech. End is exclusive; Start < End always holds for returned segments.
type Segment struct {
	// Start is the index of the first speech sample.
	Start int

	// End is the index one past the last speech sample.
	End int
}

// Duration returns the segment length in seconds at the given sample rate.
func (s Segment) Duration(sampleRate int) float64 {
	if sampleRate <= 0 {
		return 0
	}
	return float64(s.End-s.Start) / float64(sampleRate)
}

// Detector is the abstraction over any VAD backend.
type Detector interface {
	// SpeechSegments analyses a mono clip and returns ordered, non-overlapping
	// speech segments. samples are float32 values in [-1.0, 1.0] at the given
	// sample rate. An empty result means no speech was detected; that is a
	// valid outcome, not an error.
	SpeechSegments(ctx context.Context, samples []float32, sampleRate int) ([]Segment, error)
}
