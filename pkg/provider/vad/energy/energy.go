// Package energy implements vad.Detector with a windowed root-mean-square
// energy classifier.
//
// The clip is split into fixed-duration frames; each frame whose RMS energy
// exceeds a threshold is classified as speech. Adjacent speech frames are
// merged into segments, and short silence gaps between speech frames (up to
// the configured hangover) are bridged so that a single utterance with brief
// pauses yields one segment rather than many fragments.
//
// RMS thresholding is crude next to a trained model, but for gating "is there
// enough speech to bother transcribing" it is cheap, dependency-free, and
// well-behaved on 16 kHz microphone audio. Detector implements the same
// interface as any external model, so swapping in a stronger backend is a
// construction-time decision.
package energy

import (
	"context"
	"math"

	"github.com/vivavoce/vivavoce/pkg/provider/vad"
)

const (
	// defaultThreshold is the RMS level (on normalised [-1, 1] samples) below
	// which a frame is considered silent. 0.01 corresponds to roughly 328 in
	// 16-bit PCM units — near-silence for microphone input.
	defaultThreshold = 0.01

	// defaultFrameMs is the analysis frame duration in milliseconds.
	defaultFrameMs = 30

	// defaultHangoverMs is the maximum silence gap, in milliseconds, bridged
	// between two speech frames so that one utterance with short pauses is
	// reported as a single segment.
	defaultHangoverMs = 200
)

// Compile-time assertion that Detector satisfies vad.Detector.
var _ vad.Detector = (*Detector)(nil)

// Detector is an energy-based VAD. It is read-only after construction and
// safe for concurrent use.
type Detector struct {
	threshold  float64
	frameMs    int
	hangoverMs int
}

// Option is a functional option for configuring a Detector.
type Option func(*Detector)

// WithThreshold sets the RMS energy level above which a frame is classified
// as speech. The value applies to normalised float32 samples. Default: 0.01.
func WithThreshold(t float64) Option {
	return func(d *Detector) { d.threshold = t }
}

// WithFrameMs sets the analysis frame duration in milliseconds. Default: 30.
func WithFrameMs(ms int) Option {
	return func(d *Detector) { d.frameMs = ms }
}

// WithHangoverMs sets the maximum bridged silence gap in milliseconds.
// Default: 200.
func WithHangoverMs(ms int) Option {
	return func(d *Detector) { d.hangoverMs = ms }
}

// New returns a Detector configured with the supplied options.
func New(opts ...Option) *Detector {
	d := &Detector{
		threshold:  defaultThreshold,
		frameMs:    defaultFrameMs,
		hangoverMs: defaultHangoverMs,
	}
	for _, o := range opts {
		o(d)
	}
	return d
}

// SpeechSegments implements vad.Detector.
func (d *Detector) SpeechSegments(ctx context.Context, samples []float32, sampleRate int) ([]vad.Segment, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(samples) == 0 || sampleRate <= 0 {
		return nil, nil
	}

	frameLen := sampleRate * d.frameMs / 1000
	if frameLen <= 0 {
		frameLen = 1
	}
	hangoverFrames := 0
	if d.frameMs > 0 {
		hangoverFrames = d.hangoverMs / d.frameMs
	}

	var (
		segments []vad.Segment
		// start < 0 means no segment is currently open.
		start     = -1
		end       = 0
		silentRun = 0
	)

	for off := 0; off < len(samples); off += frameLen {
		hi := off + frameLen
		if hi > len(samples) {
			hi = len(samples)
		}

		if rms(samples[off:hi]) >= d.threshold {
			if start < 0 {
				start = off
			}
			end = hi
			silentRun = 0
			continue
		}

		if start < 0 {
			continue
		}
		silentRun++
		if silentRun > hangoverFrames {
			segments = append(segments, vad.Segment{Start: start, End: end})
			start = -1
			silentRun = 0
		}
	}

	if start >= 0 {
		segments = append(segments, vad.Segment{Start: start, End: end})
	}

	return segments, nil
}

// rms returns the root-mean-square level of the given samples.
func rms(samples []float32) float64 {
	if len(samples) == 0 {
		return 0
	}
	var sum float64
	for _, s := range samples {
		sum += float64(s) * float64(s)
	}
	return math.Sqrt(sum / float64(len(samples)))
}
