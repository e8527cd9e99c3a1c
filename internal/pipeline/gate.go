// Package pipeline turns a raw audio blob into an accepted transcript, or a
// rejection. It chains format normalisation, the voice-activity gate, and
// speech recognition; each stage is a hard gate that converts failures into
// rejections so that a bad clip can never crash a session.
package pipeline

import (
	"context"
	"log/slog"

	"github.com/vivavoce/vivavoce/pkg/audio"
	"github.com/vivavoce/vivavoce/pkg/provider/vad"
)

// Gate decides whether a clip carries enough cumulative speech to justify
// running the expensive downstream stages.
type Gate struct {
	detector    vad.Detector
	minDuration float64
	logger      *slog.Logger
}

// NewGate returns a Gate that accepts clips with at least minDuration
// seconds of total detected speech. The threshold is inclusive.
func NewGate(detector vad.Detector, minDuration float64, logger *slog.Logger) *Gate {
	if logger == nil {
		logger = slog.Default()
	}
	return &Gate{
		detector:    detector,
		minDuration: minDuration,
		logger:      logger,
	}
}

// HasSufficientSpeech reports whether the summed duration of all detected
// speech segments reaches the threshold. Gaps between segments do not reset
// the accumulator. Detector errors are logged and treated as "no speech";
// a pipeline error may skip one turn but never propagates.
func (g *Gate) HasSufficientSpeech(ctx context.Context, clip audio.Clip) bool {
	segments, err := g.detector.SpeechSegments(ctx, clip.Samples, clip.SampleRate)
	if err != nil {
		g.logger.Warn("voice activity detection failed, treating as silence", "error", err)
		return false
	}

	var total float64
	for _, s := range segments {
		total += s.Duration(clip.SampleRate)
	}

	g.logger.Debug("voice activity gate",
		"segments", len(segments),
		"speech_seconds", total,
		"min_seconds", g.minDuration,
	)
	return total >= g.minDuration
}
