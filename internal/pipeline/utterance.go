package pipeline

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/vivavoce/vivavoce/internal/observe"
	"github.com/vivavoce/vivavoce/pkg/audio"
	"github.com/vivavoce/vivavoce/pkg/provider/stt"
)

// RejectReason classifies why a clip produced no usable utterance.
type RejectReason string

const (
	// RejectConversionFailed means the clip could not be decoded or
	// transcoded to the pipeline format.
	RejectConversionFailed RejectReason = "conversion_failed"

	// RejectNoSpeech means the clip carried less speech than the gate
	// threshold.
	RejectNoSpeech RejectReason = "no_speech"

	// RejectTooShort means recognition produced a transcript under the
	// minimum length.
	RejectTooShort RejectReason = "too_short"
)

// Result is the outcome of processing one audio clip. Exactly one of
// Transcript or Rejected carries meaning: an accepted clip has a non-empty
// Transcript and an empty Rejected reason.
type Result struct {
	Transcript string
	Rejected   RejectReason
}

// Accepted reports whether the clip yielded a usable transcript.
func (r Result) Accepted() bool { return r.Rejected == "" }

// Normalizer converts an arbitrary encoded audio clip to mono PCM WAV.
// Satisfied by [audio.Normalizer].
type Normalizer interface {
	Normalize(ctx context.Context, clip []byte) ([]byte, error)
}

// Utterance runs the full audio stage of a turn: normalise, gate, transcribe,
// length-check. It never returns an error to the caller; every failure mode
// maps to a rejection reason.
type Utterance struct {
	normalizer         Normalizer
	gate               *Gate
	transcriber        stt.Transcriber
	minTranscriptChars int
	metrics            *observe.Metrics
	logger             *slog.Logger
}

// UtteranceConfig configures an [Utterance] pipeline.
type UtteranceConfig struct {
	// Normalizer converts raw clips to mono 16 kHz WAV. Must not be nil.
	Normalizer Normalizer

	// Gate decides whether the clip contains enough speech. Must not be nil.
	Gate *Gate

	// Transcriber produces the transcript for gated clips. Must not be nil.
	Transcriber stt.Transcriber

	// MinTranscriptChars rejects transcripts shorter than this after
	// trimming. Defaults to 3 if zero or negative.
	MinTranscriptChars int

	// Metrics records per-stage latencies. Defaults to
	// [observe.DefaultMetrics].
	Metrics *observe.Metrics

	// Logger receives stage diagnostics. Defaults to slog.Default().
	Logger *slog.Logger
}

// NewUtterance creates an [Utterance] pipeline with the given configuration.
func NewUtterance(cfg UtteranceConfig) *Utterance {
	minChars := cfg.MinTranscriptChars
	if minChars <= 0 {
		minChars = 3
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	metrics := cfg.Metrics
	if metrics == nil {
		metrics = observe.DefaultMetrics()
	}
	return &Utterance{
		normalizer:         cfg.Normalizer,
		gate:               cfg.Gate,
		transcriber:        cfg.Transcriber,
		minTranscriptChars: minChars,
		metrics:            metrics,
		logger:             logger,
	}
}

// Process runs one raw audio blob through every stage and returns the
// transcript or the first rejection encountered.
func (u *Utterance) Process(ctx context.Context, rawAudio []byte) Result {
	convertStart := time.Now()
	wav, err := u.normalizer.Normalize(ctx, rawAudio)
	u.metrics.Timed(ctx, u.metrics.ConvertDuration, convertStart)
	if err != nil {
		u.logger.Warn("audio conversion failed", "error", err)
		return Result{Rejected: RejectConversionFailed}
	}

	clip, err := audio.DecodeWAV(wav)
	if err != nil {
		u.logger.Warn("normalised clip unreadable", "error", err)
		return Result{Rejected: RejectConversionFailed}
	}

	vadStart := time.Now()
	sufficient := u.gate.HasSufficientSpeech(ctx, clip)
	u.metrics.Timed(ctx, u.metrics.VADDuration, vadStart)
	if !sufficient {
		return Result{Rejected: RejectNoSpeech}
	}

	sttStart := time.Now()
	text, err := u.transcriber.Transcribe(ctx, clip.Samples, clip.SampleRate)
	u.metrics.Timed(ctx, u.metrics.STTDuration, sttStart)
	if err != nil {
		// Partial engine failure degrades to an empty transcript, which the
		// length check below converts into a rejection.
		u.logger.Warn("transcription failed, treating as empty", "error", err)
		text = ""
	}

	text = strings.TrimSpace(text)
	if len(text) < u.minTranscriptChars {
		u.logger.Debug("transcript below minimum length", "chars", len(text))
		return Result{Rejected: RejectTooShort}
	}

	u.logger.Info("utterance accepted",
		"transcript_chars", len(text),
		"clip_seconds", clip.Duration(),
	)
	return Result{Transcript: text}
}
