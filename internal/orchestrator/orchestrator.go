// Package orchestrator sequences one full interview turn and guarantees
// turn exclusivity per session.
//
// A turn is: stage the inbound (image, audio) pair, run the utterance
// pipeline, extract screen text, generate the next question, reply. The
// orchestrator owns the active [interview.Session] and the single-in-flight
// busy token; while a turn is running, further attempts are answered
// immediately with a busy outcome and discarded, never queued.
package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/vivavoce/vivavoce/internal/interview"
	"github.com/vivavoce/vivavoce/internal/observe"
	"github.com/vivavoce/vivavoce/internal/pipeline"
	"github.com/vivavoce/vivavoce/internal/screen"
	"github.com/vivavoce/vivavoce/internal/transcript"
)

// Status classifies the outcome of a turn attempt.
type Status string

const (
	// StatusProcessing means a turn was already in flight; the attempt was
	// dropped.
	StatusProcessing Status = "processing"

	// StatusNoSpeech means the attempt ran but produced no usable utterance,
	// or failed in a recoverable way.
	StatusNoSpeech Status = "ready_no_speech"

	// StatusReady means a question was generated.
	StatusReady Status = "ready"
)

// Outcome is the definitive result of one turn attempt.
type Outcome struct {
	Status Status

	// Message carries a human-readable note for non-ready outcomes.
	Message string

	// Transcript and Question are set only when Status is [StatusReady].
	Transcript string
	Question   string
}

// Orchestrator drives the per-session turn state machine. All methods are
// safe for concurrent use; at most one turn runs at a time.
type Orchestrator struct {
	utterance *pipeline.Utterance
	extractor *screen.Extractor
	corrector *transcript.Corrector
	manager   *interview.Manager

	topic       string
	turnTimeout time.Duration
	metrics     *observe.Metrics
	logger      *slog.Logger

	// busy is the exclusive-turn token: set before any blocking call begins,
	// cleared after the outcome is determined.
	busy atomic.Bool

	// sessionMu guards the active-session reference, not its contents; the
	// busy token serialises all history mutation.
	sessionMu sync.Mutex
	session   *interview.Session
}

// Config configures an [Orchestrator].
type Config struct {
	// Utterance runs the audio stage of each turn. Must not be nil.
	Utterance *pipeline.Utterance

	// Extractor provides screen context. Must not be nil (use an extractor
	// with a nil engine to disable OCR).
	Extractor *screen.Extractor

	// Corrector restores domain keywords in accepted transcripts. May be nil.
	Corrector *transcript.Corrector

	// Manager generates questions and scorecards. Must not be nil.
	Manager *interview.Manager

	// Topic seeds the interviewer persona of each new session.
	Topic string

	// TurnTimeout bounds one turn end to end. Zero means unbounded.
	TurnTimeout time.Duration

	// Metrics records turn outcomes and latencies. Defaults to
	// [observe.DefaultMetrics].
	Metrics *observe.Metrics

	// Logger receives turn diagnostics. Defaults to slog.Default().
	Logger *slog.Logger
}

// New creates an [Orchestrator] with a fresh session.
func New(cfg Config) *Orchestrator {
	if cfg.Metrics == nil {
		cfg.Metrics = observe.DefaultMetrics()
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Orchestrator{
		utterance:   cfg.Utterance,
		extractor:   cfg.Extractor,
		corrector:   cfg.Corrector,
		manager:     cfg.Manager,
		topic:       cfg.Topic,
		turnTimeout: cfg.TurnTimeout,
		metrics:     cfg.Metrics,
		logger:      cfg.Logger,
		session:     interview.NewSession(interview.SystemDirective(cfg.Topic)),
	}
}

// Session returns the currently active session.
func (o *Orchestrator) Session() *interview.Session {
	o.sessionMu.Lock()
	defer o.sessionMu.Unlock()
	return o.session
}

// Busy reports whether a turn is currently in flight.
func (o *Orchestrator) Busy() bool { return o.busy.Load() }

// RunTurn processes one inbound (image, audio) pair and hands the definitive
// outcome to deliver. If a turn is already in flight the attempt is rejected
// immediately without blocking; otherwise the turn runs to completion on the
// calling goroutine. The busy token is held until deliver returns, so the
// client has its reply before the next attempt can be admitted. Panics and
// collaborator errors are contained: the token is always released.
func (o *Orchestrator) RunTurn(ctx context.Context, image, audioClip []byte, deliver func(Outcome)) {
	if !o.busy.CompareAndSwap(false, true) {
		o.metrics.RecordTurn(ctx, "busy")
		deliver(Outcome{Status: StatusProcessing, Message: "Still processing previous turn"})
		return
	}
	defer o.busy.Store(false)

	start := time.Now()
	var out Outcome
	defer func() {
		if r := recover(); r != nil {
			o.logger.Error("turn panicked", "panic", r)
			o.metrics.RecordTurn(ctx, "error")
			out = Outcome{Status: StatusNoSpeech, Message: "internal error"}
		}
		o.metrics.Timed(ctx, o.metrics.TurnDuration, start)
		deliver(out)
	}()

	if o.turnTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.turnTimeout)
		defer cancel()
	}

	out = o.turn(ctx, image, audioClip)
}

// turn runs the pipeline stages in order. Called with the busy token held.
func (o *Orchestrator) turn(ctx context.Context, image, audioClip []byte) Outcome {
	res := o.utterance.Process(ctx, audioClip)
	if !res.Accepted() {
		o.logger.Info("turn rejected", "reason", res.Rejected)
		o.metrics.RecordTurn(ctx, "no_speech")
		return Outcome{
			Status:  StatusNoSpeech,
			Message: noSpeechMessage(res.Rejected),
		}
	}

	text := res.Transcript
	if o.corrector != nil {
		text = o.corrector.Correct(text)
	}

	// Screen extraction always runs for accepted utterances and never blocks
	// the turn; failures inside degrade to empty text.
	ocrStart := time.Now()
	screenText := o.extractor.Extract(ctx, image)
	o.metrics.Timed(ctx, o.metrics.OCRDuration, ocrStart)

	llmStart := time.Now()
	question, err := o.manager.NextQuestion(ctx, o.Session(), text, screenText)
	o.metrics.Timed(ctx, o.metrics.LLMDuration, llmStart)
	if err != nil {
		o.logger.Error("question generation failed", "error", err)
		o.metrics.RecordProviderError(ctx, "llm")
		o.metrics.RecordTurn(ctx, "error")
		return Outcome{Status: StatusNoSpeech, Message: "question generation failed"}
	}

	o.metrics.RecordTurn(ctx, "ready")
	o.metrics.Questions.Add(ctx, 1)
	return Outcome{
		Status:     StatusReady,
		Transcript: text,
		Question:   question,
	}
}

// Evaluate produces a scorecard for the interview so far. It is read-only
// over the session and may run while a turn is in flight.
func (o *Orchestrator) Evaluate(ctx context.Context) (*interview.Scorecard, error) {
	sc, err := o.manager.Evaluate(ctx, o.Session())
	if err != nil {
		o.metrics.Scorecards.Add(ctx, 1, scorecardStatus("error"))
		return nil, fmt.Errorf("orchestrator: evaluate: %w", err)
	}
	o.metrics.Scorecards.Add(ctx, 1, scorecardStatus("ok"))
	return sc, nil
}

// Reset discards the active session and installs a fresh one. The old
// session's history is unreachable afterwards. A turn already in flight
// finishes against the session it started with.
func (o *Orchestrator) Reset() {
	fresh := interview.NewSession(interview.SystemDirective(o.topic))
	o.sessionMu.Lock()
	o.session = fresh
	o.sessionMu.Unlock()
	o.logger.Info("session reset")
}

func scorecardStatus(s string) metric.AddOption {
	return metric.WithAttributes(attribute.String("status", s))
}

func noSpeechMessage(reason pipeline.RejectReason) string {
	switch reason {
	case pipeline.RejectConversionFailed:
		return "Audio could not be decoded"
	case pipeline.RejectNoSpeech:
		return "No speech detected"
	case pipeline.RejectTooShort:
		return "No clear speech detected"
	default:
		return "No usable utterance"
	}
}
