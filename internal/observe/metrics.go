// Package observe provides application-wide observability primitives for the
// interview server: OpenTelemetry metrics and the provider initialisation
// that bridges them to a Prometheus /metrics endpoint.
//
// A package-level default [Metrics] instance ([DefaultMetrics]) is provided
// for convenience; tests should use [NewMetrics] with a custom
// [metric.MeterProvider] to avoid cross-test pollution.
package observe

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// meterName is the instrumentation scope name used for all metrics.
const meterName = "github.com/vivavoce/vivavoce"

// Metrics holds all OpenTelemetry metric instruments for the application.
// All fields are safe for concurrent use — the underlying OTel types handle
// their own synchronisation.
type Metrics struct {
	// --- Latency histograms per turn stage ---

	// ConvertDuration tracks audio format conversion latency.
	ConvertDuration metric.Float64Histogram

	// VADDuration tracks voice activity detection latency.
	VADDuration metric.Float64Histogram

	// STTDuration tracks speech recognition latency.
	STTDuration metric.Float64Histogram

	// OCRDuration tracks screen text extraction latency.
	OCRDuration metric.Float64Histogram

	// LLMDuration tracks question and scorecard generation latency.
	LLMDuration metric.Float64Histogram

	// TurnDuration tracks end-to-end turn latency from accepted payload to
	// emitted reply.
	TurnDuration metric.Float64Histogram

	// --- Counters ---

	// Turns counts completed turn attempts. Use with attribute:
	//   attribute.String("outcome", "ready"|"no_speech"|"busy"|"error")
	Turns metric.Int64Counter

	// Questions counts generated interviewer questions.
	Questions metric.Int64Counter

	// Scorecards counts evaluation requests. Use with attribute:
	//   attribute.String("status", "ok"|"error")
	Scorecards metric.Int64Counter

	// ProviderErrors counts collaborator failures. Use with attribute:
	//   attribute.String("kind", "llm"|"stt"|"vad"|"ocr"|"audio")
	ProviderErrors metric.Int64Counter

	// --- Gauges ---

	// ActiveSessions tracks the number of live interview connections.
	ActiveSessions metric.Int64UpDownCounter
}

// latencyBuckets defines histogram bucket boundaries (in seconds) sized for
// turn stages that range from milliseconds (VAD) to tens of seconds (LLM).
var latencyBuckets = []float64{
	0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60,
}

// NewMetrics creates a fully initialised [Metrics] struct using the given
// [metric.MeterProvider]. Returns an error if any instrument creation fails.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	histograms := []struct {
		inst *metric.Float64Histogram
		name string
		desc string
	}{
		{&met.ConvertDuration, "vivavoce.audio.convert.duration", "Latency of audio format conversion."},
		{&met.VADDuration, "vivavoce.vad.duration", "Latency of voice activity detection."},
		{&met.STTDuration, "vivavoce.stt.duration", "Latency of speech recognition."},
		{&met.OCRDuration, "vivavoce.ocr.duration", "Latency of screen text extraction."},
		{&met.LLMDuration, "vivavoce.llm.duration", "Latency of question and scorecard generation."},
		{&met.TurnDuration, "vivavoce.turn.duration", "End-to-end latency of one interview turn."},
	}
	for _, h := range histograms {
		if *h.inst, err = m.Float64Histogram(h.name,
			metric.WithDescription(h.desc),
			metric.WithUnit("s"),
			metric.WithExplicitBucketBoundaries(latencyBuckets...),
		); err != nil {
			return nil, err
		}
	}

	if met.Turns, err = m.Int64Counter("vivavoce.turns",
		metric.WithDescription("Total turn attempts by outcome."),
	); err != nil {
		return nil, err
	}
	if met.Questions, err = m.Int64Counter("vivavoce.questions",
		metric.WithDescription("Total generated interviewer questions."),
	); err != nil {
		return nil, err
	}
	if met.Scorecards, err = m.Int64Counter("vivavoce.scorecards",
		metric.WithDescription("Total scorecard evaluations by status."),
	); err != nil {
		return nil, err
	}
	if met.ProviderErrors, err = m.Int64Counter("vivavoce.provider.errors",
		metric.WithDescription("Total collaborator failures by kind."),
	); err != nil {
		return nil, err
	}

	if met.ActiveSessions, err = m.Int64UpDownCounter("vivavoce.active_sessions",
		metric.WithDescription("Number of live interview connections."),
	); err != nil {
		return nil, err
	}

	return met, nil
}

// defaultMetrics is the lazily-initialised package-level Metrics instance.
var (
	defaultMetrics     *Metrics
	defaultMetricsOnce sync.Once
)

// DefaultMetrics returns the package-level [Metrics] instance, creating it on
// first call using [otel.GetMeterProvider]. Subsequent calls return the same
// pointer. Panics if instrument creation fails (should not happen with the
// global provider).
func DefaultMetrics() *Metrics {
	defaultMetricsOnce.Do(func() {
		var err error
		defaultMetrics, err = NewMetrics(otel.GetMeterProvider())
		if err != nil {
			panic("observe: failed to create default metrics: " + err.Error())
		}
	})
	return defaultMetrics
}

// RecordTurn increments the turn counter with the given outcome.
func (m *Metrics) RecordTurn(ctx context.Context, outcome string) {
	m.Turns.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}

// RecordProviderError increments the collaborator failure counter.
func (m *Metrics) RecordProviderError(ctx context.Context, kind string) {
	m.ProviderErrors.Add(ctx, 1, metric.WithAttributes(attribute.String("kind", kind)))
}

// Timed records the elapsed time since start on hist. Use in a defer:
//
//	defer m.Timed(ctx, m.STTDuration, time.Now())
func (m *Metrics) Timed(ctx context.Context, hist metric.Float64Histogram, start time.Time) {
	hist.Record(ctx, time.Since(start).Seconds())
}
