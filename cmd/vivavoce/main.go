// Command vivavoce is the automated technical interview server: it listens
// for WebSocket connections carrying (screen capture, audio clip) pairs,
// runs the speech pipeline, and replies with the interviewer's next question.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	anyllmlib "github.com/mozilla-ai/any-llm-go"

	"github.com/vivavoce/vivavoce/internal/config"
	"github.com/vivavoce/vivavoce/internal/health"
	"github.com/vivavoce/vivavoce/internal/interview"
	"github.com/vivavoce/vivavoce/internal/observe"
	"github.com/vivavoce/vivavoce/internal/orchestrator"
	"github.com/vivavoce/vivavoce/internal/pipeline"
	"github.com/vivavoce/vivavoce/internal/resilience"
	"github.com/vivavoce/vivavoce/internal/screen"
	"github.com/vivavoce/vivavoce/internal/server"
	"github.com/vivavoce/vivavoce/internal/transcript"
	"github.com/vivavoce/vivavoce/pkg/audio"
	"github.com/vivavoce/vivavoce/pkg/provider/llm"
	"github.com/vivavoce/vivavoce/pkg/provider/llm/anyllm"
	oaillm "github.com/vivavoce/vivavoce/pkg/provider/llm/openai"
	"github.com/vivavoce/vivavoce/pkg/provider/ocr"
	"github.com/vivavoce/vivavoce/pkg/provider/ocr/tesseract"
	"github.com/vivavoce/vivavoce/pkg/provider/stt"
	"github.com/vivavoce/vivavoce/pkg/provider/stt/whisper"
	"github.com/vivavoce/vivavoce/pkg/provider/vad"
	"github.com/vivavoce/vivavoce/pkg/provider/vad/energy"
)

// version is stamped at build time via -ldflags "-X main.version=...".
var version = "dev"

func main() {
	os.Exit(run())
}

func run() int {
	// ── CLI flags ──────────────────────────────────────────────────────────────
	configPath := flag.String("config", "config.yaml", "path to the YAML configuration file")
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println("vivavoce", version)
		return 0
	}

	// ── Load configuration ────────────────────────────────────────────────────
	cfg, err := config.Load(*configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			fmt.Fprintf(os.Stderr, "vivavoce: config file %q not found — copy configs/example.yaml to get started\n", *configPath)
		} else {
			fmt.Fprintf(os.Stderr, "vivavoce: %v\n", err)
		}
		return 1
	}

	// ── Logger ────────────────────────────────────────────────────────────────
	logger := newLogger(cfg.Server.LogLevel)
	slog.SetDefault(logger)

	slog.Info("vivavoce starting",
		"version", version,
		"config", *configPath,
		"listen_addr", cfg.Server.ListenAddr,
		"log_level", cfg.Server.LogLevel,
		"topic", cfg.Interview.Topic,
	)

	// ── Signal context ────────────────────────────────────────────────────────
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ── Telemetry ─────────────────────────────────────────────────────────────
	otelShutdown, err := observe.InitProvider(ctx, observe.ProviderConfig{
		ServiceVersion: version,
	})
	if err != nil {
		slog.Error("failed to initialise telemetry", "err", err)
		return 1
	}
	defer func() {
		if err := otelShutdown(context.Background()); err != nil {
			slog.Warn("telemetry shutdown error", "err", err)
		}
	}()

	// ── Provider registry ─────────────────────────────────────────────────────
	reg := config.NewRegistry()
	registerBuiltinProviders(reg)

	providers, err := buildProviders(cfg, reg)
	if err != nil {
		slog.Error("failed to build providers", "err", err)
		return 1
	}
	defer providers.close()

	// ── Pipeline wiring ───────────────────────────────────────────────────────
	normalizer := newNormalizer(cfg.Providers.Audio)

	utterance := pipeline.NewUtterance(pipeline.UtteranceConfig{
		Normalizer:         normalizer,
		Gate:               pipeline.NewGate(providers.vad, cfg.Interview.MinSpeechDuration, logger),
		Transcriber:        providers.stt,
		MinTranscriptChars: cfg.Interview.MinTranscriptChars,
		Logger:             logger,
	})

	var corrector *transcript.Corrector
	if len(cfg.Interview.Keywords) > 0 {
		corrector = transcript.NewCorrector(cfg.Interview.Keywords)
	}

	orch := orchestrator.New(orchestrator.Config{
		Utterance: utterance,
		Extractor: screen.NewExtractor(providers.ocr, logger),
		Corrector: corrector,
		Manager: interview.NewManager(interview.ManagerConfig{
			Provider:    providers.llm,
			DigestPairs: cfg.Interview.DigestPairs,
			Logger:      logger,
		}),
		Topic:       cfg.Interview.Topic,
		TurnTimeout: cfg.Interview.TurnTimeout,
		Logger:      logger,
	})

	// ── HTTP server ───────────────────────────────────────────────────────────
	srv := server.New(server.Config{
		Server:       cfg.Server,
		Orchestrator: orch,
		Health:       health.New(readinessChecks(cfg, normalizer, providers)...),
		Logger:       logger,
	})

	slog.Info("server ready — press Ctrl+C to shut down")
	if err := srv.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("run error", "err", err)
		return 1
	}
	slog.Info("goodbye")
	return 0
}

// ── Provider wiring ───────────────────────────────────────────────────────────

// providerSet holds the instantiated pipeline collaborators.
type providerSet struct {
	llm llm.Provider
	stt stt.Transcriber
	vad vad.Detector
	ocr ocr.Engine
}

// close releases providers that hold native resources (the speech model).
func (p *providerSet) close() {
	if c, ok := p.stt.(io.Closer); ok {
		if err := c.Close(); err != nil {
			slog.Warn("stt close error", "err", err)
		}
	}
}

// registerBuiltinProviders wires all built-in provider factories into reg.
func registerBuiltinProviders(reg *config.Registry) {
	// ── LLM ───────────────────────────────────────────────────────────────────
	// openai uses the native SDK so structured scorecard requests ride on the
	// response_format parameter instead of prompt discipline.
	reg.RegisterLLM("openai", func(entry config.ProviderEntry) (llm.Provider, error) {
		var opts []oaillm.Option
		if entry.BaseURL != "" {
			opts = append(opts, oaillm.WithBaseURL(entry.BaseURL))
		}
		return oaillm.New(entry.APIKey, entry.Model, opts...)
	})

	// The remaining hosted backends share the anyllm pattern: optional APIKey
	// plus optional BaseURL.
	for _, providerName := range []string{
		"anthropic", "gemini", "deepseek", "mistral", "groq", "llamacpp", "llamafile",
	} {
		reg.RegisterLLM(providerName, func(entry config.ProviderEntry) (llm.Provider, error) {
			var opts []anyllmlib.Option
			if entry.APIKey != "" {
				opts = append(opts, anyllmlib.WithAPIKey(entry.APIKey))
			}
			if entry.BaseURL != "" {
				opts = append(opts, anyllmlib.WithBaseURL(entry.BaseURL))
			}
			return anyllm.New(providerName, entry.Model, opts...)
		})
	}

	// ollama is a local server; it uses BaseURL for the address, not an API key.
	reg.RegisterLLM("ollama", func(entry config.ProviderEntry) (llm.Provider, error) {
		var opts []anyllmlib.Option
		if entry.BaseURL != "" {
			opts = append(opts, anyllmlib.WithBaseURL(entry.BaseURL))
		}
		return anyllm.New("ollama", entry.Model, opts...)
	})

	// ── STT ───────────────────────────────────────────────────────────────────
	reg.RegisterSTT("whisper-native", func(entry config.ProviderEntry) (stt.Transcriber, error) {
		modelPath := entry.Model
		if modelPath == "" {
			modelPath = optString(entry.Options, "model_path")
		}
		var opts []whisper.Option
		if lang := optString(entry.Options, "language"); lang != "" {
			opts = append(opts, whisper.WithLanguage(lang))
		}
		return whisper.New(modelPath, opts...)
	})

	// ── VAD ───────────────────────────────────────────────────────────────────
	reg.RegisterVAD("energy", func(entry config.ProviderEntry) (vad.Detector, error) {
		var opts []energy.Option
		if t, ok := optFloat(entry.Options, "threshold"); ok {
			opts = append(opts, energy.WithThreshold(t))
		}
		if ms, ok := optInt(entry.Options, "frame_ms"); ok {
			opts = append(opts, energy.WithFrameMs(ms))
		}
		if ms, ok := optInt(entry.Options, "hangover_ms"); ok {
			opts = append(opts, energy.WithHangoverMs(ms))
		}
		return energy.New(opts...), nil
	})

	// ── OCR ───────────────────────────────────────────────────────────────────
	reg.RegisterOCR("tesseract", func(entry config.ProviderEntry) (ocr.Engine, error) {
		var opts []tesseract.Option
		if bin := optString(entry.Options, "binary"); bin != "" {
			opts = append(opts, tesseract.WithBinary(bin))
		}
		if langs := optString(entry.Options, "languages"); langs != "" {
			opts = append(opts, tesseract.WithLanguages(langs))
		}
		if path := optString(entry.Options, "data_path"); path != "" {
			opts = append(opts, tesseract.WithDataPath(path))
		}
		return tesseract.New(opts...), nil
	})
}

// buildProviders instantiates every provider named in cfg. The LLM is wrapped
// in a circuit-breaking failover chain when fallbacks are configured. OCR is
// optional: with no entry, screen extraction degrades to empty text.
func buildProviders(cfg *config.Config, reg *config.Registry) (*providerSet, error) {
	ps := &providerSet{}
	var err error

	if ps.llm, err = reg.CreateLLM(cfg.Providers.LLM); err != nil {
		return nil, fmt.Errorf("create llm provider %q: %w", cfg.Providers.LLM.Name, err)
	}
	slog.Info("provider created", "kind", "llm", "name", cfg.Providers.LLM.Name)

	if len(cfg.Providers.LLMFallbacks) > 0 {
		chain := resilience.NewFailover(cfg.Providers.LLM.Name, ps.llm, resilience.FailoverConfig{})
		for _, entry := range cfg.Providers.LLMFallbacks {
			p, err := reg.CreateLLM(entry)
			if err != nil {
				return nil, fmt.Errorf("create llm fallback %q: %w", entry.Name, err)
			}
			chain.AddBackend(entry.Name, p)
			slog.Info("provider created", "kind", "llm-fallback", "name", entry.Name)
		}
		ps.llm = chain
	}

	if ps.stt, err = reg.CreateSTT(cfg.Providers.STT); err != nil {
		return nil, fmt.Errorf("create stt provider %q: %w", cfg.Providers.STT.Name, err)
	}
	slog.Info("provider created", "kind", "stt", "name", cfg.Providers.STT.Name)

	if ps.vad, err = reg.CreateVAD(cfg.Providers.VAD); err != nil {
		return nil, fmt.Errorf("create vad provider %q: %w", cfg.Providers.VAD.Name, err)
	}
	slog.Info("provider created", "kind", "vad", "name", cfg.Providers.VAD.Name)

	if name := cfg.Providers.OCR.Name; name != "" {
		if ps.ocr, err = reg.CreateOCR(cfg.Providers.OCR); err != nil {
			return nil, fmt.Errorf("create ocr provider %q: %w", name, err)
		}
		slog.Info("provider created", "kind", "ocr", "name", name)
	} else {
		slog.Warn("no ocr provider configured — screen context disabled")
	}

	return ps, nil
}

// newNormalizer builds the ffmpeg audio normalizer from its config entry.
func newNormalizer(entry config.ProviderEntry) *audio.Normalizer {
	var opts []audio.NormalizerOption
	if bin := optString(entry.Options, "binary"); bin != "" {
		opts = append(opts, audio.WithBinary(bin))
	}
	return audio.NewNormalizer(opts...)
}

// readinessChecks assembles /readyz probes for the external collaborators:
// the ffmpeg and tesseract binaries and the speech model file.
func readinessChecks(cfg *config.Config, normalizer *audio.Normalizer, ps *providerSet) []health.Checker {
	checks := []health.Checker{
		health.BinaryCheck("ffmpeg", normalizer.Available),
	}
	if modelPath := cfg.Providers.STT.Model; modelPath != "" {
		checks = append(checks, health.FileCheck("whisper-model", modelPath))
	}
	if probe, ok := ps.ocr.(interface{ Available(context.Context) error }); ok {
		checks = append(checks, health.BinaryCheck("tesseract", probe.Available))
	}
	return checks
}

// ── Logger ─────────────────────────────────────────────────────────────────────

func newLogger(level config.LogLevel) *slog.Logger {
	var lvl slog.Level
	switch level {
	case config.LogDebug:
		lvl = slog.LevelDebug
	case config.LogWarn:
		lvl = slog.LevelWarn
	case config.LogError:
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}

// ── Helpers ───────────────────────────────────────────────────────────────────

// optString extracts a string value from a provider Options map.
// Returns "" if the map is nil, the key is absent, or the value is not a string.
func optString(opts map[string]any, key string) string {
	if opts == nil {
		return ""
	}
	s, _ := opts[key].(string)
	return s
}

// optFloat extracts a numeric value from a provider Options map. YAML decodes
// unquoted numbers as int or float64 depending on their lexical form.
func optFloat(opts map[string]any, key string) (float64, bool) {
	if opts == nil {
		return 0, false
	}
	switch v := opts[key].(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	}
	return 0, false
}

// optInt extracts an integer value from a provider Options map.
func optInt(opts map[string]any, key string) (int, bool) {
	if opts == nil {
		return 0, false
	}
	switch v := opts[key].(type) {
	case int:
		return v, true
	case float64:
		return int(v), true
	}
	return 0, false
}
