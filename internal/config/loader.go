package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"

	"gopkg.in/yaml.v3"
)

// ValidProviderNames lists known provider names per provider kind.
// Used by [Validate] to warn about unrecognised provider names.
var ValidProviderNames = map[string][]string{
	"llm":   {"openai", "anthropic", "ollama", "gemini", "deepseek", "mistral", "groq", "llamacpp", "llamafile"},
	"stt":   {"whisper-native"},
	"vad":   {"energy"},
	"ocr":   {"tesseract"},
	"audio": {"ffmpeg"},
}

// Load reads the YAML configuration file at path and returns a validated [Config].
// It is a convenience wrapper around [LoadFromReader] and [Validate].
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()

	cfg, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}
	return cfg, nil
}

// LoadFromReader decodes a YAML config from r, fills defaults, and validates
// the result. Useful in tests where configs are constructed from string
// literals.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := &Config{}
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}
	applyDefaults(cfg)
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that cfg contains a coherent set of values.
// It returns a joined error listing all validation failures found.
func Validate(cfg *Config) error {
	var errs []error

	// Server
	if cfg.Server.LogLevel != "" && !cfg.Server.LogLevel.IsValid() {
		errs = append(errs, fmt.Errorf("server.log_level %q is invalid; valid values: debug, info, warn, error", cfg.Server.LogLevel))
	}
	if cfg.Server.TLS != nil {
		if cfg.Server.TLS.CertFile == "" || cfg.Server.TLS.KeyFile == "" {
			errs = append(errs, errors.New("server.tls requires both cert_file and key_file"))
		}
	}

	// Provider name validation — warn for unknown provider names.
	validateProviderName("llm", cfg.Providers.LLM.Name)
	for _, fb := range cfg.Providers.LLMFallbacks {
		validateProviderName("llm", fb.Name)
	}
	validateProviderName("stt", cfg.Providers.STT.Name)
	validateProviderName("vad", cfg.Providers.VAD.Name)
	validateProviderName("ocr", cfg.Providers.OCR.Name)
	validateProviderName("audio", cfg.Providers.Audio.Name)

	// The question generator and the evaluator both need an LLM.
	if cfg.Providers.LLM.Name == "" {
		errs = append(errs, errors.New("providers.llm is required"))
	}
	for i, fb := range cfg.Providers.LLMFallbacks {
		if fb.Name == "" {
			errs = append(errs, fmt.Errorf("providers.llm_fallbacks[%d].name is required", i))
		}
	}

	// Speech recognition needs a model file for the native backend.
	if cfg.Providers.STT.Name == "whisper-native" && cfg.Providers.STT.Model == "" {
		errs = append(errs, errors.New("providers.stt.model (the model file path) is required for whisper-native"))
	}

	// Interview
	if cfg.Interview.MinSpeechDuration < 0 {
		errs = append(errs, fmt.Errorf("interview.min_speech_duration %.2f must not be negative", cfg.Interview.MinSpeechDuration))
	}
	if cfg.Interview.MinTranscriptChars < 0 {
		errs = append(errs, fmt.Errorf("interview.min_transcript_chars %d must not be negative", cfg.Interview.MinTranscriptChars))
	}
	if cfg.Interview.DigestPairs < 0 {
		errs = append(errs, fmt.Errorf("interview.digest_pairs %d must not be negative", cfg.Interview.DigestPairs))
	}
	if cfg.Interview.TurnTimeout < 0 {
		errs = append(errs, fmt.Errorf("interview.turn_timeout %s must not be negative", cfg.Interview.TurnTimeout))
	}
	if cfg.Interview.Topic == "" {
		slog.Warn("interview.topic is empty; the interviewer persona will not reference a subject")
	}
	if cfg.Providers.OCR.Name == "" {
		slog.Warn("providers.ocr is not configured; screen context will be unavailable")
	}

	return errors.Join(errs...)
}

// validateProviderName logs a warning if name is non-empty and not found in
// the [ValidProviderNames] list for the given kind.
func validateProviderName(kind, name string) {
	if name == "" {
		return
	}
	known, ok := ValidProviderNames[kind]
	if !ok {
		return
	}
	if slices.Contains(known, name) {
		return
	}
	slog.Warn("unknown provider name — may be a typo or third-party provider",
		"kind", kind,
		"name", name,
		"known", known,
	)
}
