// Package config provides the configuration schema, loader, and provider
// registry for the Vivavoce interview server.
package config

import "time"

// LogLevel controls log verbosity for the interview server.
type LogLevel string

const (
	LogDebug LogLevel = "debug"
	LogInfo  LogLevel = "info"
	LogWarn  LogLevel = "warn"
	LogError LogLevel = "error"
)

// IsValid reports whether l is a recognised log level.
func (l LogLevel) IsValid() bool {
	switch l {
	case LogDebug, LogInfo, LogWarn, LogError:
		return true
	}
	return false
}

// Config is the root configuration structure for the interview server.
// It is typically loaded from a YAML file using [Load] or [LoadFromReader].
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Providers ProvidersConfig `yaml:"providers"`
	Interview InterviewConfig `yaml:"interview"`
}

// ServerConfig holds network and logging settings for the interview server.
type ServerConfig struct {
	// ListenAddr is the TCP address the server listens on (e.g., ":8080").
	ListenAddr string `yaml:"listen_addr"`

	// LogLevel controls verbosity.
	LogLevel LogLevel `yaml:"log_level"`

	// AllowedOrigins lists origin patterns permitted to open WebSocket
	// connections (e.g., "interview.example.com", "localhost:*").
	// Empty means same-origin only.
	AllowedOrigins []string `yaml:"allowed_origins"`

	// TLS configures TLS for the server. When nil, the server runs plain HTTP.
	TLS *TLSConfig `yaml:"tls"`
}

// TLSConfig holds TLS certificate paths for enabling HTTPS.
type TLSConfig struct {
	// CertFile is the path to the PEM-encoded TLS certificate.
	CertFile string `yaml:"cert_file"`

	// KeyFile is the path to the PEM-encoded TLS private key.
	KeyFile string `yaml:"key_file"`
}

// ProvidersConfig declares which provider implementation to use for each
// pipeline stage. Each field selects a named provider registered in the
// [Registry].
type ProvidersConfig struct {
	LLM ProviderEntry `yaml:"llm"`

	// LLMFallbacks lists providers tried in order when the primary LLM
	// fails or its circuit breaker is open. May be empty.
	LLMFallbacks []ProviderEntry `yaml:"llm_fallbacks"`

	STT   ProviderEntry `yaml:"stt"`
	VAD   ProviderEntry `yaml:"vad"`
	OCR   ProviderEntry `yaml:"ocr"`
	Audio ProviderEntry `yaml:"audio"`
}

// ProviderEntry is the common configuration block shared by all provider
// types. The Name field is used to look up the constructor in the [Registry].
type ProviderEntry struct {
	// Name selects the registered provider implementation (e.g., "ollama", "openai").
	Name string `yaml:"name"`

	// APIKey is the authentication key for the provider's API if any.
	APIKey string `yaml:"api_key"`

	// BaseURL overrides the provider's default API endpoint.
	// Leave empty to use the provider's built-in default.
	BaseURL string `yaml:"base_url"`

	// Model selects a specific model within the provider (e.g., "gpt-4o",
	// "llama3", or a model file path for local backends).
	Model string `yaml:"model"`

	// Options holds provider-specific configuration values not covered by the
	// standard fields above. Values may be strings, numbers, booleans, or nested maps.
	Options map[string]any `yaml:"options"`
}

// InterviewConfig holds the behavioural knobs of the interview loop.
type InterviewConfig struct {
	// Topic is the subject the candidate presents on. Injected into the
	// interviewer persona prompt.
	Topic string `yaml:"topic"`

	// MinSpeechDuration is the cumulative seconds of detected speech a clip
	// must contain before it is transcribed. Clips at exactly this value pass.
	MinSpeechDuration float64 `yaml:"min_speech_duration"`

	// MinTranscriptChars is the minimum transcript length (in characters,
	// after trimming) for an utterance to count as a real answer.
	MinTranscriptChars int `yaml:"min_transcript_chars"`

	// DigestPairs is the maximum number of recent question/answer pairs
	// summarised into the context digest for follow-up prompts.
	DigestPairs int `yaml:"digest_pairs"`

	// TurnTimeout bounds the wall-clock time of a single turn, covering
	// audio conversion through question generation. Zero means no limit.
	TurnTimeout time.Duration `yaml:"turn_timeout"`

	// Keywords lists domain terms the transcript corrector restores when the
	// speech recogniser mangles them (e.g., "Kubernetes", "PostgreSQL").
	Keywords []string `yaml:"keywords"`
}

// Default values applied by the loader when fields are left unset.
const (
	DefaultListenAddr         = ":8080"
	DefaultMinSpeechDuration  = 0.5
	DefaultMinTranscriptChars = 3
	DefaultDigestPairs        = 3
	DefaultTurnTimeout        = 120 * time.Second
)

// applyDefaults fills unset fields with their documented defaults.
func applyDefaults(cfg *Config) {
	if cfg.Server.ListenAddr == "" {
		cfg.Server.ListenAddr = DefaultListenAddr
	}
	if cfg.Server.LogLevel == "" {
		cfg.Server.LogLevel = LogInfo
	}
	if cfg.Interview.MinSpeechDuration == 0 {
		cfg.Interview.MinSpeechDuration = DefaultMinSpeechDuration
	}
	if cfg.Interview.MinTranscriptChars == 0 {
		cfg.Interview.MinTranscriptChars = DefaultMinTranscriptChars
	}
	if cfg.Interview.DigestPairs == 0 {
		cfg.Interview.DigestPairs = DefaultDigestPairs
	}
	if cfg.Interview.TurnTimeout == 0 {
		cfg.Interview.TurnTimeout = DefaultTurnTimeout
	}
}
