package config_test

import (
	"strings"
	"testing"
	"time"

	"github.com/vivavoce/vivavoce/internal/config"
)

func TestLoadFromReader_Defaults(t *testing.T) {
	t.Parallel()
	yaml := `
providers:
  llm:
    name: ollama
    model: llama3
`
	cfg, err := config.LoadFromReader(strings.NewReader(yaml))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Server.ListenAddr != ":8080" {
		t.Errorf("ListenAddr = %q, want :8080", cfg.Server.ListenAddr)
	}
	if cfg.Server.LogLevel != config.LogInfo {
		t.Errorf("LogLevel = %q, want info", cfg.Server.LogLevel)
	}
	if cfg.Interview.MinSpeechDuration != 0.5 {
		t.Errorf("MinSpeechDuration = %f, want 0.5", cfg.Interview.MinSpeechDuration)
	}
	if cfg.Interview.MinTranscriptChars != 3 {
		t.Errorf("MinTranscriptChars = %d, want 3", cfg.Interview.MinTranscriptChars)
	}
	if cfg.Interview.DigestPairs != 3 {
		t.Errorf("DigestPairs = %d, want 3", cfg.Interview.DigestPairs)
	}
	if cfg.Interview.TurnTimeout != 120*time.Second {
		t.Errorf("TurnTimeout = %s, want 2m0s", cfg.Interview.TurnTimeout)
	}
}

func TestValidate_LLMRequired(t *testing.T) {
	t.Parallel()
	yaml := `
interview:
  topic: distributed systems
`
	_, err := config.LoadFromReader(strings.NewReader(yaml))
	if err == nil {
		t.Fatal("expected error for missing LLM provider, got nil")
	}
	if !strings.Contains(err.Error(), "providers.llm") {
		t.Errorf("error should mention providers.llm, got: %v", err)
	}
}

func TestValidate_WhisperNativeNeedsModel(t *testing.T) {
	t.Parallel()
	yaml := `
providers:
  llm:
    name: ollama
    model: llama3
  stt:
    name: whisper-native
`
	_, err := config.LoadFromReader(strings.NewReader(yaml))
	if err == nil {
		t.Fatal("expected error for whisper-native without model path, got nil")
	}
	if !strings.Contains(err.Error(), "model") {
		t.Errorf("error should mention model, got: %v", err)
	}
}

func TestValidate_InvalidLogLevel(t *testing.T) {
	t.Parallel()
	yaml := `
server:
  log_level: verbose
providers:
  llm:
    name: ollama
`
	_, err := config.LoadFromReader(strings.NewReader(yaml))
	if err == nil {
		t.Fatal("expected error for invalid log level, got nil")
	}
	if !strings.Contains(err.Error(), "log_level") {
		t.Errorf("error should mention log_level, got: %v", err)
	}
}

func TestValidate_NegativeThresholds(t *testing.T) {
	t.Parallel()
	yaml := `
providers:
  llm:
    name: ollama
interview:
  min_speech_duration: -1
  digest_pairs: -2
`
	_, err := config.LoadFromReader(strings.NewReader(yaml))
	if err == nil {
		t.Fatal("expected error for negative thresholds, got nil")
	}
	errStr := err.Error()
	if !strings.Contains(errStr, "min_speech_duration") {
		t.Errorf("error should mention min_speech_duration, got: %v", err)
	}
	if !strings.Contains(errStr, "digest_pairs") {
		t.Errorf("error should mention digest_pairs, got: %v", err)
	}
}

func TestValidate_TLSNeedsBothFiles(t *testing.T) {
	t.Parallel()
	yaml := `
server:
  tls:
    cert_file: /etc/certs/server.pem
providers:
  llm:
    name: ollama
`
	_, err := config.LoadFromReader(strings.NewReader(yaml))
	if err == nil {
		t.Fatal("expected error for TLS without key file, got nil")
	}
	if !strings.Contains(err.Error(), "key_file") {
		t.Errorf("error should mention key_file, got: %v", err)
	}
}

func TestLoadFromReader_UnknownField(t *testing.T) {
	t.Parallel()
	yaml := `
providers:
  llm:
    name: ollama
intervue:
  topic: typo
`
	_, err := config.LoadFromReader(strings.NewReader(yaml))
	if err == nil {
		t.Fatal("expected error for unknown top-level field, got nil")
	}
}

func TestLoadFromReader_FullConfig(t *testing.T) {
	t.Parallel()
	yaml := `
server:
  listen_addr: ":9000"
  log_level: debug
  allowed_origins:
    - "interview.example.com"
providers:
  llm:
    name: ollama
    base_url: http://localhost:11434
    model: llama3
  llm_fallbacks:
    - name: openai
      api_key: sk-test
      model: gpt-4o-mini
  stt:
    name: whisper-native
    model: /models/ggml-base.en.bin
  vad:
    name: energy
    options:
      threshold: 0.02
  ocr:
    name: tesseract
    options:
      languages: eng
  audio:
    name: ffmpeg
interview:
  topic: container orchestration
  min_speech_duration: 0.75
  turn_timeout: 90s
  keywords:
    - Kubernetes
    - etcd
`
	cfg, err := config.LoadFromReader(strings.NewReader(yaml))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Server.ListenAddr != ":9000" {
		t.Errorf("ListenAddr = %q, want :9000", cfg.Server.ListenAddr)
	}
	if len(cfg.Providers.LLMFallbacks) != 1 || cfg.Providers.LLMFallbacks[0].Name != "openai" {
		t.Errorf("LLMFallbacks = %+v, want one openai entry", cfg.Providers.LLMFallbacks)
	}
	if cfg.Interview.MinSpeechDuration != 0.75 {
		t.Errorf("MinSpeechDuration = %f, want 0.75", cfg.Interview.MinSpeechDuration)
	}
	if cfg.Interview.TurnTimeout != 90*time.Second {
		t.Errorf("TurnTimeout = %s, want 1m30s", cfg.Interview.TurnTimeout)
	}
	if len(cfg.Interview.Keywords) != 2 {
		t.Errorf("Keywords = %v, want 2 entries", cfg.Interview.Keywords)
	}
}
