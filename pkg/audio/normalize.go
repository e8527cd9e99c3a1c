// Package audio provides utterance-clip normalisation and WAV decoding for
// the interview pipeline.
//
// Browsers deliver recordings in whatever container MediaRecorder picked
// (typically WebM/Opus). Normalizer shells out to ffmpeg to transcode any
// such clip to mono 16 kHz 16-bit PCM WAV, the format the VAD and speech
// recognition stages expect.
package audio

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

const (
	defaultBinary = "ffmpeg"

	// DefaultSampleRate is the pipeline-wide sample rate for normalised clips.
	DefaultSampleRate = 16000
)

// Normalizer transcodes arbitrary audio clips to mono PCM WAV at a fixed
// sample rate by piping them through ffmpeg. It is read-only after
// construction and safe for concurrent use; each call spawns its own process.
type Normalizer struct {
	binary     string
	sampleRate int
}

// NormalizerOption is a functional option for configuring a Normalizer.
type NormalizerOption func(*Normalizer)

// WithBinary overrides the ffmpeg executable path. Default: "ffmpeg".
func WithBinary(path string) NormalizerOption {
	return func(n *Normalizer) { n.binary = path }
}

// WithSampleRate sets the output sample rate in Hz. Default: 16000.
func WithSampleRate(rate int) NormalizerOption {
	return func(n *Normalizer) { n.sampleRate = rate }
}

// NewNormalizer returns a Normalizer configured with the supplied options.
func NewNormalizer(opts ...NormalizerOption) *Normalizer {
	n := &Normalizer{
		binary:     defaultBinary,
		sampleRate: DefaultSampleRate,
	}
	for _, o := range opts {
		o(n)
	}
	return n
}

// SampleRate returns the output sample rate of normalised clips.
func (n *Normalizer) SampleRate() int { return n.sampleRate }

// Available reports whether the ffmpeg binary can be executed.
// Intended for readiness checks.
func (n *Normalizer) Available(ctx context.Context) error {
	cmd := exec.CommandContext(ctx, n.binary, "-version")
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("audio: ffmpeg binary %q not runnable: %w", n.binary, err)
	}
	return nil
}

// Normalize transcodes clip to mono 16-bit PCM WAV at the configured sample
// rate. The input container and codec are whatever ffmpeg can probe from the
// byte stream. A failure here usually means the clip is truncated or not
// audio at all.
func (n *Normalizer) Normalize(ctx context.Context, clip []byte) ([]byte, error) {
	if len(clip) == 0 {
		return nil, fmt.Errorf("audio: empty clip")
	}

	args := []string{
		"-hide_banner", "-loglevel", "error",
		"-i", "pipe:0",
		"-ac", "1",
		"-ar", strconv.Itoa(n.sampleRate),
		"-f", "wav",
		"pipe:1",
	}

	cmd := exec.CommandContext(ctx, n.binary, args...)
	cmd.Stdin = bytes.NewReader(clip)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("audio: ffmpeg transcode: %w (stderr: %s)", err, strings.TrimSpace(stderr.String()))
	}
	if stdout.Len() == 0 {
		return nil, fmt.Errorf("audio: ffmpeg produced no output")
	}

	return stdout.Bytes(), nil
}
