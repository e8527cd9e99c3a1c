package pipeline

import (
	"context"
	"encoding/binary"
	"errors"
	"testing"

	sttmock "github.com/vivavoce/vivavoce/pkg/provider/stt/mock"
	"github.com/vivavoce/vivavoce/pkg/provider/vad"
	vadmock "github.com/vivavoce/vivavoce/pkg/provider/vad/mock"
)

// stubNormalizer returns fixed bytes or an error without spawning ffmpeg.
type stubNormalizer struct {
	out []byte
	err error
}

func (s *stubNormalizer) Normalize(context.Context, []byte) ([]byte, error) {
	return s.out, s.err
}

// monoWAV builds a minimal 16-bit mono RIFF/WAVE stream with n zero samples.
func monoWAV(n int) []byte {
	pcm := make([]byte, n*2)
	var out []byte
	out = append(out, []byte("RIFF")...)
	out = binary.LittleEndian.AppendUint32(out, uint32(36+len(pcm)))
	out = append(out, []byte("WAVE")...)
	out = append(out, []byte("fmt ")...)
	out = binary.LittleEndian.AppendUint32(out, 16)
	out = binary.LittleEndian.AppendUint16(out, 1)
	out = binary.LittleEndian.AppendUint16(out, 1)
	out = binary.LittleEndian.AppendUint32(out, testRate)
	out = binary.LittleEndian.AppendUint32(out, testRate*2)
	out = binary.LittleEndian.AppendUint16(out, 2)
	out = binary.LittleEndian.AppendUint16(out, 16)
	out = append(out, []byte("data")...)
	out = binary.LittleEndian.AppendUint32(out, uint32(len(pcm)))
	out = append(out, pcm...)
	return out
}

// speechSegment covers one full second, comfortably over the default gate.
var speechSegment = []vad.Segment{{Start: 0, End: testRate}}

func newUtterance(norm Normalizer, det *vadmock.Detector, stt *sttmock.Transcriber) *Utterance {
	return NewUtterance(UtteranceConfig{
		Normalizer:  norm,
		Gate:        NewGate(det, 0.5, nil),
		Transcriber: stt,
	})
}

func TestProcess_Accepted(t *testing.T) {
	u := newUtterance(
		&stubNormalizer{out: monoWAV(2 * testRate)},
		&vadmock.Detector{Segments: speechSegment},
		&sttmock.Transcriber{Text: "  I built a distributed cache  "},
	)

	res := u.Process(context.Background(), []byte("raw-opus-bytes"))
	if !res.Accepted() {
		t.Fatalf("rejected with %q, want accepted", res.Rejected)
	}
	if res.Transcript != "I built a distributed cache" {
		t.Errorf("Transcript = %q, want trimmed text", res.Transcript)
	}
}

func TestProcess_ConversionFailed(t *testing.T) {
	stt := &sttmock.Transcriber{Text: "should never run"}
	u := newUtterance(
		&stubNormalizer{err: errors.New("unknown codec")},
		&vadmock.Detector{Segments: speechSegment},
		stt,
	)

	res := u.Process(context.Background(), []byte("garbage"))
	if res.Rejected != RejectConversionFailed {
		t.Errorf("Rejected = %q, want %q", res.Rejected, RejectConversionFailed)
	}
	if len(stt.TranscribeCalls) != 0 {
		t.Error("transcriber must not run after conversion failure")
	}
}

func TestProcess_UnreadableWAV(t *testing.T) {
	u := newUtterance(
		&stubNormalizer{out: []byte("not a wav at all")},
		&vadmock.Detector{Segments: speechSegment},
		&sttmock.Transcriber{},
	)

	res := u.Process(context.Background(), []byte("raw"))
	if res.Rejected != RejectConversionFailed {
		t.Errorf("Rejected = %q, want %q", res.Rejected, RejectConversionFailed)
	}
}

func TestProcess_NoSpeech(t *testing.T) {
	stt := &sttmock.Transcriber{Text: "should never run"}
	u := newUtterance(
		&stubNormalizer{out: monoWAV(2 * testRate)},
		&vadmock.Detector{}, // no segments
		stt,
	)

	res := u.Process(context.Background(), []byte("raw"))
	if res.Rejected != RejectNoSpeech {
		t.Errorf("Rejected = %q, want %q", res.Rejected, RejectNoSpeech)
	}
	if len(stt.TranscribeCalls) != 0 {
		t.Error("transcriber must not run on gated-out clips")
	}
}

func TestProcess_TooShortDespiteSpeech(t *testing.T) {
	// VAD passed, but the transcript trims below three characters.
	u := newUtterance(
		&stubNormalizer{out: monoWAV(2 * testRate)},
		&vadmock.Detector{Segments: speechSegment},
		&sttmock.Transcriber{Text: " hi "},
	)

	res := u.Process(context.Background(), []byte("raw"))
	if res.Rejected != RejectTooShort {
		t.Errorf("Rejected = %q, want %q", res.Rejected, RejectTooShort)
	}
}

func TestProcess_TranscriberErrorBecomesTooShort(t *testing.T) {
	u := newUtterance(
		&stubNormalizer{out: monoWAV(2 * testRate)},
		&vadmock.Detector{Segments: speechSegment},
		&sttmock.Transcriber{Err: errors.New("model not loaded")},
	)

	res := u.Process(context.Background(), []byte("raw"))
	if res.Rejected != RejectTooShort {
		t.Errorf("Rejected = %q, want %q", res.Rejected, RejectTooShort)
	}
}

func TestProcess_ExactMinimumLengthAccepted(t *testing.T) {
	u := newUtterance(
		&stubNormalizer{out: monoWAV(2 * testRate)},
		&vadmock.Detector{Segments: speechSegment},
		&sttmock.Transcriber{Text: "yes"},
	)

	res := u.Process(context.Background(), []byte("raw"))
	if !res.Accepted() {
		t.Fatalf("rejected with %q, want accepted at exactly three characters", res.Rejected)
	}
	if res.Transcript != "yes" {
		t.Errorf("Transcript = %q, want %q", res.Transcript, "yes")
	}
}
