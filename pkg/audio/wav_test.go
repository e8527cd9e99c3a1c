package audio

import (
	"encoding/binary"
	"math"
	"testing"
)

// buildWAV assembles a minimal RIFF/WAVE stream with a 16-bit PCM fmt chunk
// followed by the given interleaved samples.
func buildWAV(t *testing.T, sampleRate, channels int, samples []int16) []byte {
	t.Helper()

	pcm := make([]byte, len(samples)*2)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(pcm[i*2:], uint16(s))
	}

	var out []byte
	out = append(out, []byte("RIFF")...)
	out = binary.LittleEndian.AppendUint32(out, uint32(36+len(pcm)))
	out = append(out, []byte("WAVE")...)

	out = append(out, []byte("fmt ")...)
	out = binary.LittleEndian.AppendUint32(out, 16)
	out = binary.LittleEndian.AppendUint16(out, 1) // PCM
	out = binary.LittleEndian.AppendUint16(out, uint16(channels))
	out = binary.LittleEndian.AppendUint32(out, uint32(sampleRate))
	out = binary.LittleEndian.AppendUint32(out, uint32(sampleRate*channels*2))
	out = binary.LittleEndian.AppendUint16(out, uint16(channels*2))
	out = binary.LittleEndian.AppendUint16(out, 16)

	out = append(out, []byte("data")...)
	out = binary.LittleEndian.AppendUint32(out, uint32(len(pcm)))
	out = append(out, pcm...)

	return out
}

func TestDecodeWAV(t *testing.T) {
	t.Run("mono 16-bit", func(t *testing.T) {
		wav := buildWAV(t, 16000, 1, []int16{0, 16384, -16384, 32767})

		clip, err := DecodeWAV(wav)
		if err != nil {
			t.Fatalf("DecodeWAV() error = %v", err)
		}
		if clip.SampleRate != 16000 {
			t.Errorf("SampleRate = %d, want 16000", clip.SampleRate)
		}
		if len(clip.Samples) != 4 {
			t.Fatalf("len(Samples) = %d, want 4", len(clip.Samples))
		}
		if clip.Samples[0] != 0 {
			t.Errorf("Samples[0] = %f, want 0", clip.Samples[0])
		}
		if got := clip.Samples[1]; math.Abs(float64(got)-0.5) > 0.001 {
			t.Errorf("Samples[1] = %f, want ~0.5", got)
		}
		if got := clip.Samples[2]; math.Abs(float64(got)+0.5) > 0.001 {
			t.Errorf("Samples[2] = %f, want ~-0.5", got)
		}
	})

	t.Run("stereo downmixed to mono", func(t *testing.T) {
		// Two frames: (L=1000, R=3000) and (L=-2000, R=-4000).
		wav := buildWAV(t, 44100, 2, []int16{1000, 3000, -2000, -4000})

		clip, err := DecodeWAV(wav)
		if err != nil {
			t.Fatalf("DecodeWAV() error = %v", err)
		}
		if len(clip.Samples) != 2 {
			t.Fatalf("len(Samples) = %d, want 2", len(clip.Samples))
		}
		want0 := float32(2000) / 32768.0
		if got := clip.Samples[0]; math.Abs(float64(got-want0)) > 0.001 {
			t.Errorf("Samples[0] = %f, want ~%f", got, want0)
		}
	})

	t.Run("streaming size sentinel", func(t *testing.T) {
		// ffmpeg writing to a pipe cannot seek back to patch chunk sizes and
		// leaves 0xFFFFFFFF; the decoder must take the remaining bytes.
		wav := buildWAV(t, 16000, 1, []int16{100, 200, 300})
		dataSizeOff := len(wav) - 3*2 - 4
		binary.LittleEndian.PutUint32(wav[dataSizeOff:], 0xFFFFFFFF)

		clip, err := DecodeWAV(wav)
		if err != nil {
			t.Fatalf("DecodeWAV() error = %v", err)
		}
		if len(clip.Samples) != 3 {
			t.Errorf("len(Samples) = %d, want 3", len(clip.Samples))
		}
	})

	t.Run("rejects non-wav input", func(t *testing.T) {
		if _, err := DecodeWAV([]byte("definitely not audio data here")); err == nil {
			t.Error("DecodeWAV() expected error for non-WAV input")
		}
	})

	t.Run("rejects truncated header", func(t *testing.T) {
		if _, err := DecodeWAV([]byte("RIFF")); err == nil {
			t.Error("DecodeWAV() expected error for truncated header")
		}
	})

	t.Run("rejects missing data chunk", func(t *testing.T) {
		wav := buildWAV(t, 16000, 1, []int16{1, 2, 3})
		// Keep only the header and fmt chunk.
		wav = wav[:12+8+16]
		binary.LittleEndian.PutUint32(wav[4:], uint32(len(wav)-8))

		if _, err := DecodeWAV(wav); err == nil {
			t.Error("DecodeWAV() expected error for missing data chunk")
		}
	})
}

func TestClipDuration(t *testing.T) {
	clip := Clip{Samples: make([]float32, 8000), SampleRate: 16000}
	if got := clip.Duration(); got != 0.5 {
		t.Errorf("Duration() = %f, want 0.5", got)
	}

	empty := Clip{}
	if got := empty.Duration(); got != 0 {
		t.Errorf("Duration() on zero clip = %f, want 0", got)
	}
}

func TestPCMToFloat32Mono(t *testing.T) {
	pcm := make([]byte, 8)
	neg := int16(-8192)
	binary.LittleEndian.PutUint16(pcm[0:], uint16(int16(8192)))
	binary.LittleEndian.PutUint16(pcm[2:], uint16(neg))
	binary.LittleEndian.PutUint16(pcm[4:], uint16(int16(16384)))
	binary.LittleEndian.PutUint16(pcm[6:], uint16(int16(0)))

	mono := PCMToFloat32Mono(pcm, 2)
	if len(mono) != 2 {
		t.Fatalf("len = %d, want 2", len(mono))
	}
	if mono[0] != 0 {
		t.Errorf("frame 0 = %f, want 0 (channels cancel)", mono[0])
	}
	if got, want := mono[1], float32(8192)/32768.0; got != want {
		t.Errorf("frame 1 = %f, want %f", got, want)
	}
}
