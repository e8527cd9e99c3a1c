package audio

import (
	"encoding/binary"
	"fmt"
)

// Clip is a decoded mono waveform ready for analysis.
type Clip struct {
	// Samples are float32 values normalised to [-1.0, 1.0].
	Samples []float32

	// SampleRate is the waveform sample rate in Hz.
	SampleRate int
}

// Duration returns the clip length in seconds.
func (c Clip) Duration() float64 {
	if c.SampleRate <= 0 {
		return 0
	}
	return float64(len(c.Samples)) / float64(c.SampleRate)
}

// DecodeWAV parses a RIFF/WAVE byte stream containing 16-bit PCM and returns
// the decoded clip. Multi-channel input is down-mixed to mono by averaging
// all channels per frame. Chunks other than "fmt " and "data" are skipped.
func DecodeWAV(wav []byte) (Clip, error) {
	if len(wav) < 12 {
		return Clip{}, fmt.Errorf("audio: wav header truncated (%d bytes)", len(wav))
	}
	if string(wav[0:4]) != "RIFF" || string(wav[8:12]) != "WAVE" {
		return Clip{}, fmt.Errorf("audio: not a RIFF/WAVE stream")
	}

	var (
		sampleRate int
		channels   int
		bitDepth   int
		pcm        []byte
		haveFmt    bool
	)

	// Walk the chunk list. Chunk payloads are word-aligned, so odd sizes
	// carry a pad byte.
	off := 12
	for off+8 <= len(wav) {
		id := string(wav[off : off+4])
		size := int(binary.LittleEndian.Uint32(wav[off+4 : off+8]))
		body := off + 8
		if size < 0 || body+size > len(wav) {
			// ffmpeg writes size 0xFFFFFFFF when streaming to a pipe; take
			// everything that remains.
			size = len(wav) - body
		}

		switch id {
		case "fmt ":
			if size < 16 {
				return Clip{}, fmt.Errorf("audio: fmt chunk too small (%d bytes)", size)
			}
			format := binary.LittleEndian.Uint16(wav[body : body+2])
			if format != 1 { // PCM
				return Clip{}, fmt.Errorf("audio: unsupported wav format code %d", format)
			}
			channels = int(binary.LittleEndian.Uint16(wav[body+2 : body+4]))
			sampleRate = int(binary.LittleEndian.Uint32(wav[body+4 : body+8]))
			bitDepth = int(binary.LittleEndian.Uint16(wav[body+14 : body+16]))
			haveFmt = true
		case "data":
			pcm = wav[body : body+size]
		}

		off = body + size
		if size%2 == 1 {
			off++
		}
	}

	if !haveFmt {
		return Clip{}, fmt.Errorf("audio: wav missing fmt chunk")
	}
	if pcm == nil {
		return Clip{}, fmt.Errorf("audio: wav missing data chunk")
	}
	if bitDepth != 16 {
		return Clip{}, fmt.Errorf("audio: unsupported bit depth %d", bitDepth)
	}
	if channels <= 0 || sampleRate <= 0 {
		return Clip{}, fmt.Errorf("audio: invalid wav format (%d channels, %d Hz)", channels, sampleRate)
	}

	return Clip{
		Samples:    PCMToFloat32Mono(pcm, channels),
		SampleRate: sampleRate,
	}, nil
}

// PCMToFloat32 converts 16-bit signed little-endian PCM to float32 samples
// normalised to the range [-1.0, 1.0]. Any trailing odd byte is ignored.
func PCMToFloat32(pcm []byte) []float32 {
	n := len(pcm) / 2
	samples := make([]float32, n)
	for i := range n {
		sample := int16(binary.LittleEndian.Uint16(pcm[i*2 : i*2+2]))
		samples[i] = float32(sample) / 32768.0
	}
	return samples
}

// PCMToFloat32Mono down-mixes multi-channel 16-bit PCM to mono float32 by
// averaging all channels per frame. If channels is 1 this is equivalent to
// PCMToFloat32.
func PCMToFloat32Mono(pcm []byte, channels int) []float32 {
	if channels <= 1 {
		return PCMToFloat32(pcm)
	}
	samplesPerChannel := len(pcm) / (2 * channels)
	mono := make([]float32, samplesPerChannel)
	for i := range samplesPerChannel {
		var sum float32
		for ch := range channels {
			idx := (i*channels + ch) * 2
			sample := int16(binary.LittleEndian.Uint16(pcm[idx : idx+2]))
			sum += float32(sample) / 32768.0
		}
		mono[i] = sum / float32(channels)
	}
	return mono
}
