package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/vivavoce/vivavoce/pkg/audio"
	"github.com/vivavoce/vivavoce/pkg/provider/vad"
	vadmock "github.com/vivavoce/vivavoce/pkg/provider/vad/mock"
)

const testRate = 16000

func testClip(seconds float64) audio.Clip {
	return audio.Clip{
		Samples:    make([]float32, int(seconds*testRate)),
		SampleRate: testRate,
	}
}

func TestHasSufficientSpeech(t *testing.T) {
	tests := []struct {
		name     string
		segments []vad.Segment
		minDur   float64
		want     bool
	}{
		{
			name:     "no segments",
			segments: nil,
			minDur:   0.5,
			want:     false,
		},
		{
			name:     "single segment over threshold",
			segments: []vad.Segment{{Start: 0, End: testRate}}, // 1.0s
			minDur:   0.5,
			want:     true,
		},
		{
			name:     "single segment under threshold",
			segments: []vad.Segment{{Start: 0, End: testRate / 4}}, // 0.25s
			minDur:   0.5,
			want:     false,
		},
		{
			name: "sum across gaps reaches threshold",
			segments: []vad.Segment{
				{Start: 0, End: testRate / 5},              // 0.2s
				{Start: testRate, End: testRate + 3200},    // 0.2s
				{Start: 2 * testRate, End: 2*testRate + 1600}, // 0.1s
			},
			minDur: 0.5,
			want:   true,
		},
		{
			name:     "sum exactly at threshold is inclusive",
			segments: []vad.Segment{{Start: 0, End: testRate / 2}}, // exactly 0.5s
			minDur:   0.5,
			want:     true,
		},
		{
			name:     "zero threshold accepts silence",
			segments: nil,
			minDur:   0,
			want:     true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			det := &vadmock.Detector{Segments: tt.segments}
			g := NewGate(det, tt.minDur, nil)

			got := g.HasSufficientSpeech(context.Background(), testClip(3))
			if got != tt.want {
				t.Errorf("HasSufficientSpeech() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestHasSufficientSpeech_DetectorError(t *testing.T) {
	det := &vadmock.Detector{Err: errors.New("model crashed")}
	g := NewGate(det, 0.5, nil)

	if g.HasSufficientSpeech(context.Background(), testClip(3)) {
		t.Error("detector error must be treated as no speech")
	}
}
