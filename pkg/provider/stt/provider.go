// Package stt defines the Transcriber interface for Speech-to-Text backends.
//
// Unlike streaming recognisers, the interview pipeline works on complete
// utterance clips: the transport delivers one audio blob per turn, the blob is
// normalised to mono 16 kHz samples, and the whole clip is transcribed in one
// batch call. Transcriber reflects that shape.
//
// Implementations must be safe for concurrent use.
package stt

import "context"

// Transcriber is the abstraction over any batch STT backend.
type Transcriber interface {
	// Transcribe converts a complete mono audio clip into text. samples are
	// float32 values in [-1.0, 1.0] at the given sample rate.
	//
	// A successful call may return an empty string when the clip contains no
	// recognisable speech; callers must treat empty text as a valid result,
	// not an error.
	Transcribe(ctx context.Context, samples []float32, sampleRate int) (string, error)
}
