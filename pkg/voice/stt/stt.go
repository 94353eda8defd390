// Package stt turns captured candidate audio into text.
package stt

import "context"

// Transcriber transcribes one complete utterance. An empty transcript with
// a nil error means no speech was recognized.
type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte) (string, error)
}
