// Package tts synthesizes interviewer speech.
package tts

import "context"

// Synthesizer renders one sentence of text as a complete WAV clip.
type Synthesizer interface {
	Synthesize(ctx context.Context, text string) ([]byte, error)
}
