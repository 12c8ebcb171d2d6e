// Package speech turns finished replies into playable audio. It drives a
// synthesis backend, packs the returned PCM into a WAV container, and owns
// the single process-wide playback slot.
package speech

import (
	"context"
	"errors"
	"time"

	"github.com/parley-sh/parley/internal/wav"
)

// Common errors for the speech pipeline.
var (
	// ErrSynthesisFailed reports a failed request to the synthesis backend.
	ErrSynthesisFailed = errors.New("speech synthesis failed")
	// ErrEmptyAudio reports a synthesis response with no usable payload.
	ErrEmptyAudio = errors.New("synthesis returned no audio")
	// ErrBadPCM reports a malformed PCM payload.
	ErrBadPCM = errors.New("malformed pcm payload")
)

// DefaultSampleRate is the sample rate of synthesized audio unless the
// backend reports otherwise.
const DefaultSampleRate = 24000

// Synthesizer produces raw PCM16LE mono samples for a piece of text.
type Synthesizer interface {
	// Speak returns raw little-endian 16-bit mono samples at SampleRate.
	Speak(ctx context.Context, text string) ([]byte, error)
	// SampleRate is the rate of the samples Speak returns.
	SampleRate() int
}

// Clip is a playable synthesized reply: the WAV container plus enough
// metadata to drive and describe playback.
type Clip struct {
	MessageID  string
	WAV        []byte
	SampleRate int
	Duration   time.Duration
}

// PCM returns the raw sample region of the container.
func (c *Clip) PCM() []byte {
	return c.WAV[wav.HeaderSize:]
}
