package speech

import (
	"context"
	"fmt"
	"io"

	openai "github.com/sashabaranov/go-openai"
)

// OpenAI is a Synthesizer backed by the OpenAI speech API. The PCM response
// format is 16-bit little-endian mono at 24 kHz, which is exactly what the
// pipeline consumes.
type OpenAI struct {
	client *openai.Client
	model  string
	voice  string
}

// NewOpenAI creates an OpenAI synthesizer. Empty model or voice fall back to
// tts-1 and alloy.
func NewOpenAI(apiKey, model, voice string) *OpenAI {
	if model == "" {
		model = string(openai.TTSModel1)
	}
	if voice == "" {
		voice = string(openai.VoiceAlloy)
	}
	return &OpenAI{
		client: openai.NewClient(apiKey),
		model:  model,
		voice:  voice,
	}
}

// Speak requests synthesis and returns the raw PCM payload.
func (o *OpenAI) Speak(ctx context.Context, text string) ([]byte, error) {
	res, err := o.client.CreateSpeech(ctx, openai.CreateSpeechRequest{
		Model:          openai.SpeechModel(o.model),
		Input:          text,
		Voice:          openai.SpeechVoice(o.voice),
		ResponseFormat: openai.SpeechResponseFormatPcm,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSynthesisFailed, err)
	}
	defer res.Close() //nolint:errcheck

	pcm, err := io.ReadAll(res)
	if err != nil {
		return nil, fmt.Errorf("%w: reading response: %v", ErrSynthesisFailed, err)
	}
	return pcm, nil
}

// SampleRate returns the fixed rate of the API's PCM output.
func (o *OpenAI) SampleRate() int {
	return DefaultSampleRate
}

// Model returns the configured synthesis model; the clip cache keys on it.
func (o *OpenAI) Model() string {
	return o.model
}

// Voice returns the configured voice name; the clip cache keys on it.
func (o *OpenAI) Voice() string {
	return o.voice
}
