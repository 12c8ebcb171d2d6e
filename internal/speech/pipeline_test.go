package speech

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/parley-sh/parley/internal/wav"
)

type fakeSynth struct {
	pcm   []byte
	err   error
	calls int
}

func (f *fakeSynth) Speak(context.Context, string) ([]byte, error) {
	f.calls++
	return f.pcm, f.err
}

func (f *fakeSynth) SampleRate() int { return DefaultSampleRate }

func TestSynthesize_Success(t *testing.T) {
	pcm := make([]byte, 24000*2) // one second of silence
	p := NewPipeline(&fakeSynth{pcm: pcm}, "tts-1", "alloy", nil)

	clip := p.Synthesize(context.Background(), "m1", "hello")
	if clip == nil {
		t.Fatal("Synthesize returned nil for valid input")
	}
	if clip.MessageID != "m1" {
		t.Errorf("message id = %q, want m1", clip.MessageID)
	}
	if len(clip.WAV) != len(pcm)+wav.HeaderSize {
		t.Errorf("container length = %d, want %d", len(clip.WAV), len(pcm)+wav.HeaderSize)
	}
	if !bytes.Equal(clip.WAV[0:4], []byte("RIFF")) {
		t.Errorf("container does not start with RIFF: %q", clip.WAV[0:4])
	}
	if clip.Duration != time.Second {
		t.Errorf("duration = %v, want 1s", clip.Duration)
	}
}

func TestSynthesize_ServiceError(t *testing.T) {
	p := NewPipeline(&fakeSynth{err: errors.New("quota exceeded")}, "tts-1", "alloy", nil)
	if clip := p.Synthesize(context.Background(), "m1", "hello"); clip != nil {
		t.Error("expected nil clip on service error")
	}
}

func TestSynthesize_EmptyPayload(t *testing.T) {
	p := NewPipeline(&fakeSynth{}, "tts-1", "alloy", nil)
	if clip := p.Synthesize(context.Background(), "m1", "hello"); clip != nil {
		t.Error("expected nil clip on empty payload")
	}
}

func TestSynthesize_MalformedPCM(t *testing.T) {
	p := NewPipeline(&fakeSynth{pcm: []byte{1, 2, 3}}, "tts-1", "alloy", nil)
	if clip := p.Synthesize(context.Background(), "m1", "hello"); clip != nil {
		t.Error("expected nil clip on odd-length payload")
	}
}

func TestSynthesize_EmptyText(t *testing.T) {
	syn := &fakeSynth{pcm: []byte{0, 0}}
	p := NewPipeline(syn, "tts-1", "alloy", nil)
	if clip := p.Synthesize(context.Background(), "m1", ""); clip != nil {
		t.Error("expected nil clip for empty text")
	}
	if syn.calls != 0 {
		t.Error("backend called for empty text")
	}
}

func TestSynthesize_CacheHit(t *testing.T) {
	cache, err := NewCache("", 1<<20)
	if err != nil {
		t.Fatal(err)
	}
	syn := &fakeSynth{pcm: make([]byte, 480)}
	p := NewPipeline(syn, "tts-1", "alloy", cache)

	first := p.Synthesize(context.Background(), "m1", "hello")
	second := p.Synthesize(context.Background(), "m2", "hello")
	if first == nil || second == nil {
		t.Fatal("unexpected nil clip")
	}
	if syn.calls != 1 {
		t.Errorf("backend called %d times, want 1 (second should hit cache)", syn.calls)
	}
	if !bytes.Equal(first.WAV, second.WAV) {
		t.Error("cached clip differs from synthesized one")
	}
	if second.MessageID != "m2" {
		t.Errorf("cached clip keeps stale message id %q", second.MessageID)
	}
}
