package speech

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/time/rate"

	"github.com/parley-sh/parley/internal/wav"
)

// Pipeline orchestrates synthesis: request audio, decode and normalize the
// samples, pack them into a container, and hand back a playable clip. Every
// failure mode folds into a nil clip with the cause logged; nothing here can
// take down the caller.
type Pipeline struct {
	syn     Synthesizer
	model   string
	voice   string
	cache   *Cache
	limiter *rate.Limiter
}

// NewPipeline creates a pipeline over the given backend. model and voice
// distinguish cache entries; cache may be nil.
func NewPipeline(syn Synthesizer, model, voice string, cache *Cache) *Pipeline {
	return &Pipeline{
		syn:     syn,
		model:   model,
		voice:   voice,
		cache:   cache,
		// One request every two seconds with a small burst keeps rapid
		// toggling from hammering the synthesis API.
		limiter: rate.NewLimiter(rate.Every(2*time.Second), 2),
	}
}

// Synthesize voices text for the given message and returns a playable clip,
// or nil on any failure.
func (p *Pipeline) Synthesize(ctx context.Context, msgID, text string) *Clip {
	if text == "" {
		return nil
	}

	key := Key(p.model, p.voice, text)
	if p.cache != nil {
		if data, ok := p.cache.Get(key); ok {
			log.Debug("clip cache hit", "msg", msgID)
			return p.clip(msgID, data)
		}
	}

	if err := p.limiter.Wait(ctx); err != nil {
		return nil
	}

	pcm, err := p.syn.Speak(ctx, text)
	if err != nil {
		log.Error("synthesis request failed", "err", err)
		return nil
	}
	if len(pcm) == 0 {
		log.Error("synthesis returned nothing", "err", ErrEmptyAudio)
		return nil
	}

	samples, err := wav.DecodeSamples(pcm)
	if err != nil {
		log.Error("could not decode synthesis payload", "err", ErrBadPCM, "cause", err)
		return nil
	}

	data := wav.Encode(samples, 1, p.syn.SampleRate())
	if p.cache != nil {
		p.cache.Put(key, data)
	}
	return p.clip(msgID, data)
}

func (p *Pipeline) clip(msgID string, data []byte) *Clip {
	frames := (len(data) - wav.HeaderSize) / 2
	sr := p.syn.SampleRate()
	return &Clip{
		MessageID:  msgID,
		WAV:        data,
		SampleRate: sr,
		Duration:   time.Duration(frames) * time.Second / time.Duration(sr),
	}
}
