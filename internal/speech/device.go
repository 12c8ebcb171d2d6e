package speech

import (
	"bytes"
	"fmt"
	"sync"

	"github.com/ebitengine/oto/v3"
)

// Device opens playback of raw PCM16LE mono samples on an audio output.
type Device interface {
	Start(pcm []byte) (Handle, error)
}

// Handle is one live playback on a device. Stop releases the underlying
// resource; after Stop or natural completion Playing reports false.
type Handle interface {
	Playing() bool
	Stop()
}

// OtoDevice plays PCM through the system audio output via oto. The oto
// context can only be created once per process, so it is initialized lazily
// on first playback and reused.
type OtoDevice struct {
	sampleRate int

	once sync.Once
	ctx  *oto.Context
	err  error
}

// NewOtoDevice creates a device that will open the audio output at the
// given sample rate.
func NewOtoDevice(sampleRate int) *OtoDevice {
	return &OtoDevice{sampleRate: sampleRate}
}

// Start begins playback of the given samples.
func (d *OtoDevice) Start(pcm []byte) (Handle, error) {
	d.once.Do(func() {
		ctx, ready, err := oto.NewContext(&oto.NewContextOptions{
			SampleRate:   d.sampleRate,
			ChannelCount: 1,
			Format:       oto.FormatSignedInt16LE,
		})
		if err != nil {
			d.err = fmt.Errorf("opening audio output: %w", err)
			return
		}
		<-ready
		d.ctx = ctx
	})
	if d.err != nil {
		return nil, d.err
	}

	// The reader's backing slice must stay alive for the whole playback.
	data := make([]byte, len(pcm))
	copy(data, pcm)

	p := d.ctx.NewPlayer(bytes.NewReader(data))
	p.Play()
	return &otoHandle{player: p, data: data}, nil
}

type otoHandle struct {
	player *oto.Player
	data   []byte
}

func (h *otoHandle) Playing() bool {
	return h.player.IsPlaying()
}

func (h *otoHandle) Stop() {
	_ = h.player.Close()
	h.data = nil
}
