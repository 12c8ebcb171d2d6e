package speech

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/parley-sh/parley/internal/wav"
)

type fakeHandle struct {
	mu      sync.Mutex
	playing bool
	stopped bool
}

func (h *fakeHandle) Playing() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.playing
}

func (h *fakeHandle) Stop() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.playing = false
	h.stopped = true
}

func (h *fakeHandle) finish() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.playing = false
}

type fakeDevice struct {
	mu      sync.Mutex
	handles []*fakeHandle
	err     error
}

func (d *fakeDevice) Start(pcm []byte) (Handle, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.err != nil {
		return nil, d.err
	}
	h := &fakeHandle{playing: true}
	d.handles = append(d.handles, h)
	return h, nil
}

func testClip(id string) *Clip {
	return &Clip{
		MessageID:  id,
		WAV:        wav.Encode(make([]float64, 240), 1, DefaultSampleRate),
		SampleRate: DefaultSampleRate,
	}
}

func TestPlayer_ExclusiveSlot(t *testing.T) {
	dev := &fakeDevice{}
	p := NewPlayer(dev, 1.0)

	playing, err := p.Toggle(testClip("m1"))
	if err != nil || !playing {
		t.Fatalf("first toggle: playing=%v err=%v", playing, err)
	}
	if got := p.PlayingID(); got != "m1" {
		t.Errorf("playing id = %q, want m1", got)
	}

	playing, err = p.Toggle(testClip("m2"))
	if err != nil || !playing {
		t.Fatalf("second toggle: playing=%v err=%v", playing, err)
	}
	if got := p.PlayingID(); got != "m2" {
		t.Errorf("playing id = %q, want m2", got)
	}
	if len(dev.handles) != 2 {
		t.Fatalf("device started %d playbacks, want 2", len(dev.handles))
	}
	if !dev.handles[0].stopped {
		t.Error("first playback was not released before starting the second")
	}
	if dev.handles[1].stopped {
		t.Error("second playback should still be live")
	}
}

func TestPlayer_ToggleSameMessageStops(t *testing.T) {
	dev := &fakeDevice{}
	p := NewPlayer(dev, 1.0)

	if _, err := p.Toggle(testClip("m1")); err != nil {
		t.Fatal(err)
	}
	playing, err := p.Toggle(testClip("m1"))
	if err != nil {
		t.Fatal(err)
	}
	if playing {
		t.Error("toggling the playing message should stop it")
	}
	if got := p.PlayingID(); got != "" {
		t.Errorf("playing id = %q after toggle-off, want empty", got)
	}
	if !dev.handles[0].stopped {
		t.Error("playback resource not released on toggle-off")
	}
}

func TestPlayer_Stop(t *testing.T) {
	dev := &fakeDevice{}
	p := NewPlayer(dev, 1.0)

	if _, err := p.Toggle(testClip("m1")); err != nil {
		t.Fatal(err)
	}
	p.Stop()
	if got := p.PlayingID(); got != "" {
		t.Errorf("playing id = %q after Stop, want empty", got)
	}

	// Stop on an idle player is a no-op.
	p.Stop()
}

func TestPlayer_NaturalCompletionClearsSlot(t *testing.T) {
	dev := &fakeDevice{}
	p := NewPlayer(dev, 1.0)

	if _, err := p.Toggle(testClip("m1")); err != nil {
		t.Fatal(err)
	}
	dev.handles[0].finish()

	deadline := time.After(2 * time.Second)
	for p.PlayingID() != "" {
		select {
		case <-deadline:
			t.Fatal("slot not cleared after natural completion")
		case <-time.After(20 * time.Millisecond):
		}
	}
}

func TestPlayer_DeviceError(t *testing.T) {
	dev := &fakeDevice{err: errors.New("no output device")}
	p := NewPlayer(dev, 1.0)

	playing, err := p.Toggle(testClip("m1"))
	if err == nil || playing {
		t.Errorf("expected error from device, got playing=%v err=%v", playing, err)
	}
	if got := p.PlayingID(); got != "" {
		t.Errorf("playing id = %q after failed start, want empty", got)
	}
}

func TestPlayer_DefaultRate(t *testing.T) {
	p := NewPlayer(&fakeDevice{}, 0)
	if p.Rate() != DefaultRate {
		t.Errorf("rate = %v, want %v", p.Rate(), DefaultRate)
	}
}
