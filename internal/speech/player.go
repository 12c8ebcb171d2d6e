package speech

import (
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

// DefaultRate is the playback speed multiplier applied to voiced replies.
const DefaultRate = 1.6

// Player owns the single playback slot: at most one clip is ever audible,
// keyed by the message it voices. Starting a new clip stops and releases the
// current one first; natural completion clears the slot.
type Player struct {
	dev  Device
	rate float64

	mu        sync.Mutex
	current   Handle
	currentID string
}

// NewPlayer creates a player on the given device. A rate of 0 means
// DefaultRate.
func NewPlayer(dev Device, rate float64) *Player {
	if rate <= 0 {
		rate = DefaultRate
	}
	return &Player{dev: dev, rate: rate}
}

// Toggle starts playback of the clip, stopping whatever was playing. If the
// clip's message is the one currently audible the call stops it instead.
// The returned bool reports whether the clip is now playing.
func (p *Player) Toggle(clip *Clip) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.currentID == clip.MessageID {
		p.stopLocked()
		return false, nil
	}
	p.stopLocked()

	h, err := p.dev.Start(resample(clip.PCM(), p.rate))
	if err != nil {
		return false, fmt.Errorf("starting playback: %w", err)
	}
	p.current = h
	p.currentID = clip.MessageID
	go p.watch(h)
	return true, nil
}

// Stop halts playback and releases the slot. Safe to call when idle.
func (p *Player) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stopLocked()
}

func (p *Player) stopLocked() {
	if p.current != nil {
		p.current.Stop()
		p.current = nil
		p.currentID = ""
	}
}

// PlayingID returns the id of the message currently audible, or "".
func (p *Player) PlayingID() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.currentID
}

// Rate returns the configured playback speed multiplier.
func (p *Player) Rate() float64 {
	return p.rate
}

// watch polls the handle until playback ends, then clears the slot. The
// handle identity check keeps a finished watch from clearing a playback
// that superseded it.
func (p *Player) watch(h Handle) {
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for range ticker.C {
		p.mu.Lock()
		if p.current != h {
			p.mu.Unlock()
			return
		}
		if !h.Playing() {
			h.Stop()
			p.current = nil
			p.currentID = ""
			p.mu.Unlock()
			log.Debug("playback finished")
			return
		}
		p.mu.Unlock()
	}
}
