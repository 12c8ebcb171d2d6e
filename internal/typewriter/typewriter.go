// Package typewriter paces the reveal of streamed text. Fragments arrive in
// bursts over the network; the reveal advances on a steady rendering tick,
// catching up quickly when far behind and trickling near the live edge so
// the display never visibly stalls on network jitter.
package typewriter

// State tracks how much of a growing target text has been revealed. The
// reveal cursor counts runes so a step never splits a multibyte character.
// Revealed is non-decreasing and never exceeds the target length.
type State struct {
	target    []rune
	revealed  int
	streaming bool
}

// NewStreaming returns a state for a message still being streamed; nothing
// is revealed yet.
func NewStreaming() *State {
	return &State{streaming: true}
}

// NewSettled returns a state for an already-complete message, fully revealed
// so it displays instantly.
func NewSettled(text string) *State {
	r := []rune(text)
	return &State{target: r, revealed: len(r)}
}

// Grow extends the target text with a newly arrived delta.
func (s *State) Grow(delta string) {
	s.target = append(s.target, []rune(delta)...)
}

// Settle marks the stream finished; the reveal keeps ticking until it
// catches up, then stops.
func (s *State) Settle() {
	s.streaming = false
}

// Streaming reports whether the stream is still open.
func (s *State) Streaming() bool {
	return s.streaming
}

// Backlog is the number of target runes not yet revealed.
func (s *State) Backlog() int {
	return len(s.target) - s.revealed
}

// Revealed returns the current reveal cursor, in runes.
func (s *State) Revealed() int {
	return s.revealed
}

// step picks a reveal increment from the backlog size: large backlogs catch
// up in big strides, small ones trickle out a rune or two per tick.
func step(backlog int) int {
	switch {
	case backlog > 200:
		return 15
	case backlog > 100:
		return 10
	case backlog > 50:
		return 6
	case backlog > 20:
		return 3
	case backlog > 5:
		return 2
	default:
		return 1
	}
}

// Tick advances the reveal by one step, clamped to the current target
// length, and reports whether further ticks are needed. While streaming the
// controller always wants another tick, so freshly arrived text is revealed
// with minimal latency; once settled it stops as soon as the reveal has
// converged.
func (s *State) Tick() (active bool) {
	if backlog := s.Backlog(); backlog > 0 {
		n := step(backlog)
		if n > backlog {
			n = backlog
		}
		s.revealed += n
	}
	return s.streaming || s.Backlog() > 0
}

// Visible returns the currently revealed prefix of the target text.
func (s *State) Visible() string {
	return string(s.target[:s.revealed])
}
