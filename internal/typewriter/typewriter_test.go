package typewriter

import (
	"strings"
	"testing"
)

func TestStep(t *testing.T) {
	tests := []struct {
		backlog int
		want    int
	}{
		{240, 15},
		{201, 15},
		{200, 10},
		{101, 10},
		{100, 6},
		{51, 6},
		{50, 3},
		{21, 3},
		{20, 2},
		{6, 2},
		{5, 1},
		{1, 1},
		{0, 1},
	}
	for _, tt := range tests {
		if got := step(tt.backlog); got != tt.want {
			t.Errorf("step(%d) = %d, want %d", tt.backlog, got, tt.want)
		}
	}
}

func TestTick_MonotoneAndBounded(t *testing.T) {
	s := NewStreaming()
	prev := 0
	// Grow in bursts between ticks, as a stream would.
	for i := 0; i < 50; i++ {
		if i%3 == 0 {
			s.Grow(strings.Repeat("x", 17))
		}
		s.Tick()
		if s.Revealed() < prev {
			t.Fatalf("reveal went backwards: %d -> %d", prev, s.Revealed())
		}
		if s.Backlog() < 0 {
			t.Fatalf("revealed %d exceeds target %d", s.Revealed(), s.Revealed()+s.Backlog())
		}
		prev = s.Revealed()
	}
}

func TestTick_ConvergesExactly(t *testing.T) {
	s := NewStreaming()
	s.Grow(strings.Repeat("a", 240))
	s.Settle()

	ticks := 0
	for s.Tick() {
		ticks++
		if ticks > 1000 {
			t.Fatal("reveal did not converge")
		}
	}
	if s.Backlog() != 0 {
		t.Errorf("backlog = %d after convergence, want 0", s.Backlog())
	}
	if s.Revealed() != 240 {
		t.Errorf("revealed = %d, want 240", s.Revealed())
	}
}

func TestTick_KeepsTickingWhileStreaming(t *testing.T) {
	s := NewStreaming()
	s.Grow("hi")
	for i := 0; i < 10; i++ {
		if !s.Tick() {
			t.Fatal("streaming state stopped ticking before Settle")
		}
	}
	if s.Visible() != "hi" {
		t.Errorf("visible = %q, want %q", s.Visible(), "hi")
	}

	s.Settle()
	if s.Tick() {
		t.Error("settled, caught-up state still wants ticks")
	}
}

func TestNewSettled_DisplaysInstantly(t *testing.T) {
	s := NewSettled("complete message")
	if s.Backlog() != 0 {
		t.Errorf("backlog = %d, want 0", s.Backlog())
	}
	if s.Visible() != "complete message" {
		t.Errorf("visible = %q, want full text", s.Visible())
	}
	if s.Tick() {
		t.Error("settled state scheduled a tick")
	}
}

func TestVisible_RuneBoundaries(t *testing.T) {
	s := NewStreaming()
	s.Grow("héllo wörld")
	s.Settle()
	for s.Tick() {
		if strings.ContainsRune(s.Visible(), '�') {
			t.Fatalf("reveal split a rune: %q", s.Visible())
		}
	}
	if s.Visible() != "héllo wörld" {
		t.Errorf("visible = %q, want full text", s.Visible())
	}
}
