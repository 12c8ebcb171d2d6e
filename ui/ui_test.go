package ui

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
)

func TestStartupFailureSurfacesThroughErr(t *testing.T) {
	cfg := Config{
		Provider:   "ollama",
		OllamaHost: "://not-a-host",
	}

	m := newModel(cfg)
	if m.Err() == nil {
		t.Fatal("expected a startup error for a malformed host")
	}

	cmd := m.Init()
	if cmd == nil {
		t.Fatal("Init returned no command; the program would hang")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("Init must quit so the CLI can report the error")
	}
}
