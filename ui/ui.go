package ui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
)

const (
	assistantName = "Parley"
	styleAuto     = "auto"
	ellipsis      = "…"
)

type commonModel struct {
	cfg    Config
	width  int
	height int
}

// NewProgram returns a new Tea program.
func NewProgram(cfg Config) *tea.Program {
	log.Debug("starting parley", "provider", cfg.Provider, "model", cfg.Model)
	opts := []tea.ProgramOption{tea.WithAltScreen()}
	if cfg.EnableMouse {
		opts = append(opts, tea.WithMouseCellMotion())
	}
	return tea.NewProgram(newModel(cfg), opts...)
}

type model struct {
	common   *commonModel
	chat     *chatModel
	fatalErr error
}

func newModel(cfg Config) model {
	common := &commonModel{cfg: cfg}
	chat, err := newChatModel(common, cfg)
	if err != nil {
		return model{common: common, fatalErr: err}
	}
	return model{common: common, chat: chat}
}

func (m model) Init() tea.Cmd {
	if m.fatalErr != nil {
		return tea.Quit
	}
	return tea.Batch(m.chat.Init(), m.chat.input.Focus())
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.fatalErr != nil {
		return m, tea.Quit
	}

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			m.chat.clear() // stops playback, cancels streams
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		m.common.width = msg.Width
		m.common.height = msg.Height
		m.chat.setSize(msg.Width, msg.Height)
		return m, nil
	}

	var cmd tea.Cmd
	m.chat, cmd = m.chat.Update(msg)
	return m, cmd
}

func (m model) View() string {
	if m.fatalErr != nil {
		return errorStyle.Render("parley: "+m.fatalErr.Error()) + "\n"
	}
	return m.chat.View()
}

// Err reports a startup failure, if any, so the CLI can exit non-zero.
func (m model) Err() error { return m.fatalErr }
