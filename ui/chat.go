package ui

import (
	"context"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/log"

	"github.com/parley-sh/parley/internal/chat"
	"github.com/parley-sh/parley/internal/speech"
	"github.com/parley-sh/parley/internal/typewriter"
)

const (
	// revealInterval is the rendering clock of the typewriter reveal.
	revealInterval = 25 * time.Millisecond

	// playPollInterval is how often the status bar rechecks playback, so
	// natural end of a clip clears the "speaking" indicator.
	playPollInterval = 500 * time.Millisecond

	statusTimeout = 3 * time.Second

	chromeHeight = 6 // header, status bar, composer, padding
)

type (
	// fragMsg delivers one stream fragment; ok=false marks end of stream.
	fragMsg struct {
		gen  int
		frag chat.Fragment
		ok   bool
	}

	// revealTickMsg drives the typewriter. Ticks from a superseded
	// generation are dropped.
	revealTickMsg struct{ gen int }

	clipMsg struct {
		msgID string
		clip  *speech.Clip
	}

	playbackStartedMsg struct{ err error }

	playPollMsg struct{}

	statusTimeoutMsg struct{}
)

type chatModel struct {
	common *commonModel
	cfg    Config

	session  chat.Session
	messages []chat.Message

	// Streaming state. gen counts stream/reveal generations; messages
	// carrying a stale generation are discarded, which is how a cleared
	// conversation cancels its orphaned ticks and fragments.
	gen       int
	streaming bool
	cancel    context.CancelFunc
	frags     chan chat.Fragment
	reveal    *typewriter.State

	// Speech state.
	pipeline     *speech.Pipeline
	player       *speech.Player
	clips        map[string]*speech.Clip
	synthesizing bool
	polling      bool

	// Rendering.
	input    textarea.Model
	view     viewport.Model
	spin     spinner.Model
	renderer *glamour.TermRenderer
	rendered map[string]string // settled message id -> rendered block

	status    string
	statusErr bool
}

func newChatModel(common *commonModel, cfg Config) (*chatModel, error) {
	session, err := NewSession(cfg, nil)
	if err != nil {
		return nil, err
	}

	input := textarea.New()
	input.Placeholder = "Ask anything..."
	input.Prompt = "┃ "
	input.CharLimit = 4000
	input.SetHeight(1)
	input.ShowLineNumbers = false
	input.KeyMap.InsertNewline.SetEnabled(false)

	spin := spinner.New()
	spin.Spinner = spinner.MiniDot
	spin.Style = assistantLabelStyle

	m := &chatModel{
		common:   common,
		cfg:      cfg,
		session:  session,
		input:    input,
		view:     viewport.New(0, 0),
		spin:     spin,
		clips:    make(map[string]*speech.Clip),
		rendered: make(map[string]string),
	}
	m.initSpeech()
	return m, nil
}

// NewSession builds a chat session for the configured provider. History is
// replayed into the new session so a provider switch keeps context.
func NewSession(cfg Config, history []chat.Message) (chat.Session, error) {
	switch cfg.Provider {
	case "ollama":
		return chat.NewOllama(cfg.OllamaHost, cfg.Model, cfg.SystemPrompt, history)
	default:
		return chat.NewOpenRouter(cfg.APIKey, cfg.Model, cfg.SystemPrompt, history), nil
	}
}

func (m *chatModel) initSpeech() {
	if !m.cfg.SpeechEnabled {
		return
	}
	if m.cfg.SpeechAPIKey == "" {
		log.Warn("speech enabled but no API key set; voice disabled")
		return
	}

	cache, err := speech.NewCache(m.cfg.SpeechCacheDir, 32<<20)
	if err != nil {
		log.Warn("clip cache unavailable", "err", err)
	}
	syn := speech.NewOpenAI(m.cfg.SpeechAPIKey, m.cfg.SpeechModel, m.cfg.SpeechVoice)
	m.pipeline = speech.NewPipeline(syn, syn.Model(), syn.Voice(), cache)
	m.player = speech.NewPlayer(speech.NewOtoDevice(speech.DefaultSampleRate), m.cfg.SpeechRate)
}

func (m *chatModel) Init() tea.Cmd {
	return textarea.Blink
}

func (m *chatModel) setSize(width, height int) {
	m.view.Width = width
	m.view.Height = height - chromeHeight
	m.input.SetWidth(width - 2)
	m.renderer = nil // rebuilt lazily at the new width
	m.rendered = make(map[string]string)
	m.refresh()
}

// Update handles chat events. Key handling lives here; window sizing and
// quitting live in the top-level model.
func (m *chatModel) Update(msg tea.Msg) (*chatModel, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "enter":
			if cmd := m.send(); cmd != nil {
				cmds = append(cmds, cmd)
			}
		case "esc":
			m.clear()
		case "ctrl+v":
			if cmd := m.toggleVoice(); cmd != nil {
				cmds = append(cmds, cmd)
			}
		case "ctrl+y":
			if cmd := m.copyReply(); cmd != nil {
				cmds = append(cmds, cmd)
			}
		case "pgup", "pgdown":
			var cmd tea.Cmd
			m.view, cmd = m.view.Update(msg)
			cmds = append(cmds, cmd)
		default:
			var cmd tea.Cmd
			m.input, cmd = m.input.Update(msg)
			cmds = append(cmds, cmd)
		}

	case fragMsg:
		if msg.gen != m.gen {
			break // fragment for a replaced conversation
		}
		if !msg.ok {
			m.settle()
			break
		}
		last := &m.messages[len(m.messages)-1]
		chat.Apply(last, msg.frag)
		m.reveal.Grow(msg.frag.Text)
		cmds = append(cmds, waitFrag(m.gen, m.frags))

	case revealTickMsg:
		if msg.gen != m.gen || m.reveal == nil {
			break
		}
		active := m.reveal.Tick()
		m.refresh()
		if active {
			cmds = append(cmds, revealTick(m.gen))
		} else {
			m.finishReveal()
		}

	case clipMsg:
		m.synthesizing = false
		if msg.clip == nil {
			cmds = append(cmds, m.setStatus("Couldn't voice that reply.", true))
			break
		}
		m.clips[msg.msgID] = msg.clip
		cmds = append(cmds, m.startPlayback(msg.clip))

	case playbackStartedMsg:
		if msg.err != nil {
			log.Error("playback failed", "err", msg.err)
			cmds = append(cmds, m.setStatus("Audio output unavailable.", true))
			break
		}
		if !m.polling {
			m.polling = true
			cmds = append(cmds, playPoll())
		}

	case playPollMsg:
		if m.player != nil && m.player.PlayingID() != "" {
			cmds = append(cmds, playPoll())
		} else {
			m.polling = false
		}

	case statusTimeoutMsg:
		m.status = ""

	case spinner.TickMsg:
		if m.awaitingReply() {
			var cmd tea.Cmd
			m.spin, cmd = m.spin.Update(msg)
			cmds = append(cmds, cmd)
			m.refresh()
		}

	default:
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		cmds = append(cmds, cmd)
	}

	// Keys belong to the composer; sending them to the viewport too would
	// scroll the transcript while typing.
	if _, isKey := msg.(tea.KeyMsg); !isKey {
		var cmd tea.Cmd
		m.view, cmd = m.view.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

// send starts a new exchange: the user turn is recorded, an empty assistant
// message is appended, and the session stream is pumped into the model
// through a channel so fragments arrive as bubbletea messages.
func (m *chatModel) send() tea.Cmd {
	text := strings.TrimSpace(m.input.Value())
	if text == "" || m.streaming {
		return nil
	}
	m.input.Reset()

	m.messages = append(m.messages, chat.NewMessage(chat.RoleUser, text))
	m.messages = append(m.messages, chat.NewMessage(chat.RoleAssistant, ""))

	m.gen++
	m.streaming = true
	m.reveal = typewriter.NewStreaming()

	ctx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel
	ch := make(chan chat.Fragment)
	m.frags = ch

	session, parent := m.session, text
	go func() {
		defer close(ch)
		for frag := range chat.Consume(ctx, session, parent) {
			select {
			case ch <- frag:
			case <-ctx.Done():
				return
			}
		}
	}()

	m.refresh()
	return tea.Batch(waitFrag(m.gen, ch), revealTick(m.gen), m.spin.Tick)
}

// settle marks the stream done. The reveal keeps ticking until it catches
// up; finishReveal runs the final render.
func (m *chatModel) settle() {
	m.streaming = false
	if m.cancel != nil {
		m.cancel()
		m.cancel = nil
	}
	if m.reveal != nil {
		m.reveal.Settle()
	}
}

// finishReveal renders the settled message with glamour and freezes it.
func (m *chatModel) finishReveal() {
	m.reveal = nil
	m.refresh()
	m.view.GotoBottom()
}

// clear wipes the conversation. The session handle is replaced, so
// fragments still in flight against the old one are discarded by the
// generation check, and any playback stops.
func (m *chatModel) clear() {
	m.gen++
	m.settle()
	m.reveal = nil
	m.messages = nil
	m.rendered = make(map[string]string)
	m.clips = make(map[string]*speech.Clip)
	if m.player != nil {
		m.player.Stop()
	}

	session, err := NewSession(m.cfg, nil)
	if err != nil {
		log.Error("could not recreate session", "err", err)
		return
	}
	m.session = session
	m.refresh()
}

// toggleVoice voices the latest settled assistant reply, or stops it if it
// is already speaking.
func (m *chatModel) toggleVoice() tea.Cmd {
	if m.pipeline == nil || m.player == nil {
		return m.setStatus("Voice is not configured.", true)
	}

	msg := m.lastReply()
	if msg == nil {
		return nil
	}

	if clip, ok := m.clips[msg.ID]; ok {
		return m.startPlayback(clip)
	}
	if m.synthesizing {
		return nil
	}
	m.synthesizing = true
	statusCmd := m.setStatus("Synthesizing...", false)

	pipeline, id, text := m.pipeline, msg.ID, msg.Text
	return tea.Batch(statusCmd, func() tea.Msg {
		clip := pipeline.Synthesize(context.Background(), id, chat.Speakable(text))
		return clipMsg{msgID: id, clip: clip}
	})
}

func (m *chatModel) startPlayback(clip *speech.Clip) tea.Cmd {
	player := m.player
	return func() tea.Msg {
		_, err := player.Toggle(clip)
		return playbackStartedMsg{err: err}
	}
}

func (m *chatModel) copyReply() tea.Cmd {
	msg := m.lastReply()
	if msg == nil {
		return nil
	}
	if err := clipboard.WriteAll(msg.Text); err != nil {
		log.Error("clipboard write failed", "err", err)
		return m.setStatus("Couldn't copy to clipboard.", true)
	}
	return m.setStatus("Copied reply.", false)
}

// lastReply returns the most recent settled assistant message.
func (m *chatModel) lastReply() *chat.Message {
	if m.streaming || m.reveal != nil {
		return nil
	}
	for i := len(m.messages) - 1; i >= 0; i-- {
		if m.messages[i].Role == chat.RoleAssistant && m.messages[i].Text != "" {
			return &m.messages[i]
		}
	}
	return nil
}

func (m *chatModel) awaitingReply() bool {
	return m.streaming && m.reveal != nil && m.reveal.Backlog() == 0 && m.reveal.Revealed() == 0
}

func (m *chatModel) setStatus(s string, isErr bool) tea.Cmd {
	m.status = s
	m.statusErr = isErr
	return statusTimeoutCmd()
}

func waitFrag(gen int, ch <-chan chat.Fragment) tea.Cmd {
	return func() tea.Msg {
		frag, ok := <-ch
		return fragMsg{gen: gen, frag: frag, ok: ok}
	}
}

func revealTick(gen int) tea.Cmd {
	return tea.Tick(revealInterval, func(time.Time) tea.Msg {
		return revealTickMsg{gen: gen}
	})
}

func playPoll() tea.Cmd {
	return tea.Tick(playPollInterval, func(time.Time) tea.Msg {
		return playPollMsg{}
	})
}

func statusTimeoutCmd() tea.Cmd {
	return tea.Tick(statusTimeout, func(time.Time) tea.Msg {
		return statusTimeoutMsg{}
	})
}
