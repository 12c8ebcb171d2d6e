package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/log"
	"github.com/dustin/go-humanize"
	"github.com/muesli/reflow/wordwrap"
	"github.com/muesli/reflow/wrap"
	rw "github.com/mattn/go-runewidth"

	"github.com/parley-sh/parley/internal/chat"
)

func (m *chatModel) glamourRenderer() *glamour.TermRenderer {
	if m.renderer != nil {
		return m.renderer
	}
	if !m.cfg.GlamourEnabled {
		return nil
	}

	width := int(m.cfg.GlamourMaxWidth)
	if m.view.Width > 0 && m.view.Width < width {
		width = m.view.Width
	}

	opts := []glamour.TermRendererOption{
		glamour.WithWordWrap(width),
		glamour.WithEmoji(),
	}
	if m.cfg.GlamourStyle == styleAuto {
		opts = append(opts, glamour.WithAutoStyle())
	} else {
		opts = append(opts, glamour.WithStylePath(m.cfg.GlamourStyle))
	}

	r, err := glamour.NewTermRenderer(opts...)
	if err != nil {
		log.Error("glamour init failed", "err", err)
		m.cfg.GlamourEnabled = false
		return nil
	}
	m.renderer = r
	return r
}

// refresh rebuilds the transcript inside the viewport. Settled assistant
// messages are rendered once with glamour and cached; the in-flight tail is
// redrawn every tick from the typewriter cursor.
func (m *chatModel) refresh() {
	var b strings.Builder

	for i := range m.messages {
		msg := &m.messages[i]
		streamingTail := m.reveal != nil && i == len(m.messages)-1

		switch msg.Role {
		case chat.RoleUser:
			b.WriteString(m.renderUser(msg))
		case chat.RoleAssistant:
			if streamingTail {
				b.WriteString(m.renderTail())
			} else {
				b.WriteString(m.renderSettled(msg))
			}
		}
		b.WriteString("\n")
	}

	wasAtBottom := m.view.AtBottom()
	m.view.SetContent(b.String())
	if wasAtBottom || m.reveal != nil {
		m.view.GotoBottom()
	}
}

func (m *chatModel) renderUser(msg *chat.Message) string {
	text := wordwrap.String(msg.Text, m.wrapWidth())
	return userLabelStyle.Render("You") + "\n" + userTextStyle.Render(text) + "\n"
}

// renderTail draws the partially revealed assistant reply. Glamour can't
// render half a markdown document, so the tail stays raw until it settles.
func (m *chatModel) renderTail() string {
	var body string
	if m.awaitingReply() {
		body = m.spin.View() + " thinking"
	} else {
		visible := m.reveal.Visible()
		body = streamTextStyle.Render(wrap.String(wordwrap.String(visible, m.wrapWidth()), m.wrapWidth()))
	}
	return assistantLabelStyle.Render(assistantName) + "\n" + body + "\n"
}

func (m *chatModel) renderSettled(msg *chat.Message) string {
	if cached, ok := m.rendered[msg.ID]; ok {
		return cached
	}

	body := msg.Text
	if r := m.glamourRenderer(); r != nil {
		if out, err := r.Render(msg.Text); err == nil {
			body = strings.TrimRight(out, "\n") + "\n"
		} else {
			log.Error("markdown render failed", "err", err)
		}
	} else {
		body = wordwrap.String(body, m.wrapWidth()) + "\n"
	}

	out := assistantLabelStyle.Render(assistantName) + "\n" + body + m.renderCitations(msg)
	if msg.Text != "" {
		m.rendered[msg.ID] = out
	}
	return out
}

func (m *chatModel) renderCitations(msg *chat.Message) string {
	if len(msg.Citations) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString(citationTitleStyle.Render("Sources") + "\n")
	for i, c := range msg.Citations {
		line := fmt.Sprintf("%d. %s", i+1, c.URI)
		if c.Title != "" {
			line = fmt.Sprintf("%d. %s — %s", i+1, c.Title, c.URI)
		}
		b.WriteString(citationStyle.Render(rw.Truncate(line, m.wrapWidth(), ellipsis)) + "\n")
	}
	return b.String()
}

func (m *chatModel) View() string {
	var b strings.Builder
	b.WriteString("\n")
	b.WriteString(m.view.View())
	b.WriteString("\n")
	b.WriteString(m.statusBar())
	b.WriteString("\n")
	b.WriteString(m.input.View())
	b.WriteString("\n")
	return b.String()
}

func (m *chatModel) statusBar() string {
	leftText := "enter send · ctrl+v voice · ctrl+y copy · esc clear · ctrl+c quit"
	leftStyle := statusNoteStyle
	if m.status != "" {
		leftText = m.status
		if m.statusErr {
			leftStyle = errorStyle
		}
	}

	rightText := ""
	if m.player != nil {
		if id := m.player.PlayingID(); id != "" {
			rightText = "▶ speaking"
			if clip, ok := m.clips[id]; ok {
				rightText = fmt.Sprintf("▶ speaking %s · %s",
					clip.Duration.Round(time.Second),
					humanize.Bytes(uint64(len(clip.WAV))))
			}
		}
	}

	avail := m.view.Width - rw.StringWidth(rightText) - 4
	if avail < 10 {
		avail = 10
	}
	leftText = rw.Truncate(leftText, avail, ellipsis)

	gap := m.view.Width - rw.StringWidth(leftText) - rw.StringWidth(rightText) - 2
	if gap < 1 {
		gap = 1
	}
	return statusBarStyle.Render(" "+leftStyle.Render(leftText)+strings.Repeat(" ", gap)) +
		speakingStyle.Render(rightText+" ")
}

func (m *chatModel) wrapWidth() int {
	w := m.view.Width - 2
	if w < 20 {
		w = 20
	}
	if w > int(m.cfg.GlamourMaxWidth) {
		w = int(m.cfg.GlamourMaxWidth)
	}
	return w
}
