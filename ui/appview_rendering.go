package ui

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"hookchat/storage"
)

// refreshViewport rebuilds the transcript of the current session. It
// returns render commands for assistant messages not yet in the cache.
func (a *AppView) refreshViewport() tea.Cmd {
	session, ok := a.chat.Current()
	switched := session.ID != a.lastSession
	a.lastSession = session.ID

	if !ok || len(session.Messages) == 0 {
		a.viewport.SetContent(DimStyle.Render("No messages yet. Type below or press Ctrl+R to talk."))
		return nil
	}

	width := a.viewport.Width
	atBottom := a.viewport.AtBottom()

	var cmds []tea.Cmd
	var content strings.Builder
	for i, msg := range session.Messages {
		if i > 0 {
			content.WriteString("\n")
		}
		content.WriteString(a.messageHeader(msg))
		content.WriteString("\n")

		body, cmd := a.messageBody(msg, width)
		if cmd != nil {
			cmds = append(cmds, cmd)
		}
		content.WriteString(body)
		content.WriteString("\n")
	}

	a.viewport.SetContent(content.String())
	if switched || atBottom {
		a.viewport.GotoBottom()
	}
	return tea.Batch(cmds...)
}

func (a AppView) messageHeader(msg storage.Message) string {
	var role string
	if msg.IsUser {
		role = UserStyle.Render("You")
	} else {
		role = AssistantStyle.Render("Assistant")
	}

	parts := []string{DimStyle.Render(msg.Timestamp.Local().Format("[15:04]")), role}
	if msg.Kind() == storage.MessageTypeAudio || msg.IsAudioTranscription {
		parts = append(parts, AudioTagStyle.Render("audio transcription"))
	}
	return strings.Join(parts, " ")
}

func (a *AppView) messageBody(msg storage.Message, width int) (string, tea.Cmd) {
	if msg.IsLoading {
		return a.spinner.View() + DimStyle.Render(" waiting for reply"), nil
	}

	plain := lipgloss.NewStyle().Width(width - 2).PaddingLeft(2).Render(msg.Content)
	if msg.IsUser {
		return plain, nil
	}

	key := renderKey{messageID: msg.ID, width: width}
	if out, ok := a.rendered[key]; ok {
		return out, nil
	}
	if a.rendering[key] {
		return plain, nil
	}
	a.rendering[key] = true
	return plain, renderMarkdownCmd(msg.ID, msg.Content, width)
}

// lastAssistantReply returns the newest finished assistant message.
func lastAssistantReply(s storage.Session) (string, bool) {
	for i := len(s.Messages) - 1; i >= 0; i-- {
		m := s.Messages[i]
		if !m.IsUser && !m.IsLoading {
			return m.Content, true
		}
	}
	return "", false
}
