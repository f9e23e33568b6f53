package model

import (
	"context"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"

	"hookchat/config"
	"hookchat/export"
)

// SendMessageCmd sends typed text in the background.
func (c *Controller) SendMessageCmd(text string) tea.Cmd {
	return func() tea.Msg {
		res, err := c.SendMessage(context.Background(), text)
		msg := MessageSentMsg{Result: res, Err: err}
		if res != nil {
			msg.SessionID = res.SessionID
		}
		return msg
	}
}

// DeleteSessionCmd removes a session
func (c *Controller) DeleteSessionCmd(id string) tea.Cmd {
	return func() tea.Msg {
		return SessionDeletedMsg{ID: id, Err: c.Delete(id)}
	}
}

func (c *Controller) RenameSessionCmd(id, title string) tea.Cmd {
	return func() tea.Msg {
		return SessionRenamedMsg{ID: id, Err: c.Rename(id, title)}
	}
}

// ExportSessionCmd writes a session to dir in the given format.
func (c *Controller) ExportSessionCmd(id, format, dir string) tea.Cmd {
	return func() tea.Msg {
		session, ok := c.Session(id)
		if !ok {
			return SessionExportedMsg{Err: ErrSessionNotFound}
		}
		exp, err := export.NewExporter(format)
		if err != nil {
			return SessionExportedMsg{Err: err}
		}

		path := filepath.Join(config.ExpandPath(dir), export.Filename(&session, exp))
		if err := export.ToFile(&session, exp, path); err != nil {
			return SessionExportedMsg{Err: err}
		}

		if config.DebugLog != nil {
			config.DebugLog.Printf("[Controller] exported session %s to %s", id, path)
		}
		return SessionExportedMsg{Path: path}
	}
}
