package ui

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"hookchat/audio"
	"hookchat/config"
	"hookchat/model"
	"hookchat/webhook"
)

const exportFormat = "md"

type playTickMsg struct{}

func playTick() tea.Cmd {
	return tea.Tick(200*time.Millisecond, func(time.Time) tea.Msg {
		return playTickMsg{}
	})
}

func (a AppView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.ready = true
		a.layout()
		return a, a.refreshViewport()

	case spinner.TickMsg:
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(msg)
		if a.chat.Pending(a.chat.CurrentID()) {
			return a, tea.Batch(cmd, a.refreshViewport())
		}
		return a, cmd

	case tea.KeyMsg:
		return a.handleKey(msg)

	case model.SessionsChangedMsg:
		a.clampSelection()
		return a, a.refreshViewport()

	case markdownRenderedMsg:
		key := renderKey{messageID: msg.MessageID, width: msg.Width}
		a.rendered[key] = msg.Rendered
		delete(a.rendering, key)
		return a, a.refreshViewport()

	case model.MessageSentMsg:
		if msg.Err != nil {
			a.handleSendError(msg.Err)
		} else {
			a.status = ""
		}
		return a, a.refreshViewport()

	case model.SessionDeletedMsg:
		if msg.Err != nil {
			a.status = "Delete failed: " + msg.Err.Error()
		} else {
			a.status = "Conversation deleted"
		}
		a.clampSelection()
		return a, a.refreshViewport()

	case model.SessionRenamedMsg:
		if msg.Err != nil {
			a.status = "Rename failed: " + msg.Err.Error()
		} else {
			a.status = "Conversation renamed"
		}
		return a, nil

	case model.SessionExportedMsg:
		if msg.Err != nil {
			a.status = "Export failed: " + msg.Err.Error()
		} else {
			a.status = "Exported to " + msg.Path
		}
		return a, nil

	case model.AudioDialogChangedMsg:
		return a, a.syncDialog()

	case model.PlaybackEndedMsg:
		a.reply = nil
		a.wasPlaying = false
		return a, nil

	case model.RecordingStartedMsg:
		if msg.Err != nil {
			var devErr *audio.DeviceError
			if errors.As(msg.Err, &devErr) {
				a.notice(ModalTypeWarning, "Microphone unavailable", devErr.Error()+"\n\nCheck audio.record_command in settings.toml.")
			} else if !errors.Is(msg.Err, model.ErrDialogBusy) {
				a.status = msg.Err.Error()
			}
			return a, nil
		}
		a.reply = nil
		return a, nil

	case model.RecordingStoppedMsg:
		if errors.Is(msg.Err, audio.ErrEmptyRecording) {
			a.status = "Nothing was recorded"
		} else if msg.Err != nil {
			a.status = "Recording failed: " + msg.Err.Error()
		}
		return a, nil

	case model.ReplayStartedMsg:
		if msg.Err != nil {
			a.status = msg.Err.Error()
		}
		return a, a.syncDialog()

	case playTickMsg:
		if a.dialog != nil && a.dialog.IsPlayingAI() {
			return a, playTick()
		}
		a.ticking = false
		return a, nil
	}

	return a, nil
}

// syncDialog follows the dialog's playback so the view shows the reply
// that is playing and restarts the progress clock on replay.
func (a *AppView) syncDialog() tea.Cmd {
	if a.dialog == nil {
		return nil
	}
	if !a.dialog.IsOpen() {
		a.reply = nil
		a.wasPlaying = false
		return a.refreshViewport()
	}

	playing := a.dialog.IsPlayingAI()
	if playing && !a.wasPlaying {
		if r, ok := a.dialog.Pending(); ok {
			a.reply = newReplyView(r, a.now())
		}
	} else if a.reply == nil {
		// Reply stored while recording or after a stop: show it without playing.
		if r, ok := a.dialog.Pending(); ok {
			a.reply = newReplyView(r, a.now())
		}
	}
	a.wasPlaying = playing

	if playing && !a.ticking {
		a.ticking = true
		return playTick()
	}
	return nil
}

func (a *AppView) handleSendError(err error) {
	switch {
	case errors.Is(err, model.ErrSendInFlight):
		a.status = "Still waiting for the previous reply"
	case errors.Is(err, model.ErrEmptyMessage):
		a.status = ""
	case webhook.IsConfigError(err):
		a.notice(ModalTypeError, "Webhook not configured", err.Error()+"\n\nSet webhook.url in settings.toml\nor HOOKCHAT_WEBHOOK_URL.")
	case webhook.IsHTTPError(err):
		a.status = "Webhook error: " + err.Error()
	default:
		a.status = "Send failed: " + err.Error()
	}
}

func (a *AppView) notice(kind ModalType, title, msg string) {
	a.showNotice = true
	a.noticeType = kind
	a.noticeTitle = title
	a.noticeMsg = msg
}

func (a *AppView) clampSelection() {
	n := len(a.visibleSessions())
	if a.selected >= n {
		a.selected = n - 1
	}
	if a.selected < 0 {
		a.selected = 0
	}
}

func (a AppView) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		if a.dialog != nil {
			a.dialog.Close()
		}
		return a, tea.Quit
	}

	if a.showNotice {
		switch msg.String() {
		case "enter", "esc":
			a.showNotice = false
		}
		return a, nil
	}

	if a.showHelp {
		switch msg.String() {
		case "f1", "esc":
			a.showHelp = false
		}
		return a, nil
	}

	if a.confirm.Active {
		target := a.confirm.Target
		switch msg.String() {
		case "y", "Y":
			a.confirm = ConfirmationState{}
			return a, a.chat.DeleteSessionCmd(target)
		case "n", "N", "esc":
			a.confirm = ConfirmationState{}
		}
		return a, nil
	}

	if msg.String() == "f1" && (a.dialog == nil || !a.dialog.IsOpen()) {
		a.showHelp = true
		return a, nil
	}

	if a.dialog != nil && a.dialog.IsOpen() {
		return a.handleDialogKey(msg)
	}
	if a.focus == focusSidebar {
		return a.handleSidebarKey(msg)
	}
	return a.handleComposerKey(msg)
}

func (a AppView) handleComposerKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		text := strings.TrimSpace(a.textarea.Value())
		if text == "" {
			return a, nil
		}
		if id := a.chat.CurrentID(); id != "" && a.chat.Pending(id) {
			a.status = "Still waiting for the previous reply"
			return a, nil
		}
		a.textarea.Reset()
		a.status = ""
		return a, a.chat.SendMessageCmd(text)

	case "alt+enter", "ctrl+j":
		a.textarea.InsertString("\n")
		return a, nil

	case "ctrl+n":
		a.chat.NewChat()
		a.status = "New conversation"
		return a, a.refreshViewport()

	case "ctrl+r":
		if a.dialog == nil {
			return a, nil
		}
		a.dialog.Open()
		return a, nil

	case "tab":
		a.focus = focusSidebar
		a.textarea.Blur()
		a.selectCurrent()
		return a, nil

	case "ctrl+y":
		s, ok := a.chat.Current()
		if !ok {
			return a, nil
		}
		text, ok := lastAssistantReply(s)
		if !ok {
			a.status = "No reply to copy"
			return a, nil
		}
		if err := a.copyToClip(text); err != nil {
			a.status = "Copy failed: " + err.Error()
		} else {
			a.status = "Reply copied to clipboard"
		}
		return a, nil

	case "pgup", "pgdown", "ctrl+u", "ctrl+d":
		var cmd tea.Cmd
		a.viewport, cmd = a.viewport.Update(msg)
		return a, cmd
	}

	var cmd tea.Cmd
	a.textarea, cmd = a.textarea.Update(msg)
	return a, cmd
}

func (a *AppView) selectCurrent() {
	current := a.chat.CurrentID()
	for i, s := range a.visibleSessions() {
		if s.ID == current {
			a.selected = i
			return
		}
	}
	a.selected = 0
}

func (a AppView) selectedSessionID() string {
	sessions := a.visibleSessions()
	if a.selected < 0 || a.selected >= len(sessions) {
		return ""
	}
	return sessions[a.selected].ID
}

func (a AppView) handleSidebarKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()

	if a.renamingID != "" {
		switch key {
		case "enter":
			id, title := a.renamingID, a.renameInput.Value()
			a.renamingID = ""
			a.renameInput.Blur()
			return a, a.chat.RenameSessionCmd(id, title)
		case "esc":
			a.renamingID = ""
			a.renameInput.Blur()
			return a, nil
		}
		var cmd tea.Cmd
		a.renameInput, cmd = a.renameInput.Update(msg)
		return a, cmd
	}

	if a.filtering {
		switch key {
		case "enter":
			a.filtering = false
			a.filterInput.Blur()
			return a, nil
		case "esc":
			a.filtering = false
			a.filterInput.Blur()
			a.filterInput.SetValue("")
			a.clampSelection()
			return a, nil
		}
		var cmd tea.Cmd
		a.filterInput, cmd = a.filterInput.Update(msg)
		a.selected = 0
		return a, cmd
	}

	switch key {
	case "j", "down":
		if a.selected < len(a.visibleSessions())-1 {
			a.selected++
		}
	case "k", "up":
		if a.selected > 0 {
			a.selected--
		}
	case "enter":
		if id := a.selectedSessionID(); id != "" {
			if err := a.chat.Select(id); err != nil {
				a.status = err.Error()
				return a, nil
			}
			a.focus = focusComposer
			return a, tea.Batch(a.textarea.Focus(), a.refreshViewport())
		}
	case "n":
		a.chat.NewChat()
		a.focus = focusComposer
		return a, tea.Batch(a.textarea.Focus(), a.refreshViewport())
	case "d":
		if id := a.selectedSessionID(); id != "" {
			s, _ := a.chat.Session(id)
			a.confirm = ConfirmationState{
				Active:  true,
				Title:   "Delete Conversation",
				Message: fmt.Sprintf("Delete %q?\nThis cannot be undone.", s.Title),
				Target:  id,
			}
		}
	case "r":
		if id := a.selectedSessionID(); id != "" {
			s, _ := a.chat.Session(id)
			a.renamingID = id
			a.renameInput.SetValue(s.Title)
			a.renameInput.CursorEnd()
			return a, a.renameInput.Focus()
		}
	case "/":
		a.filtering = true
		return a, a.filterInput.Focus()
	case "e":
		if id := a.selectedSessionID(); id != "" {
			dir := filepath.Join(a.cfg.DataDir(), "exports")
			a.status = "Exporting..."
			return a, a.chat.ExportSessionCmd(id, exportFormat, dir)
		}
	case "tab", "esc":
		a.focus = focusComposer
		return a, a.textarea.Focus()
	}
	return a, nil
}

func (a AppView) handleDialogKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		a.dialog.Close()
		a.reply = nil
		a.wasPlaying = false
		return a, nil

	case " ", "enter":
		switch a.dialog.State() {
		case model.DialogIdle, model.DialogError:
			return a, a.dialog.StartRecordingCmd()
		case model.DialogRecording:
			return a, a.dialog.StopRecordingCmd()
		}

	case "r":
		if !a.dialog.CanRetry() {
			return a, nil
		}
		if err := a.dialog.Retry(); err != nil {
			a.status = err.Error()
		}

	case "p":
		return a, a.dialog.ReplayCmd()

	case "s":
		a.dialog.StopPlayback()
	}

	if config.DebugLog != nil {
		config.DebugLog.Printf("[UI] dialog key %q in state %s", msg.String(), a.dialog.State())
	}
	return a, nil
}
