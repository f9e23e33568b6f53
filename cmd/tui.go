package cmd

import (
	"context"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"hookchat/audio"
	"hookchat/config"
	"hookchat/model"
	"hookchat/ui"
)

func runTUI(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return showErrorModal("Configuration Error", err.Error())
	}

	a, err := openApp(cfg)
	if err != nil {
		return showErrorModal("Storage Error", err.Error())
	}
	defer func() {
		if err := a.Close(); err != nil && config.DebugLog != nil {
			config.DebugLog.Printf("Warning: failed to close storage: %v", err)
		}
	}()

	// Leftovers from a crashed run
	if err := config.CleanupTempDir(); err != nil && config.DebugLog != nil {
		config.DebugLog.Printf("Warning: failed to cleanup old temp directory: %v", err)
	}
	if err := config.CreateTempDir(); err != nil {
		return fmt.Errorf("failed to create temp directory: %w", err)
	}
	defer func() {
		if err := config.CleanupTempDir(); err != nil && config.DebugLog != nil {
			config.DebugLog.Printf("Warning: failed to cleanup temp directory on exit: %v", err)
		}
	}()

	recorder := audio.NewRecorder(audio.NewCommandSource(cfg.RecordCommand))
	player := audio.NewCommandPlayer(cfg.PlayCommand, config.GetTempDir())
	dialog := model.NewAudioDialog(recorder, player, func(ctx context.Context, b64 string) error {
		_, err := a.chat.SendAudio(ctx, b64)
		return err
	}, cfg.ResponseTimeout)
	a.chat.SetAudioSink(dialog.Deliver)

	view := ui.NewAppView(cfg, a.chat, dialog)
	p := tea.NewProgram(view, tea.WithAltScreen())

	// Background sends and playback report back through the program.
	a.chat.SetNotifier(func() { p.Send(model.SessionsChangedMsg{}) })
	dialog.SetOnChange(func() { p.Send(model.AudioDialogChangedMsg{}) })
	dialog.SetOnPlaybackEnded(func() { p.Send(model.PlaybackEndedMsg{}) })

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running program: %w", err)
	}
	dialog.Close()
	return nil
}

func showErrorModal(title, msg string) error {
	p := tea.NewProgram(ui.NewErrorModal(title, msg), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
	return fmt.Errorf("%s: %s", title, msg)
}
