package model

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

const captureFlushTimeout = 5 * time.Second

func (d *AudioDialog) StartRecordingCmd() tea.Cmd {
	return func() tea.Msg {
		return RecordingStartedMsg{Err: d.StartRecording(context.Background())}
	}
}

func (d *AudioDialog) StopRecordingCmd() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), captureFlushTimeout)
		defer cancel()
		return RecordingStoppedMsg{Err: d.StopRecording(ctx)}
	}
}

func (d *AudioDialog) ReplayCmd() tea.Cmd {
	return func() tea.Msg {
		return ReplayStartedMsg{Err: d.Replay()}
	}
}
