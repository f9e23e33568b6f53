package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"hookchat/audio"
	"hookchat/model"
)

const waveBars = 40

var waveLevels = []rune("▁▂▃▄▅▆▇█")

// replyView is the assistant reply shown in the voice dialog. It is
// dropped when playback ends so the dialog returns to the microphone.
type replyView struct {
	reply    model.AudioReply
	bars     []float64
	duration time.Duration
	timed    bool
	started  time.Time
}

func newReplyView(r model.AudioReply, now time.Time) *replyView {
	v := &replyView{reply: r, started: now}
	data, err := audio.Decode(r.Base64)
	if err != nil {
		return v
	}
	format := audio.Sniff(r.Base64)
	v.bars = audio.Waveform(data, format, waveBars)
	v.duration, v.timed = audio.Duration(data, format)
	return v
}

// progress is the played fraction, or -1 when the length is unknown.
func (v *replyView) progress(now time.Time) float64 {
	if !v.timed || v.duration <= 0 {
		return -1
	}
	p := float64(now.Sub(v.started)) / float64(v.duration)
	if p < 0 {
		return 0
	}
	if p > 1 {
		return 1
	}
	return p
}

func renderWave(bars []float64, progress float64) string {
	if len(bars) == 0 {
		return ""
	}
	played := int(progress * float64(len(bars)))
	var b strings.Builder
	for i, v := range bars {
		idx := int(v*float64(len(waveLevels)-1) + 0.5)
		if idx < 0 {
			idx = 0
		}
		if idx >= len(waveLevels) {
			idx = len(waveLevels) - 1
		}
		ch := string(waveLevels[idx])
		if progress >= 0 && i < played {
			b.WriteString(WavePlayedStyle.Render(ch))
		} else {
			b.WriteString(WaveStyle.Render(ch))
		}
	}
	return b.String()
}

type dialogSnapshot struct {
	State     model.DialogState
	Err       error
	CanRetry  bool
	Playing   bool
	HasReplay bool
}

func snapshotDialog(d *model.AudioDialog) dialogSnapshot {
	_, last := d.LastReply()
	return dialogSnapshot{
		State:     d.State(),
		Err:       d.Err(),
		CanRetry:  d.CanRetry(),
		Playing:   d.IsPlayingAI(),
		HasReplay: last,
	}
}

func stateLine(s dialogSnapshot, spin string) string {
	switch s.State {
	case model.DialogRecording:
		return ErrorStyle.Render("● Recording") + DimStyle.Render("  speak now")
	case model.DialogProcessing:
		return spin + " Waiting for the reply"
	case model.DialogPlaying:
		return AssistantStyle.Render("♪ Playing reply")
	case model.DialogError:
		msg := "Something went wrong"
		if s.Err != nil {
			msg = s.Err.Error()
		}
		return ErrorStyle.Render("✗ " + msg)
	default:
		return DimStyle.Render("Ready to record")
	}
}

func dialogFooter(s dialogSnapshot) string {
	var parts []string
	switch s.State {
	case model.DialogRecording:
		parts = append(parts, "Space", "Stop & send")
	case model.DialogProcessing:
	case model.DialogPlaying:
		parts = append(parts, "s", "Stop")
	default:
		parts = append(parts, "Space", "Record")
	}
	if s.CanRetry {
		parts = append(parts, "r", "Retry")
	}
	if s.HasReplay && !s.Playing && s.State != model.DialogRecording {
		parts = append(parts, "p", "Replay")
	}
	parts = append(parts, "Esc", "Close")
	return FormatFooter(parts...)
}

// renderAudioDialog draws the voice dialog box.
func renderAudioDialog(s dialogSnapshot, view *replyView, spin string, width int, now time.Time) string {
	boxWidth := 60
	if width < boxWidth+4 {
		boxWidth = width - 4
	}
	if boxWidth < 24 {
		boxWidth = 24
	}
	inner := boxWidth - 4

	var lines []string
	lines = append(lines, TitleStyle.Render("Voice chat"), "", stateLine(s, spin), "")

	if view != nil {
		if t := view.reply.UserTranscription; t != "" {
			lines = append(lines, UserStyle.Render("You: ")+lipgloss.NewStyle().Width(inner-5).Render(t))
		}
		if t := view.reply.Transcription; t != "" {
			lines = append(lines, AssistantStyle.Render("Reply: ")+lipgloss.NewStyle().Width(inner-7).Render(t))
		}
		progress := -1.0
		if s.Playing {
			progress = view.progress(now)
		}
		if wave := renderWave(view.bars, progress); wave != "" {
			lines = append(lines, "", wave)
		}
		if view.timed {
			elapsed := time.Duration(0)
			if progress >= 0 {
				elapsed = time.Duration(progress * float64(view.duration))
			}
			lines = append(lines, DimStyle.Render(fmt.Sprintf("%s / %s", clock(elapsed), clock(view.duration))))
		}
		lines = append(lines, "")
	} else if s.State == model.DialogIdle {
		lines = append(lines, DimStyle.Render("🎤 Press space and speak"), "")
	}

	lines = append(lines, dialogFooter(s))

	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(accentColor).
		Padding(0, 1).
		Width(boxWidth).
		Render(strings.Join(lines, "\n"))
}

func clock(d time.Duration) string {
	d = d.Round(time.Second)
	return fmt.Sprintf("%d:%02d", int(d/time.Minute), int(d%time.Minute/time.Second))
}
