package ui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

type helpEntry struct {
	key  string
	desc string
}

var (
	chatHelp = []helpEntry{
		{"Enter", "Send message"},
		{"Alt+Enter", "New line"},
		{"Ctrl+R", "Voice chat"},
		{"Ctrl+N", "New conversation"},
		{"Ctrl+Y", "Copy last reply"},
		{"PgUp/PgDn", "Scroll transcript"},
		{"Tab", "Conversation list"},
		{"F1", "Toggle this help"},
		{"Ctrl+C", "Quit"},
	}
	listHelp = []helpEntry{
		{"j/k", "Move"},
		{"Enter", "Open conversation"},
		{"n", "New conversation"},
		{"r", "Rename"},
		{"d", "Delete"},
		{"e", "Export as markdown"},
		{"/", "Filter"},
		{"Tab/Esc", "Back to chat"},
	}
	voiceHelp = []helpEntry{
		{"Space", "Record / stop and send"},
		{"r", "Retry after an error"},
		{"p", "Replay last reply"},
		{"s", "Stop playback"},
		{"Esc", "Close"},
	}
)

func helpSection(title string, entries []helpEntry) string {
	blue := lipgloss.NewStyle().Foreground(accentColor)
	lines := []string{blue.Render("## " + title)}
	for _, e := range entries {
		lines = append(lines, fmt.Sprintf("• %-11s %s", e.key, e.desc))
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func renderHelpModal(width, height int) string {
	title := lipgloss.NewStyle().
		Bold(true).
		Foreground(successColor).
		Render("hookchat - Keyboard Shortcuts")

	column1 := lipgloss.JoinVertical(lipgloss.Left, helpSection("Chat", chatHelp))
	column2 := lipgloss.JoinVertical(lipgloss.Left,
		helpSection("Conversations", listHelp),
		"",
		helpSection("Voice Chat", voiceHelp),
	)

	columnStyle := lipgloss.NewStyle().Width(36).PaddingLeft(2)
	columns := lipgloss.JoinHorizontal(lipgloss.Top, columnStyle.Render(column1), columnStyle.Render(column2))

	footer := DimStyle.Render("Press F1 or Esc to close this help")

	content := lipgloss.JoinVertical(lipgloss.Center, title, "", columns, "", footer)

	helpBox := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("8")).
		Padding(1, 2)

	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, helpBox.Render(content))
}
