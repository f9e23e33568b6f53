package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"hookchat/storage"
)

const (
	maxSidebarWidth = 32
	minSidebarWidth = 18
)

func sidebarWidth(total int) int {
	w := total / 3
	if w > maxSidebarWidth {
		w = maxSidebarWidth
	}
	if w < minSidebarWidth {
		w = minSidebarWidth
	}
	return w
}

// truncate shortens s to fit width cells, appending an ellipsis when cut.
func truncate(s string, width int) string {
	if width <= 0 {
		return ""
	}
	s = strings.ReplaceAll(s, "\n", " ")
	if runewidth.StringWidth(s) <= width {
		return s
	}
	return runewidth.Truncate(s, width, "…")
}

// padRight pads styled text; lipgloss.Width skips escape sequences.
func padRight(s string, width int) string {
	if w := lipgloss.Width(s); w < width {
		return s + strings.Repeat(" ", width-w)
	}
	return s
}

type sidebarRow struct {
	session  storage.Session
	current  bool
	selected bool
	pending  bool
}

// renderSidebar draws the conversation list. rows are already filtered;
// header carries the filter or rename prompt when one is active.
func renderSidebar(rows []sidebarRow, header string, width, height int, focused bool, spin string, now time.Time) string {
	inner := width - 2
	var lines []string

	title := "Conversations"
	if focused {
		title = SelectedStyle.Render(title)
	} else {
		title = TitleStyle.Render(title)
	}
	lines = append(lines, title)
	if header != "" {
		lines = append(lines, header)
	}
	lines = append(lines, "")

	if len(rows) == 0 {
		lines = append(lines, DimStyle.Render("No conversations"))
	}

	// Two lines per row; keep the selection on screen.
	avail := (height - len(lines)) / 2
	if avail < 1 {
		avail = 1
	}
	start := 0
	for i, r := range rows {
		if r.selected && i >= avail {
			start = i - avail + 1
		}
	}

	for i := start; i < len(rows) && i < start+avail; i++ {
		r := rows[i]
		marker := "  "
		if r.current {
			marker = "• "
		}
		name := truncate(r.session.Title, inner-2)
		switch {
		case r.selected && focused:
			name = SelectedStyle.Render(name)
		case r.current:
			name = TitleStyle.Render(name)
		}
		lines = append(lines, marker+name)

		meta := RelativeTime(r.session.UpdatedAt, now)
		if n := countMessages(r.session); n > 0 {
			meta = fmt.Sprintf("%s · %d", meta, n)
		}
		if r.pending {
			meta = spin + " " + meta
		}
		lines = append(lines, "  "+DimStyle.Render(truncate(meta, inner-2)))
	}

	for len(lines) < height {
		lines = append(lines, "")
	}
	if len(lines) > height {
		lines = lines[:height]
	}
	for i, l := range lines {
		lines[i] = padRight(l, inner)
	}

	return SidebarStyle.Width(width - 1).Render(strings.Join(lines, "\n"))
}

func countMessages(s storage.Session) int {
	n := 0
	for _, m := range s.Messages {
		if !m.IsLoading {
			n++
		}
	}
	return n
}
