package ui

import (
	"regexp"
	"strings"
	"time"

	markdown "github.com/MichaelMure/go-term-markdown"
	tea "github.com/charmbracelet/bubbletea"
	gomarkdown "github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/parser"

	"hookchat/config"
)

var (
	inlineCodeRegex = regexp.MustCompile(`(?s)\x1b\[44;3m(.*?)\x1b\[0m`)
	mdLinkRegex     = regexp.MustCompile(`\[([^\]]+)\]\((https?://[^\)]+)\)`)
	urlRegex        = regexp.MustCompile(`(https?://[^\s\x1b]+)`)
	ansiRegex       = regexp.MustCompile(`\x1b\[[0-9;]*m`)
)

const codeBlockMarker = "┃"

type renderKey struct {
	messageID string
	width     int
}

type markdownRenderedMsg struct {
	MessageID string
	Width     int
	Rendered  string
}

// RenderMarkdown renders assistant markdown for a terminal of the given width.
func RenderMarkdown(content string, width int) string {
	if width < 20 {
		width = 20
	}
	content = preprocessLinks(content)

	// Autolink off keeps URLs plain so the terminal can detect them.
	ext := markdown.Extensions() &^ parser.Autolink
	p := parser.NewWithExtensions(ext)
	r := markdown.NewRenderer(width-4, 0)
	rendered := gomarkdown.Render(p.Parse([]byte(content)), r)

	return postProcessMarkdown(string(rendered), width)
}

func renderMarkdownCmd(messageID, content string, width int) tea.Cmd {
	return func() tea.Msg {
		start := time.Now()
		rendered := RenderMarkdown(content, width)
		if config.DebugLog != nil {
			config.DebugLog.Printf("[UI] markdown for %s rendered in %v (%d chars)", messageID, time.Since(start), len(content))
		}
		return markdownRenderedMsg{MessageID: messageID, Width: width, Rendered: rendered}
	}
}

func postProcessMarkdown(rendered string, width int) string {
	rendered = fixInlineCode(rendered)
	rendered = colorURLs(rendered)
	rendered = frameCodeBlocks(rendered, width)
	return strings.TrimRight(rendered, "\n")
}

// preprocessLinks rewrites [text](url) to the bare url.
func preprocessLinks(content string) string {
	return mdLinkRegex.ReplaceAllString(content, "$2")
}

// fixInlineCode swaps the renderer's blue-background inline code for red text.
func fixInlineCode(s string) string {
	return inlineCodeRegex.ReplaceAllString(s, "\x1b[31m$1\x1b[0m")
}

func colorURLs(s string) string {
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		if !strings.Contains(line, codeBlockMarker) {
			lines[i] = urlRegex.ReplaceAllString(line, "\x1b[31m$1\x1b[0m")
		}
	}
	return strings.Join(lines, "\n")
}

func frameCodeBlocks(s string, width int) string {
	const darkGray = "\x1b[90m"
	const reset = "\x1b[0m"

	ruleWidth := width - 4
	if ruleWidth < 1 {
		ruleWidth = 1
	}
	bottom := darkGray + strings.Repeat("━", ruleWidth) + reset

	var out []string
	inBlock := false
	for _, line := range strings.Split(s, "\n") {
		if strings.Contains(line, codeBlockMarker) {
			if !inBlock {
				inBlock = true
				label := "[code]"
				left := (ruleWidth - len(label)) / 2
				if left < 0 {
					left = 0
				}
				right := ruleWidth - len(label) - left
				if right < 0 {
					right = 0
				}
				out = append(out, "", darkGray+strings.Repeat("━", left)+reset+label+darkGray+strings.Repeat("━", right)+reset)
			}
			out = append(out, stripCodeBlockPrefix(line))
			continue
		}
		if inBlock {
			out = append(out, bottom, "")
			inBlock = false
		}
		out = append(out, line)
	}
	if inBlock {
		out = append(out, bottom)
	}
	return strings.Join(out, "\n")
}

func stripCodeBlockPrefix(line string) string {
	idx := strings.Index(line, codeBlockMarker)
	if idx < 0 {
		return line
	}
	after := idx + len(codeBlockMarker)
	if after < len(line) && line[after] == ' ' {
		after++
	}
	return line[after:]
}

func stripANSI(s string) string {
	return ansiRegex.ReplaceAllString(s, "")
}
