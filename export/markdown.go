package export

import (
	"fmt"
	"io"
	"strings"

	"hookchat/storage"
)

// MarkdownExporter exports sessions as a readable transcript
type MarkdownExporter struct{}

func (e *MarkdownExporter) Export(session *storage.Session, w io.Writer) error {
	_, _ = fmt.Fprintf(w, "# %s\n\n", session.Title)
	_, _ = fmt.Fprintf(w, "**Session:** %s  \n", session.ID)
	_, _ = fmt.Fprintf(w, "**Created:** %s  \n", session.CreatedAt.Format("2006-01-02 15:04"))
	_, _ = fmt.Fprintf(w, "**Messages:** %d\n\n", countVisible(session.Messages))
	_, _ = fmt.Fprintf(w, "---\n\n")

	first := true
	for _, msg := range session.Messages {
		if msg.IsLoading {
			continue
		}
		if !first {
			_, _ = fmt.Fprintf(w, "---\n\n")
		}
		first = false

		actor := "assistant"
		if msg.IsUser {
			actor = "user"
		}
		tag := ""
		if msg.Kind() == storage.MessageTypeAudio || msg.IsAudioTranscription {
			tag = " _(audio transcription)_"
		}

		_, _ = fmt.Fprintf(w, "**%s:** (%s)%s\n\n%s\n\n", actor, msg.Timestamp.Format("15:04"), tag, escapeMarkdown(msg.Content))
	}

	return nil
}

func countVisible(msgs []storage.Message) int {
	n := 0
	for _, m := range msgs {
		if !m.IsLoading {
			n++
		}
	}
	return n
}

// escapeMarkdown escapes emphasis markers outside code blocks
func escapeMarkdown(text string) string {
	lines := strings.Split(text, "\n")
	var result []string
	inCodeBlock := false

	for _, line := range lines {
		if strings.HasPrefix(line, "```") {
			inCodeBlock = !inCodeBlock
			result = append(result, line)
		} else if inCodeBlock {
			result = append(result, line)
		} else {
			line = strings.ReplaceAll(line, "**", "\\*\\*")
			line = strings.ReplaceAll(line, "__", "\\_\\_")
			result = append(result, line)
		}
	}

	return strings.Join(result, "\n")
}

func (e *MarkdownExporter) Extension() string {
	return "md"
}
