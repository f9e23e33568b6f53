package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"hookchat/export"
	"hookchat/storage"
	"hookchat/ui"
)

var (
	listJSON     bool
	listFilter   string
	exportFormat string
	exportOutDir string
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("212"))

	idStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("240")).
		Italic(true)

	roleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42")).
			Bold(true)

	dateStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("243"))
)

var sessionsCmd = &cobra.Command{
	Use:     "sessions",
	Aliases: []string{"session", "s"},
	Short:   "Manage stored conversations",
}

var sessionsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List conversations, newest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(a *app) error {
			sessions := storage.FilterSessions(a.chat.Sessions(), listFilter)
			if listJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(sessionSummaries(sessions, a.chat.CurrentID()))
			}
			writeSessionTable(cmd.OutOrStdout(), sessions, a.chat.CurrentID(), time.Now())
			return nil
		})
	},
}

var sessionsShowCmd = &cobra.Command{
	Use:   "show <session-id>",
	Short: "Print a conversation",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(a *app) error {
			s, err := findSession(a, args[0])
			if err != nil {
				return err
			}
			writeTranscript(cmd.OutOrStdout(), s)
			return nil
		})
	},
}

var sessionsDeleteCmd = &cobra.Command{
	Use:   "delete <session-id>",
	Short: "Delete a conversation",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(a *app) error {
			s, err := findSession(a, args[0])
			if err != nil {
				return err
			}
			if err := a.chat.Delete(s.ID); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", s.ID)
			return nil
		})
	},
}

var sessionsRenameCmd = &cobra.Command{
	Use:   "rename <session-id> <title>",
	Short: "Rename a conversation",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(a *app) error {
			s, err := findSession(a, args[0])
			if err != nil {
				return err
			}
			title := strings.Join(args[1:], " ")
			if err := a.chat.Rename(s.ID, title); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Renamed %s to %q\n", s.ID, strings.TrimSpace(title))
			return nil
		})
	},
}

var sessionsExportCmd = &cobra.Command{
	Use:   "export [session-id]",
	Short: "Export conversations to md, json or yaml",
	Long: `Export one conversation, or every conversation when no id is given.
Files are named after the title and written to --out (default: the
exports folder in the data directory).`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		exp, err := export.NewExporter(exportFormat)
		if err != nil {
			return err
		}
		return withApp(func(a *app) error {
			var targets []storage.Session
			if len(args) == 1 {
				s, err := findSession(a, args[0])
				if err != nil {
					return err
				}
				targets = append(targets, s)
			} else {
				targets = a.chat.Sessions()
			}

			dir := exportOutDir
			if dir == "" {
				dir = filepath.Join(a.cfg.DataDir(), "exports")
			}
			for i := range targets {
				path := filepath.Join(dir, export.Filename(&targets[i], exp))
				if err := export.ToFile(&targets[i], exp, path); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), path)
			}
			return nil
		})
	},
}

var sessionsNewCmd = &cobra.Command{
	Use:   "new",
	Short: "Clear the current conversation so the next message starts a new one",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(a *app) error {
			a.chat.NewChat()
			fmt.Fprintln(cmd.OutOrStdout(), "The next message starts a new conversation.")
			return nil
		})
	},
}

func withApp(fn func(a *app) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	a, err := openApp(cfg)
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(a)
}

// findSession resolves a full id or a unique id prefix.
func findSession(a *app, ref string) (storage.Session, error) {
	if s, ok := a.chat.Session(ref); ok {
		return s, nil
	}
	var found []storage.Session
	for _, s := range a.chat.Sessions() {
		if strings.HasPrefix(s.ID, ref) {
			found = append(found, s)
		}
	}
	switch len(found) {
	case 0:
		return storage.Session{}, fmt.Errorf("session not found: %s", ref)
	case 1:
		return found[0], nil
	default:
		return storage.Session{}, fmt.Errorf("session id %q is ambiguous (%d matches)", ref, len(found))
	}
}

type sessionSummary struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Messages  int       `json:"messages"`
	UpdatedAt time.Time `json:"updatedAt"`
	Current   bool      `json:"current,omitempty"`
}

func sessionSummaries(sessions []storage.Session, currentID string) []sessionSummary {
	out := make([]sessionSummary, len(sessions))
	for i, s := range sessions {
		n := 0
		for _, m := range s.Messages {
			if !m.IsLoading {
				n++
			}
		}
		out[i] = sessionSummary{
			ID:        s.ID,
			Title:     s.Title,
			Messages:  n,
			UpdatedAt: s.UpdatedAt,
			Current:   s.ID == currentID,
		}
	}
	return out
}

func writeSessionTable(w io.Writer, sessions []storage.Session, currentID string, now time.Time) {
	if len(sessions) == 0 {
		fmt.Fprintln(w, "No conversations yet.")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "\tID\tTITLE\tMESSAGES\tUPDATED")
	for _, s := range sessionSummaries(sessions, currentID) {
		marker := ""
		if s.Current {
			marker = "*"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\n", marker, shortID(s.ID), s.Title, s.Messages, ui.RelativeTime(s.UpdatedAt, now))
	}
	tw.Flush()
}

func writeTranscript(w io.Writer, s storage.Session) {
	fmt.Fprintln(w, titleStyle.Render(s.Title))
	fmt.Fprintln(w, idStyle.Render(s.ID))
	fmt.Fprintln(w)
	for _, m := range s.Messages {
		if m.IsLoading {
			continue
		}
		role := "assistant"
		if m.IsUser {
			role = "you"
		}
		header := roleStyle.Render(role) + " " + dateStyle.Render(m.Timestamp.Local().Format("2006-01-02 15:04"))
		if m.Kind() == storage.MessageTypeAudio || m.IsAudioTranscription {
			header += " (audio transcription)"
		}
		fmt.Fprintln(w, header)
		fmt.Fprintln(w, m.Content)
		fmt.Fprintln(w)
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func init() {
	sessionsListCmd.Flags().BoolVar(&listJSON, "json", false, "Print as JSON")
	sessionsListCmd.Flags().StringVarP(&listFilter, "filter", "f", "", "Fuzzy filter on title and first message")
	sessionsExportCmd.Flags().StringVarP(&exportFormat, "format", "f", "md", "Export format: md, json, yaml")
	sessionsExportCmd.Flags().StringVarP(&exportOutDir, "out", "o", "", "Output directory")

	sessionsCmd.AddCommand(sessionsListCmd, sessionsShowCmd, sessionsDeleteCmd, sessionsRenameCmd, sessionsExportCmd, sessionsNewCmd)
	rootCmd.AddCommand(sessionsCmd)
}
