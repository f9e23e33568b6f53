package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"hookchat/audio"
	"hookchat/model"
	"hookchat/ui"
)

var (
	sendAudioFile string
	sendSessionID string
	sendNewChat   bool
	sendOutFile   string
	sendRender    bool
)

var sendCmd = &cobra.Command{
	Use:   "send [message]",
	Short: "Send one message and print the reply",
	Long: `Send a typed message, or a recorded audio file with --audio, to the
webhook and print the reply. The exchange is stored like any other
conversation. Audio replies are written to --out when given.`,
	Example: `  hookchat send "what's on my calendar?"
  hookchat send --new "start over"
  hookchat send --audio note.webm --out reply`,
	RunE: func(cmd *cobra.Command, args []string) error {
		text := strings.TrimSpace(strings.Join(args, " "))
		if text == "" && sendAudioFile == "" {
			return errors.New("nothing to send: pass a message or --audio FILE")
		}
		if text != "" && sendAudioFile != "" {
			return errors.New("pass either a message or --audio, not both")
		}

		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		a, err := openApp(cfg)
		if err != nil {
			return err
		}
		defer a.Close()

		switch {
		case sendNewChat:
			a.chat.NewChat()
		case sendSessionID != "":
			if err := a.chat.Select(sendSessionID); err != nil {
				return fmt.Errorf("%w: %s", err, sendSessionID)
			}
		}

		var res *model.SendResult
		if sendAudioFile != "" {
			data, err := os.ReadFile(sendAudioFile)
			if err != nil {
				return fmt.Errorf("failed to read audio file: %w", err)
			}
			res, err = a.chat.SendAudio(cmd.Context(), audio.Encode(data))
			if err != nil {
				return err
			}
		} else {
			res, err = a.chat.SendMessage(cmd.Context(), text)
			if err != nil {
				return err
			}
		}

		return printReply(cmd.OutOrStdout(), res, sendOutFile, sendRender)
	},
}

func printReply(w io.Writer, res *model.SendResult, outFile string, render bool) error {
	reply := res.Reply
	if !reply.IsAudio() {
		if render {
			fmt.Fprintln(w, ui.RenderMarkdown(reply.Data, 80))
		} else {
			fmt.Fprintln(w, reply.Data)
		}
		return nil
	}

	if reply.UserTranscription != "" {
		fmt.Fprintf(w, "you: %s\n", reply.UserTranscription)
	}
	if reply.Transcription != "" {
		fmt.Fprintf(w, "assistant: %s\n", reply.Transcription)
	} else {
		fmt.Fprintln(w, model.AudioReplyFallback)
	}

	if outFile == "" {
		return nil
	}
	data, err := audio.Decode(reply.Data)
	if err != nil {
		return fmt.Errorf("reply audio is not valid base64: %w", err)
	}
	if filepath.Ext(outFile) == "" {
		outFile += audio.Sniff(reply.Data).Extension()
	}
	if err := os.WriteFile(outFile, data, 0600); err != nil {
		return fmt.Errorf("failed to write reply audio: %w", err)
	}
	fmt.Fprintf(w, "audio saved to %s (%d bytes)\n", outFile, len(data))
	return nil
}

func init() {
	sendCmd.Flags().StringVar(&sendAudioFile, "audio", "", "Send this audio file as a voice message")
	sendCmd.Flags().StringVarP(&sendSessionID, "session", "s", "", "Conversation to continue (default: current)")
	sendCmd.Flags().BoolVar(&sendNewChat, "new", false, "Start a new conversation")
	sendCmd.Flags().StringVarP(&sendOutFile, "out", "o", "", "Write an audio reply to this file")
	sendCmd.Flags().BoolVar(&sendRender, "render", false, "Render markdown replies for the terminal")
	rootCmd.AddCommand(sendCmd)
}
