package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"hookchat/devhook"
)

var (
	mockAddr   string
	mockStatus int
	mockDelay  time.Duration
	mockTone   float64
	mockQuiet  bool
)

var mockWebhookCmd = &cobra.Command{
	Use:   "mock-webhook",
	Short: "Run a local webhook that echoes messages",
	Long: `Run a stand-in assistant for local testing. Typed messages are echoed
back; messages starting with /audio and recorded voice messages get a short
synthesized audio reply with transcriptions.

Point the client at it with:
  HOOKCHAT_WEBHOOK_URL=http://localhost:8787/webhook hookchat`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		srv := devhook.New(devhook.Options{
			ForceStatus:   mockStatus,
			Delay:         mockDelay,
			ToneFrequency: mockTone,
			Quiet:         mockQuiet,
		})

		server := &http.Server{
			Addr:              mockAddr,
			Handler:           srv.Router(),
			ReadHeaderTimeout: 10 * time.Second,
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		errCh := make(chan error, 1)
		go func() {
			fmt.Fprintf(cmd.OutOrStdout(), "mock webhook listening on %s (POST /webhook)\n", mockAddr)
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- err
			}
			close(errCh)
		}()

		select {
		case err := <-errCh:
			return err
		case <-ctx.Done():
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown failed: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "mock webhook stopped")
		return nil
	},
}

func init() {
	mockWebhookCmd.Flags().StringVar(&mockAddr, "addr", ":8787", "Listen address")
	mockWebhookCmd.Flags().IntVar(&mockStatus, "status", 0, "Fail every call with this HTTP status")
	mockWebhookCmd.Flags().DurationVar(&mockDelay, "delay", 0, "Wait this long before answering")
	mockWebhookCmd.Flags().Float64Var(&mockTone, "tone", 440, "Frequency of the audio reply tone in Hz")
	mockWebhookCmd.Flags().BoolVar(&mockQuiet, "quiet", false, "Disable request logging")
	rootCmd.AddCommand(mockWebhookCmd)
}
