package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"hookchat/config"
)

var (
	dataDirFlag string
	webhookFlag string
	backendFlag string

	version = "dev"
)

var rootCmd = &cobra.Command{
	Use:   "hookchat",
	Short: "Terminal chat client for webhook-driven assistants",
	Long: `hookchat is a terminal chat client that talks to an assistant behind a
single HTTP webhook. Typed messages and recorded voice messages are posted to
the webhook; text replies are rendered as markdown and audio replies are
played back.

Quick Start:
  hookchat                                  # Open the chat UI
  hookchat send "hello"                     # One-shot message
  hookchat sessions list                    # Stored conversations
  hookchat mock-webhook --addr :8787        # Local test assistant`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runTUI,
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dataDirFlag, "data-dir", "", "Override the data directory")
	rootCmd.PersistentFlags().StringVar(&webhookFlag, "webhook", "", "Override the webhook URL")
	rootCmd.PersistentFlags().StringVar(&backendFlag, "storage", "", "Storage backend (file or sqlite)")

	rootCmd.SetVersionTemplate(`{{printf "%s\n" .Version}}`)
}

// loadConfig resolves settings and applies command-line overrides.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if dataDirFlag != "" {
		cfg.DataDirectory = dataDirFlag
		if err := config.EnsureDir(cfg.DataDir()); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
	}
	if webhookFlag != "" {
		cfg.WebhookURL = webhookFlag
	}
	if backendFlag != "" {
		cfg.StorageBackend = backendFlag
	}

	config.InitDebugLog(cfg.DataDir())
	return cfg, nil
}
