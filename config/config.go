package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type WebhookConfig struct {
	URL            string `toml:"url"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

type AudioConfig struct {
	RecordCommand          string `toml:"record_command"`
	PlayCommand            string `toml:"play_command"`
	ResponseTimeoutSeconds int    `toml:"response_timeout_seconds"`
}

type StorageConfig struct {
	Backend string `toml:"backend"`
}

// Settings mirrors settings.toml.
type Settings struct {
	DataDirectory string        `toml:"data_directory"`
	Webhook       WebhookConfig `toml:"webhook"`
	Audio         AudioConfig   `toml:"audio"`
	Storage       StorageConfig `toml:"storage"`
}

// Config is the resolved runtime configuration (file + environment).
type Config struct {
	DataDirectory   string
	WebhookURL      string
	WebhookTimeout  time.Duration
	RecordCommand   string
	PlayCommand     string
	ResponseTimeout time.Duration
	StorageBackend  string
}

const (
	StorageBackendFile   = "file"
	StorageBackendSQLite = "sqlite"
)

var Debug = false
var DebugLog *log.Logger

func (c *Config) DataDir() string {
	return ExpandPath(c.DataDirectory)
}

// HasWebhook reports whether an endpoint is configured. A missing endpoint is
// not a startup error; the webhook client reports it on the first send.
func (c *Config) HasWebhook() bool {
	return strings.TrimSpace(c.WebhookURL) != ""
}

func (c *Config) applySettings(s *Settings) {
	if s.DataDirectory != "" {
		c.DataDirectory = s.DataDirectory
	}
	if s.Webhook.URL != "" {
		c.WebhookURL = s.Webhook.URL
	}
	if s.Webhook.TimeoutSeconds > 0 {
		c.WebhookTimeout = time.Duration(s.Webhook.TimeoutSeconds) * time.Second
	}
	if s.Audio.RecordCommand != "" {
		c.RecordCommand = s.Audio.RecordCommand
	}
	if s.Audio.PlayCommand != "" {
		c.PlayCommand = s.Audio.PlayCommand
	}
	if s.Audio.ResponseTimeoutSeconds > 0 {
		c.ResponseTimeout = time.Duration(s.Audio.ResponseTimeoutSeconds) * time.Second
	}
	if s.Storage.Backend != "" {
		c.StorageBackend = s.Storage.Backend
	}
}

func (c *Config) applyEnvOverrides() {
	if url := os.Getenv("HOOKCHAT_WEBHOOK_URL"); url != "" {
		c.WebhookURL = url
	} else if url := os.Getenv("N8N_WEBHOOK_URL"); url != "" {
		c.WebhookURL = url
	}
	if dataDir := os.Getenv("HOOKCHAT_DATA_DIR"); dataDir != "" {
		c.DataDirectory = dataDir
	}
	if backend := os.Getenv("HOOKCHAT_STORAGE"); backend != "" {
		c.StorageBackend = backend
	}
	if secs := os.Getenv("HOOKCHAT_RESPONSE_TIMEOUT"); secs != "" {
		if n, err := strconv.Atoi(secs); err == nil && n > 0 {
			c.ResponseTimeout = time.Duration(n) * time.Second
		}
	}
}

func (c *Config) validate() error {
	switch c.StorageBackend {
	case StorageBackendFile, StorageBackendSQLite:
	default:
		return fmt.Errorf("unknown storage backend %q (supported: file, sqlite)", c.StorageBackend)
	}
	return nil
}

func CheckDebug() bool {
	debug := os.Getenv("HOOKCHAT_DEBUG")
	return debug == "true" || debug == "1"
}

func InitDebugLog(dataDir string) {
	if !CheckDebug() {
		return
	}

	Debug = true
	logPath := filepath.Join(dataDir, "debug.log")

	// 0600: the log may contain message text
	f, err := os.OpenFile(logPath, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0600)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: Could not open debug log at %s: %v\n", logPath, err)
		return
	}

	DebugLog = log.New(f, "", log.Ldate|log.Ltime|log.Lmicroseconds|log.Lshortfile)
	DebugLog.Printf("=== Debug logging started (HOOKCHAT_DEBUG=%s) ===", os.Getenv("HOOKCHAT_DEBUG"))
	DebugLog.Printf("Log path: %s", logPath)
}

// LoadDotEnv loads a .env file from the working directory if one exists.
func LoadDotEnv() {
	if !FileExists(".env") {
		return
	}
	if err := godotenv.Load(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to load .env file: %v\n", err)
	}
}

func Default() *Config {
	return &Config{
		DataDirectory:   GetDefaultDataDir(),
		WebhookTimeout:  DefaultWebhookTimeout,
		RecordCommand:   DefaultRecordCommand,
		PlayCommand:     DefaultPlayCommand,
		ResponseTimeout: DefaultResponseTimeout,
		StorageBackend:  StorageBackendFile,
	}
}

// Load resolves configuration: defaults, then settings.toml (created from
// the template when missing), then environment variables.
func Load() (*Config, error) {
	LoadDotEnv()

	cfg := Default()

	settings, err := LoadSettings()
	if err != nil {
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}
	cfg.applySettings(settings)
	cfg.applyEnvOverrides()

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	dataDir := cfg.DataDir()
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	if err := EnsureDataDirPermissions(dataDir); err != nil {
		return nil, fmt.Errorf("failed to set data directory permissions: %w", err)
	}

	return cfg, nil
}
