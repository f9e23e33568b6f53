package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func isolateEnv(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("USERPROFILE", home)
	t.Setenv("LOCALAPPDATA", filepath.Join(home, "AppData", "Local"))
	for _, key := range []string{
		"HOOKCHAT_WEBHOOK_URL",
		"N8N_WEBHOOK_URL",
		"HOOKCHAT_DATA_DIR",
		"HOOKCHAT_STORAGE",
		"HOOKCHAT_RESPONSE_TIMEOUT",
		"HOOKCHAT_DEBUG",
	} {
		t.Setenv(key, "")
	}
	return home
}

func TestLoadCreatesDefaultSettings(t *testing.T) {
	home := isolateEnv(t)
	t.Setenv("HOOKCHAT_DATA_DIR", filepath.Join(home, "data"))

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if !FileExists(GetSettingsFilePath()) {
		t.Error("expected settings.toml to be created")
	}
	if cfg.HasWebhook() {
		t.Errorf("expected no webhook configured, got %q", cfg.WebhookURL)
	}
	if cfg.StorageBackend != StorageBackendFile {
		t.Errorf("StorageBackend = %q, want %q", cfg.StorageBackend, StorageBackendFile)
	}
	if cfg.ResponseTimeout != DefaultResponseTimeout {
		t.Errorf("ResponseTimeout = %v, want %v", cfg.ResponseTimeout, DefaultResponseTimeout)
	}

	info, err := os.Stat(cfg.DataDir())
	if err != nil {
		t.Fatalf("data dir not created: %v", err)
	}
	if info.Mode().Perm() != 0700 {
		t.Errorf("data dir perms = %v, want 0700", info.Mode().Perm())
	}
}

func TestLoadReadsSettingsFile(t *testing.T) {
	home := isolateEnv(t)

	settings := DefaultSettings()
	settings.DataDirectory = filepath.Join(home, "custom")
	settings.Webhook.URL = "http://localhost:5678/webhook/chat"
	settings.Webhook.TimeoutSeconds = 5
	settings.Audio.ResponseTimeoutSeconds = 12
	settings.Storage.Backend = StorageBackendSQLite
	if err := SaveSettings(settings); err != nil {
		t.Fatalf("SaveSettings() error = %v", err)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.WebhookURL != settings.Webhook.URL {
		t.Errorf("WebhookURL = %q, want %q", cfg.WebhookURL, settings.Webhook.URL)
	}
	if cfg.WebhookTimeout != 5*time.Second {
		t.Errorf("WebhookTimeout = %v, want 5s", cfg.WebhookTimeout)
	}
	if cfg.ResponseTimeout != 12*time.Second {
		t.Errorf("ResponseTimeout = %v, want 12s", cfg.ResponseTimeout)
	}
	if cfg.StorageBackend != StorageBackendSQLite {
		t.Errorf("StorageBackend = %q, want sqlite", cfg.StorageBackend)
	}
	if cfg.DataDir() != filepath.Join(home, "custom") {
		t.Errorf("DataDir() = %q", cfg.DataDir())
	}
}

func TestEnvOverrides(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantURL string
	}{
		{
			name:    "hookchat variable",
			env:     map[string]string{"HOOKCHAT_WEBHOOK_URL": "http://a/hook"},
			wantURL: "http://a/hook",
		},
		{
			name:    "n8n fallback",
			env:     map[string]string{"N8N_WEBHOOK_URL": "http://b/hook"},
			wantURL: "http://b/hook",
		},
		{
			name: "hookchat wins over n8n",
			env: map[string]string{
				"HOOKCHAT_WEBHOOK_URL": "http://a/hook",
				"N8N_WEBHOOK_URL":      "http://b/hook",
			},
			wantURL: "http://a/hook",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			home := isolateEnv(t)
			t.Setenv("HOOKCHAT_DATA_DIR", filepath.Join(home, "data"))
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			cfg, err := Load()
			if err != nil {
				t.Fatalf("Load() error = %v", err)
			}
			if cfg.WebhookURL != tt.wantURL {
				t.Errorf("WebhookURL = %q, want %q", cfg.WebhookURL, tt.wantURL)
			}
		})
	}
}

func TestLoadRejectsUnknownBackend(t *testing.T) {
	home := isolateEnv(t)
	t.Setenv("HOOKCHAT_DATA_DIR", filepath.Join(home, "data"))
	t.Setenv("HOOKCHAT_STORAGE", "redis")

	if _, err := Load(); err == nil {
		t.Error("expected error for unknown storage backend")
	}
}

func TestExpandPath(t *testing.T) {
	home := isolateEnv(t)

	if got := ExpandPath("~/x/y"); got != filepath.Join(home, "x", "y") {
		t.Errorf("ExpandPath(~/x/y) = %q", got)
	}
	if got := ExpandPath(""); got != "" {
		t.Errorf("ExpandPath(\"\") = %q, want empty", got)
	}
}
