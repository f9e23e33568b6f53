package config

import "time"

const (
	DefaultWebhookTimeout  = 60 * time.Second
	DefaultResponseTimeout = 30 * time.Second

	// Capture programs write the encoded stream to stdout.
	DefaultRecordCommand = "ffmpeg -hide_banner -loglevel error -f pulse -i default -c:a libopus -f webm pipe:1"

	// {file} is replaced with the path of the decoded reply.
	DefaultPlayCommand = "ffplay -nodisp -autoexit -loglevel error {file}"
)

func DefaultSettings() *Settings {
	return &Settings{
		DataDirectory: "~/.local/share/hookchat",
		Webhook: WebhookConfig{
			TimeoutSeconds: int(DefaultWebhookTimeout / time.Second),
		},
		Audio: AudioConfig{
			RecordCommand:          DefaultRecordCommand,
			PlayCommand:            DefaultPlayCommand,
			ResponseTimeoutSeconds: int(DefaultResponseTimeout / time.Second),
		},
		Storage: StorageConfig{
			Backend: StorageBackendFile,
		},
	}
}

func GenerateSettingsTemplate() string {
	return `# hookchat configuration
# Location: ~/.config/hookchat/settings.toml
# This file uses TOML format: https://toml.io

# Directory where the session store and debug log live
data_directory = "~/.local/share/hookchat"

[webhook]
# Workflow webhook endpoint. HOOKCHAT_WEBHOOK_URL or N8N_WEBHOOK_URL
# (also read from a .env file) take precedence.
url = ""

# Per-request timeout in seconds
timeout_seconds = 60

[audio]
# Capture program; must write an encoded stream (webm/ogg/wav) to stdout
record_command = "ffmpeg -hide_banner -loglevel error -f pulse -i default -c:a libopus -f webm pipe:1"

# Playback program; {file} is replaced with the reply audio file
play_command = "ffplay -nodisp -autoexit -loglevel error {file}"

# Seconds to wait for a voice reply before offering a retry
response_timeout_seconds = 30

[storage]
# "file" (single JSON document) or "sqlite"
backend = "file"
`
}
