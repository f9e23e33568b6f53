package cmd

import (
	"fmt"

	"hookchat/config"
	"hookchat/model"
	"hookchat/storage"
	"hookchat/webhook"
)

// app holds the pieces every command needs: storage, the webhook client
// and the session controller on top of them.
type app struct {
	cfg    *config.Config
	kv     storage.KeyValue
	store  *storage.SessionStore
	client *webhook.Client
	chat   *model.Controller
}

func openApp(cfg *config.Config) (*app, error) {
	kv, err := storage.OpenKeyValue(cfg.StorageBackend, cfg.DataDir())
	if err != nil {
		return nil, fmt.Errorf("failed to open session storage: %w", err)
	}

	store := storage.NewSessionStore(kv)
	client := webhook.NewClient(cfg.WebhookURL, cfg.WebhookTimeout)
	chat := model.NewController(store, client)
	chat.Init()

	if config.DebugLog != nil {
		config.DebugLog.Printf("[App] storage=%s sessions=%d webhook=%v", cfg.StorageBackend, len(chat.Sessions()), cfg.HasWebhook())
	}

	return &app{cfg: cfg, kv: kv, store: store, client: client, chat: chat}, nil
}

func (a *app) Close() error {
	return a.kv.Close()
}
