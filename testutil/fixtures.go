package testutil

import (
	"time"

	"hookchat/storage"
	"hookchat/webhook"
)

// WebMPayload is a short base64 payload that sniffs as webm.
const WebMPayload = "GkXfo59ChoEBd2VibS10ZXN0LXBheWxvYWQ="

// MPEGPayload is a short base64 payload that sniffs as mpeg.
const MPEGPayload = "SUQzBAAAAAAAI1RTU0UtbXBlZy10ZXN0LXBheWxvYWQ="

func TextReply(data string) *webhook.Reply {
	return &webhook.Reply{Type: webhook.ReplyMessage, RawType: "message", Data: data}
}

func AudioReply(b64, transcription, userTranscription string) *webhook.Reply {
	return &webhook.Reply{
		Type:              webhook.ReplyAudio,
		RawType:           "audio",
		Data:              b64,
		Transcription:     transcription,
		UserTranscription: userTranscription,
	}
}

// TestSessions returns two stored sessions, newest first
func TestSessions() []storage.Session {
	now := time.Date(2025, 3, 14, 10, 0, 0, 0, time.UTC)
	return []storage.Session{
		{
			ID:        "newer",
			Title:     storage.DefaultSessionTitle,
			CreatedAt: now,
			UpdatedAt: now,
			Messages: []storage.Message{
				{ID: "n1", Content: "hello", IsUser: true, Timestamp: now, Type: storage.MessageTypeText},
				{ID: "n2", Content: "hi!", Timestamp: now, Type: storage.MessageTypeText},
			},
		},
		{
			ID:        "older",
			Title:     "Groceries",
			CreatedAt: now.Add(-24 * time.Hour),
			UpdatedAt: now.Add(-24 * time.Hour),
			Messages:  []storage.Message{},
		},
	}
}

// SeededStore returns a memory-backed store holding sessions and, when
// current is non-nil, a current session pointer.
func SeededStore(sessions []storage.Session, current *string) (*storage.SessionStore, *storage.MemoryKV) {
	kv := storage.NewMemoryKV()
	store := storage.NewSessionStore(kv)
	if sessions != nil {
		store.Save(sessions)
	}
	if current != nil {
		store.SetCurrentSessionID(*current)
	}
	return store, kv
}
