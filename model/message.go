package model

import (
	"time"

	"github.com/google/uuid"

	"hookchat/storage"
)

const (
	AudioPlaceholder   = "Audio message (transcription pending)"
	AudioReplyFallback = "Audio response"
	SendFailedMessage  = "Sorry, there was an error processing your message. Please try again."
	loadingPlaceholder = "..."
)

func newUserMessage(content string, kind storage.MessageType, audioB64 string, now time.Time) storage.Message {
	return storage.Message{
		ID:          uuid.NewString(),
		Content:     content,
		IsUser:      true,
		Timestamp:   now,
		Type:        kind,
		AudioBase64: audioB64,
	}
}

func newLoadingMessage(now time.Time) storage.Message {
	return storage.Message{
		ID:        uuid.NewString(),
		Content:   loadingPlaceholder,
		IsLoading: true,
		Timestamp: now,
		Type:      storage.MessageTypeText,
	}
}

func newAssistantMessage(content string, transcription bool, now time.Time) storage.Message {
	return storage.Message{
		ID:                   uuid.NewString(),
		Content:              content,
		Timestamp:            now,
		Type:                 storage.MessageTypeText,
		IsAudioTranscription: transcription,
	}
}

// hasLoading reports whether the session is waiting on a reply.
func hasLoading(s storage.Session) bool {
	n := len(s.Messages)
	return n > 0 && s.Messages[n-1].IsLoading
}

func removeMessage(msgs []storage.Message, id string) []storage.Message {
	out := make([]storage.Message, 0, len(msgs))
	for _, m := range msgs {
		if m.ID != id {
			out = append(out, m)
		}
	}
	return out
}
