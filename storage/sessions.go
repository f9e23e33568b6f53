package storage

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"hookchat/config"
)

const (
	SessionsKey       = "chatSessions"
	CurrentSessionKey = "currentSessionId"

	DefaultSessionTitle = "New conversation"
)

type MessageType string

const (
	MessageTypeText  MessageType = "text"
	MessageTypeAudio MessageType = "audio"
)

// Message represents a chat message
type Message struct {
	ID                   string      `json:"id" yaml:"id"`
	Content              string      `json:"content" yaml:"content"`
	IsUser               bool        `json:"isUser" yaml:"is_user"`
	IsLoading            bool        `json:"isLoading,omitempty" yaml:"is_loading,omitempty"`
	Timestamp            time.Time   `json:"timestamp" yaml:"timestamp"`
	Type                 MessageType `json:"type,omitempty" yaml:"type,omitempty"`
	AudioBase64          string      `json:"audioBase64,omitempty" yaml:"-"`
	IsAudioTranscription bool        `json:"isAudioTranscription,omitempty" yaml:"is_audio_transcription,omitempty"`
}

// Kind returns the message type, treating an empty type as text.
func (m Message) Kind() MessageType {
	if m.Type == "" {
		return MessageTypeText
	}
	return m.Type
}

// Session represents a chat session
type Session struct {
	ID        string    `json:"id" yaml:"id"`
	Title     string    `json:"title" yaml:"title"`
	CreatedAt time.Time `json:"createdAt" yaml:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" yaml:"updated_at"`
	Messages  []Message `json:"messages" yaml:"messages"`
}

// Clone returns a copy whose message slice can be modified independently.
func (s Session) Clone() Session {
	out := s
	out.Messages = make([]Message, len(s.Messages))
	copy(out.Messages, s.Messages)
	return out
}

// NewSession returns an empty session with a fresh id and the default title.
func NewSession(now time.Time) Session {
	return Session{
		ID:        uuid.NewString(),
		Title:     DefaultSessionTitle,
		CreatedAt: now,
		UpdatedAt: now,
		Messages:  []Message{},
	}
}

// SessionStore persists the session collection and the current session
// pointer in a key-value area. It never fails the caller: reads degrade to
// empty values and write failures are logged.
type SessionStore struct {
	kv KeyValue
}

func NewSessionStore(kv KeyValue) *SessionStore {
	return &SessionStore{kv: kv}
}

// Load returns the persisted sessions, or an empty slice when nothing is
// stored or the stored value cannot be decoded.
func (s *SessionStore) Load() []Session {
	raw, ok, err := s.kv.Get(SessionsKey)
	if err != nil {
		if config.DebugLog != nil {
			config.DebugLog.Printf("[SessionStore] Load: read failed: %v", err)
		}
		return []Session{}
	}
	if !ok || raw == "" {
		return []Session{}
	}

	var sessions []Session
	if err := json.Unmarshal([]byte(raw), &sessions); err != nil {
		if config.DebugLog != nil {
			config.DebugLog.Printf("[SessionStore] Load: decode failed: %v", err)
		}
		return []Session{}
	}

	for i := range sessions {
		if sessions[i].Messages == nil {
			sessions[i].Messages = []Message{}
		}
	}

	return sessions
}

// Save rewrites the whole collection.
func (s *SessionStore) Save(sessions []Session) {
	if err := s.save(sessions); err != nil && config.DebugLog != nil {
		config.DebugLog.Printf("[SessionStore] Save: %v", err)
	}
}

func (s *SessionStore) save(sessions []Session) error {
	if sessions == nil {
		sessions = []Session{}
	}
	data, err := json.Marshal(sessions)
	if err != nil {
		return fmt.Errorf("failed to marshal sessions: %w", err)
	}
	if err := s.kv.Set(SessionsKey, string(data)); err != nil {
		return fmt.Errorf("failed to write sessions: %w", err)
	}
	return nil
}

// CurrentSessionID returns the stored pointer. ok is false when it was never
// written; an empty id with ok=true means "no active session".
func (s *SessionStore) CurrentSessionID() (string, bool) {
	id, ok, err := s.kv.Get(CurrentSessionKey)
	if err != nil {
		if config.DebugLog != nil {
			config.DebugLog.Printf("[SessionStore] CurrentSessionID: %v", err)
		}
		return "", false
	}
	return id, ok
}

func (s *SessionStore) SetCurrentSessionID(id string) {
	if err := s.kv.Set(CurrentSessionKey, id); err != nil && config.DebugLog != nil {
		config.DebugLog.Printf("[SessionStore] SetCurrentSessionID: %v", err)
	}
}
