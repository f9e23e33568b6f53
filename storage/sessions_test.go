package storage

import (
	"path/filepath"
	"testing"
	"time"
)

func testSessions() []Session {
	created := time.Date(2025, 3, 14, 9, 26, 53, 589_000_000, time.UTC)
	return []Session{
		{
			ID:        "s2",
			Title:     DefaultSessionTitle,
			CreatedAt: created.Add(time.Hour),
			UpdatedAt: created.Add(2 * time.Hour),
			Messages: []Message{
				{ID: "m1", Content: "hola", IsUser: true, Timestamp: created.Add(time.Hour), Type: MessageTypeText},
				{ID: "m2", Content: "¡Hola!", Timestamp: created.Add(time.Hour + time.Second), Type: MessageTypeText},
			},
		},
		{
			ID:        "s1",
			Title:     DefaultSessionTitle,
			CreatedAt: created,
			UpdatedAt: created,
			Messages: []Message{
				{ID: "m3", Content: "Hey", IsUser: true, Timestamp: created, Type: MessageTypeAudio},
				{ID: "m4", Content: "Hi", Timestamp: created, Type: MessageTypeText, IsAudioTranscription: true},
			},
		},
	}
}

func TestSessionStoreRoundTrip(t *testing.T) {
	fileKV, err := NewFileKV(filepath.Join(t.TempDir(), "localstorage.json"))
	if err != nil {
		t.Fatalf("NewFileKV() error = %v", err)
	}

	backends := []struct {
		name string
		kv   KeyValue
	}{
		{"memory", NewMemoryKV()},
		{"file", fileKV},
	}

	for _, b := range backends {
		t.Run(b.name, func(t *testing.T) {
			store := NewSessionStore(b.kv)
			want := testSessions()
			store.Save(want)

			got := store.Load()
			if len(got) != len(want) {
				t.Fatalf("Load() returned %d sessions, want %d", len(got), len(want))
			}

			for i := range want {
				if got[i].ID != want[i].ID {
					t.Errorf("session %d id = %q, want %q", i, got[i].ID, want[i].ID)
				}
				if !got[i].CreatedAt.Equal(want[i].CreatedAt) {
					t.Errorf("session %d CreatedAt = %v, want %v", i, got[i].CreatedAt, want[i].CreatedAt)
				}
				if !got[i].UpdatedAt.Equal(want[i].UpdatedAt) {
					t.Errorf("session %d UpdatedAt = %v, want %v", i, got[i].UpdatedAt, want[i].UpdatedAt)
				}
				if len(got[i].Messages) != len(want[i].Messages) {
					t.Fatalf("session %d has %d messages, want %d", i, len(got[i].Messages), len(want[i].Messages))
				}
				for j, msg := range want[i].Messages {
					g := got[i].Messages[j]
					if !g.Timestamp.Equal(msg.Timestamp) {
						t.Errorf("message %s timestamp = %v, want %v", msg.ID, g.Timestamp, msg.Timestamp)
					}
					if g.Content != msg.Content || g.IsUser != msg.IsUser || g.Type != msg.Type {
						t.Errorf("message %s = %+v, want %+v", msg.ID, g, msg)
					}
					if g.IsAudioTranscription != msg.IsAudioTranscription {
						t.Errorf("message %s IsAudioTranscription = %v", msg.ID, g.IsAudioTranscription)
					}
				}
			}
		})
	}
}

func TestSessionStoreLoadFailsSoft(t *testing.T) {
	tests := []struct {
		name  string
		value *string
	}{
		{name: "absent", value: nil},
		{name: "empty", value: strPtr("")},
		{name: "not json", value: strPtr("{not json")},
		{name: "wrong shape", value: strPtr(`{"id":"x"}`)},
		{name: "bad timestamp", value: strPtr(`[{"id":"x","createdAt":"yesterday","messages":[]}]`)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kv := NewMemoryKV()
			if tt.value != nil {
				kv.Set(SessionsKey, *tt.value)
			}
			got := NewSessionStore(kv).Load()
			if got == nil || len(got) != 0 {
				t.Errorf("Load() = %v, want empty non-nil slice", got)
			}
		})
	}
}

func TestSessionStoreNilMessagesNormalized(t *testing.T) {
	kv := NewMemoryKV()
	kv.Set(SessionsKey, `[{"id":"x","title":"t","createdAt":"2025-01-01T00:00:00Z","updatedAt":"2025-01-01T00:00:00Z"}]`)

	got := NewSessionStore(kv).Load()
	if len(got) != 1 {
		t.Fatalf("Load() returned %d sessions, want 1", len(got))
	}
	if got[0].Messages == nil {
		t.Error("expected Messages to be an empty slice")
	}
}

func TestCurrentSessionID(t *testing.T) {
	store := NewSessionStore(NewMemoryKV())

	if id, ok := store.CurrentSessionID(); ok || id != "" {
		t.Errorf("CurrentSessionID() = (%q, %v), want (\"\", false)", id, ok)
	}

	store.SetCurrentSessionID("abc")
	if id, ok := store.CurrentSessionID(); !ok || id != "abc" {
		t.Errorf("CurrentSessionID() = (%q, %v), want (abc, true)", id, ok)
	}

	store.SetCurrentSessionID("")
	if id, ok := store.CurrentSessionID(); !ok || id != "" {
		t.Errorf("CurrentSessionID() = (%q, %v), want (\"\", true)", id, ok)
	}
}

func TestNewSession(t *testing.T) {
	now := time.Now()
	a := NewSession(now)
	b := NewSession(now)

	if a.ID == "" || a.ID == b.ID {
		t.Errorf("expected distinct non-empty ids, got %q and %q", a.ID, b.ID)
	}
	if a.Title != DefaultSessionTitle {
		t.Errorf("Title = %q, want %q", a.Title, DefaultSessionTitle)
	}
	if !a.CreatedAt.Equal(now) || !a.UpdatedAt.Equal(now) {
		t.Error("expected CreatedAt and UpdatedAt to equal now")
	}
	if a.Messages == nil {
		t.Error("expected empty message slice")
	}
}

func TestMessageKind(t *testing.T) {
	if (Message{}).Kind() != MessageTypeText {
		t.Error("empty type should read as text")
	}
	if (Message{Type: MessageTypeAudio}).Kind() != MessageTypeAudio {
		t.Error("audio type should be preserved")
	}
}

func TestSessionClone(t *testing.T) {
	s := testSessions()[0]
	c := s.Clone()
	c.Messages[0].Content = "changed"
	if s.Messages[0].Content == "changed" {
		t.Error("Clone() shares the message slice")
	}
}

func strPtr(s string) *string { return &s }
