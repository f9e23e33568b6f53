package model

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"hookchat/config"
	"hookchat/storage"
	"hookchat/webhook"
)

var (
	ErrSendInFlight    = errors.New("a reply is still pending for this conversation")
	ErrSessionNotFound = errors.New("session not found")
	ErrEmptyMessage    = errors.New("message is empty")
	ErrResponseTimeout = errors.New("timed out waiting for the audio response")
)

// Sender delivers one message to the responder. *webhook.Client satisfies
// it.
type Sender interface {
	Send(ctx context.Context, sessionID, payload string, kind webhook.Kind) (*webhook.Reply, error)
}

// AudioReply is a voice reply routed to the audio dialog.
type AudioReply struct {
	SessionID         string
	Base64            string
	Transcription     string
	UserTranscription string
	// FromAudio is set when the reply answers a recorded message rather
	// than a typed one.
	FromAudio bool
}

// SendResult describes a resolved send.
type SendResult struct {
	SessionID     string
	UserMessageID string
	Reply         *webhook.Reply
}

// Controller owns the session collection and the send lifecycle. It is
// safe for concurrent use; the lock is never held across webhook calls.
type Controller struct {
	store  *storage.SessionStore
	sender Sender
	now    func() time.Time

	mu        sync.Mutex
	sessions  []storage.Session
	currentID string
	sink      func(AudioReply)
	notify    func()
}

func NewController(store *storage.SessionStore, sender Sender) *Controller {
	return &Controller{
		store:    store,
		sender:   sender,
		now:      time.Now,
		sessions: []storage.Session{},
	}
}

// SetClock overrides the time source.
func (c *Controller) SetClock(now func() time.Time) {
	c.mu.Lock()
	c.now = now
	c.mu.Unlock()
}

// SetAudioSink registers the receiver for audio replies.
func (c *Controller) SetAudioSink(sink func(AudioReply)) {
	c.mu.Lock()
	c.sink = sink
	c.mu.Unlock()
}

// SetNotifier registers a callback fired after every state change.
func (c *Controller) SetNotifier(fn func()) {
	c.mu.Lock()
	c.notify = fn
	c.mu.Unlock()
}

// Init loads the collection and picks the active session. A stored id that
// matches a session is selected; a missing or stale id selects the first
// session; an explicit empty id leaves nothing selected.
func (c *Controller) Init() {
	sessions := c.store.Load()
	storedID, written := c.store.CurrentSessionID()

	c.mu.Lock()
	c.sessions = sessions
	c.currentID = ""
	switch {
	case written && storedID == "":
	case written && c.indexOf(storedID) >= 0:
		c.currentID = storedID
	case len(sessions) > 0:
		c.currentID = sessions[0].ID
	}
	current := c.currentID
	c.mu.Unlock()

	if config.DebugLog != nil {
		config.DebugLog.Printf("[Controller] loaded %d sessions, current=%q", len(sessions), current)
	}
	c.fireNotify()
}

// Sessions returns a copy of the collection, newest first.
func (c *Controller) Sessions() []storage.Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]storage.Session, len(c.sessions))
	for i, s := range c.sessions {
		out[i] = s.Clone()
	}
	return out
}

func (c *Controller) Current() (storage.Session, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	idx := c.indexOf(c.currentID)
	if idx < 0 {
		return storage.Session{}, false
	}
	return c.sessions[idx].Clone(), true
}

func (c *Controller) CurrentID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.currentID
}

func (c *Controller) Session(id string) (storage.Session, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	idx := c.indexOf(id)
	if idx < 0 {
		return storage.Session{}, false
	}
	return c.sessions[idx].Clone(), true
}

// Pending reports whether the session has a reply outstanding.
func (c *Controller) Pending(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	idx := c.indexOf(id)
	return idx >= 0 && hasLoading(c.sessions[idx])
}

// Select makes id the active session. An empty id clears the selection.
func (c *Controller) Select(id string) error {
	c.mu.Lock()
	if id != "" && c.indexOf(id) < 0 {
		c.mu.Unlock()
		return ErrSessionNotFound
	}
	c.currentID = id
	c.store.SetCurrentSessionID(id)
	c.mu.Unlock()

	c.fireNotify()
	return nil
}

// NewChat clears the selection; the next send creates a session.
func (c *Controller) NewChat() {
	c.Select("")
}

// Delete removes a session. The selection is cleared only when the active
// session is the one removed.
func (c *Controller) Delete(id string) error {
	c.mu.Lock()
	idx := c.indexOf(id)
	if idx < 0 {
		c.mu.Unlock()
		return ErrSessionNotFound
	}

	next := make([]storage.Session, 0, len(c.sessions)-1)
	next = append(next, c.sessions[:idx]...)
	next = append(next, c.sessions[idx+1:]...)
	c.sessions = next
	c.store.Save(c.sessions)

	if c.currentID == id {
		c.currentID = ""
		c.store.SetCurrentSessionID("")
	}
	c.mu.Unlock()

	if config.DebugLog != nil {
		config.DebugLog.Printf("[Controller] deleted session %s", id)
	}
	c.fireNotify()
	return nil
}

func (c *Controller) Rename(id, title string) error {
	title = strings.TrimSpace(title)
	if title == "" {
		return ErrEmptyMessage
	}

	c.mu.Lock()
	ok := c.replace(id, func(s *storage.Session) {
		s.Title = title
		s.UpdatedAt = c.now()
	})
	if ok {
		c.store.Save(c.sessions)
	}
	c.mu.Unlock()

	if !ok {
		return ErrSessionNotFound
	}
	c.fireNotify()
	return nil
}

func (c *Controller) SendMessage(ctx context.Context, text string) (*SendResult, error) {
	return c.Send(ctx, text, webhook.KindMessage)
}

func (c *Controller) SendAudio(ctx context.Context, b64 string) (*SendResult, error) {
	return c.Send(ctx, b64, webhook.KindAudio)
}

// Send appends the user message and a loading placeholder to the active
// session (creating one if needed), calls the responder and resolves the
// placeholder with the reply or a failure notice. Every step is persisted.
func (c *Controller) Send(ctx context.Context, payload string, kind webhook.Kind) (*SendResult, error) {
	if kind == webhook.KindMessage {
		payload = strings.TrimSpace(payload)
	}
	if payload == "" {
		return nil, ErrEmptyMessage
	}

	c.mu.Lock()
	now := c.now()

	if c.indexOf(c.currentID) < 0 {
		s := storage.NewSession(now)
		c.sessions = append([]storage.Session{s}, c.sessions...)
		c.currentID = s.ID
		c.store.SetCurrentSessionID(s.ID)
		c.store.Save(c.sessions)
		if config.DebugLog != nil {
			config.DebugLog.Printf("[Controller] created session %s", s.ID)
		}
	}

	sessionID := c.currentID
	if hasLoading(c.sessions[c.indexOf(sessionID)]) {
		c.mu.Unlock()
		return nil, ErrSendInFlight
	}

	var user storage.Message
	if kind == webhook.KindAudio {
		user = newUserMessage(AudioPlaceholder, storage.MessageTypeAudio, payload, now)
	} else {
		user = newUserMessage(payload, storage.MessageTypeText, "", now)
	}
	c.appendMessage(sessionID, user, now)
	c.store.Save(c.sessions)

	loading := newLoadingMessage(now)
	c.appendMessage(sessionID, loading, now)
	c.store.Save(c.sessions)
	c.mu.Unlock()

	c.fireNotify()

	reply, sendErr := c.sender.Send(ctx, sessionID, payload, kind)

	result := &SendResult{SessionID: sessionID, UserMessageID: user.ID, Reply: reply}

	c.mu.Lock()
	now = c.now()
	if c.indexOf(sessionID) < 0 {
		// Deleted while waiting; nothing left to update.
		c.mu.Unlock()
		if config.DebugLog != nil {
			config.DebugLog.Printf("[Controller] session %s deleted before reply arrived", sessionID)
		}
		return result, sendErr
	}

	c.replace(sessionID, func(s *storage.Session) {
		s.Messages = removeMessage(s.Messages, loading.ID)
	})

	if sendErr != nil {
		c.appendMessage(sessionID, newAssistantMessage(SendFailedMessage, false, now), now)
		c.store.Save(c.sessions)
		c.mu.Unlock()

		if config.DebugLog != nil {
			config.DebugLog.Printf("[Controller] send failed for session %s: %v", sessionID, sendErr)
		}
		c.fireNotify()
		return result, sendErr
	}

	var sink func(AudioReply)
	if reply.IsAudio() {
		if reply.UserTranscription != "" {
			c.replace(sessionID, func(s *storage.Session) {
				for i := range s.Messages {
					m := &s.Messages[i]
					if m.ID == user.ID && m.Kind() == storage.MessageTypeAudio {
						m.Content = reply.UserTranscription
						m.AudioBase64 = ""
					}
				}
			})
		}
		content := reply.Transcription
		if content == "" {
			content = AudioReplyFallback
		}
		c.appendMessage(sessionID, newAssistantMessage(content, true, now), now)
		sink = c.sink
	} else {
		c.appendMessage(sessionID, newAssistantMessage(reply.Data, false, now), now)
	}
	c.store.Save(c.sessions)
	c.mu.Unlock()

	if sink != nil {
		sink(AudioReply{
			SessionID:         sessionID,
			Base64:            reply.Data,
			Transcription:     reply.Transcription,
			UserTranscription: reply.UserTranscription,
			FromAudio:         kind == webhook.KindAudio,
		})
	}

	c.fireNotify()
	return result, nil
}

func (c *Controller) indexOf(id string) int {
	if id == "" {
		return -1
	}
	for i, s := range c.sessions {
		if s.ID == id {
			return i
		}
	}
	return -1
}

// replace swaps in an edited copy of the session. Caller holds c.mu.
func (c *Controller) replace(id string, edit func(*storage.Session)) bool {
	idx := c.indexOf(id)
	if idx < 0 {
		return false
	}
	updated := c.sessions[idx].Clone()
	edit(&updated)

	next := make([]storage.Session, len(c.sessions))
	copy(next, c.sessions)
	next[idx] = updated
	c.sessions = next
	return true
}

func (c *Controller) appendMessage(id string, msg storage.Message, now time.Time) {
	c.replace(id, func(s *storage.Session) {
		s.Messages = append(s.Messages, msg)
		s.UpdatedAt = now
	})
}

func (c *Controller) fireNotify() {
	c.mu.Lock()
	fn := c.notify
	c.mu.Unlock()
	if fn != nil {
		fn()
	}
}
