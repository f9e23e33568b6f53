package testutil

import (
	"context"
	"errors"
	"sync"

	"hookchat/audio"
	"hookchat/webhook"
)

// SentCall records one webhook call.
type SentCall struct {
	SessionID string
	Payload   string
	Kind      webhook.Kind
}

// MockSender implements model.Sender for testing
type MockSender struct {
	SendFunc func(ctx context.Context, sessionID, payload string, kind webhook.Kind) (*webhook.Reply, error)

	mu    sync.Mutex
	calls []SentCall
}

// NewMockSender creates a sender that echoes text back
func NewMockSender() *MockSender {
	return &MockSender{
		SendFunc: func(ctx context.Context, sessionID, payload string, kind webhook.Kind) (*webhook.Reply, error) {
			return TextReply("echo: " + payload), nil
		},
	}
}

// ReplyWith returns a sender that always answers with reply
func ReplyWith(reply *webhook.Reply) *MockSender {
	m := NewMockSender()
	m.SendFunc = func(ctx context.Context, sessionID, payload string, kind webhook.Kind) (*webhook.Reply, error) {
		r := *reply
		return &r, nil
	}
	return m
}

// FailWith returns a sender that always fails with err
func FailWith(err error) *MockSender {
	m := NewMockSender()
	m.SendFunc = func(ctx context.Context, sessionID, payload string, kind webhook.Kind) (*webhook.Reply, error) {
		return nil, err
	}
	return m
}

func (m *MockSender) Send(ctx context.Context, sessionID, payload string, kind webhook.Kind) (*webhook.Reply, error) {
	m.mu.Lock()
	m.calls = append(m.calls, SentCall{SessionID: sessionID, Payload: payload, Kind: kind})
	m.mu.Unlock()
	return m.SendFunc(ctx, sessionID, payload, kind)
}

func (m *MockSender) Calls() []SentCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]SentCall, len(m.calls))
	copy(out, m.calls)
	return out
}

// Gate blocks sends until released, so tests can observe in-flight state.
type Gate struct {
	Entered chan struct{}
	release chan struct{}
	once    sync.Once
}

func NewGate() *Gate {
	return &Gate{Entered: make(chan struct{}, 16), release: make(chan struct{})}
}

// Wrap returns a SendFunc that waits on the gate before calling next.
func (g *Gate) Wrap(next func(ctx context.Context, sessionID, payload string, kind webhook.Kind) (*webhook.Reply, error)) func(ctx context.Context, sessionID, payload string, kind webhook.Kind) (*webhook.Reply, error) {
	return func(ctx context.Context, sessionID, payload string, kind webhook.Kind) (*webhook.Reply, error) {
		g.Entered <- struct{}{}
		select {
		case <-g.release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		return next(ctx, sessionID, payload, kind)
	}
}

func (g *Gate) Release() {
	g.once.Do(func() { close(g.release) })
}

// MockCapturer implements model.Capturer for testing
type MockCapturer struct {
	StartErr error
	Payload  string
	StopErr  error

	mu        sync.Mutex
	recording bool
	resets    int
}

func (m *MockCapturer) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.StartErr != nil {
		return &audio.DeviceError{Err: m.StartErr}
	}
	if m.recording {
		return audio.ErrAlreadyRecording
	}
	m.recording = true
	return nil
}

func (m *MockCapturer) Stop(ctx context.Context) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.recording {
		return "", false, nil
	}
	m.recording = false
	if m.StopErr != nil {
		return "", true, m.StopErr
	}
	if m.Payload == "" {
		return "", true, audio.ErrEmptyRecording
	}
	return m.Payload, true, nil
}

func (m *MockCapturer) Reset() {
	m.mu.Lock()
	m.recording = false
	m.resets++
	m.mu.Unlock()
}

func (m *MockCapturer) Resets() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.resets
}

// Play records one MockPlayer playback.
type Play struct {
	Data   []byte
	Format audio.Format
	events audio.Events

	mu      sync.Mutex
	stopped bool
	done    bool
}

// Stop reports a pause, like a real player being halted.
func (p *Play) Stop() {
	p.mu.Lock()
	if p.stopped || p.done {
		p.mu.Unlock()
		return
	}
	p.stopped = true
	p.mu.Unlock()
	if p.events.OnPause != nil {
		p.events.OnPause()
	}
}

// Finish simulates the end of the payload.
func (p *Play) Finish() {
	p.mu.Lock()
	if p.stopped || p.done {
		p.mu.Unlock()
		return
	}
	p.done = true
	p.mu.Unlock()
	if p.events.OnFinish != nil {
		p.events.OnFinish()
	}
}

func (p *Play) Stopped() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stopped
}

// MockPlayer implements audio.Player for testing
type MockPlayer struct {
	Err error

	mu    sync.Mutex
	plays []*Play
}

func (m *MockPlayer) Play(ctx context.Context, data []byte, format audio.Format, events audio.Events) (audio.Playback, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	p := &Play{Data: data, Format: format, events: events}
	m.mu.Lock()
	m.plays = append(m.plays, p)
	m.mu.Unlock()
	if events.OnStart != nil {
		events.OnStart()
	}
	return p, nil
}

func (m *MockPlayer) Plays() []*Play {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*Play, len(m.plays))
	copy(out, m.plays)
	return out
}

// Last returns the most recent playback or nil.
func (m *MockPlayer) Last() *Play {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.plays) == 0 {
		return nil
	}
	return m.plays[len(m.plays)-1]
}

var ErrMock = errors.New("mock failure")
