package webhook

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func newTestServer(t *testing.T, handler func(w http.ResponseWriter, req Request)) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("Content-Type = %q, want application/json", ct)
		}
		var req Request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		handler(w, req)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestSendText(t *testing.T) {
	var got Request
	srv := newTestServer(t, func(w http.ResponseWriter, req Request) {
		got = req
		w.Write([]byte(`{"response":{"type":"message","data":"¡Hola!"}}`))
	})

	reply, err := NewClient(srv.URL, 5*time.Second).Send(context.Background(), "s1", "hola", KindMessage)
	if err != nil {
		t.Fatalf("Send() error = %v", err)
	}

	if got.SessionID != "s1" || got.Type != KindMessage || got.Data != "hola" {
		t.Errorf("request = %+v", got)
	}
	if reply.Type != ReplyMessage || reply.Data != "¡Hola!" {
		t.Errorf("reply = %+v", reply)
	}
	if reply.IsAudio() {
		t.Error("IsAudio() = true for text reply")
	}
}

func TestSendAudioStripsDataURL(t *testing.T) {
	var got Request
	srv := newTestServer(t, func(w http.ResponseWriter, req Request) {
		got = req
		w.Write([]byte(`{"response":{"type":"audio","data":"SUQzBAAA","transcription":"hi there","userTranscription":"hello"}}`))
	})

	reply, err := NewClient(srv.URL, 5*time.Second).Send(context.Background(), "s1", "data:audio/webm;base64,GkXfo123", KindAudio)
	if err != nil {
		t.Fatalf("Send() error = %v", err)
	}

	if got.Data != "GkXfo123" {
		t.Errorf("request data = %q, want prefix stripped", got.Data)
	}
	if got.Type != KindAudio {
		t.Errorf("request type = %q, want audio", got.Type)
	}
	if !reply.IsAudio() || reply.Transcription != "hi there" || reply.UserTranscription != "hello" {
		t.Errorf("reply = %+v", reply)
	}
}

func TestSendTextKeepsDataPrefix(t *testing.T) {
	var got Request
	srv := newTestServer(t, func(w http.ResponseWriter, req Request) {
		got = req
		w.Write([]byte(`{"response":{"type":"message","data":"ok"}}`))
	})

	msg := "data:not really a url, just text"
	if _, err := NewClient(srv.URL, 5*time.Second).Send(context.Background(), "s1", msg, KindMessage); err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	if got.Data != msg {
		t.Errorf("text payload modified: %q", got.Data)
	}
}

func TestSendErrors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		check   func(error) bool
		checkID string
	}{
		{"server error", http.StatusInternalServerError, "boom", IsHTTPError, "HTTPError"},
		{"not found", http.StatusNotFound, "", IsHTTPError, "HTTPError"},
		{"bad json", http.StatusOK, "not json", func(err error) bool { return !IsHTTPError(err) && !IsConfigError(err) }, "decode error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newTestServer(t, func(w http.ResponseWriter, req Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			})

			reply, err := NewClient(srv.URL, 5*time.Second).Send(context.Background(), "s1", "x", KindMessage)
			if err == nil {
				t.Fatalf("Send() = %+v, want error", reply)
			}
			if !tt.check(err) {
				t.Errorf("Send() error = %v, want %s", err, tt.checkID)
			}
		})
	}
}

func TestSendHTTPErrorStatus(t *testing.T) {
	srv := newTestServer(t, func(w http.ResponseWriter, req Request) {
		http.Error(w, "upstream down", http.StatusBadGateway)
	})

	_, err := NewClient(srv.URL, 5*time.Second).Send(context.Background(), "s1", "x", KindMessage)
	var he *HTTPError
	if !errors.As(err, &he) {
		t.Fatalf("Send() error = %v, want *HTTPError", err)
	}
	if he.StatusCode != http.StatusBadGateway {
		t.Errorf("StatusCode = %d, want 502", he.StatusCode)
	}
	if he.Body != "upstream down" {
		t.Errorf("Body = %q", he.Body)
	}
}

func TestSendNotConfigured(t *testing.T) {
	_, err := NewClient("  ", time.Second).Send(context.Background(), "s1", "x", KindMessage)
	if !errors.Is(err, ErrNotConfigured) {
		t.Errorf("Send() error = %v, want ErrNotConfigured", err)
	}
	if !IsConfigError(err) {
		t.Error("ErrNotConfigured should be a ConfigError")
	}
}

func TestSendTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := newTestServer(t, func(w http.ResponseWriter, req Request) {
		<-release
	})
	defer close(release)

	_, err := NewClient(srv.URL, 50*time.Millisecond).Send(context.Background(), "s1", "x", KindMessage)
	if err == nil {
		t.Fatal("Send() succeeded, want timeout error")
	}
}

func TestNormalizeType(t *testing.T) {
	tests := []struct {
		raw  string
		want ReplyType
	}{
		{"audio", ReplyAudio},
		{"AUDIO", ReplyAudio},
		{"  Audio \n", ReplyAudio},
		{`"audio"`, ReplyAudio},
		{`'audio'`, ReplyAudio},
		{"message", ReplyMessage},
		{"", ReplyMessage},
		{"video", ReplyMessage},
		{"audios", ReplyMessage},
	}

	for _, tt := range tests {
		if got := NormalizeType(tt.raw); got != tt.want {
			t.Errorf("NormalizeType(%q) = %q, want %q", tt.raw, got, tt.want)
		}
	}
}

func TestStripDataURL(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"data:audio/webm;base64,GkXf", "GkXf"},
		{"data:audio/webm;codecs=opus;base64,AAAA", "AAAA"},
		{"GkXf", "GkXf"},
		{"data:nocomma", "data:nocomma"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := StripDataURL(tt.in); got != tt.want {
			t.Errorf("StripDataURL(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
