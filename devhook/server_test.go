package devhook

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"hookchat/audio"
	"hookchat/webhook"
)

func post(t *testing.T, h http.Handler, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	h.ServeHTTP(resp, req)
	return resp
}

func decode(t *testing.T, resp *httptest.ResponseRecorder) webhook.ResponseBody {
	t.Helper()
	var env webhook.Envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return env.Response
}

func TestWebhookText(t *testing.T) {
	s := New(Options{Quiet: true})
	h := s.Router()

	resp := post(t, h, "/webhook/abc", `{"session_id":"s1","type":"message","data":"hola"}`)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	body := decode(t, resp)
	if body.Type != "message" || !strings.Contains(body.Data, "hola") {
		t.Errorf("response = %+v", body)
	}
	if s.Count("s1") != 1 {
		t.Errorf("Count() = %d, want 1", s.Count("s1"))
	}
}

func TestWebhookAudio(t *testing.T) {
	h := New(Options{Quiet: true}).Router()
	payload := audio.Encode([]byte{0x1a, 0x45, 0xdf, 0xa3, 1, 2, 3})

	resp := post(t, h, "/webhook", `{"session_id":"s1","type":"audio","data":"`+payload+`"}`)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	body := decode(t, resp)
	if body.Type != "audio" || body.Transcription == "" || body.UserTranscription == "" {
		t.Errorf("response = %+v", body)
	}
	if audio.Sniff(body.Data) != audio.FormatWAV {
		t.Error("reply audio is not wav")
	}
	if !strings.Contains(body.Transcription, "audio/webm") {
		t.Errorf("transcription = %q", body.Transcription)
	}
}

func TestWebhookAudioCommand(t *testing.T) {
	h := New(Options{Quiet: true}).Router()
	resp := post(t, h, "/webhook", `{"session_id":"s1","type":"message","data":"/audio good morning"}`)
	body := decode(t, resp)
	if body.Type != "audio" || body.Transcription != "Speaking: good morning" {
		t.Errorf("response = %+v", body)
	}
}

func TestWebhookBadRequests(t *testing.T) {
	h := New(Options{Quiet: true}).Router()

	tests := []struct {
		name string
		body string
	}{
		{"invalid json", "{"},
		{"missing session", `{"type":"message","data":"x"}`},
		{"missing data", `{"session_id":"s1","type":"message"}`},
		{"unknown type", `{"session_id":"s1","type":"video","data":"x"}`},
		{"bad audio", `{"session_id":"s1","type":"audio","data":"%%%"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if resp := post(t, h, "/webhook", tt.body); resp.Code != http.StatusBadRequest {
				t.Errorf("expected 400, got %d", resp.Code)
			}
		})
	}
}

func TestWebhookForcedStatus(t *testing.T) {
	h := New(Options{Quiet: true, ForceStatus: http.StatusServiceUnavailable}).Router()
	resp := post(t, h, "/webhook", `{"session_id":"s1","type":"message","data":"x"}`)
	if resp.Code != http.StatusServiceUnavailable {
		t.Errorf("expected 503, got %d", resp.Code)
	}
}

func TestHealthz(t *testing.T) {
	h := New(Options{Quiet: true}).Router()
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	resp := httptest.NewRecorder()
	h.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", resp.Code)
	}
}

// The real client round-trips against the mock server.
func TestClientAgainstServer(t *testing.T) {
	srv := httptest.NewServer(New(Options{Quiet: true}).Router())
	defer srv.Close()

	client := webhook.NewClient(srv.URL+"/webhook/test", 5*time.Second)

	reply, err := client.Send(context.Background(), "s1", "hello", webhook.KindMessage)
	if err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	if reply.IsAudio() || !strings.Contains(reply.Data, "hello") {
		t.Errorf("text reply = %+v", reply)
	}

	rec := audio.Encode(bytes.Repeat([]byte{1}, 32))
	reply, err = client.Send(context.Background(), "s1", "data:audio/webm;base64,"+rec, webhook.KindAudio)
	if err != nil {
		t.Fatalf("Send(audio) error = %v", err)
	}
	if !reply.IsAudio() || !strings.Contains(reply.UserTranscription, "32 bytes") {
		t.Errorf("audio reply = %+v", reply)
	}

	failing := httptest.NewServer(New(Options{Quiet: true, ForceStatus: 500}).Router())
	defer failing.Close()
	if _, err := webhook.NewClient(failing.URL+"/webhook", time.Second).Send(context.Background(), "s1", "x", webhook.KindMessage); !webhook.IsHTTPError(err) {
		t.Errorf("error = %v, want HTTPError", err)
	}
}
