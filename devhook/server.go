// Package devhook serves a local stand-in for the workflow webhook so the
// client can be exercised without an automation server.
package devhook

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"hookchat/audio"
	"hookchat/config"
	"hookchat/webhook"
)

// AudioCommand is the prefix that makes a typed message get a voice reply.
const AudioCommand = "/audio"

type Options struct {
	// ForceStatus makes every webhook call fail with this status when set.
	ForceStatus int
	// Delay is applied before answering.
	Delay time.Duration
	// ToneFrequency of the synthesized voice reply, in Hz.
	ToneFrequency float64
	// Quiet disables the request logger.
	Quiet bool
}

type Server struct {
	opts Options
	tone string

	mu     sync.Mutex
	counts map[string]int
}

func New(opts Options) *Server {
	if opts.ToneFrequency <= 0 {
		opts.ToneFrequency = 440
	}
	return &Server{
		opts:   opts,
		tone:   audio.Encode(audio.Tone(opts.ToneFrequency, 600*time.Millisecond, 8000)),
		counts: make(map[string]int),
	}
}

// Router wires the webhook routes.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	if !s.opts.Quiet {
		r.Use(middleware.Logger)
	}
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Post("/webhook", s.handleWebhook)
	r.Post("/webhook/{hookID}", s.handleWebhook)

	return r
}

// Count returns how many messages a session has sent.
func (s *Server) Count(sessionID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.counts[sessionID]
}

func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	if s.opts.Delay > 0 {
		select {
		case <-time.After(s.opts.Delay):
		case <-r.Context().Done():
			return
		}
	}

	if s.opts.ForceStatus != 0 {
		respondError(w, s.opts.ForceStatus, "forced failure")
		return
	}

	var req webhook.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.SessionID == "" {
		respondError(w, http.StatusBadRequest, "session_id is required")
		return
	}
	if req.Data == "" {
		respondError(w, http.StatusBadRequest, "data is required")
		return
	}

	s.mu.Lock()
	s.counts[req.SessionID]++
	n := s.counts[req.SessionID]
	s.mu.Unlock()

	if config.DebugLog != nil {
		config.DebugLog.Printf("[devhook] %s session=%s hook=%q n=%d", req.Type, req.SessionID, chi.URLParam(r, "hookID"), n)
	}

	switch req.Type {
	case webhook.KindMessage:
		if text, ok := strings.CutPrefix(req.Data, AudioCommand); ok {
			text = strings.TrimSpace(text)
			respondJSON(w, http.StatusOK, webhook.Envelope{Response: webhook.ResponseBody{
				Type:          string(webhook.ReplyAudio),
				Data:          s.tone,
				Transcription: fmt.Sprintf("Speaking: %s", text),
			}})
			return
		}
		respondJSON(w, http.StatusOK, webhook.Envelope{Response: webhook.ResponseBody{
			Type: string(webhook.ReplyMessage),
			Data: fmt.Sprintf("**Echo #%d:** %s", n, req.Data),
		}})

	case webhook.KindAudio:
		data, err := audio.Decode(req.Data)
		if err != nil {
			respondError(w, http.StatusBadRequest, "audio data is not base64")
			return
		}
		format := audio.Sniff(req.Data)
		respondJSON(w, http.StatusOK, webhook.Envelope{Response: webhook.ResponseBody{
			Type:              string(webhook.ReplyAudio),
			Data:              s.tone,
			Transcription:     fmt.Sprintf("I received %d bytes of %s audio.", len(data), format),
			UserTranscription: fmt.Sprintf("(voice message #%d, %d bytes)", n, len(data)),
		}})

	default:
		respondError(w, http.StatusBadRequest, fmt.Sprintf("unsupported type %q", req.Type))
	}
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
