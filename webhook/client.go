// Package webhook posts chat messages to an external workflow webhook and
// decodes its reply.
//
// The endpoint is treated as opaque: it receives
//
//	{"session_id": "...", "type": "message"|"audio", "data": "..."}
//
// and answers with
//
//	{"response": {"type": "message"|"audio", "data": "...",
//	              "transcription": "...", "userTranscription": "..."}}
package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"hookchat/config"
)

// Kind is the request type sent to the webhook.
type Kind string

const (
	KindMessage Kind = "message"
	KindAudio   Kind = "audio"
)

// ReplyType is the normalized response type.
type ReplyType string

const (
	ReplyMessage ReplyType = "message"
	ReplyAudio   ReplyType = "audio"
)

type Request struct {
	SessionID string `json:"session_id"`
	Type      Kind   `json:"type"`
	Data      string `json:"data"`
}

type Envelope struct {
	Response ResponseBody `json:"response"`
}

type ResponseBody struct {
	Type              string `json:"type"`
	Data              string `json:"data"`
	Transcription     string `json:"transcription,omitempty"`
	UserTranscription string `json:"userTranscription,omitempty"`
}

// Reply is a decoded webhook response.
type Reply struct {
	Type              ReplyType
	RawType           string
	Data              string
	Transcription     string
	UserTranscription string
}

func (r *Reply) IsAudio() bool {
	return r.Type == ReplyAudio
}

const maxErrorBody = 512

type Client struct {
	httpClient *http.Client
	url        string
}

func NewClient(url string, timeout time.Duration) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		url:        strings.TrimSpace(url),
	}
}

// NewClientWithHTTP lets callers supply their own transport.
func NewClientWithHTTP(url string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{httpClient: httpClient, url: strings.TrimSpace(url)}
}

func (c *Client) URL() string {
	return c.url
}

// Send posts one message and decodes the reply. Audio payloads have any
// data-URL prefix removed before transmission.
func (c *Client) Send(ctx context.Context, sessionID, payload string, kind Kind) (*Reply, error) {
	if c.url == "" {
		return nil, ErrNotConfigured
	}

	if kind == KindAudio {
		payload = StripDataURL(payload)
	}

	body, err := json.Marshal(Request{SessionID: sessionID, Type: kind, Data: payload})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal webhook request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, &ConfigError{Msg: fmt.Sprintf("invalid webhook URL %q", c.url), Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	if config.DebugLog != nil {
		config.DebugLog.Printf("[Webhook] POST session=%s type=%s bytes=%d", sessionID, kind, len(payload))
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("webhook request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &HTTPError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(snippet))}
	}

	var env Envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, fmt.Errorf("failed to decode webhook response: %w", err)
	}

	reply := &Reply{
		Type:              NormalizeType(env.Response.Type),
		RawType:           env.Response.Type,
		Data:              env.Response.Data,
		Transcription:     env.Response.Transcription,
		UserTranscription: env.Response.UserTranscription,
	}

	if config.DebugLog != nil {
		config.DebugLog.Printf("[Webhook] reply session=%s type=%s (raw %q) in %v", sessionID, reply.Type, reply.RawType, time.Since(start))
	}

	return reply, nil
}

// NormalizeType maps the upstream type field to a ReplyType. Comparison is
// case-insensitive and ignores surrounding whitespace and quote characters;
// anything other than "audio" is a text message.
func NormalizeType(raw string) ReplyType {
	t := strings.TrimSpace(raw)
	t = strings.Trim(t, `"'`)
	t = strings.ToLower(strings.TrimSpace(t))
	if t == string(ReplyAudio) {
		return ReplyAudio
	}
	return ReplyMessage
}

// StripDataURL removes a "data:<mime>;base64," prefix if present.
func StripDataURL(payload string) string {
	if !strings.HasPrefix(payload, "data:") {
		return payload
	}
	if _, rest, ok := strings.Cut(payload, ","); ok {
		return rest
	}
	return payload
}
