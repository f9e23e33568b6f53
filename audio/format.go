// Package audio captures microphone input through an external capture
// program, plays reply payloads through an external player and computes
// waveform envelopes for display.
package audio

import (
	"encoding/base64"
	"fmt"
	"strings"
)

// Format is the MIME type of an audio payload.
type Format string

const (
	FormatMPEG Format = "audio/mpeg"
	FormatWebM Format = "audio/webm"
	FormatWAV  Format = "audio/wav"
	FormatOGG  Format = "audio/ogg"
)

// Base64 prefixes of the container magic numbers.
var signatures = []struct {
	prefix string
	format Format
}{
	{"SUQz", FormatMPEG},  // ID3
	{"GkXfo", FormatWebM}, // EBML
	{"UklGR", FormatWAV},  // RIFF
	{"T2dnU", FormatOGG},  // OggS
}

// Sniff guesses the container format from the first characters of a base64
// payload. Unknown payloads are treated as mpeg.
func Sniff(b64 string) Format {
	b64 = stripDataURL(b64)
	for _, sig := range signatures {
		if strings.HasPrefix(b64, sig.prefix) {
			return sig.format
		}
	}
	return FormatMPEG
}

func (f Format) Extension() string {
	switch f {
	case FormatWebM:
		return ".webm"
	case FormatWAV:
		return ".wav"
	case FormatOGG:
		return ".ogg"
	default:
		return ".mp3"
	}
}

// DataURL renders a payload the way a browser audio element expects it.
func DataURL(b64 string) string {
	return fmt.Sprintf("data:%s;base64,%s", Sniff(b64), stripDataURL(b64))
}

// Decode turns a base64 payload (optionally a data URL) into bytes. Both
// padded and unpadded encodings are accepted.
func Decode(b64 string) ([]byte, error) {
	b64 = strings.TrimSpace(stripDataURL(b64))
	if b64 == "" {
		return nil, fmt.Errorf("empty audio payload")
	}
	data, err := base64.StdEncoding.DecodeString(b64)
	if err == nil {
		return data, nil
	}
	if data, rawErr := base64.RawStdEncoding.DecodeString(strings.TrimRight(b64, "=")); rawErr == nil {
		return data, nil
	}
	return nil, fmt.Errorf("failed to decode audio payload: %w", err)
}

func Encode(data []byte) string {
	return base64.StdEncoding.EncodeToString(data)
}

func stripDataURL(s string) string {
	if !strings.HasPrefix(s, "data:") {
		return s
	}
	if _, rest, ok := strings.Cut(s, ","); ok {
		return rest
	}
	return s
}
