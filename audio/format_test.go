package audio

import (
	"bytes"
	"testing"
	"time"
)

func TestSniff(t *testing.T) {
	tests := []struct {
		name string
		b64  string
		want Format
	}{
		{"id3", "SUQzBAAAAAAA", FormatMPEG},
		{"ebml", "GkXfo59ChoEB", FormatWebM},
		{"riff", "UklGRiQAAABXQVZF", FormatWAV},
		{"ogg", "T2dnUwACAAAA", FormatOGG},
		{"unknown", "//uQxAAAAAAA", FormatMPEG},
		{"empty", "", FormatMPEG},
		{"data url", "data:audio/whatever;base64,UklGRiQA", FormatWAV},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Sniff(tt.b64); got != tt.want {
				t.Errorf("Sniff(%q) = %q, want %q", tt.b64, got, tt.want)
			}
		})
	}
}

func TestFormatExtension(t *testing.T) {
	tests := map[Format]string{
		FormatMPEG: ".mp3",
		FormatWebM: ".webm",
		FormatWAV:  ".wav",
		FormatOGG:  ".ogg",
	}
	for f, want := range tests {
		if got := f.Extension(); got != want {
			t.Errorf("%s.Extension() = %q, want %q", f, got, want)
		}
	}
}

func TestDecode(t *testing.T) {
	want := []byte("RIFF....WAVE")
	enc := Encode(want)

	tests := []struct {
		name    string
		in      string
		wantErr bool
	}{
		{"padded", enc, false},
		{"data url", "data:audio/wav;base64," + enc, false},
		{"unpadded", "UklGRg", false},
		{"garbage", "%%%", true},
		{"empty", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Decode(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Decode(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if tt.name != "unpadded" && !tt.wantErr && !bytes.Equal(got, want) {
				t.Errorf("Decode(%q) = %q", tt.in, got)
			}
			if tt.name == "unpadded" && string(got) != "RIFF" {
				t.Errorf("Decode(unpadded) = %q, want RIFF", got)
			}
		})
	}
}

func TestDataURL(t *testing.T) {
	if got := DataURL("GkXfo1"); got != "data:audio/webm;base64,GkXfo1" {
		t.Errorf("DataURL() = %q", got)
	}
}

func TestWaveformWAV(t *testing.T) {
	samples := []int16{0, 0, 16384, -16384, 0, 0, -32768, 100}
	wav := EncodeWAV(samples, 8000)

	got := Waveform(wav, FormatWAV, 4)
	want := []float64{0, 0.5, 0, 1}
	if len(got) != len(want) {
		t.Fatalf("Waveform() returned %d bars, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("bar %d = %v, want %v", i, got[i], want[i])
		}
	}

	if Sniff(Encode(wav)) != FormatWAV {
		t.Error("generated WAV not sniffed as wav")
	}
}

func TestWaveformCompressed(t *testing.T) {
	data := []byte{128, 128, 128, 128, 0, 255, 0, 255}
	got := Waveform(data, FormatMPEG, 2)
	if len(got) != 2 {
		t.Fatalf("Waveform() returned %d bars", len(got))
	}
	if got[0] != 0 || got[1] != 1 {
		t.Errorf("Waveform() = %v, want [0 1]", got)
	}

	for _, v := range Waveform([]byte("some compressed bytes"), FormatWebM, 8) {
		if v < 0 || v > 1 {
			t.Errorf("bar value %v out of range", v)
		}
	}
}

func TestWaveformEdgeCases(t *testing.T) {
	if Waveform(nil, FormatWAV, 10) != nil {
		t.Error("expected nil for empty data")
	}
	if Waveform([]byte{1, 2, 3}, FormatMPEG, 0) != nil {
		t.Error("expected nil for zero bars")
	}
	// More bars than bytes still yields the requested count
	if got := Waveform([]byte{1, 2}, FormatMPEG, 5); len(got) != 5 {
		t.Errorf("got %d bars, want 5", len(got))
	}
	// Truncated WAV falls back to the byte approximation
	if got := Waveform([]byte("RIFF\x00\x00"), FormatWAV, 3); len(got) != 3 {
		t.Errorf("got %d bars for truncated wav, want 3", len(got))
	}
}

func TestDuration(t *testing.T) {
	wav := EncodeWAV(make([]int16, 8000), 8000)
	d, ok := Duration(wav, FormatWAV)
	if !ok || d != time.Second {
		t.Errorf("Duration() = (%v, %v), want (1s, true)", d, ok)
	}
	if _, ok := Duration([]byte("x"), FormatMPEG); ok {
		t.Error("Duration() known for mpeg")
	}
}

func TestTone(t *testing.T) {
	wav := Tone(440, 250*time.Millisecond, 8000)
	if Sniff(Encode(wav)) != FormatWAV {
		t.Fatal("tone is not a wav payload")
	}
	d, ok := Duration(wav, FormatWAV)
	if !ok || d != 250*time.Millisecond {
		t.Errorf("Duration() = (%v, %v), want 250ms", d, ok)
	}
	peaks := Waveform(wav, FormatWAV, 10)
	for i, p := range peaks {
		if p <= 0 || p > 0.61 {
			t.Errorf("bar %d = %v, want within (0, 0.6]", i, p)
		}
	}
}
