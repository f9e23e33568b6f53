package audio

import (
	"bytes"
	"encoding/binary"
	"math"
	"time"
)

// Waveform reduces a payload to bars peak values in [0, 1]. 16-bit PCM WAV
// is measured exactly; compressed formats get a byte-energy approximation
// normalized to the loudest bar.
func Waveform(data []byte, format Format, bars int) []float64 {
	if bars <= 0 || len(data) == 0 {
		return nil
	}

	if format == FormatWAV {
		if w, ok := parseWAV(data); ok && w.bitsPerSample == 16 && len(w.samples) >= 2 {
			return pcm16Peaks(w.samples, bars)
		}
	}
	return byteEnergy(data, bars)
}

// Duration is known only for WAV payloads.
func Duration(data []byte, format Format) (time.Duration, bool) {
	if format != FormatWAV {
		return 0, false
	}
	w, ok := parseWAV(data)
	if !ok || w.byteRate == 0 {
		return 0, false
	}
	secs := float64(len(w.samples)) / float64(w.byteRate)
	return time.Duration(secs * float64(time.Second)), true
}

type wavInfo struct {
	byteRate      uint32
	bitsPerSample uint16
	samples       []byte
}

func parseWAV(data []byte) (wavInfo, bool) {
	var w wavInfo
	if len(data) < 12 || !bytes.Equal(data[0:4], []byte("RIFF")) || !bytes.Equal(data[8:12], []byte("WAVE")) {
		return w, false
	}

	pos := 12
	gotFmt := false
	for pos+8 <= len(data) {
		id := string(data[pos : pos+4])
		size := int(binary.LittleEndian.Uint32(data[pos+4 : pos+8]))
		body := pos + 8
		end := body + size
		if end > len(data) || end < body {
			end = len(data)
		}

		switch id {
		case "fmt ":
			if end-body >= 16 {
				w.byteRate = binary.LittleEndian.Uint32(data[body+8 : body+12])
				w.bitsPerSample = binary.LittleEndian.Uint16(data[body+14 : body+16])
				gotFmt = true
			}
		case "data":
			w.samples = data[body:end]
			return w, gotFmt
		}

		pos = end
		if size%2 == 1 {
			pos++
		}
	}
	return w, false
}

func pcm16Peaks(samples []byte, bars int) []float64 {
	n := len(samples) / 2
	out := make([]float64, bars)
	for b := 0; b < bars; b++ {
		start := b * n / bars
		end := (b + 1) * n / bars
		if end <= start {
			end = start + 1
		}
		if end > n {
			end = n
		}
		var peak float64
		for i := start; i < end; i++ {
			v := int16(binary.LittleEndian.Uint16(samples[i*2:]))
			a := math.Abs(float64(v)) / 32768
			if a > peak {
				peak = a
			}
		}
		out[b] = peak
	}
	return out
}

func byteEnergy(data []byte, bars int) []float64 {
	out := make([]float64, bars)
	var max float64
	for b := 0; b < bars; b++ {
		start := b * len(data) / bars
		end := (b + 1) * len(data) / bars
		if end <= start {
			end = start + 1
		}
		if end > len(data) {
			end = len(data)
		}
		var sum float64
		for _, c := range data[start:end] {
			sum += math.Abs(float64(c) - 128)
		}
		out[b] = sum / float64(end-start)
		if out[b] > max {
			max = out[b]
		}
	}
	if max > 0 {
		for i := range out {
			out[i] /= max
		}
	}
	return out
}
