package audio

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"hookchat/config"
)

// Stream is an open capture handle. Stop asks the device to finish and
// flush; reads then drain to io.EOF. Close releases the handle.
type Stream interface {
	io.Reader
	Stop() error
	Close() error
}

// Source opens capture streams.
type Source interface {
	Open(ctx context.Context) (Stream, error)
}

// DeviceError means the capture device could not be opened.
type DeviceError struct {
	Err error
}

func (e *DeviceError) Error() string {
	return fmt.Sprintf("could not access microphone: %v", e.Err)
}

func (e *DeviceError) Unwrap() error {
	return e.Err
}

var (
	ErrAlreadyRecording = errors.New("recording already in progress")
	ErrEmptyRecording   = errors.New("recording produced no audio")
)

const readChunkSize = 16 * 1024

type capture struct {
	stream Stream
	done   chan struct{}

	mu      sync.Mutex
	chunks  [][]byte
	readErr error
}

func (c *capture) pump() {
	defer close(c.done)
	buf := make([]byte, readChunkSize)
	for {
		n, err := c.stream.Read(buf)
		if n > 0 {
			chunk := make([]byte, n)
			copy(chunk, buf[:n])
			c.mu.Lock()
			c.chunks = append(c.chunks, chunk)
			c.mu.Unlock()
		}
		if err != nil {
			if !errors.Is(err, io.EOF) {
				c.mu.Lock()
				c.readErr = err
				c.mu.Unlock()
			}
			return
		}
	}
}

func (c *capture) bytes() []byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	size := 0
	for _, ch := range c.chunks {
		size += len(ch)
	}
	out := make([]byte, 0, size)
	for _, ch := range c.chunks {
		out = append(out, ch...)
	}
	return out
}

// Recorder accumulates one capture at a time.
type Recorder struct {
	source Source

	mu      sync.Mutex
	current *capture
}

func NewRecorder(source Source) *Recorder {
	return &Recorder{source: source}
}

func (r *Recorder) Recording() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current != nil
}

func (r *Recorder) Start(ctx context.Context) error {
	r.mu.Lock()
	if r.current != nil {
		r.mu.Unlock()
		return ErrAlreadyRecording
	}
	r.mu.Unlock()

	if r.source == nil {
		return &DeviceError{Err: errors.New("no capture source configured")}
	}

	stream, err := r.source.Open(ctx)
	if err != nil {
		return &DeviceError{Err: err}
	}

	c := &capture{stream: stream, done: make(chan struct{})}

	r.mu.Lock()
	if r.current != nil {
		r.mu.Unlock()
		stream.Close()
		return ErrAlreadyRecording
	}
	r.current = c
	r.mu.Unlock()

	go c.pump()

	if config.DebugLog != nil {
		config.DebugLog.Printf("[Audio] capture started")
	}
	return nil
}

// Stop ends the capture and returns the base64 of every chunk in arrival
// order. ok is false when nothing was being recorded. The stream is closed
// before Stop returns on every path.
func (r *Recorder) Stop(ctx context.Context) (string, bool, error) {
	r.mu.Lock()
	c := r.current
	r.current = nil
	r.mu.Unlock()

	if c == nil {
		return "", false, nil
	}
	defer c.stream.Close()

	if err := c.stream.Stop(); err != nil && config.DebugLog != nil {
		config.DebugLog.Printf("[Audio] stop signal failed: %v", err)
	}

	select {
	case <-c.done:
	case <-ctx.Done():
		return "", true, fmt.Errorf("waiting for capture to flush: %w", ctx.Err())
	}

	data := c.bytes()

	c.mu.Lock()
	readErr := c.readErr
	c.mu.Unlock()

	if len(data) == 0 {
		if readErr != nil {
			return "", true, fmt.Errorf("%w: %v", ErrEmptyRecording, readErr)
		}
		return "", true, ErrEmptyRecording
	}

	if config.DebugLog != nil {
		config.DebugLog.Printf("[Audio] capture stopped: %d bytes", len(data))
	}

	return Encode(data), true, nil
}

// killer is implemented by streams that can be terminated without waiting
// for the capture to finalize.
type killer interface {
	Kill() error
}

// Reset drops any capture in progress without producing a payload. The
// capture is terminated rather than asked to flush.
func (r *Recorder) Reset() {
	r.mu.Lock()
	c := r.current
	r.current = nil
	r.mu.Unlock()

	if c == nil {
		return
	}
	var err error
	if k, ok := c.stream.(killer); ok {
		err = k.Kill()
	} else {
		err = c.stream.Stop()
	}
	if err != nil && config.DebugLog != nil {
		config.DebugLog.Printf("[Audio] reset: %v", err)
	}
	c.stream.Close()
}
