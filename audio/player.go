package audio

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"sync"

	"hookchat/config"
)

// Events are playback callbacks. Any of them may be nil. They are invoked
// from a background goroutine.
type Events struct {
	OnStart  func()
	OnPause  func()
	OnFinish func()
}

func (e Events) start() {
	if e.OnStart != nil {
		e.OnStart()
	}
}

func (e Events) pause() {
	if e.OnPause != nil {
		e.OnPause()
	}
}

func (e Events) finish() {
	if e.OnFinish != nil {
		e.OnFinish()
	}
}

// Playback is a running playback.
type Playback interface {
	// Stop halts playback. OnPause fires instead of OnFinish.
	Stop()
}

type Player interface {
	Play(ctx context.Context, data []byte, format Format, events Events) (Playback, error)
}

// CommandPlayer writes the payload to a temp file and runs an external
// player on it.
type CommandPlayer struct {
	Command string
	TempDir string
}

func NewCommandPlayer(command, tempDir string) *CommandPlayer {
	return &CommandPlayer{Command: command, TempDir: tempDir}
}

func (p *CommandPlayer) Play(ctx context.Context, data []byte, format Format, events Events) (Playback, error) {
	args, err := splitCommand(p.Command)
	if err != nil {
		return nil, fmt.Errorf("play command: %w", err)
	}

	f, err := os.CreateTemp(p.TempDir, "hookchat-reply-*"+format.Extension())
	if err != nil {
		return nil, fmt.Errorf("failed to create audio temp file: %w", err)
	}
	path := f.Name()
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(path)
		return nil, fmt.Errorf("failed to write audio temp file: %w", err)
	}
	f.Close()

	substituted := false
	for i, a := range args {
		if strings.Contains(a, FilePlaceholder) {
			args[i] = strings.ReplaceAll(a, FilePlaceholder, path)
			substituted = true
		}
	}
	if !substituted {
		args = append(args, path)
	}

	cmd := exec.CommandContext(ctx, args[0], args[1:]...)
	if err := cmd.Start(); err != nil {
		os.Remove(path)
		return nil, fmt.Errorf("failed to start %q: %w", args[0], err)
	}

	pb := &commandPlayback{cmd: cmd}
	events.start()

	go func() {
		err := cmd.Wait()
		os.Remove(path)

		if config.DebugLog != nil && err != nil && !pb.wasStopped() {
			config.DebugLog.Printf("[Audio] player exited: %v", err)
		}

		if pb.wasStopped() {
			events.pause()
			return
		}
		events.finish()
	}()

	return pb, nil
}

type commandPlayback struct {
	cmd *exec.Cmd

	mu      sync.Mutex
	stopped bool
}

func (p *commandPlayback) Stop() {
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return
	}
	p.stopped = true
	p.mu.Unlock()

	if p.cmd.Process != nil {
		p.cmd.Process.Kill()
	}
}

func (p *commandPlayback) wasStopped() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stopped
}
