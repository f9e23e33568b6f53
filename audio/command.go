package audio

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"runtime"
	"strings"
	"sync"
	"time"
)

// FilePlaceholder is replaced by the payload path in play commands.
const FilePlaceholder = "{file}"

const waitGrace = 3 * time.Second

// splitCommand breaks a command line on whitespace. Quoting is not
// supported.
func splitCommand(line string) ([]string, error) {
	args := strings.Fields(line)
	if len(args) == 0 {
		return nil, errors.New("empty command")
	}
	return args, nil
}

// CommandSource captures audio by running a program that writes an encoded
// stream to stdout, e.g. ffmpeg or arecord.
type CommandSource struct {
	Command string
}

func NewCommandSource(command string) *CommandSource {
	return &CommandSource{Command: command}
}

func (s *CommandSource) Open(ctx context.Context) (Stream, error) {
	args, err := splitCommand(s.Command)
	if err != nil {
		return nil, fmt.Errorf("record command: %w", err)
	}
	if _, err := exec.LookPath(args[0]); err != nil {
		return nil, fmt.Errorf("record program %q not found: %w", args[0], err)
	}

	cmd := exec.Command(args[0], args[1:]...)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, err
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start %q: %w", args[0], err)
	}

	return &commandStream{cmd: cmd, stdout: stdout}, nil
}

type commandStream struct {
	cmd    *exec.Cmd
	stdout io.ReadCloser

	closeOnce sync.Once
}

func (s *commandStream) Read(p []byte) (int, error) {
	return s.stdout.Read(p)
}

// Stop interrupts the capture program so it finalizes its container.
func (s *commandStream) Stop() error {
	if s.cmd.Process == nil {
		return nil
	}
	if runtime.GOOS == "windows" {
		return s.cmd.Process.Kill()
	}
	return s.cmd.Process.Signal(os.Interrupt)
}

// Kill terminates the capture program immediately.
func (s *commandStream) Kill() error {
	if s.cmd.Process == nil {
		return nil
	}
	return s.cmd.Process.Kill()
}

func (s *commandStream) Close() error {
	var err error
	s.closeOnce.Do(func() {
		err = waitOrKill(s.cmd)
	})
	return err
}

func waitOrKill(cmd *exec.Cmd) error {
	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()

	select {
	case err := <-done:
		return ignoreSignalExit(err)
	case <-time.After(waitGrace):
		cmd.Process.Kill()
		return ignoreSignalExit(<-done)
	}
}

// Interrupted capture exits non-zero; that is the normal way to end it.
func ignoreSignalExit(err error) error {
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return nil
	}
	return err
}
