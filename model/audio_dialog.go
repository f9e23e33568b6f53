package model

import (
	"context"
	"errors"
	"sync"
	"time"

	"hookchat/audio"
	"hookchat/config"
)

// DialogState is the audio dialog lifecycle.
type DialogState int

const (
	DialogIdle DialogState = iota
	DialogRecording
	DialogProcessing
	DialogPlaying
	DialogError
)

func (s DialogState) String() string {
	switch s {
	case DialogIdle:
		return "idle"
	case DialogRecording:
		return "recording"
	case DialogProcessing:
		return "processing"
	case DialogPlaying:
		return "playing"
	case DialogError:
		return "error"
	default:
		return "unknown"
	}
}

const DefaultResponseTimeout = 30 * time.Second

var (
	ErrDialogBusy    = errors.New("audio dialog is busy")
	ErrNothingToSend = errors.New("no recording to resend")
	ErrNothingToPlay = errors.New("no audio reply to play")
)

// Capturer records one payload at a time. *audio.Recorder satisfies it.
type Capturer interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context) (string, bool, error)
	Reset()
}

// AfterFunc arms a timer and returns its stop function.
type AfterFunc func(d time.Duration, f func()) (stop func() bool)

func realAfterFunc(d time.Duration, f func()) func() bool {
	return time.AfterFunc(d, f).Stop
}

// AudioDialog drives record, send, wait and playback for voice messages.
type AudioDialog struct {
	capturer Capturer
	player   audio.Player
	send     func(ctx context.Context, b64 string) error
	timeout  time.Duration
	after    AfterFunc

	mu          sync.Mutex
	open        bool
	state       DialogState
	gen         uint64
	playSeq     uint64
	lastPayload string
	lastErr     error
	pending     *AudioReply
	lastReply   *AudioReply
	autoPlayed  string
	playback    audio.Playback
	playingAI   bool
	stopTimer   func() bool
	cancelSend  context.CancelFunc
	onChange    func()
	onEnded     func()
}

// NewAudioDialog wires the dialog. send is invoked off the caller's
// goroutine with the recorded payload; its reply reaches the dialog through
// Deliver.
func NewAudioDialog(capturer Capturer, player audio.Player, send func(ctx context.Context, b64 string) error, timeout time.Duration) *AudioDialog {
	if timeout <= 0 {
		timeout = DefaultResponseTimeout
	}
	return &AudioDialog{
		capturer: capturer,
		player:   player,
		send:     send,
		timeout:  timeout,
		after:    realAfterFunc,
	}
}

// SetAfterFunc replaces the timer factory.
func (d *AudioDialog) SetAfterFunc(f AfterFunc) {
	d.mu.Lock()
	d.after = f
	d.mu.Unlock()
}

// SetOnChange registers a callback fired after each state change.
func (d *AudioDialog) SetOnChange(fn func()) {
	d.mu.Lock()
	d.onChange = fn
	d.mu.Unlock()
}

// SetOnPlaybackEnded registers the hook fired when a reply finishes playing.
func (d *AudioDialog) SetOnPlaybackEnded(fn func()) {
	d.mu.Lock()
	d.onEnded = fn
	d.mu.Unlock()
}

func (d *AudioDialog) Open() {
	d.mu.Lock()
	if !d.open {
		d.open = true
		d.state = DialogIdle
		d.lastErr = nil
	}
	d.mu.Unlock()
	d.changed()
}

func (d *AudioDialog) IsOpen() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.open
}

func (d *AudioDialog) State() DialogState {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state
}

func (d *AudioDialog) Err() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.lastErr
}

func (d *AudioDialog) IsPlayingAI() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.playingAI
}

func (d *AudioDialog) CanRetry() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state == DialogError && d.lastPayload != ""
}

// Pending is the reply currently being played, if any.
func (d *AudioDialog) Pending() (AudioReply, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.pending == nil {
		return AudioReply{}, false
	}
	return *d.pending, true
}

// LastReply is the most recent reply, kept after playback for Replay.
func (d *AudioDialog) LastReply() (AudioReply, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.lastReply == nil {
		return AudioReply{}, false
	}
	return *d.lastReply, true
}

// StartRecording opens the capture device. A *audio.DeviceError leaves the
// dialog idle.
func (d *AudioDialog) StartRecording(ctx context.Context) error {
	d.mu.Lock()
	if !d.open {
		d.open = true
		d.state = DialogIdle
	}
	if d.state != DialogIdle && d.state != DialogError {
		d.mu.Unlock()
		return ErrDialogBusy
	}
	gen := d.gen
	d.mu.Unlock()

	if err := d.capturer.Start(ctx); err != nil {
		if config.DebugLog != nil {
			config.DebugLog.Printf("[AudioDialog] capture failed: %v", err)
		}
		return err
	}

	d.mu.Lock()
	if gen != d.gen {
		d.mu.Unlock()
		d.capturer.Reset()
		return nil
	}
	d.state = DialogRecording
	d.lastErr = nil
	d.mu.Unlock()

	d.changed()
	return nil
}

// StopRecording finishes the capture and starts the send.
func (d *AudioDialog) StopRecording(ctx context.Context) error {
	d.mu.Lock()
	if d.state != DialogRecording {
		d.mu.Unlock()
		return nil
	}
	gen := d.gen
	d.mu.Unlock()

	b64, ok, err := d.capturer.Stop(ctx)

	d.mu.Lock()
	if gen != d.gen {
		d.mu.Unlock()
		return nil
	}
	if err != nil || !ok {
		d.state = DialogIdle
		d.mu.Unlock()
		d.changed()
		if err == nil {
			err = audio.ErrEmptyRecording
		}
		return err
	}
	d.lastPayload = b64
	d.beginProcessing()
	d.mu.Unlock()

	d.changed()
	return nil
}

// Retry resends the last recorded payload after a failure.
func (d *AudioDialog) Retry() error {
	d.mu.Lock()
	if d.state != DialogError || d.lastPayload == "" {
		d.mu.Unlock()
		return ErrNothingToSend
	}
	d.beginProcessing()
	d.mu.Unlock()

	d.changed()
	return nil
}

// beginProcessing arms the response timer and sends lastPayload in the
// background. Caller holds d.mu.
func (d *AudioDialog) beginProcessing() {
	d.state = DialogProcessing
	d.lastErr = nil

	gen := d.gen
	payload := d.lastPayload
	ctx, cancel := context.WithCancel(context.Background())
	d.cancelSend = cancel
	d.stopTimer = d.after(d.timeout, func() {
		d.fail(gen, ErrResponseTimeout)
	})

	send := d.send
	go func() {
		if err := send(ctx, payload); err != nil {
			d.fail(gen, err)
		}
	}()
}

// fail moves a processing dialog into the error state.
func (d *AudioDialog) fail(gen uint64, err error) {
	d.mu.Lock()
	if gen != d.gen || d.state != DialogProcessing {
		d.mu.Unlock()
		return
	}
	d.clearTimer()
	if d.cancelSend != nil {
		d.cancelSend()
		d.cancelSend = nil
	}
	d.state = DialogError
	d.lastErr = err
	d.mu.Unlock()

	if config.DebugLog != nil {
		config.DebugLog.Printf("[AudioDialog] processing failed: %v", err)
	}
	d.changed()
}

// Deliver receives an audio reply. Replies to recorded messages are
// dropped once the dialog has been closed; replies to typed messages open
// it. Each distinct payload auto-plays once.
func (d *AudioDialog) Deliver(reply AudioReply) {
	d.mu.Lock()
	if !d.open {
		if reply.FromAudio {
			d.mu.Unlock()
			if config.DebugLog != nil {
				config.DebugLog.Printf("[AudioDialog] dropping reply for closed dialog (session %s)", reply.SessionID)
			}
			return
		}
		d.open = true
		d.state = DialogIdle
	}

	if d.state == DialogProcessing {
		d.clearTimer()
		if d.cancelSend != nil {
			d.cancelSend()
			d.cancelSend = nil
		}
	}

	r := reply
	d.pending = &r
	d.lastReply = &r
	d.lastErr = nil

	if d.state == DialogRecording {
		d.mu.Unlock()
		d.changed()
		return
	}

	if reply.Base64 == d.autoPlayed {
		d.state = DialogIdle
		d.mu.Unlock()
		d.changed()
		return
	}
	d.autoPlayed = reply.Base64
	old := d.playback
	d.playback = nil
	d.playSeq++
	gen := d.gen
	d.mu.Unlock()

	if old != nil {
		old.Stop()
	}
	d.play(r, gen)
}

// Replay plays the most recent reply again, opening the dialog if needed.
func (d *AudioDialog) Replay() error {
	d.mu.Lock()
	if d.lastReply == nil {
		d.mu.Unlock()
		return ErrNothingToPlay
	}
	if d.state == DialogRecording || d.state == DialogProcessing {
		d.mu.Unlock()
		return ErrDialogBusy
	}
	r := *d.lastReply
	d.pending = &r
	d.open = true
	gen := d.gen
	d.mu.Unlock()

	d.StopPlayback()
	d.play(r, gen)
	return nil
}

// StopPlayback halts the current reply. The reply stays available to
// Replay.
func (d *AudioDialog) StopPlayback() {
	d.mu.Lock()
	pb := d.playback
	d.playback = nil
	d.playSeq++
	d.playingAI = false
	if d.state == DialogPlaying {
		d.state = DialogIdle
	}
	d.mu.Unlock()

	if pb != nil {
		pb.Stop()
	}
	d.changed()
}

// play starts r unless the dialog was closed since gen was taken.
func (d *AudioDialog) play(r AudioReply, gen uint64) {
	data, err := audio.Decode(r.Base64)

	d.mu.Lock()
	if gen != d.gen || !d.open {
		d.mu.Unlock()
		return
	}
	if err != nil {
		d.state = DialogError
		d.lastErr = err
		d.mu.Unlock()
		d.changed()
		return
	}
	if d.player == nil {
		d.state = DialogError
		d.lastErr = errors.New("no audio player configured")
		d.mu.Unlock()
		d.changed()
		return
	}
	d.playSeq++
	seq := d.playSeq
	d.state = DialogPlaying
	d.mu.Unlock()
	d.changed()

	events := audio.Events{
		OnStart: func() {
			d.mu.Lock()
			if d.current(gen, seq) {
				d.playingAI = true
			}
			d.mu.Unlock()
			d.changed()
		},
		OnPause: func() {
			d.mu.Lock()
			if d.current(gen, seq) {
				d.playingAI = false
			}
			d.mu.Unlock()
			d.changed()
		},
		OnFinish: func() {
			d.finished(gen, seq)
		},
	}

	pb, err := d.player.Play(context.Background(), data, audio.Sniff(r.Base64), events)

	d.mu.Lock()
	if !d.current(gen, seq) {
		d.mu.Unlock()
		if pb != nil {
			pb.Stop()
		}
		return
	}
	if err != nil {
		d.state = DialogError
		d.lastErr = err
		d.playingAI = false
		d.mu.Unlock()
		d.changed()
		return
	}
	if d.state == DialogPlaying {
		d.playback = pb
	}
	d.mu.Unlock()
}

func (d *AudioDialog) finished(gen, seq uint64) {
	d.mu.Lock()
	if !d.current(gen, seq) {
		d.mu.Unlock()
		return
	}
	d.playingAI = false
	d.playback = nil
	d.pending = nil
	d.state = DialogIdle
	hook := d.onEnded
	d.mu.Unlock()

	if hook != nil {
		hook()
	}
	d.changed()
}

// Close tears down capture, playback and the response timer. Callbacks from
// work started before Close are ignored afterwards.
func (d *AudioDialog) Close() {
	d.mu.Lock()
	d.gen++
	d.playSeq++
	d.clearTimer()
	d.cancelSend = nil
	pb := d.playback
	d.playback = nil
	d.open = false
	d.state = DialogIdle
	d.lastErr = nil
	d.pending = nil
	d.autoPlayed = ""
	d.playingAI = false
	d.mu.Unlock()

	d.capturer.Reset()
	if pb != nil {
		pb.Stop()
	}
	d.changed()
}

func (d *AudioDialog) current(gen, seq uint64) bool {
	return gen == d.gen && seq == d.playSeq
}

func (d *AudioDialog) clearTimer() {
	if d.stopTimer != nil {
		d.stopTimer()
		d.stopTimer = nil
	}
}

func (d *AudioDialog) changed() {
	d.mu.Lock()
	fn := d.onChange
	d.mu.Unlock()
	if fn != nil {
		fn()
	}
}
