package model

// SessionsChangedMsg is sent whenever the controller's collection or
// selection changes.
type SessionsChangedMsg struct{}

type MessageSentMsg struct {
	SessionID string
	Result    *SendResult
	Err       error
}

type SessionDeletedMsg struct {
	ID  string
	Err error
}

type SessionRenamedMsg struct {
	ID  string
	Err error
}

type SessionExportedMsg struct {
	Path string
	Err  error
}

// AudioDialogChangedMsg is sent on every dialog state transition.
type AudioDialogChangedMsg struct{}

type RecordingStartedMsg struct {
	Err error
}

type RecordingStoppedMsg struct {
	Err error
}

type ReplayStartedMsg struct {
	Err error
}

// PlaybackEndedMsg is sent when an assistant reply finishes playing on its
// own, so the view can drop the reply and go back to the microphone.
type PlaybackEndedMsg struct{}
