package voice

import "errors"

// ErrorKind classifies capture and playback failures the way providers
// report them.
type ErrorKind string

const (
	ErrKindCaptureUnsupported ErrorKind = "captureUnsupported"
	ErrKindPermissionDenied   ErrorKind = "permissionDenied"
	ErrKindNoSpeech           ErrorKind = "noSpeech"
	ErrKindAborted            ErrorKind = "aborted"
	ErrKindNetwork            ErrorKind = "network"
)

var (
	// ErrCaptureUnsupported means no capture provider is available at all.
	// Fatal to the session; auto-restart stays off.
	ErrCaptureUnsupported = errors.New("speech capture is not supported")

	// ErrPermissionDenied means the capture provider rejected access.
	// Fatal to the session; auto-restart stays off to avoid permission
	// prompt loops.
	ErrPermissionDenied = errors.New("speech capture permission denied")

	// ErrSessionNotFound is returned for unknown session IDs.
	ErrSessionNotFound = errors.New("session not found")
)

// fatal reports whether an error kind permanently disables auto-restart.
func (k ErrorKind) fatal() bool {
	return k == ErrKindPermissionDenied || k == ErrKindCaptureUnsupported
}
