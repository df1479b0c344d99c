package playback

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidVideoID = errors.New("invalid video id")
	ErrClosed         = errors.New("playback machine closed")
)

// ErrorKind tells the UI which errors are actionable and how.
type ErrorKind int

const (
	// KindInvalidID is terminal: the id can never load.
	KindInvalidID ErrorKind = iota + 1
	// KindLoad means no context could be created.
	KindLoad
	// KindPlayback is reported by the context itself.
	KindPlayback
)

func (k ErrorKind) String() string {
	switch k {
	case KindInvalidID:
		return "invalid id"
	case KindLoad:
		return "load failed"
	case KindPlayback:
		return "playback failed"
	default:
		return fmt.Sprintf("ErrorKind(%d)", int(k))
	}
}

// Error is a session error surfaced to listeners.
type Error struct {
	Kind    ErrorKind
	VideoID string
	Err     error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: video %q: %v", e.Kind, e.VideoID, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Retryable reports whether Reload may help.
func (e *Error) Retryable() bool {
	return e.Kind != KindInvalidID
}
