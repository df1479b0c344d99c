// Package player owns the isolated player context a video plays in.
//
// A Bridge hides the context behind a small asynchronous command surface:
// commands resolve once the context acknowledged them, and everything the
// context reports flows back, in order, through Events.
package player

import (
	"context"
	"errors"
)

var (
	// ErrDetached is returned when no context is attached, or when the
	// context went away while a command was pending.
	ErrDetached = errors.New("player context detached")

	// ErrTimeout is returned when the context did not answer in time.
	ErrTimeout = errors.New("player context did not respond")

	// ErrInvalidEvent marks an inbound payload that does not have the
	// shape of any known event.
	ErrInvalidEvent = errors.New("invalid player event")
)

// LoadParams shape a new context.
type LoadParams struct {
	Title        string
	Quality      string
	Autoplay     bool
	Muted        bool
	StartOffset  float64
	HideBranding bool
}

// TokenProvider supplies the access credential embedded in load requests.
// An empty token means the video is loaded anonymously.
type TokenProvider interface {
	CurrentToken(ctx context.Context) (string, error)
}

// Bridge is the command and event surface of a player context.
type Bridge interface {
	// Load tears down the current context and creates a new one for videoID.
	// Readiness is reported later with an EventReady. The returned generation
	// is stamped on every event of the new context and never repeats.
	Load(ctx context.Context, videoID string, params LoadParams) (generation uint64, err error)

	// Play and Pause resolve once the context acknowledged the instruction.
	// They do not guarantee that playback audibly changed.
	Play(ctx context.Context) error
	Pause(ctx context.Context) error

	// CurrentTime queries the playback offset in seconds.
	CurrentTime(ctx context.Context) (float64, error)

	SetMuted(ctx context.Context, muted bool) error

	// Events delivers every event of every context in emission order.
	Events() <-chan Event

	Close() error
}

// IsTransient reports whether err means the command may well have landed
// (timeout) or the context is being torn down (detached).
func IsTransient(err error) bool {
	return errors.Is(err, ErrTimeout) ||
		errors.Is(err, ErrDetached) ||
		errors.Is(err, context.DeadlineExceeded)
}
