package playback

import (
	"github.com/samber/mo"
	"github.com/vidtune-cli/vidtune/video"
)

// Session is the playback state of one selected video.
// A new Session replaces the previous one on every video switch and reload.
type Session struct {
	ID      string
	Video   video.Video
	VideoID string

	DesiredPaused bool
	ActualPaused  bool
	PlayerReady   bool
	Transitioning bool
	RetryCount    int

	LastKnownTime float64
	Duration      float64

	// PendingDesiredPause is a pause state requested before the context
	// was ready. It is applied once, a grace period after readiness.
	PendingDesiredPause mo.Option[bool]

	Phase Phase
	// Unconfirmed is set when the last command timed out under strict
	// confirmation and ActualPaused may be wrong.
	Unconfirmed bool
	Err         error

	lastSavedSecond int64
	// generation of the context created for this session
	generation uint64
}

// Playing reports the confirmed play state.
func (s Session) Playing() bool {
	return !s.ActualPaused
}

// Status is a point in time copy of the machine state.
type Status struct {
	// Session is nil before the first SelectVideo.
	Session    *Session
	Background bool
	// Queued counts commands deferred until the app returns to the foreground.
	Queued   int
	InFlight bool
}
