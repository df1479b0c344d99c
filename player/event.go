package player

import (
	"fmt"
	"math"
)

// EventKind enumerates what a context can report.
type EventKind int

const (
	EventReady EventKind = iota + 1
	EventPlay
	EventPause
	EventTimeUpdate
	EventEnded
	EventError
)

func (k EventKind) String() string {
	switch k {
	case EventReady:
		return "ready"
	case EventPlay:
		return "play"
	case EventPause:
		return "pause"
	case EventTimeUpdate:
		return "timeupdate"
	case EventEnded:
		return "ended"
	case EventError:
		return "error"
	default:
		return fmt.Sprintf("EventKind(%d)", int(k))
	}
}

// Event is one message from a context.
// CurrentTime and Duration are set on EventTimeUpdate, Message on EventError.
type Event struct {
	Kind        EventKind
	VideoID     string
	CurrentTime float64
	Duration    float64
	Message     string
	// Generation identifies the context that emitted the event. It is the
	// value returned by the Load that created that context.
	Generation uint64
}

func (e Event) String() string {
	switch e.Kind {
	case EventTimeUpdate:
		return fmt.Sprintf("%s{%s %.2f/%.2f}", e.Kind, e.VideoID, e.CurrentTime, e.Duration)
	case EventError:
		return fmt.Sprintf("%s{%s %q}", e.Kind, e.VideoID, e.Message)
	default:
		return fmt.Sprintf("%s{%s}", e.Kind, e.VideoID)
	}
}

// Validate checks the shape of e.
func (e Event) Validate() error {
	if e.VideoID == "" {
		return fmt.Errorf("%w: %s without video id", ErrInvalidEvent, e.Kind)
	}

	switch e.Kind {
	case EventReady, EventPlay, EventPause, EventEnded, EventError:
		return nil
	case EventTimeUpdate:
		if !finite(e.CurrentTime) || e.CurrentTime < 0 {
			return fmt.Errorf("%w: time %v", ErrInvalidEvent, e.CurrentTime)
		}
		if !finite(e.Duration) || e.Duration < 0 {
			return fmt.Errorf("%w: duration %v", ErrInvalidEvent, e.Duration)
		}
		return nil
	default:
		return fmt.Errorf("%w: kind %d", ErrInvalidEvent, int(e.Kind))
	}
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
