package player

import (
	"encoding/json"
	"fmt"
)

// observedProperties are subscribed to with observe_property on attach.
var observedProperties = []struct {
	id   int
	name string
}{
	{1, "time-pos"},
	{2, "pause"},
	{3, "duration"},
	{4, "eof-reached"},
}

// translator turns the raw mpv message stream of one context into Events.
type translator struct {
	videoID  string
	ready    bool
	ended    bool
	duration float64
}

func newTranslator(videoID string) *translator {
	return &translator{videoID: videoID}
}

// translate returns the events msg stands for. Messages without a
// counterpart yield nothing; malformed ones an ErrInvalidEvent.
func (t *translator) translate(msg ipcMessage) ([]Event, error) {
	switch msg.Event {
	case "file-loaded":
		if t.ready {
			return nil, nil
		}
		t.ready = true
		return t.events(Event{Kind: EventReady})

	case "end-file":
		if msg.Reason != "error" {
			return nil, nil
		}
		reason := msg.FileError
		if reason == "" {
			reason = "playback failed"
		}
		return t.events(Event{Kind: EventError, Message: reason})

	case "property-change":
		return t.property(msg)

	default:
		return nil, nil
	}
}

func (t *translator) property(msg ipcMessage) ([]Event, error) {
	// mpv reports null while nothing is loaded
	if len(msg.Data) == 0 || string(msg.Data) == "null" {
		return nil, nil
	}

	switch msg.Name {
	case "pause":
		var paused bool
		if err := json.Unmarshal(msg.Data, &paused); err != nil {
			return nil, fmt.Errorf("%w: pause=%s", ErrInvalidEvent, msg.Data)
		}
		if !t.ready {
			return nil, nil
		}
		if paused {
			return t.events(Event{Kind: EventPause})
		}
		return t.events(Event{Kind: EventPlay})

	case "time-pos":
		var pos float64
		if err := json.Unmarshal(msg.Data, &pos); err != nil {
			return nil, fmt.Errorf("%w: time-pos=%s", ErrInvalidEvent, msg.Data)
		}
		if !t.ready {
			return nil, nil
		}
		if pos < 0 {
			pos = 0
		}
		return t.events(Event{Kind: EventTimeUpdate, CurrentTime: pos, Duration: t.duration})

	case "duration":
		var d float64
		if err := json.Unmarshal(msg.Data, &d); err != nil {
			return nil, fmt.Errorf("%w: duration=%s", ErrInvalidEvent, msg.Data)
		}
		t.duration = d
		return nil, nil

	case "eof-reached":
		var eof bool
		if err := json.Unmarshal(msg.Data, &eof); err != nil {
			return nil, fmt.Errorf("%w: eof-reached=%s", ErrInvalidEvent, msg.Data)
		}
		// a seek back after the end re-arms the next end
		if !eof {
			t.ended = false
			return nil, nil
		}
		if t.ended || !t.ready {
			return nil, nil
		}
		t.ended = true
		return t.events(Event{Kind: EventEnded})

	default:
		return nil, nil
	}
}

func (t *translator) events(e Event) ([]Event, error) {
	e.VideoID = t.videoID
	if err := e.Validate(); err != nil {
		return nil, err
	}
	return []Event{e}, nil
}
