package playback

import (
	"errors"
	"math"

	"github.com/samber/mo"
	"github.com/vidtune-cli/vidtune/player"
)

func (m *Machine) handleEvent(e player.Event) {
	s := m.session
	if s == nil || e.VideoID != s.VideoID || e.Generation != s.generation {
		m.diag.EventDiscarded(e.VideoID)
		m.entry(s).WithField("event", e).WithField("generation", e.Generation).Debug("discarding event of another context")
		return
	}
	if err := e.Validate(); err != nil {
		m.entry(s).Warnf("discarding event: %v", err)
		return
	}
	if s.Phase == PhaseError {
		return
	}

	switch e.Kind {
	case player.EventReady:
		m.onReady(s)
	case player.EventPlay:
		m.onObserved(s, false)
	case player.EventPause:
		m.onObserved(s, true)
	case player.EventTimeUpdate:
		m.onTimeUpdate(s, e.CurrentTime, e.Duration)
	case player.EventEnded:
		m.onEnded(s)
	case player.EventError:
		m.entry(s).Errorf("player error: %s", e.Message)
		m.fail(s, &Error{Kind: KindPlayback, VideoID: s.VideoID, Err: errors.New(e.Message)})
	}
}

func (m *Machine) onReady(s *Session) {
	if s.PlayerReady {
		return
	}
	s.PlayerReady = true
	m.setPhase(s, PhaseReady)
	m.entry(s).Info("player ready")

	if s.PendingDesiredPause.IsAbsent() {
		m.reconcile()
		return
	}

	// the context may still be settling its own autoplay; give it a moment
	// before overriding it
	sid := s.ID
	m.graceTimer = m.after(m.opts.ReadyGrace, func() {
		m.graceTimer = nil
		s := m.current(sid)
		if s == nil {
			return
		}
		pending, ok := s.PendingDesiredPause.Get()
		s.PendingDesiredPause = mo.None[bool]()
		if ok {
			s.DesiredPaused = pending
		}
		m.reconcile()
	})
}

// onObserved records a state the context reports on its own. It never
// changes what the user asked for.
func (m *Machine) onObserved(s *Session, paused bool) {
	s.ActualPaused = paused
	s.Unconfirmed = false

	// paused from inside the player window
	if paused && m.inflight == nil && !s.DesiredPaused {
		m.savePosition(s, s.LastKnownTime, true)
	}
	m.notifyPlaying(!paused)
}

func (m *Machine) onTimeUpdate(s *Session, current, duration float64) {
	s.LastKnownTime = current
	if duration > 0 {
		s.Duration = duration
	}

	second := int64(math.Floor(current))
	delta := second - s.lastSavedSecond
	if delta < 0 {
		delta = -delta
	}
	if delta >= int64(m.opts.SaveInterval) {
		s.lastSavedSecond = second
		m.savePosition(s, current, false)
	}

	for _, sub := range m.listeners {
		if sub.OnTimeUpdate != nil {
			sub.OnTimeUpdate(current, s.Duration)
		}
	}
}

func (m *Machine) onEnded(s *Session) {
	m.entry(s).Info("video ended")

	s.LastKnownTime = 0
	s.lastSavedSecond = 0
	s.ActualPaused = true
	s.DesiredPaused = true
	m.resetPosition(s)
	m.notifyPlaying(false)

	for _, sub := range m.listeners {
		if sub.OnVideoEnd != nil {
			sub.OnVideoEnd(s.VideoID)
		}
	}
}
