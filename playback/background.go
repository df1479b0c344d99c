package playback

import (
	"context"
)

// queued is a play deferred while the app was in the background.
type queued struct {
	sessionID string
	paused    bool
}

// EnterBackground flushes the current position and, unless the platform
// plays audio in the background, pauses the context without touching the
// desired state. Plays requested while backgrounded are queued.
func (m *Machine) EnterBackground() {
	m.post(m.enterBackground)
}

// EnterForeground runs the queued commands in order, then reconciles.
func (m *Machine) EnterForeground() {
	m.post(m.enterForeground)
}

func (m *Machine) enterBackground() {
	if m.background {
		return
	}
	m.background = true

	s := m.session
	if s == nil || s.Phase != PhaseReady {
		return
	}
	m.entry(s).Debug("entering background")
	// the process may be stopped right after this, so the last reported
	// offset is written before the live one is asked for
	m.savePosition(s, s.LastKnownTime, true)
	m.flushLive(s)

	if m.opts.Capabilities.BackgroundAudio {
		return
	}
	heading := !s.ActualPaused
	if m.inflight != nil {
		heading = !m.inflight.paused
	}
	if heading {
		m.issue(s, true, 1, nil)
	}
}

// flushLive overwrites the saved offset of s with the live one if the
// context answers in time.
func (m *Machine) flushLive(s *Session) {
	sid := s.ID
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), m.opts.TimeQueryTimeout)
		offset, err := m.bridge.CurrentTime(ctx)
		cancel()

		m.post(func() {
			s := m.current(sid)
			if s == nil {
				return
			}
			if err != nil {
				m.entry(s).Debugf("live offset unavailable, keeping last known: %v", err)
				return
			}
			s.LastKnownTime = offset
			m.savePosition(s, offset, true)
		})
	}()
}

func (m *Machine) enterForeground() {
	if !m.background {
		return
	}
	m.background = false
	m.entry(m.session).WithField("queued", len(m.queue)).Debug("entering foreground")
	m.drain()
}

func (m *Machine) enqueue(s *Session, paused bool) {
	if n := len(m.queue); n > 0 && m.queue[n-1].sessionID == s.ID && m.queue[n-1].paused == paused {
		return
	}
	m.queue = append(m.queue, queued{sessionID: s.ID, paused: paused})
	m.diag.CommandQueued(s.VideoID, CommandPlay)
	m.entry(s).Debug("play deferred until foreground")
}

// drain issues queued commands one at a time, each after the previous one
// settled. Entries whose intent no longer holds are dropped.
func (m *Machine) drain() {
	if m.draining || m.background {
		return
	}

	for len(m.queue) > 0 {
		next := m.queue[0]
		m.queue = m.queue[1:]

		s := m.current(next.sessionID)
		if s == nil || s.Phase != PhaseReady || s.DesiredPaused != next.paused {
			continue
		}
		if m.inflight != nil && m.inflight.paused == next.paused {
			continue
		}
		if m.inflight == nil && s.ActualPaused == next.paused {
			continue
		}

		m.draining = true
		m.issue(s, next.paused, 1, func() {
			m.draining = false
			m.post(m.drain)
		})
		return
	}
	m.reconcile()
}
