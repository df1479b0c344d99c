// Package playback keeps the play state the user asked for and the state a
// player context actually reached in sync.
//
// Every mutation runs on a single goroutine owned by the Machine. Bridge
// calls run on their own goroutines and post their results back, so
// commands, events, timers and lifecycle signals are applied one at a time
// in arrival order.
package playback

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/samber/mo"
	"github.com/sirupsen/logrus"
	"github.com/vidtune-cli/vidtune/log"
	"github.com/vidtune-cli/vidtune/player"
	"github.com/vidtune-cli/vidtune/position"
	"github.com/vidtune-cli/vidtune/video"
)

// Positions persists playback offsets. *position.Store implements it.
type Positions interface {
	Load(ctx context.Context, videoID string) float64
	Save(ctx context.Context, videoID string, offset float64, opts position.SaveOptions)
	Reset(ctx context.Context, videoID string)
}

// Machine is the playback state machine of one player surface.
type Machine struct {
	bridge    player.Bridge
	positions Positions
	opts      Options
	diag      Diagnostics

	mu      sync.Mutex
	inbox   []func()
	closed  bool
	wake    chan struct{}
	quit    chan struct{}
	stopped chan struct{}
	once    sync.Once

	// owned by the loop goroutine
	session    *Session
	token      uint64
	inflight   *command
	background bool
	queue      []queued
	draining   bool
	listeners  []subscription
	nextSub    int
	playing    bool

	transitionTimer *time.Timer
	graceTimer      *time.Timer
	retryTimer      *time.Timer
}

func New(bridge player.Bridge, positions Positions, opts Options) *Machine {
	opts = opts.withDefaults()
	m := &Machine{
		bridge:    bridge,
		positions: positions,
		opts:      opts,
		diag:      opts.Diagnostics,
		wake:      make(chan struct{}, 1),
		quit:      make(chan struct{}),
		stopped:   make(chan struct{}),
	}
	go m.loop()
	return m
}

func (m *Machine) loop() {
	defer close(m.stopped)

	events := m.bridge.Events()
	for {
		select {
		case <-m.quit:
			return
		case <-m.wake:
			m.runInbox()
		case e, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			m.handleEvent(e)
		}
	}
}

func (m *Machine) runInbox() {
	for {
		m.mu.Lock()
		if len(m.inbox) == 0 {
			m.mu.Unlock()
			return
		}
		fn := m.inbox[0]
		m.inbox[0] = nil
		m.inbox = m.inbox[1:]
		m.mu.Unlock()

		fn()
	}
}

// post schedules fn on the loop goroutine. It never blocks, so it is safe
// to call from listeners and timers.
func (m *Machine) post(fn func()) bool {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return false
	}
	m.inbox = append(m.inbox, fn)
	m.mu.Unlock()

	select {
	case m.wake <- struct{}{}:
	default:
	}
	return true
}

// after runs fn on the loop goroutine once d has elapsed.
func (m *Machine) after(d time.Duration, fn func()) *time.Timer {
	return time.AfterFunc(d, func() { m.post(fn) })
}

func stopTimer(t **time.Timer) {
	if *t != nil {
		(*t).Stop()
		*t = nil
	}
}

// current returns the session with the given id if it is still the active one.
func (m *Machine) current(sessionID string) *Session {
	if m.session == nil || m.session.ID != sessionID {
		return nil
	}
	return m.session
}

func (m *Machine) entry(s *Session) *logrus.Entry {
	if s == nil {
		return log.WithFields(log.Fields{})
	}
	return log.WithFields(log.Fields{"session": s.ID[:8], "video": s.VideoID})
}

// SelectVideo replaces the current session with one for v.
func (m *Machine) SelectVideo(v video.Video) {
	m.post(func() { m.selectVideo(v) })
}

// SetDesiredPaused records what the user wants. The context is brought in
// line asynchronously.
func (m *Machine) SetDesiredPaused(paused bool) {
	m.post(func() { m.setDesiredPaused(paused) })
}

// Toggle flips the state the user sees: the target of the command in
// flight if there is one, the confirmed state otherwise. Before readiness it
// flips the pending request.
func (m *Machine) Toggle() {
	m.post(func() {
		s := m.session
		if s == nil {
			return
		}

		var paused bool
		switch pending, ok := s.PendingDesiredPause.Get(); {
		case ok:
			paused = pending
		case !s.PlayerReady:
			paused = s.DesiredPaused
		case m.inflight != nil:
			paused = m.inflight.paused
		default:
			paused = s.ActualPaused
		}
		m.setDesiredPaused(!paused)
	})
}

// Reload recreates the context of the current video from scratch.
func (m *Machine) Reload() {
	m.post(func() {
		if s := m.session; s != nil {
			m.entry(s).Info("reloading")
			m.selectVideo(s.Video)
		}
	})
}

// SetMuted forwards the mute state when the platform allows it.
func (m *Machine) SetMuted(muted bool) {
	m.post(func() {
		s := m.session
		if s == nil || !s.PlayerReady {
			return
		}
		if !m.opts.Capabilities.MuteToggle {
			m.entry(s).Debug("mute toggle not supported")
			return
		}

		entry := m.entry(s)
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), m.opts.CommandTimeout)
			defer cancel()
			if err := m.bridge.SetMuted(ctx, muted); err != nil {
				entry.Warnf("set muted: %v", err)
			}
		}()
	})
}

// Status returns a copy of the current state. It waits for the machine
// goroutine, so it must not be called from a Listener.
func (m *Machine) Status() Status {
	reply := make(chan Status, 1)
	if !m.post(func() { reply <- m.status() }) {
		return Status{}
	}

	select {
	case st := <-reply:
		return st
	case <-m.stopped:
		return Status{}
	}
}

func (m *Machine) status() Status {
	st := Status{
		Background: m.background,
		Queued:     len(m.queue),
		InFlight:   m.inflight != nil,
	}
	if m.session != nil {
		s := *m.session
		st.Session = &s
	}
	return st
}

// Close flushes the position of the current session and stops the machine.
// The bridge is left to the caller. Like Status it must not be called from
// a Listener.
func (m *Machine) Close() error {
	err := ErrClosed
	m.once.Do(func() {
		done := make(chan struct{})
		if m.post(func() {
			m.shutdown()
			close(done)
		}) {
			<-done
		}

		m.mu.Lock()
		m.closed = true
		m.inbox = nil
		m.mu.Unlock()

		close(m.quit)
		<-m.stopped
		err = nil
	})
	return err
}

func (m *Machine) shutdown() {
	stopTimer(&m.transitionTimer)
	stopTimer(&m.graceTimer)
	stopTimer(&m.retryTimer)

	if s := m.session; s != nil && s.Phase == PhaseReady {
		m.savePosition(s, s.LastKnownTime, true)
	}
	if m.inflight != nil {
		m.inflight.finish()
		m.inflight = nil
	}
	m.token++
	m.queue = nil
	m.session = nil
}

func (m *Machine) selectVideo(v video.Video) {
	m.token++
	if m.inflight != nil {
		m.inflight.finish()
		m.inflight = nil
	}
	stopTimer(&m.transitionTimer)
	stopTimer(&m.graceTimer)
	stopTimer(&m.retryTimer)

	if prev := m.session; prev != nil && prev.PlayerReady && prev.LastKnownTime > 0 {
		m.savePosition(prev, prev.LastKnownTime, true)
	}
	m.notifyPlaying(false)

	id, valid := video.NormalizeID(v.ID)
	s := &Session{
		ID:            uuid.NewString(),
		Video:         v,
		VideoID:       id,
		DesiredPaused: !m.opts.Autoplay,
		ActualPaused:  true,
		Transitioning: true,
		Phase:         PhaseUninitialized,
	}
	m.session = s
	entry := m.entry(s)

	if !valid {
		entry.Warnf("rejecting video id %q", v.ID)
		s.Transitioning = false
		m.fail(s, &Error{Kind: KindInvalidID, VideoID: v.ID, Err: ErrInvalidVideoID})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), m.opts.CommandTimeout)
	defer cancel()

	start := m.positions.Load(ctx, id)
	s.LastKnownTime = start
	s.lastSavedSecond = int64(start)
	m.setPhase(s, PhaseLoading)

	sid := s.ID
	m.transitionTimer = m.after(m.opts.TransitionWindow, func() {
		if s := m.current(sid); s != nil {
			s.Transitioning = false
			m.reconcile()
		}
	})

	params := m.opts.Load
	params.Title = v.Title
	params.Autoplay = m.opts.Autoplay
	params.StartOffset = start

	entry.WithField("start", start).Info("loading video")
	generation, err := m.bridge.Load(ctx, id, params)
	if err != nil {
		entry.Errorf("load: %v", err)
		m.fail(s, &Error{Kind: KindLoad, VideoID: id, Err: err})
		return
	}
	s.generation = generation
}

func (m *Machine) setDesiredPaused(paused bool) {
	s := m.session
	if s == nil {
		return
	}
	if s.Phase == PhaseError {
		m.entry(s).Debug("ignoring play state request in error phase")
		return
	}

	if !s.PlayerReady || s.PendingDesiredPause.IsPresent() {
		s.PendingDesiredPause = mo.Some(paused)
		return
	}

	s.DesiredPaused = paused
	m.reconcile()
}

func (m *Machine) setPhase(s *Session, phase Phase) {
	if s.Phase == phase {
		return
	}
	s.Phase = phase
	m.diag.PhaseChanged(s.VideoID, phase)
	m.entry(s).WithField("phase", phase).Debug("phase changed")
	for _, sub := range m.listeners {
		if sub.OnPhaseChange != nil {
			sub.OnPhaseChange(s.VideoID, phase)
		}
	}
}

// fail moves s to the error phase and cancels whatever it had in flight.
func (m *Machine) fail(s *Session, err *Error) {
	m.token++
	if m.inflight != nil {
		m.inflight.finish()
		m.inflight = nil
	}
	stopTimer(&m.graceTimer)
	stopTimer(&m.retryTimer)

	s.Err = err
	s.PendingDesiredPause = mo.None[bool]()
	m.setPhase(s, PhaseError)
	m.notifyPlaying(false)

	for _, sub := range m.listeners {
		if sub.OnError != nil {
			sub.OnError(err)
		}
	}
}

func (m *Machine) savePosition(s *Session, offset float64, immediate bool) {
	ctx, cancel := context.WithTimeout(context.Background(), m.opts.CommandTimeout)
	defer cancel()

	m.positions.Save(ctx, s.VideoID, offset, position.SaveOptions{Immediate: immediate})
	m.diag.PositionSaved(s.VideoID, offset, immediate)
}

func (m *Machine) resetPosition(s *Session) {
	ctx, cancel := context.WithTimeout(context.Background(), m.opts.CommandTimeout)
	defer cancel()

	m.positions.Reset(ctx, s.VideoID)
	m.diag.PositionSaved(s.VideoID, 0, true)
}

// notifyPlaying tells listeners about play state changes, once per change.
func (m *Machine) notifyPlaying(playing bool) {
	if m.playing == playing {
		return
	}
	m.playing = playing
	for _, sub := range m.listeners {
		if sub.OnPlayStateChange != nil {
			sub.OnPlayStateChange(playing)
		}
	}
}
