package playback

import (
	"context"

	"github.com/vidtune-cli/vidtune/player"
)

// command is one play or pause sent to the bridge. Its result is applied
// only while token is still the machine's current token.
type command struct {
	token     uint64
	sessionID string
	videoID   string
	paused    bool
	attempt   int
	// waiting is set while the command sleeps before a retry.
	waiting  bool
	onSettle func()
}

func (c *command) kind() CommandKind {
	if c.paused {
		return CommandPause
	}
	return CommandPlay
}

// finish runs the settle callback at most once.
func (c *command) finish() {
	if fn := c.onSettle; fn != nil {
		c.onSettle = nil
		fn()
	}
}

// reconcile issues the command that moves the context towards the desired
// state, if one is needed and allowed now.
func (m *Machine) reconcile() {
	s := m.session
	if s == nil || s.Phase != PhaseReady || !s.PlayerReady || s.Transitioning {
		return
	}
	if s.PendingDesiredPause.IsPresent() {
		return
	}

	target := s.DesiredPaused
	if m.inflight != nil {
		if m.inflight.paused == target {
			return
		}
	} else if s.ActualPaused == target {
		return
	}

	if !target {
		if m.draining {
			return
		}
		if m.background && !m.opts.Capabilities.BackgroundAudio {
			m.enqueue(s, target)
			return
		}
	}
	m.issue(s, target, 1, nil)
}

// issue supersedes whatever is in flight with a new command.
func (m *Machine) issue(s *Session, paused bool, attempt int, onSettle func()) {
	if prev := m.inflight; prev != nil && prev.waiting {
		stopTimer(&m.retryTimer)
		prev.finish()
	}

	// a fresh command does not inherit the failures of the one it replaces
	if attempt == 1 {
		s.RetryCount = 0
	}

	m.token++
	cmd := &command{
		token:     m.token,
		sessionID: s.ID,
		videoID:   s.VideoID,
		paused:    paused,
		attempt:   attempt,
		onSettle:  onSettle,
	}
	m.inflight = cmd

	// the offset must be durable before the pause can possibly land
	if paused {
		m.savePosition(s, s.LastKnownTime, true)
	}

	m.diag.CommandIssued(cmd.videoID, cmd.kind())
	m.entry(s).WithField("attempt", attempt).Debugf("issuing %s", cmd.kind())

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), m.opts.CommandTimeout)
		defer cancel()

		var err error
		if paused {
			err = m.bridge.Pause(ctx)
		} else {
			err = m.bridge.Play(ctx)
		}
		m.post(func() { m.settle(cmd, err) })
	}()
}

func (m *Machine) settle(cmd *command, err error) {
	s := m.current(cmd.sessionID)
	if cmd.token != m.token || s == nil {
		m.diag.CommandSettled(cmd.videoID, cmd.kind(), OutcomeStale)
		entry := m.entry(s).WithField("command", cmd.kind())
		if err != nil {
			entry = entry.WithError(err)
		}
		entry.Debug("discarding superseded command result")
		cmd.finish()
		return
	}

	entry := m.entry(s)
	switch {
	case err == nil:
		m.inflight = nil
		s.RetryCount = 0
		s.ActualPaused = cmd.paused
		s.Unconfirmed = false
		m.diag.CommandSettled(cmd.videoID, cmd.kind(), OutcomeConfirmed)
		m.notifyPlaying(!cmd.paused)
		cmd.finish()

	case player.IsTransient(err):
		entry.Warnf("%s not confirmed: %v", cmd.kind(), err)
		m.inflight = nil
		s.RetryCount = 0
		m.acceptUnconfirmed(s, cmd)
		cmd.finish()

	default:
		s.RetryCount++
		if s.RetryCount >= m.opts.MaxRetries {
			entry.Errorf("%s failed %d times, giving up: %v", cmd.kind(), s.RetryCount, err)
			m.inflight = nil
			s.RetryCount = 0
			m.acceptUnconfirmed(s, cmd)
			cmd.finish()
			return
		}

		delay := backoff(s.RetryCount, m.opts.BackoffBase, m.opts.BackoffMax)
		entry.Warnf("%s failed, retrying in %s: %v", cmd.kind(), delay, err)
		m.diag.CommandRetried(cmd.videoID, cmd.kind(), cmd.attempt+1, delay)

		cmd.waiting = true
		m.retryTimer = m.after(delay, func() {
			if m.inflight != cmd || !cmd.waiting {
				return
			}
			cmd.waiting = false
			m.retryTimer = nil

			s := m.current(cmd.sessionID)
			if s == nil {
				cmd.finish()
				return
			}
			onSettle := cmd.onSettle
			cmd.onSettle = nil
			m.issue(s, cmd.paused, cmd.attempt+1, onSettle)
		})
	}
}

// acceptUnconfirmed settles a command whose effect is unknown. By default
// the command is assumed to have worked so the UI does not flicker back.
func (m *Machine) acceptUnconfirmed(s *Session, cmd *command) {
	if m.opts.StrictConfirmation {
		s.Unconfirmed = true
		m.diag.CommandSettled(cmd.videoID, cmd.kind(), OutcomeUnconfirmed)
		for _, sub := range m.listeners {
			if sub.OnUnconfirmed != nil {
				sub.OnUnconfirmed(!cmd.paused)
			}
		}
		return
	}

	s.ActualPaused = cmd.paused
	m.diag.CommandSettled(cmd.videoID, cmd.kind(), OutcomeSoftAccepted)
	m.notifyPlaying(!cmd.paused)
}
