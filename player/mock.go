package player

import (
	"context"
	"errors"
	"sync"
	"time"
)

// CallKind names a Bridge method recorded by Mock.
type CallKind string

const (
	CallLoad        CallKind = "load"
	CallPlay        CallKind = "play"
	CallPause       CallKind = "pause"
	CallCurrentTime CallKind = "current-time"
	CallSetMuted    CallKind = "set-muted"
)

// Call is one recorded Bridge invocation.
type Call struct {
	Kind    CallKind
	VideoID string
	Params  LoadParams
	Muted   bool
}

// PendingCall is a held play or pause waiting to be resolved.
type PendingCall struct {
	Call
	done chan error
}

// Resolve completes the call with err.
func (p *PendingCall) Resolve(err error) {
	select {
	case p.done <- err:
	default:
	}
}

// Mock is a scriptable in-memory Bridge.
type Mock struct {
	mu         sync.Mutex
	events     chan Event
	calls      []Call
	attached   string
	generation uint64
	hold       bool
	pending    []*PendingCall
	failures   map[CallKind][]error
	time       float64
	timeErr    error
	timeDelay  time.Duration
	observe    func(Call)
}

func NewMock() *Mock {
	return &Mock{
		events:   make(chan Event, 256),
		failures: make(map[CallKind][]error),
	}
}

// Observe registers fn to be called synchronously on every call.
func (m *Mock) Observe(fn func(Call)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.observe = fn
}

// Hold makes play and pause block until resolved through Pending.
func (m *Mock) Hold(hold bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hold = hold
}

// Pending returns the held calls in arrival order and forgets them.
func (m *Mock) Pending() []*PendingCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	p := m.pending
	m.pending = nil
	return p
}

// Fail queues errs; each following call of kind consumes one.
func (m *Mock) Fail(kind CallKind, errs ...error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures[kind] = append(m.failures[kind], errs...)
}

// SetCurrentTime scripts the answer of CurrentTime.
func (m *Mock) SetCurrentTime(t float64, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.time, m.timeErr = t, err
}

// SetTimeDelay makes CurrentTime take d before answering. A query whose
// context ends first fails with ErrTimeout.
func (m *Mock) SetTimeDelay(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.timeDelay = d
}

// Detach drops the context so commands fail with ErrDetached.
func (m *Mock) Detach() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.attached = ""
}

// Emit injects an event as if the current context produced it. Events
// with a Generation set keep it, so a torn-down context can be imitated.
func (m *Mock) Emit(e Event) {
	if e.Generation == 0 {
		e.Generation = m.Generation()
	}
	m.events <- e
}

// Generation returns the generation of the current context.
func (m *Mock) Generation() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.generation
}

// Calls returns every recorded call.
func (m *Mock) Calls() []Call {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Call(nil), m.calls...)
}

// CallsOf returns the recorded calls of kind.
func (m *Mock) CallsOf(kind CallKind) []Call {
	var calls []Call
	for _, c := range m.Calls() {
		if c.Kind == kind {
			calls = append(calls, c)
		}
	}
	return calls
}

// record stores c and pops the scripted failure for its kind.
func (m *Mock) record(c Call) (observe func(Call), err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls = append(m.calls, c)
	if queue := m.failures[c.Kind]; len(queue) > 0 {
		err, m.failures[c.Kind] = queue[0], queue[1:]
	}
	return m.observe, err
}

func (m *Mock) Load(_ context.Context, videoID string, params LoadParams) (uint64, error) {
	observe, err := m.record(Call{Kind: CallLoad, VideoID: videoID, Params: params})
	if observe != nil {
		observe(Call{Kind: CallLoad, VideoID: videoID, Params: params})
	}
	if err != nil {
		return 0, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.attached = videoID
	m.generation++
	return m.generation, nil
}

func (m *Mock) Play(ctx context.Context) error {
	return m.control(ctx, CallPlay)
}

func (m *Mock) Pause(ctx context.Context) error {
	return m.control(ctx, CallPause)
}

func (m *Mock) control(ctx context.Context, kind CallKind) error {
	m.mu.Lock()
	c := Call{Kind: kind, VideoID: m.attached}
	m.mu.Unlock()

	observe, err := m.record(c)
	if observe != nil {
		observe(c)
	}
	if err != nil {
		return err
	}
	if c.VideoID == "" {
		return ErrDetached
	}

	m.mu.Lock()
	if !m.hold {
		m.mu.Unlock()
		return nil
	}
	p := &PendingCall{Call: c, done: make(chan error, 1)}
	m.pending = append(m.pending, p)
	m.mu.Unlock()

	select {
	case err := <-p.done:
		return err
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return ErrTimeout
		}
		return ctx.Err()
	}
}

func (m *Mock) CurrentTime(ctx context.Context) (float64, error) {
	m.mu.Lock()
	c := Call{Kind: CallCurrentTime, VideoID: m.attached}
	delay := m.timeDelay
	m.mu.Unlock()

	observe, err := m.record(c)
	if observe != nil {
		observe(c)
	}
	if err != nil {
		return 0, err
	}
	if c.VideoID == "" {
		return 0, ErrDetached
	}

	if delay > 0 {
		timer := time.NewTimer(delay)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-ctx.Done():
			return 0, ErrTimeout
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	return m.time, m.timeErr
}

func (m *Mock) SetMuted(_ context.Context, muted bool) error {
	m.mu.Lock()
	c := Call{Kind: CallSetMuted, VideoID: m.attached, Muted: muted}
	m.mu.Unlock()

	observe, err := m.record(c)
	if observe != nil {
		observe(c)
	}
	if err != nil {
		return err
	}
	if c.VideoID == "" {
		return ErrDetached
	}
	return nil
}

func (m *Mock) Events() <-chan Event {
	return m.events
}

func (m *Mock) Close() error {
	m.Detach()
	return nil
}
