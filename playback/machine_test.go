package playback

import (
	"context"
	"errors"
	"sync"
	"testing"
	"testing/synctest"
	"time"

	. "github.com/smartystreets/goconvey/convey"
	"github.com/vidtune-cli/vidtune/player"
	"github.com/vidtune-cli/vidtune/position"
	"github.com/vidtune-cli/vidtune/video"
)

const (
	videoA = "76979871"
	videoB = "22439234"
)

// journal orders storage writes and bridge calls against each other.
type journal struct {
	mu      sync.Mutex
	entries []string
}

func (j *journal) add(entry string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.entries = append(j.entries, entry)
}

func (j *journal) list() []string {
	j.mu.Lock()
	defer j.mu.Unlock()
	return append([]string(nil), j.entries...)
}

type save struct {
	videoID   string
	offset    float64
	immediate bool
}

type fakePositions struct {
	mu      sync.Mutex
	offsets map[string]float64
	saves   []save
	journal *journal
}

func (p *fakePositions) Load(_ context.Context, videoID string) float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.offsets[videoID]
}

func (p *fakePositions) Save(_ context.Context, videoID string, offset float64, opts position.SaveOptions) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.offsets[videoID] = offset
	p.saves = append(p.saves, save{videoID: videoID, offset: offset, immediate: opts.Immediate})
	p.journal.add("save")
}

func (p *fakePositions) Reset(_ context.Context, videoID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.offsets, videoID)
	p.journal.add("reset")
}

func (p *fakePositions) allSaves() []save {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]save(nil), p.saves...)
}

func (p *fakePositions) offset(videoID string) float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.offsets[videoID]
}

func (p *fakePositions) periodic() []save {
	var out []save
	for _, s := range p.allSaves() {
		if !s.immediate {
			out = append(out, s)
		}
	}
	return out
}

type recorder struct {
	mu          sync.Mutex
	playing     []bool
	times       []float64
	ends        []string
	errs        []error
	unconfirmed []bool
}

func (r *recorder) listener() Listener {
	record := func(fn func()) {
		r.mu.Lock()
		defer r.mu.Unlock()
		fn()
	}
	return Listener{
		OnPlayStateChange: func(playing bool) { record(func() { r.playing = append(r.playing, playing) }) },
		OnTimeUpdate:      func(current, _ float64) { record(func() { r.times = append(r.times, current) }) },
		OnVideoEnd:        func(id string) { record(func() { r.ends = append(r.ends, id) }) },
		OnError:           func(err error) { record(func() { r.errs = append(r.errs, err) }) },
		OnUnconfirmed:     func(playing bool) { record(func() { r.unconfirmed = append(r.unconfirmed, playing) }) },
	}
}

func (r *recorder) plays() []bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]bool(nil), r.playing...)
}

func (r *recorder) reported() []error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]error(nil), r.errs...)
}

type harness struct {
	bridge    *player.Mock
	positions *fakePositions
	journal   *journal
	rec       *recorder
	m         *Machine
}

func newHarness(configure func(*Options)) *harness {
	opts := DefaultOptions()
	if configure != nil {
		configure(&opts)
	}

	j := &journal{}
	h := &harness{
		bridge:    player.NewMock(),
		positions: &fakePositions{offsets: make(map[string]float64), journal: j},
		journal:   j,
		rec:       &recorder{},
	}
	h.m = New(h.bridge, h.positions, opts)
	h.m.Subscribe(h.rec.listener())
	return h
}

func (h *harness) emit(e player.Event) {
	h.bridge.Emit(e)
	synctest.Wait()
}

// start selects id, reports it ready and lets the transition window pass.
func (h *harness) start(id string) {
	h.m.SelectVideo(video.Video{ID: id})
	synctest.Wait()
	h.emit(player.Event{Kind: player.EventReady, VideoID: id})
	h.advance(100 * time.Millisecond)
}

func (h *harness) advance(d time.Duration) {
	time.Sleep(d)
	synctest.Wait()
}

func (h *harness) session() Session {
	st := h.m.Status()
	if st.Session == nil {
		return Session{}
	}
	return *st.Session
}

func TestSelectVideo(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		Convey("Given a machine with autoplay", t, func() {
			h := newHarness(nil)
			Reset(func() { _ = h.m.Close() })

			Convey("A video loads from its saved offset", func() {
				h.positions.offsets[videoA] = 83.7
				h.m.SelectVideo(video.Video{ID: "https://vimeo.com/" + videoA, Title: "Night drive"})
				synctest.Wait()

				loads := h.bridge.CallsOf(player.CallLoad)
				So(loads, ShouldHaveLength, 1)
				So(loads[0].VideoID, ShouldEqual, videoA)
				So(loads[0].Params.StartOffset, ShouldEqual, 83.7)
				So(loads[0].Params.Autoplay, ShouldBeTrue)

				s := h.session()
				So(s.Phase, ShouldEqual, PhaseLoading)
				So(s.DesiredPaused, ShouldBeFalse)
				So(s.ActualPaused, ShouldBeTrue)
				So(s.LastKnownTime, ShouldEqual, 83.7)
			})

			Convey("Play is held back until the transition window passed", func() {
				h.m.SelectVideo(video.Video{ID: videoA})
				synctest.Wait()
				h.emit(player.Event{Kind: player.EventReady, VideoID: videoA})
				So(h.bridge.CallsOf(player.CallPlay), ShouldBeEmpty)

				h.advance(100 * time.Millisecond)
				So(h.bridge.CallsOf(player.CallPlay), ShouldHaveLength, 1)
				So(h.rec.plays(), ShouldResemble, []bool{true})
				So(h.session().ActualPaused, ShouldBeFalse)
			})

			Convey("An invalid id fails without loading", func() {
				h.m.SelectVideo(video.Video{ID: "abc"})
				synctest.Wait()

				So(h.bridge.CallsOf(player.CallLoad), ShouldBeEmpty)
				s := h.session()
				So(s.Phase, ShouldEqual, PhaseError)
				So(errors.Is(s.Err, ErrInvalidVideoID), ShouldBeTrue)

				var perr *Error
				So(errors.As(h.rec.reported()[0], &perr), ShouldBeTrue)
				So(perr.Kind, ShouldEqual, KindInvalidID)
				So(perr.Retryable(), ShouldBeFalse)
			})

			Convey("A failed load is reported as a load error", func() {
				h.bridge.Fail(player.CallLoad, errors.New("exec: mpv not found"))
				h.m.SelectVideo(video.Video{ID: videoA})
				synctest.Wait()

				var perr *Error
				So(errors.As(h.session().Err, &perr), ShouldBeTrue)
				So(perr.Kind, ShouldEqual, KindLoad)
				So(h.session().Phase, ShouldEqual, PhaseError)
			})

			Convey("Switching videos flushes the previous position", func() {
				h.start(videoA)
				h.emit(player.Event{Kind: player.EventTimeUpdate, VideoID: videoA, CurrentTime: 42})

				h.m.SelectVideo(video.Video{ID: videoB})
				synctest.Wait()

				So(h.positions.allSaves(), ShouldContain, save{videoID: videoA, offset: 42, immediate: true})
				So(h.session().VideoID, ShouldEqual, videoB)
				So(h.rec.plays(), ShouldResemble, []bool{true, false})

				Convey("Events of the previous video are discarded", func() {
					h.emit(player.Event{Kind: player.EventTimeUpdate, VideoID: videoA, CurrentTime: 50})
					h.emit(player.Event{Kind: player.EventReady, VideoID: videoA})

					s := h.session()
					So(s.LastKnownTime, ShouldEqual, 0)
					So(s.PlayerReady, ShouldBeFalse)
				})
			})

			Convey("Reload creates a fresh session", func() {
				h.start(videoA)
				before := h.session().ID

				h.m.Reload()
				synctest.Wait()

				So(h.bridge.CallsOf(player.CallLoad), ShouldHaveLength, 2)
				So(h.session().ID, ShouldNotEqual, before)
				So(h.session().Phase, ShouldEqual, PhaseLoading)
			})

			Convey("Events of the torn down context are discarded after a reload", func() {
				h.start(videoA)
				stale := h.bridge.Generation()

				h.m.Reload()
				synctest.Wait()
				h.emit(player.Event{Kind: player.EventTimeUpdate, VideoID: videoA, CurrentTime: 99, Generation: stale})
				h.emit(player.Event{Kind: player.EventReady, VideoID: videoA, Generation: stale})

				s := h.session()
				So(s.LastKnownTime, ShouldEqual, 0)
				So(s.PlayerReady, ShouldBeFalse)
				So(s.Phase, ShouldEqual, PhaseLoading)

				Convey("while the new context is heard", func() {
					h.emit(player.Event{Kind: player.EventReady, VideoID: videoA})
					So(h.session().PlayerReady, ShouldBeTrue)
				})
			})
		})
	})
}

func TestCommands(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		Convey("Given a machine without autoplay", t, func() {
			h := newHarness(func(o *Options) { o.Autoplay = false })
			Reset(func() { _ = h.m.Close() })
			h.start(videoA)
			So(h.bridge.CallsOf(player.CallPlay), ShouldBeEmpty)

			Convey("A late play result does not override a newer pause", func() {
				h.bridge.Hold(true)
				h.m.SetDesiredPaused(false)
				synctest.Wait()
				h.m.SetDesiredPaused(true)
				synctest.Wait()

				pending := h.bridge.Pending()
				So(pending, ShouldHaveLength, 2)
				So(pending[0].Kind, ShouldEqual, player.CallPlay)
				So(pending[1].Kind, ShouldEqual, player.CallPause)

				pending[1].Resolve(nil)
				synctest.Wait()
				pending[0].Resolve(nil)
				synctest.Wait()

				s := h.session()
				So(s.ActualPaused, ShouldBeTrue)
				So(s.DesiredPaused, ShouldBeTrue)
				So(h.rec.plays(), ShouldBeEmpty)
			})

			Convey("A superseded play resolving first is discarded as well", func() {
				h.bridge.Hold(true)
				h.m.SetDesiredPaused(false)
				synctest.Wait()
				h.m.SetDesiredPaused(true)
				synctest.Wait()

				pending := h.bridge.Pending()
				So(pending, ShouldHaveLength, 2)

				pending[0].Resolve(nil)
				synctest.Wait()
				So(h.rec.plays(), ShouldBeEmpty)
				So(h.m.Status().InFlight, ShouldBeTrue)

				pending[1].Resolve(nil)
				synctest.Wait()

				s := h.session()
				So(s.ActualPaused, ShouldBeTrue)
				So(s.DesiredPaused, ShouldBeTrue)
				So(h.rec.plays(), ShouldBeEmpty)
				So(h.m.Status().InFlight, ShouldBeFalse)
			})

			Convey("A play confirmed twice notifies once", func() {
				h.m.SetDesiredPaused(false)
				synctest.Wait()
				h.emit(player.Event{Kind: player.EventPlay, VideoID: videoA})

				So(h.rec.plays(), ShouldResemble, []bool{true})
			})

			Convey("The position is saved before the pause is sent", func() {
				h.m.SetDesiredPaused(false)
				synctest.Wait()
				h.emit(player.Event{Kind: player.EventTimeUpdate, VideoID: videoA, CurrentTime: 42})
				h.bridge.Observe(func(c player.Call) { h.journal.add("bridge:" + string(c.Kind)) })
				before := len(h.journal.list())

				h.m.SetDesiredPaused(true)
				synctest.Wait()

				So(h.journal.list()[before:], ShouldResemble, []string{"save", "bridge:pause"})
				saves := h.positions.allSaves()
				So(saves[len(saves)-1], ShouldResemble, save{videoID: videoA, offset: 42, immediate: true})
			})

			Convey("Failures are retried with backoff", func() {
				fault := errors.New("property unavailable")
				h.bridge.Fail(player.CallPlay, fault)
				h.m.SetDesiredPaused(false)
				synctest.Wait()
				So(h.bridge.CallsOf(player.CallPlay), ShouldHaveLength, 1)
				So(h.m.Status().InFlight, ShouldBeTrue)

				h.advance(499 * time.Millisecond)
				So(h.bridge.CallsOf(player.CallPlay), ShouldHaveLength, 1)

				h.advance(time.Millisecond)
				So(h.bridge.CallsOf(player.CallPlay), ShouldHaveLength, 2)
				So(h.rec.plays(), ShouldResemble, []bool{true})
				So(h.session().RetryCount, ShouldEqual, 0)
			})

			Convey("After the last attempt the command is accepted", func() {
				fault := errors.New("property unavailable")
				h.bridge.Fail(player.CallPlay, fault, fault, fault)
				h.m.SetDesiredPaused(false)
				h.advance(5 * time.Second)

				So(h.bridge.CallsOf(player.CallPlay), ShouldHaveLength, 3)
				So(h.rec.plays(), ShouldResemble, []bool{true})
				So(h.session().ActualPaused, ShouldBeFalse)
				So(h.m.Status().InFlight, ShouldBeFalse)
			})

			Convey("A newer command cancels a pending retry", func() {
				h.bridge.Fail(player.CallPlay, errors.New("property unavailable"))
				h.m.SetDesiredPaused(false)
				synctest.Wait()
				h.m.SetDesiredPaused(true)
				h.advance(5 * time.Second)

				So(h.bridge.CallsOf(player.CallPlay), ShouldHaveLength, 1)
				So(h.session().ActualPaused, ShouldBeTrue)
				So(h.rec.plays(), ShouldBeEmpty)
			})

			Convey("A newer command starts with a fresh retry budget", func() {
				fault := errors.New("property unavailable")
				h.bridge.Fail(player.CallPlay, fault)
				h.bridge.Fail(player.CallPause, fault, fault)
				h.m.SetDesiredPaused(false)
				synctest.Wait()
				h.m.SetDesiredPaused(true)
				h.advance(5 * time.Second)

				So(h.bridge.CallsOf(player.CallPause), ShouldHaveLength, 3)
				So(h.session().RetryCount, ShouldEqual, 0)
				So(h.session().ActualPaused, ShouldBeTrue)
			})

			Convey("A timed out command is assumed to have worked", func() {
				h.bridge.Hold(true)
				h.m.SetDesiredPaused(false)
				h.advance(3 * time.Second)

				So(h.bridge.CallsOf(player.CallPlay), ShouldHaveLength, 1)
				So(h.rec.plays(), ShouldResemble, []bool{true})
				So(h.session().Unconfirmed, ShouldBeFalse)
			})

			Convey("A detached context is assumed to have worked", func() {
				h.bridge.Detach()
				h.m.SetDesiredPaused(false)
				synctest.Wait()

				So(h.rec.plays(), ShouldResemble, []bool{true})
			})

			Convey("Mute is forwarded", func() {
				h.m.SetMuted(true)
				synctest.Wait()

				calls := h.bridge.CallsOf(player.CallSetMuted)
				So(calls, ShouldHaveLength, 1)
				So(calls[0].Muted, ShouldBeTrue)
			})
		})

		Convey("Given strict confirmation", t, func() {
			h := newHarness(func(o *Options) {
				o.Autoplay = false
				o.StrictConfirmation = true
			})
			Reset(func() { _ = h.m.Close() })
			h.start(videoA)

			Convey("A timed out play is reported as unconfirmed", func() {
				h.bridge.Hold(true)
				h.m.SetDesiredPaused(false)
				h.advance(3 * time.Second)

				h.rec.mu.Lock()
				unconfirmed := append([]bool(nil), h.rec.unconfirmed...)
				h.rec.mu.Unlock()
				So(unconfirmed, ShouldResemble, []bool{true})
				So(h.rec.plays(), ShouldBeEmpty)

				s := h.session()
				So(s.Unconfirmed, ShouldBeTrue)
				So(s.ActualPaused, ShouldBeTrue)

				Convey("A later play event confirms it", func() {
					h.emit(player.Event{Kind: player.EventPlay, VideoID: videoA})
					So(h.session().Unconfirmed, ShouldBeFalse)
					So(h.rec.plays(), ShouldResemble, []bool{true})
				})
			})
		})

		Convey("Given a platform without mute control", t, func() {
			h := newHarness(func(o *Options) { o.Capabilities.MuteToggle = false })
			Reset(func() { _ = h.m.Close() })
			h.start(videoA)

			h.m.SetMuted(true)
			synctest.Wait()
			So(h.bridge.CallsOf(player.CallSetMuted), ShouldBeEmpty)
		})
	})
}

func TestReadiness(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		Convey("Given a video that is not ready yet", t, func() {
			h := newHarness(nil)
			Reset(func() { _ = h.m.Close() })
			h.m.SelectVideo(video.Video{ID: videoA})
			synctest.Wait()

			Convey("A pause requested early wins over autoplay", func() {
				h.m.SetDesiredPaused(true)
				synctest.Wait()
				So(h.session().PendingDesiredPause.MustGet(), ShouldBeTrue)

				h.emit(player.Event{Kind: player.EventReady, VideoID: videoA})
				h.advance(100 * time.Millisecond)

				s := h.session()
				So(s.PendingDesiredPause.IsAbsent(), ShouldBeTrue)
				So(s.DesiredPaused, ShouldBeTrue)
				So(h.bridge.CallsOf(player.CallPlay), ShouldBeEmpty)
			})

			Convey("The last early request is the one applied", func() {
				h.m.SetDesiredPaused(true)
				h.m.Toggle()
				synctest.Wait()

				h.emit(player.Event{Kind: player.EventReady, VideoID: videoA})
				h.advance(100 * time.Millisecond)

				So(h.session().DesiredPaused, ShouldBeFalse)
				So(h.bridge.CallsOf(player.CallPlay), ShouldHaveLength, 1)
			})
		})
	})
}

func TestPlayerEvents(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		Convey("Given a playing video", t, func() {
			h := newHarness(func(o *Options) { o.SaveInterval = 5 })
			Reset(func() { _ = h.m.Close() })
			h.start(videoA)

			Convey("Time updates are saved every five seconds", func() {
				for at := 1; at <= 12; at++ {
					h.emit(player.Event{Kind: player.EventTimeUpdate, VideoID: videoA, CurrentTime: float64(at), Duration: 212})
				}

				So(h.positions.periodic(), ShouldResemble, []save{
					{videoID: videoA, offset: 5},
					{videoID: videoA, offset: 10},
				})
				So(h.session().LastKnownTime, ShouldEqual, 12)
				So(h.session().Duration, ShouldEqual, 212)
			})

			Convey("Fractional offsets are throttled on whole seconds", func() {
				for _, at := range []float64{1, 2.5, 4.9, 5.2, 7, 9.9, 10.1} {
					h.emit(player.Event{Kind: player.EventTimeUpdate, VideoID: videoA, CurrentTime: at})
				}

				So(h.positions.periodic(), ShouldResemble, []save{
					{videoID: videoA, offset: 5.2},
					{videoID: videoA, offset: 10.1},
				})
			})

			Convey("A seek backwards is saved too", func() {
				h.emit(player.Event{Kind: player.EventTimeUpdate, VideoID: videoA, CurrentTime: 30})
				h.emit(player.Event{Kind: player.EventTimeUpdate, VideoID: videoA, CurrentTime: 12})

				So(h.positions.periodic(), ShouldResemble, []save{
					{videoID: videoA, offset: 30},
					{videoID: videoA, offset: 12},
				})
			})

			Convey("The end resets the position", func() {
				h.emit(player.Event{Kind: player.EventTimeUpdate, VideoID: videoA, CurrentTime: 211})
				h.emit(player.Event{Kind: player.EventEnded, VideoID: videoA})

				So(h.rec.ends, ShouldResemble, []string{videoA})
				So(h.rec.plays(), ShouldResemble, []bool{true, false})
				So(h.positions.offsets, ShouldNotContainKey, videoA)
				So(h.journal.list(), ShouldContain, "reset")

				s := h.session()
				So(s.LastKnownTime, ShouldEqual, 0)
				So(s.ActualPaused, ShouldBeTrue)
			})

			Convey("A pause from inside the player is saved", func() {
				h.emit(player.Event{Kind: player.EventTimeUpdate, VideoID: videoA, CurrentTime: 3})
				h.emit(player.Event{Kind: player.EventPause, VideoID: videoA})

				So(h.positions.allSaves(), ShouldContain, save{videoID: videoA, offset: 3, immediate: true})
				So(h.rec.plays(), ShouldResemble, []bool{true, false})
				So(h.session().DesiredPaused, ShouldBeFalse)
			})

			Convey("Toggle after a pause from inside the player resumes", func() {
				h.emit(player.Event{Kind: player.EventPause, VideoID: videoA})
				h.m.Toggle()
				synctest.Wait()

				So(h.bridge.CallsOf(player.CallPlay), ShouldHaveLength, 2)
				So(h.session().ActualPaused, ShouldBeFalse)
				So(h.rec.plays(), ShouldResemble, []bool{true, false, true})

				Convey("and toggling again pauses", func() {
					h.m.Toggle()
					synctest.Wait()
					So(h.bridge.CallsOf(player.CallPause), ShouldHaveLength, 1)
					So(h.session().DesiredPaused, ShouldBeTrue)
				})
			})

			Convey("A player error moves the session to the error phase", func() {
				h.emit(player.Event{Kind: player.EventError, VideoID: videoA, Message: "loading failed"})

				s := h.session()
				So(s.Phase, ShouldEqual, PhaseError)
				var perr *Error
				So(errors.As(s.Err, &perr), ShouldBeTrue)
				So(perr.Kind, ShouldEqual, KindPlayback)
				So(perr.Retryable(), ShouldBeTrue)

				Convey("Requests are ignored until a reload", func() {
					h.m.SetDesiredPaused(true)
					synctest.Wait()
					So(h.bridge.CallsOf(player.CallPause), ShouldBeEmpty)
				})
			})

			Convey("Invalid events are dropped", func() {
				h.emit(player.Event{Kind: player.EventTimeUpdate, VideoID: videoA, CurrentTime: -4})
				So(h.session().LastKnownTime, ShouldEqual, 0)
			})
		})
	})
}

func TestLifecycle(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		Convey("Given a playing video on a platform without background audio", t, func() {
			h := newHarness(nil)
			Reset(func() { _ = h.m.Close() })
			h.start(videoA)
			h.bridge.SetCurrentTime(30, nil)

			h.m.EnterBackground()
			synctest.Wait()

			Convey("Backgrounding flushes the live offset and pauses", func() {
				So(h.positions.allSaves(), ShouldContain, save{videoID: videoA, offset: 30, immediate: true})
				So(h.bridge.CallsOf(player.CallPause), ShouldHaveLength, 1)

				s := h.session()
				So(s.ActualPaused, ShouldBeTrue)
				So(s.DesiredPaused, ShouldBeFalse)
				So(h.rec.plays(), ShouldResemble, []bool{true, false})
			})

			Convey("Foregrounding resumes what the user wanted", func() {
				h.m.EnterForeground()
				synctest.Wait()

				So(h.bridge.CallsOf(player.CallPlay), ShouldHaveLength, 2)
				So(h.rec.plays(), ShouldResemble, []bool{true, false, true})
			})

			Convey("A play while backgrounded is queued", func() {
				h.m.SetDesiredPaused(true)
				synctest.Wait()
				h.m.SetDesiredPaused(false)
				synctest.Wait()

				So(h.m.Status().Queued, ShouldEqual, 1)
				So(h.bridge.CallsOf(player.CallPlay), ShouldHaveLength, 1)

				Convey("and runs on foreground", func() {
					h.m.EnterForeground()
					synctest.Wait()

					So(h.m.Status().Queued, ShouldEqual, 0)
					So(h.bridge.CallsOf(player.CallPlay), ShouldHaveLength, 2)
					So(h.session().ActualPaused, ShouldBeFalse)
				})

				Convey("unless the user paused again", func() {
					h.m.SetDesiredPaused(true)
					synctest.Wait()
					h.m.EnterForeground()
					synctest.Wait()

					So(h.bridge.CallsOf(player.CallPlay), ShouldHaveLength, 1)
					So(h.session().ActualPaused, ShouldBeTrue)
				})
			})

			Convey("Leaving the background twice is harmless", func() {
				h.m.EnterForeground()
				h.m.EnterForeground()
				synctest.Wait()
				So(h.bridge.CallsOf(player.CallPlay), ShouldHaveLength, 2)
			})
		})

		Convey("Given a slow player when backgrounding", t, func() {
			h := newHarness(nil)
			Reset(func() { _ = h.m.Close() })
			h.start(videoA)
			h.emit(player.Event{Kind: player.EventTimeUpdate, VideoID: videoA, CurrentTime: 17})
			h.bridge.SetCurrentTime(0, player.ErrTimeout)

			h.m.EnterBackground()
			synctest.Wait()

			So(h.positions.allSaves(), ShouldContain, save{videoID: videoA, offset: 17, immediate: true})
		})

		Convey("Given a player slow to report its offset when backgrounding", t, func() {
			h := newHarness(func(o *Options) { o.Capabilities.BackgroundAudio = true })
			Reset(func() { _ = h.m.Close() })
			h.start(videoA)
			h.emit(player.Event{Kind: player.EventTimeUpdate, VideoID: videoA, CurrentTime: 17})
			h.bridge.SetTimeDelay(2 * time.Second)
			h.bridge.SetCurrentTime(18, nil)

			h.m.EnterBackground()
			synctest.Wait()

			Convey("The last known offset is written at once", func() {
				So(h.positions.allSaves(), ShouldContain, save{videoID: videoA, offset: 17, immediate: true})
				So(h.positions.offset(videoA), ShouldEqual, 17)
			})

			Convey("The live offset replaces it when it arrives", func() {
				h.advance(2 * time.Second)
				So(h.positions.offset(videoA), ShouldEqual, 18)
				So(h.session().LastKnownTime, ShouldEqual, 18)
			})
		})

		Convey("Given a platform with background audio", t, func() {
			h := newHarness(func(o *Options) { o.Capabilities.BackgroundAudio = true })
			Reset(func() { _ = h.m.Close() })
			h.start(videoA)

			h.m.EnterBackground()
			synctest.Wait()

			Convey("Playback continues", func() {
				So(h.bridge.CallsOf(player.CallPause), ShouldBeEmpty)
				So(h.session().ActualPaused, ShouldBeFalse)
			})

			Convey("A pause still runs immediately", func() {
				h.m.SetDesiredPaused(true)
				synctest.Wait()
				So(h.bridge.CallsOf(player.CallPause), ShouldHaveLength, 1)
			})
		})
	})
}

func TestCloseAndSubscribe(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		Convey("Given a playing video", t, func() {
			h := newHarness(nil)
			Reset(func() { _ = h.m.Close() })
			h.start(videoA)
			h.emit(player.Event{Kind: player.EventTimeUpdate, VideoID: videoA, CurrentTime: 12})

			Convey("Close flushes the position", func() {
				So(h.m.Close(), ShouldBeNil)
				So(h.positions.allSaves(), ShouldContain, save{videoID: videoA, offset: 12, immediate: true})

				So(errors.Is(h.m.Close(), ErrClosed), ShouldBeTrue)
				So(h.m.Status().Session, ShouldBeNil)
			})

			Convey("A cancelled subscription hears nothing more", func() {
				rec := &recorder{}
				cancel := h.m.Subscribe(rec.listener())
				h.emit(player.Event{Kind: player.EventTimeUpdate, VideoID: videoA, CurrentTime: 13})
				cancel()
				synctest.Wait()
				h.emit(player.Event{Kind: player.EventTimeUpdate, VideoID: videoA, CurrentTime: 14})

				rec.mu.Lock()
				defer rec.mu.Unlock()
				So(rec.times, ShouldResemble, []float64{13})
			})
		})
	})
}

func TestPlaySession(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		Convey("Given a video played from the start", t, func() {
			h := newHarness(func(o *Options) { o.Autoplay = false })
			Reset(func() { _ = h.m.Close() })

			h.m.SelectVideo(video.Video{ID: "123456789"})
			synctest.Wait()
			h.emit(player.Event{Kind: player.EventReady, VideoID: "123456789"})
			h.advance(100 * time.Millisecond)

			h.m.SetDesiredPaused(false)
			synctest.Wait()
			h.emit(player.Event{Kind: player.EventPlay, VideoID: "123456789"})

			So(h.bridge.CallsOf(player.CallPlay), ShouldHaveLength, 1)
			So(h.rec.plays(), ShouldResemble, []bool{true})

			for at := 1; at <= 6; at++ {
				h.emit(player.Event{Kind: player.EventTimeUpdate, VideoID: "123456789", CurrentTime: float64(at)})
			}

			periodic := h.positions.periodic()
			So(periodic, ShouldHaveLength, 1)
			So(periodic[0].videoID, ShouldEqual, "123456789")
			So(periodic[0].offset, ShouldAlmostEqual, 5, 0.5)
		})
	})
}

func TestListenerReentry(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		Convey("A listener may steer the machine from a callback", t, func() {
			h := newHarness(nil)
			Reset(func() { _ = h.m.Close() })
			h.m.Subscribe(Listener{
				OnVideoEnd: func(string) { h.m.SelectVideo(video.Video{ID: videoB}) },
			})
			h.start(videoA)

			h.emit(player.Event{Kind: player.EventEnded, VideoID: videoA})

			So(h.session().VideoID, ShouldEqual, videoB)
			loads := h.bridge.CallsOf(player.CallLoad)
			So(loads[len(loads)-1].VideoID, ShouldEqual, videoB)
		})
	})
}

func TestBackoff(t *testing.T) {
	Convey("backoff doubles up to the ceiling", t, func() {
		base, ceiling := 500*time.Millisecond, 2*time.Second
		So(backoff(1, base, ceiling), ShouldEqual, 500*time.Millisecond)
		So(backoff(2, base, ceiling), ShouldEqual, time.Second)
		So(backoff(3, base, ceiling), ShouldEqual, 2*time.Second)
		So(backoff(10, base, ceiling), ShouldEqual, 2*time.Second)
	})
}

func TestOptionsDefaults(t *testing.T) {
	Convey("Zero options fall back to defaults", t, func() {
		opts := Options{}.withDefaults()
		So(opts.MaxRetries, ShouldEqual, 3)
		So(opts.CommandTimeout, ShouldEqual, 3*time.Second)
		So(opts.SaveInterval, ShouldEqual, 5)
		So(opts.Diagnostics, ShouldHaveSameTypeAs, NopDiagnostics{})
	})
}
