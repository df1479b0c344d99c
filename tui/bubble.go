package tui

import (
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/vidtune-cli/vidtune/color"
	"github.com/vidtune-cli/vidtune/internal/ui"
	"github.com/vidtune-cli/vidtune/lifecycle"
	"github.com/vidtune-cli/vidtune/open"
	"github.com/vidtune-cli/vidtune/playback"
	"github.com/vidtune-cli/vidtune/style"
	"github.com/vidtune-cli/vidtune/util"
	"github.com/vidtune-cli/vidtune/video"
)

// suspendSettle lets the player pause before the process stops.
const suspendSettle = 300 * time.Millisecond

// Controller is the part of the playback machine the interface drives.
type Controller interface {
	SelectVideo(v video.Video)
	Toggle()
	SetMuted(muted bool)
	Reload()
}

// statefulBubble is the now playing screen.
type statefulBubble struct {
	state  state
	keymap *statefulKeymap

	// components
	spinnerC  spinner.Model
	progressC progress.Model
	helpC     help.Model
	notifier  *ui.Model

	controller Controller
	notify     func(lifecycle.State)
	openURL    func(string) error

	videos  []video.Video
	current int

	playing     bool
	unconfirmed bool
	muted       bool
	position    float64
	duration    float64
	lastError   error

	width, height int

	options *Options
}

// messages forwarded from the playback machine
type (
	playStateMsg   bool
	unconfirmedMsg bool
	timeMsg        struct{ current, duration float64 }
	endedMsg       struct{ videoID string }
	errorMsg       struct{ err error }
	phaseMsg       struct {
		videoID string
		phase   playback.Phase
	}
	suspendMsg struct{}
)

// listener forwards machine notifications into the program.
func listener(send func(tea.Msg)) playback.Listener {
	return playback.Listener{
		OnPlayStateChange: func(playing bool) { send(playStateMsg(playing)) },
		OnUnconfirmed:     func(playing bool) { send(unconfirmedMsg(playing)) },
		OnTimeUpdate: func(current, duration float64) {
			send(timeMsg{current: current, duration: duration})
		},
		OnVideoEnd: func(videoID string) { send(endedMsg{videoID: videoID}) },
		OnError:    func(err error) { send(errorMsg{err: err}) },
		OnPhaseChange: func(videoID string, phase playback.Phase) {
			send(phaseMsg{videoID: videoID, phase: phase})
		},
	}
}

func newBubble(controller Controller, notify func(lifecycle.State), options *Options) *statefulBubble {
	keymap := newStatefulKeymap()
	bubble := &statefulBubble{
		keymap:     keymap,
		spinnerC:   spinner.New(),
		progressC:  progress.New(progress.WithSolidFill(string(color.Purple)), progress.WithoutPercentage()),
		helpC:      help.New(),
		notifier:   &ui.Model{},
		controller: controller,
		notify:     notify,
		openURL:    open.Start,
		videos:     options.Videos,
		muted:      options.Muted,
		options:    options,
	}

	bubble.spinnerC.Spinner = spinner.Dot
	bubble.spinnerC.Style = style.New().Foreground(color.Purple)
	bubble.setState(loadingState)
	return bubble
}

func (b *statefulBubble) setState(s state) {
	b.state = s
	b.keymap.setState(s)
}

func (b *statefulBubble) currentVideo() video.Video {
	return b.videos[b.current]
}

// selectVideo switches to the video at index i.
func (b *statefulBubble) selectVideo(i int) {
	b.current = i
	b.playing = false
	b.unconfirmed = false
	b.position = 0
	b.duration = b.currentVideo().DurationSeconds
	b.lastError = nil
	b.setState(loadingState)
	b.controller.SelectVideo(b.currentVideo())
}

func (b *statefulBubble) raiseError(err error) {
	b.lastError = err
	b.playing = false
	b.setState(errorState)
}

func (b *statefulBubble) resize(width, height int) {
	b.width, b.height = width, height
	b.helpC.Width = width

	b.progressC.Width = util.Clamp(width-4, 10, 80)
}
