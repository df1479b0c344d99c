package tui

import (
	"github.com/charmbracelet/bubbles/key"
	"github.com/vidtune-cli/vidtune/color"
	"github.com/vidtune-cli/vidtune/style"
)

// statefulKeymap defines the keyboard interactions available within various application states.
type statefulKeymap struct {
	state state

	quit, forceQuit,
	playPause,
	next, prev,
	reload,
	mute,
	openPage,
	suspend,
	showHelp key.Binding
}

func (k *statefulKeymap) setState(newState state) {
	k.state = newState
}

func newStatefulKeymap() *statefulKeymap {
	return &statefulKeymap{
		quit: key.NewBinding(
			key.WithKeys("q"),
			key.WithHelp("q", "quit"),
		),
		forceQuit: key.NewBinding(
			key.WithKeys("ctrl+c", "ctrl+d"),
			key.WithHelp("ctrl+c", "quit"),
		),
		playPause: key.NewBinding(
			key.WithKeys(" "),
			key.WithHelp(style.Fg(color.Yellow)("space"), style.Fg(color.Yellow)("pause/resume")),
		),
		next: key.NewBinding(
			key.WithKeys("n", "right"),
			key.WithHelp("n", "next video"),
		),
		prev: key.NewBinding(
			key.WithKeys("p", "left"),
			key.WithHelp("p", "prev video"),
		),
		reload: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "reload"),
		),
		mute: key.NewBinding(
			key.WithKeys("m"),
			key.WithHelp("m", "mute"),
		),
		openPage: key.NewBinding(
			key.WithKeys("o"),
			key.WithHelp("o", "open in browser"),
		),
		suspend: key.NewBinding(
			key.WithKeys("ctrl+z"),
			key.WithHelp("ctrl+z", "suspend"),
		),
		showHelp: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
	}
}

func (k *statefulKeymap) help() ([]key.Binding, []key.Binding) {
	h := func(bindings ...key.Binding) []key.Binding {
		return bindings
	}

	switch k.state {
	case loadingState:
		return h(k.next, k.prev, k.quit), h(k.next, k.prev, k.suspend, k.quit, k.forceQuit)
	case playingState:
		return h(k.playPause, k.next, k.mute, k.showHelp), h(k.playPause, k.next, k.prev, k.mute, k.reload, k.openPage, k.suspend, k.quit)
	case endedState:
		return h(k.next, k.reload, k.quit), h(k.next, k.prev, k.reload, k.quit)
	case errorState:
		return h(k.reload, k.next, k.quit), h(k.reload, k.next, k.prev, k.openPage, k.quit)
	default:
		return h(k.quit), h(k.quit)
	}
}

func (k *statefulKeymap) ShortHelp() []key.Binding {
	short, _ := k.help()
	return short
}

func (k *statefulKeymap) FullHelp() [][]key.Binding {
	_, full := k.help()
	return [][]key.Binding{full}
}
