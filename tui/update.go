package tui

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/samber/lo"
	"github.com/vidtune-cli/vidtune/constant"
	"github.com/vidtune-cli/vidtune/internal/ui"
	"github.com/vidtune-cli/vidtune/lifecycle"
	"github.com/vidtune-cli/vidtune/playback"
)

func (b *statefulBubble) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd
	if cmd := b.notifier.Update(msg); cmd != nil {
		cmds = append(cmds, cmd)
	}

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		b.resize(msg.Width, msg.Height)
	case tea.KeyMsg:
		if cmd := b.handleKey(msg); cmd != nil {
			cmds = append(cmds, cmd)
		}
	case selectMsg:
		b.selectVideo(msg.index)
	case suspendMsg:
		return b, tea.Suspend
	case tea.ResumeMsg:
		b.notify(lifecycle.Foreground)
	case tea.FocusMsg:
		if b.options.Focus {
			b.notify(lifecycle.Foreground)
		}
	case tea.BlurMsg:
		if b.options.Focus {
			b.notify(lifecycle.Background)
		}
	case phaseMsg:
		if msg.videoID != b.currentVideo().ID {
			break
		}
		switch msg.phase {
		case playback.PhaseLoading:
			b.setState(loadingState)
		case playback.PhaseReady:
			b.setState(playingState)
		}
	case playStateMsg:
		b.playing = bool(msg)
		b.unconfirmed = false
	case unconfirmedMsg:
		b.unconfirmed = true
		cmds = append(cmds, ui.Notify("player did not confirm"))
	case timeMsg:
		b.position = msg.current
		if msg.duration > 0 {
			b.duration = msg.duration
		}
	case endedMsg:
		if msg.videoID != b.currentVideo().ID {
			break
		}
		if b.options.AutoNext && b.current < len(b.videos)-1 {
			b.selectVideo(b.current + 1)
			break
		}
		b.position = 0
		b.playing = false
		b.setState(endedState)
	case errorMsg:
		b.raiseError(msg.err)
	case spinner.TickMsg:
		var cmd tea.Cmd
		b.spinnerC, cmd = b.spinnerC.Update(msg)
		cmds = append(cmds, cmd)
	}

	return b, tea.Batch(cmds...)
}

func (b *statefulBubble) handleKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, b.keymap.forceQuit), key.Matches(msg, b.keymap.quit):
		return tea.Quit
	case key.Matches(msg, b.keymap.suspend):
		b.notify(lifecycle.Background)
		return tea.Tick(suspendSettle, func(time.Time) tea.Msg { return suspendMsg{} })
	case key.Matches(msg, b.keymap.showHelp):
		b.helpC.ShowAll = !b.helpC.ShowAll
	case key.Matches(msg, b.keymap.next):
		if b.current == len(b.videos)-1 {
			return ui.Notify("last video")
		}
		b.selectVideo(b.current + 1)
	case key.Matches(msg, b.keymap.prev):
		if b.current == 0 {
			return ui.Notify("first video")
		}
		b.selectVideo(b.current - 1)
	case key.Matches(msg, b.keymap.reload):
		if b.state == playingState || b.state == errorState || b.state == endedState {
			b.lastError = nil
			b.setState(loadingState)
			b.controller.Reload()
		}
	case key.Matches(msg, b.keymap.playPause):
		if b.state == playingState {
			b.controller.Toggle()
		}
	case key.Matches(msg, b.keymap.openPage):
		url := constant.VideoPageURL + b.currentVideo().ID
		return func() tea.Msg {
			if err := b.openURL(url); err != nil {
				return ui.NotificationMsg("could not open browser")
			}
			return ui.NotificationMsg("opened in browser")
		}
	case key.Matches(msg, b.keymap.mute):
		b.muted = !b.muted
		b.controller.SetMuted(b.muted)
		return ui.Notify(fmt.Sprintf("sound %s", lo.Ternary(b.muted, "off", "on")))
	}
	return nil
}
