package tui

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/truncate"
	"github.com/muesli/reflow/wrap"
	"github.com/vidtune-cli/vidtune/color"
	"github.com/vidtune-cli/vidtune/constant"
	"github.com/vidtune-cli/vidtune/icon"
	"github.com/vidtune-cli/vidtune/style"
)

var paddingStyle = lipgloss.NewStyle().Padding(1, 2)

func (b *statefulBubble) View() string {
	var body []string

	switch b.state {
	case loadingState:
		body = b.viewLoading()
	case playingState:
		body = b.viewPlaying()
	case endedState:
		body = b.viewEnded()
	case errorState:
		body = b.viewError()
	default:
		body = []string{"Unknown state"}
	}

	lines := append([]string{b.viewHeader(), ""}, body...)
	lines = append(lines, "", b.helpC.View(b.keymap))
	return paddingStyle.Render(strings.Join(lines, "\n"))
}

func (b *statefulBubble) viewHeader() string {
	header := style.Title(constant.Vidtune)
	if len(b.videos) > 1 {
		header += " " + style.Faint(fmt.Sprintf("%d/%d", b.current+1, len(b.videos)))
	}
	return header
}

func (b *statefulBubble) viewTitle() string {
	title := b.currentVideo().String()
	if b.width > 8 {
		title = truncate.StringWithTail(title, uint(b.width-8), "…")
	}
	return style.Bold(title)
}

func (b *statefulBubble) viewLoading() []string {
	return []string{
		icon.Get(icon.Video) + " " + b.viewTitle(),
		"",
		b.notifier.View(b.spinnerC.View() + " Loading"),
	}
}

func (b *statefulBubble) viewPlaying() []string {
	var status string
	switch {
	case b.unconfirmed:
		status = style.Fg(color.Yellow)(icon.Get(icon.Warn) + " Unconfirmed")
	case b.playing:
		status = style.Fg(color.Green)(icon.Get(icon.Play) + " Playing")
	default:
		status = icon.Get(icon.Pause) + " Paused"
	}
	if b.muted {
		status += style.Faint(" (muted)")
	}

	return []string{
		icon.Get(icon.Video) + " " + b.viewTitle(),
		"",
		b.viewProgress(),
		b.notifier.View(status),
	}
}

func (b *statefulBubble) viewEnded() []string {
	return []string{
		icon.Get(icon.Video) + " " + b.viewTitle(),
		"",
		b.notifier.View(style.Fg(color.Green)(icon.Get(icon.Success) + " Finished")),
	}
}

func (b *statefulBubble) viewError() []string {
	msg := "unknown error"
	if b.lastError != nil {
		msg = b.lastError.Error()
	}
	if b.width > 8 {
		msg = wrap.String(msg, b.width-8)
	}

	return []string{
		style.ErrorTitle("Error"),
		"",
		icon.Get(icon.Video) + " " + b.viewTitle(),
		style.Fg(color.Red)(msg),
		"",
		b.notifier.View(style.Faint("press r to reload")),
	}
}

func (b *statefulBubble) viewProgress() string {
	clock := formatClock(b.position)
	if b.duration <= 0 {
		return clock
	}

	percent := math.Min(1, math.Max(0, b.position/b.duration))
	return b.progressC.ViewAs(percent) + " " + clock + style.Faint(" / "+formatClock(b.duration))
}

// formatClock renders seconds as m:ss, or h:mm:ss past the hour.
func formatClock(seconds float64) string {
	total := int(math.Max(0, seconds))
	h, m, s := total/3600, total%3600/60, total%60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}
