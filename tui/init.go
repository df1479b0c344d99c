package tui

import (
	tea "github.com/charmbracelet/bubbletea"
)

type selectMsg struct{ index int }

// Init starts the spinner and loads the first video.
func (b *statefulBubble) Init() tea.Cmd {
	return tea.Batch(b.spinnerC.Tick, func() tea.Msg {
		return selectMsg{index: 0}
	})
}
