// Package ui provides internal state management and rendering utilities for ephemeral terminal notifications.
package ui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/vidtune-cli/vidtune/style"
)

const notificationTTL = 3 * time.Second

// Model holds the notification shown next to the status line.
type Model struct {
	notification string
	// generation guards against an old clear message wiping a newer notification
	generation int
}

// NotificationMsg replaces the current notification.
type NotificationMsg string

// ClearNotificationMsg resets the notification it was scheduled for.
type ClearNotificationMsg struct {
	generation int
}

// Notify returns a tea.Cmd that shows text.
func Notify(text string) tea.Cmd {
	return func() tea.Msg {
		return NotificationMsg(text)
	}
}

func clearNotification(generation int) tea.Cmd {
	return tea.Tick(notificationTTL, func(time.Time) tea.Msg {
		return ClearNotificationMsg{generation: generation}
	})
}

// Update processes incoming messages to modify the notification state.
func (m *Model) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case NotificationMsg:
		m.notification = string(msg)
		m.generation++
		return clearNotification(m.generation)
	case ClearNotificationMsg:
		if msg.generation == m.generation {
			m.notification = ""
		}
	}
	return nil
}

// Current returns the visible notification, if any.
func (m *Model) Current() string {
	return m.notification
}

// View appends the notification to line.
func (m *Model) View(line string) string {
	if m.notification == "" {
		return line
	}
	return line + "  " + style.Faint(m.notification)
}
