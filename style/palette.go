package style

import "github.com/charmbracelet/lipgloss"

// True color accents used by boxed messages.
var (
	Text        = lipgloss.Color("#cdd6f4")
	AccentColor = lipgloss.Color("#cba6f7")
	HiRed       = lipgloss.Color("#f38ba8")
)
