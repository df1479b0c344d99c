// Package tui provides the primary terminal user interface implementation.
package tui

import (
	"context"
	"errors"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/vidtune-cli/vidtune/lifecycle"
	"github.com/vidtune-cli/vidtune/playback"
	"github.com/vidtune-cli/vidtune/video"
)

// Options encapsulates the runtime configuration for the terminal user interface.
type Options struct {
	Machine   *playback.Machine
	Lifecycle *lifecycle.Adapter
	// Videos is the playlist, at least one entry.
	Videos []video.Video
	Muted  bool
	// Focus maps terminal focus changes to app state.
	Focus bool
	// AutoNext starts the next video when one ends.
	AutoNext bool
}

// Run executes the Bubble Tea program until the user quits or ctx is done.
func Run(ctx context.Context, options *Options) error {
	bubble := newBubble(options.Machine, options.Lifecycle.Notify, options)

	programOptions := []tea.ProgramOption{tea.WithAltScreen(), tea.WithContext(ctx)}
	if options.Focus {
		programOptions = append(programOptions, tea.WithReportFocus())
	}

	program := tea.NewProgram(bubble, programOptions...)
	cancel := options.Machine.Subscribe(listener(program.Send))
	defer cancel()

	_, err := program.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
