// Package lifecycle turns app visibility changes into playback hooks.
package lifecycle

import (
	"context"
	"fmt"
	"sync"

	"github.com/vidtune-cli/vidtune/log"
	"golang.org/x/sync/errgroup"
)

// State is the visibility of the app.
type State int

const (
	Foreground State = iota
	Background
)

func (s State) String() string {
	switch s {
	case Foreground:
		return "foreground"
	case Background:
		return "background"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Hooks receive transitions. *playback.Machine implements it.
type Hooks interface {
	EnterBackground()
	EnterForeground()
}

// Source reports platform visibility changes until ctx is done.
type Source interface {
	Name() string
	Run(ctx context.Context, notify func(State)) error
}

// Adapter forwards deduplicated transitions to Hooks.
type Adapter struct {
	hooks Hooks

	mu    sync.Mutex
	state State
}

// New returns an Adapter that starts in the foreground.
func New(hooks Hooks) *Adapter {
	return &Adapter{hooks: hooks}
}

// Notify records s and calls the matching hook when it differs from the
// current state.
func (a *Adapter) Notify(s State) {
	a.mu.Lock()
	if a.state == s {
		a.mu.Unlock()
		return
	}
	a.state = s
	a.mu.Unlock()

	log.WithFields(log.Fields{"state": s}).Debug("app state changed")
	switch s {
	case Background:
		a.hooks.EnterBackground()
	case Foreground:
		a.hooks.EnterForeground()
	}
}

func (a *Adapter) State() State {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state
}

// Run drives the adapter from every source until ctx is done or one of
// them fails.
func (a *Adapter) Run(ctx context.Context, sources ...Source) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, src := range sources {
		g.Go(func() error {
			if err := src.Run(ctx, a.Notify); err != nil {
				return fmt.Errorf("%s: %w", src.Name(), err)
			}
			return nil
		})
	}
	return g.Wait()
}
