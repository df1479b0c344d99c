//go:build !windows

package lifecycle

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/vidtune-cli/vidtune/log"
)

// SignalSource maps terminal job control to app state: a suspend request
// backgrounds the app before the process stops, a continue foregrounds it.
type SignalSource struct {
	// Settle is how long the hooks get to act before the process stops.
	Settle time.Duration
}

func (SignalSource) Name() string { return "job control" }

func (s SignalSource) Run(ctx context.Context, notify func(State)) error {
	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGTSTP, syscall.SIGCONT)
	defer signal.Stop(signals)

	for {
		select {
		case <-ctx.Done():
			return nil
		case sig := <-signals:
			switch sig {
			case syscall.SIGTSTP:
				notify(Background)
				select {
				case <-time.After(s.Settle):
				case <-ctx.Done():
					return nil
				}
				log.Debug("stopping on suspend request")
				if err := syscall.Kill(os.Getpid(), syscall.SIGSTOP); err != nil {
					return err
				}
			case syscall.SIGCONT:
				notify(Foreground)
			}
		}
	}
}
