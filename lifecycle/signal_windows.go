package lifecycle

import (
	"context"
	"time"
)

// SignalSource does nothing on windows, which has no job control.
type SignalSource struct {
	Settle time.Duration
}

func (SignalSource) Name() string { return "job control" }

func (SignalSource) Run(ctx context.Context, _ func(State)) error {
	<-ctx.Done()
	return nil
}
