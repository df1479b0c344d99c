//go:build !linux

package lifecycle

import "context"

// SleepSource is silent where logind is not available.
type SleepSource struct{}

func (SleepSource) Name() string { return "system sleep" }

func (SleepSource) Run(ctx context.Context, _ func(State)) error {
	<-ctx.Done()
	return nil
}
