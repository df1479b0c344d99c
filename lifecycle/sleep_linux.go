//go:build linux

package lifecycle

import (
	"context"

	"github.com/godbus/dbus/v5"
	"github.com/vidtune-cli/vidtune/log"
)

const (
	login1Interface = "org.freedesktop.login1.Manager"
	login1Member    = "PrepareForSleep"
)

// SleepSource backgrounds the app while the machine suspends, using the
// logind PrepareForSleep signal on the system bus.
type SleepSource struct{}

func (SleepSource) Name() string { return "system sleep" }

// Run blocks until ctx is done. A missing system bus is not an error, the
// source just stays silent.
func (SleepSource) Run(ctx context.Context, notify func(State)) error {
	conn, err := dbus.ConnectSystemBus()
	if err != nil {
		log.Warnf("system bus unavailable, sleep events disabled: %v", err)
		<-ctx.Done()
		return nil
	}
	defer conn.Close()

	if err := conn.AddMatchSignal(
		dbus.WithMatchInterface(login1Interface),
		dbus.WithMatchMember(login1Member),
	); err != nil {
		log.Warnf("subscribe to %s: %v", login1Member, err)
		<-ctx.Done()
		return nil
	}

	signals := make(chan *dbus.Signal, 4)
	conn.Signal(signals)
	defer conn.RemoveSignal(signals)

	for {
		select {
		case <-ctx.Done():
			return nil
		case sig, ok := <-signals:
			if !ok {
				return nil
			}
			if state, ok := sleepState(sig); ok {
				notify(state)
			}
		}
	}
}

// sleepState decodes a PrepareForSleep signal: true before sleeping,
// false after waking up.
func sleepState(sig *dbus.Signal) (State, bool) {
	if sig == nil || sig.Name != login1Interface+"."+login1Member || len(sig.Body) != 1 {
		return Foreground, false
	}
	sleeping, ok := sig.Body[0].(bool)
	if !ok {
		return Foreground, false
	}
	if sleeping {
		return Background, true
	}
	return Foreground, true
}
