package playback

import "time"

// CommandKind is the instruction a command carries.
type CommandKind string

const (
	CommandPlay  CommandKind = "play"
	CommandPause CommandKind = "pause"
)

// Outcome is how a command ended.
type Outcome string

const (
	OutcomeConfirmed    Outcome = "confirmed"
	OutcomeStale        Outcome = "stale"
	OutcomeSoftAccepted Outcome = "soft-accepted"
	OutcomeUnconfirmed  Outcome = "unconfirmed"
)

// Diagnostics observes the machine. Calls happen on the machine goroutine
// and must return quickly.
type Diagnostics interface {
	CommandIssued(videoID string, kind CommandKind)
	CommandSettled(videoID string, kind CommandKind, outcome Outcome)
	CommandRetried(videoID string, kind CommandKind, attempt int, delay time.Duration)
	CommandQueued(videoID string, kind CommandKind)
	EventDiscarded(videoID string)
	PositionSaved(videoID string, offset float64, immediate bool)
	PhaseChanged(videoID string, phase Phase)
}

// NopDiagnostics ignores everything.
type NopDiagnostics struct{}

func (NopDiagnostics) CommandIssued(string, CommandKind) {}
func (NopDiagnostics) CommandSettled(string, CommandKind, Outcome) {}
func (NopDiagnostics) CommandRetried(string, CommandKind, int, time.Duration) {}
func (NopDiagnostics) CommandQueued(string, CommandKind) {}
func (NopDiagnostics) EventDiscarded(string) {}
func (NopDiagnostics) PositionSaved(string, float64, bool) {}
func (NopDiagnostics) PhaseChanged(string, Phase) {}
