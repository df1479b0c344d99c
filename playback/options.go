package playback

import (
	"time"

	"github.com/spf13/viper"
	"github.com/vidtune-cli/vidtune/config"
	"github.com/vidtune-cli/vidtune/key"
	"github.com/vidtune-cli/vidtune/player"
)

// Capabilities describe what the host platform allows.
type Capabilities struct {
	// BackgroundAudio keeps playing while the app is backgrounded.
	BackgroundAudio bool
	// MuteToggle allows SetMuted to reach the player.
	MuteToggle bool
}

// Options tune a Machine. Zero values fall back to DefaultOptions.
type Options struct {
	// TransitionWindow suppresses reconciliation after a video switch.
	TransitionWindow time.Duration
	// ReadyGrace delays a pause requested before the context was ready.
	ReadyGrace time.Duration
	// MaxRetries is the number of attempts a command gets before it is accepted as is.
	MaxRetries  int
	BackoffBase time.Duration
	BackoffMax  time.Duration

	CommandTimeout   time.Duration
	TimeQueryTimeout time.Duration
	// SaveInterval is the minimum distance in whole seconds between two
	// periodic position writes.
	SaveInterval int

	Autoplay bool
	// StrictConfirmation reports timed out commands as unconfirmed instead
	// of assuming they took effect.
	StrictConfirmation bool

	Capabilities Capabilities
	// Load is the template for every new context. Autoplay and StartOffset
	// are filled per session.
	Load        player.LoadParams
	Diagnostics Diagnostics
}

func DefaultOptions() Options {
	return Options{
		TransitionWindow: 100 * time.Millisecond,
		ReadyGrace:       100 * time.Millisecond,
		MaxRetries:       3,
		BackoffBase:      500 * time.Millisecond,
		BackoffMax:       2 * time.Second,
		CommandTimeout:   3 * time.Second,
		TimeQueryTimeout: 2500 * time.Millisecond,
		SaveInterval:     5,
		Autoplay:         true,
		Capabilities:     Capabilities{MuteToggle: true},
		Load:             player.LoadParams{Quality: "auto", HideBranding: true},
		Diagnostics:      NopDiagnostics{},
	}
}

// OptionsFromConfig reads Options from the loaded configuration.
func OptionsFromConfig() Options {
	opts := DefaultOptions()
	opts.TransitionWindow = config.Duration(key.PlaybackTransitionWindowMs)
	opts.ReadyGrace = config.Duration(key.PlaybackReadyGraceMs)
	opts.MaxRetries = viper.GetInt(key.PlaybackMaxRetries)
	opts.CommandTimeout = config.Duration(key.PlaybackCommandTimeoutMs)
	opts.TimeQueryTimeout = config.Duration(key.PlaybackTimeQueryTimeoutMs)
	opts.SaveInterval = viper.GetInt(key.PlaybackSaveIntervalSeconds)
	opts.StrictConfirmation = viper.GetBool(key.PlaybackStrictConfirmation)
	opts.Autoplay = viper.GetBool(key.PlayerAutoplay)
	opts.Capabilities = Capabilities{
		BackgroundAudio: viper.GetBool(key.PlatformBackgroundAudio),
		MuteToggle:      viper.GetBool(key.PlatformMuteToggle),
	}
	opts.Load = player.LoadParams{
		Quality:      viper.GetString(key.PlayerQuality),
		Muted:        viper.GetBool(key.PlayerMuted),
		HideBranding: viper.GetBool(key.PlayerHideBranding),
	}
	return opts
}

func (o Options) withDefaults() Options {
	def := DefaultOptions()
	if o.TransitionWindow < 0 {
		o.TransitionWindow = 0
	}
	if o.ReadyGrace < 0 {
		o.ReadyGrace = 0
	}
	if o.MaxRetries <= 0 {
		o.MaxRetries = def.MaxRetries
	}
	if o.BackoffBase <= 0 {
		o.BackoffBase = def.BackoffBase
	}
	if o.BackoffMax <= 0 {
		o.BackoffMax = def.BackoffMax
	}
	if o.CommandTimeout <= 0 {
		o.CommandTimeout = def.CommandTimeout
	}
	if o.TimeQueryTimeout <= 0 {
		o.TimeQueryTimeout = def.TimeQueryTimeout
	}
	if o.SaveInterval <= 0 {
		o.SaveInterval = def.SaveInterval
	}
	if o.Diagnostics == nil {
		o.Diagnostics = NopDiagnostics{}
	}
	return o
}

// backoff is the delay before the retry following the given number of
// consecutive failures: base, 2*base, 4*base... capped at ceiling.
func backoff(failures int, base, ceiling time.Duration) time.Duration {
	d := base
	for i := 1; i < failures; i++ {
		d *= 2
		if d >= ceiling {
			return ceiling
		}
	}
	if d > ceiling {
		return ceiling
	}
	return d
}
