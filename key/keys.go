// Package key defines the canonical set of configuration identifiers used for centralized settings management.
package key

// Embedded player - these keys shape how a video context is created.
const (
	PlayerBinary       = "player.binary"
	PlayerBaseURL      = "player.base_url"
	PlayerQuality      = "player.quality"
	PlayerMuted        = "player.muted"
	PlayerAutoplay     = "player.autoplay"
	PlayerHideBranding = "player.hide_branding"
)

// Playback synchronization - timings and policies of the playback state machine.
const (
	PlaybackTransitionWindowMs  = "playback.transition_window_ms"
	PlaybackReadyGraceMs        = "playback.ready_grace_ms"
	PlaybackMaxRetries          = "playback.max_retries"
	PlaybackCommandTimeoutMs    = "playback.command_timeout_ms"
	PlaybackTimeQueryTimeoutMs  = "playback.time_query_timeout_ms"
	PlaybackSaveIntervalSeconds = "playback.save_interval_seconds"
	PlaybackStrictConfirmation  = "playback.strict_confirmation"
)

// Platform capabilities.
const (
	PlatformBackgroundAudio = "platform.background_audio"
	PlatformMuteToggle      = "platform.mute_toggle"
)

// Catalog metadata.
const (
	CatalogLookup    = "catalog.lookup"
	CatalogOEmbedURL = "catalog.oembed_url"
)

// Position persistence.
const (
	PositionsBackend = "positions.backend"
)

// App-lifecycle signal sources.
const (
	LifecycleSuspendSignal = "lifecycle.suspend_signal"
	LifecycleSleepSignal   = "lifecycle.sleep_signal"
	LifecycleFocus         = "lifecycle.focus"
)

// Iconography - these keys manage the visual rendering of UI symbols.
const (
	IconsVariant = "icons.variant"
)

// Credentials.
const (
	AuthToken = "auth.token"
)

// Logging Infrastructure - these keys manage the application's internal diagnostics and auditing system.
const (
	LogsWrite = "logs.write"
	LogsLevel = "logs.level"
	LogsJson  = "logs.json"
)

// CLI Execution Environment - these flags and settings govern the non-TUI application behavior.
const (
	CliColored      = "cli.colored"
	CliVersionCheck = "cli.version_check"
)
