// Package config declares every setting vidtune understands and loads them
// through viper.
package config

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/samber/lo"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
	"github.com/vidtune-cli/vidtune/color"
	"github.com/vidtune-cli/vidtune/constant"
	"github.com/vidtune-cli/vidtune/icon"
	"github.com/vidtune-cli/vidtune/key"
	"github.com/vidtune-cli/vidtune/kv"
	"github.com/vidtune-cli/vidtune/player"
	"github.com/vidtune-cli/vidtune/style"
)

// Field is one setting with its default value.
type Field struct {
	Key         string
	Value       any
	Description string
	// Choices lists the accepted values of enumerated string keys.
	Choices func() []string
}

// Accepts reports whether raw is one of the field's choices. Fields
// without choices accept anything.
func (f *Field) Accepts(raw string) bool {
	return f.Choices == nil || lo.Contains(f.Choices(), raw)
}

// Section is the part of the key before the first dot, e.g. "playback".
func (f *Field) Section() string {
	section, _, _ := strings.Cut(f.Key, ".")
	return section
}

// Env is the environment variable that overrides the field.
func (f *Field) Env() string {
	name := strings.ToUpper(EnvKeyReplacer.Replace(f.Key))
	return lo.Ternary(
		strings.HasPrefix(name, strings.ToUpper(constant.Vidtune)+"_"),
		name,
		strings.ToUpper(constant.Vidtune)+"_"+name,
	)
}

func (f *Field) kind() string {
	switch f.Value.(type) {
	case string:
		return "string"
	case int:
		return "int"
	case bool:
		return "bool"
	}
	return fmt.Sprintf("%T", f.Value)
}

func (f *Field) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]any{
		"key":         f.Key,
		"env":         f.Env(),
		"value":       viper.Get(f.Key),
		"default":     f.Value,
		"description": f.Description,
		"type":        f.kind(),
		"choices":     lo.TernaryF(f.Choices != nil, f.Choices, func() []string { return nil }),
	})
}

// Pretty renders the field for "vidtune config info".
func (f *Field) Pretty() string {
	label := style.Fg(color.Blue)
	current := viper.Get(f.Key)

	lines := []string{
		style.Faint(f.Description),
		label("key     ") + style.Fg(color.Purple)(f.Key),
		label("env     ") + f.Env(),
		label("value   ") + highlight(current),
	}
	if fmt.Sprint(current) != fmt.Sprint(f.Value) {
		lines = append(lines, label("default ")+highlight(f.Value))
	}
	lines = append(lines, label("type    ")+f.kind())
	if f.Choices != nil {
		lines = append(lines, label("choices ")+strings.Join(f.Choices(), ", "))
	}
	return strings.Join(lines, "\n")
}

func highlight(v any) string {
	switch value := v.(type) {
	case bool:
		return style.Fg(lo.Ternary(value, color.Green, color.Red))(strconv.FormatBool(value))
	case string:
		if value == "" {
			return style.Faint(`""`)
		}
		return style.Fg(color.Yellow)(value)
	}
	return fmt.Sprint(v)
}

// Default maps every key to its field.
var Default = make(map[string]Field)

// EnvExposed lists the keys bound to environment variables.
var EnvExposed []string

func init() {
	register := func(k string, v any, desc string, choices ...func() []string) {
		lo.Assertf(!lo.HasKey(Default, k), "config key %s registered twice", k)
		field := Field{Key: k, Value: v, Description: desc}
		if len(choices) > 0 {
			field.Choices = choices[0]
		}
		Default[k] = field
		EnvExposed = append(EnvExposed, k)
	}
	logLevels := func() []string {
		return lo.Map(logrus.AllLevels, func(l logrus.Level, _ int) string { return l.String() })
	}

	register(key.PlayerBinary, "mpv", "Player executable used to host the video context")
	register(key.PlayerBaseURL, constant.PlayerBaseURL, "Embed endpoint the video identifier is appended to")
	register(key.PlayerQuality, "auto", "Preferred stream quality", player.Qualities)
	register(key.PlayerMuted, false, "Start videos muted")
	register(key.PlayerAutoplay, true, "Start playback as soon as a video is ready")
	register(key.PlayerHideBranding, true, "Hide title, byline and portrait overlays of the embed")
	register(key.PlaybackTransitionWindowMs, 100, "Window after a video switch during which reconciliation is suppressed (ms)")
	register(key.PlaybackReadyGraceMs, 100, "Delay before a pause/play captured before readiness is applied (ms)")
	register(key.PlaybackMaxRetries, 3, "Consecutive command failures tolerated before the desired state is accepted")
	register(key.PlaybackCommandTimeoutMs, 3000, "Upper bound for a play/pause command to be acknowledged (ms)")
	register(key.PlaybackTimeQueryTimeoutMs, 2500, "Upper bound for a current time query (ms)")
	register(key.PlaybackSaveIntervalSeconds, 5, "Seconds of progress between two periodic position saves")
	register(key.PlaybackStrictConfirmation, false, "Report unconfirmed play/pause commands instead of assuming they landed")
	register(key.PlatformBackgroundAudio, false, "Keep playing while the app is in the background")
	register(key.PlatformMuteToggle, true, "Expose the mute toggle")
	register(key.CatalogLookup, true, "Look up titles and durations of videos started without one")
	register(key.CatalogOEmbedURL, constant.OEmbedURL, "oEmbed endpoint used for title lookups")
	register(key.PositionsBackend, "file", "Where playback positions are stored", kv.Backends)
	register(key.LifecycleSuspendSignal, true, "Treat terminal suspend (ctrl+z) as entering the background")
	register(key.LifecycleSleepSignal, true, "Treat system sleep as entering the background (linux, logind)")
	register(key.LifecycleFocus, false, "Treat terminal focus loss as entering the background")
	register(key.IconsVariant, "plain", "Icons variant, nerd requires a nerd font", icon.AvailableVariants)
	register(key.AuthToken, "", "Access token for private videos.\nOverrides the token stored with \"vidtune login\"")
	register(key.LogsWrite, false, "Write logs")
	register(key.LogsLevel, "info", "Minimum level written to the log file", logLevels)
	register(key.LogsJson, false, "Use json format for logs")
	register(key.CliColored, true, "Enable colored CLI output")
	register(key.CliVersionCheck, false, "Check for a newer release when running \"vidtune version\"")
}
