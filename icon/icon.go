// Package icon renders UI symbols in the variant chosen by the user.
//
// Icons can be displayed as emoji, nerd-font glyphs or plain ASCII.
package icon

import (
	"github.com/spf13/viper"
	"github.com/vidtune-cli/vidtune/key"
)

const (
	emoji = "emoji"
	nerd  = "nerd"
	plain = "plain"
)

// AvailableVariants returns a slice of all registered icon style identifiers.
func AvailableVariants() []string {
	return []string{emoji, nerd, plain}
}

// Icon identifies a symbol in the registry.
type Icon int

const (
	Fail Icon = iota
	Success
	Progress
	Warn
	Play
	Pause
	Video
	Key
)

type iconDef struct {
	emoji string
	nerd  string
	plain string
}

func (d iconDef) get() string {
	switch viper.GetString(key.IconsVariant) {
	case emoji:
		return d.emoji
	case nerd:
		return d.nerd
	case plain:
		return d.plain
	default:
		return ""
	}
}

var icons = map[Icon]iconDef{
	Fail:     {emoji: "💀", nerd: "", plain: "x"},
	Success:  {emoji: "🎉", nerd: "", plain: "+"},
	Progress: {emoji: "⏳", nerd: "", plain: "~"},
	Warn:     {emoji: "⚠️", nerd: "", plain: "!"},
	Play:     {emoji: "▶️", nerd: "", plain: ">"},
	Pause:    {emoji: "⏸️", nerd: "", plain: "="},
	Video:    {emoji: "🎬", nerd: "", plain: "#"},
	Key:      {emoji: "🔑", nerd: "", plain: "*"},
}

// Get returns the rendered symbol for i in the configured variant.
func Get(i Icon) string {
	return icons[i].get()
}
