package cmd

import (
	"os"

	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"github.com/vidtune-cli/vidtune/color"
	"github.com/vidtune-cli/vidtune/style"
	"github.com/vidtune-cli/vidtune/where"
)

// location is a path "vidtune where" knows about. Internal ones are only
// printed when asked for by name.
type location struct {
	name     string
	path     func() string
	internal bool
}

var locations = []location{
	{"config", where.Config, false},
	{"logs", where.Logs, false},
	{"positions", where.Positions, false},
	{"database", where.Database, true},
	{"cache", where.Cache, true},
	{"videos", where.Videos, true},
	{"temp", where.Temp, true},
}

func init() {
	rootCmd.AddCommand(whereCmd)
	whereCmd.SetOut(os.Stdout)
}

var whereCmd = &cobra.Command{
	Use:       "where [location]",
	Short:     "Show where settings, logs and positions are kept",
	Example:   "  vidtune where\n  vidtune where logs",
	Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
	ValidArgs: lo.Map(locations, func(l location, _ int) string { return l.name }),
	Run: func(cmd *cobra.Command, args []string) {
		if len(args) == 1 {
			loc, _ := lo.Find(locations, func(l location) bool { return l.name == args[0] })
			cmd.Println(loc.path())
			return
		}

		public := lo.Reject(locations, func(l location, _ int) bool { return l.internal })
		header := style.New().Bold(true).Foreground(color.HiPurple).Width(11).Render
		for _, loc := range public {
			cmd.Println(header(loc.name) + loc.path())
		}
	},
}

