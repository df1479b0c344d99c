package cmd

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/dustin/go-humanize"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"github.com/vidtune-cli/vidtune/icon"
	"github.com/vidtune-cli/vidtune/util"
	"github.com/vidtune-cli/vidtune/where"
)

// clearable is data "vidtune clear" can remove. Removing positions loses
// every saved offset, so they are never part of --all.
type clearable struct {
	name  string
	what  string
	path  func() string
	risky bool
}

var clearables = []clearable{
	{"cache", "cached lookups", where.Cache, false},
	{"videos", "video metadata", where.Videos, false},
	{"temp", "leftover player sockets", where.Temp, false},
	{"positions", "saved positions file", where.Positions, true},
	{"database", "saved positions database", where.Database, true},
}

func init() {
	rootCmd.AddCommand(clearCmd)
	clearCmd.Flags().BoolP("all", "a", false, "Clear everything except saved positions")
}

var clearCmd = &cobra.Command{
	Use:   "clear [targets...]",
	Short: "Remove cached data, saved positions or leftover sockets",
	Example: "  vidtune clear --all\n" +
		"  vidtune clear cache temp",
	Args:      cobra.OnlyValidArgs,
	ValidArgs: lo.Map(clearables, func(c clearable, _ int) string { return c.name }),
	Run: func(cmd *cobra.Command, args []string) {
		all := lo.Must(cmd.Flags().GetBool("all"))
		targets := lo.Filter(clearables, func(c clearable, _ int) bool {
			return lo.Contains(args, c.name) || (all && !c.risky)
		})
		if len(targets) == 0 {
			handleErr(cmd.Help())
			return
		}

		var freed int64
		for _, target := range targets {
			erase := util.PrintErasable(fmt.Sprintf("%s clearing %s...", icon.Get(icon.Progress), target.what))
			size, err := util.Delete(target.path())
			erase()

			switch {
			case errors.Is(err, fs.ErrNotExist):
				fmt.Printf("%s %s already empty\n", icon.Get(icon.Success), target.what)
				continue
			case err != nil:
				handleErr(err)
			}

			freed += size
			fmt.Printf("%s %s cleared\n", icon.Get(icon.Success), util.Capitalize(target.what))
		}

		if freed > 0 {
			fmt.Println("  " + humanize.Bytes(uint64(freed)) + " freed")
		}
	},
}
