package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/invopop/jsonschema"
	levenshtein "github.com/ka-weihe/fast-levenshtein"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/vidtune-cli/vidtune/color"
	"github.com/vidtune-cli/vidtune/icon"
	"github.com/vidtune-cli/vidtune/internal/cache"
	"github.com/vidtune-cli/vidtune/key"
	"github.com/vidtune-cli/vidtune/kv"
	"github.com/vidtune-cli/vidtune/position"
	"github.com/vidtune-cli/vidtune/style"
	"github.com/vidtune-cli/vidtune/util"
	"github.com/vidtune-cli/vidtune/video"
)

func init() {
	rootCmd.AddCommand(positionsCmd)
	positionsCmd.PersistentFlags().StringP("backend", "b", "", "Positions backend (file, sqlite)")
	lo.Must0(positionsCmd.RegisterFlagCompletionFunc("backend", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return kv.Backends(), cobra.ShellCompDirectiveNoFileComp
	}))
}

var positionsCmd = &cobra.Command{
	Use:     "positions",
	Aliases: []string{"pos"},
	Short:   "Inspect and manage saved playback positions",
}

// openPositions opens the store selected by --backend or the config.
func openPositions(cmd *cobra.Command) (*position.Store, func()) {
	backend := lo.Must(cmd.Flags().GetString("backend"))
	if backend == "" {
		backend = viper.GetString(key.PositionsBackend)
	}

	store, err := kv.Open(backend)
	handleErr(err)
	return position.New(store), func() { util.Ignore(store.Close) }
}

func videoArg(arg string) string {
	id, ok := video.NormalizeID(video.Parse(arg).ID)
	if !ok {
		handleErr(fmt.Errorf("%q is not a video id or url", arg))
	}
	return id
}

func errUnknownVideo(id string, known []position.StoredPosition) error {
	if len(known) == 0 {
		return fmt.Errorf("no position saved for %s", style.Fg(color.Red)(id))
	}

	closest := lo.MinBy(known, func(a, b position.StoredPosition) bool {
		return levenshtein.Distance(id, a.VideoID) < levenshtein.Distance(id, b.VideoID)
	})
	return fmt.Errorf(
		"no position saved for %s, did you mean %s?",
		style.Fg(color.Red)(id),
		style.Fg(color.Yellow)(closest.VideoID),
	)
}

func formatOffset(seconds float64) string {
	s := int(seconds)
	if s >= 3600 {
		return fmt.Sprintf("%d:%02d:%02d", s/3600, s/60%60, s%60)
	}
	return fmt.Sprintf("%d:%02d", s/60, s%60)
}

func printPosition(cmd *cobra.Command, p position.StoredPosition) {
	title := p.VideoID
	progress := formatOffset(p.OffsetSeconds)
	if v, ok := cache.Read(p.VideoID); ok {
		if v.Title != "" {
			title = fmt.Sprintf("%s %s", v.Title, style.Faint(p.VideoID))
		}
		if v.DurationSeconds > 0 {
			progress += " / " + formatOffset(v.DurationSeconds)
		}
	}

	cmd.Printf(
		"%s %s\n  %s %s\n",
		style.Fg(color.Purple)("▇"),
		style.Bold(title),
		style.Fg(color.Yellow)(progress),
		style.Faint("saved "+humanize.Time(p.SavedAt)),
	)
}

func init() {
	positionsCmd.AddCommand(positionsListCmd)
	positionsListCmd.Flags().BoolP("json", "j", false, "Output as JSON")
	positionsListCmd.SetOut(os.Stdout)
}

var positionsListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List saved positions, most recent first",
	Run: func(cmd *cobra.Command, args []string) {
		store, closeStore := openPositions(cmd)
		defer closeStore()

		positions, err := store.List(context.Background())
		handleErr(err)

		if lo.Must(cmd.Flags().GetBool("json")) {
			if positions == nil {
				positions = []position.StoredPosition{}
			}
			handleErr(json.NewEncoder(cmd.OutOrStdout()).Encode(positions))
			return
		}

		if len(positions) == 0 {
			cmd.Println(style.Faint("No saved positions"))
			return
		}

		for i, p := range positions {
			printPosition(cmd, p)
			if i < len(positions)-1 {
				cmd.Println()
			}
		}
	},
}

func init() {
	positionsCmd.AddCommand(positionsGetCmd)
	positionsGetCmd.SetOut(os.Stdout)
}

var positionsGetCmd = &cobra.Command{
	Use:   "get <video>",
	Short: "Show the saved position of a video",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		store, closeStore := openPositions(cmd)
		defer closeStore()

		ctx := context.Background()
		id := videoArg(args[0])

		p, ok, err := store.Get(ctx, id)
		handleErr(err)
		if !ok {
			known, _ := store.List(ctx)
			handleErr(errUnknownVideo(id, known))
		}
		printPosition(cmd, p)
	},
}

func init() {
	positionsCmd.AddCommand(positionsResetCmd)
	positionsResetCmd.Flags().BoolP("all", "a", false, "Reset every saved position")
}

var positionsResetCmd = &cobra.Command{
	Use:   "reset [video]",
	Short: "Start a video from the beginning next time",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		all := lo.Must(cmd.Flags().GetBool("all"))
		if !all && len(args) == 0 {
			handleErr(fmt.Errorf("either a video or --all must be given"))
		}

		store, closeStore := openPositions(cmd)
		defer closeStore()
		ctx := context.Background()

		ids := lo.Map(args, func(arg string, _ int) string { return videoArg(arg) })
		if all {
			positions, err := store.List(ctx)
			handleErr(err)
			ids = lo.Map(positions, func(p position.StoredPosition, _ int) string { return p.VideoID })
		}

		for _, id := range ids {
			store.Reset(ctx, id)
		}
		fmt.Printf(
			"%s reset %s\n",
			style.Fg(color.Green)(icon.Get(icon.Success)),
			util.Quantify(len(ids), "position", "positions"),
		)
	},
}

func init() {
	positionsCmd.AddCommand(positionsMigrateCmd)
}

var positionsMigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Move positions saved under the old key format to the current one",
	Run: func(cmd *cobra.Command, args []string) {
		store, closeStore := openPositions(cmd)
		defer closeStore()

		n, err := store.Migrate(context.Background())
		handleErr(err)
		fmt.Printf(
			"%s migrated %s\n",
			style.Fg(color.Green)(icon.Get(icon.Success)),
			util.Quantify(n, "position", "positions"),
		)
	},
}

func init() {
	positionsCmd.AddCommand(positionsSchemaCmd)
	positionsSchemaCmd.SetOut(os.Stdout)
}

var positionsSchemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Print the JSON schema of a stored position",
	Run: func(cmd *cobra.Command, args []string) {
		schema := jsonschema.Reflect(&position.StoredPosition{})
		encoder := json.NewEncoder(cmd.OutOrStdout())
		encoder.SetIndent("", "  ")
		handleErr(encoder.Encode(schema))
	},
}
