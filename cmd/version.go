package cmd

import (
	"encoding/json"
	"os"
	"runtime"
	"strings"

	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"github.com/vidtune-cli/vidtune/color"
	"github.com/vidtune-cli/vidtune/constant"
	"github.com/vidtune-cli/vidtune/style"
	"github.com/vidtune-cli/vidtune/version"
)

type buildInfo struct {
	Version  string `json:"version"`
	Revision string `json:"revision"`
	BuiltAt  string `json:"built_at"`
	BuiltBy  string `json:"built_by"`
	Platform string `json:"platform"`
}

func currentBuild() buildInfo {
	return buildInfo{
		Version:  constant.Version,
		Revision: constant.Revision,
		BuiltAt:  strings.TrimSpace(constant.BuiltAt),
		BuiltBy:  constant.BuiltBy,
		Platform: runtime.GOOS + "/" + runtime.GOARCH,
	}
}

func init() {
	rootCmd.AddCommand(versionCmd)
	versionCmd.SetOut(os.Stdout)
	versionCmd.Flags().BoolP("short", "s", false, "Only print the version number")
	versionCmd.Flags().BoolP("json", "j", false, "Output as JSON")
	versionCmd.MarkFlagsMutuallyExclusive("short", "json")
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version and build information",
	Run: func(cmd *cobra.Command, args []string) {
		build := currentBuild()

		switch {
		case lo.Must(cmd.Flags().GetBool("short")):
			cmd.Println(build.Version)
			return
		case lo.Must(cmd.Flags().GetBool("json")):
			handleErr(json.NewEncoder(cmd.OutOrStdout()).Encode(build))
			return
		}

		defer version.Notify(cmd.OutOrStdout())

		rows := [][2]string{
			{"Version", build.Version},
			{"Revision", build.Revision},
			{"Built at", build.BuiltAt},
			{"Built by", build.BuiltBy},
			{"Platform", build.Platform},
		}
		label := style.New().Faint(true).Width(12).Render

		cmd.Println(style.Fg(color.Purple)("▇▇▇ " + constant.Vidtune))
		cmd.Println()
		for _, row := range rows {
			cmd.Println("  " + label(row[0]) + style.Bold(row[1]))
		}
	},
}
