// Package cmd implements the command-line interface of vidtune.
package cmd

import (
	"fmt"
	"os"
	"strings"

	cc "github.com/ivanpirog/coloredcobra"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/vidtune-cli/vidtune/color"
	"github.com/vidtune-cli/vidtune/constant"
	"github.com/vidtune-cli/vidtune/icon"
	"github.com/vidtune-cli/vidtune/key"
	"github.com/vidtune-cli/vidtune/log"
	"github.com/vidtune-cli/vidtune/player"
	"github.com/vidtune-cli/vidtune/style"
	"github.com/vidtune-cli/vidtune/version"
)

func init() {
	rootCmd.Flags().BoolP("version", "v", false, "Print the application version")

	rootCmd.PersistentFlags().StringP("icons", "I", "", "Icon variant (emoji, plain, nerd)")
	lo.Must0(rootCmd.RegisterFlagCompletionFunc("icons", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return icon.AvailableVariants(), cobra.ShellCompDirectiveDefault
	}))
	lo.Must0(viper.BindPFlag(key.IconsVariant, rootCmd.PersistentFlags().Lookup("icons")))

	rootCmd.Flags().BoolP("muted", "m", false, "Start muted")
	lo.Must0(viper.BindPFlag(key.PlayerMuted, rootCmd.Flags().Lookup("muted")))

	rootCmd.Flags().StringP("quality", "q", "", "Rendition cap ("+strings.Join(player.Qualities(), ", ")+")")
	lo.Must0(rootCmd.RegisterFlagCompletionFunc("quality", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return player.Qualities(), cobra.ShellCompDirectiveNoFileComp
	}))
	lo.Must0(viper.BindPFlag(key.PlayerQuality, rootCmd.Flags().Lookup("quality")))

	registerPlayFlags(rootCmd)

	helpFunc := rootCmd.HelpFunc()
	rootCmd.SetHelpFunc(func(cmd *cobra.Command, args []string) {
		helpFunc(cmd, args)
		version.Notify(cmd.OutOrStdout())
	})
}

var rootCmd = &cobra.Command{
	Use:   constant.Vidtune + " [videos...]",
	Short: "Play embedded videos from the terminal and pick up where you left off",
	Long: constant.AsciiArtLogo + "\n" +
		style.New().Italic(true).Foreground(color.HiRed).Render("    - Play embedded videos from the terminal and pick up where you left off"),
	Example: `  vidtune 76979871
  vidtune https://vimeo.com/76979871 "22439234:Intro"
  vidtune --headless --metrics-addr :9090 76979871`,
	Args: cobra.ArbitraryArgs,
	Run: func(cmd *cobra.Command, args []string) {
		if lo.Must(cmd.Flags().GetBool("version")) {
			versionCmd.Run(versionCmd, args)
			return
		}

		if len(args) == 0 {
			handleErr(cmd.Help())
			return
		}

		runPlay(cmd, args)
	},
}

// Execute runs the root command.
func Execute() {
	if viper.GetBool(key.CliColored) {
		cc.Init(&cc.Config{
			RootCmd:       rootCmd,
			Headings:      cc.HiCyan + cc.Bold + cc.Underline,
			Commands:      cc.HiYellow + cc.Bold,
			Example:       cc.Italic,
			ExecName:      cc.Bold,
			Flags:         cc.Bold,
			FlagsDataType: cc.Italic + cc.HiBlue,
		})
	}

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func handleErr(err error) {
	if err != nil {
		log.Error(err)
		_, _ = fmt.Fprintf(os.Stderr, "%s %s\n", icon.Get(icon.Fail), strings.Trim(err.Error(), " \n"))
		os.Exit(1)
	}
}
