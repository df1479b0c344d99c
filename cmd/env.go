package cmd

import (
	"os"

	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"github.com/vidtune-cli/vidtune/color"
	"github.com/vidtune-cli/vidtune/config"
	"github.com/vidtune-cli/vidtune/style"
	"github.com/vidtune-cli/vidtune/where"
	"golang.org/x/exp/slices"
)

// envVariables returns every variable vidtune reads, sorted by name.
func envVariables() []string {
	names := lo.Map(config.EnvExposed, func(k string, _ int) string {
		field := config.Default[k]
		return field.Env()
	})
	names = append(names, where.EnvConfigPath)
	slices.Sort(names)
	return names
}

func init() {
	rootCmd.AddCommand(envCmd)
	envCmd.SetOut(os.Stdout)
	envCmd.Flags().BoolP("set-only", "s", false, "Only show variables that are set")
	envCmd.Flags().BoolP("unset-only", "u", false, "Only show variables that are unset")
	envCmd.MarkFlagsMutuallyExclusive("set-only", "unset-only")
}

var envCmd = &cobra.Command{
	Use:   "env",
	Short: "List the environment variables vidtune reads",
	Long:  "List every environment variable that overrides a setting, with its current value.",
	Run: func(cmd *cobra.Command, args []string) {
		setOnly := lo.Must(cmd.Flags().GetBool("set-only"))
		unsetOnly := lo.Must(cmd.Flags().GetBool("unset-only"))
		name := style.New().Bold(true).Foreground(color.Purple).Render

		for _, env := range envVariables() {
			value, present := os.LookupEnv(env)
			if (setOnly && !present) || (unsetOnly && present) {
				continue
			}

			cmd.Println(name(env) + "=" + lo.Ternary(
				present,
				style.Fg(color.Green)(value),
				style.Fg(color.Red)("unset"),
			))
		}
	},
}
