package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	levenshtein "github.com/ka-weihe/fast-levenshtein"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/vidtune-cli/vidtune/color"
	"github.com/vidtune-cli/vidtune/config"
	"github.com/vidtune-cli/vidtune/constant"
	"github.com/vidtune-cli/vidtune/filesystem"
	"github.com/vidtune-cli/vidtune/icon"
	"github.com/vidtune-cli/vidtune/style"
	"github.com/vidtune-cli/vidtune/where"
	"golang.org/x/exp/slices"
)

func configPath() string {
	return filepath.Join(where.Config(), constant.Vidtune+".toml")
}

// lookupField returns the registered field called name or exits with a
// suggestion of the closest known key.
func lookupField(name string) config.Field {
	if field, ok := config.Default[name]; ok {
		return field
	}

	closest := lo.MinBy(lo.Keys(config.Default), func(a, b string) bool {
		return levenshtein.Distance(name, a) < levenshtein.Distance(name, b)
	})
	handleErr(fmt.Errorf(
		"unknown key %s, did you mean %s?",
		style.Fg(color.Red)(name),
		style.Fg(color.Yellow)(closest),
	))
	return config.Field{}
}

// parseValue converts raw to the type of the field's default.
func parseValue(field config.Field, raw string) (any, error) {
	var value any
	switch field.Value.(type) {
	case string:
		value = raw
	case int:
		n, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("%s expects an integer, got %q", field.Key, raw)
		}
		value = n
	case bool:
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, fmt.Errorf("%s expects true or false, got %q", field.Key, raw)
		}
		value = b
	default:
		return nil, fmt.Errorf("%s cannot be set from the command line", field.Key)
	}

	if !field.Accepts(raw) {
		return nil, fmt.Errorf("%s expects one of %s, got %q", field.Key, strings.Join(field.Choices(), ", "), raw)
	}
	return value, nil
}

// persistConfig writes the in-memory settings, creating the file if needed.
func persistConfig() error {
	err := viper.WriteConfig()
	var notFound viper.ConfigFileNotFoundError
	if errors.As(err, &notFound) {
		return viper.SafeWriteConfig()
	}
	return err
}

func completionConfigKeys(_ *cobra.Command, args []string, _ string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	return lo.Keys(config.Default), cobra.ShellCompDirectiveNoFileComp
}

func init() {
	rootCmd.AddCommand(configCmd)
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect and change settings",
}

func init() {
	configCmd.AddCommand(configInfoCmd)
	configInfoCmd.Flags().BoolP("json", "j", false, "Output as JSON")
	configInfoCmd.SetOut(os.Stdout)
}

var configInfoCmd = &cobra.Command{
	Use:               "info [keys...]",
	Short:             "Describe settings with their current and default values",
	ValidArgsFunction: completionConfigKeys,
	Run: func(cmd *cobra.Command, args []string) {
		names := args
		if len(names) == 0 {
			names = lo.Keys(config.Default)
		}
		slices.Sort(names)

		fields := lo.Map(names, func(name string, _ int) *config.Field {
			field := lookupField(name)
			return &field
		})

		if lo.Must(cmd.Flags().GetBool("json")) {
			handleErr(json.NewEncoder(cmd.OutOrStdout()).Encode(fields))
			return
		}

		for i, field := range fields {
			cmd.Print(field.Pretty())
			if i < len(fields)-1 {
				cmd.Print("\n\n")
			}
		}
	},
}

func init() {
	configCmd.AddCommand(configGetCmd)
	configGetCmd.SetOut(os.Stdout)
}

var configGetCmd = &cobra.Command{
	Use:               "get <key>",
	Short:             "Print the current value of a setting",
	Args:              cobra.ExactArgs(1),
	ValidArgsFunction: completionConfigKeys,
	Run: func(cmd *cobra.Command, args []string) {
		field := lookupField(args[0])
		cmd.Println(viper.Get(field.Key))
	},
}

func init() {
	configCmd.AddCommand(configSetCmd)
}

var configSetCmd = &cobra.Command{
	Use:               "set <key> <value>",
	Short:             "Change a setting and write it to the config file",
	Args:              cobra.ExactArgs(2),
	ValidArgsFunction: completionConfigKeys,
	Run: func(cmd *cobra.Command, args []string) {
		field := lookupField(args[0])
		value, err := parseValue(field, args[1])
		handleErr(err)

		viper.Set(field.Key, value)
		handleErr(persistConfig())

		fmt.Printf(
			"%s %s = %s\n",
			style.Fg(color.Green)(icon.Get(icon.Success)),
			style.Fg(color.Purple)(field.Key),
			style.Fg(color.Yellow)(fmt.Sprint(value)),
		)
	},
}

func init() {
	configCmd.AddCommand(configResetCmd)
	configResetCmd.Flags().BoolP("all", "a", false, "Restore every key")
}

var configResetCmd = &cobra.Command{
	Use:               "reset [keys...]",
	Short:             "Restore settings to their defaults",
	ValidArgsFunction: completionConfigKeys,
	Run: func(cmd *cobra.Command, args []string) {
		names := args
		if lo.Must(cmd.Flags().GetBool("all")) {
			names = lo.Keys(config.Default)
		} else if len(names) == 0 {
			handleErr(errors.New("give the keys to reset or --all"))
		}

		for _, name := range names {
			field := lookupField(name)
			viper.Set(field.Key, field.Value)
		}
		handleErr(persistConfig())

		fmt.Printf(
			"%s reset %s\n",
			style.Fg(color.Green)(icon.Get(icon.Success)),
			lo.Ternary(len(names) == 1, style.Fg(color.Purple)(names[0]), fmt.Sprintf("%d keys", len(names))),
		)
	},
}

func init() {
	configCmd.AddCommand(configWriteCmd)
	configWriteCmd.Flags().BoolP("force", "f", false, "Overwrite an existing config file")
}

var configWriteCmd = &cobra.Command{
	Use:   "write",
	Short: "Write the current settings to the config file",
	Run: func(cmd *cobra.Command, args []string) {
		path := configPath()
		if lo.Must(cmd.Flags().GetBool("force")) {
			if err := filesystem.API().Remove(path); err != nil && !os.IsNotExist(err) {
				handleErr(err)
			}
		}

		handleErr(viper.SafeWriteConfig())
		fmt.Printf("%s wrote %s\n", style.Fg(color.Green)(icon.Get(icon.Success)), path)
	},
}

func init() {
	configCmd.AddCommand(configDeleteCmd)
}

var configDeleteCmd = &cobra.Command{
	Use:     "delete",
	Aliases: []string{"remove"},
	Short:   "Delete the config file",
	Run: func(cmd *cobra.Command, args []string) {
		handleErr(filesystem.API().Remove(configPath()))
		fmt.Printf("%s deleted %s\n", style.Fg(color.Green)(icon.Get(icon.Success)), configPath())
	},
}
