package cmd

import (
	"errors"
	"fmt"

	"github.com/AlecAivazis/survey/v2"
	"github.com/spf13/cobra"
	"github.com/vidtune-cli/vidtune/auth"
	"github.com/vidtune-cli/vidtune/color"
	"github.com/vidtune-cli/vidtune/icon"
	"github.com/vidtune-cli/vidtune/style"
)

func init() {
	rootCmd.AddCommand(loginCmd)
	loginCmd.Flags().StringP("token", "t", "", "Access token, prompted for when omitted")
}

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Store an access token for private videos in the system keyring",
	Run: func(cmd *cobra.Command, args []string) {
		token, _ := cmd.Flags().GetString("token")

		if token == "" {
			prompt := &survey.Password{
				Message: "Access token:",
				Help:    "Generated in the developer settings of the video host. It is sent with every load request.",
			}
			handleErr(survey.AskOne(prompt, &token, survey.WithValidator(survey.Required)))
		}

		if token == "" {
			handleErr(errors.New("empty token"))
		}

		handleErr(auth.SetToken(token))
		fmt.Printf("%s token saved\n", style.Fg(color.Green)(icon.Get(icon.Success)))
	},
}

func init() {
	rootCmd.AddCommand(logoutCmd)
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Remove the stored access token",
	Run: func(cmd *cobra.Command, args []string) {
		handleErr(auth.DeleteToken())
		fmt.Printf("%s token removed\n", style.Fg(color.Green)(icon.Get(icon.Success)))
	},
}
