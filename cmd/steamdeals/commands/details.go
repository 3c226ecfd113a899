package commands

import (
	"os"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(detailsCmd)
}

var detailsCmd = &cobra.Command{
	Use:   "details <appid>",
	Short: "Shows the store page and SteamSpy stats of an app.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		details, err := service.Details(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		renderDetails(os.Stdout, details)
		return nil
	},
}
