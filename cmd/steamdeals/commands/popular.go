package commands

import (
	"os"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(popularCmd)
}

var popularCmd = &cobra.Command{
	Use:   "popular",
	Short: "Lists Steam deals under 15€, best rated first.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cards, err := service.Popular(cmd.Context())
		if err != nil {
			return err
		}
		renderCards(os.Stdout, "Steam ≤ 15€", cards, true)
		return nil
	},
}
