package commands

import (
	"os"
	"strings"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(searchCmd)
}

var searchCmd = &cobra.Command{
	Use:   "search <title>",
	Short: "Searches Steam deals by title, split by price.",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		result, err := service.Search(cmd.Context(), strings.Join(args, " "))
		if err != nil {
			return err
		}
		renderSearch(os.Stdout, result)
		return nil
	},
}
