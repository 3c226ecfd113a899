package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"steamdeals-backend/lib/platforms/apiutil"
	"steamdeals-backend/lib/wilson"

	"github.com/spf13/cobra"
)

var (
	rankFile string
	rankZ    float64
)

func init() {
	rankCmd.Flags().StringVarP(&rankFile, "file", "f", "", "A JSON array of {id, percent, count, secondary}, - reads stdin.")
	rankCmd.Flags().Float64Var(&rankZ, "z", wilson.DefaultZ, "The confidence quantile.")
	rankCmd.MarkFlagRequired("file")
	rootCmd.AddCommand(rankCmd)
}

type rankInput struct {
	ID string `json:"id"`
	// Percent is the share of positive ratings, from 0 to 100.
	Percent   apiutil.Number `json:"percent"`
	Count     apiutil.Number `json:"count"`
	Secondary apiutil.Number `json:"secondary"`
}

func readRankItems(r io.Reader) ([]wilson.Item, error) {
	var inputs []rankInput
	err := json.NewDecoder(r).Decode(&inputs)
	if err != nil {
		return nil, fmt.Errorf("decode rank items: %w", err)
	}

	items := make([]wilson.Item, len(inputs))
	for i, in := range inputs {
		items[i] = wilson.Item{
			ID:        in.ID,
			Fraction:  in.Percent.Value / 100,
			Count:     in.Count.Value,
			Secondary: in.Secondary.Value,
		}
	}
	return items, nil
}

var rankCmd = &cobra.Command{
	Use:   "rank --file <items.json>",
	Short: "Ranks rated items offline by their Wilson lower bound.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		var in io.Reader = os.Stdin
		if rankFile != "-" {
			f, err := os.Open(rankFile)
			if err != nil {
				return err
			}
			defer f.Close()
			in = f
		}

		items, err := readRankItems(in)
		if err != nil {
			return err
		}
		renderRanked(os.Stdout, wilson.Rank(items, rankZ))
		return nil
	},
}
