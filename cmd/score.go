package main

import (
	"encoding/json"
	"io"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/openlead/leadscout/internal/model"
)

var scoreCmd = &cobra.Command{
	Use:   "score [file]",
	Short: "Re-score previously exported entities",
	Long:  "Reads a JSON export (or stdin) and recomputes scores with the current weights, thresholds, and rules. No network calls are made.",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var in io.Reader = os.Stdin
		if len(args) == 1 {
			f, err := os.Open(args[0])
			if err != nil {
				return eris.Wrapf(err, "open %s", args[0])
			}
			defer f.Close() //nolint:errcheck
			in = f
		}

		var entities []model.CanonicalEntity
		if err := json.NewDecoder(in).Decode(&entities); err != nil {
			return eris.Wrap(err, "score: decode entities")
		}

		scorer, err := initScorer()
		if err != nil {
			return err
		}

		for i := range entities {
			entities[i].Score = scorer.Score(&entities[i])
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return eris.Wrap(enc.Encode(entities), "score: encode entities")
	},
}

func init() {
	rootCmd.AddCommand(scoreCmd)
}
