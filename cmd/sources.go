package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var sourcesCmd = &cobra.Command{
	Use:   "sources",
	Short: "List configured lead sources",
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(cfg.Sources) == 0 {
			fmt.Fprintln(os.Stderr, "No sources configured.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "NAME\tTYPE\tENDPOINT")
		for _, src := range cfg.Sources {
			srcType := src.Type
			if srcType == "" {
				srcType = "jsondir"
			}
			fmt.Fprintf(w, "%s\t%s\t%s\n", src.Name, srcType, src.Endpoint)
		}
		return w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(sourcesCmd)
}
