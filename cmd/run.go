package main

import (
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/openlead/leadscout/internal/collector"
	"github.com/openlead/leadscout/internal/export"
	"github.com/openlead/leadscout/internal/pipeline"
)

var (
	runKeywords string
	runSources  []string
	runMaxItems int
	runLookback int
	runFormat   string
	runOut      string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Execute a full lead pipeline run",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		runID := uuid.NewString()

		e, err := initEnv(ctx, runID)
		if err != nil {
			return err
		}
		defer e.Close()

		maxItems := runMaxItems
		if maxItems == 0 {
			maxItems = cfg.Collect.MaxItems
		}
		lookbackDays := runLookback
		if lookbackDays == 0 {
			lookbackDays = cfg.Collect.LookbackDays
		}

		res, err := e.orchestrator.Run(ctx, pipeline.Request{
			RunID:   runID,
			Sources: runSources,
			Query: collector.Query{
				Keywords: runKeywords,
				MaxItems: maxItems,
				Lookback: time.Duration(lookbackDays) * 24 * time.Hour,
			},
		})
		if err != nil {
			return eris.Wrap(err, "run")
		}

		if err := writeResult(res); err != nil {
			return err
		}
		printSummary(res)
		return nil
	},
}

func writeResult(res *pipeline.Result) error {
	format := runFormat
	if format == "" {
		format = cfg.Export.Format
	}
	exp, err := export.ForFormat(format)
	if err != nil {
		return err
	}

	out := os.Stdout
	path := runOut
	if path == "" {
		path = cfg.Export.Path
	}
	if path != "" {
		f, err := os.Create(path)
		if err != nil {
			return eris.Wrapf(err, "create %s", path)
		}
		defer f.Close() //nolint:errcheck
		out = f
	}
	return exp.Export(out, res.Entities)
}

func printSummary(res *pipeline.Result) {
	s := res.Summary
	fmt.Fprintf(os.Stderr, "run %s: %s\n", res.RunID, s.State)
	fmt.Fprintf(os.Stderr, "  records collected: %d (%d partial)\n", s.RecordsCollected, s.RecordsPartial)
	fmt.Fprintf(os.Stderr, "  entities merged:   %d\n", s.EntitiesMerged)
	fmt.Fprintf(os.Stderr, "  entities scored:   %d\n", s.EntitiesScored)
	if n := s.TotalFailures(); n > 0 {
		fmt.Fprintf(os.Stderr, "  non-fatal failures: %d\n", n)
		for origin, kinds := range s.Failures {
			for kind, count := range kinds {
				fmt.Fprintf(os.Stderr, "    %s: %s x%d\n", origin, kind, count)
			}
		}
	}
}

func init() {
	runCmd.Flags().StringVar(&runKeywords, "keywords", "", "narrow the search")
	runCmd.Flags().StringSliceVar(&runSources, "sources", nil, "sources to run (default: all)")
	runCmd.Flags().IntVar(&runMaxItems, "max-items", 0, "per-source item cap")
	runCmd.Flags().IntVar(&runLookback, "lookback-days", 0, "drop items older than this")
	runCmd.Flags().StringVar(&runFormat, "format", "", "output format: csv, json, xlsx")
	runCmd.Flags().StringVarP(&runOut, "out", "o", "", "output file (default: stdout)")
	rootCmd.AddCommand(runCmd)
}
