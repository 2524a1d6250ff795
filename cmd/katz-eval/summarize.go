package main

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/noah-isme/katz-eval/internal/service"
)

var summarizeJSON bool

var summarizeCmd = &cobra.Command{
	Use:   "summarize [processed tables...]",
	Short: "Compare bootstrapped mean scores across processed tables",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runSummarize,
}

func init() {
	summarizeCmd.Flags().BoolVar(&summarizeJSON, "json", false, "print the comparison as JSON")
}

func runSummarize(cmd *cobra.Command, args []string) error {
	svc := service.NewSummaryService(logger, service.SummaryConfig{
		ScoreColumn: cfg.Columns.Score,
		Resamples:   cfg.Resamples,
		Seed:        cfg.Seed,
	})

	summaries, err := svc.Summarize(cmd.Context(), args)
	if err != nil {
		return err
	}

	if summarizeJSON {
		encoder := json.NewEncoder(cmd.OutOrStdout())
		encoder.SetIndent("", "  ")
		return encoder.Encode(summaries)
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "TABLE\tMEAN\t95% CI\tUNPARSED")
	for _, summary := range summaries {
		fmt.Fprintf(w, "%s\t%.2f\t[%.2f, %.2f]\t%d\n", summary.Label, summary.Mean, summary.CILower, summary.CIUpper, summary.Unparsed)
	}
	return w.Flush()
}
