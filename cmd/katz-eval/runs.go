package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/noah-isme/katz-eval/internal/service"
)

var (
	runsLimit   int
	runsVariant string
	runsJSON    bool
)

var runsCmd = &cobra.Command{
	Use:   "runs [run-id]",
	Short: "List stored analysis runs, or show one run in full",
	Args:  cobra.MaximumNArgs(1),
	RunE:  listRuns,
}

func init() {
	flags := runsCmd.Flags()
	flags.IntVar(&runsLimit, "limit", 20, "maximum runs to list")
	flags.StringVar(&runsVariant, "only", "", "only list runs of this variant")
	flags.BoolVar(&runsJSON, "json", false, "print JSON")
}

func listRuns(cmd *cobra.Command, args []string) error {
	repo, closeRuns, err := openRuns()
	if err != nil {
		return err
	}
	defer closeRuns()
	if repo == nil {
		return errors.New("runs requires database.url (or --database-url)")
	}

	svc := service.NewRunService(repo, logger)
	out := cmd.OutOrStdout()

	if len(args) == 1 {
		run, err := svc.Get(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		encoder := json.NewEncoder(out)
		encoder.SetIndent("", "  ")
		return encoder.Encode(run)
	}

	runs, err := svc.List(cmd.Context(), runsVariant, runsLimit)
	if err != nil {
		return err
	}

	if runsJSON {
		encoder := json.NewEncoder(out)
		encoder.SetIndent("", "  ")
		return encoder.Encode(runs)
	}

	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tVARIANT\tSOURCE\tMEAN\t95% CI\tP\tUNPARSED\tCREATED")
	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%.2f\t[%.2f, %.2f]\t%.4f\t%d\t%s\n",
			run.ID, run.Variant, run.SourcePath, run.Mean, run.CILower, run.CIUpper, run.PValue, run.UnparsedCount, run.CreatedAt)
	}
	return w.Flush()
}
