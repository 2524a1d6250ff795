package main

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/noah-isme/katz-eval/internal/dto"
	"github.com/noah-isme/katz-eval/internal/service"
)

var (
	analyzeInput  string
	analyzeOutput string
	analyzeJSON   bool
	analyzeParams []string
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Parse model responses, score them and compare against chance",
	Long: `Reads a results table, extracts the option each response chose, writes the
processed table with appropriateness_score and raw_guess columns, and reports
the bootstrapped mean score, its 95% interval and the p-value against a random
guessing baseline.

Example:
  katz-eval analyze --input data/model-outputs/responses.csv --seed 42 --param prompt=similarity`,
	RunE: runAnalyze,
}

func init() {
	flags := analyzeCmd.Flags()
	flags.StringVarP(&analyzeInput, "input", "i", "", "results table to analyze")
	flags.StringVarP(&analyzeOutput, "output", "o", "", "processed table path (default <input>-processed.csv)")
	flags.BoolVar(&analyzeJSON, "json", false, "print the summary as JSON on stdout")
	flags.StringArrayVar(&analyzeParams, "param", nil, "key=value experiment parameter stored with the run")
	flags.Uint64("seed", 0, "random seed for resampling (0 picks one from the clock)")
	flags.Int("resamples", 0, "bootstrap resample count")
	flags.Int("trials", 0, "random baseline trial count")
	flags.StringSlice("exclude-id", nil, "item IDs to drop before analysis")
	_ = analyzeCmd.MarkFlagRequired("input")

	bindFlag(flags, "seed", "stats.seed")
	bindFlag(flags, "resamples", "stats.resamples")
	bindFlag(flags, "trials", "stats.trials")
	bindFlag(flags, "exclude-id", "analysis.exclude_ids")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	runs, closeRuns, err := openRuns()
	if err != nil {
		return err
	}
	defer closeRuns()

	params, err := parseParams(analyzeParams)
	if err != nil {
		return err
	}

	output := analyzeOutput
	if output == "" {
		output = processedPath(analyzeInput)
	}

	svc := service.NewAnalysisService(runs, validate, logger, service.AnalysisConfig{
		Variant:    cfg.Variant,
		Columns:    cfg.Columns,
		ExcludeIDs: cfg.ExcludeIDs,
		Resamples:  cfg.Resamples,
		Trials:     cfg.Trials,
		Seed:       cfg.Seed,
	})

	summary, err := svc.Analyze(cmd.Context(), dto.AnalysisRequest{
		InputPath:  analyzeInput,
		OutputPath: output,
		Parameters: params,
	})
	if err != nil {
		return err
	}

	if analyzeJSON {
		encoder := json.NewEncoder(cmd.OutOrStdout())
		encoder.SetIndent("", "  ")
		return encoder.Encode(summary)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "mean score: %.3f [%.3f, %.3f]\n", summary.Mean, summary.CILower, summary.CIUpper)
	fmt.Fprintf(cmd.OutOrStdout(), "%d of %d responses not parsed\n", summary.Unparsed, summary.Items)
	fmt.Fprintf(cmd.OutOrStdout(), "random baseline: %.3f [%.3f, %.3f]\n", summary.BaselineMean, summary.BaselineLower, summary.BaselineUpper)
	fmt.Fprintf(cmd.OutOrStdout(), "p-value: %.4f\n", summary.PValue)
	return nil
}

func processedPath(input string) string {
	ext := filepath.Ext(input)
	return strings.TrimSuffix(input, ext) + "-processed" + ext
}

func parseParams(values []string) (map[string]any, error) {
	if len(values) == 0 {
		return nil, nil
	}
	params := make(map[string]any, len(values))
	for _, value := range values {
		key, val, ok := strings.Cut(value, "=")
		if !ok || strings.TrimSpace(key) == "" {
			return nil, fmt.Errorf("invalid --param %q, want key=value", value)
		}
		params[strings.TrimSpace(key)] = strings.TrimSpace(val)
	}
	return params, nil
}
