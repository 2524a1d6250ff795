package main

import (
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/noah-isme/katz-eval/internal/database"
	"github.com/noah-isme/katz-eval/internal/dto"
	"github.com/noah-isme/katz-eval/internal/service"
	"github.com/noah-isme/katz-eval/pkg/ai"
)

var (
	queryInput  string
	queryOutput string
	queryLimit  int
)

var queryCmd = &cobra.Command{
	Use:   "query",
	Short: "Send rendered prompts to a language model and record the responses",
	Long: `Reads a table with a prompt column, sends every prompt that has no response
yet to the configured OpenAI-compatible model and writes the table back out
with a model_response column. Responses are cached in Redis when redis.url is
set, so re-running a stage only pays for new prompts.

Example:
  OPENAI_API_KEY=... katz-eval query -i prompts.csv -o responses.csv --model gpt-4o-mini --temperature 0.2`,
	RunE: runQuery,
}

func init() {
	flags := queryCmd.Flags()
	flags.StringVarP(&queryInput, "input", "i", "", "prompts table")
	flags.StringVarP(&queryOutput, "output", "o", "", "results table to write")
	flags.IntVar(&queryLimit, "limit", 0, "stop after this many prompts (0 for all)")
	flags.String("model", "", "model name")
	flags.Float32("temperature", 0.2, "sampling temperature")
	flags.Int("max-tokens", 0, "maximum completion tokens")
	flags.String("endpoint", "", "chat or completion")
	flags.String("redis-url", "", "cache responses in this redis instance")
	_ = queryCmd.MarkFlagRequired("input")
	_ = queryCmd.MarkFlagRequired("output")

	bindFlag(flags, "model", "ai.model")
	bindFlag(flags, "temperature", "ai.temperature")
	bindFlag(flags, "max-tokens", "ai.max_tokens")
	bindFlag(flags, "endpoint", "ai.endpoint")
	bindFlag(flags, "redis-url", "redis.url")
}

func runQuery(cmd *cobra.Command, args []string) error {
	completer, err := ai.NewOpenAICompleter(ai.OpenAIConfig{
		APIKey:      cfg.AI.APIKey,
		BaseURL:     cfg.AI.BaseURL,
		Model:       cfg.AI.Model,
		MaxTokens:   cfg.AI.MaxTokens,
		Temperature: cfg.AI.Temperature,
		Endpoint:    cfg.AI.Endpoint,
		Logger:      logger,
	})
	if err != nil {
		return err
	}

	var cache *redis.Client
	if cfg.RedisURL != "" {
		cache, err = database.ConnectRedis(cmd.Context(), cfg.RedisURL)
		if err != nil {
			return err
		}
		defer cache.Close()
	}

	svc := service.NewQueryService(completer, cache, validate, logger, service.QueryConfig{
		PromptColumn:   cfg.Columns.Prompt,
		ResponseColumn: cfg.Columns.Response,
		CacheTTL:       cfg.CacheTTL,
		CacheSalt:      fmt.Sprintf("%s|%.2f|%d", cfg.AI.Endpoint, cfg.AI.Temperature, cfg.AI.MaxTokens),
	})

	report, err := svc.Run(cmd.Context(), dto.QueryRequest{InputPath: queryInput, OutputPath: queryOutput, Limit: queryLimit})
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s: %d requested, %d cached, %d failed, %d skipped\n",
		report.Model, report.Requested, report.CacheHits, report.Failures, report.Skipped)
	return nil
}
