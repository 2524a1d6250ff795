package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/noah-isme/katz-eval/internal/stats"
	"github.com/noah-isme/katz-eval/internal/task"
)

// Columns names the table columns read and written by the pipeline.
type Columns struct {
	ID       string `validate:"required"`
	Prompt   string `validate:"required"`
	Response string `validate:"required"`
	Values   string `validate:"required"`
	Index    string `validate:"required"`
	Score    string `validate:"required"`
	Guess    string `validate:"required"`
}

// RatingColumn returns the ground-truth column for the variant.
func (c Columns) RatingColumn(v task.Variant) string {
	if v == task.Inverse {
		return c.Index
	}
	return c.Values
}

// AIConfig configures the language model used by the query stage.
type AIConfig struct {
	APIKey      string
	BaseURL     string
	Model       string  `validate:"required"`
	Temperature float32 `validate:"gte=0,lte=2"`
	MaxTokens   int     `validate:"gte=1"`
	Endpoint    string  `validate:"oneof=chat completion"`
}

// Config holds runtime configuration values for a katz-eval invocation.
type Config struct {
	AppEnv      string
	LogLevel    string `validate:"oneof=trace debug info warn error"`
	LogPretty   bool
	Variant     task.Variant
	Columns     Columns
	ExcludeIDs  []string
	Resamples   int `validate:"gte=1"`
	Trials      int `validate:"gte=1"`
	Seed        uint64
	DatabaseURL string
	RedisURL    string
	CacheTTL    time.Duration `validate:"gte=0"`
	AI          AIConfig
	MetricsFile string
}

// New returns a viper instance populated with defaults and environment
// bindings. Callers may bind flags or a config file before calling FromViper.
func New() *viper.Viper {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("KATZ")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("app.env", "development")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.pretty", false)
	v.SetDefault("task.variant", "standard")
	v.SetDefault("columns.id", "ID")
	v.SetDefault("columns.prompt", "prompt")
	v.SetDefault("columns.response", "model_response")
	v.SetDefault("columns.values", "values")
	v.SetDefault("columns.index", "index")
	v.SetDefault("columns.score", "appropriateness_score")
	v.SetDefault("columns.guess", "raw_guess")
	v.SetDefault("analysis.exclude_ids", []string{})
	v.SetDefault("stats.resamples", stats.DefaultResamples)
	v.SetDefault("stats.trials", stats.DefaultTrials)
	v.SetDefault("stats.seed", 0)
	v.SetDefault("cache.ttl", "168h")
	v.SetDefault("ai.model", "gpt-4o-mini")
	v.SetDefault("ai.temperature", 0.2)
	v.SetDefault("ai.max_tokens", 256)
	v.SetDefault("ai.endpoint", "chat")

	_ = v.BindEnv("ai.api_key", "KATZ_AI_API_KEY", "OPENAI_API_KEY")

	return v
}

// ReadFile merges the config file at path into v. An empty path is a no-op.
func ReadFile(v *viper.Viper, path string) error {
	if path == "" {
		return nil
	}
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	return nil
}

// Load reads configuration values from environment variables and optional .env file.
func Load() (Config, error) {
	return FromViper(New())
}

// FromViper resolves and validates the configuration held by v.
func FromViper(v *viper.Viper) (Config, error) {
	variant, err := task.ParseVariant(v.GetString("task.variant"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid task variant: %w", err)
	}

	ttl, err := time.ParseDuration(v.GetString("cache.ttl"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid cache ttl: %w", err)
	}

	cfg := Config{
		AppEnv:    v.GetString("app.env"),
		LogLevel:  strings.ToLower(v.GetString("log.level")),
		LogPretty: v.GetBool("log.pretty"),
		Variant:   variant,
		Columns: Columns{
			ID:       v.GetString("columns.id"),
			Prompt:   v.GetString("columns.prompt"),
			Response: v.GetString("columns.response"),
			Values:   v.GetString("columns.values"),
			Index:    v.GetString("columns.index"),
			Score:    v.GetString("columns.score"),
			Guess:    v.GetString("columns.guess"),
		},
		ExcludeIDs:  splitList(v.GetStringSlice("analysis.exclude_ids")),
		Resamples:   v.GetInt("stats.resamples"),
		Trials:      v.GetInt("stats.trials"),
		Seed:        v.GetUint64("stats.seed"),
		DatabaseURL: v.GetString("database.url"),
		RedisURL:    v.GetString("redis.url"),
		CacheTTL:    ttl,
		AI: AIConfig{
			APIKey:      v.GetString("ai.api_key"),
			BaseURL:     v.GetString("ai.base_url"),
			Model:       v.GetString("ai.model"),
			Temperature: float32(v.GetFloat64("ai.temperature")),
			MaxTokens:   v.GetInt("ai.max_tokens"),
			Endpoint:    strings.ToLower(v.GetString("ai.endpoint")),
		},
		MetricsFile: v.GetString("metrics.file"),
	}

	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := validate.Struct(cfg); err != nil {
		return Config{}, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// splitList accepts both repeated values and comma-separated entries.
func splitList(values []string) []string {
	out := make([]string, 0, len(values))
	for _, value := range values {
		for _, part := range strings.Split(value, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
