package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/noah-isme/katz-eval/internal/config"
	"github.com/noah-isme/katz-eval/internal/database"
	"github.com/noah-isme/katz-eval/internal/observability"
	"github.com/noah-isme/katz-eval/internal/repository"
)

var (
	// Global flags
	configPath string

	v        = config.New()
	cfg      config.Config
	logger   = zerolog.New(os.Stderr).With().Timestamp().Logger()
	validate *validator.Validate
)

var rootCmd = &cobra.Command{
	Use:   "katz-eval",
	Short: "Score language model paraphrases of metaphors against the Katz corpus",
	Long: `katz-eval runs the analysis side of the metaphor paraphrase experiment.

It queries a model with rendered prompts, extracts the chosen option from each
free-text response, scores it against the human appropriateness ratings and
compares the mean score with a random-guessing baseline.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := config.ReadFile(v, configPath); err != nil {
			return err
		}

		loaded, err := config.FromViper(v)
		if err != nil {
			return err
		}
		cfg = loaded
		logger = newLogger(cfg)
		validate = validator.New(validator.WithRequiredStructEnabled())
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if cfg.MetricsFile == "" {
			return nil
		}
		if err := observability.WriteTextfile(cfg.MetricsFile); err != nil {
			return err
		}
		logger.Debug().Str("path", cfg.MetricsFile).Msg("metrics written")
		return nil
	},
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&configPath, "config", "", "optional config file (yaml, json or toml)")
	flags.String("log-level", "info", "log level (trace, debug, info, warn, error)")
	flags.Bool("log-pretty", false, "human readable log output")
	flags.String("variant", "standard", "task variant: standard or inverse")
	flags.String("database-url", "", "persist runs to this database (sqlite://path or postgres://...)")
	flags.String("metrics-file", "", "write Prometheus metrics to this file on exit")

	bindFlag(flags, "log-level", "log.level")
	bindFlag(flags, "log-pretty", "log.pretty")
	bindFlag(flags, "variant", "task.variant")
	bindFlag(flags, "database-url", "database.url")
	bindFlag(flags, "metrics-file", "metrics.file")

	rootCmd.AddCommand(analyzeCmd, summarizeCmd, queryCmd, runsCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		logger.Error().Err(err).Msg("command failed")
		os.Exit(1)
	}
}

func newLogger(cfg config.Config) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}

	if cfg.LogPretty {
		return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).Level(level).With().Timestamp().Logger()
	}
	return zerolog.New(os.Stderr).Level(level).With().Timestamp().Logger()
}

// openRuns connects the run repository when a database is configured. The
// returned closer is never nil.
func openRuns() (repository.AnalysisRunRepository, func(), error) {
	if cfg.DatabaseURL == "" {
		return nil, func() {}, nil
	}

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		return nil, nil, err
	}
	if err := database.Migrate(db); err != nil {
		return nil, nil, err
	}

	closer := func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
	return repository.NewAnalysisRunRepository(db), closer, nil
}

func bindFlag(flags *pflag.FlagSet, name, key string) {
	if err := v.BindPFlag(key, flags.Lookup(name)); err != nil {
		panic(fmt.Sprintf("bind flag %s: %v", name, err))
	}
}
