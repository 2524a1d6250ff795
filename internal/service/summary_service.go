package service

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/noah-isme/katz-eval/internal/dto"
	"github.com/noah-isme/katz-eval/internal/stats"
	"github.com/noah-isme/katz-eval/internal/table"
)

// SummaryService compares processed tables from several prompting strategies.
type SummaryService interface {
	Summarize(ctx context.Context, paths []string) ([]dto.TableSummary, error)
}

// SummaryConfig holds the resampling settings shared by every table.
type SummaryConfig struct {
	ScoreColumn string
	Resamples   int
	Seed        uint64
}

type summaryService struct {
	logger zerolog.Logger
	config SummaryConfig
	now    func() time.Time
}

// NewSummaryService constructs the cross-table summary service.
func NewSummaryService(logger zerolog.Logger, cfg SummaryConfig) SummaryService {
	if cfg.Resamples <= 0 {
		cfg.Resamples = stats.DefaultResamples
	}
	if cfg.ScoreColumn == "" {
		cfg.ScoreColumn = "appropriateness_score"
	}

	return &summaryService{
		logger: logger.With().Str("component", "summary_service").Logger(),
		config: cfg,
		now:    time.Now,
	}
}

func (s *summaryService) Summarize(ctx context.Context, paths []string) ([]dto.TableSummary, error) {
	seed := s.config.Seed
	if seed == 0 {
		seed = uint64(s.now().UnixNano())
	}
	rng := stats.NewRand(seed)

	summaries := make([]dto.TableSummary, 0, len(paths))
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		tbl, err := table.Read(path)
		if err != nil {
			return nil, err
		}

		values, err := tbl.Column(s.config.ScoreColumn)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}

		summary := dto.TableSummary{Label: labelFor(path), Path: path, Items: len(values)}
		scores := make([]float64, 0, len(values))
		for i, value := range values {
			value = strings.TrimSpace(value)
			if value == "" {
				summary.Unparsed++
				continue
			}
			score, err := strconv.ParseFloat(value, 64)
			if err != nil {
				return nil, fmt.Errorf("%s row %d: invalid score %q: %w", path, i+1, value, err)
			}
			scores = append(scores, score)
		}

		if len(scores) == 0 {
			return nil, fmt.Errorf("%s: %w", path, stats.ErrNoScores)
		}

		interval, err := stats.Bootstrap(rng, scores, s.config.Resamples)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		summary.Mean = interval.Mean
		summary.CILower = interval.Lower
		summary.CIUpper = interval.Upper

		s.logger.Debug().Str("table", summary.Label).Float64("mean", summary.Mean).Int("unparsed", summary.Unparsed).Msg("table summarised")
		summaries = append(summaries, summary)
	}

	return summaries, nil
}

func labelFor(path string) string {
	base := filepath.Base(path)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	return strings.TrimSuffix(base, "-processed")
}
