package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"gorm.io/datatypes"

	"github.com/noah-isme/katz-eval/internal/config"
	"github.com/noah-isme/katz-eval/internal/dto"
	"github.com/noah-isme/katz-eval/internal/models"
	"github.com/noah-isme/katz-eval/internal/observability"
	"github.com/noah-isme/katz-eval/internal/parser"
	"github.com/noah-isme/katz-eval/internal/repository"
	"github.com/noah-isme/katz-eval/internal/stats"
	"github.com/noah-isme/katz-eval/internal/table"
	"github.com/noah-isme/katz-eval/internal/task"
)

// AnalysisService scores model responses and compares them with chance.
type AnalysisService interface {
	Analyze(ctx context.Context, req dto.AnalysisRequest) (dto.AnalysisSummary, error)
}

// ErrNoScorableItems indicates every response in the table failed to parse.
var ErrNoScorableItems = stats.ErrNoScores

// AnalysisConfig holds the per-batch analysis settings.
type AnalysisConfig struct {
	Variant    task.Variant
	Columns    config.Columns
	ExcludeIDs []string
	Resamples  int
	Trials     int
	// Seed drives every random draw of the run. Zero picks a seed from the
	// clock; the chosen seed is reported in the summary.
	Seed uint64
}

const (
	outcomeMissing  = "missing"
	outcomeUnparsed = "unparsed"

	logResponseLimit = 120
)

type scoredRow struct {
	row      int
	itemID   string
	response string
	match    parser.Match
	parsed   bool
	score    int
}

type analysisService struct {
	runs      repository.AnalysisRunRepository
	validator *validator.Validate
	logger    zerolog.Logger
	config    AnalysisConfig
	now       func() time.Time
}

// NewAnalysisService constructs the analysis service. runs may be nil, in
// which case results are not persisted.
func NewAnalysisService(runs repository.AnalysisRunRepository, validate *validator.Validate, logger zerolog.Logger, cfg AnalysisConfig) AnalysisService {
	if cfg.Resamples <= 0 {
		cfg.Resamples = stats.DefaultResamples
	}
	if cfg.Trials <= 0 {
		cfg.Trials = stats.DefaultTrials
	}

	return &analysisService{
		runs:      runs,
		validator: validate,
		logger:    logger.With().Str("component", "analysis_service").Logger(),
		config:    cfg,
		now:       time.Now,
	}
}

func (s *analysisService) Analyze(ctx context.Context, req dto.AnalysisRequest) (dto.AnalysisSummary, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.AnalysisSummary{}, err
	}
	if !s.config.Variant.Valid() {
		return dto.AnalysisSummary{}, fmt.Errorf("%w: %s", task.ErrUnknownVariant, s.config.Variant)
	}

	tracer := otel.Tracer("github.com/noah-isme/katz-eval/internal/service/analysis")
	ctx, span := tracer.Start(ctx, "analysis.run")
	span.SetAttributes(
		attribute.String("analysis.variant", s.config.Variant.String()),
		attribute.String("analysis.input", req.InputPath),
	)
	defer span.End()

	fail := func(err error, status string) (dto.AnalysisSummary, error) {
		span.RecordError(err)
		span.SetStatus(codes.Error, status)
		return dto.AnalysisSummary{}, err
	}

	tbl, err := table.Read(req.InputPath)
	if err != nil {
		return fail(err, "read_table_failed")
	}

	cols := s.config.Columns
	ratingCol := cols.RatingColumn(s.config.Variant)
	if err := tbl.Require(cols.Response, ratingCol); err != nil {
		return fail(err, "missing_column")
	}

	total := tbl.Len()
	tbl, err = s.applyExclusions(tbl)
	if err != nil {
		return fail(err, "missing_column")
	}
	s.logger.Info().Int("responses", tbl.Len()).Str("input", req.InputPath).Msg("analyzing responses")

	rows, err := s.scoreRows(tbl, ratingCol)
	if err != nil {
		return fail(err, "malformed_rating_info")
	}

	summary := s.tally(rows)
	summary.Variant = s.config.Variant.String()
	summary.InputPath = req.InputPath
	summary.OutputPath = req.OutputPath
	summary.Excluded = total - tbl.Len()

	if err := s.writeProcessed(tbl, rows, req.OutputPath); err != nil {
		return fail(err, "write_table_failed")
	}

	observability.UnparsedRatio().WithLabelValues(summary.Variant).Set(float64(summary.Unparsed) / float64(max(summary.Items, 1)))

	if summary.Parsed == 0 {
		return fail(fmt.Errorf("%s: %w", req.InputPath, ErrNoScorableItems), "no_scorable_items")
	}

	if err := s.computeStatistics(&summary, rows); err != nil {
		return fail(err, "statistics_failed")
	}

	span.SetAttributes(
		attribute.Int("analysis.parsed", summary.Parsed),
		attribute.Int("analysis.unparsed", summary.Unparsed),
		attribute.Float64("analysis.mean", summary.Mean),
		attribute.Float64("analysis.p_value", summary.PValue),
	)
	observability.AnalysisRuns().WithLabelValues(summary.Variant).Inc()

	s.logger.Info().
		Float64("mean", summary.Mean).
		Float64("ci_lower", summary.CILower).
		Float64("ci_upper", summary.CIUpper).
		Int("unparsed", summary.Unparsed).
		Msg("mean score")
	s.logger.Info().
		Float64("baseline_mean", summary.BaselineMean).
		Float64("baseline_ci_lower", summary.BaselineLower).
		Float64("baseline_ci_upper", summary.BaselineUpper).
		Float64("p_value", summary.PValue).
		Msg("random baseline")

	if s.runs != nil {
		runID, err := s.persist(ctx, summary, rows, req.Parameters)
		if err != nil {
			return fail(fmt.Errorf("persist analysis run: %w", err), "persist_failed")
		}
		summary.RunID = runID
	}

	return summary, nil
}

func (s *analysisService) applyExclusions(tbl *table.Table) (*table.Table, error) {
	if len(s.config.ExcludeIDs) == 0 {
		return tbl, nil
	}
	if err := tbl.Require(s.config.Columns.ID); err != nil {
		return nil, err
	}

	excluded := make(map[string]struct{}, len(s.config.ExcludeIDs))
	for _, id := range s.config.ExcludeIDs {
		excluded[id] = struct{}{}
	}

	return tbl.Filter(func(row int) bool {
		_, drop := excluded[strings.TrimSpace(tbl.Value(row, s.config.Columns.ID))]
		return !drop
	}), nil
}

func (s *analysisService) scoreRows(tbl *table.Table, ratingCol string) ([]scoredRow, error) {
	cols := s.config.Columns
	variant := s.config.Variant.String()
	rows := make([]scoredRow, tbl.Len())

	for i := range rows {
		info, err := task.ParseRatingInfo(s.config.Variant, tbl.Value(i, ratingCol))
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+1, err)
		}

		row := scoredRow{row: i, response: tbl.Value(i, cols.Response)}
		if tbl.Has(cols.ID) {
			row.itemID = tbl.Value(i, cols.ID)
		}

		if strings.TrimSpace(row.response) == "" {
			observability.ParseOutcomes().WithLabelValues(variant, outcomeMissing).Inc()
			s.logger.Debug().Int("row", i+1).Msg("missing response")
			rows[i] = row
			continue
		}

		match, ok := parser.ExtractGuess(row.response)
		if !ok {
			observability.ParseOutcomes().WithLabelValues(variant, outcomeUnparsed).Inc()
			s.logger.Debug().Int("row", i+1).Str("response", truncate(row.response, logResponseLimit)).Msg("couldn't parse guess")
			rows[i] = row
			continue
		}

		observability.ParseOutcomes().WithLabelValues(variant, string(match.Rule)).Inc()
		row.match = match
		row.parsed = true
		row.score = info.Score(match.Guess)
		rows[i] = row
	}

	return rows, nil
}

func (s *analysisService) tally(rows []scoredRow) dto.AnalysisSummary {
	summary := dto.AnalysisSummary{
		Items:       len(rows),
		ScoreCounts: map[string]int{},
		GuessCounts: map[string]int{},
		RuleCounts:  map[string]int{},
	}

	for _, row := range rows {
		if !row.parsed {
			summary.Unparsed++
			if strings.TrimSpace(row.response) == "" {
				summary.Missing++
			}
			continue
		}
		summary.Parsed++
		summary.ScoreCounts[strconv.Itoa(row.score)]++
		summary.GuessCounts[row.match.Guess]++
		summary.RuleCounts[string(row.match.Rule)]++
	}

	return summary
}

func (s *analysisService) writeProcessed(tbl *table.Table, rows []scoredRow, path string) error {
	scores := make([]string, len(rows))
	guesses := make([]string, len(rows))
	for i, row := range rows {
		if row.parsed {
			scores[i] = strconv.Itoa(row.score)
			guesses[i] = row.match.Guess
		}
	}

	if err := tbl.SetColumn(s.config.Columns.Score, scores); err != nil {
		return err
	}
	if err := tbl.SetColumn(s.config.Columns.Guess, guesses); err != nil {
		return err
	}
	return tbl.Write(path)
}

func (s *analysisService) computeStatistics(summary *dto.AnalysisSummary, rows []scoredRow) error {
	seed := s.config.Seed
	if seed == 0 {
		seed = uint64(s.now().UnixNano())
		s.logger.Info().Uint64("seed", seed).Msg("no seed configured, using clock")
	}
	rng := stats.NewRand(seed)

	scores := make([]float64, 0, summary.Parsed)
	for _, row := range rows {
		if row.parsed {
			scores = append(scores, float64(row.score))
		}
	}

	interval, err := stats.Bootstrap(rng, scores, s.config.Resamples)
	if err != nil {
		return err
	}

	baseline, err := stats.SimulateBaseline(rng, s.config.Variant.OptionPool(), len(scores), s.config.Trials)
	if err != nil {
		return err
	}

	summary.Mean = interval.Mean
	summary.CILower = interval.Lower
	summary.CIUpper = interval.Upper
	summary.BaselineMean = baseline.Mean
	summary.BaselineLower = baseline.Lower
	summary.BaselineUpper = baseline.Upper
	summary.PValue = baseline.PValue(interval.Mean)
	summary.Seed = seed
	summary.Resamples = s.config.Resamples
	summary.Trials = s.config.Trials
	return nil
}

func (s *analysisService) persist(ctx context.Context, summary dto.AnalysisSummary, rows []scoredRow, params map[string]any) (string, error) {
	run := models.AnalysisRun{
		Variant:       summary.Variant,
		SourcePath:    summary.InputPath,
		ProcessedPath: summary.OutputPath,
		ItemCount:     summary.Items,
		ParsedCount:   summary.Parsed,
		UnparsedCount: summary.Unparsed,
		Mean:          summary.Mean,
		CILower:       summary.CILower,
		CIUpper:       summary.CIUpper,
		BaselineMean:  summary.BaselineMean,
		BaselineLower: summary.BaselineLower,
		BaselineUpper: summary.BaselineUpper,
		PValue:        summary.PValue,
		Seed:          summary.Seed,
		Resamples:     summary.Resamples,
		Trials:        summary.Trials,
		Parameters:    datatypes.JSONMap(params),
		Responses:     make([]models.ScoredResponse, 0, len(rows)),
	}

	for _, row := range rows {
		record := models.ScoredResponse{
			RowIndex: row.row,
			ItemID:   row.itemID,
			Response: row.response,
		}
		if row.parsed {
			guess := row.match.Guess
			score := row.score
			record.Guess = &guess
			record.Score = &score
			record.Rule = string(row.match.Rule)
		}
		run.Responses = append(run.Responses, record)
	}

	if err := s.runs.Create(ctx, &run); err != nil {
		return "", err
	}

	s.logger.Info().Str("run_id", run.ID.String()).Msg("analysis run stored")
	return run.ID.String(), nil
}

func truncate(value string, limit int) string {
	runes := []rune(strings.TrimSpace(value))
	if len(runes) <= limit {
		return string(runes)
	}
	return string(runes[:limit]) + "..."
}
