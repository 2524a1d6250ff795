package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/katz-eval/internal/dto"
	"github.com/noah-isme/katz-eval/internal/observability"
	"github.com/noah-isme/katz-eval/internal/table"
	"github.com/noah-isme/katz-eval/pkg/ai"
)

// QueryService sends rendered prompts to a language model and records the
// responses.
type QueryService interface {
	Run(ctx context.Context, req dto.QueryRequest) (dto.QueryReport, error)
}

// ErrCompleterUnavailable indicates no language model is configured.
var ErrCompleterUnavailable = errors.New("completer unavailable")

// QueryConfig describes the query stage knobs.
type QueryConfig struct {
	PromptColumn   string
	ResponseColumn string
	CacheTTL       time.Duration
	// CacheSalt distinguishes cached responses produced with different
	// sampling settings for the same model.
	CacheSalt string
}

type queryService struct {
	completer ai.Completer
	cache     *redis.Client
	validator *validator.Validate
	logger    zerolog.Logger
	config    QueryConfig
}

// NewQueryService constructs the query service. cache may be nil.
func NewQueryService(completer ai.Completer, cache *redis.Client, validate *validator.Validate, logger zerolog.Logger, cfg QueryConfig) QueryService {
	if cfg.PromptColumn == "" {
		cfg.PromptColumn = "prompt"
	}
	if cfg.ResponseColumn == "" {
		cfg.ResponseColumn = "model_response"
	}

	return &queryService{
		completer: completer,
		cache:     cache,
		validator: validate,
		logger:    logger.With().Str("component", "query_service").Logger(),
		config:    cfg,
	}
}

func (s *queryService) Run(ctx context.Context, req dto.QueryRequest) (dto.QueryReport, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.QueryReport{}, err
	}
	if s.completer == nil {
		return dto.QueryReport{}, ErrCompleterUnavailable
	}

	tbl, err := table.Read(req.InputPath)
	if err != nil {
		return dto.QueryReport{}, err
	}
	if err := tbl.Require(s.config.PromptColumn); err != nil {
		return dto.QueryReport{}, err
	}

	report := dto.QueryReport{Model: s.completer.Model(), Rows: tbl.Len()}
	responses := make([]string, tbl.Len())
	if tbl.Has(s.config.ResponseColumn) {
		existing, _ := tbl.Column(s.config.ResponseColumn)
		copy(responses, existing)
	}

	for i := range responses {
		if req.Limit > 0 && report.Requested+report.CacheHits >= req.Limit {
			report.Skipped += len(responses) - i
			break
		}

		prompt := tbl.Value(i, s.config.PromptColumn)
		if strings.TrimSpace(prompt) == "" || responses[i] != "" {
			report.Skipped++
			continue
		}

		key := s.cacheKey(prompt)
		if completion, ok := s.lookup(ctx, key); ok {
			responses[i] = completion.Text
			report.CacheHits++
			continue
		}

		report.Requested++
		completion, err := s.completer.Complete(ctx, prompt)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return report, ctxErr
			}
			report.Failures++
			s.logger.Warn().Err(err).Int("row", i+1).Msg("model request failed")
			continue
		}

		responses[i] = completion.Text
		report.PromptTokens += completion.PromptTokens
		report.CompletionTokens += completion.CompletionTokens
		s.store(ctx, key, completion)
	}

	if err := tbl.SetColumn(s.config.ResponseColumn, responses); err != nil {
		return report, err
	}
	if err := tbl.Write(req.OutputPath); err != nil {
		return report, err
	}

	s.logger.Info().
		Str("model", report.Model).
		Int("requested", report.Requested).
		Int("cache_hits", report.CacheHits).
		Int("failures", report.Failures).
		Int("skipped", report.Skipped).
		Msg("query stage finished")

	return report, nil
}

func (s *queryService) cacheKey(prompt string) string {
	sum := sha256.Sum256([]byte(s.completer.Model() + "\x00" + s.config.CacheSalt + "\x00" + prompt))
	return "katz:completion:" + hex.EncodeToString(sum[:])
}

func (s *queryService) lookup(ctx context.Context, key string) (ai.Completion, bool) {
	if s.cache == nil {
		return ai.Completion{}, false
	}

	cached, err := s.cache.Get(ctx, key).Result()
	if err != nil {
		if err != redis.Nil {
			s.logger.Warn().Err(err).Msg("failed to read response cache")
		}
		observability.CacheLookups().WithLabelValues("miss").Inc()
		return ai.Completion{}, false
	}

	var completion ai.Completion
	if err := json.Unmarshal([]byte(cached), &completion); err != nil {
		observability.CacheLookups().WithLabelValues("miss").Inc()
		return ai.Completion{}, false
	}

	observability.CacheLookups().WithLabelValues("hit").Inc()
	return completion, true
}

func (s *queryService) store(ctx context.Context, key string, completion ai.Completion) {
	if s.cache == nil {
		return
	}

	payload, err := json.Marshal(completion)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, key, payload, s.config.CacheTTL).Err(); err != nil {
		s.logger.Warn().Err(err).Msg("failed to store response cache")
	}
}
