package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/katz-eval/internal/dto"
	"github.com/noah-isme/katz-eval/internal/models"
	"github.com/noah-isme/katz-eval/internal/repository"
)

// ErrRunNotFound indicates the requested analysis run does not exist.
var ErrRunNotFound = errors.New("analysis run not found")

// RunService lists persisted analysis runs.
type RunService interface {
	List(ctx context.Context, variant string, limit int) ([]dto.AnalysisRunResponse, error)
	Get(ctx context.Context, id string) (models.AnalysisRun, error)
}

type runService struct {
	runs   repository.AnalysisRunRepository
	logger zerolog.Logger
}

// NewRunService constructs the run listing service.
func NewRunService(runs repository.AnalysisRunRepository, logger zerolog.Logger) RunService {
	return &runService{
		runs:   runs,
		logger: logger.With().Str("component", "run_service").Logger(),
	}
}

func (s *runService) List(ctx context.Context, variant string, limit int) ([]dto.AnalysisRunResponse, error) {
	runs, err := s.runs.List(ctx, repository.AnalysisRunFilter{Variant: variant, Limit: limit})
	if err != nil {
		return nil, err
	}

	responses := make([]dto.AnalysisRunResponse, 0, len(runs))
	for _, run := range runs {
		responses = append(responses, dto.AnalysisRunResponse{
			ID:            run.ID.String(),
			Variant:       run.Variant,
			SourcePath:    run.SourcePath,
			ParsedCount:   run.ParsedCount,
			UnparsedCount: run.UnparsedCount,
			Mean:          run.Mean,
			CILower:       run.CILower,
			CIUpper:       run.CIUpper,
			PValue:        run.PValue,
			CreatedAt:     run.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	return responses, nil
}

func (s *runService) Get(ctx context.Context, id string) (models.AnalysisRun, error) {
	runID, err := uuid.Parse(id)
	if err != nil {
		return models.AnalysisRun{}, fmt.Errorf("%w: %v", ErrRunNotFound, err)
	}

	run, err := s.runs.GetByID(ctx, runID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.AnalysisRun{}, ErrRunNotFound
		}
		return models.AnalysisRun{}, err
	}
	return run, nil
}
