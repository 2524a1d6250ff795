package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/noah-isme/katz-eval/internal/models"
)

// AnalysisRunRepository exposes persistence helpers for analysis runs.
type AnalysisRunRepository interface {
	Create(ctx context.Context, run *models.AnalysisRun) error
	GetByID(ctx context.Context, id uuid.UUID) (models.AnalysisRun, error)
	List(ctx context.Context, filter AnalysisRunFilter) ([]models.AnalysisRun, error)
}

// AnalysisRunFilter narrows run listings.
type AnalysisRunFilter struct {
	Variant string
	Limit   int
}

// NewAnalysisRunRepository constructs an analysis run repository.
func NewAnalysisRunRepository(db *gorm.DB) AnalysisRunRepository {
	return &analysisRunRepository{db: db}
}

type analysisRunRepository struct {
	db *gorm.DB
}

func (r *analysisRunRepository) Create(ctx context.Context, run *models.AnalysisRun) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		responses := run.Responses
		run.Responses = nil
		if err := tx.Create(run).Error; err != nil {
			return err
		}
		for i := range responses {
			responses[i].RunID = run.ID
		}
		if len(responses) > 0 {
			if err := tx.CreateInBatches(responses, 200).Error; err != nil {
				return err
			}
		}
		run.Responses = responses
		return nil
	})
}

func (r *analysisRunRepository) GetByID(ctx context.Context, id uuid.UUID) (models.AnalysisRun, error) {
	var run models.AnalysisRun
	err := r.db.WithContext(ctx).
		Preload("Responses", func(db *gorm.DB) *gorm.DB {
			return db.Order("row_index ASC")
		}).
		First(&run, "id = ?", id).Error
	if err != nil {
		return models.AnalysisRun{}, err
	}
	return run, nil
}

func (r *analysisRunRepository) List(ctx context.Context, filter AnalysisRunFilter) ([]models.AnalysisRun, error) {
	query := r.db.WithContext(ctx).Model(&models.AnalysisRun{}).Order("created_at DESC")
	if filter.Variant != "" {
		query = query.Where("variant = ?", filter.Variant)
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}

	var runs []models.AnalysisRun
	if err := query.Find(&runs).Error; err != nil {
		return nil, err
	}
	return runs, nil
}
