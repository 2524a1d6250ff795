package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// AnalysisRun records the summary statistics of one analysed results table.
type AnalysisRun struct {
	ID            uuid.UUID         `gorm:"type:uuid;primaryKey" json:"id"`
	Variant       string            `gorm:"size:16;not null;index" json:"variant"`
	SourcePath    string            `gorm:"type:text;not null" json:"source_path"`
	ProcessedPath string            `gorm:"type:text" json:"processed_path"`
	ItemCount     int               `gorm:"not null" json:"item_count"`
	ParsedCount   int               `gorm:"not null" json:"parsed_count"`
	UnparsedCount int               `gorm:"not null" json:"unparsed_count"`
	Mean          float64           `json:"mean"`
	CILower       float64           `json:"ci_lower"`
	CIUpper       float64           `json:"ci_upper"`
	BaselineMean  float64           `json:"baseline_mean"`
	BaselineLower float64           `json:"baseline_ci_lower"`
	BaselineUpper float64           `json:"baseline_ci_upper"`
	PValue        float64           `json:"p_value"`
	Seed          uint64            `json:"seed"`
	Resamples     int               `json:"resamples"`
	Trials        int               `json:"trials"`
	Parameters    datatypes.JSONMap `json:"parameters"`
	CreatedAt     time.Time         `json:"created_at"`
	UpdatedAt     time.Time         `json:"updated_at"`
	Responses     []ScoredResponse  `gorm:"foreignKey:RunID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"responses,omitempty"`
}

// BeforeCreate assigns a run identifier when none was set.
func (r *AnalysisRun) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}
