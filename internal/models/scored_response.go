package models

import "github.com/google/uuid"

// ScoredResponse is one parsed row of an analysis run. Guess and Score are
// nil when the response could not be parsed.
type ScoredResponse struct {
	ID       uint      `gorm:"primaryKey" json:"id"`
	RunID    uuid.UUID `gorm:"type:uuid;not null;index" json:"run_id"`
	RowIndex int       `gorm:"not null" json:"row_index"`
	ItemID   string    `gorm:"size:64" json:"item_id"`
	Guess    *string   `gorm:"size:1" json:"guess"`
	Score    *int      `json:"score"`
	Rule     string    `gorm:"size:32" json:"rule"`
	Response string    `gorm:"type:text" json:"response"`
}

// Parsed reports whether a guess was extracted for the row.
func (r ScoredResponse) Parsed() bool {
	return r.Guess != nil
}
