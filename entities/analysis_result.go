package entities

import (
	"time"

	"github.com/google/uuid"
)

type AnalysisResult struct {
	ID         uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	AnalysisID uuid.UUID `json:"analysis_id" gorm:"type:uuid;not null;index:idx_analysis_results_analysis"`
	CallID     uuid.UUID `json:"call_id" gorm:"type:uuid;not null;index:idx_analysis_results_call"`
	Summary    string    `json:"summary" gorm:"type:text"`
	JSONResult string    `json:"json_result" gorm:"type:text"`
	CreatedAt  time.Time `json:"created_at" gorm:"type:timestamptz;not null;default:CURRENT_TIMESTAMP"`
}

func (AnalysisResult) TableName() string {
	return "analysis_results"
}
