package entities

import (
	"time"

	"github.com/google/uuid"

	"call-insights/constant"
)

type Analysis struct {
	ID         uuid.UUID               `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	Name       string                  `json:"name" gorm:"type:varchar(255);not null"`
	QueryText  string                  `json:"query_text" gorm:"type:text;not null"`
	Status     constant.AnalysisStatus `json:"status" gorm:"type:varchar(20);not null;default:'pending';index:idx_analyses_status"`
	Progress   int                     `json:"progress" gorm:"type:integer;not null;default:0"`
	TotalCalls int                     `json:"total_calls" gorm:"type:integer;not null;default:0"`
	CreatedAt  time.Time               `json:"created_at" gorm:"type:timestamptz;not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt  time.Time               `json:"updated_at" gorm:"type:timestamptz;not null;default:CURRENT_TIMESTAMP"`
}

func (Analysis) TableName() string {
	return "analyses"
}

// AnalysisCall pins the target set of an analysis at creation time.
// Position preserves submission order for processing.
type AnalysisCall struct {
	AnalysisID uuid.UUID `json:"analysis_id" gorm:"type:uuid;not null;primaryKey;index:idx_analysis_calls_analysis"`
	CallID     uuid.UUID `json:"call_id" gorm:"type:uuid;not null;primaryKey"`
	Position   int       `json:"position" gorm:"type:integer;not null"`
}

func (AnalysisCall) TableName() string {
	return "analysis_calls"
}
