package entities

import (
	"time"

	"github.com/google/uuid"
)

type AnalysisTemplate struct {
	ID          uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	Name        string    `json:"name" gorm:"type:varchar(255);not null"`
	Description string    `json:"description" gorm:"type:text"`
	QueryText   string    `json:"query_text" gorm:"type:text;not null"`
	Category    string    `json:"category" gorm:"type:varchar(50);not null;default:'general'"`
	IsSystem    bool      `json:"is_system" gorm:"not null;default:false"`
	CreatedAt   time.Time `json:"created_at" gorm:"type:timestamptz;not null;default:CURRENT_TIMESTAMP"`
}

func (AnalysisTemplate) TableName() string {
	return "analysis_templates"
}
