package entities

import (
	"time"

	"github.com/google/uuid"

	"call-insights/constant"
)

type Call struct {
	ID                  uuid.UUID           `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	Filename            string              `json:"filename" gorm:"type:varchar(500);not null"`
	StoragePath         string              `json:"storage_path" gorm:"type:varchar(500);not null"`
	SizeBytes           int64               `json:"size_bytes" gorm:"type:bigint;not null"`
	DurationSec         *int                `json:"duration_sec" gorm:"type:integer"`
	Status              constant.CallStatus `json:"status" gorm:"type:varchar(20);not null;default:'new';index:idx_calls_status"`
	HasTranscript       bool                `json:"has_transcript" gorm:"not null;default:false"`
	TranscriptUpdatedAt *time.Time          `json:"transcript_updated_at" gorm:"type:timestamptz"`
	CreatedAt           time.Time           `json:"created_at" gorm:"type:timestamptz;not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt           time.Time           `json:"updated_at" gorm:"type:timestamptz;not null;default:CURRENT_TIMESTAMP"`
}

func (Call) TableName() string {
	return "calls"
}
