package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CallRecord is an analytics row for a call executed by the orchestrator.
// The console only browses these; the orchestrator writes them.
type CallRecord struct {
	ID                string    `json:"id" gorm:"type:uuid;primary_key"`
	ExternalCallID    string    `json:"external_call_id" gorm:"type:varchar(255);uniqueIndex"`
	TenantID          string    `json:"tenant_id" gorm:"type:varchar(255);not null;index"`
	AgentID           string    `json:"agent_id" gorm:"type:uuid;index"`
	PhoneNumber       string    `json:"phone_number" gorm:"type:varchar(20)"`
	Direction         string    `json:"direction" gorm:"type:varchar(20);index"`
	Status            string    `json:"status" gorm:"type:varchar(20);index"`
	DurationSeconds   int       `json:"duration_seconds" gorm:"default:0"`
	TranscriptSummary string    `json:"transcript_summary" gorm:"type:text"`
	Metadata          JSONB     `json:"metadata" gorm:"type:jsonb"`
	StartedAt         time.Time `json:"started_at"`
	EndedAt           time.Time `json:"ended_at"`
	CreatedAt         time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt         time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// TableName sets the table name for CallRecord
func (CallRecord) TableName() string {
	return "call_records"
}

// BeforeCreate assigns a UUID primary key when none was supplied
func (c *CallRecord) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}

// CallFilter narrows analytics queries
type CallFilter struct {
	AgentID   string
	Status    string
	Direction string
	From      time.Time
	To        time.Time
	Limit     int
	Offset    int
}

// CallStats aggregates call counts and durations per agent
type CallStats struct {
	AgentID              string  `json:"agent_id"`
	TotalCalls           int64   `json:"total_calls"`
	CompletedCalls       int64   `json:"completed_calls"`
	FailedCalls          int64   `json:"failed_calls"`
	TotalDurationSeconds int64   `json:"total_duration_seconds"`
	AvgDurationSeconds   float64 `json:"avg_duration_seconds"`
}
