package domain

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Agent represents a conversational workflow entity owned by a tenant.
// Its configuration lives in immutable AgentVersion rows; exactly one
// version may be active at a time.
type Agent struct {
	ID          string    `json:"id" gorm:"type:uuid;primary_key"`
	TenantID    string    `json:"tenant_id" gorm:"type:varchar(255);not null;index"`
	Name        string    `json:"name" gorm:"type:varchar(255);not null"`
	Description string    `json:"description" gorm:"type:text"`
	CreatedAt   time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt   time.Time `json:"updated_at" gorm:"autoUpdateTime"`
	Disabled    bool      `json:"disabled" gorm:"default:false"`

	Versions []AgentVersion `json:"versions,omitempty" gorm:"foreignKey:AgentID"`
}

// TableName sets the table name for Agent
func (Agent) TableName() string {
	return "agents"
}

// BeforeCreate assigns a UUID primary key when none was supplied
func (a *Agent) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	return nil
}

// AgentVersion is an immutable numbered snapshot of an agent's workflow
// configuration. Only the IsActive flag may change after creation.
type AgentVersion struct {
	ID            string          `json:"id" gorm:"type:uuid;primary_key"`
	AgentID       string          `json:"agent_id" gorm:"type:uuid;not null;index;uniqueIndex:idx_agent_version_number,priority:1"`
	Version       int             `json:"version" gorm:"not null;uniqueIndex:idx_agent_version_number,priority:2"`
	ConfigJSON    WorkflowDoc     `json:"config_json" gorm:"type:jsonb"`
	GlobalPrompt  string          `json:"global_prompt" gorm:"type:text"`
	RagEnabled    bool            `json:"rag_enabled" gorm:"default:false"`
	RagConfigID   *string         `json:"rag_config_id" gorm:"type:uuid"`
	VoiceConfigID *string         `json:"voice_config_id" gorm:"type:uuid"`
	IsActive      bool            `json:"is_active" gorm:"default:false;index"`
	CreatedBy     string          `json:"created_by" gorm:"type:varchar(255)"`
	Notes         string          `json:"notes" gorm:"type:text"`
	CreatedAt     time.Time       `json:"created_at" gorm:"autoCreateTime"`
}

// TableName sets the table name for AgentVersion
func (AgentVersion) TableName() string {
	return "agent_versions"
}

// BeforeCreate assigns a UUID primary key when none was supplied
func (v *AgentVersion) BeforeCreate(tx *gorm.DB) error {
	if v.ID == "" {
		v.ID = uuid.NewString()
	}
	return nil
}

// WorkflowDoc stores the raw agent workflow graph as a jsonb column while
// preserving the exact document supplied by the client.
type WorkflowDoc json.RawMessage

// Value implements driver.Valuer for WorkflowDoc
func (d WorkflowDoc) Value() (driver.Value, error) {
	if len(d) == 0 {
		return nil, nil
	}
	return []byte(d), nil
}

// Scan implements sql.Scanner for WorkflowDoc
func (d *WorkflowDoc) Scan(value interface{}) error {
	if value == nil {
		*d = nil
		return nil
	}

	switch v := value.(type) {
	case []byte:
		*d = append((*d)[0:0], v...)
	case string:
		*d = WorkflowDoc(v)
	default:
		return fmt.Errorf("cannot scan %T into WorkflowDoc", value)
	}
	return nil
}

// MarshalJSON renders the stored document verbatim
func (d WorkflowDoc) MarshalJSON() ([]byte, error) {
	if len(d) == 0 {
		return []byte("null"), nil
	}
	return d, nil
}

// UnmarshalJSON keeps the raw client document
func (d *WorkflowDoc) UnmarshalJSON(data []byte) error {
	*d = append((*d)[0:0], data...)
	return nil
}

// CreateAgentRequest represents the request to create a new agent
type CreateAgentRequest struct {
	TenantID    string `json:"tenant_id,omitempty"`
	Name        string `json:"name" validate:"required"`
	Description string `json:"description,omitempty"`
}

// UpdateAgentRequest represents the request to update agent metadata
type UpdateAgentRequest struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
	Disabled    *bool   `json:"disabled,omitempty"`
}

// CreateAgentVersionRequest represents the request to snapshot a new
// immutable agent version
type CreateAgentVersionRequest struct {
	ConfigJSON    json.RawMessage `json:"config_json" validate:"required"`
	GlobalPrompt  string          `json:"global_prompt,omitempty"`
	RagEnabled    bool            `json:"rag_enabled,omitempty"`
	RagConfigID   *string         `json:"rag_config_id,omitempty"`
	VoiceConfigID *string         `json:"voice_config_id,omitempty"`
	Notes         string          `json:"notes,omitempty"`
}

// ActivateVersionResponse reports the activated row plus whether the
// orchestrator's config cache was refreshed (best-effort).
type ActivateVersionResponse struct {
	Version        *AgentVersion `json:"version"`
	CacheRefreshed bool          `json:"cache_refreshed"`
}
