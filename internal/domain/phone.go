package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PhoneConfig routes an E.164 phone number within a tenant. The number is
// unique per tenant, not globally.
type PhoneConfig struct {
	ID          string    `json:"id" gorm:"type:uuid;primary_key"`
	TenantID    string    `json:"tenant_id" gorm:"type:varchar(255);not null;uniqueIndex:idx_tenant_phone_number,priority:1"`
	PhoneNumber string    `json:"phone_number" gorm:"type:varchar(20);not null;uniqueIndex:idx_tenant_phone_number,priority:2"`
	Name        string    `json:"name" gorm:"type:varchar(255)"`
	Description string    `json:"description" gorm:"type:text"`
	IsActive    bool      `json:"is_active" gorm:"default:true"`
	CreatedAt   time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt   time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// TableName sets the table name for PhoneConfig
func (PhoneConfig) TableName() string {
	return "phone_configs"
}

// BeforeCreate assigns a UUID primary key when none was supplied
func (p *PhoneConfig) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}

// PhoneConfigMapping links one phone config to the agent serving its calls
type PhoneConfigMapping struct {
	ID            string    `json:"id" gorm:"type:uuid;primary_key"`
	TenantID      string    `json:"tenant_id" gorm:"type:varchar(255);not null;index"`
	PhoneConfigID string    `json:"phone_config_id" gorm:"type:uuid;not null;uniqueIndex"`
	AgentID       string    `json:"agent_id" gorm:"type:uuid;not null;index"`
	CreatedAt     time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt     time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// TableName sets the table name for PhoneConfigMapping
func (PhoneConfigMapping) TableName() string {
	return "phone_config_mappings"
}

// BeforeCreate assigns a UUID primary key when none was supplied
func (m *PhoneConfigMapping) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	return nil
}

// CreatePhoneConfigRequest represents the request to create a phone config
type CreatePhoneConfigRequest struct {
	TenantID    string `json:"tenant_id,omitempty"`
	PhoneNumber string `json:"phone_number" validate:"required"`
	Name        string `json:"name,omitempty"`
	Description string `json:"description,omitempty"`
}

// UpdatePhoneConfigRequest represents the request to update a phone config
type UpdatePhoneConfigRequest struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
	IsActive    *bool   `json:"is_active,omitempty"`
}

// CreatePhoneMappingRequest represents the request to map a phone config
// to an agent
type CreatePhoneMappingRequest struct {
	PhoneConfigID string `json:"phone_config_id" validate:"required"`
	AgentID       string `json:"agent_id" validate:"required"`
}
