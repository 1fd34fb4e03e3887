package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// VoiceConfig groups versioned TTS voice settings for a tenant
type VoiceConfig struct {
	ID          string    `json:"id" gorm:"type:uuid;primary_key"`
	TenantID    string    `json:"tenant_id" gorm:"type:varchar(255);not null;index"`
	Name        string    `json:"name" gorm:"type:varchar(255);not null"`
	Description string    `json:"description" gorm:"type:text"`
	CreatedAt   time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt   time.Time `json:"updated_at" gorm:"autoUpdateTime"`
	Disabled    bool      `json:"disabled" gorm:"default:false"`

	Versions []VoiceConfigVersion `json:"versions,omitempty" gorm:"foreignKey:VoiceConfigID"`
}

// TableName sets the table name for VoiceConfig
func (VoiceConfig) TableName() string {
	return "voice_configs"
}

// BeforeCreate assigns a UUID primary key when none was supplied
func (c *VoiceConfig) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}

// VoiceConfigVersion is an immutable numbered snapshot of TTS parameters
type VoiceConfigVersion struct {
	ID              string    `json:"id" gorm:"type:uuid;primary_key"`
	VoiceConfigID   string    `json:"voice_config_id" gorm:"type:uuid;not null;index;uniqueIndex:idx_voice_version_number,priority:1"`
	Version         int       `json:"version" gorm:"not null;uniqueIndex:idx_voice_version_number,priority:2"`
	VoiceID         string    `json:"voice_id" gorm:"type:varchar(255);not null"`
	Model           string    `json:"model" gorm:"type:varchar(255)"`
	Stability       float64   `json:"stability" gorm:"default:0.5"`
	SimilarityBoost float64   `json:"similarity_boost" gorm:"default:0.75"`
	Style           float64   `json:"style" gorm:"default:0"`
	Speed           float64   `json:"speed" gorm:"default:1"`
	IsActive        bool      `json:"is_active" gorm:"default:false;index"`
	CreatedBy       string    `json:"created_by" gorm:"type:varchar(255)"`
	Notes           string    `json:"notes" gorm:"type:text"`
	CreatedAt       time.Time `json:"created_at" gorm:"autoCreateTime"`
}

// TableName sets the table name for VoiceConfigVersion
func (VoiceConfigVersion) TableName() string {
	return "voice_config_versions"
}

// BeforeCreate assigns a UUID primary key when none was supplied
func (v *VoiceConfigVersion) BeforeCreate(tx *gorm.DB) error {
	if v.ID == "" {
		v.ID = uuid.NewString()
	}
	return nil
}

// CreateVoiceConfigRequest represents the request to create a voice config
type CreateVoiceConfigRequest struct {
	TenantID    string `json:"tenant_id,omitempty"`
	Name        string `json:"name" validate:"required"`
	Description string `json:"description,omitempty"`
}

// UpdateVoiceConfigRequest represents the request to update voice config metadata
type UpdateVoiceConfigRequest struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
	Disabled    *bool   `json:"disabled,omitempty"`
}

// CreateVoiceConfigVersionRequest represents the request to snapshot a new
// immutable voice config version
type CreateVoiceConfigVersionRequest struct {
	VoiceID         string  `json:"voice_id" validate:"required"`
	Model           string  `json:"model,omitempty"`
	Stability       float64 `json:"stability,omitempty"`
	SimilarityBoost float64 `json:"similarity_boost,omitempty"`
	Style           float64 `json:"style,omitempty"`
	Speed           float64 `json:"speed,omitempty"`
	Notes           string  `json:"notes,omitempty"`
}
