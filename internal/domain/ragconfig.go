package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// RAG search modes
const (
	SearchModeVector  = "vector"
	SearchModeKeyword = "keyword"
	SearchModeHybrid  = "hybrid"
)

// RagConfig groups versioned retrieval settings for a tenant's knowledge base
type RagConfig struct {
	ID          string    `json:"id" gorm:"type:uuid;primary_key"`
	TenantID    string    `json:"tenant_id" gorm:"type:varchar(255);not null;index"`
	Name        string    `json:"name" gorm:"type:varchar(255);not null"`
	Description string    `json:"description" gorm:"type:text"`
	CreatedAt   time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt   time.Time `json:"updated_at" gorm:"autoUpdateTime"`
	Disabled    bool      `json:"disabled" gorm:"default:false"`

	Versions []RagConfigVersion `json:"versions,omitempty" gorm:"foreignKey:RagConfigID"`
}

// TableName sets the table name for RagConfig
func (RagConfig) TableName() string {
	return "rag_configs"
}

// BeforeCreate assigns a UUID primary key when none was supplied
func (c *RagConfig) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}

// RagConfigVersion is an immutable numbered snapshot of retrieval parameters
type RagConfigVersion struct {
	ID             string    `json:"id" gorm:"type:uuid;primary_key"`
	RagConfigID    string    `json:"rag_config_id" gorm:"type:uuid;not null;index;uniqueIndex:idx_rag_version_number,priority:1"`
	Version        int       `json:"version" gorm:"not null;uniqueIndex:idx_rag_version_number,priority:2"`
	SearchMode     string    `json:"search_mode" gorm:"type:varchar(50);not null;default:'hybrid'"`
	TopK           int       `json:"top_k" gorm:"not null;default:5"`
	FusionWeight   float64   `json:"fusion_weight" gorm:"default:0.5"`
	ScoreThreshold float64   `json:"score_threshold" gorm:"default:0"`
	EmbeddingModel string    `json:"embedding_model" gorm:"type:varchar(255)"`
	IsActive       bool      `json:"is_active" gorm:"default:false;index"`
	CreatedBy      string    `json:"created_by" gorm:"type:varchar(255)"`
	Notes          string    `json:"notes" gorm:"type:text"`
	CreatedAt      time.Time `json:"created_at" gorm:"autoCreateTime"`
}

// TableName sets the table name for RagConfigVersion
func (RagConfigVersion) TableName() string {
	return "rag_config_versions"
}

// BeforeCreate assigns a UUID primary key when none was supplied
func (v *RagConfigVersion) BeforeCreate(tx *gorm.DB) error {
	if v.ID == "" {
		v.ID = uuid.NewString()
	}
	return nil
}

// CreateRagConfigRequest represents the request to create a RAG config
type CreateRagConfigRequest struct {
	TenantID    string `json:"tenant_id,omitempty"`
	Name        string `json:"name" validate:"required"`
	Description string `json:"description,omitempty"`
}

// UpdateRagConfigRequest represents the request to update RAG config metadata
type UpdateRagConfigRequest struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
	Disabled    *bool   `json:"disabled,omitempty"`
}

// CreateRagConfigVersionRequest represents the request to snapshot a new
// immutable RAG config version
type CreateRagConfigVersionRequest struct {
	SearchMode     string  `json:"search_mode" validate:"required"`
	TopK           int     `json:"top_k" validate:"required"`
	FusionWeight   float64 `json:"fusion_weight,omitempty"`
	ScoreThreshold float64 `json:"score_threshold,omitempty"`
	EmbeddingModel string  `json:"embedding_model,omitempty"`
	Notes          string  `json:"notes,omitempty"`
}
