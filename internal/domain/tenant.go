package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Tenant represents an isolation boundary owning agents, configs and calls
type Tenant struct {
	ID           string    `json:"id" gorm:"type:uuid;primary_key"`
	TenantID     string    `json:"tenant_id" gorm:"type:varchar(255);uniqueIndex:uni_tenants_tenant_id;not null"`
	TenantName   string    `json:"tenant_name" gorm:"type:varchar(255);not null"`
	CustomConfig JSONB     `json:"custom_config" gorm:"type:jsonb"`
	CreatedAt    time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt    time.Time `json:"updated_at" gorm:"autoUpdateTime"`
	Disabled     bool      `json:"disabled" gorm:"default:false"`
}

// TableName sets the table name for Tenant
func (Tenant) TableName() string {
	return "admin_tenants"
}

// BeforeCreate assigns a UUID primary key when none was supplied
func (t *Tenant) BeforeCreate(tx *gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	return nil
}

// CreateTenantRequest represents the request to create a new tenant
type CreateTenantRequest struct {
	TenantID     string `json:"tenant_id" validate:"required"`
	TenantName   string `json:"tenant_name" validate:"required"`
	CustomConfig JSONB  `json:"custom_config,omitempty"`
}

// UpdateTenantRequest represents the request to update a tenant
type UpdateTenantRequest struct {
	TenantName   *string `json:"tenant_name,omitempty"`
	CustomConfig *JSONB  `json:"custom_config,omitempty"`
	Disabled     *bool   `json:"disabled,omitempty"`
}

// AdminUser represents a console user. A nil TenantID marks a global user
// who may read entities across all tenants.
type AdminUser struct {
	ID           string    `json:"id" gorm:"type:uuid;primary_key"`
	Email        string    `json:"email" gorm:"type:varchar(255);uniqueIndex;not null"`
	PasswordHash string    `json:"-" gorm:"type:varchar(255);not null"`
	Role         string    `json:"role" gorm:"type:varchar(50);not null;default:'viewer'"`
	TenantID     *string   `json:"tenant_id" gorm:"type:varchar(255);index"`
	CreatedAt    time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt    time.Time `json:"updated_at" gorm:"autoUpdateTime"`
	Disabled     bool      `json:"disabled" gorm:"default:false"`
}

// TableName sets the table name for AdminUser
func (AdminUser) TableName() string {
	return "admin_users"
}

// BeforeCreate assigns a UUID primary key when none was supplied
func (u *AdminUser) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}

// IsGlobal reports whether the user may bypass tenant scoping on reads.
func (u *AdminUser) IsGlobal() bool {
	return u.TenantID == nil
}
