package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/ClareAI/astra-admin-console/internal/auth"
	"github.com/ClareAI/astra-admin-console/internal/domain"
)

// GormPhoneConfigRepository implements PhoneConfigRepository using GORM
type GormPhoneConfigRepository struct {
	db *gorm.DB
}

// NewGormPhoneConfigRepository creates a new GORM phone config repository
func NewGormPhoneConfigRepository(db *gorm.DB) *GormPhoneConfigRepository {
	return &GormPhoneConfigRepository{db: db}
}

// Create creates a new phone config. The same number may exist in other
// tenants; a duplicate within the tenant returns ErrDuplicatePhoneNumber.
// Deactivated configs still hold their number, so re-creating one conflicts
// until the existing config is reactivated or renamed.
func (r *GormPhoneConfigRepository) Create(ctx context.Context, scope *auth.Context, req *domain.CreatePhoneConfigRequest) (*domain.PhoneConfig, error) {
	tenantID := resolveTenant(scope, req.TenantID)

	cfg := &domain.PhoneConfig{
		TenantID:    tenantID,
		PhoneNumber: req.PhoneNumber,
		Name:        req.Name,
		Description: req.Description,
		IsActive:    true,
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&domain.PhoneConfig{}).
			Where("tenant_id = ? AND phone_number = ?", tenantID, req.PhoneNumber).
			Count(&count).Error; err != nil {
			return fmt.Errorf("failed to check phone number: %w", err)
		}
		if count > 0 {
			return ErrDuplicatePhoneNumber
		}

		if err := tx.Create(cfg).Error; err != nil {
			return fmt.Errorf("failed to create phone config: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

// GetByID retrieves a phone config within the caller's tenant scope
func (r *GormPhoneConfigRepository) GetByID(ctx context.Context, scope *auth.Context, id string) (*domain.PhoneConfig, error) {
	var cfg domain.PhoneConfig
	query := tenantScoped(r.db.WithContext(ctx), scope).Where("id = ?", id)
	if err := query.First(&cfg).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get phone config: %w", err)
	}
	return &cfg, nil
}

// List retrieves phone configs in the caller's tenant scope
func (r *GormPhoneConfigRepository) List(ctx context.Context, scope *auth.Context, includeInactive bool) ([]*domain.PhoneConfig, error) {
	var configs []*domain.PhoneConfig
	query := tenantScoped(r.db.WithContext(ctx), scope)

	if !includeInactive {
		query = query.Where("is_active = ?", true)
	}

	if err := query.Order("created_at DESC").Find(&configs).Error; err != nil {
		return nil, fmt.Errorf("failed to list phone configs: %w", err)
	}

	return configs, nil
}

// Update updates phone config metadata within the caller's tenant scope.
// The phone number itself is immutable.
func (r *GormPhoneConfigRepository) Update(ctx context.Context, scope *auth.Context, id string, req *domain.UpdatePhoneConfigRequest) (*domain.PhoneConfig, error) {
	cfg, err := r.GetByID(ctx, scope, id)
	if err != nil || cfg == nil {
		return cfg, err
	}

	updates := make(map[string]interface{})
	if req.Name != nil {
		updates["name"] = *req.Name
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.IsActive != nil {
		updates["is_active"] = *req.IsActive
	}

	if len(updates) == 0 {
		return cfg, nil
	}

	if err := r.db.WithContext(ctx).Model(cfg).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("failed to update phone config: %w", err)
	}

	return cfg, nil
}

// Delete deactivates a phone config and removes any agent mapping pointing
// at it. The row survives so the tenant keeps ownership of the number;
// reactivate through Update.
func (r *GormPhoneConfigRepository) Delete(ctx context.Context, scope *auth.Context, id string) (bool, error) {
	deleted := false

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		query := tenantScoped(tx.Model(&domain.PhoneConfig{}), scope).Where("id = ?", id)
		result := query.Update("is_active", false)
		if result.Error != nil {
			return fmt.Errorf("failed to deactivate phone config: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return nil
		}

		if err := tx.Where("phone_config_id = ?", id).Delete(&domain.PhoneConfigMapping{}).Error; err != nil {
			return fmt.Errorf("failed to delete phone mapping: %w", err)
		}

		deleted = true
		return nil
	})
	if err != nil {
		return false, err
	}
	return deleted, nil
}

// CreateMapping links a phone config to an agent. A phone config carries at
// most one mapping; a second one returns ErrDuplicateMapping.
func (r *GormPhoneConfigRepository) CreateMapping(ctx context.Context, scope *auth.Context, req *domain.CreatePhoneMappingRequest) (*domain.PhoneConfigMapping, error) {
	var mapping *domain.PhoneConfigMapping

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var cfg domain.PhoneConfig
		query := tenantScoped(tx, scope).Where("id = ?", req.PhoneConfigID)
		if err := query.First(&cfg).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}
			return fmt.Errorf("failed to find phone config: %w", err)
		}

		var agent domain.Agent
		agentQuery := tenantScoped(tx, scope).Where("id = ?", req.AgentID)
		if err := agentQuery.First(&agent).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}
			return fmt.Errorf("failed to find agent: %w", err)
		}

		var count int64
		if err := tx.Model(&domain.PhoneConfigMapping{}).
			Where("phone_config_id = ?", req.PhoneConfigID).
			Count(&count).Error; err != nil {
			return fmt.Errorf("failed to check existing mapping: %w", err)
		}
		if count > 0 {
			return ErrDuplicateMapping
		}

		m := &domain.PhoneConfigMapping{
			TenantID:      cfg.TenantID,
			PhoneConfigID: req.PhoneConfigID,
			AgentID:       req.AgentID,
		}
		if err := tx.Create(m).Error; err != nil {
			return fmt.Errorf("failed to create phone mapping: %w", err)
		}

		mapping = m
		return nil
	})
	if err != nil {
		return nil, err
	}
	return mapping, nil
}

// ListMappings retrieves phone-to-agent mappings in the caller's tenant scope
func (r *GormPhoneConfigRepository) ListMappings(ctx context.Context, scope *auth.Context) ([]*domain.PhoneConfigMapping, error) {
	var mappings []*domain.PhoneConfigMapping
	query := tenantScoped(r.db.WithContext(ctx), scope)
	if err := query.Order("created_at DESC").Find(&mappings).Error; err != nil {
		return nil, fmt.Errorf("failed to list phone mappings: %w", err)
	}
	return mappings, nil
}

// DeleteMapping removes a phone-to-agent mapping within the caller's tenant
// scope
func (r *GormPhoneConfigRepository) DeleteMapping(ctx context.Context, scope *auth.Context, id string) (bool, error) {
	query := tenantScoped(r.db.WithContext(ctx), scope).Where("id = ?", id)
	result := query.Delete(&domain.PhoneConfigMapping{})
	if result.Error != nil {
		return false, fmt.Errorf("failed to delete phone mapping: %w", result.Error)
	}
	return result.RowsAffected > 0, nil
}
