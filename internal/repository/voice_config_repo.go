package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/ClareAI/astra-admin-console/internal/auth"
	"github.com/ClareAI/astra-admin-console/internal/domain"
)

// GormVoiceConfigRepository implements VoiceConfigRepository using GORM
type GormVoiceConfigRepository struct {
	db *gorm.DB
}

// NewGormVoiceConfigRepository creates a new GORM voice config repository
func NewGormVoiceConfigRepository(db *gorm.DB) *GormVoiceConfigRepository {
	return &GormVoiceConfigRepository{db: db}
}

// Create creates a new voice config under the caller's tenant
func (r *GormVoiceConfigRepository) Create(ctx context.Context, scope *auth.Context, req *domain.CreateVoiceConfigRequest) (*domain.VoiceConfig, error) {
	cfg := &domain.VoiceConfig{
		TenantID:    resolveTenant(scope, req.TenantID),
		Name:        req.Name,
		Description: req.Description,
	}

	if err := r.db.WithContext(ctx).Create(cfg).Error; err != nil {
		return nil, fmt.Errorf("failed to create voice config: %w", err)
	}

	return cfg, nil
}

// GetByID retrieves a voice config within the caller's tenant scope
func (r *GormVoiceConfigRepository) GetByID(ctx context.Context, scope *auth.Context, id string) (*domain.VoiceConfig, error) {
	var cfg domain.VoiceConfig
	query := tenantScoped(r.db.WithContext(ctx), scope).Where("id = ?", id)
	if err := query.First(&cfg).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get voice config: %w", err)
	}
	return &cfg, nil
}

// List retrieves voice configs in the caller's tenant scope
func (r *GormVoiceConfigRepository) List(ctx context.Context, scope *auth.Context, includeDisabled bool) ([]*domain.VoiceConfig, error) {
	var configs []*domain.VoiceConfig
	query := tenantScoped(r.db.WithContext(ctx), scope)

	if !includeDisabled {
		query = query.Where("disabled = ?", false)
	}

	if err := query.Order("created_at DESC").Find(&configs).Error; err != nil {
		return nil, fmt.Errorf("failed to list voice configs: %w", err)
	}

	return configs, nil
}

// Update updates voice config metadata within the caller's tenant scope
func (r *GormVoiceConfigRepository) Update(ctx context.Context, scope *auth.Context, id string, req *domain.UpdateVoiceConfigRequest) (*domain.VoiceConfig, error) {
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
	if req.Disabled != nil {
		updates["disabled"] = *req.Disabled
	}

	if len(updates) == 0 {
		return cfg, nil
	}

	if err := r.db.WithContext(ctx).Model(cfg).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("failed to update voice config: %w", err)
	}

	return cfg, nil
}

// Delete soft deletes a voice config within the caller's tenant scope
func (r *GormVoiceConfigRepository) Delete(ctx context.Context, scope *auth.Context, id string) (bool, error) {
	query := tenantScoped(r.db.WithContext(ctx).Model(&domain.VoiceConfig{}), scope).Where("id = ?", id)
	result := query.Update("disabled", true)
	if result.Error != nil {
		return false, fmt.Errorf("failed to delete voice config: %w", result.Error)
	}
	return result.RowsAffected > 0, nil
}

// ListVersions retrieves all versions of a voice config, newest first
func (r *GormVoiceConfigRepository) ListVersions(ctx context.Context, scope *auth.Context, configID string) ([]*domain.VoiceConfigVersion, error) {
	cfg, err := r.GetByID(ctx, scope, configID)
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		return nil, nil
	}

	// non-nil even when empty so callers can tell "no versions" from
	// "config not found"
	versions := make([]*domain.VoiceConfigVersion, 0)
	if err := r.db.WithContext(ctx).Where("voice_config_id = ?", configID).Order("version DESC").Find(&versions).Error; err != nil {
		return nil, fmt.Errorf("failed to list voice config versions: %w", err)
	}
	return versions, nil
}

// GetVersion retrieves one version of a voice config within tenant scope
func (r *GormVoiceConfigRepository) GetVersion(ctx context.Context, scope *auth.Context, configID, versionID string) (*domain.VoiceConfigVersion, error) {
	cfg, err := r.GetByID(ctx, scope, configID)
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		return nil, nil
	}

	var version domain.VoiceConfigVersion
	if err := r.db.WithContext(ctx).Where("id = ? AND voice_config_id = ?", versionID, configID).First(&version).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get voice config version: %w", err)
	}
	return &version, nil
}

// CreateVersion allocates the next version number for the voice config and
// inserts a new immutable row
func (r *GormVoiceConfigRepository) CreateVersion(ctx context.Context, scope *auth.Context, configID string, req *domain.CreateVoiceConfigVersionRequest, createdBy string) (*domain.VoiceConfigVersion, error) {
	var created *domain.VoiceConfigVersion

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var cfg domain.VoiceConfig
		query := tenantScoped(tx, scope).Where("id = ?", configID)
		if err := query.First(&cfg).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}
			return fmt.Errorf("failed to find voice config: %w", err)
		}

		var maxVersion int
		if err := tx.Model(&domain.VoiceConfigVersion{}).
			Where("voice_config_id = ?", configID).
			Select("COALESCE(MAX(version), 0)").
			Scan(&maxVersion).Error; err != nil {
			return fmt.Errorf("failed to read latest version number: %w", err)
		}

		version := &domain.VoiceConfigVersion{
			VoiceConfigID:   configID,
			Version:         maxVersion + 1,
			VoiceID:         req.VoiceID,
			Model:           req.Model,
			Stability:       req.Stability,
			SimilarityBoost: req.SimilarityBoost,
			Style:           req.Style,
			Speed:           req.Speed,
			CreatedBy:       createdBy,
			Notes:           req.Notes,
		}
		if err := tx.Create(version).Error; err != nil {
			return fmt.Errorf("failed to create voice config version: %w", err)
		}

		created = version
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// ActivateVersion flips the active pointer in one clear-then-set
// transaction. Returns nil when missing or cross-tenant.
func (r *GormVoiceConfigRepository) ActivateVersion(ctx context.Context, scope *auth.Context, configID, versionID string) (*domain.VoiceConfigVersion, error) {
	var activated *domain.VoiceConfigVersion

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var cfg domain.VoiceConfig
		query := tenantScoped(tx, scope).Where("id = ?", configID)
		if err := query.First(&cfg).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}
			return fmt.Errorf("failed to find voice config: %w", err)
		}

		var version domain.VoiceConfigVersion
		if err := tx.Where("id = ? AND voice_config_id = ?", versionID, configID).First(&version).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}
			return fmt.Errorf("failed to find voice config version: %w", err)
		}

		if err := tx.Model(&domain.VoiceConfigVersion{}).
			Where("voice_config_id = ? AND is_active = ?", configID, true).
			Update("is_active", false).Error; err != nil {
			return fmt.Errorf("failed to clear active versions: %w", err)
		}

		if err := tx.Model(&domain.VoiceConfigVersion{}).
			Where("id = ?", versionID).
			Update("is_active", true).Error; err != nil {
			return fmt.Errorf("failed to activate version: %w", err)
		}

		version.IsActive = true
		activated = &version
		return nil
	})
	if err != nil {
		return nil, err
	}
	return activated, nil
}
