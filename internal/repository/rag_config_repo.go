package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/ClareAI/astra-admin-console/internal/auth"
	"github.com/ClareAI/astra-admin-console/internal/domain"
)

// GormRagConfigRepository implements RagConfigRepository using GORM
type GormRagConfigRepository struct {
	db *gorm.DB
}

// NewGormRagConfigRepository creates a new GORM RAG config repository
func NewGormRagConfigRepository(db *gorm.DB) *GormRagConfigRepository {
	return &GormRagConfigRepository{db: db}
}

// Create creates a new RAG config under the caller's tenant
func (r *GormRagConfigRepository) Create(ctx context.Context, scope *auth.Context, req *domain.CreateRagConfigRequest) (*domain.RagConfig, error) {
	cfg := &domain.RagConfig{
		TenantID:    resolveTenant(scope, req.TenantID),
		Name:        req.Name,
		Description: req.Description,
	}

	if err := r.db.WithContext(ctx).Create(cfg).Error; err != nil {
		return nil, fmt.Errorf("failed to create rag config: %w", err)
	}

	return cfg, nil
}

// GetByID retrieves a RAG config within the caller's tenant scope
func (r *GormRagConfigRepository) GetByID(ctx context.Context, scope *auth.Context, id string) (*domain.RagConfig, error) {
	var cfg domain.RagConfig
	query := tenantScoped(r.db.WithContext(ctx), scope).Where("id = ?", id)
	if err := query.First(&cfg).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get rag config: %w", err)
	}
	return &cfg, nil
}

// List retrieves RAG configs in the caller's tenant scope
func (r *GormRagConfigRepository) List(ctx context.Context, scope *auth.Context, includeDisabled bool) ([]*domain.RagConfig, error) {
	var configs []*domain.RagConfig
	query := tenantScoped(r.db.WithContext(ctx), scope)

	if !includeDisabled {
		query = query.Where("disabled = ?", false)
	}

	if err := query.Order("created_at DESC").Find(&configs).Error; err != nil {
		return nil, fmt.Errorf("failed to list rag configs: %w", err)
	}

	return configs, nil
}

// Update updates RAG config metadata within the caller's tenant scope
func (r *GormRagConfigRepository) Update(ctx context.Context, scope *auth.Context, id string, req *domain.UpdateRagConfigRequest) (*domain.RagConfig, error) {
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
		return nil, fmt.Errorf("failed to update rag config: %w", err)
	}

	return cfg, nil
}

// Delete soft deletes a RAG config within the caller's tenant scope
func (r *GormRagConfigRepository) Delete(ctx context.Context, scope *auth.Context, id string) (bool, error) {
	query := tenantScoped(r.db.WithContext(ctx).Model(&domain.RagConfig{}), scope).Where("id = ?", id)
	result := query.Update("disabled", true)
	if result.Error != nil {
		return false, fmt.Errorf("failed to delete rag config: %w", result.Error)
	}
	return result.RowsAffected > 0, nil
}

// ListVersions retrieves all versions of a RAG config, newest first
func (r *GormRagConfigRepository) ListVersions(ctx context.Context, scope *auth.Context, configID string) ([]*domain.RagConfigVersion, error) {
	cfg, err := r.GetByID(ctx, scope, configID)
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		return nil, nil
	}

	// non-nil even when empty so callers can tell "no versions" from
	// "config not found"
	versions := make([]*domain.RagConfigVersion, 0)
	if err := r.db.WithContext(ctx).Where("rag_config_id = ?", configID).Order("version DESC").Find(&versions).Error; err != nil {
		return nil, fmt.Errorf("failed to list rag config versions: %w", err)
	}
	return versions, nil
}

// GetVersion retrieves one version of a RAG config within tenant scope
func (r *GormRagConfigRepository) GetVersion(ctx context.Context, scope *auth.Context, configID, versionID string) (*domain.RagConfigVersion, error) {
	cfg, err := r.GetByID(ctx, scope, configID)
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		return nil, nil
	}

	var version domain.RagConfigVersion
	if err := r.db.WithContext(ctx).Where("id = ? AND rag_config_id = ?", versionID, configID).First(&version).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get rag config version: %w", err)
	}
	return &version, nil
}

// CreateVersion allocates the next version number for the RAG config and
// inserts a new immutable row
func (r *GormRagConfigRepository) CreateVersion(ctx context.Context, scope *auth.Context, configID string, req *domain.CreateRagConfigVersionRequest, createdBy string) (*domain.RagConfigVersion, error) {
	var created *domain.RagConfigVersion

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var cfg domain.RagConfig
		query := tenantScoped(tx, scope).Where("id = ?", configID)
		if err := query.First(&cfg).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}
			return fmt.Errorf("failed to find rag config: %w", err)
		}

		var maxVersion int
		if err := tx.Model(&domain.RagConfigVersion{}).
			Where("rag_config_id = ?", configID).
			Select("COALESCE(MAX(version), 0)").
			Scan(&maxVersion).Error; err != nil {
			return fmt.Errorf("failed to read latest version number: %w", err)
		}

		version := &domain.RagConfigVersion{
			RagConfigID:    configID,
			Version:        maxVersion + 1,
			SearchMode:     req.SearchMode,
			TopK:           req.TopK,
			FusionWeight:   req.FusionWeight,
			ScoreThreshold: req.ScoreThreshold,
			EmbeddingModel: req.EmbeddingModel,
			CreatedBy:      createdBy,
			Notes:          req.Notes,
		}
		if err := tx.Create(version).Error; err != nil {
			return fmt.Errorf("failed to create rag config version: %w", err)
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
func (r *GormRagConfigRepository) ActivateVersion(ctx context.Context, scope *auth.Context, configID, versionID string) (*domain.RagConfigVersion, error) {
	var activated *domain.RagConfigVersion

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var cfg domain.RagConfig
		query := tenantScoped(tx, scope).Where("id = ?", configID)
		if err := query.First(&cfg).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}
			return fmt.Errorf("failed to find rag config: %w", err)
		}

		var version domain.RagConfigVersion
		if err := tx.Where("id = ? AND rag_config_id = ?", versionID, configID).First(&version).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}
			return fmt.Errorf("failed to find rag config version: %w", err)
		}

		if err := tx.Model(&domain.RagConfigVersion{}).
			Where("rag_config_id = ? AND is_active = ?", configID, true).
			Update("is_active", false).Error; err != nil {
			return fmt.Errorf("failed to clear active versions: %w", err)
		}

		if err := tx.Model(&domain.RagConfigVersion{}).
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
