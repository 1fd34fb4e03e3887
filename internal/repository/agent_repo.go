package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/ClareAI/astra-admin-console/internal/auth"
	"github.com/ClareAI/astra-admin-console/internal/domain"
)

// GormAgentRepository implements AgentRepository using GORM
type GormAgentRepository struct {
	db *gorm.DB
}

// NewGormAgentRepository creates a new GORM agent repository
func NewGormAgentRepository(db *gorm.DB) *GormAgentRepository {
	return &GormAgentRepository{db: db}
}

// resolveTenant picks the tenant a created entity belongs to. Global users
// may create on behalf of any tenant by naming it in the request.
func resolveTenant(scope *auth.Context, requested string) string {
	if scope.IsGlobalUser && requested != "" {
		return requested
	}
	return scope.TenantID
}

// tenantScoped applies the caller's tenant filter unless the caller is a
// global user.
func tenantScoped(query *gorm.DB, scope *auth.Context) *gorm.DB {
	if scope.ScopesTenant() {
		return query.Where("tenant_id = ?", scope.TenantID)
	}
	return query
}

// Create creates a new agent under the caller's tenant
func (r *GormAgentRepository) Create(ctx context.Context, scope *auth.Context, req *domain.CreateAgentRequest) (*domain.Agent, error) {
	agent := &domain.Agent{
		TenantID:    resolveTenant(scope, req.TenantID),
		Name:        req.Name,
		Description: req.Description,
	}

	if err := r.db.WithContext(ctx).Create(agent).Error; err != nil {
		return nil, fmt.Errorf("failed to create agent: %w", err)
	}

	return agent, nil
}

// GetByID retrieves an agent within the caller's tenant scope. Returns nil
// when not found or owned by another tenant.
func (r *GormAgentRepository) GetByID(ctx context.Context, scope *auth.Context, id string) (*domain.Agent, error) {
	var agent domain.Agent
	query := tenantScoped(r.db.WithContext(ctx), scope).Where("id = ?", id)
	if err := query.First(&agent).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get agent: %w", err)
	}
	return &agent, nil
}

// List retrieves agents in the caller's tenant scope
func (r *GormAgentRepository) List(ctx context.Context, scope *auth.Context, includeDisabled bool) ([]*domain.Agent, error) {
	var agents []*domain.Agent
	query := tenantScoped(r.db.WithContext(ctx), scope)

	if !includeDisabled {
		query = query.Where("disabled = ?", false)
	}

	if err := query.Order("created_at DESC").Find(&agents).Error; err != nil {
		return nil, fmt.Errorf("failed to list agents: %w", err)
	}

	return agents, nil
}

// Update updates agent metadata within the caller's tenant scope
func (r *GormAgentRepository) Update(ctx context.Context, scope *auth.Context, id string, req *domain.UpdateAgentRequest) (*domain.Agent, error) {
	agent, err := r.GetByID(ctx, scope, id)
	if err != nil || agent == nil {
		return agent, err
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
		return agent, nil
	}

	if err := r.db.WithContext(ctx).Model(agent).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("failed to update agent: %w", err)
	}

	return agent, nil
}

// Delete soft deletes an agent within the caller's tenant scope
func (r *GormAgentRepository) Delete(ctx context.Context, scope *auth.Context, id string) (bool, error) {
	query := tenantScoped(r.db.WithContext(ctx).Model(&domain.Agent{}), scope).Where("id = ?", id)
	result := query.Update("disabled", true)
	if result.Error != nil {
		return false, fmt.Errorf("failed to delete agent: %w", result.Error)
	}
	return result.RowsAffected > 0, nil
}

// ListVersions retrieves all versions of an agent, newest first
func (r *GormAgentRepository) ListVersions(ctx context.Context, scope *auth.Context, agentID string) ([]*domain.AgentVersion, error) {
	agent, err := r.GetByID(ctx, scope, agentID)
	if err != nil {
		return nil, err
	}
	if agent == nil {
		return nil, nil
	}

	// non-nil even when empty so callers can tell "no versions" from
	// "agent not found"
	versions := make([]*domain.AgentVersion, 0)
	if err := r.db.WithContext(ctx).Where("agent_id = ?", agentID).Order("version DESC").Find(&versions).Error; err != nil {
		return nil, fmt.Errorf("failed to list agent versions: %w", err)
	}
	return versions, nil
}

// GetVersion retrieves one version of an agent within tenant scope
func (r *GormAgentRepository) GetVersion(ctx context.Context, scope *auth.Context, agentID, versionID string) (*domain.AgentVersion, error) {
	agent, err := r.GetByID(ctx, scope, agentID)
	if err != nil {
		return nil, err
	}
	if agent == nil {
		return nil, nil
	}

	var version domain.AgentVersion
	if err := r.db.WithContext(ctx).Where("id = ? AND agent_id = ?", versionID, agentID).First(&version).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get agent version: %w", err)
	}
	return &version, nil
}

// GetActiveVersion retrieves the single active version, or nil when none
// has been activated yet
func (r *GormAgentRepository) GetActiveVersion(ctx context.Context, scope *auth.Context, agentID string) (*domain.AgentVersion, error) {
	agent, err := r.GetByID(ctx, scope, agentID)
	if err != nil {
		return nil, err
	}
	if agent == nil {
		return nil, nil
	}

	var version domain.AgentVersion
	if err := r.db.WithContext(ctx).Where("agent_id = ? AND is_active = ?", agentID, true).First(&version).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get active agent version: %w", err)
	}
	return &version, nil
}

// CreateVersion allocates the next version number for the agent and inserts
// a new immutable row. Numbering happens inside the transaction so numbers
// are never reused; the (agent_id, version) unique index backs this up.
func (r *GormAgentRepository) CreateVersion(ctx context.Context, scope *auth.Context, agentID string, req *domain.CreateAgentVersionRequest, createdBy string) (*domain.AgentVersion, error) {
	var created *domain.AgentVersion

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var agent domain.Agent
		query := tenantScoped(tx, scope).Where("id = ?", agentID)
		if err := query.First(&agent).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil // caller sees (nil, nil)
			}
			return fmt.Errorf("failed to find agent: %w", err)
		}

		var maxVersion int
		if err := tx.Model(&domain.AgentVersion{}).
			Where("agent_id = ?", agentID).
			Select("COALESCE(MAX(version), 0)").
			Scan(&maxVersion).Error; err != nil {
			return fmt.Errorf("failed to read latest version number: %w", err)
		}

		version := &domain.AgentVersion{
			AgentID:       agentID,
			Version:       maxVersion + 1,
			ConfigJSON:    domain.WorkflowDoc(req.ConfigJSON),
			GlobalPrompt:  req.GlobalPrompt,
			RagEnabled:    req.RagEnabled,
			RagConfigID:   req.RagConfigID,
			VoiceConfigID: req.VoiceConfigID,
			CreatedBy:     createdBy,
			Notes:         req.Notes,
		}
		if err := tx.Create(version).Error; err != nil {
			return fmt.Errorf("failed to create agent version: %w", err)
		}

		created = version
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// ActivateVersion flips the active pointer to the target version in one
// transaction: clear all sibling flags, then set the target. Returns nil
// when the agent or version is missing or cross-tenant.
func (r *GormAgentRepository) ActivateVersion(ctx context.Context, scope *auth.Context, agentID, versionID string) (*domain.AgentVersion, error) {
	var activated *domain.AgentVersion

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var agent domain.Agent
		query := tenantScoped(tx, scope).Where("id = ?", agentID)
		if err := query.First(&agent).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}
			return fmt.Errorf("failed to find agent: %w", err)
		}

		var version domain.AgentVersion
		if err := tx.Where("id = ? AND agent_id = ?", versionID, agentID).First(&version).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}
			return fmt.Errorf("failed to find agent version: %w", err)
		}

		if err := tx.Model(&domain.AgentVersion{}).
			Where("agent_id = ? AND is_active = ?", agentID, true).
			Update("is_active", false).Error; err != nil {
			return fmt.Errorf("failed to clear active versions: %w", err)
		}

		if err := tx.Model(&domain.AgentVersion{}).
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
