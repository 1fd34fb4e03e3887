package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/ClareAI/astra-admin-console/internal/auth"
	"github.com/ClareAI/astra-admin-console/internal/domain"
)

// Sentinel errors surfaced by the config store. Reads never return an error
// for a missing or cross-tenant row; they return (nil, nil) and the handler
// decides the status.
var (
	ErrDuplicatePhoneNumber = errors.New("phone number already exists for tenant")
	ErrDuplicateMapping     = errors.New("phone config is already mapped to an agent")
)

// TenantRepository defines tenant operations (not tenant-scoped themselves;
// only global users reach these handlers)
type TenantRepository interface {
	Create(ctx context.Context, req *domain.CreateTenantRequest) (*domain.Tenant, error)
	GetByID(ctx context.Context, id string) (*domain.Tenant, error)
	GetByTenantID(ctx context.Context, tenantID string) (*domain.Tenant, error)
	GetAll(ctx context.Context, includeDisabled bool) ([]*domain.Tenant, error)
	Update(ctx context.Context, id string, req *domain.UpdateTenantRequest) (*domain.Tenant, error)
	Delete(ctx context.Context, id string) (bool, error)
}

// AdminUserRepository defines console user lookups for the auth guard
type AdminUserRepository interface {
	Create(ctx context.Context, user *domain.AdminUser) error
	GetByID(ctx context.Context, id string) (*domain.AdminUser, error)
	GetByEmail(ctx context.Context, email string) (*domain.AdminUser, error)
}

// AgentRepository defines tenant-scoped agent and agent-version operations
type AgentRepository interface {
	Create(ctx context.Context, scope *auth.Context, req *domain.CreateAgentRequest) (*domain.Agent, error)
	GetByID(ctx context.Context, scope *auth.Context, id string) (*domain.Agent, error)
	List(ctx context.Context, scope *auth.Context, includeDisabled bool) ([]*domain.Agent, error)
	Update(ctx context.Context, scope *auth.Context, id string, req *domain.UpdateAgentRequest) (*domain.Agent, error)
	Delete(ctx context.Context, scope *auth.Context, id string) (bool, error)

	ListVersions(ctx context.Context, scope *auth.Context, agentID string) ([]*domain.AgentVersion, error)
	GetVersion(ctx context.Context, scope *auth.Context, agentID, versionID string) (*domain.AgentVersion, error)
	GetActiveVersion(ctx context.Context, scope *auth.Context, agentID string) (*domain.AgentVersion, error)
	CreateVersion(ctx context.Context, scope *auth.Context, agentID string, req *domain.CreateAgentVersionRequest, createdBy string) (*domain.AgentVersion, error)
	ActivateVersion(ctx context.Context, scope *auth.Context, agentID, versionID string) (*domain.AgentVersion, error)
}

// RagConfigRepository defines tenant-scoped RAG config operations
type RagConfigRepository interface {
	Create(ctx context.Context, scope *auth.Context, req *domain.CreateRagConfigRequest) (*domain.RagConfig, error)
	GetByID(ctx context.Context, scope *auth.Context, id string) (*domain.RagConfig, error)
	List(ctx context.Context, scope *auth.Context, includeDisabled bool) ([]*domain.RagConfig, error)
	Update(ctx context.Context, scope *auth.Context, id string, req *domain.UpdateRagConfigRequest) (*domain.RagConfig, error)
	Delete(ctx context.Context, scope *auth.Context, id string) (bool, error)

	ListVersions(ctx context.Context, scope *auth.Context, configID string) ([]*domain.RagConfigVersion, error)
	GetVersion(ctx context.Context, scope *auth.Context, configID, versionID string) (*domain.RagConfigVersion, error)
	CreateVersion(ctx context.Context, scope *auth.Context, configID string, req *domain.CreateRagConfigVersionRequest, createdBy string) (*domain.RagConfigVersion, error)
	ActivateVersion(ctx context.Context, scope *auth.Context, configID, versionID string) (*domain.RagConfigVersion, error)
}

// VoiceConfigRepository defines tenant-scoped voice config operations
type VoiceConfigRepository interface {
	Create(ctx context.Context, scope *auth.Context, req *domain.CreateVoiceConfigRequest) (*domain.VoiceConfig, error)
	GetByID(ctx context.Context, scope *auth.Context, id string) (*domain.VoiceConfig, error)
	List(ctx context.Context, scope *auth.Context, includeDisabled bool) ([]*domain.VoiceConfig, error)
	Update(ctx context.Context, scope *auth.Context, id string, req *domain.UpdateVoiceConfigRequest) (*domain.VoiceConfig, error)
	Delete(ctx context.Context, scope *auth.Context, id string) (bool, error)

	ListVersions(ctx context.Context, scope *auth.Context, configID string) ([]*domain.VoiceConfigVersion, error)
	GetVersion(ctx context.Context, scope *auth.Context, configID, versionID string) (*domain.VoiceConfigVersion, error)
	CreateVersion(ctx context.Context, scope *auth.Context, configID string, req *domain.CreateVoiceConfigVersionRequest, createdBy string) (*domain.VoiceConfigVersion, error)
	ActivateVersion(ctx context.Context, scope *auth.Context, configID, versionID string) (*domain.VoiceConfigVersion, error)
}

// PhoneConfigRepository defines tenant-scoped phone config and mapping
// operations
type PhoneConfigRepository interface {
	Create(ctx context.Context, scope *auth.Context, req *domain.CreatePhoneConfigRequest) (*domain.PhoneConfig, error)
	GetByID(ctx context.Context, scope *auth.Context, id string) (*domain.PhoneConfig, error)
	List(ctx context.Context, scope *auth.Context, includeInactive bool) ([]*domain.PhoneConfig, error)
	Update(ctx context.Context, scope *auth.Context, id string, req *domain.UpdatePhoneConfigRequest) (*domain.PhoneConfig, error)
	Delete(ctx context.Context, scope *auth.Context, id string) (bool, error)

	CreateMapping(ctx context.Context, scope *auth.Context, req *domain.CreatePhoneMappingRequest) (*domain.PhoneConfigMapping, error)
	ListMappings(ctx context.Context, scope *auth.Context) ([]*domain.PhoneConfigMapping, error)
	DeleteMapping(ctx context.Context, scope *auth.Context, id string) (bool, error)
}

// CallRecordRepository defines tenant-scoped call analytics reads
type CallRecordRepository interface {
	Create(ctx context.Context, record *domain.CallRecord) error
	GetByID(ctx context.Context, scope *auth.Context, id string) (*domain.CallRecord, error)
	List(ctx context.Context, scope *auth.Context, filter *domain.CallFilter) ([]*domain.CallRecord, error)
	Stats(ctx context.Context, scope *auth.Context, filter *domain.CallFilter) ([]*domain.CallStats, error)
}

// RepositoryManager combines all repositories
type RepositoryManager interface {
	Tenant() TenantRepository
	AdminUser() AdminUserRepository
	Agent() AgentRepository
	RagConfig() RagConfigRepository
	VoiceConfig() VoiceConfigRepository
	PhoneConfig() PhoneConfigRepository
	CallRecord() CallRecordRepository

	// Transaction support
	WithTx(ctx context.Context, fn func(ctx context.Context, repos RepositoryManager) error) error

	// Health check
	Ping(ctx context.Context) error

	// Close connection
	Close() error
}

// GormRepositoryManager implements RepositoryManager using GORM
type GormRepositoryManager struct {
	db              *gorm.DB
	tenantRepo      *GormTenantRepository
	adminUserRepo   *GormAdminUserRepository
	agentRepo       *GormAgentRepository
	ragConfigRepo   *GormRagConfigRepository
	voiceConfigRepo *GormVoiceConfigRepository
	phoneConfigRepo *GormPhoneConfigRepository
	callRecordRepo  *GormCallRecordRepository
}

// NewGormRepositoryManager creates a new GORM repository manager
func NewGormRepositoryManager(db *gorm.DB) *GormRepositoryManager {
	return &GormRepositoryManager{
		db:              db,
		tenantRepo:      NewGormTenantRepository(db),
		adminUserRepo:   NewGormAdminUserRepository(db),
		agentRepo:       NewGormAgentRepository(db),
		ragConfigRepo:   NewGormRagConfigRepository(db),
		voiceConfigRepo: NewGormVoiceConfigRepository(db),
		phoneConfigRepo: NewGormPhoneConfigRepository(db),
		callRecordRepo:  NewGormCallRecordRepository(db),
	}
}

// Tenant returns the tenant repository
func (m *GormRepositoryManager) Tenant() TenantRepository { return m.tenantRepo }

// AdminUser returns the admin user repository
func (m *GormRepositoryManager) AdminUser() AdminUserRepository { return m.adminUserRepo }

// Agent returns the agent repository
func (m *GormRepositoryManager) Agent() AgentRepository { return m.agentRepo }

// RagConfig returns the RAG config repository
func (m *GormRepositoryManager) RagConfig() RagConfigRepository { return m.ragConfigRepo }

// VoiceConfig returns the voice config repository
func (m *GormRepositoryManager) VoiceConfig() VoiceConfigRepository { return m.voiceConfigRepo }

// PhoneConfig returns the phone config repository
func (m *GormRepositoryManager) PhoneConfig() PhoneConfigRepository { return m.phoneConfigRepo }

// CallRecord returns the call record repository
func (m *GormRepositoryManager) CallRecord() CallRecordRepository { return m.callRecordRepo }

// WithTx executes a function within a database transaction
func (m *GormRepositoryManager) WithTx(ctx context.Context, fn func(ctx context.Context, repos RepositoryManager) error) error {
	return m.db.Transaction(func(tx *gorm.DB) error {
		return fn(ctx, NewGormRepositoryManager(tx))
	})
}

// Ping checks the database connection
func (m *GormRepositoryManager) Ping(ctx context.Context) error {
	sqlDB, err := m.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Close closes the database connection
func (m *GormRepositoryManager) Close() error {
	sqlDB, err := m.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
