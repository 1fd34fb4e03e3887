package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/ClareAI/astra-admin-console/internal/auth"
	"github.com/ClareAI/astra-admin-console/internal/domain"
)

const defaultCallPageSize = 50
const maxCallPageSize = 200

// GormCallRecordRepository implements CallRecordRepository using GORM
type GormCallRecordRepository struct {
	db *gorm.DB
}

// NewGormCallRecordRepository creates a new GORM call record repository
func NewGormCallRecordRepository(db *gorm.DB) *GormCallRecordRepository {
	return &GormCallRecordRepository{db: db}
}

// Create inserts a call record. Used by the orchestrator webhook sink, not
// by console users.
func (r *GormCallRecordRepository) Create(ctx context.Context, record *domain.CallRecord) error {
	if err := r.db.WithContext(ctx).Create(record).Error; err != nil {
		return fmt.Errorf("failed to create call record: %w", err)
	}
	return nil
}

// GetByID retrieves a call record within the caller's tenant scope
func (r *GormCallRecordRepository) GetByID(ctx context.Context, scope *auth.Context, id string) (*domain.CallRecord, error) {
	var record domain.CallRecord
	query := tenantScoped(r.db.WithContext(ctx), scope).Where("id = ?", id)
	if err := query.First(&record).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get call record: %w", err)
	}
	return &record, nil
}

func applyCallFilter(query *gorm.DB, filter *domain.CallFilter) *gorm.DB {
	if filter == nil {
		return query
	}
	if filter.AgentID != "" {
		query = query.Where("agent_id = ?", filter.AgentID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.Direction != "" {
		query = query.Where("direction = ?", filter.Direction)
	}
	if !filter.From.IsZero() {
		query = query.Where("started_at >= ?", filter.From)
	}
	if !filter.To.IsZero() {
		query = query.Where("started_at < ?", filter.To)
	}
	return query
}

// List retrieves call records in the caller's tenant scope, newest first
func (r *GormCallRecordRepository) List(ctx context.Context, scope *auth.Context, filter *domain.CallFilter) ([]*domain.CallRecord, error) {
	var records []*domain.CallRecord

	query := tenantScoped(r.db.WithContext(ctx), scope)
	query = applyCallFilter(query, filter)

	limit := defaultCallPageSize
	offset := 0
	if filter != nil {
		if filter.Limit > 0 {
			limit = filter.Limit
		}
		if limit > maxCallPageSize {
			limit = maxCallPageSize
		}
		if filter.Offset > 0 {
			offset = filter.Offset
		}
	}

	if err := query.Order("started_at DESC").Limit(limit).Offset(offset).Find(&records).Error; err != nil {
		return nil, fmt.Errorf("failed to list call records: %w", err)
	}

	return records, nil
}

// Stats aggregates call counts and durations grouped by agent
func (r *GormCallRecordRepository) Stats(ctx context.Context, scope *auth.Context, filter *domain.CallFilter) ([]*domain.CallStats, error) {
	var stats []*domain.CallStats

	query := tenantScoped(r.db.WithContext(ctx).Model(&domain.CallRecord{}), scope)
	query = applyCallFilter(query, filter)

	err := query.
		Select(`agent_id,
			COUNT(*) AS total_calls,
			SUM(CASE WHEN status = ? THEN 1 ELSE 0 END) AS completed_calls,
			SUM(CASE WHEN status = ? THEN 1 ELSE 0 END) AS failed_calls,
			COALESCE(SUM(duration_seconds), 0) AS total_duration_seconds,
			COALESCE(AVG(duration_seconds), 0) AS avg_duration_seconds`,
			domain.CallStatusCompleted, domain.CallStatusFailed).
		Group("agent_id").
		Order("total_calls DESC").
		Scan(&stats).Error
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate call stats: %w", err)
	}

	return stats, nil
}
