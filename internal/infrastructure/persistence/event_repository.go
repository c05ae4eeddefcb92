package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopalytics/backend/internal/domain/analytics"
	"github.com/shopalytics/backend/internal/infrastructure/persistence/tenant"
	"gorm.io/gorm"
)

// GormEventRepository implements EventRepository using GORM
type GormEventRepository struct {
	db *gorm.DB
}

var _ analytics.EventRepository = (*GormEventRepository)(nil)

// NewGormEventRepository creates a new GormEventRepository
func NewGormEventRepository(db *gorm.DB) *GormEventRepository {
	return &GormEventRepository{db: db}
}

// Save creates or updates a custom event
func (r *GormEventRepository) Save(ctx context.Context, event *analytics.CustomEvent) error {
	return r.db.WithContext(ctx).Save(event).Error
}

// CountByTenant counts all events of a tenant
func (r *GormEventRepository) CountByTenant(ctx context.Context, tenantID uuid.UUID) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&analytics.CustomEvent{}).
		Scopes(tenant.Scope(tenantID)).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Recent returns the newest events for a tenant, capped at limit
func (r *GormEventRepository) Recent(ctx context.Context, tenantID uuid.UUID, limit int) ([]analytics.CustomEvent, error) {
	if limit <= 0 {
		return []analytics.CustomEvent{}, nil
	}
	var events []analytics.CustomEvent
	if err := r.db.WithContext(ctx).
		Scopes(tenant.Scope(tenantID)).
		Preload("Customer").
		Order("created_at DESC, id ASC").
		Limit(limit).
		Find(&events).Error; err != nil {
		return nil, err
	}
	return events, nil
}

// CountsByType returns the tenant-wide histogram of event types,
// largest bucket first
func (r *GormEventRepository) CountsByType(ctx context.Context, tenantID uuid.UUID) ([]analytics.EventTypeCount, error) {
	var counts []analytics.EventTypeCount
	err := r.db.WithContext(ctx).Table("custom_events").
		Select("event_type, COUNT(id) as count").
		Where("tenant_id = ?", tenantID).
		Group("event_type").
		Order("count DESC, event_type ASC").
		Scan(&counts).Error
	if err != nil {
		return nil, err
	}
	return counts, nil
}
