package analytics

import (
	"context"

	"github.com/google/uuid"
)

// EventTypeCount is one bucket of the tenant-wide event histogram
type EventTypeCount struct {
	EventType string `json:"eventType"`
	Count     int64  `json:"count"`
}

// EventRepository defines persistence operations for custom events
type EventRepository interface {
	Save(ctx context.Context, event *CustomEvent) error
	CountByTenant(ctx context.Context, tenantID uuid.UUID) (int64, error)

	// Recent returns the newest events for a tenant, capped at limit
	Recent(ctx context.Context, tenantID uuid.UUID, limit int) ([]CustomEvent, error)

	// CountsByType returns the tenant-wide histogram of event types,
	// largest bucket first
	CountsByType(ctx context.Context, tenantID uuid.UUID) ([]EventTypeCount, error)
}
