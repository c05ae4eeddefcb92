// Package analytics holds behavioral event tracking and the dashboard
// read models built on top of it.
package analytics

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopalytics/backend/internal/domain/commerce"
	"github.com/shopalytics/backend/internal/domain/shared"
)

// DefaultEventType is assumed when a tracking payload names no type
const DefaultEventType = "cart_abandoned"

// CustomEvent is a behavioral signal captured from the storefront, such
// as an abandoned cart or a checkout start. The payload is stored as
// raw JSON since event shapes vary by type.
type CustomEvent struct {
	shared.TenantAggregateRoot
	EventType  string             `gorm:"type:varchar(100);not null;index"`
	CustomerID *uuid.UUID         `gorm:"type:uuid;index"`
	Customer   *commerce.Customer `gorm:"foreignKey:CustomerID"`
	Payload    string             `gorm:"type:text;not null;default:'{}'"`
}

// TableName returns the table name for GORM
func (CustomEvent) TableName() string {
	return "custom_events"
}

// NewCustomEvent creates an event, defaulting the type and normalizing
// the payload to a JSON document
func NewCustomEvent(tenantID uuid.UUID, eventType string, payload json.RawMessage, customerID *uuid.UUID) (*CustomEvent, error) {
	if tenantID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_TENANT_ID", "Tenant ID is required")
	}

	eventType = strings.TrimSpace(eventType)
	if eventType == "" {
		eventType = DefaultEventType
	}
	if len(eventType) > 100 {
		return nil, shared.NewDomainError("INVALID_EVENT_TYPE", "Event type cannot exceed 100 characters")
	}

	body := "{}"
	if len(payload) > 0 {
		if !json.Valid(payload) {
			return nil, shared.NewDomainError("INVALID_PAYLOAD", "Event payload must be valid JSON")
		}
		body = string(payload)
	}

	return &CustomEvent{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		EventType:           eventType,
		CustomerID:          customerID,
		Payload:             body,
	}, nil
}

// OccurredAt returns the event capture time
func (e *CustomEvent) OccurredAt() time.Time {
	return e.CreatedAt
}
