// Package storage provides object storage implementations for archiving
// raw webhook payloads.
package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Archiver persists raw webhook payloads so ingestion bugs can be
// replayed against the original bytes.
type Archiver interface {
	Archive(ctx context.Context, tenantID uuid.UUID, topic, deliveryID string, payload []byte) error
}

// ArchiveKey builds the object key for an archived webhook payload.
// Keys shard by tenant and topic so retention policies can target them.
func ArchiveKey(tenantID uuid.UUID, topic, deliveryID string, receivedAt time.Time) string {
	if deliveryID == "" {
		deliveryID = uuid.NewString()
	}
	return fmt.Sprintf("tenants/%s/webhooks/%s/%s-%s.json",
		tenantID.String(), topic, receivedAt.UTC().Format("20060102T150405Z"), deliveryID)
}

// NoopArchiver discards payloads. Used when archiving is disabled.
type NoopArchiver struct{}

// NewNoopArchiver creates a new NoopArchiver
func NewNoopArchiver() *NoopArchiver {
	return &NoopArchiver{}
}

var _ Archiver = (*NoopArchiver)(nil)

// Archive discards the payload
func (NoopArchiver) Archive(ctx context.Context, tenantID uuid.UUID, topic, deliveryID string, payload []byte) error {
	return nil
}
