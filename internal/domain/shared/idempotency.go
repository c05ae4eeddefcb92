package shared

import (
	"context"
	"time"
)

// IdempotencyStore stores processed webhook IDs to prevent duplicate processing
type IdempotencyStore interface {
	// MarkProcessed marks a webhook delivery as processed with a TTL.
	// Returns true if the delivery was newly marked, false if it was already processed.
	MarkProcessed(ctx context.Context, deliveryID string, ttl time.Duration) (bool, error)

	// IsProcessed checks if a webhook delivery has already been processed
	IsProcessed(ctx context.Context, deliveryID string) (bool, error)

	// Close closes the store and releases resources
	Close() error
}

// IdempotencyConfig holds configuration for webhook dedupe handling
type IdempotencyConfig struct {
	// TTL is the time-to-live for processed delivery IDs.
	// After this duration, the same delivery ID is accepted again.
	TTL time.Duration

	// Enabled determines whether dedupe checking is enabled
	Enabled bool
}

// DefaultIdempotencyConfig returns the default dedupe configuration
func DefaultIdempotencyConfig() IdempotencyConfig {
	return IdempotencyConfig{
		TTL:     24 * time.Hour,
		Enabled: true,
	}
}
