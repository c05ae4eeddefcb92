package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// dashboardScanBatchSize bounds each SCAN page during invalidation
const dashboardScanBatchSize = 100

// DashboardCache stores rendered dashboard snapshots keyed by tenant and
// date range. Webhook traffic invalidates per tenant, so a short TTL is
// enough to absorb bursty dashboard polling.
type DashboardCache interface {
	Get(ctx context.Context, tenantID uuid.UUID, from, to time.Time) ([]byte, bool, error)
	Set(ctx context.Context, tenantID uuid.UUID, from, to time.Time, payload []byte, ttl time.Duration) error
	Invalidate(ctx context.Context, tenantID uuid.UUID) error
}

// RedisDashboardCache implements DashboardCache using Redis
type RedisDashboardCache struct {
	client *redis.Client
	logger *zap.Logger
}

// NewRedisDashboardCache creates a cache with an existing Redis client.
// The caller retains ownership of the client and is responsible for
// closing it.
func NewRedisDashboardCache(client *redis.Client, logger *zap.Logger) *RedisDashboardCache {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisDashboardCache{
		client: client,
		logger: logger,
	}
}

var _ DashboardCache = (*RedisDashboardCache)(nil)

// dashboardCacheKey generates the cache key for a tenant's dashboard
func dashboardCacheKey(tenantID uuid.UUID, from, to time.Time) string {
	return fmt.Sprintf("dashboard:%s:%s:%s",
		tenantID.String(), from.Format("2006-01-02"), to.Format("2006-01-02"))
}

// Get returns the cached snapshot for the tenant and range, if present
func (c *RedisDashboardCache) Get(ctx context.Context, tenantID uuid.UUID, from, to time.Time) ([]byte, bool, error) {
	payload, err := c.client.Get(ctx, dashboardCacheKey(tenantID, from, to)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to read dashboard cache: %w", err)
	}
	return payload, true, nil
}

// Set stores a snapshot for the tenant and range with the given TTL
func (c *RedisDashboardCache) Set(ctx context.Context, tenantID uuid.UUID, from, to time.Time, payload []byte, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	if err := c.client.Set(ctx, dashboardCacheKey(tenantID, from, to), payload, ttl).Err(); err != nil {
		return fmt.Errorf("failed to write dashboard cache: %w", err)
	}
	return nil
}

// Invalidate drops every cached snapshot of the tenant. Called after a
// webhook mutates the tenant's data so dashboards never serve stale
// aggregates longer than one scan.
func (c *RedisDashboardCache) Invalidate(ctx context.Context, tenantID uuid.UUID) error {
	pattern := fmt.Sprintf("dashboard:%s:*", tenantID.String())

	iter := c.client.Scan(ctx, 0, pattern, dashboardScanBatchSize).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("failed to scan dashboard cache keys: %w", err)
	}

	if len(keys) == 0 {
		return nil
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("failed to invalidate dashboard cache: %w", err)
	}

	c.logger.Debug("invalidated dashboard cache",
		zap.String("tenant_id", tenantID.String()),
		zap.Int("keys", len(keys)),
	)
	return nil
}

// NoopDashboardCache is used when caching is disabled
type NoopDashboardCache struct{}

// NewNoopDashboardCache creates a new NoopDashboardCache
func NewNoopDashboardCache() *NoopDashboardCache {
	return &NoopDashboardCache{}
}

var _ DashboardCache = (*NoopDashboardCache)(nil)

// Get always misses
func (NoopDashboardCache) Get(ctx context.Context, tenantID uuid.UUID, from, to time.Time) ([]byte, bool, error) {
	return nil, false, nil
}

// Set discards the payload
func (NoopDashboardCache) Set(ctx context.Context, tenantID uuid.UUID, from, to time.Time, payload []byte, ttl time.Duration) error {
	return nil
}

// Invalidate does nothing
func (NoopDashboardCache) Invalidate(ctx context.Context, tenantID uuid.UUID) error {
	return nil
}
