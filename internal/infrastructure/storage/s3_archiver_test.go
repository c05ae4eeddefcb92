package storage

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopalytics/backend/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewS3Archiver_Validation(t *testing.T) {
	t.Run("nil config returns error", func(t *testing.T) {
		_, err := NewS3Archiver(nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "configuration is required")
	})

	t.Run("missing bucket returns error", func(t *testing.T) {
		cfg := &config.ArchiveConfig{
			AccessKey: "test-key",
			SecretKey: "test-secret",
		}
		_, err := NewS3Archiver(cfg)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "bucket is required")
	})

	t.Run("missing access key returns error", func(t *testing.T) {
		cfg := &config.ArchiveConfig{
			Bucket:    "test-bucket",
			SecretKey: "test-secret",
		}
		_, err := NewS3Archiver(cfg)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "access key is required")
	})

	t.Run("missing secret key returns error", func(t *testing.T) {
		cfg := &config.ArchiveConfig{
			Bucket:    "test-bucket",
			AccessKey: "test-key",
		}
		_, err := NewS3Archiver(cfg)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "secret key is required")
	})

	t.Run("valid config creates archiver", func(t *testing.T) {
		cfg := &config.ArchiveConfig{
			Bucket:       "webhook-archive",
			AccessKey:    "test-key",
			SecretKey:    "test-secret",
			Region:       "us-east-1",
			Endpoint:     "http://localhost:9000",
			UsePathStyle: true,
		}
		archiver, err := NewS3Archiver(cfg)
		require.NoError(t, err)
		require.NotNil(t, archiver)
		assert.Equal(t, "webhook-archive", archiver.GetBucket())
	})
}

func TestArchiveKey(t *testing.T) {
	t.Run("shards by tenant and topic", func(t *testing.T) {
		tenantID := uuid.MustParse("0f4a2a9e-4f4b-4a0a-9a2e-b16e7a6f9c01")
		receivedAt := time.Date(2024, 5, 7, 12, 30, 45, 0, time.UTC)

		key := ArchiveKey(tenantID, "orders/create", "delivery-9", receivedAt)

		assert.Equal(t,
			"tenants/0f4a2a9e-4f4b-4a0a-9a2e-b16e7a6f9c01/webhooks/orders/create/20240507T123045Z-delivery-9.json",
			key)
	})

	t.Run("generates a key without delivery ID", func(t *testing.T) {
		key := ArchiveKey(uuid.New(), "customers/create", "", time.Now())

		assert.Contains(t, key, "/webhooks/customers/create/")
		assert.Contains(t, key, ".json")
	})
}

func TestNoopArchiver(t *testing.T) {
	t.Run("archive is a no-op", func(t *testing.T) {
		archiver := NewNoopArchiver()

		err := archiver.Archive(context.Background(), uuid.New(), "orders/create", "d1", []byte(`{}`))

		assert.NoError(t, err)
	})
}
