package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryIdempotencyStore_MarkProcessed(t *testing.T) {
	store := NewInMemoryIdempotencyStore()
	defer store.Close()

	ctx := context.Background()

	t.Run("marks new delivery as processed", func(t *testing.T) {
		isNew, err := store.MarkProcessed(ctx, "delivery-1", time.Hour)
		require.NoError(t, err)
		assert.True(t, isNew, "new delivery should return true")
	})

	t.Run("returns false for already processed delivery", func(t *testing.T) {
		isNew, err := store.MarkProcessed(ctx, "delivery-2", time.Hour)
		require.NoError(t, err)
		assert.True(t, isNew)

		isNew, err = store.MarkProcessed(ctx, "delivery-2", time.Hour)
		require.NoError(t, err)
		assert.False(t, isNew, "already processed delivery should return false")
	})

	t.Run("expired delivery can be marked again", func(t *testing.T) {
		isNew, err := store.MarkProcessed(ctx, "delivery-3", 10*time.Millisecond)
		require.NoError(t, err)
		assert.True(t, isNew)

		time.Sleep(20 * time.Millisecond)

		isNew, err = store.MarkProcessed(ctx, "delivery-3", time.Hour)
		require.NoError(t, err)
		assert.True(t, isNew, "expired delivery should be treated as new")
	})
}

func TestInMemoryIdempotencyStore_IsProcessed(t *testing.T) {
	store := NewInMemoryIdempotencyStore()
	defer store.Close()

	ctx := context.Background()

	t.Run("reports unprocessed delivery", func(t *testing.T) {
		processed, err := store.IsProcessed(ctx, "unknown")
		require.NoError(t, err)
		assert.False(t, processed)
	})

	t.Run("reports processed delivery", func(t *testing.T) {
		_, err := store.MarkProcessed(ctx, "delivery-4", time.Hour)
		require.NoError(t, err)

		processed, err := store.IsProcessed(ctx, "delivery-4")
		require.NoError(t, err)
		assert.True(t, processed)
	})

	t.Run("reports expired delivery as unprocessed", func(t *testing.T) {
		_, err := store.MarkProcessed(ctx, "delivery-5", 10*time.Millisecond)
		require.NoError(t, err)

		time.Sleep(20 * time.Millisecond)

		processed, err := store.IsProcessed(ctx, "delivery-5")
		require.NoError(t, err)
		assert.False(t, processed)
	})
}

func TestInMemoryIdempotencyStore_Close(t *testing.T) {
	t.Run("close is idempotent", func(t *testing.T) {
		store := NewInMemoryIdempotencyStore()

		require.NoError(t, store.Close())
		require.NoError(t, store.Close())
	})
}
