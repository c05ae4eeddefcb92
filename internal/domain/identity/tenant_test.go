package identity

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTenant(t *testing.T) {
	t.Run("creates tenant successfully", func(t *testing.T) {
		tenant, err := NewTenant("Demo Fashion Store", "demo-fashion.myshopify.com")

		require.NoError(t, err)
		assert.NotNil(t, tenant)
		assert.Equal(t, "Demo Fashion Store", tenant.Name)
		assert.Equal(t, "demo-fashion.myshopify.com", tenant.ShopifyDomain)
		assert.Equal(t, TenantStatusActive, tenant.Status)
		assert.Equal(t, 1, tenant.Version)
	})

	t.Run("normalizes shop domain to lowercase", func(t *testing.T) {
		tenant, err := NewTenant("Store", "  Demo-Fashion.MyShopify.com ")

		require.NoError(t, err)
		assert.Equal(t, "demo-fashion.myshopify.com", tenant.ShopifyDomain)
	})

	t.Run("fails with empty name", func(t *testing.T) {
		tenant, err := NewTenant("", "demo.myshopify.com")

		assert.Error(t, err)
		assert.Nil(t, tenant)
		assert.Contains(t, err.Error(), "name cannot be empty")
	})

	t.Run("fails with blank name", func(t *testing.T) {
		tenant, err := NewTenant("   ", "demo.myshopify.com")

		assert.Error(t, err)
		assert.Nil(t, tenant)
	})

	t.Run("fails with empty domain", func(t *testing.T) {
		tenant, err := NewTenant("Store", "")

		assert.Error(t, err)
		assert.Nil(t, tenant)
		assert.Contains(t, err.Error(), "domain cannot be empty")
	})

	t.Run("fails with overlong domain", func(t *testing.T) {
		tenant, err := NewTenant("Store", strings.Repeat("a", 256))

		assert.Error(t, err)
		assert.Nil(t, tenant)
	})
}

func TestTenantStatusTransitions(t *testing.T) {
	t.Run("suspend then activate", func(t *testing.T) {
		tenant, _ := NewTenant("Store", "demo.myshopify.com")

		require.NoError(t, tenant.Suspend())
		assert.Equal(t, TenantStatusSuspended, tenant.Status)
		assert.False(t, tenant.IsActive())

		require.NoError(t, tenant.Activate())
		assert.True(t, tenant.IsActive())
	})

	t.Run("double suspend fails", func(t *testing.T) {
		tenant, _ := NewTenant("Store", "demo.myshopify.com")

		require.NoError(t, tenant.Suspend())
		assert.Error(t, tenant.Suspend())
	})

	t.Run("activating an active tenant fails", func(t *testing.T) {
		tenant, _ := NewTenant("Store", "demo.myshopify.com")

		assert.Error(t, tenant.Activate())
	})
}

func TestTenantRename(t *testing.T) {
	tenant, _ := NewTenant("Old Name", "demo.myshopify.com")
	originalVersion := tenant.Version

	require.NoError(t, tenant.Rename("New Name"))
	assert.Equal(t, "New Name", tenant.Name)
	assert.Equal(t, originalVersion+1, tenant.Version)

	assert.Error(t, tenant.Rename(""))
}

func TestNormalizeShopDomain(t *testing.T) {
	t.Run("lowercases and trims", func(t *testing.T) {
		got, err := NormalizeShopDomain("  TEST-Store.myshopify.COM  ")
		require.NoError(t, err)
		assert.Equal(t, "test-store.myshopify.com", got)
	})

	t.Run("rejects embedded whitespace", func(t *testing.T) {
		_, err := NormalizeShopDomain("bad domain.myshopify.com")
		assert.Error(t, err)
	})
}
