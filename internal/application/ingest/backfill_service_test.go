package ingest

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/shopalytics/backend/internal/domain/commerce"
	"github.com/shopalytics/backend/internal/domain/shared"
)

func TestSlugify(t *testing.T) {
	cases := []struct {
		input string
		want  string
	}{
		{"Gift Card", "gift-card"},
		{"Limited  Tote!!", "limited-tote"},
		{"  trim me  ", "trim-me"},
		{"Ét é", "ét-é"},
		{"---", ""},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, slugify(tc.input), "input %q", tc.input)
	}
}

func TestBackfillService_Backfill(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()

	t.Run("creates placeholders and links items", func(t *testing.T) {
		orderRepo := new(MockOrderRepository)
		productRepo := new(MockProductRepository)
		svc := NewBackfillService(orderRepo, productRepo, zap.NewNop())

		orderRepo.On("UnmatchedItemTitles", ctx, tenantID).Return([]string{"Gift Card", "Limited Tote"}, nil)
		productRepo.On("FindByShopifyID", ctx, tenantID, "manual-gift-card").Return(nil, shared.ErrNotFound)
		productRepo.On("FindByShopifyID", ctx, tenantID, "manual-limited-tote").Return(nil, shared.ErrNotFound)
		productRepo.On("Save", ctx, mock.AnythingOfType("*commerce.Product")).Return(nil)
		orderRepo.On("LinkItemsByTitle", ctx, tenantID, "Gift Card", mock.AnythingOfType("uuid.UUID")).Return(int64(2), nil)
		orderRepo.On("LinkItemsByTitle", ctx, tenantID, "Limited Tote", mock.AnythingOfType("uuid.UUID")).Return(int64(1), nil)

		result, err := svc.Backfill(ctx, tenantID)

		require.NoError(t, err)
		assert.Equal(t, 2, result.ProductsCreated)
		assert.Equal(t, int64(3), result.ItemsLinked)
		productRepo.AssertNumberOfCalls(t, "Save", 2)
	})

	t.Run("reruns reuse existing placeholders", func(t *testing.T) {
		orderRepo := new(MockOrderRepository)
		productRepo := new(MockProductRepository)
		svc := NewBackfillService(orderRepo, productRepo, zap.NewNop())

		placeholder, err := commerce.NewProduct(tenantID, "manual-gift-card", "Gift Card", decimal.Zero, 0)
		require.NoError(t, err)

		orderRepo.On("UnmatchedItemTitles", ctx, tenantID).Return([]string{"Gift Card"}, nil)
		productRepo.On("FindByShopifyID", ctx, tenantID, "manual-gift-card").Return(placeholder, nil)
		orderRepo.On("LinkItemsByTitle", ctx, tenantID, "Gift Card", placeholder.ID).Return(int64(1), nil)

		result, err := svc.Backfill(ctx, tenantID)

		require.NoError(t, err)
		assert.Equal(t, 0, result.ProductsCreated)
		assert.Equal(t, int64(1), result.ItemsLinked)
		productRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})

	t.Run("no unmatched titles is a clean no-op", func(t *testing.T) {
		orderRepo := new(MockOrderRepository)
		productRepo := new(MockProductRepository)
		svc := NewBackfillService(orderRepo, productRepo, zap.NewNop())

		orderRepo.On("UnmatchedItemTitles", ctx, tenantID).Return([]string{}, nil)

		result, err := svc.Backfill(ctx, tenantID)

		require.NoError(t, err)
		assert.Equal(t, 0, result.ProductsCreated)
		assert.Equal(t, int64(0), result.ItemsLinked)
	})
}
