package analytics

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/shopalytics/backend/internal/domain/analytics"
	"github.com/shopalytics/backend/internal/domain/commerce"
	"github.com/shopalytics/backend/internal/domain/shared"
	"github.com/shopalytics/backend/internal/infrastructure/cache"
)

// memoryDashboardCache is a map-backed DashboardCache for tests
type memoryDashboardCache struct {
	mu      sync.Mutex
	entries map[string][]byte
	sets    int
}

func newMemoryDashboardCache() *memoryDashboardCache {
	return &memoryDashboardCache{entries: make(map[string][]byte)}
}

func (c *memoryDashboardCache) key(tenantID uuid.UUID, from, to time.Time) string {
	return tenantID.String() + "|" + from.Format("2006-01-02") + "|" + to.Format("2006-01-02")
}

func (c *memoryDashboardCache) Get(_ context.Context, tenantID uuid.UUID, from, to time.Time) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	payload, ok := c.entries[c.key(tenantID, from, to)]
	return payload, ok, nil
}

func (c *memoryDashboardCache) Set(_ context.Context, tenantID uuid.UUID, from, to time.Time, payload []byte, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[c.key(tenantID, from, to)] = payload
	c.sets++
	return nil
}

func (c *memoryDashboardCache) Invalidate(_ context.Context, tenantID uuid.UUID) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for key := range c.entries {
		if len(key) >= 36 && key[:36] == tenantID.String() {
			delete(c.entries, key)
		}
	}
	return nil
}

type dashboardDeps struct {
	customerRepo *MockCustomerRepository
	productRepo  *MockProductRepository
	orderRepo    *MockOrderRepository
	eventRepo    *MockEventRepository
}

func newTestDashboardService(cfg DashboardConfig, dashCache *memoryDashboardCache) (*DashboardService, *dashboardDeps) {
	deps := &dashboardDeps{
		customerRepo: new(MockCustomerRepository),
		productRepo:  new(MockProductRepository),
		orderRepo:    new(MockOrderRepository),
		eventRepo:    new(MockEventRepository),
	}
	var c cache.DashboardCache
	if dashCache != nil {
		c = dashCache
	}
	svc := NewDashboardService(deps.customerRepo, deps.productRepo, deps.orderRepo, deps.eventRepo, c, cfg, zap.NewNop())
	return svc, deps
}

func testOrder(t *testing.T, tenantID uuid.UUID, shopifyID, total string, date time.Time) commerce.Order {
	t.Helper()
	order, err := commerce.NewOrder(tenantID, shopifyID, commerce.OrderSnapshot{
		TotalPrice: decimal.RequireFromString(total),
		OrderDate:  date,
	})
	require.NoError(t, err)
	return *order
}

func TestDashboardService_GetDashboard(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()

	t.Run("composes all sections from concurrent reads", func(t *testing.T) {
		svc, deps := newTestDashboardService(DefaultDashboardConfig(), nil)

		day := time.Date(2024, 3, 2, 14, 0, 0, 0, time.Local)
		order := testOrder(t, tenantID, "1001", "54.49", day)

		customer, err := commerce.NewCustomer(tenantID, "42", "ada@example.com", "Ada", "Lovelace", "")
		require.NoError(t, err)
		require.NoError(t, customer.ApplyOrderStats(decimal.RequireFromString("54.49"), 1))

		event, err := analytics.NewCustomEvent(tenantID, "", nil, nil)
		require.NoError(t, err)

		deps.customerRepo.On("CountByTenant", mock.Anything, tenantID).Return(int64(1), nil)
		deps.productRepo.On("CountByTenant", mock.Anything, tenantID).Return(int64(3), nil)
		deps.orderRepo.On("CountInRange", mock.Anything, tenantID, mock.Anything, mock.Anything).Return(int64(1), nil)
		deps.orderRepo.On("RecentInRange", mock.Anything, tenantID, mock.Anything, mock.Anything, 100).Return([]commerce.Order{order}, nil)
		deps.customerRepo.On("TopBySpend", mock.Anything, tenantID, 5).Return([]commerce.Customer{*customer}, nil)
		deps.eventRepo.On("Recent", mock.Anything, tenantID, 10).Return([]analytics.CustomEvent{*event}, nil)
		deps.eventRepo.On("CountsByType", mock.Anything, tenantID).Return([]analytics.EventTypeCount{
			{EventType: "cart_abandoned", Count: 1},
		}, nil)

		dashboard, err := svc.GetDashboard(ctx, DashboardInput{TenantID: tenantID})

		require.NoError(t, err)
		assert.Equal(t, int64(1), dashboard.TotalCustomers)
		assert.Equal(t, int64(3), dashboard.TotalProducts)
		assert.Equal(t, int64(1), dashboard.TotalOrders)
		assert.True(t, dashboard.TotalRevenue.Equal(decimal.RequireFromString("54.49")))
		assert.True(t, dashboard.AverageOrderValue.Equal(decimal.RequireFromString("54.49")))

		require.Len(t, dashboard.OrdersByDate, 1)
		assert.Equal(t, "2024-03-02", dashboard.OrdersByDate[0].Date)
		assert.Equal(t, 1, dashboard.OrdersByDate[0].Orders)

		require.Len(t, dashboard.RecentOrders, 1)
		assert.Equal(t, "1001", dashboard.RecentOrders[0].ShopifyOrderID)
		require.Len(t, dashboard.TopCustomers, 1)
		assert.Equal(t, "Ada Lovelace", dashboard.TopCustomers[0].Name)

		// A customerless event still shows up in both event sections
		require.Len(t, dashboard.RecentEvents, 1)
		assert.Nil(t, dashboard.RecentEvents[0].CustomerID)
		assert.Nil(t, dashboard.RecentEvents[0].Customer)
		require.Len(t, dashboard.EventStats, 1)
		assert.Equal(t, "cart_abandoned", dashboard.EventStats[0].EventType)
	})

	t.Run("recent events carry their linked customer", func(t *testing.T) {
		svc, deps := newTestDashboardService(DefaultDashboardConfig(), nil)

		customer, err := commerce.NewCustomer(tenantID, "42", "ada@example.com", "Ada", "Lovelace", "")
		require.NoError(t, err)

		event, err := analytics.NewCustomEvent(tenantID, "checkout_started", nil, &customer.ID)
		require.NoError(t, err)
		event.Customer = customer

		deps.customerRepo.On("CountByTenant", mock.Anything, tenantID).Return(int64(1), nil)
		deps.productRepo.On("CountByTenant", mock.Anything, tenantID).Return(int64(0), nil)
		deps.orderRepo.On("CountInRange", mock.Anything, tenantID, mock.Anything, mock.Anything).Return(int64(0), nil)
		deps.orderRepo.On("RecentInRange", mock.Anything, tenantID, mock.Anything, mock.Anything, 100).Return([]commerce.Order{}, nil)
		deps.customerRepo.On("TopBySpend", mock.Anything, tenantID, 5).Return([]commerce.Customer{}, nil)
		deps.eventRepo.On("Recent", mock.Anything, tenantID, 10).Return([]analytics.CustomEvent{*event}, nil)
		deps.eventRepo.On("CountsByType", mock.Anything, tenantID).Return([]analytics.EventTypeCount{}, nil)

		dashboard, err := svc.GetDashboard(ctx, DashboardInput{TenantID: tenantID})

		require.NoError(t, err)
		require.Len(t, dashboard.RecentEvents, 1)
		linked := dashboard.RecentEvents[0].Customer
		require.NotNil(t, linked)
		assert.Equal(t, customer.ID, linked.ID)
		assert.Equal(t, "Ada Lovelace", linked.Name)
		assert.Equal(t, "ada@example.com", linked.Email)
	})

	t.Run("revenue is folded from the bounded sample only", func(t *testing.T) {
		svc, deps := newTestDashboardService(DefaultDashboardConfig(), nil)

		day := time.Date(2024, 3, 2, 10, 0, 0, 0, time.Local)
		sample := []commerce.Order{
			testOrder(t, tenantID, "1", "10.00", day),
			testOrder(t, tenantID, "2", "20.00", day.Add(time.Hour)),
		}

		deps.customerRepo.On("CountByTenant", mock.Anything, tenantID).Return(int64(0), nil)
		deps.productRepo.On("CountByTenant", mock.Anything, tenantID).Return(int64(0), nil)
		// Far more orders in range than the sample carries
		deps.orderRepo.On("CountInRange", mock.Anything, tenantID, mock.Anything, mock.Anything).Return(int64(150), nil)
		deps.orderRepo.On("RecentInRange", mock.Anything, tenantID, mock.Anything, mock.Anything, 100).Return(sample, nil)
		deps.customerRepo.On("TopBySpend", mock.Anything, tenantID, 5).Return([]commerce.Customer{}, nil)
		deps.eventRepo.On("Recent", mock.Anything, tenantID, 10).Return([]analytics.CustomEvent{}, nil)
		deps.eventRepo.On("CountsByType", mock.Anything, tenantID).Return([]analytics.EventTypeCount{}, nil)

		dashboard, err := svc.GetDashboard(ctx, DashboardInput{TenantID: tenantID})

		require.NoError(t, err)
		assert.Equal(t, int64(150), dashboard.TotalOrders)
		assert.True(t, dashboard.TotalRevenue.Equal(decimal.RequireFromString("30.00")))
		assert.True(t, dashboard.AverageOrderValue.Equal(decimal.RequireFromString("0.20")),
			"got %s", dashboard.AverageOrderValue)
	})

	t.Run("no orders yields zero average", func(t *testing.T) {
		svc, deps := newTestDashboardService(DefaultDashboardConfig(), nil)

		deps.customerRepo.On("CountByTenant", mock.Anything, tenantID).Return(int64(0), nil)
		deps.productRepo.On("CountByTenant", mock.Anything, tenantID).Return(int64(0), nil)
		deps.orderRepo.On("CountInRange", mock.Anything, tenantID, mock.Anything, mock.Anything).Return(int64(0), nil)
		deps.orderRepo.On("RecentInRange", mock.Anything, tenantID, mock.Anything, mock.Anything, 100).Return([]commerce.Order{}, nil)
		deps.customerRepo.On("TopBySpend", mock.Anything, tenantID, 5).Return([]commerce.Customer{}, nil)
		deps.eventRepo.On("Recent", mock.Anything, tenantID, 10).Return([]analytics.CustomEvent{}, nil)
		deps.eventRepo.On("CountsByType", mock.Anything, tenantID).Return([]analytics.EventTypeCount{}, nil)

		dashboard, err := svc.GetDashboard(ctx, DashboardInput{TenantID: tenantID})

		require.NoError(t, err)
		assert.True(t, dashboard.TotalRevenue.IsZero())
		assert.True(t, dashboard.AverageOrderValue.IsZero())
		assert.Empty(t, dashboard.OrdersByDate)
	})

	t.Run("any failed read fails the whole dashboard", func(t *testing.T) {
		svc, deps := newTestDashboardService(DefaultDashboardConfig(), nil)

		deps.customerRepo.On("CountByTenant", mock.Anything, tenantID).Return(int64(0), nil)
		deps.productRepo.On("CountByTenant", mock.Anything, tenantID).Return(int64(0), nil)
		deps.orderRepo.On("CountInRange", mock.Anything, tenantID, mock.Anything, mock.Anything).Return(int64(0), errors.New("connection reset"))
		deps.orderRepo.On("RecentInRange", mock.Anything, tenantID, mock.Anything, mock.Anything, 100).Return([]commerce.Order{}, nil)
		deps.customerRepo.On("TopBySpend", mock.Anything, tenantID, 5).Return([]commerce.Customer{}, nil)
		deps.eventRepo.On("Recent", mock.Anything, tenantID, 10).Return([]analytics.CustomEvent{}, nil)
		deps.eventRepo.On("CountsByType", mock.Anything, tenantID).Return([]analytics.EventTypeCount{}, nil)

		_, err := svc.GetDashboard(ctx, DashboardInput{TenantID: tenantID})

		require.Error(t, err)
		domainErr, ok := err.(*shared.DomainError)
		require.True(t, ok)
		assert.Equal(t, "INTERNAL_ERROR", domainErr.Code)
	})

	t.Run("invalid date parameter", func(t *testing.T) {
		svc, _ := newTestDashboardService(DefaultDashboardConfig(), nil)

		_, err := svc.GetDashboard(ctx, DashboardInput{TenantID: tenantID, StartDate: "03/02/2024"})

		require.Error(t, err)
		domainErr, ok := err.(*shared.DomainError)
		require.True(t, ok)
		assert.Equal(t, "INVALID_DATE", domainErr.Code)
	})

	t.Run("second request is served from the cache", func(t *testing.T) {
		dashCache := newMemoryDashboardCache()
		svc, deps := newTestDashboardService(DefaultDashboardConfig(), dashCache)

		deps.customerRepo.On("CountByTenant", mock.Anything, tenantID).Return(int64(2), nil).Once()
		deps.productRepo.On("CountByTenant", mock.Anything, tenantID).Return(int64(0), nil).Once()
		deps.orderRepo.On("CountInRange", mock.Anything, tenantID, mock.Anything, mock.Anything).Return(int64(0), nil).Once()
		deps.orderRepo.On("RecentInRange", mock.Anything, tenantID, mock.Anything, mock.Anything, 100).Return([]commerce.Order{}, nil).Once()
		deps.customerRepo.On("TopBySpend", mock.Anything, tenantID, 5).Return([]commerce.Customer{}, nil).Once()
		deps.eventRepo.On("Recent", mock.Anything, tenantID, 10).Return([]analytics.CustomEvent{}, nil).Once()
		deps.eventRepo.On("CountsByType", mock.Anything, tenantID).Return([]analytics.EventTypeCount{}, nil).Once()

		input := DashboardInput{TenantID: tenantID, StartDate: "2024-03-01", EndDate: "2024-03-31"}

		first, err := svc.GetDashboard(ctx, input)
		require.NoError(t, err)

		second, err := svc.GetDashboard(ctx, input)
		require.NoError(t, err)

		assert.Equal(t, first.TotalCustomers, second.TotalCustomers)
		assert.Equal(t, 1, dashCache.sets)
		deps.customerRepo.AssertNumberOfCalls(t, "CountByTenant", 1)
	})
}

func TestParseRange(t *testing.T) {
	t.Run("single day range covers the full day", func(t *testing.T) {
		from, to, err := parseRange("2024-03-02", "2024-03-02")

		require.NoError(t, err)
		assert.Equal(t, time.Date(2024, 3, 2, 0, 0, 0, 0, time.Local), from)
		assert.Equal(t, time.Date(2024, 3, 2, 23, 59, 59, int(999*time.Millisecond), time.Local), to)
		assert.True(t, from.Before(to))
	})

	t.Run("open ended range defaults sensibly", func(t *testing.T) {
		from, to, err := parseRange("", "")

		require.NoError(t, err)
		assert.Equal(t, time.Unix(0, 0), from)
		assert.True(t, to.After(time.Now().Add(-24*time.Hour)))
	})

	t.Run("inverted range is rejected", func(t *testing.T) {
		_, _, err := parseRange("2024-03-10", "2024-03-01")

		require.Error(t, err)
	})
}
