package analytics

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/shopalytics/backend/internal/domain/analytics"
	"github.com/shopalytics/backend/internal/domain/commerce"
)

// MockCustomerRepository is a mock implementation of commerce.CustomerRepository
type MockCustomerRepository struct {
	mock.Mock
}

func (m *MockCustomerRepository) Save(ctx context.Context, customer *commerce.Customer) error {
	args := m.Called(ctx, customer)
	return args.Error(0)
}

func (m *MockCustomerRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*commerce.Customer, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*commerce.Customer), args.Error(1)
}

func (m *MockCustomerRepository) FindByShopifyID(ctx context.Context, tenantID uuid.UUID, shopifyCustomerID string) (*commerce.Customer, error) {
	args := m.Called(ctx, tenantID, shopifyCustomerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*commerce.Customer), args.Error(1)
}

func (m *MockCustomerRepository) CountByTenant(ctx context.Context, tenantID uuid.UUID) (int64, error) {
	args := m.Called(ctx, tenantID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockCustomerRepository) TopBySpend(ctx context.Context, tenantID uuid.UUID, limit int) ([]commerce.Customer, error) {
	args := m.Called(ctx, tenantID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]commerce.Customer), args.Error(1)
}

// MockProductRepository is a mock implementation of commerce.ProductRepository
type MockProductRepository struct {
	mock.Mock
}

func (m *MockProductRepository) Save(ctx context.Context, product *commerce.Product) error {
	args := m.Called(ctx, product)
	return args.Error(0)
}

func (m *MockProductRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*commerce.Product, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*commerce.Product), args.Error(1)
}

func (m *MockProductRepository) FindByShopifyID(ctx context.Context, tenantID uuid.UUID, shopifyProductID string) (*commerce.Product, error) {
	args := m.Called(ctx, tenantID, shopifyProductID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*commerce.Product), args.Error(1)
}

func (m *MockProductRepository) CountByTenant(ctx context.Context, tenantID uuid.UUID) (int64, error) {
	args := m.Called(ctx, tenantID)
	return args.Get(0).(int64), args.Error(1)
}

// MockOrderRepository is a mock implementation of commerce.OrderRepository
type MockOrderRepository struct {
	mock.Mock
}

func (m *MockOrderRepository) Save(ctx context.Context, order *commerce.Order) error {
	args := m.Called(ctx, order)
	return args.Error(0)
}

func (m *MockOrderRepository) SaveWithCustomer(ctx context.Context, order *commerce.Order, customer *commerce.Customer) error {
	args := m.Called(ctx, order, customer)
	return args.Error(0)
}

func (m *MockOrderRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*commerce.Order, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*commerce.Order), args.Error(1)
}

func (m *MockOrderRepository) FindByShopifyID(ctx context.Context, tenantID uuid.UUID, shopifyOrderID string) (*commerce.Order, error) {
	args := m.Called(ctx, tenantID, shopifyOrderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*commerce.Order), args.Error(1)
}

func (m *MockOrderRepository) CountByTenant(ctx context.Context, tenantID uuid.UUID) (int64, error) {
	args := m.Called(ctx, tenantID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockOrderRepository) CountInRange(ctx context.Context, tenantID uuid.UUID, from, to time.Time) (int64, error) {
	args := m.Called(ctx, tenantID, from, to)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockOrderRepository) RecentInRange(ctx context.Context, tenantID uuid.UUID, from, to time.Time, limit int) ([]commerce.Order, error) {
	args := m.Called(ctx, tenantID, from, to, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]commerce.Order), args.Error(1)
}

func (m *MockOrderRepository) StatsForCustomer(ctx context.Context, tenantID, customerID uuid.UUID) (commerce.OrderStats, error) {
	args := m.Called(ctx, tenantID, customerID)
	return args.Get(0).(commerce.OrderStats), args.Error(1)
}

func (m *MockOrderRepository) UnmatchedItemTitles(ctx context.Context, tenantID uuid.UUID) ([]string, error) {
	args := m.Called(ctx, tenantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockOrderRepository) LinkItemsByTitle(ctx context.Context, tenantID uuid.UUID, title string, productID uuid.UUID) (int64, error) {
	args := m.Called(ctx, tenantID, title, productID)
	return args.Get(0).(int64), args.Error(1)
}

// MockEventRepository is a mock implementation of analytics.EventRepository
type MockEventRepository struct {
	mock.Mock
}

func (m *MockEventRepository) Save(ctx context.Context, event *analytics.CustomEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func (m *MockEventRepository) CountByTenant(ctx context.Context, tenantID uuid.UUID) (int64, error) {
	args := m.Called(ctx, tenantID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockEventRepository) Recent(ctx context.Context, tenantID uuid.UUID, limit int) ([]analytics.CustomEvent, error) {
	args := m.Called(ctx, tenantID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]analytics.CustomEvent), args.Error(1)
}

func (m *MockEventRepository) CountsByType(ctx context.Context, tenantID uuid.UUID) ([]analytics.EventTypeCount, error) {
	args := m.Called(ctx, tenantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]analytics.EventTypeCount), args.Error(1)
}
