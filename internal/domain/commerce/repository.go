package commerce

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CustomerRepository defines persistence operations for customers
type CustomerRepository interface {
	Save(ctx context.Context, customer *Customer) error
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*Customer, error)
	FindByShopifyID(ctx context.Context, tenantID uuid.UUID, shopifyCustomerID string) (*Customer, error)
	CountByTenant(ctx context.Context, tenantID uuid.UUID) (int64, error)
	TopBySpend(ctx context.Context, tenantID uuid.UUID, limit int) ([]Customer, error)
}

// ProductRepository defines persistence operations for products
type ProductRepository interface {
	Save(ctx context.Context, product *Product) error
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*Product, error)
	FindByShopifyID(ctx context.Context, tenantID uuid.UUID, shopifyProductID string) (*Product, error)
	CountByTenant(ctx context.Context, tenantID uuid.UUID) (int64, error)
}

// OrderStats is the aggregate used to refresh a customer's derived
// spend statistics
type OrderStats struct {
	TotalSpent  decimal.Decimal
	OrdersCount int
}

// OrderRepository defines persistence operations for orders
type OrderRepository interface {
	Save(ctx context.Context, order *Order) error

	// SaveWithCustomer persists the customer (when non-nil) and the
	// order in a single transaction
	SaveWithCustomer(ctx context.Context, order *Order, customer *Customer) error

	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*Order, error)
	FindByShopifyID(ctx context.Context, tenantID uuid.UUID, shopifyOrderID string) (*Order, error)
	CountByTenant(ctx context.Context, tenantID uuid.UUID) (int64, error)

	// CountInRange counts orders with an order date inside [from, to]
	CountInRange(ctx context.Context, tenantID uuid.UUID, from, to time.Time) (int64, error)

	// RecentInRange returns the newest orders with an order date inside
	// [from, to], capped at limit, newest first.
	RecentInRange(ctx context.Context, tenantID uuid.UUID, from, to time.Time, limit int) ([]Order, error)

	// StatsForCustomer recomputes a customer's spend aggregate from the
	// orders table
	StatsForCustomer(ctx context.Context, tenantID, customerID uuid.UUID) (OrderStats, error)

	// UnmatchedItemTitles returns distinct line item titles that are not
	// linked to any product, used for catalog backfill
	UnmatchedItemTitles(ctx context.Context, tenantID uuid.UUID) ([]string, error)

	// LinkItemsByTitle links unmatched line items with the given title
	// to a product, returning how many were updated
	LinkItemsByTitle(ctx context.Context, tenantID uuid.UUID, title string, productID uuid.UUID) (int64, error)
}
