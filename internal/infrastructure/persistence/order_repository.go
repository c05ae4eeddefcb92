package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopalytics/backend/internal/domain/commerce"
	"github.com/shopalytics/backend/internal/domain/shared"
	"github.com/shopalytics/backend/internal/infrastructure/persistence/tenant"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// GormOrderRepository implements OrderRepository using GORM
type GormOrderRepository struct {
	db *gorm.DB
}

var _ commerce.OrderRepository = (*GormOrderRepository)(nil)

// NewGormOrderRepository creates a new GormOrderRepository
func NewGormOrderRepository(db *gorm.DB) *GormOrderRepository {
	return &GormOrderRepository{db: db}
}

// Save creates or updates an order. Line items are replaced wholesale,
// and the derived spend stats of every customer the order touches are
// refreshed from the orders table, all within a single transaction.
func (r *GormOrderRepository) Save(ctx context.Context, order *commerce.Order) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return saveOrder(tx, order)
	})
}

// SaveWithCustomer persists a customer and an order in the same
// transaction. Used for order webhooks that embed their customer, so a
// failed order write cannot leave a half-updated customer behind.
func (r *GormOrderRepository) SaveWithCustomer(ctx context.Context, order *commerce.Order, customer *commerce.Customer) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if customer != nil {
			if err := tx.Save(customer).Error; err != nil {
				return err
			}
		}
		return saveOrder(tx, order)
	})
}

func saveOrder(tx *gorm.DB, order *commerce.Order) error {
	// Remember who the order belonged to before this save so a
	// reassigned order refreshes both customers.
	var prevCustomerID *uuid.UUID
	var prev commerce.Order
	err := tx.Select("customer_id").
		Where("id = ?", order.ID).
		First(&prev).Error
	if err == nil {
		prevCustomerID = prev.CustomerID
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	if err := tx.Omit("Items").Save(order).Error; err != nil {
		return err
	}

	if err := tx.Where("order_id = ?", order.ID).
		Delete(&commerce.OrderItem{}).Error; err != nil {
		return err
	}
	for i := range order.Items {
		order.Items[i].OrderID = order.ID
		if err := tx.Create(&order.Items[i]).Error; err != nil {
			return err
		}
	}

	touched := make(map[uuid.UUID]struct{})
	if order.CustomerID != nil {
		touched[*order.CustomerID] = struct{}{}
	}
	if prevCustomerID != nil {
		touched[*prevCustomerID] = struct{}{}
	}
	for customerID := range touched {
		if err := refreshCustomerStats(tx, order.TenantID, customerID); err != nil {
			return err
		}
	}
	return nil
}

// FindByID finds an order with its line items by ID within a tenant
func (r *GormOrderRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*commerce.Order, error) {
	var order commerce.Order
	if err := r.db.WithContext(ctx).
		Scopes(tenant.Scope(tenantID)).
		Preload("Items").
		Where("id = ?", id).
		First(&order).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &order, nil
}

// FindByShopifyID finds an order with its line items by its Shopify
// order ID within a tenant
func (r *GormOrderRepository) FindByShopifyID(ctx context.Context, tenantID uuid.UUID, shopifyOrderID string) (*commerce.Order, error) {
	var order commerce.Order
	if err := r.db.WithContext(ctx).
		Scopes(tenant.Scope(tenantID)).
		Preload("Items").
		Where("shopify_order_id = ?", shopifyOrderID).
		First(&order).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &order, nil
}

// CountByTenant counts all orders of a tenant
func (r *GormOrderRepository) CountByTenant(ctx context.Context, tenantID uuid.UUID) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&commerce.Order{}).
		Scopes(tenant.Scope(tenantID)).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// RecentInRange returns the newest orders with an order date inside
// [from, to], capped at limit, newest first
func (r *GormOrderRepository) RecentInRange(ctx context.Context, tenantID uuid.UUID, from, to time.Time, limit int) ([]commerce.Order, error) {
	if limit <= 0 {
		return []commerce.Order{}, nil
	}
	var orders []commerce.Order
	if err := r.db.WithContext(ctx).
		Scopes(tenant.Scope(tenantID)).
		Preload("Items").
		Where("order_date BETWEEN ? AND ?", from, to).
		Order("order_date DESC, id ASC").
		Limit(limit).
		Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

// StatsForCustomer recomputes a customer's spend aggregate from the
// orders table
func (r *GormOrderRepository) StatsForCustomer(ctx context.Context, tenantID, customerID uuid.UUID) (commerce.OrderStats, error) {
	return statsForCustomer(r.db.WithContext(ctx), tenantID, customerID)
}

// CountInRange counts a tenant's orders with an order date inside
// [from, to]
func (r *GormOrderRepository) CountInRange(ctx context.Context, tenantID uuid.UUID, from, to time.Time) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&commerce.Order{}).
		Scopes(tenant.Scope(tenantID)).
		Where("order_date BETWEEN ? AND ?", from, to).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// LinkItemsByTitle links a tenant's unmatched line items with the given
// title to a product, returning how many rows were updated
func (r *GormOrderRepository) LinkItemsByTitle(ctx context.Context, tenantID uuid.UUID, title string, productID uuid.UUID) (int64, error) {
	result := r.db.WithContext(ctx).Exec(
		`UPDATE order_items SET product_id = ?, updated_at = ?
		 WHERE title = ? AND product_id IS NULL
		   AND order_id IN (SELECT id FROM orders WHERE tenant_id = ?)`,
		productID, time.Now(), title, tenantID)
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// UnmatchedItemTitles returns distinct line item titles not linked to
// any product, used for catalog backfill
func (r *GormOrderRepository) UnmatchedItemTitles(ctx context.Context, tenantID uuid.UUID) ([]string, error) {
	var titles []string
	err := r.db.WithContext(ctx).Table("order_items oi").
		Joins("JOIN orders o ON o.id = oi.order_id").
		Where("o.tenant_id = ?", tenantID).
		Where("oi.product_id IS NULL").
		Order("oi.title ASC").
		Distinct().
		Pluck("oi.title", &titles).Error
	if err != nil {
		return nil, err
	}
	return titles, nil
}

// statsForCustomer aggregates spend and order count for a customer
// inside the given DB handle, which may be a transaction.
func statsForCustomer(db *gorm.DB, tenantID, customerID uuid.UUID) (commerce.OrderStats, error) {
	type statsResult struct {
		TotalSpent  decimal.Decimal
		OrdersCount int
	}

	var result statsResult
	err := db.Table("orders").
		Select(`
			COALESCE(SUM(total_price), 0) as total_spent,
			COUNT(id) as orders_count
		`).
		Where("tenant_id = ?", tenantID).
		Where("customer_id = ?", customerID).
		Scan(&result).Error
	if err != nil {
		return commerce.OrderStats{}, err
	}
	return commerce.OrderStats{
		TotalSpent:  result.TotalSpent,
		OrdersCount: result.OrdersCount,
	}, nil
}

// refreshCustomerStats writes the recomputed spend aggregate onto the
// customer row. A missing customer row is not an error, the order may
// arrive before its customer webhook.
func refreshCustomerStats(tx *gorm.DB, tenantID, customerID uuid.UUID) error {
	stats, err := statsForCustomer(tx, tenantID, customerID)
	if err != nil {
		return err
	}
	return tx.Model(&commerce.Customer{}).
		Where("tenant_id = ? AND id = ?", tenantID, customerID).
		Updates(map[string]interface{}{
			"total_spent":  stats.TotalSpent,
			"orders_count": stats.OrdersCount,
			"updated_at":   time.Now(),
		}).Error
}
