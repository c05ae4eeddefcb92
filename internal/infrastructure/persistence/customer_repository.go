package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shopalytics/backend/internal/domain/commerce"
	"github.com/shopalytics/backend/internal/domain/shared"
	"github.com/shopalytics/backend/internal/infrastructure/persistence/tenant"
	"gorm.io/gorm"
)

// GormCustomerRepository implements CustomerRepository using GORM
type GormCustomerRepository struct {
	db *gorm.DB
}

var _ commerce.CustomerRepository = (*GormCustomerRepository)(nil)

// NewGormCustomerRepository creates a new GormCustomerRepository
func NewGormCustomerRepository(db *gorm.DB) *GormCustomerRepository {
	return &GormCustomerRepository{db: db}
}

// Save creates or updates a customer
func (r *GormCustomerRepository) Save(ctx context.Context, customer *commerce.Customer) error {
	return r.db.WithContext(ctx).Save(customer).Error
}

// FindByID finds a customer by ID within a tenant
func (r *GormCustomerRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*commerce.Customer, error) {
	var customer commerce.Customer
	if err := r.db.WithContext(ctx).
		Scopes(tenant.Scope(tenantID)).
		Where("id = ?", id).
		First(&customer).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &customer, nil
}

// FindByShopifyID finds a customer by its Shopify customer ID within a tenant
func (r *GormCustomerRepository) FindByShopifyID(ctx context.Context, tenantID uuid.UUID, shopifyCustomerID string) (*commerce.Customer, error) {
	var customer commerce.Customer
	if err := r.db.WithContext(ctx).
		Scopes(tenant.Scope(tenantID)).
		Where("shopify_customer_id = ?", shopifyCustomerID).
		First(&customer).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &customer, nil
}

// CountByTenant counts all customers of a tenant
func (r *GormCustomerRepository) CountByTenant(ctx context.Context, tenantID uuid.UUID) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&commerce.Customer{}).
		Scopes(tenant.Scope(tenantID)).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// TopBySpend returns the tenant's highest spending customers, capped at
// limit. Ties break on ID so the ordering is stable.
func (r *GormCustomerRepository) TopBySpend(ctx context.Context, tenantID uuid.UUID, limit int) ([]commerce.Customer, error) {
	if limit <= 0 {
		return []commerce.Customer{}, nil
	}
	var customers []commerce.Customer
	if err := r.db.WithContext(ctx).
		Scopes(tenant.Scope(tenantID)).
		Order("total_spent DESC, id ASC").
		Limit(limit).
		Find(&customers).Error; err != nil {
		return nil, err
	}
	return customers, nil
}
