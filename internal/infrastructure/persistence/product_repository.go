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

// GormProductRepository implements ProductRepository using GORM
type GormProductRepository struct {
	db *gorm.DB
}

var _ commerce.ProductRepository = (*GormProductRepository)(nil)

// NewGormProductRepository creates a new GormProductRepository
func NewGormProductRepository(db *gorm.DB) *GormProductRepository {
	return &GormProductRepository{db: db}
}

// Save creates or updates a product
func (r *GormProductRepository) Save(ctx context.Context, product *commerce.Product) error {
	return r.db.WithContext(ctx).Save(product).Error
}

// FindByID finds a product by ID within a tenant
func (r *GormProductRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*commerce.Product, error) {
	var product commerce.Product
	if err := r.db.WithContext(ctx).
		Scopes(tenant.Scope(tenantID)).
		Where("id = ?", id).
		First(&product).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &product, nil
}

// FindByShopifyID finds a product by its Shopify product ID within a tenant
func (r *GormProductRepository) FindByShopifyID(ctx context.Context, tenantID uuid.UUID, shopifyProductID string) (*commerce.Product, error) {
	var product commerce.Product
	if err := r.db.WithContext(ctx).
		Scopes(tenant.Scope(tenantID)).
		Where("shopify_product_id = ?", shopifyProductID).
		First(&product).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &product, nil
}

// CountByTenant counts all products of a tenant
func (r *GormProductRepository) CountByTenant(ctx context.Context, tenantID uuid.UUID) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&commerce.Product{}).
		Scopes(tenant.Scope(tenantID)).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
