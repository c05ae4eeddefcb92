package persistence

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/shopalytics/backend/internal/domain/identity"
	"github.com/shopalytics/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// GormTenantRepository implements TenantRepository using GORM
type GormTenantRepository struct {
	db *gorm.DB
}

var _ identity.TenantRepository = (*GormTenantRepository)(nil)

// NewGormTenantRepository creates a new GormTenantRepository
func NewGormTenantRepository(db *gorm.DB) *GormTenantRepository {
	return &GormTenantRepository{db: db}
}

// Save creates or updates a tenant
func (r *GormTenantRepository) Save(ctx context.Context, tenant *identity.Tenant) error {
	return r.db.WithContext(ctx).Save(tenant).Error
}

// CreateWithAdmin persists a new tenant and its creator's admin
// membership in a single transaction so a tenant can never exist
// without at least one member able to see it
func (r *GormTenantRepository) CreateWithAdmin(ctx context.Context, tenant *identity.Tenant, admin *identity.Membership) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(tenant).Error; err != nil {
			return err
		}
		return tx.Create(admin).Error
	})
}

// FindByID finds a tenant by its ID
func (r *GormTenantRepository) FindByID(ctx context.Context, id uuid.UUID) (*identity.Tenant, error) {
	var tenant identity.Tenant
	if err := r.db.WithContext(ctx).First(&tenant, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &tenant, nil
}

// FindByShopifyDomain finds a tenant by its Shopify shop domain
func (r *GormTenantRepository) FindByShopifyDomain(ctx context.Context, domain string) (*identity.Tenant, error) {
	normalized := strings.ToLower(strings.TrimSpace(domain))
	if normalized == "" {
		return nil, shared.ErrNotFound
	}
	var tenant identity.Tenant
	if err := r.db.WithContext(ctx).
		Where("shopify_domain = ?", normalized).
		First(&tenant).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &tenant, nil
}

// FindByIDs finds multiple tenants by their IDs
func (r *GormTenantRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]identity.Tenant, error) {
	if len(ids) == 0 {
		return []identity.Tenant{}, nil
	}
	var tenants []identity.Tenant
	if err := r.db.WithContext(ctx).
		Where("id IN ?", ids).
		Order("name ASC").
		Find(&tenants).Error; err != nil {
		return nil, err
	}
	return tenants, nil
}

// ExistsByShopifyDomain checks if a tenant with the given shop domain exists
func (r *GormTenantRepository) ExistsByShopifyDomain(ctx context.Context, domain string) (bool, error) {
	normalized := strings.ToLower(strings.TrimSpace(domain))
	if normalized == "" {
		return false, nil
	}
	var count int64
	if err := r.db.WithContext(ctx).Model(&identity.Tenant{}).
		Where("shopify_domain = ?", normalized).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}
