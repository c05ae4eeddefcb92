package commerce

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopalytics/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Product represents a storefront product mirrored from Shopify. Price
// is taken from the first variant and Inventory is the sum across all
// variants.
type Product struct {
	shared.TenantAggregateRoot
	ShopifyProductID string          `gorm:"type:varchar(64);not null;uniqueIndex:idx_products_tenant_shopify_id"`
	Title            string          `gorm:"type:varchar(500);not null"`
	Description      string          `gorm:"type:text"`
	Vendor           string          `gorm:"type:varchar(255)"`
	ProductType      string          `gorm:"type:varchar(255)"`
	Price            decimal.Decimal `gorm:"type:decimal(20,2);not null;default:0"`
	Inventory        int             `gorm:"not null;default:0"`
}

// TableName returns the table name for GORM
func (Product) TableName() string {
	return "products"
}

// NewProduct creates a product from webhook payload fields
func NewProduct(tenantID uuid.UUID, shopifyProductID, title string, price decimal.Decimal, inventory int) (*Product, error) {
	if tenantID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_TENANT_ID", "Tenant ID is required")
	}
	if err := validateExternalID(shopifyProductID); err != nil {
		return nil, err
	}
	if err := validateProductTitle(title); err != nil {
		return nil, err
	}
	if price.IsNegative() {
		return nil, shared.NewDomainError("INVALID_PRICE", "Price cannot be negative")
	}
	if inventory < 0 {
		inventory = 0
	}

	return &Product{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		ShopifyProductID:    shopifyProductID,
		Title:               strings.TrimSpace(title),
		Price:               price,
		Inventory:           inventory,
	}, nil
}

// ApplyCatalogFields overwrites the catalog snapshot from a newer
// webhook payload. The last delivery always wins.
func (p *Product) ApplyCatalogFields(title, description, vendor, productType string, price decimal.Decimal, inventory int) error {
	if err := validateProductTitle(title); err != nil {
		return err
	}
	if price.IsNegative() {
		return shared.NewDomainError("INVALID_PRICE", "Price cannot be negative")
	}
	if inventory < 0 {
		inventory = 0
	}

	p.Title = strings.TrimSpace(title)
	p.Description = description
	p.Vendor = strings.TrimSpace(vendor)
	p.ProductType = strings.TrimSpace(productType)
	p.Price = price
	p.Inventory = inventory
	p.UpdatedAt = time.Now()
	p.IncrementVersion()

	return nil
}

func validateProductTitle(title string) error {
	if strings.TrimSpace(title) == "" {
		return shared.NewDomainError("INVALID_TITLE", "Product title cannot be empty")
	}
	if len(title) > 500 {
		return shared.NewDomainError("INVALID_TITLE", "Product title cannot exceed 500 characters")
	}
	return nil
}
