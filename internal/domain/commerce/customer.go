// Package commerce holds the tenant-scoped storefront entities that are
// populated from Shopify webhooks: customers, products and orders.
package commerce

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopalytics/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Customer represents a storefront customer mirrored from Shopify.
// TotalSpent and OrdersCount are derived from the customer's orders and
// recomputed whenever one of their orders is ingested.
type Customer struct {
	shared.TenantAggregateRoot
	ShopifyCustomerID string          `gorm:"type:varchar(64);not null;uniqueIndex:idx_customers_tenant_shopify_id"`
	Email             string          `gorm:"type:varchar(255)"`
	FirstName         string          `gorm:"type:varchar(100)"`
	LastName          string          `gorm:"type:varchar(100)"`
	Phone             string          `gorm:"type:varchar(50)"`
	TotalSpent        decimal.Decimal `gorm:"type:decimal(20,2);not null;default:0"`
	OrdersCount       int             `gorm:"not null;default:0"`
}

// TableName returns the table name for GORM
func (Customer) TableName() string {
	return "customers"
}

// NewCustomer creates a customer from webhook payload fields
func NewCustomer(tenantID uuid.UUID, shopifyCustomerID, email, firstName, lastName, phone string) (*Customer, error) {
	if tenantID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_TENANT_ID", "Tenant ID is required")
	}
	if err := validateExternalID(shopifyCustomerID); err != nil {
		return nil, err
	}

	return &Customer{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		ShopifyCustomerID:   shopifyCustomerID,
		Email:               strings.TrimSpace(email),
		FirstName:           strings.TrimSpace(firstName),
		LastName:            strings.TrimSpace(lastName),
		Phone:               strings.TrimSpace(phone),
		TotalSpent:          decimal.Zero,
	}, nil
}

// ApplyProfile overwrites the profile fields from a newer webhook payload
func (c *Customer) ApplyProfile(email, firstName, lastName, phone string) {
	c.Email = strings.TrimSpace(email)
	c.FirstName = strings.TrimSpace(firstName)
	c.LastName = strings.TrimSpace(lastName)
	c.Phone = strings.TrimSpace(phone)
	c.UpdatedAt = time.Now()
	c.IncrementVersion()
}

// ApplyOrderStats replaces the derived spend statistics. Stats are
// always recomputed from the orders table, never incremented, so
// replayed webhooks cannot skew them.
func (c *Customer) ApplyOrderStats(totalSpent decimal.Decimal, ordersCount int) error {
	if totalSpent.IsNegative() {
		return shared.NewDomainError("INVALID_TOTAL_SPENT", "Total spent cannot be negative")
	}
	if ordersCount < 0 {
		return shared.NewDomainError("INVALID_ORDERS_COUNT", "Orders count cannot be negative")
	}

	c.TotalSpent = totalSpent
	c.OrdersCount = ordersCount
	c.UpdatedAt = time.Now()

	return nil
}

// DisplayName returns a best-effort human readable name
func (c *Customer) DisplayName() string {
	name := strings.TrimSpace(c.FirstName + " " + c.LastName)
	if name != "" {
		return name
	}
	if c.Email != "" {
		return c.Email
	}
	return c.ShopifyCustomerID
}

func validateExternalID(id string) error {
	if strings.TrimSpace(id) == "" {
		return shared.NewDomainError("INVALID_EXTERNAL_ID", "Shopify ID cannot be empty")
	}
	if len(id) > 64 {
		return shared.NewDomainError("INVALID_EXTERNAL_ID", "Shopify ID cannot exceed 64 characters")
	}
	return nil
}
