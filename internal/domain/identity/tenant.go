package identity

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopalytics/backend/internal/domain/shared"
)

// TenantStatus represents the status of a tenant
type TenantStatus string

const (
	TenantStatusActive    TenantStatus = "active"
	TenantStatusInactive  TenantStatus = "inactive"
	TenantStatusSuspended TenantStatus = "suspended"
)

// Tenant represents a store registered with the platform. Each tenant
// maps one-to-one onto a Shopify shop domain, which is how inbound
// webhooks are attributed.
type Tenant struct {
	shared.BaseAggregateRoot
	Name          string       `gorm:"type:varchar(200);not null"`
	ShopifyDomain string       `gorm:"type:varchar(255);not null;uniqueIndex"`
	AccessToken   string       `gorm:"type:varchar(255)"`
	Status        TenantStatus `gorm:"type:varchar(20);not null;default:'active'"`
	Notes         string       `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (Tenant) TableName() string {
	return "tenants"
}

// NewTenant creates a new tenant with required fields
func NewTenant(name, shopifyDomain string) (*Tenant, error) {
	if err := validateTenantName(name); err != nil {
		return nil, err
	}
	normalized, err := NormalizeShopDomain(shopifyDomain)
	if err != nil {
		return nil, err
	}

	return &Tenant{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Name:              name,
		ShopifyDomain:     normalized,
		Status:            TenantStatusActive,
	}, nil
}

// SetAccessToken stores the Shopify Admin API token for this shop
func (t *Tenant) SetAccessToken(token string) {
	t.AccessToken = strings.TrimSpace(token)
	t.UpdatedAt = time.Now()
}

// Rename updates the tenant's display name
func (t *Tenant) Rename(name string) error {
	if err := validateTenantName(name); err != nil {
		return err
	}

	t.Name = name
	t.UpdatedAt = time.Now()
	t.IncrementVersion()

	return nil
}

// Activate activates the tenant
func (t *Tenant) Activate() error {
	if t.Status == TenantStatusActive {
		return shared.NewDomainError("ALREADY_ACTIVE", "Tenant is already active")
	}

	t.Status = TenantStatusActive
	t.UpdatedAt = time.Now()
	t.IncrementVersion()

	return nil
}

// Suspend suspends the tenant. Webhooks for a suspended tenant are
// still accepted so no data is lost, but dashboard access is denied.
func (t *Tenant) Suspend() error {
	if t.Status == TenantStatusSuspended {
		return shared.NewDomainError("ALREADY_SUSPENDED", "Tenant is already suspended")
	}

	t.Status = TenantStatusSuspended
	t.UpdatedAt = time.Now()
	t.IncrementVersion()

	return nil
}

// IsActive returns true if the tenant is active
func (t *Tenant) IsActive() bool {
	return t.Status == TenantStatusActive
}

// NormalizeShopDomain lowercases and trims a Shopify shop domain so that
// lookups from webhook headers are case-insensitive.
func NormalizeShopDomain(domain string) (string, error) {
	domain = strings.ToLower(strings.TrimSpace(domain))
	if domain == "" {
		return "", shared.NewDomainError("INVALID_DOMAIN", "Shop domain cannot be empty")
	}
	if len(domain) > 255 {
		return "", shared.NewDomainError("INVALID_DOMAIN", "Shop domain cannot exceed 255 characters")
	}
	if strings.ContainsAny(domain, " \t\n") {
		return "", shared.NewDomainError("INVALID_DOMAIN", "Shop domain cannot contain whitespace")
	}
	return domain, nil
}

func validateTenantName(name string) error {
	if strings.TrimSpace(name) == "" {
		return shared.NewDomainError("INVALID_NAME", "Tenant name cannot be empty")
	}
	if len(name) > 200 {
		return shared.NewDomainError("INVALID_NAME", "Tenant name cannot exceed 200 characters")
	}
	return nil
}

// GetTenantID returns the tenant ID
func (t *Tenant) GetTenantID() uuid.UUID {
	return t.ID
}
