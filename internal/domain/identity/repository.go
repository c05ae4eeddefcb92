package identity

import (
	"context"

	"github.com/google/uuid"
)

// TenantRepository defines persistence operations for tenants
type TenantRepository interface {
	Save(ctx context.Context, tenant *Tenant) error

	// CreateWithAdmin persists a new tenant and its creator's admin
	// membership in a single transaction
	CreateWithAdmin(ctx context.Context, tenant *Tenant, admin *Membership) error
	FindByID(ctx context.Context, id uuid.UUID) (*Tenant, error)
	FindByShopifyDomain(ctx context.Context, domain string) (*Tenant, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]Tenant, error)
	ExistsByShopifyDomain(ctx context.Context, domain string) (bool, error)
}

// UserRepository defines persistence operations for users
type UserRepository interface {
	Save(ctx context.Context, user *User) error
	FindByID(ctx context.Context, id uuid.UUID) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
}

// MembershipRepository defines persistence operations for user-tenant links
type MembershipRepository interface {
	Save(ctx context.Context, membership *Membership) error
	Find(ctx context.Context, userID, tenantID uuid.UUID) (*Membership, error)
	FindByUser(ctx context.Context, userID uuid.UUID) ([]Membership, error)
	FindByTenant(ctx context.Context, tenantID uuid.UUID) ([]Membership, error)
}
