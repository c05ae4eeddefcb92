package identity

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopalytics/backend/internal/domain/shared"
)

// MembershipRole represents a user's role within a tenant
type MembershipRole string

const (
	RoleAdmin  MembershipRole = "admin"
	RoleViewer MembershipRole = "viewer"
)

// Membership links a user to a tenant with a role. A user with no
// membership for a tenant has no access to that tenant's dashboard.
type Membership struct {
	shared.BaseEntity
	UserID   uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex:idx_memberships_user_tenant"`
	TenantID uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex:idx_memberships_user_tenant"`
	Role     MembershipRole `gorm:"type:varchar(20);not null;default:'viewer'"`
}

// TableName returns the table name for GORM
func (Membership) TableName() string {
	return "memberships"
}

// NewMembership creates a membership linking a user to a tenant
func NewMembership(userID, tenantID uuid.UUID, role MembershipRole) (*Membership, error) {
	if userID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_USER_ID", "User ID is required")
	}
	if tenantID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_TENANT_ID", "Tenant ID is required")
	}
	if err := validateRole(role); err != nil {
		return nil, err
	}

	return &Membership{
		BaseEntity: shared.NewBaseEntity(),
		UserID:     userID,
		TenantID:   tenantID,
		Role:       role,
	}, nil
}

// ChangeRole updates the membership role
func (m *Membership) ChangeRole(role MembershipRole) error {
	if err := validateRole(role); err != nil {
		return err
	}

	m.Role = role
	m.UpdatedAt = time.Now()

	return nil
}

// IsAdmin returns true if the membership carries the admin role
func (m *Membership) IsAdmin() bool {
	return m.Role == RoleAdmin
}

func validateRole(role MembershipRole) error {
	switch role {
	case RoleAdmin, RoleViewer:
		return nil
	default:
		return shared.NewDomainError("INVALID_ROLE", "Invalid membership role")
	}
}
