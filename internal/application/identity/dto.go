package identity

import (
	"time"

	"github.com/google/uuid"

	"github.com/shopalytics/backend/internal/domain/identity"
)

// RegisterInput contains the input for user registration
type RegisterInput struct {
	Email    string
	Name     string
	Password string
}

// LoginInput contains the input for user login
type LoginInput struct {
	Email    string
	Password string
}

// AuthResult contains the token pair issued after registration, login
// or refresh
type AuthResult struct {
	AccessToken           string
	RefreshToken          string
	AccessTokenExpiresAt  time.Time
	RefreshTokenExpiresAt time.Time
	TokenType             string
	User                  UserInfo
}

// UserInfo contains basic user information returned to clients
type UserInfo struct {
	ID    uuid.UUID
	Email string
	Name  string
}

// RefreshTokenInput contains the input for token refresh
type RefreshTokenInput struct {
	RefreshToken string
}

// LogoutInput contains the input for user logout. TokenJTI and TokenTTL
// come from the access token presented with the request so the token
// can be blacklisted for exactly its remaining lifetime.
type LogoutInput struct {
	UserID   uuid.UUID
	TokenJTI string
	TokenTTL time.Duration
}

// CurrentUserResult contains the current user and the tenants they can
// access
type CurrentUserResult struct {
	User    UserInfo
	Tenants []TenantInfo
}

// CreateTenantInput contains the input for tenant creation
type CreateTenantInput struct {
	Name        string
	ShopDomain  string
	AccessToken string
	// CreatorID is linked to the new tenant as admin
	CreatorID uuid.UUID
}

// TenantInfo contains a tenant together with the caller's role in it
type TenantInfo struct {
	ID            uuid.UUID
	Name          string
	ShopifyDomain string
	Status        string
	Role          identity.MembershipRole
	CreatedAt     time.Time
}

// LinkUserInput contains the input for linking a user to a tenant by
// email
type LinkUserInput struct {
	TenantID uuid.UUID
	// ActorID is the user performing the link, who must be a member of
	// the tenant
	ActorID uuid.UUID
	Email   string
	Role    identity.MembershipRole
}

// LinkUserResult reports the membership that now exists
type LinkUserResult struct {
	UserID   uuid.UUID
	TenantID uuid.UUID
	Role     identity.MembershipRole
	// AlreadyLinked is true when the membership existed before the call
	AlreadyLinked bool
}
