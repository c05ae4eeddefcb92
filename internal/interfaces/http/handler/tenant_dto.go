package handler

import (
	"time"

	"github.com/google/uuid"
)

// =====================
// Tenant Request DTOs
// =====================

// CreateTenantRequest represents the request body for tenant onboarding
type CreateTenantRequest struct {
	Name        string `json:"name" binding:"required,min=1,max=255"`
	ShopDomain  string `json:"shop_domain" binding:"required,min=4,max=255"`
	AccessToken string `json:"access_token" binding:"max=255"`
}

// LinkUserRequest represents the request body for linking a user to a
// tenant. Role defaults to viewer when empty.
type LinkUserRequest struct {
	Email string `json:"email" binding:"required,email"`
	Role  string `json:"role" binding:"omitempty,oneof=admin viewer"`
}

// =====================
// Tenant Response DTOs
// =====================

// TenantResponse represents a tenant together with the caller's role
type TenantResponse struct {
	ID            uuid.UUID `json:"id"`
	Name          string    `json:"name"`
	ShopifyDomain string    `json:"shopify_domain"`
	Status        string    `json:"status"`
	Role          string    `json:"role"`
	CreatedAt     time.Time `json:"created_at"`
}

// LinkUserResponse represents the membership that now exists
type LinkUserResponse struct {
	UserID        uuid.UUID `json:"user_id"`
	TenantID      uuid.UUID `json:"tenant_id"`
	Role          string    `json:"role"`
	AlreadyLinked bool      `json:"already_linked"`
}

// BackfillResponse reports the outcome of a product backfill run
type BackfillResponse struct {
	ProductsCreated int   `json:"products_created"`
	ItemsLinked     int64 `json:"items_linked"`
}
