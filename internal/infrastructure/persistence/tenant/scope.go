// Package tenant provides multi-tenant database scoping for GORM.
//
// Every analytics table carries a tenant_id column. The helpers here
// apply WHERE tenant_id = ? conditions so repositories cannot leak rows
// across shops.
package tenant

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shopalytics/backend/internal/infrastructure/logger"
	"gorm.io/gorm"
)

// ErrTenantIDRequired is returned when tenant_id is required but not found
var ErrTenantIDRequired = errors.New("tenant_id is required but not found in context")

// ErrInvalidTenantID is returned when tenant_id format is invalid
var ErrInvalidTenantID = errors.New("invalid tenant_id format")

// Scope applies tenant filtering to GORM queries
func Scope(tenantID uuid.UUID) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("tenant_id = ?", tenantID)
	}
}

// ScopeString applies tenant filtering using a string tenant ID
func ScopeString(tenantID string) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("tenant_id = ?", tenantID)
	}
}

// DB wraps a GORM DB with tenant scoping helpers
type DB struct {
	db *gorm.DB
}

// NewDB creates a tenant-scoping wrapper around db
func NewDB(db *gorm.DB) *DB {
	return &DB{db: db}
}

// WithTenant returns a GORM DB scoped to a specific tenant ID.
// A nil tenant ID yields a DB that errors on any operation.
func (t *DB) WithTenant(ctx context.Context, tenantID uuid.UUID) *gorm.DB {
	db := t.db.WithContext(ctx)
	if tenantID == uuid.Nil {
		_ = db.AddError(ErrTenantIDRequired)
		return db
	}
	return db.Scopes(Scope(tenantID))
}

// WithContext returns a GORM DB scoped to the tenant recorded in ctx
// by the request middleware.
func (t *DB) WithContext(ctx context.Context) *gorm.DB {
	tenantID := logger.GetTenantID(ctx)
	db := t.db.WithContext(ctx)
	if tenantID == "" {
		_ = db.AddError(ErrTenantIDRequired)
		return db
	}
	if _, err := uuid.Parse(tenantID); err != nil {
		_ = db.AddError(ErrInvalidTenantID)
		return db
	}
	return db.Scopes(ScopeString(tenantID))
}

// Unscoped returns the underlying DB without any tenant scoping.
// Only system-level operations and migrations should use this.
func (t *DB) Unscoped() *gorm.DB {
	return t.db
}
