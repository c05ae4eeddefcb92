package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shopalytics/backend/internal/domain/identity"
	"github.com/shopalytics/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// GormMembershipRepository implements MembershipRepository using GORM
type GormMembershipRepository struct {
	db *gorm.DB
}

var _ identity.MembershipRepository = (*GormMembershipRepository)(nil)

// NewGormMembershipRepository creates a new GormMembershipRepository
func NewGormMembershipRepository(db *gorm.DB) *GormMembershipRepository {
	return &GormMembershipRepository{db: db}
}

// Save creates or updates a membership
func (r *GormMembershipRepository) Save(ctx context.Context, membership *identity.Membership) error {
	return r.db.WithContext(ctx).Save(membership).Error
}

// Find finds the membership linking a user to a tenant
func (r *GormMembershipRepository) Find(ctx context.Context, userID, tenantID uuid.UUID) (*identity.Membership, error) {
	var membership identity.Membership
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND tenant_id = ?", userID, tenantID).
		First(&membership).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &membership, nil
}

// FindByUser finds all memberships of a user
func (r *GormMembershipRepository) FindByUser(ctx context.Context, userID uuid.UUID) ([]identity.Membership, error) {
	var memberships []identity.Membership
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at ASC").
		Find(&memberships).Error; err != nil {
		return nil, err
	}
	return memberships, nil
}

// FindByTenant finds all memberships of a tenant
func (r *GormMembershipRepository) FindByTenant(ctx context.Context, tenantID uuid.UUID) ([]identity.Membership, error) {
	var memberships []identity.Membership
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		Order("created_at ASC").
		Find(&memberships).Error; err != nil {
		return nil, err
	}
	return memberships, nil
}
