package identity

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/shopalytics/backend/internal/domain/identity"
	"github.com/shopalytics/backend/internal/domain/shared"
)

// TenantService manages tenants and the memberships that gate access to
// them
type TenantService struct {
	tenantRepo     identity.TenantRepository
	userRepo       identity.UserRepository
	membershipRepo identity.MembershipRepository
	logger         *zap.Logger
}

// NewTenantService creates a new tenant service
func NewTenantService(
	tenantRepo identity.TenantRepository,
	userRepo identity.UserRepository,
	membershipRepo identity.MembershipRepository,
	logger *zap.Logger,
) *TenantService {
	return &TenantService{
		tenantRepo:     tenantRepo,
		userRepo:       userRepo,
		membershipRepo: membershipRepo,
		logger:         logger,
	}
}

// CreateTenant registers a new shop and links the creator as its admin.
// Tenant and membership are written in one transaction.
func (s *TenantService) CreateTenant(ctx context.Context, input CreateTenantInput) (*TenantInfo, error) {
	tenant, err := identity.NewTenant(input.Name, input.ShopDomain)
	if err != nil {
		return nil, err
	}
	if input.AccessToken != "" {
		tenant.SetAccessToken(input.AccessToken)
	}

	exists, err := s.tenantRepo.ExistsByShopifyDomain(ctx, tenant.ShopifyDomain)
	if err != nil {
		s.logger.Error("Failed to check shop domain uniqueness", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to create tenant")
	}
	if exists {
		s.logger.Warn("Tenant creation with existing shop domain",
			zap.String("shop_domain", tenant.ShopifyDomain))
		return nil, shared.NewDomainError("DOMAIN_TAKEN", "A tenant with this shop domain already exists")
	}

	admin, err := identity.NewMembership(input.CreatorID, tenant.ID, identity.RoleAdmin)
	if err != nil {
		return nil, err
	}

	if err := s.tenantRepo.CreateWithAdmin(ctx, tenant, admin); err != nil {
		s.logger.Error("Failed to create tenant", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to create tenant")
	}

	s.logger.Info("Tenant created",
		zap.String("tenant_id", tenant.ID.String()),
		zap.String("shop_domain", tenant.ShopifyDomain),
		zap.String("creator_id", input.CreatorID.String()))

	return &TenantInfo{
		ID:            tenant.ID,
		Name:          tenant.Name,
		ShopifyDomain: tenant.ShopifyDomain,
		Status:        string(tenant.Status),
		Role:          identity.RoleAdmin,
		CreatedAt:     tenant.CreatedAt,
	}, nil
}

// ListForUser returns the tenants the user is a member of, with their
// role in each
func (s *TenantService) ListForUser(ctx context.Context, userID uuid.UUID) ([]TenantInfo, error) {
	memberships, err := s.membershipRepo.FindByUser(ctx, userID)
	if err != nil {
		s.logger.Error("Failed to load memberships", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to list tenants")
	}

	tenants, err := tenantsWithRoles(ctx, s.tenantRepo, memberships)
	if err != nil {
		s.logger.Error("Failed to load tenants", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to list tenants")
	}

	return tenants, nil
}

// Authorize verifies that the user holds a membership for the tenant.
// Any role suffices for read access.
func (s *TenantService) Authorize(ctx context.Context, userID, tenantID uuid.UUID) (*identity.Membership, error) {
	membership, err := s.membershipRepo.Find(ctx, userID, tenantID)
	if err != nil {
		if err == shared.ErrNotFound {
			return nil, shared.NewDomainError("TENANT_ACCESS_DENIED", "You do not have access to this tenant")
		}
		s.logger.Error("Failed to check tenant access", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to check tenant access")
	}
	return membership, nil
}

// LinkUser links a user, looked up by email, to a tenant with a role.
// Linking an existing member is idempotent and reports AlreadyLinked.
func (s *TenantService) LinkUser(ctx context.Context, input LinkUserInput) (*LinkUserResult, error) {
	if _, err := s.Authorize(ctx, input.ActorID, input.TenantID); err != nil {
		return nil, err
	}

	if _, err := s.tenantRepo.FindByID(ctx, input.TenantID); err != nil {
		if err == shared.ErrNotFound {
			return nil, shared.NewDomainError("TENANT_NOT_FOUND", "Tenant not found")
		}
		return nil, err
	}

	normalized, err := identity.NormalizeEmail(input.Email)
	if err != nil {
		return nil, err
	}

	user, err := s.userRepo.FindByEmail(ctx, normalized)
	if err != nil {
		if err == shared.ErrNotFound {
			return nil, shared.NewDomainError("USER_NOT_FOUND", "No user with this email")
		}
		return nil, err
	}

	role := input.Role
	if role == "" {
		role = identity.RoleViewer
	}

	existing, err := s.membershipRepo.Find(ctx, user.ID, input.TenantID)
	if err == nil {
		if existing.Role != role {
			if err := existing.ChangeRole(role); err != nil {
				return nil, err
			}
			if err := s.membershipRepo.Save(ctx, existing); err != nil {
				s.logger.Error("Failed to update membership role", zap.Error(err))
				return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to link user")
			}
		}
		return &LinkUserResult{
			UserID:        user.ID,
			TenantID:      input.TenantID,
			Role:          existing.Role,
			AlreadyLinked: true,
		}, nil
	}
	if err != shared.ErrNotFound {
		s.logger.Error("Failed to check membership", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to link user")
	}

	membership, err := identity.NewMembership(user.ID, input.TenantID, role)
	if err != nil {
		return nil, err
	}
	if err := s.membershipRepo.Save(ctx, membership); err != nil {
		s.logger.Error("Failed to save membership", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to link user")
	}

	s.logger.Info("User linked to tenant",
		zap.String("user_id", user.ID.String()),
		zap.String("tenant_id", input.TenantID.String()),
		zap.String("role", string(role)))

	return &LinkUserResult{
		UserID:   user.ID,
		TenantID: input.TenantID,
		Role:     role,
	}, nil
}
