package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	appidentity "github.com/shopalytics/backend/internal/application/identity"
	"github.com/shopalytics/backend/internal/application/ingest"
	"github.com/shopalytics/backend/internal/domain/identity"
)

// TenantHandler handles tenant management HTTP requests
type TenantHandler struct {
	BaseHandler
	tenantService   *appidentity.TenantService
	backfillService *ingest.BackfillService
}

// NewTenantHandler creates a new tenant handler
func NewTenantHandler(tenantService *appidentity.TenantService, backfillService *ingest.BackfillService) *TenantHandler {
	return &TenantHandler{
		tenantService:   tenantService,
		backfillService: backfillService,
	}
}

// Create godoc
// @Summary      Onboard a new tenant
// @Description  Register a Shopify store and link the caller as its admin
// @Tags         tenants
// @Accept       json
// @Produce      json
// @Param        request body CreateTenantRequest true "Tenant creation request"
// @Success      201 {object} dto.Response{data=TenantResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /tenants [post]
func (h *TenantHandler) Create(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	var req CreateTenantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body")
		return
	}

	tenant, err := h.tenantService.CreateTenant(c.Request.Context(), appidentity.CreateTenantInput{
		Name:        req.Name,
		ShopDomain:  req.ShopDomain,
		AccessToken: req.AccessToken,
		CreatorID:   userID,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, toTenantResponse(tenant))
}

// List godoc
// @Summary      List accessible tenants
// @Description  List the tenants the authenticated user is a member of
// @Tags         tenants
// @Accept       json
// @Produce      json
// @Success      200 {object} dto.Response{data=[]TenantResponse}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /tenants [get]
func (h *TenantHandler) List(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	tenants, err := h.tenantService.ListForUser(c.Request.Context(), userID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	responses := make([]TenantResponse, len(tenants))
	for i, tenant := range tenants {
		responses[i] = toTenantResponse(&tenant)
	}

	h.Success(c, responses)
}

// LinkUser godoc
// @Summary      Link a user to a tenant
// @Description  Grant an existing user access to a tenant by email. The caller must be a member of the tenant. The call is idempotent, linking an already linked user updates the role.
// @Tags         tenants
// @Accept       json
// @Produce      json
// @Param        id path string true "Tenant ID" format(uuid)
// @Param        request body LinkUserRequest true "Link request"
// @Success      200 {object} dto.Response{data=LinkUserResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /tenants/{id}/link [post]
func (h *TenantHandler) LinkUser(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	tenantID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	var req LinkUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body")
		return
	}

	result, err := h.tenantService.LinkUser(c.Request.Context(), appidentity.LinkUserInput{
		TenantID: tenantID,
		ActorID:  userID,
		Email:    req.Email,
		Role:     identity.MembershipRole(req.Role),
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, LinkUserResponse{
		UserID:        result.UserID,
		TenantID:      result.TenantID,
		Role:          string(result.Role),
		AlreadyLinked: result.AlreadyLinked,
	})
}

// BackfillProducts godoc
// @Summary      Backfill products from order line items
// @Description  Create placeholder products for line item titles that never matched a product webhook and link those items to them
// @Tags         tenants
// @Accept       json
// @Produce      json
// @Param        id path string true "Tenant ID" format(uuid)
// @Success      200 {object} dto.Response{data=BackfillResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /tenants/{id}/products/backfill [post]
func (h *TenantHandler) BackfillProducts(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	tenantID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	if _, err := h.tenantService.Authorize(c.Request.Context(), userID, tenantID); err != nil {
		h.HandleError(c, err)
		return
	}

	result, err := h.backfillService.Backfill(c.Request.Context(), tenantID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, BackfillResponse{
		ProductsCreated: result.ProductsCreated,
		ItemsLinked:     result.ItemsLinked,
	})
}

func toTenantResponse(tenant *appidentity.TenantInfo) TenantResponse {
	return TenantResponse{
		ID:            tenant.ID,
		Name:          tenant.Name,
		ShopifyDomain: tenant.ShopifyDomain,
		Status:        tenant.Status,
		Role:          string(tenant.Role),
		CreatedAt:     tenant.CreatedAt,
	}
}
