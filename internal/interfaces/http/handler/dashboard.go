package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/shopalytics/backend/internal/application/analytics"
	appidentity "github.com/shopalytics/backend/internal/application/identity"
)

// DashboardHandler handles dashboard aggregation HTTP requests
type DashboardHandler struct {
	BaseHandler
	tenantService    *appidentity.TenantService
	dashboardService *analytics.DashboardService
}

// NewDashboardHandler creates a new dashboard handler
func NewDashboardHandler(tenantService *appidentity.TenantService, dashboardService *analytics.DashboardService) *DashboardHandler {
	return &DashboardHandler{
		tenantService:    tenantService,
		dashboardService: dashboardService,
	}
}

// DashboardQuery represents the optional date range of a dashboard
// request
type DashboardQuery struct {
	StartDate string `form:"startDate"`
	EndDate   string `form:"endDate"`
}

// GetDashboard godoc
// @Summary      Get tenant dashboard
// @Description  Aggregate customer, product, order and event metrics for a tenant over an optional date range
// @Tags         dashboard
// @Accept       json
// @Produce      json
// @Param        id path string true "Tenant ID" format(uuid)
// @Param        startDate query string false "Range start (YYYY-MM-DD)"
// @Param        endDate query string false "Range end (YYYY-MM-DD)"
// @Success      200 {object} dto.Response{data=analytics.Dashboard}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /tenants/{id}/dashboard [get]
func (h *DashboardHandler) GetDashboard(c *gin.Context) {
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

	var query DashboardQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		h.BadRequest(c, "Invalid query parameters")
		return
	}

	if _, err := h.tenantService.Authorize(c.Request.Context(), userID, tenantID); err != nil {
		h.HandleError(c, err)
		return
	}

	dashboard, err := h.dashboardService.GetDashboard(c.Request.Context(), analytics.DashboardInput{
		TenantID:  tenantID,
		StartDate: query.StartDate,
		EndDate:   query.EndDate,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, dashboard)
}
