package handler

import (
	apppayables "github.com/contaspagar/backend/internal/application/payables"
	"github.com/gin-gonic/gin"
)

// DashboardHandler serves the payables overview
type DashboardHandler struct {
	BaseHandler
	dashboardService *apppayables.DashboardService
}

// NewDashboardHandler creates a new DashboardHandler
func NewDashboardHandler(dashboardService *apppayables.DashboardService) *DashboardHandler {
	return &DashboardHandler{
		dashboardService: dashboardService,
	}
}

// Summary handles GET /dashboard
func (h *DashboardHandler) Summary(c *gin.Context) {
	summary, err := h.dashboardService.Summary(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, summary)
}
