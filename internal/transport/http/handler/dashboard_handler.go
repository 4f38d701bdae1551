package handler

import (
	"github.com/gin-gonic/gin"

	"property-listing/internal/service"
	"property-listing/internal/transport/http/ez"
)

type DashboardHandler struct {
	dash *service.DashboardService
}

func NewDashboardHandler(dash *service.DashboardService) *DashboardHandler {
	return &DashboardHandler{dash: dash}
}

func (h *DashboardHandler) MountAPI(_, authed *gin.RouterGroup) {
	ez.New(authed).GET("/dashboard", func(c *gin.Context) (any, error) {
		return h.dash.Stats(c.Request.Context(), ez.UserID(c))
	})
}
