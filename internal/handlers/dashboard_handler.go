package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/school-food-safety/backend/internal/services"
	"github.com/sirupsen/logrus"
)

type DashboardHandler struct {
	dashboard *services.DashboardService
	log       *logrus.Logger
}

func NewDashboardHandler(dashboard *services.DashboardService, log *logrus.Logger) *DashboardHandler {
	return &DashboardHandler{dashboard: dashboard, log: log}
}

func (h *DashboardHandler) Stats(c *gin.Context) {
	stats, err := h.dashboard.Stats(c.Request.Context())
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}
