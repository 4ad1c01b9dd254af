package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/school-food-safety/backend/internal/services"
	"github.com/sirupsen/logrus"
)

type AuditHandler struct {
	auditService *services.AuditService
	log          *logrus.Logger
}

func NewAuditHandler(audit *services.AuditService, log *logrus.Logger) *AuditHandler {
	return &AuditHandler{auditService: audit, log: log}
}

func (h *AuditHandler) GetRecentActivity(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if err != nil || limit > 100 {
		limit = 20
	}

	resourceID, err := queryID(c, "resource_id")
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	activities, err := h.auditService.List(c.Request.Context(), services.AuditFilter{
		ResourceType: c.Query("resource_type"),
		ResourceID:   resourceID,
		Limit:        limit,
	})
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, activities)
}
