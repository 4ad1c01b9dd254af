package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/school-food-safety/backend/internal/models"
	"github.com/school-food-safety/backend/internal/services"
	"github.com/sirupsen/logrus"
)

type InspectionHandler struct {
	inspections  *services.InspectionService
	auditService *services.AuditService
	log          *logrus.Logger
	atomic       bool
}

// NewInspectionHandler builds the handler. With atomic set, creates write
// the inspection and its school update in one transaction.
func NewInspectionHandler(inspections *services.InspectionService, audit *services.AuditService, log *logrus.Logger, atomic bool) *InspectionHandler {
	return &InspectionHandler{
		inspections:  inspections,
		auditService: audit,
		log:          log,
		atomic:       atomic,
	}
}

type CreateInspectionResponse struct {
	Inspection *models.Inspection `json:"inspection"`
	Warning    string             `json:"warning,omitempty"`
}

func (h *InspectionHandler) List(c *gin.Context) {
	filter := services.InspectionFilter{
		Rating:         models.Rating(c.Query("rating")),
		Status:         models.InspectionStatus(c.Query("status")),
		InspectionType: models.InspectionType(c.Query("inspection_type")),
	}

	var err error
	if filter.SchoolID, err = queryID(c, "school_id"); err != nil {
		respondError(c, h.log, err)
		return
	}
	if filter.From, err = queryDate(c, "start_date", false); err != nil {
		respondError(c, h.log, err)
		return
	}
	if filter.To, err = queryDate(c, "end_date", true); err != nil {
		respondError(c, h.log, err)
		return
	}

	inspections, err := h.inspections.List(c.Request.Context(), filter)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, inspections)
}

// @Summary Record an inspection
// @Description Saves the inspection and copies its rating, date and violation count onto the school.
// @Tags inspections
// @Accept json
// @Produce json
// @Param request body models.Inspection true "Inspection"
// @Success 201 {object} CreateInspectionResponse
// @Security BearerAuth
// @Router /api/v1/inspections [post]
func (h *InspectionHandler) Create(c *gin.Context) {
	var in models.Inspection
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	resp := CreateInspectionResponse{}
	if h.atomic {
		created, err := h.inspections.CreateAtomic(c.Request.Context(), &in)
		if err != nil {
			respondError(c, h.log, err)
			return
		}
		resp.Inspection = created
	} else {
		created, warning, err := h.inspections.Create(c.Request.Context(), &in)
		if err != nil {
			respondError(c, h.log, err)
			return
		}
		resp.Inspection = created
		if warning != nil {
			resp.Warning = warning.Error()
		}
	}

	recordAudit(c, h.auditService, h.log, services.AuditCreate, "inspection", resp.Inspection.ID, nil, resp.Inspection)
	c.JSON(http.StatusCreated, resp)
}

func (h *InspectionHandler) Get(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	inspection, err := h.inspections.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, inspection)
}

func (h *InspectionHandler) Update(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	var in models.Inspection
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	updated, err := h.inspections.Update(c.Request.Context(), id, &in)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	recordAudit(c, h.auditService, h.log, services.AuditUpdate, "inspection", id, nil, updated)
	c.JSON(http.StatusOK, updated)
}

func (h *InspectionHandler) Delete(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	if err := h.inspections.Delete(c.Request.Context(), id); err != nil {
		respondError(c, h.log, err)
		return
	}

	recordAudit(c, h.auditService, h.log, services.AuditDelete, "inspection", id, nil, nil)
	c.JSON(http.StatusOK, gin.H{"message": "Inspection deleted successfully"})
}
