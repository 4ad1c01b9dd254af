package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/school-food-safety/backend/internal/models"
	"github.com/school-food-safety/backend/internal/services"
	"github.com/sirupsen/logrus"
)

type SchoolHandler struct {
	schools      *services.SchoolService
	inspections  *services.InspectionService
	photos       *services.PhotoService
	auditService *services.AuditService
	log          *logrus.Logger
}

func NewSchoolHandler(schools *services.SchoolService, inspections *services.InspectionService, photos *services.PhotoService, audit *services.AuditService, log *logrus.Logger) *SchoolHandler {
	return &SchoolHandler{
		schools:      schools,
		inspections:  inspections,
		photos:       photos,
		auditService: audit,
		log:          log,
	}
}

func schoolFilter(c *gin.Context) services.SchoolFilter {
	return services.SchoolFilter{
		Rating: models.Rating(c.Query("rating")),
		Status: models.SchoolStatus(c.Query("status")),
		Level:  models.AdminLevel(c.Query("level")),
		Search: c.Query("search"),
	}
}

// @Summary List schools
// @Tags schools
// @Produce json
// @Param rating query string false "Rating"
// @Param status query string false "Status"
// @Param level query string false "Administrative level"
// @Param search query string false "Name, owner or location"
// @Success 200 {array} models.School
// @Security BearerAuth
// @Router /api/v1/schools [get]
func (h *SchoolHandler) List(c *gin.Context) {
	schools, err := h.schools.List(c.Request.Context(), schoolFilter(c))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, schools)
}

// Grouped lists schools bucketed by administrative level.
func (h *SchoolHandler) Grouped(c *gin.Context) {
	schools, err := h.schools.List(c.Request.Context(), schoolFilter(c))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, services.GroupByLevel(schools))
}

func (h *SchoolHandler) Create(c *gin.Context) {
	var school models.School
	if err := c.ShouldBindJSON(&school); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	created, err := h.schools.Create(c.Request.Context(), &school)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	recordAudit(c, h.auditService, h.log, services.AuditCreate, "school", created.ID, nil, created)
	c.JSON(http.StatusCreated, created)
}

func (h *SchoolHandler) Get(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	school, err := h.schools.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, school)
}

func (h *SchoolHandler) Update(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	var patch services.SchoolPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	before, err := h.schools.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	snapshot := *before

	updated, err := h.schools.Update(c.Request.Context(), id, patch)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	recordAudit(c, h.auditService, h.log, services.AuditUpdate, "school", id, snapshot, updated)
	c.JSON(http.StatusOK, updated)
}

func (h *SchoolHandler) Delete(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	if err := h.schools.Delete(c.Request.Context(), id); err != nil {
		respondError(c, h.log, err)
		return
	}

	recordAudit(c, h.auditService, h.log, services.AuditDelete, "school", id, nil, nil)
	c.JSON(http.StatusOK, gin.H{"message": "School deleted successfully"})
}

// Inspections lists the school's inspections, most recent first.
func (h *SchoolHandler) Inspections(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	if _, err := h.schools.Get(c.Request.Context(), id); err != nil {
		respondError(c, h.log, err)
		return
	}

	inspections, err := h.inspections.ListBySchool(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, inspections)
}

// Photos lists the school's photos. With inspection_id only that
// inspection's photos and the facility photos are returned.
func (h *SchoolHandler) Photos(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	inspectionID, err := queryID(c, "inspection_id")
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	photos, err := h.photos.ListByAssociation(c.Request.Context(), id, inspectionID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"photos": photos,
		"counts": services.CountByKind(photos),
	})
}
