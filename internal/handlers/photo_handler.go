package handlers

import (
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/school-food-safety/backend/internal/models"
	"github.com/school-food-safety/backend/internal/services"
	"github.com/sirupsen/logrus"
)

// multipart framing allowance on top of the photo size limit
const formOverhead = 1 << 20

type PhotoHandler struct {
	photos       *services.PhotoService
	auditService *services.AuditService
	log          *logrus.Logger
	maxBytes     int64
}

func NewPhotoHandler(photos *services.PhotoService, audit *services.AuditService, log *logrus.Logger, maxBytes int64) *PhotoHandler {
	return &PhotoHandler{
		photos:       photos,
		auditService: audit,
		log:          log,
		maxBytes:     maxBytes,
	}
}

// @Summary Upload a photo
// @Tags photos
// @Accept multipart/form-data
// @Produce json
// @Param photo formData file true "Image file"
// @Param school_id formData string true "School"
// @Param inspection_id formData string false "Inspection"
// @Param facility_type formData string false "Facility"
// @Param caption formData string false "Caption"
// @Success 201 {object} models.Photo
// @Security BearerAuth
// @Router /api/v1/photos [post]
func (h *PhotoHandler) Upload(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxBytes+formOverhead)

	file, err := c.FormFile("photo")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "photo file is required"})
		return
	}
	if file.Size > h.maxBytes {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("photo exceeds %d bytes", h.maxBytes)})
		return
	}

	schoolID, err := uuid.Parse(c.PostForm("school_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid school_id"})
		return
	}
	assoc := services.PhotoAssociation{SchoolID: schoolID}
	if raw := c.PostForm("inspection_id"); raw != "" {
		inspectionID, err := uuid.Parse(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid inspection_id"})
			return
		}
		assoc.InspectionID = &inspectionID
	}
	if raw := c.PostForm("facility_type"); raw != "" {
		facility := models.FacilityType(raw)
		assoc.FacilityType = &facility
	}

	f, err := file.Open()
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, h.maxBytes+1))
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	photo, err := h.photos.Save(c.Request.Context(), services.PhotoUpload{
		Data:         data,
		OriginalName: file.Filename,
		MimeType:     file.Header.Get("Content-Type"),
		Caption:      c.PostForm("caption"),
	}, assoc)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	photo.Payload = nil
	recordAudit(c, h.auditService, h.log, services.AuditCreate, "photo", photo.ID, nil, photo)
	c.JSON(http.StatusCreated, photo)
}

// Get returns the photo metadata.
func (h *PhotoHandler) Get(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	photo, err := h.photos.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	photo.Payload = nil
	c.JSON(http.StatusOK, photo)
}

// Raw streams the stored image bytes.
func (h *PhotoHandler) Raw(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	photo, err := h.photos.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("inline; filename=%q", photo.Filename))
	c.Header("Cache-Control", "private, max-age=3600")
	c.Data(http.StatusOK, photo.MimeType, photo.Payload)
}

func (h *PhotoHandler) Delete(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	if err := h.photos.Delete(c.Request.Context(), id); err != nil {
		respondError(c, h.log, err)
		return
	}

	recordAudit(c, h.auditService, h.log, services.AuditDelete, "photo", id, nil, nil)
	c.JSON(http.StatusOK, gin.H{"message": "Photo deleted successfully"})
}
