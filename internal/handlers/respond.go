package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/school-food-safety/backend/internal/middleware"
	"github.com/school-food-safety/backend/internal/models"
	"github.com/school-food-safety/backend/internal/services"
	"github.com/sirupsen/logrus"
)

// respondError maps service errors onto status codes. Store failures are
// logged and reported without detail.
func respondError(c *gin.Context, log *logrus.Logger, err error) {
	var verr *services.ValidationError
	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, gin.H{"error": verr.Error(), "fields": verr.Fields})
	case errors.Is(err, services.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrDuplicateLicense), errors.Is(err, services.ErrDuplicateUsername):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		log.WithError(err).WithFields(logrus.Fields{
			"method": c.Request.Method,
			"path":   c.Request.URL.Path,
		}).Error("request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}

func paramID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid " + name})
		return uuid.Nil, false
	}
	return id, true
}

// queryID parses an optional uuid query parameter.
func queryID(c *gin.Context, name string) (*uuid.UUID, error) {
	raw := c.Query(name)
	if raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, &services.ValidationError{Fields: []services.FieldError{{Field: name, Reason: "must be a UUID"}}}
	}
	return &id, nil
}

// queryDate parses an optional date or RFC 3339 timestamp. A bare date used
// as an upper bound covers the whole day.
func queryDate(c *gin.Context, name string, endOfDay bool) (*time.Time, error) {
	raw := c.Query(name)
	if raw == "" {
		return nil, nil
	}
	t, err := models.ParseDate(raw)
	if err != nil {
		return nil, &services.ValidationError{Fields: []services.FieldError{{Field: name, Reason: "must be YYYY-MM-DD or RFC 3339"}}}
	}
	if endOfDay && len(raw) == len(models.DateLayout) {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return &t, nil
}

// recordAudit writes an audit entry for the caller. Failures are logged only.
func recordAudit(c *gin.Context, audit *services.AuditService, log *logrus.Logger, action, resource string, id uuid.UUID, before, after interface{}) {
	if audit == nil {
		return
	}
	actor, _ := c.Get(middleware.ContextUserID)
	actorID, _ := actor.(uuid.UUID)

	err := audit.Log(c.Request.Context(), actorID, action, resource, id, services.Snapshot(before), services.Snapshot(after), c.ClientIP())
	if err != nil {
		log.WithError(err).WithFields(logrus.Fields{
			"action":      action,
			"resource":    resource,
			"resource_id": id,
		}).Warn("failed to write audit entry")
	}
}
