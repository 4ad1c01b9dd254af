package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

func Logger(log *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		traceID := uuid.New().String()
		c.Set("trace_id", traceID)
		c.Header("X-Trace-ID", traceID)

		start := time.Now()
		path := c.Request.URL.Path
		method := c.Request.Method

		c.Next()

		statusCode := c.Writer.Status()
		entry := log.WithFields(logrus.Fields{
			"trace_id": traceID,
			"method":   method,
			"path":     path,
			"status":   statusCode,
			"latency":  time.Since(start).String(),
			"client":   c.ClientIP(),
		})

		switch {
		case len(c.Errors) > 0:
			entry.WithField("errors", c.Errors.String()).Error("request failed")
		case statusCode >= 500:
			entry.Error("request completed")
		case statusCode >= 400:
			entry.Warn("request completed")
		default:
			entry.Info("request completed")
		}
	}
}
