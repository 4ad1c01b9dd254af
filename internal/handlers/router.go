package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/school-food-safety/backend/internal/blob"
	"github.com/school-food-safety/backend/internal/config"
	"github.com/school-food-safety/backend/internal/middleware"
	"github.com/school-food-safety/backend/internal/services"
	"github.com/sirupsen/logrus"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/gorm"
)

// NewRouter wires services and handlers onto a gin engine.
func NewRouter(cfg *config.Config, db *gorm.DB, store blob.Store, log *logrus.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.Logger(log))
	r.Use(middleware.CORS(cfg.CORS.Origins))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "service": "food-safety-api"})
	})
	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "School Food Safety Inspection API", "status": "running"})
	})

	if cfg.Monitoring.Enabled {
		r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	}

	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Services
	authService := services.NewAuthService(db, cfg)
	auditService := services.NewAuditService(db)
	schoolService := services.NewSchoolService(db, log)
	inspectionService := services.NewInspectionService(db, log)
	photoService := services.NewPhotoService(db, store, log, cfg.Photos.Root, cfg.Photos.MaxUploadBytes)
	reportService := services.NewReportService(db, inspectionService, photoService, log)
	dashboardService := services.NewDashboardService(db)

	// Handlers
	authHandler := NewAuthHandler(authService, log)
	userHandler := NewUserHandler(authService, auditService, log)
	auditHandler := NewAuditHandler(auditService, log)
	schoolHandler := NewSchoolHandler(schoolService, inspectionService, photoService, auditService, log)
	inspectionHandler := NewInspectionHandler(inspectionService, auditService, log, cfg.Inspection.AtomicCreate)
	photoHandler := NewPhotoHandler(photoService, auditService, log, cfg.Photos.MaxUploadBytes)
	reportHandler := NewReportHandler(reportService, log)
	dashboardHandler := NewDashboardHandler(dashboardService, log)

	v1 := r.Group("/api/v1")
	{
		auth := v1.Group("/auth")
		{
			auth.POST("/login", authHandler.Login)
			auth.POST("/refresh", authHandler.Refresh)
			auth.POST("/logout", authHandler.Logout)
		}

		protected := v1.Group("")
		protected.Use(middleware.AuthMiddleware(authService))
		protected.Use(middleware.ReadOnlyGuard())
		{
			protected.GET("/schools", schoolHandler.List)
			protected.POST("/schools", schoolHandler.Create)
			protected.GET("/schools/grouped", schoolHandler.Grouped)
			protected.GET("/schools/:id", schoolHandler.Get)
			protected.PUT("/schools/:id", schoolHandler.Update)
			protected.DELETE("/schools/:id", schoolHandler.Delete)
			protected.GET("/schools/:id/inspections", schoolHandler.Inspections)
			protected.GET("/schools/:id/photos", schoolHandler.Photos)

			protected.GET("/inspections", inspectionHandler.List)
			protected.POST("/inspections", inspectionHandler.Create)
			protected.GET("/inspections/:id", inspectionHandler.Get)
			protected.PUT("/inspections/:id", inspectionHandler.Update)
			protected.DELETE("/inspections/:id", inspectionHandler.Delete)

			protected.POST("/photos", photoHandler.Upload)
			protected.GET("/photos/:id", photoHandler.Get)
			protected.GET("/photos/:id/raw", photoHandler.Raw)
			protected.DELETE("/photos/:id", photoHandler.Delete)

			protected.GET("/reports", reportHandler.Data)
			protected.GET("/reports/export.html", reportHandler.ExportHTML)
			protected.GET("/reports/export.csv", reportHandler.ExportCSV)

			protected.GET("/dashboard/stats", dashboardHandler.Stats)

			admin := protected.Group("/admin")
			admin.Use(middleware.RequireAdmin())
			{
				admin.GET("/audit", auditHandler.GetRecentActivity)
				admin.GET("/users", userHandler.List)
				admin.POST("/users", userHandler.Create)
			}
		}
	}

	return r
}
