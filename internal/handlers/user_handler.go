package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/school-food-safety/backend/internal/models"
	"github.com/school-food-safety/backend/internal/services"
	"github.com/sirupsen/logrus"
)

type UserHandler struct {
	authService  *services.AuthService
	auditService *services.AuditService
	log          *logrus.Logger
}

func NewUserHandler(authService *services.AuthService, audit *services.AuditService, log *logrus.Logger) *UserHandler {
	return &UserHandler{
		authService:  authService,
		auditService: audit,
		log:          log,
	}
}

func (h *UserHandler) List(c *gin.Context) {
	users, err := h.authService.ListUsers(c.Request.Context())
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, users)
}

func (h *UserHandler) Create(c *gin.Context) {
	var req struct {
		Username string      `json:"username" binding:"required"`
		Password string      `json:"password" binding:"required,min=6"`
		FullName string      `json:"full_name" binding:"required"`
		Email    string      `json:"email"`
		Role     models.Role `json:"role" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user := &models.User{
		Username: req.Username,
		Email:    req.Email,
		FullName: req.FullName,
		Role:     req.Role,
		IsActive: true,
	}

	if err := h.authService.CreateUser(c.Request.Context(), user, req.Password); err != nil {
		respondError(c, h.log, err)
		return
	}

	recordAudit(c, h.auditService, h.log, services.AuditCreate, "user", user.ID, nil, user)
	c.JSON(http.StatusCreated, user)
}
