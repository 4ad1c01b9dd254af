package services

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/school-food-safety/backend/internal/models"
	"gorm.io/gorm"
)

// Audit actions recorded against schools, inspections and photos.
const (
	AuditCreate = "create"
	AuditUpdate = "update"
	AuditDelete = "delete"
)

type AuditService struct {
	db *gorm.DB
}

func NewAuditService(db *gorm.DB) *AuditService {
	return &AuditService{db: db}
}

func (s *AuditService) Log(ctx context.Context, userID uuid.UUID, action, resourceType string, resourceID uuid.UUID, before, after models.JSONB, ip string) error {
	log := &models.AuditLog{
		ActorUserID:  userID,
		Action:       action,
		ResourceType: resourceType,
		ResourceID:   resourceID,
		Before:       before,
		After:        after,
		IP:           ip,
	}
	return s.db.WithContext(ctx).Create(log).Error
}

type AuditFilter struct {
	ResourceType string
	ResourceID   *uuid.UUID
	Limit        int
}

// List returns audit entries newest first. Limit defaults to 100.
func (s *AuditService) List(ctx context.Context, filter AuditFilter) ([]models.AuditLog, error) {
	limit := filter.Limit
	if limit <= 0 || limit > 1000 {
		limit = 100
	}

	q := s.db.WithContext(ctx).Model(&models.AuditLog{})
	if filter.ResourceType != "" {
		q = q.Where("resource_type = ?", filter.ResourceType)
	}
	if filter.ResourceID != nil {
		q = q.Where("resource_id = ?", *filter.ResourceID)
	}

	var logs []models.AuditLog
	if err := q.Order("timestamp DESC").Limit(limit).Find(&logs).Error; err != nil {
		return nil, persistence("list audit log", err)
	}
	return logs, nil
}

// Snapshot converts a model into the JSON map stored on audit entries.
func Snapshot(v interface{}) models.JSONB {
	if v == nil {
		return nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	var out models.JSONB
	if err := json.Unmarshal(b, &out); err != nil {
		return nil
	}
	return out
}
