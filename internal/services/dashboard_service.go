package services

import (
	"context"
	"time"

	"github.com/school-food-safety/backend/internal/models"
	"gorm.io/gorm"
)

const recentWindow = 30 * 24 * time.Hour

type DashboardService struct {
	db  *gorm.DB
	now func() time.Time
}

func NewDashboardService(db *gorm.DB) *DashboardService {
	return &DashboardService{db: db, now: time.Now}
}

type DashboardStats struct {
	TotalSchools       int64                   `json:"total_schools"`
	ActiveSchools      int64                   `json:"active_schools"`
	TotalInspections   int64                   `json:"total_inspections"`
	RecentInspections  int64                   `json:"recent_inspections"`
	RatingDistribution map[models.Rating]int64 `json:"rating_distribution"`
	TotalViolations    int64                   `json:"total_violations"`
	TotalPhotos        int64                   `json:"total_photos"`
}

// Stats summarises schools and inspections for the landing page. Recent
// inspections are those dated within the last 30 days.
func (s *DashboardService) Stats(ctx context.Context) (*DashboardStats, error) {
	db := s.db.WithContext(ctx)
	stats := &DashboardStats{RatingDistribution: make(map[models.Rating]int64, len(models.Ratings))}
	for _, r := range models.Ratings {
		stats.RatingDistribution[r] = 0
	}

	if err := db.Model(&models.School{}).Count(&stats.TotalSchools).Error; err != nil {
		return nil, persistence("count schools", err)
	}
	if err := db.Model(&models.School{}).Where("status = ?", models.SchoolStatusActive).Count(&stats.ActiveSchools).Error; err != nil {
		return nil, persistence("count active schools", err)
	}
	if err := db.Model(&models.Inspection{}).Count(&stats.TotalInspections).Error; err != nil {
		return nil, persistence("count inspections", err)
	}
	since := s.now().Add(-recentWindow).UTC()
	if err := db.Model(&models.Inspection{}).Where("inspection_date >= ?", since).Count(&stats.RecentInspections).Error; err != nil {
		return nil, persistence("count recent inspections", err)
	}
	if err := db.Model(&models.Photo{}).Count(&stats.TotalPhotos).Error; err != nil {
		return nil, persistence("count photos", err)
	}

	var rows []struct {
		Rating models.Rating
		Total  int64
	}
	if err := db.Model(&models.School{}).Select("rating, COUNT(*) AS total").Group("rating").Scan(&rows).Error; err != nil {
		return nil, persistence("rating distribution", err)
	}
	for _, row := range rows {
		stats.RatingDistribution[row.Rating] = row.Total
	}

	var violations struct{ Total int64 }
	if err := db.Model(&models.School{}).Select("COALESCE(SUM(violations), 0) AS total").Scan(&violations).Error; err != nil {
		return nil, persistence("sum violations", err)
	}
	stats.TotalViolations = violations.Total

	return stats, nil
}
