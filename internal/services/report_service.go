package services

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/school-food-safety/backend/internal/models"
	"github.com/school-food-safety/backend/internal/rating"
	"github.com/school-food-safety/backend/internal/report"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type ReportService struct {
	db          *gorm.DB
	inspections *InspectionService
	photos      *PhotoService
	log         *logrus.Logger
	now         func() time.Time
}

func NewReportService(db *gorm.DB, inspections *InspectionService, photos *PhotoService, log *logrus.Logger) *ReportService {
	return &ReportService{
		db:          db,
		inspections: inspections,
		photos:      photos,
		log:         log,
		now:         time.Now,
	}
}

type ReportFilter struct {
	SchoolID       *uuid.UUID
	From           *time.Time
	To             *time.Time
	Rating         models.Rating
	InspectionType models.InspectionType
	// TypeProxy narrows by rating band instead of the stored type:
	// routine keeps A+/A/B+, complaint keeps C/D.
	TypeProxy models.InspectionType
	Title     string
	// Thumbnails loads photo bytes for inline images. Without it photos
	// carry metadata only.
	Thumbnails bool
}

// Generate builds a report over the inspections matching the filter, with
// each inspection's school and photo metadata loaded.
func (s *ReportService) Generate(ctx context.Context, filter ReportFilter) (*report.Report, error) {
	inspections, err := s.inspections.List(ctx, InspectionFilter{
		SchoolID:       filter.SchoolID,
		From:           filter.From,
		To:             filter.To,
		Rating:         filter.Rating,
		InspectionType: filter.InspectionType,
	})
	if err != nil {
		return nil, err
	}

	if proxy, ok := rating.ProxyRatings(filter.TypeProxy); ok {
		kept := inspections[:0]
		for _, in := range inspections {
			if containsRating(proxy, in.OverallRating) {
				kept = append(kept, in)
			}
		}
		inspections = kept
	}

	ids := make([]uuid.UUID, 0, len(inspections))
	for _, in := range inspections {
		ids = append(ids, in.ID)
	}
	photosByInspection, err := s.photos.ListByInspections(ctx, ids)
	if err != nil {
		return nil, err
	}

	entries := make([]report.Entry, 0, len(inspections))
	for _, in := range inspections {
		e := report.Entry{Inspection: in}
		if in.School != nil {
			e.SchoolName = in.School.Name
			e.SchoolLocation = in.School.Location
		}
		if photos := photosByInspection[in.ID]; len(photos) > 0 {
			if filter.Thumbnails {
				s.photos.LoadPayloads(ctx, photos)
			}
			e.Photos = photos
		}
		entries = append(entries, e)
	}

	scope, err := s.scope(ctx, filter)
	if err != nil {
		return nil, err
	}

	r := report.New(filter.Title, scope, entries, s.now())
	s.log.WithFields(logrus.Fields{
		"inspections": r.Summary.TotalInspections,
		"scope":       r.Scope,
	}).Info("report generated")
	return r, nil
}

func (s *ReportService) scope(ctx context.Context, filter ReportFilter) (string, error) {
	if filter.SchoolID == nil {
		return "", nil
	}

	var school models.School
	err := s.db.WithContext(ctx).Select("id", "name", "location").First(&school, "id = ?", *filter.SchoolID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", ErrSchoolNotFound
	}
	if err != nil {
		return "", persistence("load report school", err)
	}
	return report.Entry{SchoolName: school.Name, SchoolLocation: school.Location}.Location(), nil
}

func containsRating(set []models.Rating, r models.Rating) bool {
	for _, candidate := range set {
		if candidate == r {
			return true
		}
	}
	return false
}

// ReportDataFilter selects schools by rating and status and inspections by date.
type ReportDataFilter struct {
	Rating models.Rating
	Status models.SchoolStatus
	From   *time.Time
	To     *time.Time
}

type ReportDataSummary struct {
	TotalSchools     int     `json:"total_schools"`
	TotalInspections int     `json:"total_inspections"`
	AverageRating    float64 `json:"average_rating"`
}

type ReportData struct {
	Schools     []models.School     `json:"schools"`
	Inspections []models.Inspection `json:"inspections"`
	Summary     ReportDataSummary   `json:"summary"`
}

// ReportData returns the raw material behind the reports screen. The average
// is taken over the selected schools' current ratings.
func (s *ReportService) ReportData(ctx context.Context, filter ReportDataFilter) (*ReportData, error) {
	schools, err := (&SchoolService{db: s.db, log: s.log}).List(ctx, SchoolFilter{
		Rating: filter.Rating,
		Status: filter.Status,
	})
	if err != nil {
		return nil, err
	}

	inspections, err := s.inspections.List(ctx, InspectionFilter{From: filter.From, To: filter.To})
	if err != nil {
		return nil, err
	}

	ratings := make([]models.Rating, 0, len(schools))
	for _, school := range schools {
		ratings = append(ratings, school.Rating)
	}

	return &ReportData{
		Schools:     schools,
		Inspections: inspections,
		Summary: ReportDataSummary{
			TotalSchools:     len(schools),
			TotalInspections: len(inspections),
			AverageRating:    rating.Average(ratings),
		},
	}, nil
}
