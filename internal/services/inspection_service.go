package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/school-food-safety/backend/internal/models"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type InspectionService struct {
	db  *gorm.DB
	log *logrus.Logger
	now func() time.Time
}

func NewInspectionService(db *gorm.DB, log *logrus.Logger) *InspectionService {
	return &InspectionService{db: db, log: log, now: time.Now}
}

type InspectionFilter struct {
	SchoolID *uuid.UUID
	// From and To bound the inspection date, both inclusive.
	From           *time.Time
	To             *time.Time
	Rating         models.Rating
	Status         models.InspectionStatus
	InspectionType models.InspectionType
}

func (f InspectionFilter) validate() error {
	if f.Rating != "" && !f.Rating.Valid() {
		return newValidationError("rating", "value \""+string(f.Rating)+"\" is not allowed")
	}
	if f.Status != "" && !f.Status.Valid() {
		return newValidationError("status", "value \""+string(f.Status)+"\" is not allowed")
	}
	if f.InspectionType != "" && !f.InspectionType.Valid() {
		return newValidationError("inspection_type", "value \""+string(f.InspectionType)+"\" is not allowed")
	}
	if f.From != nil && f.To != nil && f.To.Before(*f.From) {
		return newValidationError("end_date", "must not be before start_date")
	}
	return nil
}

func (f InspectionFilter) apply(q *gorm.DB) *gorm.DB {
	if f.SchoolID != nil {
		q = q.Where("school_id = ?", *f.SchoolID)
	}
	if f.From != nil {
		q = q.Where("inspection_date >= ?", f.From.UTC())
	}
	if f.To != nil {
		q = q.Where("inspection_date <= ?", f.To.UTC())
	}
	if f.Rating != "" {
		q = q.Where("overall_rating = ?", f.Rating)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.InspectionType != "" {
		q = q.Where("inspection_type = ?", f.InspectionType)
	}
	return q
}

func preloadSchoolSummary(db *gorm.DB) *gorm.DB {
	return db.Select("id", "name", "location")
}

// prepare fills defaults and validates the inspection. With checkSchool the
// referenced school must also exist. It never writes.
func (s *InspectionService) prepare(db *gorm.DB, in *models.Inspection, checkSchool bool) error {
	in.InspectorName = strings.TrimSpace(in.InspectorName)
	if in.InspectionDate.IsZero() {
		in.InspectionDate = s.now()
	}
	in.InspectionDate = in.InspectionDate.UTC()
	if in.InspectionType == "" {
		in.InspectionType = models.InspectionRoutine
	}
	if in.Status == "" {
		in.Status = models.InspectionCompleted
	}
	for i := range in.ViolationsList {
		if in.ViolationsList[i].Severity == "" {
			in.ViolationsList[i].Severity = models.SeverityMedium
		}
	}
	if in.ViolationsList == nil {
		in.ViolationsList = models.ViolationDetails{}
	}
	if in.Photos == nil {
		in.Photos = models.PhotoRefs{}
	}

	if err := validateStruct(in); err != nil {
		return err
	}
	if !checkSchool {
		return nil
	}

	var count int64
	if err := db.Model(&models.School{}).Where("id = ?", in.SchoolID).Count(&count).Error; err != nil {
		return persistence("check school", err)
	}
	if count == 0 {
		return newValidationError("school_id", "does not reference an existing school")
	}
	return nil
}

// syncSchool copies the inspection outcome onto its school.
func syncSchool(db *gorm.DB, in *models.Inspection) error {
	res := db.Model(&models.School{}).Where("id = ?", in.SchoolID).Updates(map[string]interface{}{
		"rating":          in.OverallRating,
		"last_inspection": in.InspectionDate,
		"violations":      len(in.ViolationsList),
	})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrSchoolNotFound
	}
	return nil
}

// Create stores the inspection and then updates the referenced school's
// rating, last inspection date and violation count. The school update is
// best effort: when it fails the inspection stays saved and a
// SchoolSyncWarning is returned alongside it.
func (s *InspectionService) Create(ctx context.Context, in *models.Inspection) (*models.Inspection, *SchoolSyncWarning, error) {
	db := s.db.WithContext(ctx)

	in.ID = uuid.Nil
	in.School = nil
	if err := s.prepare(db, in, true); err != nil {
		return nil, nil, err
	}

	if err := db.Omit(clause.Associations).Create(in).Error; err != nil {
		return nil, nil, persistence("create inspection", err)
	}
	inspectionsCreated.Inc()

	fields := logrus.Fields{
		"inspection_id": in.ID,
		"school_id":     in.SchoolID,
		"rating":        in.OverallRating,
	}

	if err := syncSchool(db, in); err != nil {
		schoolSyncFailures.Inc()
		s.log.WithError(err).WithFields(fields).Warn("inspection saved but school update failed")
		return in, &SchoolSyncWarning{InspectionID: in.ID, SchoolID: in.SchoolID, Err: err}, nil
	}

	s.log.WithFields(fields).Info("inspection created")
	return in, nil, nil
}

// CreateAtomic is the transactional form of Create: the inspection and the
// school update commit together or not at all.
func (s *InspectionService) CreateAtomic(ctx context.Context, in *models.Inspection) (*models.Inspection, error) {
	in.ID = uuid.Nil
	in.School = nil

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.prepare(tx, in, true); err != nil {
			return err
		}
		if err := tx.Omit(clause.Associations).Create(in).Error; err != nil {
			return persistence("create inspection", err)
		}
		if err := syncSchool(tx, in); err != nil {
			return persistence("update school", err)
		}
		return nil
	})
	if err != nil {
		in.ID = uuid.Nil
		return nil, err
	}

	inspectionsCreated.Inc()
	s.log.WithFields(logrus.Fields{
		"inspection_id": in.ID,
		"school_id":     in.SchoolID,
	}).Info("inspection created atomically")
	return in, nil
}

// Get returns the inspection with its school's name and location.
func (s *InspectionService) Get(ctx context.Context, id uuid.UUID) (*models.Inspection, error) {
	var inspection models.Inspection
	err := s.db.WithContext(ctx).
		Preload("School", preloadSchoolSummary).
		First(&inspection, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInspectionNotFound
		}
		return nil, persistence("get inspection", err)
	}
	return &inspection, nil
}

// ListBySchool returns a school's inspections, most recent first.
func (s *InspectionService) ListBySchool(ctx context.Context, schoolID uuid.UUID) ([]models.Inspection, error) {
	return s.List(ctx, InspectionFilter{SchoolID: &schoolID})
}

// List returns inspections matching the filter, most recent first.
func (s *InspectionService) List(ctx context.Context, filter InspectionFilter) ([]models.Inspection, error) {
	if err := filter.validate(); err != nil {
		return nil, err
	}

	q := filter.apply(s.db.WithContext(ctx).Model(&models.Inspection{}))

	var inspections []models.Inspection
	err := q.Preload("School", preloadSchoolSummary).
		Order("inspection_date DESC").
		Find(&inspections).Error
	if err != nil {
		return nil, persistence("list inspections", err)
	}
	return inspections, nil
}

// Update replaces the inspection's editable fields. Photo references are
// kept unless the update carries its own list. The school is not touched.
func (s *InspectionService) Update(ctx context.Context, id uuid.UUID, in *models.Inspection) (*models.Inspection, error) {
	db := s.db.WithContext(ctx)

	var existing models.Inspection
	if err := db.First(&existing, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInspectionNotFound
		}
		return nil, persistence("get inspection", err)
	}

	in.ID = existing.ID
	in.CreatedAt = existing.CreatedAt
	in.School = nil
	if in.Photos == nil {
		in.Photos = existing.Photos
	}
	if in.InspectionDate.IsZero() {
		in.InspectionDate = existing.InspectionDate
	}

	// the school may be gone already; only a changed reference is checked
	if err := s.prepare(db, in, in.SchoolID != existing.SchoolID); err != nil {
		return nil, err
	}

	if err := db.Omit(clause.Associations).Save(in).Error; err != nil {
		return nil, persistence("update inspection", err)
	}
	return in, nil
}

// Delete removes the inspection. Its photos are left in place.
func (s *InspectionService) Delete(ctx context.Context, id uuid.UUID) error {
	res := s.db.WithContext(ctx).Delete(&models.Inspection{}, "id = ?", id)
	if res.Error != nil {
		return persistence("delete inspection", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrInspectionNotFound
	}

	s.log.WithField("inspection_id", id).Info("inspection deleted")
	return nil
}
