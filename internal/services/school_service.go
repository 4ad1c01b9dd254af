package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/school-food-safety/backend/internal/models"
	"github.com/school-food-safety/backend/internal/rating"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const (
	DefaultOwner        = "Karnataka Education Department"
	defaultAddressState = "Karnataka"
)

type SchoolService struct {
	db  *gorm.DB
	log *logrus.Logger
}

func NewSchoolService(db *gorm.DB, log *logrus.Logger) *SchoolService {
	return &SchoolService{db: db, log: log}
}

type SchoolFilter struct {
	Rating models.Rating
	Status models.SchoolStatus
	Level  models.AdminLevel
	// Search matches name, owner or location, case-insensitively.
	Search string
}

// SchoolPatch carries a partial update. Nil fields are left unchanged.
type SchoolPatch struct {
	Name           *string                `json:"name"`
	Type           *models.SchoolType     `json:"type"`
	Owner          *string                `json:"owner"`
	Location       *string                `json:"location"`
	Phone          *string                `json:"phone"`
	Email          *string                `json:"email"`
	LicenseNumber  *string                `json:"license_number"`
	Category       *models.SchoolCategory `json:"category"`
	Level          *models.AdminLevel     `json:"level"`
	Rating         *models.Rating         `json:"rating"`
	Status         *models.SchoolStatus   `json:"status"`
	LastInspection *time.Time             `json:"last_inspection"`
	NextInspection *time.Time             `json:"next_inspection"`
	Violations     *int                   `json:"violations"`
	StudentCount   *int                   `json:"student_count"`
	PrincipalName  *string                `json:"principal_name"`
	Address        *models.Address        `json:"address"`
	Facilities     *models.Facilities     `json:"facilities"`
}

func (p SchoolPatch) apply(s *models.School) {
	setString(&s.Name, p.Name)
	setString(&s.Owner, p.Owner)
	setString(&s.Location, p.Location)
	setString(&s.Phone, p.Phone)
	setString(&s.Email, p.Email)
	setString(&s.LicenseNumber, p.LicenseNumber)
	setString(&s.PrincipalName, p.PrincipalName)
	if p.Type != nil {
		s.Type = *p.Type
	}
	if p.Category != nil {
		s.Category = *p.Category
	}
	if p.Level != nil {
		s.Level = *p.Level
	}
	if p.Rating != nil {
		s.Rating = *p.Rating
	}
	if p.Status != nil {
		s.Status = *p.Status
	}
	if p.LastInspection != nil {
		s.LastInspection = p.LastInspection
	}
	if p.NextInspection != nil {
		s.NextInspection = p.NextInspection
	}
	if p.Violations != nil {
		s.Violations = *p.Violations
	}
	if p.StudentCount != nil {
		s.StudentCount = *p.StudentCount
	}
	if p.Address != nil {
		s.Address = *p.Address
	}
	if p.Facilities != nil {
		s.Facilities = *p.Facilities
	}
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

func normalizeSchool(s *models.School) {
	s.Name = strings.TrimSpace(s.Name)
	s.Owner = strings.TrimSpace(s.Owner)
	s.Location = strings.TrimSpace(s.Location)
	s.Phone = strings.TrimSpace(s.Phone)
	s.Email = strings.ToLower(strings.TrimSpace(s.Email))
	s.LicenseNumber = strings.TrimSpace(s.LicenseNumber)

	if s.Owner == "" {
		s.Owner = DefaultOwner
	}
	if s.Rating == "" {
		s.Rating = models.RatingB
	}
	if s.Status == "" {
		s.Status = models.SchoolStatusActive
	}
	if s.Address != (models.Address{}) && s.Address.State == "" {
		s.Address.State = defaultAddressState
	}
	for i := range s.Facilities {
		if s.Facilities[i].Status == "" {
			s.Facilities[i].Status = models.FacilityAvailable
		}
	}
}

func (s *SchoolService) Create(ctx context.Context, school *models.School) (*models.School, error) {
	school.ID = uuid.Nil
	normalizeSchool(school)
	if err := validateStruct(school); err != nil {
		return nil, err
	}

	if err := s.db.WithContext(ctx).Create(school).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrDuplicateLicense
		}
		return nil, persistence("create school", err)
	}

	s.log.WithFields(logrus.Fields{
		"school_id": school.ID,
		"license":   school.LicenseNumber,
	}).Info("school created")

	return school, nil
}

func (s *SchoolService) Get(ctx context.Context, id uuid.UUID) (*models.School, error) {
	var school models.School
	if err := s.db.WithContext(ctx).First(&school, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSchoolNotFound
		}
		return nil, persistence("get school", err)
	}
	return &school, nil
}

// List returns schools newest first.
func (s *SchoolService) List(ctx context.Context, filter SchoolFilter) ([]models.School, error) {
	if filter.Rating != "" && !filter.Rating.Valid() {
		return nil, newValidationError("rating", "value \""+string(filter.Rating)+"\" is not allowed")
	}
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, newValidationError("status", "value \""+string(filter.Status)+"\" is not allowed")
	}
	if filter.Level != "" && !filter.Level.Valid() {
		return nil, newValidationError("level", "value \""+string(filter.Level)+"\" is not allowed")
	}

	q := s.db.WithContext(ctx).Model(&models.School{})
	if filter.Rating != "" {
		q = q.Where("rating = ?", filter.Rating)
	}
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	if filter.Level != "" {
		q = q.Where("level = ?", filter.Level)
	}
	if term := strings.ToLower(strings.TrimSpace(filter.Search)); term != "" {
		like := "%" + term + "%"
		q = q.Where("(LOWER(name) LIKE ? OR LOWER(owner) LIKE ? OR LOWER(location) LIKE ?)", like, like, like)
	}

	var schools []models.School
	if err := q.Order("created_at DESC").Find(&schools).Error; err != nil {
		return nil, persistence("list schools", err)
	}
	return schools, nil
}

// Update applies a partial update. Concurrent updates are last-writer-wins.
func (s *SchoolService) Update(ctx context.Context, id uuid.UUID, patch SchoolPatch) (*models.School, error) {
	school, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	patch.apply(school)
	normalizeSchool(school)
	if err := validateStruct(school); err != nil {
		return nil, err
	}

	if err := s.db.WithContext(ctx).Save(school).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrDuplicateLicense
		}
		return nil, persistence("update school", err)
	}
	return school, nil
}

// Delete removes the school only. Its inspections and photos are kept.
func (s *SchoolService) Delete(ctx context.Context, id uuid.UUID) error {
	res := s.db.WithContext(ctx).Delete(&models.School{}, "id = ?", id)
	if res.Error != nil {
		return persistence("delete school", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrSchoolNotFound
	}

	s.log.WithField("school_id", id).Info("school deleted")
	return nil
}

type LevelGroup struct {
	Level   models.AdminLevel `json:"level"`
	Schools []models.School   `json:"schools"`
}

// GroupByLevel buckets schools by administrative level, each bucket ordered
// by rating then name. Schools without a level are grouped last under "".
func GroupByLevel(schools []models.School) []LevelGroup {
	buckets := make(map[models.AdminLevel][]models.School)
	for _, school := range schools {
		level := school.Level
		if !level.Valid() {
			level = ""
		}
		buckets[level] = append(buckets[level], school)
	}

	groups := make([]LevelGroup, 0, len(models.AdminLevels)+1)
	for _, level := range append(append([]models.AdminLevel{}, models.AdminLevels...), "") {
		members, ok := buckets[level]
		if !ok && level == "" {
			continue
		}
		rating.SortSchools(members)
		if members == nil {
			members = []models.School{}
		}
		groups = append(groups, LevelGroup{Level: level, Schools: members})
	}
	return groups
}
