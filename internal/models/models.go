package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// JSONB custom type for JSON fields
type JSONB map[string]interface{}

func (j JSONB) Value() (driver.Value, error) {
	return marshalColumn(j)
}

func (j *JSONB) Scan(value interface{}) error {
	if value == nil {
		*j = make(JSONB)
		return nil
	}
	return unmarshalColumn(value, j)
}

// marshalColumn encodes v as a JSON string so the same column works on
// postgres, mysql and sqlite.
func marshalColumn(v interface{}) (driver.Value, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func unmarshalColumn(value interface{}, dest interface{}) error {
	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported JSON column type %T", value)
	}
	if len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, dest)
}

// Base model with UUID. Deletes are hard deletes.
type BaseModel struct {
	ID        uuid.UUID `gorm:"type:char(36);primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (b *BaseModel) BeforeCreate(tx *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}

// School is a government or aided institution subject to food-safety inspection.
type School struct {
	BaseModel
	Name           string         `gorm:"type:varchar(255);not null" json:"name" validate:"required"`
	Type           SchoolType     `gorm:"type:varchar(30);not null" json:"type" validate:"required,enum"`
	Owner          string         `gorm:"type:varchar(255);not null;default:'Karnataka Education Department'" json:"owner" validate:"required"`
	Location       string         `gorm:"type:varchar(255);not null" json:"location" validate:"required"`
	Phone          string         `gorm:"type:varchar(50);not null" json:"phone" validate:"required"`
	Email          string         `gorm:"type:varchar(255);not null" json:"email" validate:"required,email"`
	LicenseNumber  string         `gorm:"type:varchar(100);uniqueIndex;not null" json:"license_number" validate:"required"`
	Category       SchoolCategory `gorm:"type:varchar(30);not null" json:"category" validate:"required,enum"`
	Level          AdminLevel     `gorm:"type:varchar(30)" json:"level,omitempty" validate:"omitempty,enum"`
	Rating         Rating         `gorm:"type:varchar(2);not null;default:'B';index" json:"rating" validate:"required,enum"`
	Status         SchoolStatus   `gorm:"type:varchar(20);not null;default:'Active';index" json:"status" validate:"required,enum"`
	LastInspection *time.Time     `json:"last_inspection,omitempty"`
	NextInspection *time.Time     `json:"next_inspection,omitempty"`
	Violations     int            `gorm:"not null;default:0" json:"violations" validate:"gte=0"`
	StudentCount   int            `gorm:"not null;default:0" json:"student_count" validate:"gte=0"`
	PrincipalName  string         `gorm:"type:varchar(255)" json:"principal_name,omitempty"`
	Address        Address        `gorm:"embedded;embeddedPrefix:address_" json:"address"`
	Facilities     Facilities     `gorm:"type:json" json:"facilities,omitempty" validate:"dive"`
}

type Address struct {
	Street  string `gorm:"type:varchar(255)" json:"street,omitempty"`
	City    string `gorm:"type:varchar(100)" json:"city,omitempty"`
	State   string `gorm:"type:varchar(100)" json:"state,omitempty"`
	Pincode string `gorm:"type:varchar(20)" json:"pincode,omitempty"`
}

type Facility struct {
	Name   string         `json:"name" validate:"required"`
	Status FacilityStatus `json:"status" validate:"omitempty,enum"`
}

type Facilities []Facility

func (f Facilities) Value() (driver.Value, error) {
	if f == nil {
		return marshalColumn([]Facility{})
	}
	return marshalColumn([]Facility(f))
}

func (f *Facilities) Scan(value interface{}) error {
	if value == nil {
		*f = nil
		return nil
	}
	return unmarshalColumn(value, f)
}

// Inspection is one dated food-safety assessment of a school.
type Inspection struct {
	BaseModel
	SchoolID             uuid.UUID        `gorm:"type:char(36);not null;index:idx_inspections_school_date,priority:1" json:"school_id" validate:"required"`
	InspectorName        string           `gorm:"type:varchar(255);not null" json:"inspector_name" validate:"required"`
	InspectionDate       time.Time        `gorm:"not null;index:idx_inspections_school_date,priority:2,sort:desc" json:"inspection_date"`
	InspectionType       InspectionType   `gorm:"type:varchar(20);not null;default:'routine'" json:"inspection_type" validate:"required,enum"`
	OverallRating        Rating           `gorm:"type:varchar(2);not null;index" json:"overall_rating" validate:"required,enum"`
	Findings             string           `gorm:"type:text" json:"findings"`
	Violations           string           `gorm:"type:text" json:"violations"`
	Recommendations      string           `gorm:"type:text" json:"recommendations"`
	ViolationsList       ViolationDetails `gorm:"type:json" json:"violations_list" validate:"dive"`
	Categories           CategoryRatings  `gorm:"type:json" json:"categories"`
	FollowUpRequired     bool             `gorm:"not null" json:"follow_up_required"`
	FollowUpDate         *time.Time       `json:"follow_up_date,omitempty"`
	Status               InspectionStatus `gorm:"type:varchar(20);not null;default:'Completed';index" json:"status" validate:"required,enum"`
	Photos               PhotoRefs        `gorm:"type:json" json:"photos"`
	InspectorSignature   string           `gorm:"type:varchar(255)" json:"inspector_signature,omitempty"`
	SchoolRepresentative string           `gorm:"type:varchar(255)" json:"school_representative,omitempty"`
	School               *School          `gorm:"foreignKey:SchoolID" json:"school,omitempty" validate:"-"`
}

type ViolationDetail struct {
	Category           string     `json:"category"`
	Description        string     `json:"description"`
	Severity           Severity   `json:"severity" validate:"omitempty,enum"`
	CorrectionRequired bool       `json:"correction_required"`
	Deadline           *time.Time `json:"deadline,omitempty"`
}

type ViolationDetails []ViolationDetail

func (v ViolationDetails) Value() (driver.Value, error) {
	if v == nil {
		return marshalColumn([]ViolationDetail{})
	}
	return marshalColumn([]ViolationDetail(v))
}

func (v *ViolationDetails) Scan(value interface{}) error {
	if value == nil {
		*v = nil
		return nil
	}
	return unmarshalColumn(value, v)
}

type CategoryRating struct {
	Rating Rating `json:"rating" validate:"required,enum"`
	Notes  string `json:"notes,omitempty"`
}

// CategoryRatings is the optional per-area breakdown of an inspection.
type CategoryRatings struct {
	KitchenHygiene    *CategoryRating `json:"kitchen_hygiene,omitempty" validate:"omitempty"`
	FoodQuality       *CategoryRating `json:"food_quality,omitempty" validate:"omitempty"`
	StorageConditions *CategoryRating `json:"storage_conditions,omitempty" validate:"omitempty"`
	StaffHygiene      *CategoryRating `json:"staff_hygiene,omitempty" validate:"omitempty"`
	Documentation     *CategoryRating `json:"documentation,omitempty" validate:"omitempty"`
}

func (c CategoryRatings) Value() (driver.Value, error) {
	return marshalColumn(c)
}

func (c *CategoryRatings) Scan(value interface{}) error {
	if value == nil {
		*c = CategoryRatings{}
		return nil
	}
	return unmarshalColumn(value, c)
}

// PhotoRef is the lightweight copy of a Photo kept on its inspection.
type PhotoRef struct {
	ID           uuid.UUID `json:"id"`
	Filename     string    `json:"filename"`
	OriginalName string    `json:"original_name"`
	Path         string    `json:"path"`
	Size         int64     `json:"size"`
	UploadDate   time.Time `json:"upload_date"`
}

type PhotoRefs []PhotoRef

func (p PhotoRefs) Value() (driver.Value, error) {
	if p == nil {
		return marshalColumn([]PhotoRef{})
	}
	return marshalColumn([]PhotoRef(p))
}

func (p *PhotoRefs) Scan(value interface{}) error {
	if value == nil {
		*p = nil
		return nil
	}
	return unmarshalColumn(value, p)
}

// Without returns the refs minus the one with the given id.
func (p PhotoRefs) Without(id uuid.UUID) PhotoRefs {
	out := make(PhotoRefs, 0, len(p))
	for _, ref := range p {
		if ref.ID != id {
			out = append(out, ref)
		}
	}
	return out
}

// Photo is image evidence stored under a school, optionally tied to an
// inspection or a named facility. Payload bytes live in blob storage.
type Photo struct {
	BaseModel
	Filename     string        `gorm:"type:varchar(255);not null" json:"filename"`
	OriginalName string        `gorm:"type:varchar(255)" json:"original_name"`
	StoragePath  string        `gorm:"type:varchar(500);uniqueIndex;not null" json:"storage_path"`
	SizeBytes    int64         `gorm:"not null" json:"size_bytes"`
	MimeType     string        `gorm:"type:varchar(100)" json:"mime_type"`
	UploadDate   time.Time     `gorm:"not null" json:"upload_date"`
	SchoolID     uuid.UUID     `gorm:"type:char(36);not null;index:idx_photos_school_inspection,priority:1" json:"school_id"`
	InspectionID *uuid.UUID    `gorm:"type:char(36);index:idx_photos_school_inspection,priority:2;index" json:"inspection_id,omitempty"`
	FacilityType *FacilityType `gorm:"type:varchar(20)" json:"facility_type,omitempty"`
	Caption      string        `gorm:"type:varchar(500)" json:"caption,omitempty"`
	Payload      []byte        `gorm:"-" json:"payload,omitempty"`
}

type PhotoKind string

const (
	PhotoKindInspection PhotoKind = "inspection"
	PhotoKindFacility   PhotoKind = "facility"
	PhotoKindArchive    PhotoKind = "archive"
)

// Kind classifies a photo: inspection id wins over facility type, anything else is archive.
func (p *Photo) Kind() PhotoKind {
	switch {
	case p.InspectionID != nil:
		return PhotoKindInspection
	case p.FacilityType != nil:
		return PhotoKindFacility
	default:
		return PhotoKindArchive
	}
}

func (p *Photo) Ref() PhotoRef {
	return PhotoRef{
		ID:           p.ID,
		Filename:     p.Filename,
		OriginalName: p.OriginalName,
		Path:         p.StoragePath,
		Size:         p.SizeBytes,
		UploadDate:   p.UploadDate,
	}
}

// User is a portal account. Roles come from the demo credential list.
type User struct {
	BaseModel
	Username     string `gorm:"type:varchar(100);uniqueIndex;not null" json:"username"`
	Email        string `gorm:"type:varchar(255)" json:"email,omitempty"`
	PasswordHash string `gorm:"type:varchar(255);not null" json:"-"`
	Role         Role   `gorm:"type:varchar(20);not null" json:"role"`
	FullName     string `gorm:"type:varchar(255);not null" json:"full_name"`
	IsActive     bool   `gorm:"not null" json:"is_active"`
}

// AuditLog tracks all data changes
type AuditLog struct {
	ID           uuid.UUID `gorm:"type:char(36);primaryKey" json:"id"`
	ActorUserID  uuid.UUID `gorm:"type:char(36);index" json:"actor_user_id"`
	Action       string    `gorm:"type:varchar(50);not null" json:"action"`
	ResourceType string    `gorm:"type:varchar(50);not null;index" json:"resource_type"`
	ResourceID   uuid.UUID `gorm:"type:char(36);index" json:"resource_id"`
	Before       JSONB     `gorm:"type:json" json:"before"`
	After        JSONB     `gorm:"type:json" json:"after"`
	Timestamp    time.Time `gorm:"autoCreateTime;index" json:"timestamp"`
	IP           string    `gorm:"type:varchar(45)" json:"ip"`
}

func (a *AuditLog) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}

// RefreshToken stores refresh tokens for revocation
type RefreshToken struct {
	ID        uuid.UUID `gorm:"type:char(36);primaryKey" json:"id"`
	UserID    uuid.UUID `gorm:"type:char(36);not null;index" json:"user_id"`
	Token     string    `gorm:"type:varchar(700);uniqueIndex;not null" json:"token"`
	ExpiresAt time.Time `gorm:"not null;index" json:"expires_at"`
	Revoked   bool      `gorm:"not null;index" json:"revoked"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (r *RefreshToken) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}
