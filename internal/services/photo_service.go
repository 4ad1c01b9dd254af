package services

import (
	"context"
	"errors"
	"fmt"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/school-food-safety/backend/internal/blob"
	"github.com/school-food-safety/backend/internal/models"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	filenameAlphabet   = "0123456789abcdefghijklmnopqrstuvwxyz"
	filenameSuffixSize = 8
)

var timestampReplacer = strings.NewReplacer(":", "-", ".", "-")

type PhotoService struct {
	db       *gorm.DB
	store    blob.Store
	log      *logrus.Logger
	root     string
	maxBytes int64
	now      func() time.Time
}

func NewPhotoService(db *gorm.DB, store blob.Store, log *logrus.Logger, root string, maxBytes int64) *PhotoService {
	return &PhotoService{
		db:       db,
		store:    store,
		log:      log,
		root:     root,
		maxBytes: maxBytes,
		now:      time.Now,
	}
}

// PhotoUpload is one file handed over by the upload layer.
type PhotoUpload struct {
	Data         []byte
	OriginalName string
	MimeType     string
	Caption      string
}

// PhotoAssociation ties a photo to a school and at most one of an
// inspection or a facility. With neither the photo is archived.
type PhotoAssociation struct {
	SchoolID     uuid.UUID
	InspectionID *uuid.UUID
	FacilityType *models.FacilityType
}

func (a PhotoAssociation) validate() error {
	verr := &ValidationError{}
	if a.SchoolID == uuid.Nil {
		verr.Fields = append(verr.Fields, FieldError{Field: "school_id", Reason: "is required"})
	}
	if a.InspectionID != nil && a.FacilityType != nil {
		verr.Fields = append(verr.Fields, FieldError{Field: "facility_type", Reason: "cannot be combined with inspection_id"})
	}
	if a.FacilityType != nil && !a.FacilityType.Valid() {
		verr.Fields = append(verr.Fields, FieldError{Field: "facility_type", Reason: "value \"" + string(*a.FacilityType) + "\" is not allowed"})
	}
	if len(verr.Fields) > 0 {
		return verr
	}
	return nil
}

// StoragePath builds root/school_<id>/{inspection_<id>|facility_<type>|archive}/<filename>.
func StoragePath(root string, a PhotoAssociation, filename string) string {
	var scope string
	switch {
	case a.InspectionID != nil:
		scope = "inspection_" + a.InspectionID.String()
	case a.FacilityType != nil:
		scope = "facility_" + string(*a.FacilityType)
	default:
		scope = "archive"
	}
	return path.Join(root, "school_"+a.SchoolID.String(), scope, filename)
}

// generateFilename returns "<ISO timestamp>_<random>.<ext>" with ':' and '.'
// in the timestamp replaced so it is safe on every filesystem.
func (s *PhotoService) generateFilename(originalName string, detected *mimetype.MIME) (string, error) {
	ts := timestampReplacer.Replace(s.now().UTC().Format("2006-01-02T15:04:05.000Z"))

	suffix, err := gonanoid.Generate(filenameAlphabet, filenameSuffixSize)
	if err != nil {
		return "", fmt.Errorf("generate filename suffix: %w", err)
	}

	ext := strings.ToLower(filepath.Ext(filepath.Base(originalName)))
	if ext == "" || ext == "." {
		ext = detected.Extension()
	}
	return ts + "_" + suffix + ext, nil
}

// Save stores the bytes and their metadata. When the photo belongs to an
// inspection that already exists a reference is appended to it; the
// inspection may also be saved later.
func (s *PhotoService) Save(ctx context.Context, upload PhotoUpload, assoc PhotoAssociation) (*models.Photo, error) {
	if err := assoc.validate(); err != nil {
		return nil, err
	}
	if err := s.checkInspectionSchool(ctx, assoc); err != nil {
		return nil, err
	}
	if len(upload.Data) == 0 {
		return nil, newValidationError("photo", "file is empty")
	}
	if int64(len(upload.Data)) > s.maxBytes {
		return nil, newValidationError("photo", fmt.Sprintf("file exceeds %d bytes", s.maxBytes))
	}

	detected := mimetype.Detect(upload.Data)
	if !strings.HasPrefix(detected.String(), "image/") {
		return nil, newValidationError("photo", "only image files are allowed, got "+detected.String())
	}

	filename, err := s.generateFilename(upload.OriginalName, detected)
	if err != nil {
		return nil, err
	}

	photo := &models.Photo{
		Filename:     filename,
		OriginalName: upload.OriginalName,
		StoragePath:  StoragePath(s.root, assoc, filename),
		SizeBytes:    int64(len(upload.Data)),
		MimeType:     detected.String(),
		UploadDate:   s.now().UTC(),
		SchoolID:     assoc.SchoolID,
		InspectionID: assoc.InspectionID,
		FacilityType: assoc.FacilityType,
		Caption:      strings.TrimSpace(upload.Caption),
	}

	if err := s.store.Put(ctx, photo.StoragePath, upload.Data, photo.MimeType); err != nil {
		return nil, persistence("store photo", err)
	}

	if err := s.db.WithContext(ctx).Create(photo).Error; err != nil {
		if cerr := s.store.Delete(ctx, photo.StoragePath); cerr != nil && !errors.Is(cerr, blob.ErrNotFound) {
			s.log.WithError(cerr).WithField("path", photo.StoragePath).Warn("failed to remove photo bytes after metadata error")
		}
		return nil, persistence("save photo", err)
	}

	if photo.InspectionID != nil {
		s.attachToInspection(ctx, photo)
	}

	photosUploaded.WithLabelValues(string(photo.Kind())).Inc()
	s.log.WithFields(logrus.Fields{
		"photo_id":  photo.ID,
		"school_id": photo.SchoolID,
		"kind":      photo.Kind(),
		"size":      photo.SizeBytes,
	}).Info("photo stored")

	photo.Payload = upload.Data
	return photo, nil
}

// checkInspectionSchool rejects an inspection id that belongs to another
// school. Unknown inspections pass: the photo may be uploaded first.
func (s *PhotoService) checkInspectionSchool(ctx context.Context, assoc PhotoAssociation) error {
	if assoc.InspectionID == nil {
		return nil
	}

	var inspection models.Inspection
	err := s.db.WithContext(ctx).Select("id", "school_id").First(&inspection, "id = ?", *assoc.InspectionID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return persistence("check photo inspection", err)
	}
	if inspection.SchoolID != assoc.SchoolID {
		return newValidationError("inspection_id", "belongs to a different school")
	}
	return nil
}

func (s *PhotoService) attachToInspection(ctx context.Context, photo *models.Photo) {
	fields := logrus.Fields{"photo_id": photo.ID, "inspection_id": *photo.InspectionID}

	ref := photo.Ref()
	found, err := s.updateInspectionPhotos(ctx, *photo.InspectionID, func(refs models.PhotoRefs) models.PhotoRefs {
		return append(refs.Without(ref.ID), ref)
	})
	switch {
	case err != nil:
		s.log.WithError(err).WithFields(fields).Warn("failed to add photo reference to inspection")
	case !found:
		s.log.WithFields(fields).Debug("photo stored ahead of its inspection")
	}
}

// updateInspectionPhotos rewrites an inspection's photo references while
// holding a row lock, so concurrent uploads to one inspection do not drop
// each other's reference. found is false when the inspection does not exist.
func (s *PhotoService) updateInspectionPhotos(ctx context.Context, inspectionID uuid.UUID, change func(models.PhotoRefs) models.PhotoRefs) (found bool, err error) {
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var inspection models.Inspection
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Select("id", "photos").
			First(&inspection, "id = ?", inspectionID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		found = true

		return tx.Model(&models.Inspection{}).
			Where("id = ?", inspectionID).
			Update("photos", change(inspection.Photos)).Error
	})
	return found, err
}

func (s *PhotoService) getMetadata(ctx context.Context, id uuid.UUID) (*models.Photo, error) {
	var photo models.Photo
	if err := s.db.WithContext(ctx).First(&photo, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPhotoNotFound
		}
		return nil, persistence("get photo", err)
	}
	return &photo, nil
}

// Get returns the photo with its payload.
func (s *PhotoService) Get(ctx context.Context, id uuid.UUID) (*models.Photo, error) {
	photo, err := s.getMetadata(ctx, id)
	if err != nil {
		return nil, err
	}

	data, err := s.store.Get(ctx, photo.StoragePath)
	if err != nil {
		return nil, persistence("load photo bytes", err)
	}
	photo.Payload = data
	return photo, nil
}

// LoadPayloads fills Payload on each photo. Missing bytes are logged and skipped.
func (s *PhotoService) LoadPayloads(ctx context.Context, photos []models.Photo) {
	for i := range photos {
		data, err := s.store.Get(ctx, photos[i].StoragePath)
		if err != nil {
			s.log.WithError(err).WithField("photo_id", photos[i].ID).Warn("photo bytes unavailable")
			continue
		}
		photos[i].Payload = data
	}
}

// Delete removes the bytes, the metadata and the inspection's reference.
func (s *PhotoService) Delete(ctx context.Context, id uuid.UUID) error {
	photo, err := s.getMetadata(ctx, id)
	if err != nil {
		return err
	}

	if err := s.store.Delete(ctx, photo.StoragePath); err != nil && !errors.Is(err, blob.ErrNotFound) {
		return persistence("delete photo bytes", err)
	}

	res := s.db.WithContext(ctx).Delete(&models.Photo{}, "id = ?", id)
	if res.Error != nil {
		return persistence("delete photo", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrPhotoNotFound
	}
	photosDeleted.Inc()

	if photo.InspectionID != nil {
		s.detachFromInspection(ctx, *photo.InspectionID, photo.ID)
	}

	s.log.WithField("photo_id", id).Info("photo deleted")
	return nil
}

func (s *PhotoService) detachFromInspection(ctx context.Context, inspectionID, photoID uuid.UUID) {
	_, err := s.updateInspectionPhotos(ctx, inspectionID, func(refs models.PhotoRefs) models.PhotoRefs {
		return refs.Without(photoID)
	})
	if err != nil {
		s.log.WithError(err).WithFields(logrus.Fields{
			"photo_id":      photoID,
			"inspection_id": inspectionID,
		}).Warn("failed to remove photo reference from inspection")
	}
}

// ListByAssociation returns a school's photos, newest first. With an
// inspection id it returns that inspection's photos plus the school's
// facility photos.
func (s *PhotoService) ListByAssociation(ctx context.Context, schoolID uuid.UUID, inspectionID *uuid.UUID) ([]models.Photo, error) {
	q := s.db.WithContext(ctx).Where("school_id = ?", schoolID)
	if inspectionID != nil {
		q = q.Where("(inspection_id = ? OR facility_type IS NOT NULL)", *inspectionID)
	}

	var photos []models.Photo
	if err := q.Order("upload_date DESC").Find(&photos).Error; err != nil {
		return nil, persistence("list photos", err)
	}
	return photos, nil
}

// ListByInspections groups the photos of the given inspections by inspection id.
func (s *PhotoService) ListByInspections(ctx context.Context, inspectionIDs []uuid.UUID) (map[uuid.UUID][]models.Photo, error) {
	out := make(map[uuid.UUID][]models.Photo)
	if len(inspectionIDs) == 0 {
		return out, nil
	}

	var photos []models.Photo
	err := s.db.WithContext(ctx).
		Where("inspection_id IN ?", inspectionIDs).
		Order("upload_date ASC").
		Find(&photos).Error
	if err != nil {
		return nil, persistence("list inspection photos", err)
	}

	for _, p := range photos {
		out[*p.InspectionID] = append(out[*p.InspectionID], p)
	}
	return out, nil
}

// CountByKind tallies a school's photos by classification.
func CountByKind(photos []models.Photo) map[models.PhotoKind]int {
	counts := map[models.PhotoKind]int{
		models.PhotoKindInspection: 0,
		models.PhotoKindFacility:   0,
		models.PhotoKindArchive:    0,
	}
	for i := range photos {
		counts[photos[i].Kind()]++
	}
	return counts
}

// ListOrphans returns inspection photos uploaded before the cutoff whose
// inspection no longer exists. Nothing deletes them automatically.
func (s *PhotoService) ListOrphans(ctx context.Context, uploadedBefore time.Time) ([]models.Photo, error) {
	db := s.db.WithContext(ctx)

	var photos []models.Photo
	err := db.
		Where("inspection_id IS NOT NULL").
		Where("inspection_id NOT IN (?)", db.Model(&models.Inspection{}).Select("id")).
		Where("upload_date < ?", uploadedBefore.UTC()).
		Order("upload_date ASC").
		Find(&photos).Error
	if err != nil {
		return nil, persistence("list orphan photos", err)
	}
	return photos, nil
}
