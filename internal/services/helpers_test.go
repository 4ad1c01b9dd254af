package services

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"io"
	"testing"
	"time"

	"github.com/school-food-safety/backend/internal/blob"
	"github.com/school-food-safety/backend/internal/config"
	"github.com/school-food-safety/backend/internal/database"
	"github.com/school-food-safety/backend/internal/models"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.Open(config.DriverSQLite, ":memory:", nil)
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

func newTestLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

type testEnv struct {
	db          *gorm.DB
	store       *blob.LocalStore
	schools     *SchoolService
	inspections *InspectionService
	photos      *PhotoService
	reports     *ReportService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := newTestDB(t)
	log := newTestLogger()
	store := blob.NewLocalStore(t.TempDir())

	inspections := NewInspectionService(db, log)
	photos := NewPhotoService(db, store, log, "inspectPhotos", 1<<20)
	return &testEnv{
		db:          db,
		store:       store,
		schools:     NewSchoolService(db, log),
		inspections: inspections,
		photos:      photos,
		reports:     NewReportService(db, inspections, photos, log),
	}
}

func sampleSchool(license string) *models.School {
	return &models.School{
		Name:          "Government Primary School " + license,
		Type:          models.SchoolTypeGovernment,
		Location:      "Mysuru",
		Phone:         "0821-2345678",
		Email:         "GPS@Example.org",
		LicenseNumber: license,
		Category:      models.CategoryPrimary,
		Level:         models.LevelDistrict,
	}
}

func mustCreateSchool(t *testing.T, env *testEnv, license string) *models.School {
	t.Helper()
	school, err := env.schools.Create(t.Context(), sampleSchool(license))
	require.NoError(t, err)
	return school
}

func sampleInspection(school *models.School, r models.Rating) *models.Inspection {
	return &models.Inspection{
		SchoolID:       school.ID,
		InspectorName:  "Officer Rao",
		InspectionDate: time.Date(2024, 3, 14, 10, 0, 0, 0, time.UTC),
		OverallRating:  r,
		Findings:       "Kitchen clean; Food stored properly",
	}
}

func pngImage(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 64, 48))
	for x := 0; x < 64; x++ {
		for y := 0; y < 48; y++ {
			img.Set(x, y, color.RGBA{R: 40, G: uint8(y * 4), B: uint8(x * 3), A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}
