package services

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/school-food-safety/backend/internal/models"
	"github.com/school-food-safety/backend/internal/report"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func failSchoolUpdates(t *testing.T, db *gorm.DB) {
	t.Helper()
	err := db.Callback().Update().Before("gorm:update").Register("test:fail_school_update", func(tx *gorm.DB) {
		if tx.Statement.Table == "schools" {
			tx.AddError(errors.New("school store unavailable"))
		}
	})
	require.NoError(t, err)
}

func TestCreateInspectionUpdatesSchool(t *testing.T) {
	env := newTestEnv(t)

	s := sampleSchool("KGS-001")
	s.Name = "Test Primary"
	s.Rating = models.RatingB
	school, err := env.schools.Create(t.Context(), s)
	require.NoError(t, err)

	in, warning, err := env.inspections.Create(t.Context(), &models.Inspection{
		SchoolID:       school.ID,
		InspectorName:  "Officer Rao",
		OverallRating:  models.RatingA,
		ViolationsList: models.ViolationDetails{},
	})
	require.NoError(t, err)
	assert.Nil(t, warning)
	assert.NotEqual(t, uuid.Nil, in.ID)
	assert.Equal(t, models.InspectionRoutine, in.InspectionType)
	assert.Equal(t, models.InspectionCompleted, in.Status)
	assert.False(t, in.InspectionDate.IsZero())

	updated, err := env.schools.Get(t.Context(), school.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RatingA, updated.Rating)
	assert.Equal(t, 0, updated.Violations)
	require.NotNil(t, updated.LastInspection)
	assert.WithinDuration(t, in.InspectionDate, *updated.LastInspection, time.Second)

	summary := report.Summarize([]report.Entry{{Inspection: *in}})
	assert.Equal(t, 100.0, summary.ComplianceRate)
}

func TestCreateInspectionCountsViolations(t *testing.T) {
	env := newTestEnv(t)
	school := mustCreateSchool(t, env, "V-1")

	in := sampleInspection(school, models.RatingC)
	in.ViolationsList = models.ViolationDetails{
		{Category: "storage", Description: "Expired milk"},
		{Category: "hygiene", Description: "No hairnets", Severity: models.SeverityHigh},
	}
	created, _, err := env.inspections.Create(t.Context(), in)
	require.NoError(t, err)
	assert.Equal(t, models.SeverityMedium, created.ViolationsList[0].Severity)
	assert.Equal(t, models.SeverityHigh, created.ViolationsList[1].Severity)

	updated, err := env.schools.Get(t.Context(), school.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RatingC, updated.Rating)
	assert.Equal(t, 2, updated.Violations)
}

func TestCreateInspectionValidation(t *testing.T) {
	env := newTestEnv(t)
	school := mustCreateSchool(t, env, "VAL-1")

	tests := []struct {
		name   string
		mutate func(*models.Inspection)
		field  string
	}{
		{"missing inspector", func(in *models.Inspection) { in.InspectorName = "  " }, "inspector_name"},
		{"missing rating", func(in *models.Inspection) { in.OverallRating = "" }, "overall_rating"},
		{"rating outside scale", func(in *models.Inspection) { in.OverallRating = "E" }, "overall_rating"},
		{"bad type", func(in *models.Inspection) { in.InspectionType = "random" }, "inspection_type"},
		{"unknown school", func(in *models.Inspection) { in.SchoolID = uuid.New() }, "school_id"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := sampleInspection(school, models.RatingA)
			tt.mutate(in)

			_, _, err := env.inspections.Create(t.Context(), in)
			require.ErrorIs(t, err, ErrValidation)

			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.field, verr.Fields[0].Field)
		})
	}

	list, err := env.inspections.List(t.Context(), InspectionFilter{})
	require.NoError(t, err)
	assert.Empty(t, list)

	unchanged, err := env.schools.Get(t.Context(), school.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RatingB, unchanged.Rating)
	assert.Nil(t, unchanged.LastInspection)
}

func TestCreateInspectionSchoolSyncFailure(t *testing.T) {
	env := newTestEnv(t)
	school := mustCreateSchool(t, env, "SYNC-1")
	failSchoolUpdates(t, env.db)

	in, warning, err := env.inspections.Create(t.Context(), sampleInspection(school, models.RatingD))
	require.NoError(t, err)
	require.NotNil(t, warning)
	assert.Equal(t, in.ID, warning.InspectionID)
	assert.Equal(t, school.ID, warning.SchoolID)
	assert.Contains(t, warning.Error(), "school store unavailable")

	saved, err := env.inspections.Get(t.Context(), in.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RatingD, saved.OverallRating)

	stale, err := env.schools.Get(t.Context(), school.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RatingB, stale.Rating)
}

func TestCreateAtomicRollsBack(t *testing.T) {
	env := newTestEnv(t)
	school := mustCreateSchool(t, env, "ATOM-1")
	failSchoolUpdates(t, env.db)

	_, err := env.inspections.CreateAtomic(t.Context(), sampleInspection(school, models.RatingD))
	require.Error(t, err)

	var perr *PersistenceError
	assert.ErrorAs(t, err, &perr)

	list, err := env.inspections.ListBySchool(t.Context(), school.ID)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestCreateAtomic(t *testing.T) {
	env := newTestEnv(t)
	school := mustCreateSchool(t, env, "ATOM-2")

	in, err := env.inspections.CreateAtomic(t.Context(), sampleInspection(school, models.RatingBPlus))
	require.NoError(t, err)

	got, err := env.inspections.Get(t.Context(), in.ID)
	require.NoError(t, err)
	require.NotNil(t, got.School)
	assert.Equal(t, school.Name, got.School.Name)

	updated, err := env.schools.Get(t.Context(), school.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RatingBPlus, updated.Rating)
}

func TestListInspectionsFilters(t *testing.T) {
	env := newTestEnv(t)
	first := mustCreateSchool(t, env, "L-1")
	second := mustCreateSchool(t, env, "L-2")

	dates := []time.Time{
		time.Date(2024, 1, 10, 9, 0, 0, 0, time.UTC),
		time.Date(2024, 2, 10, 9, 0, 0, 0, time.UTC),
		time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC),
	}
	for i, d := range dates {
		in := sampleInspection(first, models.RatingA)
		in.InspectionDate = d
		if i == 2 {
			in.OverallRating = models.RatingC
			in.InspectionType = models.InspectionComplaint
		}
		_, _, err := env.inspections.Create(t.Context(), in)
		require.NoError(t, err)
	}
	_, _, err := env.inspections.Create(t.Context(), sampleInspection(second, models.RatingD))
	require.NoError(t, err)

	bySchool, err := env.inspections.ListBySchool(t.Context(), first.ID)
	require.NoError(t, err)
	require.Len(t, bySchool, 3)
	assert.True(t, bySchool[0].InspectionDate.After(bySchool[1].InspectionDate))
	assert.True(t, bySchool[1].InspectionDate.After(bySchool[2].InspectionDate))

	from := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 2, 10, 9, 0, 0, 0, time.UTC)
	inRange, err := env.inspections.List(t.Context(), InspectionFilter{SchoolID: &first.ID, From: &from, To: &to})
	require.NoError(t, err)
	require.Len(t, inRange, 1)
	assert.True(t, dates[1].Equal(inRange[0].InspectionDate))

	complaints, err := env.inspections.List(t.Context(), InspectionFilter{InspectionType: models.InspectionComplaint})
	require.NoError(t, err)
	assert.Len(t, complaints, 1)

	_, err = env.inspections.List(t.Context(), InspectionFilter{From: &to, To: &from})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestUpdateInspectionKeepsPhotosAndSchool(t *testing.T) {
	env := newTestEnv(t)
	school := mustCreateSchool(t, env, "UP-1")
	in, _, err := env.inspections.Create(t.Context(), sampleInspection(school, models.RatingA))
	require.NoError(t, err)

	photo, err := env.photos.Save(t.Context(), PhotoUpload{Data: pngImage(t), OriginalName: "kitchen.png"},
		PhotoAssociation{SchoolID: school.ID, InspectionID: &in.ID})
	require.NoError(t, err)

	edit := sampleInspection(school, models.RatingD)
	edit.InspectionDate = time.Time{}
	edit.Findings = "Revised findings"
	updated, err := env.inspections.Update(t.Context(), in.ID, edit)
	require.NoError(t, err)
	assert.Equal(t, "Revised findings", updated.Findings)
	require.Len(t, updated.Photos, 1)
	assert.Equal(t, photo.ID, updated.Photos[0].ID)
	assert.WithinDuration(t, in.InspectionDate, updated.InspectionDate, time.Second)

	untouched, err := env.schools.Get(t.Context(), school.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RatingA, untouched.Rating)

	_, err = env.inspections.Update(t.Context(), uuid.New(), sampleInspection(school, models.RatingA))
	assert.ErrorIs(t, err, ErrInspectionNotFound)
}

func TestUpdateInspectionAfterSchoolDeleted(t *testing.T) {
	env := newTestEnv(t)
	school := mustCreateSchool(t, env, "UP-2")
	in, _, err := env.inspections.Create(t.Context(), sampleInspection(school, models.RatingB))
	require.NoError(t, err)
	require.NoError(t, env.schools.Delete(t.Context(), school.ID))

	edit := sampleInspection(school, models.RatingC)
	edit.Recommendations = "Re-inspect once the school is re-registered"
	updated, err := env.inspections.Update(t.Context(), in.ID, edit)
	require.NoError(t, err)
	assert.Equal(t, models.RatingC, updated.OverallRating)
	assert.Equal(t, school.ID, updated.SchoolID)

	moved := sampleInspection(school, models.RatingC)
	moved.SchoolID = uuid.New()
	_, err = env.inspections.Update(t.Context(), in.ID, moved)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "school_id", verr.Fields[0].Field)

	got, err := env.inspections.Get(t.Context(), in.ID)
	require.NoError(t, err)
	assert.Equal(t, school.ID, got.SchoolID)
}

func TestDeleteInspection(t *testing.T) {
	env := newTestEnv(t)
	school := mustCreateSchool(t, env, "DEL-1")
	in, _, err := env.inspections.Create(t.Context(), sampleInspection(school, models.RatingA))
	require.NoError(t, err)

	require.NoError(t, env.inspections.Delete(t.Context(), in.ID))

	_, err = env.inspections.Get(t.Context(), in.ID)
	assert.ErrorIs(t, err, ErrInspectionNotFound)
	assert.ErrorIs(t, env.inspections.Delete(t.Context(), in.ID), ErrInspectionNotFound)
}
