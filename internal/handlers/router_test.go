package handlers

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/school-food-safety/backend/internal/blob"
	"github.com/school-food-safety/backend/internal/config"
	"github.com/school-food-safety/backend/internal/database"
	"github.com/school-food-safety/backend/internal/models"
	"github.com/school-food-safety/backend/internal/services"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testServer struct {
	router *gin.Engine
	tokens map[models.Role]string
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := &config.Config{
		JWT:        config.JWTConfig{Secret: "handler-secret", AccessExpiry: 15 * time.Minute, RefreshExpiry: time.Hour},
		Argon2:     config.Argon2Config{Memory: 1024, Iterations: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32},
		CORS:       config.CORSConfig{Origins: []string{"http://localhost:3000"}},
		Monitoring: config.MonitoringConfig{Enabled: true},
		Photos:     config.PhotoConfig{Root: "inspectPhotos", MaxUploadBytes: 1 << 20},
	}

	db, err := database.Open(config.DriverSQLite, ":memory:", nil)
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	log := logrus.New()
	log.SetOutput(io.Discard)

	srv := &testServer{
		router: NewRouter(cfg, db, blob.NewLocalStore(t.TempDir()), log),
		tokens: map[models.Role]string{},
	}

	auth := services.NewAuthService(db, cfg)
	for _, u := range []struct {
		name string
		role models.Role
	}{{"admin", models.RoleAdmin}, {"officer1", models.RoleOfficer}, {"viewer1", models.RoleViewer}} {
		require.NoError(t, auth.CreateUser(t.Context(), &models.User{Username: u.name, Role: u.role, FullName: u.name, IsActive: true}, "secret123"))

		rec := srv.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{"username": u.name, "password": "secret123"})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var resp struct {
			Tokens services.TokenPair `json:"tokens"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		srv.tokens[u.role] = resp.Tokens.AccessToken
	}

	return srv
}

func (s *testServer) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func (s *testServer) createSchool(t *testing.T, license string) models.School {
	t.Helper()
	rec := s.do(t, http.MethodPost, "/api/v1/schools", s.tokens[models.RoleOfficer], map[string]interface{}{
		"name":           "Test Primary",
		"type":           "Government School",
		"location":       "Mysuru",
		"phone":          "0821-2345678",
		"email":          "test@school.in",
		"license_number": license,
		"category":       "Primary School",
		"level":          "Taluk Level",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var school models.School
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &school))
	return school
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v))
}

func TestHealthAndAuth(t *testing.T) {
	srv := newTestServer(t)

	assert.Equal(t, http.StatusOK, srv.do(t, http.MethodGet, "/health", "", nil).Code)
	assert.Equal(t, http.StatusOK, srv.do(t, http.MethodGet, "/metrics", "", nil).Code)
	assert.Equal(t, http.StatusUnauthorized, srv.do(t, http.MethodGet, "/api/v1/schools", "", nil).Code)
	assert.Equal(t, http.StatusUnauthorized, srv.do(t, http.MethodGet, "/api/v1/schools", "garbage", nil).Code)

	rec := srv.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{"username": "admin", "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRoleGates(t *testing.T) {
	srv := newTestServer(t)

	rec := srv.do(t, http.MethodGet, "/api/v1/schools", srv.tokens[models.RoleViewer], nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = srv.do(t, http.MethodPost, "/api/v1/schools", srv.tokens[models.RoleViewer], map[string]string{"name": "x"})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	assert.Equal(t, http.StatusForbidden, srv.do(t, http.MethodGet, "/api/v1/admin/users", srv.tokens[models.RoleOfficer], nil).Code)

	rec = srv.do(t, http.MethodGet, "/api/v1/admin/users", srv.tokens[models.RoleAdmin], nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var users []models.User
	decode(t, rec, &users)
	assert.Len(t, users, 3)
}

func TestSchoolEndpoints(t *testing.T) {
	srv := newTestServer(t)
	officer := srv.tokens[models.RoleOfficer]
	school := srv.createSchool(t, "KGS-001")

	assert.Equal(t, services.DefaultOwner, school.Owner)
	assert.Equal(t, models.RatingB, school.Rating)

	rec := srv.do(t, http.MethodPost, "/api/v1/schools", officer, map[string]interface{}{
		"name": "Dup", "type": "Government School", "location": "x", "phone": "1",
		"email": "d@x.in", "license_number": "KGS-001", "category": "Primary School",
	})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = srv.do(t, http.MethodPost, "/api/v1/schools", officer, map[string]interface{}{"name": "Incomplete"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "license_number")

	rec = srv.do(t, http.MethodPut, "/api/v1/schools/"+school.ID.String(), officer, map[string]interface{}{"student_count": 350})
	require.Equal(t, http.StatusOK, rec.Code)
	var updated models.School
	decode(t, rec, &updated)
	assert.Equal(t, 350, updated.StudentCount)

	rec = srv.do(t, http.MethodGet, "/api/v1/schools/grouped", officer, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var groups []services.LevelGroup
	decode(t, rec, &groups)
	require.Len(t, groups, 3)
	assert.Len(t, groups[2].Schools, 1)

	assert.Equal(t, http.StatusBadRequest, srv.do(t, http.MethodGet, "/api/v1/schools/not-a-uuid", officer, nil).Code)
	assert.Equal(t, http.StatusBadRequest, srv.do(t, http.MethodGet, "/api/v1/schools?rating=Z", officer, nil).Code)

	assert.Equal(t, http.StatusOK, srv.do(t, http.MethodDelete, "/api/v1/schools/"+school.ID.String(), officer, nil).Code)
	assert.Equal(t, http.StatusNotFound, srv.do(t, http.MethodGet, "/api/v1/schools/"+school.ID.String(), officer, nil).Code)

	rec = srv.do(t, http.MethodGet, "/api/v1/admin/audit?resource_type=school", srv.tokens[models.RoleAdmin], nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var entries []models.AuditLog
	decode(t, rec, &entries)
	assert.Len(t, entries, 3)
}

func TestInspectionEndpoints(t *testing.T) {
	srv := newTestServer(t)
	officer := srv.tokens[models.RoleOfficer]
	school := srv.createSchool(t, "INS-1")

	rec := srv.do(t, http.MethodPost, "/api/v1/inspections", officer, map[string]interface{}{
		"school_id":       school.ID,
		"inspector_name":  "Officer Rao",
		"inspection_date": "2024-03-14T10:00:00Z",
		"overall_rating":  "A",
		"findings":        "Clean kitchen, fresh produce",
		"violations_list": []interface{}{},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created CreateInspectionResponse
	decode(t, rec, &created)
	assert.Empty(t, created.Warning)
	require.NotNil(t, created.Inspection)

	rec = srv.do(t, http.MethodGet, "/api/v1/schools/"+school.ID.String(), officer, nil)
	var synced models.School
	decode(t, rec, &synced)
	assert.Equal(t, models.RatingA, synced.Rating)
	assert.Equal(t, 0, synced.Violations)

	rec = srv.do(t, http.MethodPost, "/api/v1/inspections", officer, map[string]interface{}{
		"school_id":      school.ID,
		"overall_rating": "A",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "inspector_name")

	rec = srv.do(t, http.MethodGet, "/api/v1/inspections?start_date=2024-03-14&end_date=2024-03-14", officer, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var listed []models.Inspection
	decode(t, rec, &listed)
	assert.Len(t, listed, 1)

	rec = srv.do(t, http.MethodGet, "/api/v1/inspections?start_date=14-03-2024", officer, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = srv.do(t, http.MethodGet, "/api/v1/schools/"+school.ID.String()+"/inspections", officer, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &listed)
	assert.Len(t, listed, 1)

	rec = srv.do(t, http.MethodPost, "/api/v1/inspections", officer, map[string]interface{}{
		"school_id":       school.ID,
		"inspector_name":  "Officer Rao",
		"inspection_date": "2024-03-20",
		"overall_rating":  "B",
		"follow_up_date":  "2024-04-01",
		"violations_list": []map[string]string{{"description": "Open bins", "deadline": "2024-03-27"}},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var plain CreateInspectionResponse
	decode(t, rec, &plain)
	assert.True(t, time.Date(2024, 3, 20, 0, 0, 0, 0, time.UTC).Equal(plain.Inspection.InspectionDate))
	require.NotNil(t, plain.Inspection.FollowUpDate)
	require.NotNil(t, plain.Inspection.ViolationsList[0].Deadline)

	rec = srv.do(t, http.MethodPost, "/api/v1/inspections", officer, map[string]interface{}{
		"school_id":       school.ID,
		"inspector_name":  "Officer Rao",
		"inspection_date": "20/03/2024",
		"overall_rating":  "B",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	id := created.Inspection.ID.String()
	assert.Equal(t, http.StatusOK, srv.do(t, http.MethodDelete, "/api/v1/inspections/"+id, officer, nil).Code)
	assert.Equal(t, http.StatusNotFound, srv.do(t, http.MethodGet, "/api/v1/inspections/"+id, officer, nil).Code)
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 32, 32))
	for x := 0; x < 32; x++ {
		for y := 0; y < 32; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 8), G: 100, B: uint8(y * 8), A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func (s *testServer) upload(t *testing.T, fields map[string]string, data []byte) *httptest.ResponseRecorder {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	part, err := w.CreateFormFile("photo", "kitchen.png")
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/photos", &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+s.tokens[models.RoleOfficer])

	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func TestPhotoAndReportEndpoints(t *testing.T) {
	srv := newTestServer(t)
	officer := srv.tokens[models.RoleOfficer]
	school := srv.createSchool(t, "PH-1")

	rec := srv.do(t, http.MethodPost, "/api/v1/inspections", officer, map[string]interface{}{
		"school_id":       school.ID,
		"inspector_name":  "Officer Rao",
		"overall_rating":  "C",
		"findings":        "Storage, needs work",
		"violations_list": []map[string]string{{"category": "storage", "description": "Expired milk"}},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created CreateInspectionResponse
	decode(t, rec, &created)

	payload := pngBytes(t)
	rec = srv.upload(t, map[string]string{"school_id": school.ID.String(), "inspection_id": created.Inspection.ID.String()}, payload)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var photo models.Photo
	decode(t, rec, &photo)
	assert.Equal(t, "kitchen.png", photo.OriginalName)
	assert.Empty(t, photo.Payload)

	rec = srv.upload(t, map[string]string{"school_id": school.ID.String()}, []byte("plain text is not a photo"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = srv.do(t, http.MethodGet, "/api/v1/photos/"+photo.ID.String()+"/raw", officer, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	assert.Equal(t, payload, rec.Body.Bytes())

	rec = srv.do(t, http.MethodGet, "/api/v1/schools/"+school.ID.String()+"/photos", officer, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var listing struct {
		Photos []models.Photo            `json:"photos"`
		Counts map[models.PhotoKind]int `json:"counts"`
	}
	decode(t, rec, &listing)
	assert.Len(t, listing.Photos, 1)
	assert.Equal(t, 1, listing.Counts[models.PhotoKindInspection])

	rec = srv.do(t, http.MethodGet, "/api/v1/reports/export.csv", officer, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Disposition"), ".csv")
	records, err := csv.NewReader(rec.Body).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "Storage, needs work", records[1][4])
	assert.Equal(t, "storage: Expired milk", records[1][5])
	assert.Equal(t, "kitchen.png", records[1][7])

	rec = srv.do(t, http.MethodGet, "/api/v1/reports/export.html?school_id="+school.ID.String(), officer, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.HasPrefix(rec.Header().Get("Content-Type"), "text/html"))
	assert.Contains(t, rec.Body.String(), "data:image/jpeg;base64,")

	rec = srv.do(t, http.MethodGet, "/api/v1/reports?rating=C", officer, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var data services.ReportData
	decode(t, rec, &data)
	assert.Equal(t, 1, data.Summary.TotalSchools)
	assert.Equal(t, 2.0, data.Summary.AverageRating)

	rec = srv.do(t, http.MethodGet, "/api/v1/dashboard/stats", srv.tokens[models.RoleViewer], nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var stats services.DashboardStats
	decode(t, rec, &stats)
	assert.Equal(t, int64(1), stats.TotalInspections)
	assert.Equal(t, int64(1), stats.TotalViolations)

	assert.Equal(t, http.StatusOK, srv.do(t, http.MethodDelete, "/api/v1/photos/"+photo.ID.String(), officer, nil).Code)
	assert.Equal(t, http.StatusNotFound, srv.do(t, http.MethodGet, "/api/v1/photos/"+photo.ID.String(), officer, nil).Code)
}
