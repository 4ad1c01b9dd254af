package report

import (
	"bytes"
	"encoding/csv"
	"image"
	"image/color"
	"image/png"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/school-food-safety/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func entry(r models.Rating, findings string, violations models.ViolationDetails) Entry {
	return Entry{
		Inspection: models.Inspection{
			InspectorName:  "Officer Rao",
			InspectionDate: time.Date(2024, 3, 14, 10, 0, 0, 0, time.UTC),
			InspectionType: models.InspectionRoutine,
			OverallRating:  r,
			Findings:       findings,
			ViolationsList: violations,
			Status:         models.InspectionCompleted,
		},
		SchoolName:     "Test Primary",
		SchoolLocation: "Mysuru",
	}
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 200, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestSummarizeEmpty(t *testing.T) {
	s := Summarize(nil)

	assert.Equal(t, 0, s.TotalInspections)
	assert.Equal(t, 0.0, s.AverageRating)
	assert.Equal(t, 0, s.TotalViolations)
	assert.False(t, math.IsNaN(s.ComplianceRate))
	assert.Equal(t, "0.0", s.ComplianceText())
}

func TestSummarizeSingleCompliantInspection(t *testing.T) {
	s := Summarize([]Entry{entry(models.RatingA, "Clean kitchen", nil)})

	assert.Equal(t, 1, s.TotalInspections)
	assert.Equal(t, 3.5, s.AverageRating)
	assert.Equal(t, 0, s.TotalViolations)
	assert.Equal(t, 100.0, s.ComplianceRate)
	assert.Equal(t, "3.5/4.0", s.AverageText())
}

func TestSummarizeMixed(t *testing.T) {
	entries := []Entry{
		entry(models.RatingC, "", models.ViolationDetails{
			{Category: "storage", Description: "Expired items found"},
			{Description: "Poor surface cleanliness"},
		}),
		entry(models.RatingA, "", nil),
	}

	s := Summarize(entries)
	assert.InDelta(t, 2.75, s.AverageRating, 1e-9)
	assert.Equal(t, 2, s.TotalViolations)
	assert.Equal(t, "50.0", s.ComplianceText())
}

func TestViolationsFallBackToFreeText(t *testing.T) {
	e := entry(models.RatingB, "", nil)
	e.Inspection.Violations = "Open dustbin near stove\n- No hairnets; "

	assert.Equal(t, []string{"Open dustbin near stove", "No hairnets"}, e.Violations())
	assert.Equal(t, 2, e.ViolationCount())
}

func TestWriteCSVRoundTrip(t *testing.T) {
	entries := []Entry{
		entry(models.RatingA, "Fresh vegetables, properly washed\nClean utensils", nil),
		entry(models.RatingC, "Storage \"needs\" work", models.ViolationDetails{{Description: "Rodent droppings"}}),
		entry(models.RatingB, "", nil),
	}
	entries[0].Photos = []models.Photo{{OriginalName: "kitchen.jpg"}, {Filename: "stored.png"}, {}}

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, entries))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, len(entries)+1)

	assert.Equal(t, csvHeader, records[0])

	first := records[1]
	assert.Equal(t, "Test Primary, Mysuru", first[0])
	assert.Equal(t, "2024-03-14", first[1])
	assert.Equal(t, "Fresh vegetables, properly washed; Clean utensils", first[4])
	assert.Equal(t, "None", first[5])
	assert.Equal(t, "3", first[6])
	assert.Equal(t, "kitchen.jpg; stored.png; unnamed", first[7])

	assert.Equal(t, `Storage "needs" work`, records[2][4])
	assert.Equal(t, "Rodent droppings", records[2][5])
}

func TestWriteCSVEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, nil))
	assert.Equal(t, strings.Join(csvHeader, ",")+"\n", buf.String())
}

func TestWriteHTMLEmpty(t *testing.T) {
	var buf bytes.Buffer
	r := New("", "", nil, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))

	require.NoError(t, WriteHTML(&buf, r))
	out := buf.String()

	assert.True(t, strings.HasPrefix(out, "<!DOCTYPE html>"))
	assert.Contains(t, out, "<style>")
	assert.Contains(t, out, "0.0%")
	assert.Contains(t, out, "No inspections match the selected filters.")
	assert.Contains(t, out, "</html>")
}

func TestWriteHTMLInspectionBlock(t *testing.T) {
	e := entry(models.RatingC, "Kitchen <b>dirty</b>", models.ViolationDetails{{Description: "Uncovered food"}})
	e.Inspection.Recommendations = "Cover all cooked food"
	e.Photos = []models.Photo{{
		OriginalName: "stove.png",
		MimeType:     "image/png",
		SizeBytes:    2048,
		Payload:      pngBytes(t, 640, 480),
	}}

	var buf bytes.Buffer
	require.NoError(t, WriteHTML(&buf, New("Weekly report", "Test Primary", []Entry{e}, time.Now())))
	out := buf.String()

	assert.Contains(t, out, "Weekly report")
	assert.Contains(t, out, `class="rating rating-c"`)
	assert.Contains(t, out, "Kitchen &lt;b&gt;dirty&lt;/b&gt;")
	assert.Contains(t, out, "Uncovered food")
	assert.Contains(t, out, "Cover all cooked food")
	assert.Contains(t, out, "data:image/jpeg;base64,")
	assert.Contains(t, out, "2.0 KB")
	assert.NotContains(t, out, "No violations found")
}

func TestThumbnailFallbacks(t *testing.T) {
	assert.True(t, strings.HasPrefix(string(Thumbnail(models.Photo{})), "data:image/svg+xml;base64,"))

	broken := models.Photo{MimeType: "image/jpeg", Payload: []byte("not really a jpeg")}
	assert.True(t, strings.HasPrefix(string(Thumbnail(broken)), "data:image/jpeg;base64,"))

	img := models.Photo{MimeType: "image/png", Payload: pngBytes(t, 800, 600)}
	assert.True(t, strings.HasPrefix(string(Thumbnail(img)), "data:image/jpeg;base64,"))
}
