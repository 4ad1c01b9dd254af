// Package report turns inspections into summary figures and printable or
// tabular exports.
package report

import (
	"strings"
	"time"

	"github.com/school-food-safety/backend/internal/models"
	"github.com/school-food-safety/backend/internal/rating"
)

const DateLayout = "2006-01-02"

// Entry is one inspection with the school and photo data a report prints.
type Entry struct {
	Inspection     models.Inspection
	SchoolName     string
	SchoolLocation string
	Photos         []models.Photo
}

// Location is "School, Place" or whichever half is known.
func (e Entry) Location() string {
	switch {
	case e.SchoolName != "" && e.SchoolLocation != "":
		return e.SchoolName + ", " + e.SchoolLocation
	case e.SchoolName != "":
		return e.SchoolName
	case e.SchoolLocation != "":
		return e.SchoolLocation
	default:
		return "Unknown school"
	}
}

func (e Entry) Date() string {
	return e.Inspection.InspectionDate.Format(DateLayout)
}

func (e Entry) Findings() []string {
	return splitItems(e.Inspection.Findings)
}

// Violations lists the structured violation records when present, otherwise
// the free-text violations split into items.
func (e Entry) Violations() []string {
	if len(e.Inspection.ViolationsList) == 0 {
		return splitItems(e.Inspection.Violations)
	}

	items := make([]string, 0, len(e.Inspection.ViolationsList))
	for _, v := range e.Inspection.ViolationsList {
		desc := strings.TrimSpace(v.Description)
		cat := strings.TrimSpace(v.Category)
		switch {
		case cat != "" && desc != "":
			items = append(items, cat+": "+desc)
		case desc != "":
			items = append(items, desc)
		case cat != "":
			items = append(items, cat)
		default:
			items = append(items, "Unspecified violation")
		}
	}
	return items
}

func (e Entry) ViolationCount() int {
	return len(e.Violations())
}

func (e Entry) Recommendations() []string {
	return splitItems(e.Inspection.Recommendations)
}

// PhotoNames uses each photo's uploaded name, falling back to the stored one.
func (e Entry) PhotoNames() []string {
	names := make([]string, 0, len(e.Photos))
	for _, p := range e.Photos {
		switch {
		case p.OriginalName != "":
			names = append(names, p.OriginalName)
		case p.Filename != "":
			names = append(names, p.Filename)
		default:
			names = append(names, "unnamed")
		}
	}
	return names
}

// splitItems breaks free text into list items on newlines and semicolons.
func splitItems(text string) []string {
	fields := strings.FieldsFunc(text, func(r rune) bool {
		return r == '\n' || r == '\r' || r == ';'
	})

	items := make([]string, 0, len(fields))
	for _, f := range fields {
		f = strings.TrimSpace(strings.TrimLeft(strings.TrimSpace(f), "•-* "))
		if f != "" {
			items = append(items, f)
		}
	}
	return items
}

type Summary struct {
	TotalInspections int     `json:"total_inspections"`
	AverageRating    float64 `json:"average_rating"`
	TotalViolations  int     `json:"total_violations"`
	ComplianceRate   float64 `json:"compliance_rate"`
}

// Summarize computes the report figures. An empty set yields all zeros.
func Summarize(entries []Entry) Summary {
	ratings := make([]models.Rating, 0, len(entries))
	var violations, compliant int
	for _, e := range entries {
		ratings = append(ratings, e.Inspection.OverallRating)
		n := e.ViolationCount()
		violations += n
		if n == 0 {
			compliant++
		}
	}

	return Summary{
		TotalInspections: len(entries),
		AverageRating:    rating.Average(ratings),
		TotalViolations:  violations,
		ComplianceRate:   rating.ComplianceRate(compliant, len(entries)),
	}
}

func (s Summary) AverageText() string {
	return rating.FormatAverage(s.AverageRating)
}

func (s Summary) ComplianceText() string {
	return rating.FormatPercent(s.ComplianceRate)
}

var standingRecommendations = []string{
	"Continue monitoring schools rated C or D until they improve",
	"Arrange refresher hygiene training for kitchens with recorded violations",
	"Keep up the standard at A rated kitchens and share their practices",
	"Schedule the follow-up inspections recommended above",
	"Attach photo evidence and complete documentation for every inspection",
}

// Report is a generated inspection report ready for rendering.
type Report struct {
	Title           string    `json:"title"`
	Scope           string    `json:"scope"`
	GeneratedAt     time.Time `json:"generated_at"`
	Summary         Summary   `json:"summary"`
	Entries         []Entry   `json:"-"`
	Recommendations []string  `json:"recommendations"`
}

func New(title, scope string, entries []Entry, now time.Time) *Report {
	if title == "" {
		title = "Food Safety Inspection Report"
	}
	if scope == "" {
		scope = "All schools"
	}
	return &Report{
		Title:           title,
		Scope:           scope,
		GeneratedAt:     now,
		Summary:         Summarize(entries),
		Entries:         entries,
		Recommendations: standingRecommendations,
	}
}
