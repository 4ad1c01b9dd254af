package rating

import (
	"fmt"
	"sort"
	"strings"

	"github.com/school-food-safety/backend/internal/models"
)

// MaxScore is the top of the scale reports print averages against ("3.5/4.0").
const MaxScore = 4.0

var scores = map[models.Rating]float64{
	models.RatingAPlus: 4,
	models.RatingA:     3.5,
	models.RatingBPlus: 3,
	models.RatingB:     2.5,
	models.RatingC:     2,
	models.RatingD:     1,
}

var order = map[models.Rating]int{
	models.RatingA:     1,
	models.RatingBPlus: 2,
	models.RatingB:     3,
	models.RatingC:     4,
	models.RatingD:     5,
}

// Score maps a rating to its numeric value. Unknown ratings score 0.
func Score(r models.Rating) float64 {
	return scores[r]
}

// Order is the list position of a rating, best first. Unknown ratings sort last.
func Order(r models.Rating) int {
	if o, ok := order[r]; ok {
		return o
	}
	return 99
}

// Average is the mean score of the given ratings, 0 for none.
func Average(ratings []models.Rating) float64 {
	if len(ratings) == 0 {
		return 0
	}
	var sum float64
	for _, r := range ratings {
		sum += Score(r)
	}
	return sum / float64(len(ratings))
}

// ComplianceRate is the percentage of compliant items, 0 when total is 0.
func ComplianceRate(compliant, total int) float64 {
	if total <= 0 {
		return 0
	}
	return float64(compliant) / float64(total) * 100
}

func FormatPercent(v float64) string {
	return fmt.Sprintf("%.1f", v)
}

// FormatAverage renders an average as "3.5/4.0".
func FormatAverage(v float64) string {
	return fmt.Sprintf("%.1f/%.1f", v, MaxScore)
}

// BadgeClass buckets a rating into the printable report's colour classes.
func BadgeClass(r models.Rating) string {
	switch {
	case strings.HasPrefix(string(r), "A"):
		return "rating-a"
	case strings.HasPrefix(string(r), "B"):
		return "rating-b"
	default:
		return "rating-c"
	}
}

// ProxyRatings returns the ratings used to approximate an inspection type
// when filtering reports by rating alone. ok is false when no proxy applies.
func ProxyRatings(t models.InspectionType) (ratings []models.Rating, ok bool) {
	switch t {
	case models.InspectionRoutine:
		return []models.Rating{models.RatingAPlus, models.RatingA, models.RatingBPlus}, true
	case models.InspectionComplaint:
		return []models.Rating{models.RatingC, models.RatingD}, true
	}
	return nil, false
}

// SortSchools orders schools by rating, then by name.
func SortSchools(schools []models.School) {
	sort.SliceStable(schools, func(i, j int) bool {
		oi, oj := Order(schools[i].Rating), Order(schools[j].Rating)
		if oi != oj {
			return oi < oj
		}
		return schools[i].Name < schools[j].Name
	})
}
