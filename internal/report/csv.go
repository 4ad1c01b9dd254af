package report

import (
	"encoding/csv"
	"io"
	"strconv"
	"strings"
)

var csvHeader = []string{"Location", "Date", "Inspector", "Rating", "Findings", "Violations", "Photos", "Photo_Names"}

const listSeparator = "; "

// WriteCSV writes one row per entry under the fixed header. Fields are
// quoted as needed by encoding/csv.
func WriteCSV(w io.Writer, entries []Entry) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(csvHeader); err != nil {
		return err
	}

	for _, e := range entries {
		violations := strings.Join(e.Violations(), listSeparator)
		if violations == "" {
			violations = "None"
		}

		record := []string{
			e.Location(),
			e.Date(),
			e.Inspection.InspectorName,
			string(e.Inspection.OverallRating),
			strings.Join(e.Findings(), listSeparator),
			violations,
			strconv.Itoa(len(e.Photos)),
			strings.Join(e.PhotoNames(), listSeparator),
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}
