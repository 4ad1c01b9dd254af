package report

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/school-food-safety/backend/internal/rating"
)

//go:embed templates
var templateFS embed.FS

var printable = template.Must(
	template.New("report.html.tmpl").
		Funcs(template.FuncMap{
			"badge":     rating.BadgeClass,
			"thumbnail": Thumbnail,
			"kb": func(size int64) string {
				return fmt.Sprintf("%.1f KB", float64(size)/1024)
			},
			"datetime": func(t time.Time) string {
				return t.Format("02 Jan 2006 15:04 MST")
			},
			"add": func(a, b int) int { return a + b },
		}).
		ParseFS(templateFS, "templates/report.html.tmpl"),
)

// WriteHTML renders the report as a standalone, print-ready HTML document.
// Styles and photo thumbnails are inlined.
func WriteHTML(w io.Writer, r *Report) error {
	return printable.Execute(w, r)
}
