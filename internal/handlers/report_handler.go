package handlers

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/school-food-safety/backend/internal/models"
	"github.com/school-food-safety/backend/internal/report"
	"github.com/school-food-safety/backend/internal/services"
	"github.com/sirupsen/logrus"
)

type ReportHandler struct {
	reports *services.ReportService
	log     *logrus.Logger
}

func NewReportHandler(reports *services.ReportService, log *logrus.Logger) *ReportHandler {
	return &ReportHandler{reports: reports, log: log}
}

func (h *ReportHandler) filter(c *gin.Context) (services.ReportFilter, error) {
	f := services.ReportFilter{
		Rating:         models.Rating(c.Query("rating")),
		InspectionType: models.InspectionType(c.Query("inspection_type")),
		TypeProxy:      models.InspectionType(c.Query("type")),
		Title:          c.Query("title"),
	}

	var err error
	if f.SchoolID, err = queryID(c, "school_id"); err != nil {
		return f, err
	}
	if f.From, err = queryDate(c, "start_date", false); err != nil {
		return f, err
	}
	if f.To, err = queryDate(c, "end_date", true); err != nil {
		return f, err
	}
	return f, nil
}

// Data returns the schools, inspections and summary behind the reports page.
func (h *ReportHandler) Data(c *gin.Context) {
	filter := services.ReportDataFilter{
		Rating: models.Rating(c.Query("rating")),
		Status: models.SchoolStatus(c.Query("status")),
	}

	var err error
	if filter.From, err = queryDate(c, "start_date", false); err != nil {
		respondError(c, h.log, err)
		return
	}
	if filter.To, err = queryDate(c, "end_date", true); err != nil {
		respondError(c, h.log, err)
		return
	}

	data, err := h.reports.ReportData(c.Request.Context(), filter)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	services.RecordReportRendered("json")
	c.JSON(http.StatusOK, data)
}

// @Summary Export a printable report
// @Tags reports
// @Produce html
// @Param school_id query string false "School"
// @Param start_date query string false "From date (YYYY-MM-DD)"
// @Param end_date query string false "To date (YYYY-MM-DD)"
// @Param rating query string false "Rating"
// @Param type query string false "routine or complaint rating band"
// @Success 200 {string} string "HTML document"
// @Security BearerAuth
// @Router /api/v1/reports/export.html [get]
func (h *ReportHandler) ExportHTML(c *gin.Context) {
	r, ok := h.generate(c, true)
	if !ok {
		return
	}

	var buf bytes.Buffer
	if err := report.WriteHTML(&buf, r); err != nil {
		respondError(c, h.log, err)
		return
	}

	services.RecordReportRendered("html")
	c.Header("Content-Disposition", attachment(r.GeneratedAt, "html"))
	c.Data(http.StatusOK, "text/html; charset=utf-8", buf.Bytes())
}

func (h *ReportHandler) ExportCSV(c *gin.Context) {
	r, ok := h.generate(c, false)
	if !ok {
		return
	}

	var buf bytes.Buffer
	if err := report.WriteCSV(&buf, r.Entries); err != nil {
		respondError(c, h.log, err)
		return
	}

	services.RecordReportRendered("csv")
	c.Header("Content-Disposition", attachment(r.GeneratedAt, "csv"))
	c.Data(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}

func (h *ReportHandler) generate(c *gin.Context, thumbnails bool) (*report.Report, bool) {
	filter, err := h.filter(c)
	if err != nil {
		respondError(c, h.log, err)
		return nil, false
	}
	filter.Thumbnails = thumbnails

	r, err := h.reports.Generate(c.Request.Context(), filter)
	if err != nil {
		respondError(c, h.log, err)
		return nil, false
	}
	return r, true
}

func attachment(generated time.Time, ext string) string {
	return fmt.Sprintf("attachment; filename=\"inspection-report-%s.%s\"", generated.Format(report.DateLayout), ext)
}
