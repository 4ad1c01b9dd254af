package services

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	inspectionsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "food_safety_inspections_created_total",
		Help: "Inspections written to the store.",
	})

	schoolSyncFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "food_safety_school_sync_failures_total",
		Help: "Inspections saved whose school rating update failed.",
	})

	photosUploaded = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "food_safety_photos_uploaded_total",
		Help: "Photos stored, by association kind.",
	}, []string{"kind"})

	photosDeleted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "food_safety_photos_deleted_total",
		Help: "Photos removed by id.",
	})

	reportsGenerated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "food_safety_reports_generated_total",
		Help: "Inspection reports generated, by output format.",
	}, []string{"format"})
)

// RecordReportRendered counts a report written in the given format.
func RecordReportRendered(format string) {
	reportsGenerated.WithLabelValues(format).Inc()
}
