package utils

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Database Metrics
	DBOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "db_operation_duration_seconds",
			Help:    "Duration of database operations",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"operation", "collection"},
	)

	// Error Metrics
	ErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "errors_total",
			Help: "Total number of errors by category and kind",
		},
		[]string{"category", "kind"}, // database/validation/http, then a short kind
	)
)

// TrackDBOperation starts a timer for a database operation; call ObserveDuration when done.
func TrackDBOperation(operation, collection string) *prometheus.Timer {
	return prometheus.NewTimer(DBOperationDuration.WithLabelValues(operation, collection))
}

// TrackError increments the error counter
func TrackError(category, kind string) {
	ErrorsTotal.WithLabelValues(category, kind).Inc()
}

// Notes Metrics
var NotesOperationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "notes_operations_total",
		Help: "Total number of note operations",
	},
	[]string{"operation"}, // create, replace, patch, delete, reset
)

// TrackNoteOperation increments the notes operation counter
func TrackNoteOperation(operation string) {
	NotesOperationsTotal.WithLabelValues(operation).Inc()
}
