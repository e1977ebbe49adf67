// Package metrics holds the Prometheus collectors of the extraction service.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// extractionTotal counts extractions by dataset, mode and result
	extractionTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "oceans_extraction_total",
		Help: "Total extractions by dataset, mode and result",
	}, []string{"dataset", "mode", "result"})

	// extractionDuration tracks extraction latency
	extractionDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "oceans_extraction_duration_seconds",
		Help:    "Extraction duration in seconds",
		Buckets: prometheus.ExponentialBuckets(0.0005, 2, 14), // 0.5ms to ~4s
	}, []string{"dataset", "mode"})

	// maskedVariables counts variables returned without any valid value
	maskedVariables = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "oceans_masked_variables_total",
		Help: "Variables returned fully masked, by reason",
	}, []string{"dataset", "reason"})

	// subsetCells tracks the number of source cells read per variable
	subsetCells = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "oceans_subset_cells",
		Help:    "Source cells read per variable and extraction",
		Buckets: prometheus.ExponentialBuckets(1, 4, 12), // 1 to ~4M
	}, []string{"dataset"})
)

// Result labels for ObserveExtraction.
const (
	ResultOK       = "ok"
	ResultRejected = "rejected"
	ResultError    = "error"
)

// Masked reasons for ObserveMasked.
const (
	ReasonMissing    = "missing"
	ReasonDegenerate = "degenerate"
)

// ObserveExtraction records one finished extraction.
func ObserveExtraction(dataset, mode, result string, elapsed time.Duration) {
	extractionTotal.WithLabelValues(dataset, mode, result).Inc()
	extractionDuration.WithLabelValues(dataset, mode).Observe(elapsed.Seconds())
}

// ObserveMasked records a variable returned fully masked.
func ObserveMasked(dataset, reason string) {
	maskedVariables.WithLabelValues(dataset, reason).Inc()
}

// ObserveSubset records the size of the subset read for an extraction.
func ObserveSubset(dataset string, cells int) {
	subsetCells.WithLabelValues(dataset).Observe(float64(cells))
}
