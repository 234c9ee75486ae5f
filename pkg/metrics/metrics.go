package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Batch execution metrics, incremented inline by pkg/executor.
	BatchesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ppds_batches_total",
			Help: "Total number of batches submitted by entity and outcome",
		},
		[]string{"entity", "outcome"},
	)

	BatchDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ppds_batch_duration_seconds",
			Help:    "Duration of a single batch remote call in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"entity"},
	)

	RecordsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ppds_records_total",
			Help: "Total number of records processed by entity and result",
		},
		[]string{"entity", "result"},
	)

	RetriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ppds_retries_total",
			Help: "Total number of batch retry attempts by entity",
		},
		[]string{"entity"},
	)

	ThrottledTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ppds_throttled_total",
			Help: "Total number of throttled (429-equivalent) responses by endpoint",
		},
		[]string{"endpoint"},
	)

	// Pool/throttle gauges, polled by Collector from live Pool/Tracker
	// state rather than pushed inline — DOP negotiation is continuous,
	// not event-shaped (§4.3).
	EffectiveDop = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "ppds_effective_dop",
			Help: "Current negotiated degree of parallelism by endpoint",
		},
		[]string{"endpoint"},
	)

	SourcesInFlight = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "ppds_sources_in_flight",
			Help: "In-flight requests by source endpoint",
		},
		[]string{"endpoint"},
	)

	// Migration-level operation metrics.
	ExportDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "ppds_export_duration_seconds",
			Help:    "Time taken to export a schema's data in seconds",
			Buckets: []float64{1, 5, 15, 30, 60, 300, 900, 1800, 3600},
		},
	)

	ImportDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "ppds_import_duration_seconds",
			Help:    "Time taken to import a MigrationData payload in seconds",
			Buckets: []float64{1, 5, 15, 30, 60, 300, 900, 1800, 3600},
		},
	)

	CSVLoadDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "ppds_csv_load_duration_seconds",
			Help:    "Time taken to load and execute one CSV file in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)
)

func init() {
	prometheus.MustRegister(BatchesTotal)
	prometheus.MustRegister(BatchDuration)
	prometheus.MustRegister(RecordsTotal)
	prometheus.MustRegister(RetriesTotal)
	prometheus.MustRegister(ThrottledTotal)
	prometheus.MustRegister(EffectiveDop)
	prometheus.MustRegister(SourcesInFlight)
	prometheus.MustRegister(ExportDuration)
	prometheus.MustRegister(ImportDuration)
	prometheus.MustRegister(CSVLoadDuration)
}

// Handler returns the Prometheus HTTP handler, mounted by cmd/migrate
// under /metrics when metrics are enabled.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Timer is a helper for timing operations.
type Timer struct {
	start time.Time
}

// NewTimer creates a new timer.
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// ObserveDuration records the duration to a histogram.
func (t *Timer) ObserveDuration(histogram prometheus.Histogram) {
	histogram.Observe(time.Since(t.start).Seconds())
}

// ObserveDurationVec records the duration to a histogram vec with labels.
func (t *Timer) ObserveDurationVec(histogram prometheus.ObserverVec, labels ...string) {
	histogram.WithLabelValues(labels...).Observe(time.Since(t.start).Seconds())
}

// Duration returns the elapsed time since the timer started.
func (t *Timer) Duration() time.Duration {
	return time.Since(t.start)
}
