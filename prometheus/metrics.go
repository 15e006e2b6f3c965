// Package prometheus records ingestion metrics with the Prometheus client.
package prometheus

import (
	"time"

	"github.com/fwojciec/langspec"
	"github.com/prometheus/client_golang/prometheus"
)

// Compile-time interface verification.
var _ langspec.IngestObserver = (*Metrics)(nil)

// Run results.
const (
	ResultSuccess     = "success"
	ResultNotModified = "not_modified"
	ResultFailure     = "failure"
)

// Metrics implements langspec.IngestObserver. Each Metrics owns its
// registry so that several instances never collide.
type Metrics struct {
	registry *prometheus.Registry

	pages    *prometheus.CounterVec
	sections *prometheus.CounterVec
	runs     *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewMetrics creates and registers the ingestion metrics.
func NewMetrics() *Metrics {
	buckets := []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300}
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		pages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "langspec_ingest_pages_total",
			Help: "Pages processed by ingestion runs, by outcome.",
		}, []string{"language", "outcome"}),
		sections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "langspec_ingest_sections_total",
			Help: "Sections classified by ingestion runs, by outcome.",
		}, []string{"language", "outcome"}),
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "langspec_ingest_runs_total",
			Help: "Ingestion runs, by result.",
		}, []string{"language", "result"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "langspec_ingest_duration_seconds",
			Help:    "Duration of ingestion runs.",
			Buckets: buckets,
		}, []string{"language"}),
	}
	m.registry.MustRegister(m.pages, m.sections, m.runs, m.duration)
	return m
}

// Registry returns the registry holding the ingestion metrics.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// ObserveIngest records the outcome of one run.
func (m *Metrics) ObserveIngest(report *langspec.IngestReport, duration time.Duration, err error) {
	language := ""
	if report != nil {
		language = report.Language
	}

	m.duration.WithLabelValues(language).Observe(duration.Seconds())

	if report != nil {
		m.pages.WithLabelValues(language, "fetched").Add(float64(report.Fetch.Fetched))
		m.pages.WithLabelValues(language, "cached").Add(float64(report.Fetch.Cached))
		m.pages.WithLabelValues(language, "failed").Add(float64(report.Fetch.Failed))

		m.sections.WithLabelValues(language, string(langspec.Inserted)).Add(float64(report.Inserted))
		m.sections.WithLabelValues(language, string(langspec.Updated)).Add(float64(report.Updated))
		m.sections.WithLabelValues(language, string(langspec.Unchanged)).Add(float64(report.Unchanged))
		m.sections.WithLabelValues(language, "duplicate").Add(float64(report.Duplicates))
	}

	switch {
	case err != nil:
		m.runs.WithLabelValues(language, ResultFailure).Inc()
	case report != nil && report.NotModified:
		m.runs.WithLabelValues(language, ResultNotModified).Inc()
	default:
		m.runs.WithLabelValues(language, ResultSuccess).Inc()
	}
}

// WriteToTextfile writes the current metrics in text exposition format,
// suitable for the node exporter textfile collector.
func (m *Metrics) WriteToTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.registry)
}
