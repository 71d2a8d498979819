package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type IngestMetrics struct {
	registry *prometheus.Registry

	postingsTotal     *prometheus.CounterVec
	batchesTotal      *prometheus.CounterVec
	runDuration       *prometheus.HistogramVec
	vocabularyEntries *prometheus.GaugeVec
}

func NewIngestMetrics() *IngestMetrics {
	registry := prometheus.NewRegistry()

	postingsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "cvm",
			Subsystem: "ingest",
			Name:      "postings_total",
			Help:      "Total dataset rows by outcome.",
		},
		[]string{"service", "status"},
	)
	batchesTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "cvm",
			Subsystem: "ingest",
			Name:      "batches_total",
			Help:      "Total upsert batches sent to the index.",
		},
		[]string{"service"},
	)
	runDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "cvm",
			Subsystem: "ingest",
			Name:      "run_duration_seconds",
			Help:      "Ingestion run duration in seconds by status.",
			Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600, 1800, 3600},
		},
		[]string{"service", "status"},
	)
	vocabularyEntries := prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "cvm",
			Subsystem: "ingest",
			Name:      "vocabulary_entries",
			Help:      "Distinct vocabulary values written per list.",
		},
		[]string{"service", "list"},
	)

	registry.MustRegister(postingsTotal, batchesTotal, runDuration, vocabularyEntries)

	return &IngestMetrics{
		registry:          registry,
		postingsTotal:     postingsTotal,
		batchesTotal:      batchesTotal,
		runDuration:       runDuration,
		vocabularyEntries: vocabularyEntries,
	}
}

func (m *IngestMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *IngestMetrics) RecordRun(service string, indexed, skipped, batches int, duration time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}

	m.postingsTotal.WithLabelValues(service, "indexed").Add(float64(indexed))
	m.postingsTotal.WithLabelValues(service, "skipped").Add(float64(skipped))
	m.batchesTotal.WithLabelValues(service).Add(float64(batches))
	m.runDuration.WithLabelValues(service, status).Observe(duration.Seconds())
}

func (m *IngestMetrics) SetVocabularySizes(service string, locations, experienceLevels, workTypes int) {
	m.vocabularyEntries.WithLabelValues(service, "locations").Set(float64(locations))
	m.vocabularyEntries.WithLabelValues(service, "experience_levels").Set(float64(experienceLevels))
	m.vocabularyEntries.WithLabelValues(service, "work_types").Set(float64(workTypes))
}
