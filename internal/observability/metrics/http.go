package metrics

import (
	"bufio"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type HTTPServerMetrics struct {
	registry *prometheus.Registry

	requestTotal    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	requestInFlight prometheus.Gauge

	matchesTotal            *prometheus.CounterVec
	matchDuration           *prometheus.HistogramVec
	matchHits               *prometheus.HistogramVec
	intentDegradationsTotal *prometheus.CounterVec
	profileDegradations     *prometheus.CounterVec
	explanationsTotal       *prometheus.CounterVec
	vocabularyReloadsTotal  *prometheus.CounterVec
}

func NewHTTPServerMetrics(service string) *HTTPServerMetrics {
	registry := prometheus.NewRegistry()

	requestTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "cvm",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests processed.",
		},
		[]string{"service", "method", "path", "status"},
	)
	requestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "cvm",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "method", "path"},
	)
	requestInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "cvm",
			Subsystem: "http",
			Name:      "in_flight_requests",
			Help:      "Number of in-flight HTTP requests.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	matchesTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "cvm",
			Subsystem: "match",
			Name:      "requests_total",
			Help:      "Total completed match requests by result.",
		},
		[]string{"service", "result"},
	)
	matchDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "cvm",
			Subsystem: "match",
			Name:      "duration_seconds",
			Help:      "Match pipeline duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service"},
	)
	matchHits := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "cvm",
			Subsystem: "match",
			Name:      "hits",
			Help:      "Distribution of returned hits per match request.",
			Buckets:   []float64{0, 1, 2, 3, 5, 8, 13, 21},
		},
		[]string{"service"},
	)
	intentDegradationsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "cvm",
			Subsystem: "match",
			Name:      "intent_degradations_total",
			Help:      "Total match requests served with the all-nil fallback intent.",
		},
		[]string{"service"},
	)
	profileDegradations := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "cvm",
			Subsystem: "match",
			Name:      "profile_degradations_total",
			Help:      "Total match requests served with an empty fallback profile.",
		},
		[]string{"service"},
	)
	explanationsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "cvm",
			Subsystem: "match",
			Name:      "explanations_total",
			Help:      "Total requested match explanations by status.",
		},
		[]string{"service", "status"},
	)
	vocabularyReloadsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "cvm",
			Subsystem: "vocabulary",
			Name:      "reloads_total",
			Help:      "Total vocabulary snapshot reloads by status.",
		},
		[]string{"service", "status"},
	)

	registry.MustRegister(
		requestTotal,
		requestDuration,
		requestInFlight,
		matchesTotal,
		matchDuration,
		matchHits,
		intentDegradationsTotal,
		profileDegradations,
		explanationsTotal,
		vocabularyReloadsTotal,
	)

	return &HTTPServerMetrics{
		registry:                registry,
		requestTotal:            requestTotal,
		requestDuration:         requestDuration,
		requestInFlight:         requestInFlight,
		matchesTotal:            matchesTotal,
		matchDuration:           matchDuration,
		matchHits:               matchHits,
		intentDegradationsTotal: intentDegradationsTotal,
		profileDegradations:     profileDegradations,
		explanationsTotal:       explanationsTotal,
		vocabularyReloadsTotal:  vocabularyReloadsTotal,
	}
}

func (m *HTTPServerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *HTTPServerMetrics) Middleware(service string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := &statusRecorder{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		m.requestInFlight.Inc()
		defer m.requestInFlight.Dec()

		next.ServeHTTP(recorder, r)

		m.requestTotal.WithLabelValues(
			service,
			r.Method,
			r.URL.Path,
			strconv.Itoa(recorder.statusCode),
		).Inc()
		m.requestDuration.WithLabelValues(service, r.Method, r.URL.Path).Observe(time.Since(start).Seconds())
	})
}

func (m *HTTPServerMetrics) RecordMatch(service string, hits int, duration time.Duration) {
	result := "hit"
	if hits == 0 {
		result = "no_hit"
	}
	m.matchesTotal.WithLabelValues(service, result).Inc()
	m.matchHits.WithLabelValues(service).Observe(float64(hits))
	m.matchDuration.WithLabelValues(service).Observe(duration.Seconds())
}

func (m *HTTPServerMetrics) RecordIntentDegradation(service string) {
	m.intentDegradationsTotal.WithLabelValues(service).Inc()
}

func (m *HTTPServerMetrics) RecordProfileDegradation(service string) {
	m.profileDegradations.WithLabelValues(service).Inc()
}

func (m *HTTPServerMetrics) RecordExplanation(service string, degraded bool) {
	status := "ok"
	if degraded {
		status = "error"
	}
	m.explanationsTotal.WithLabelValues(service, status).Inc()
}

func (m *HTTPServerMetrics) RecordVocabularyReload(service string, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.vocabularyReloadsTotal.WithLabelValues(service, status).Inc()
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (w *statusRecorder) WriteHeader(statusCode int) {
	w.statusCode = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}

func (w *statusRecorder) Flush() {
	flusher, ok := w.ResponseWriter.(http.Flusher)
	if ok {
		flusher.Flush()
	}
}

func (w *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hijacker, ok := w.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("response writer does not implement http.Hijacker")
	}
	return hijacker.Hijack()
}

func (w *statusRecorder) Push(target string, opts *http.PushOptions) error {
	pusher, ok := w.ResponseWriter.(http.Pusher)
	if !ok {
		return http.ErrNotSupported
	}
	return pusher.Push(target, opts)
}
