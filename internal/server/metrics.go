package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Veraticus/business-anzsic-locator/internal/model"
)

// Metrics holds the HTTP and resolver collectors on a private registry. It implements
// engine.Recorder.
type Metrics struct {
	registry *prometheus.Registry

	requestTotal     *prometheus.CounterVec
	requestDuration  *prometheus.HistogramVec
	requestInFlight  prometheus.Gauge
	lookupTotal      *prometheus.CounterVec
	lookupDuration   prometheus.Histogram
	candidateTotal   *prometheus.CounterVec
	escalationTotal  prometheus.Counter
	nearbyCandidates prometheus.Histogram
	rateLimitedTotal prometheus.Counter
}

// NewMetrics registers every collector on a fresh registry.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		requestTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "anzsic",
				Subsystem: "http",
				Name:      "requests_total",
				Help:      "Total HTTP requests processed.",
			},
			[]string{"method", "path", "status"},
		),
		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "anzsic",
				Subsystem: "http",
				Name:      "request_duration_seconds",
				Help:      "HTTP request duration in seconds.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		requestInFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "anzsic",
			Subsystem: "http",
			Name:      "requests_in_flight",
			Help:      "Number of in-flight HTTP requests.",
		}),
		lookupTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "anzsic",
				Subsystem: "resolver",
				Name:      "lookups_total",
				Help:      "Address lookups by outcome status.",
			},
			[]string{"status"},
		),
		lookupDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "anzsic",
			Subsystem: "resolver",
			Name:      "lookup_duration_seconds",
			Help:      "Address lookup duration in seconds.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		}),
		candidateTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "anzsic",
				Subsystem: "resolver",
				Name:      "candidates_total",
				Help:      "Classified candidates by match method.",
			},
			[]string{"match_method"},
		),
		escalationTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "anzsic",
			Subsystem: "resolver",
			Name:      "nearby_escalations_total",
			Help:      "Generic addresses replaced by nearby businesses.",
		}),
		nearbyCandidates: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "anzsic",
			Subsystem: "resolver",
			Name:      "nearby_candidates",
			Help:      "Businesses found per nearby escalation.",
			Buckets:   []float64{1, 2, 3, 5, 8, 12, 20},
		}),
		rateLimitedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "anzsic",
			Subsystem: "http",
			Name:      "rate_limited_total",
			Help:      "Requests rejected by the rate limiter.",
		}),
	}

	registry.MustRegister(
		m.requestTotal,
		m.requestDuration,
		m.requestInFlight,
		m.lookupTotal,
		m.lookupDuration,
		m.candidateTotal,
		m.escalationTotal,
		m.nearbyCandidates,
		m.rateLimitedTotal,
	)

	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveLookup records one resolver query.
func (m *Metrics) ObserveLookup(status string, duration time.Duration) {
	if status == "" {
		status = "unknown"
	}
	m.lookupTotal.WithLabelValues(status).Inc()
	m.lookupDuration.Observe(duration.Seconds())
}

// ObserveCandidate records the tier that classified a candidate.
func (m *Metrics) ObserveCandidate(method model.MatchMethod) {
	m.candidateTotal.WithLabelValues(string(method)).Inc()
}

// ObserveEscalation records a nearby search that produced candidates.
func (m *Metrics) ObserveEscalation(candidates int) {
	m.escalationTotal.Inc()
	m.nearbyCandidates.Observe(float64(candidates))
}

func (m *Metrics) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}

		m.requestInFlight.Inc()
		defer m.requestInFlight.Dec()

		next.ServeHTTP(recorder, r)

		m.requestTotal.WithLabelValues(r.Method, r.URL.Path, strconv.Itoa(recorder.statusCode)).Inc()
		m.requestDuration.WithLabelValues(r.Method, r.URL.Path).Observe(time.Since(start).Seconds())
	})
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (w *statusRecorder) WriteHeader(statusCode int) {
	w.statusCode = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}
