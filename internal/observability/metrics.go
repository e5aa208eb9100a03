package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds every custom metric the application exposes.
type Metrics struct {
	// HTTP Metrics
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge

	// Authentication Metrics
	LoginsTotal            *prometheus.CounterVec
	SessionsCreatedTotal   prometheus.Counter
	SessionsDestroyedTotal prometheus.Counter

	// Cache (Redis) Metrics
	CacheHitsTotal   *prometheus.CounterVec
	CacheMissesTotal *prometheus.CounterVec

	// Note Metrics
	NotesCreatedTotal prometheus.Counter
	NotesDeletedTotal prometheus.Counter
}

func NewMetrics() *Metrics {
	return &Metrics{
		HTTPRequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "endpoint", "status"},
		),

		HTTPRequestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Duration of HTTP requests in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "endpoint"},
		),

		HTTPRequestsInFlight: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "http_requests_in_flight",
				Help: "Number of HTTP requests currently being processed",
			},
		),

		LoginsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "logins_total",
				Help: "Total number of login attempts",
			},
			[]string{"outcome"}, // outcome: success, failure
		),

		SessionsCreatedTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "sessions_created_total",
				Help: "Total number of sessions issued",
			},
		),

		SessionsDestroyedTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "sessions_destroyed_total",
				Help: "Total number of sessions destroyed by logout",
			},
		),

		CacheHitsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cache_hits_total",
				Help: "Total number of cache hits",
			},
			[]string{"cache"}, // cache: user, notes
		),

		CacheMissesTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cache_misses_total",
				Help: "Total number of cache misses",
			},
			[]string{"cache"},
		),

		NotesCreatedTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "notes_created_total",
				Help: "Total number of notes created",
			},
		),

		NotesDeletedTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "notes_deleted_total",
				Help: "Total number of notes deleted",
			},
		),
	}
}

// GlobalMetrics is the process-wide metrics instance, set once by InitMetrics.
var GlobalMetrics *Metrics

func InitMetrics() {
	GlobalMetrics = NewMetrics()
}

// Nil-safe recording helpers so domain code never has to care whether
// metrics were initialized (they are not in unit tests).

func RecordCacheHit(cacheName string) {
	if GlobalMetrics != nil {
		GlobalMetrics.CacheHitsTotal.WithLabelValues(cacheName).Inc()
	}
}

func RecordCacheMiss(cacheName string) {
	if GlobalMetrics != nil {
		GlobalMetrics.CacheMissesTotal.WithLabelValues(cacheName).Inc()
	}
}

func RecordLogin(outcome string) {
	if GlobalMetrics != nil {
		GlobalMetrics.LoginsTotal.WithLabelValues(outcome).Inc()
	}
}

func RecordSessionCreated() {
	if GlobalMetrics != nil {
		GlobalMetrics.SessionsCreatedTotal.Inc()
	}
}

func RecordSessionDestroyed() {
	if GlobalMetrics != nil {
		GlobalMetrics.SessionsDestroyedTotal.Inc()
	}
}

func RecordNoteCreated() {
	if GlobalMetrics != nil {
		GlobalMetrics.NotesCreatedTotal.Inc()
	}
}

func RecordNoteDeleted() {
	if GlobalMetrics != nil {
		GlobalMetrics.NotesDeletedTotal.Inc()
	}
}
