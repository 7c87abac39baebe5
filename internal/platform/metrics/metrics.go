package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus instruments for the registry service.
type Metrics struct {
	RegistrationsTotal          prometheus.Counter
	DuplicateRegistrationsTotal prometheus.Counter
	LookupsTotal                *prometheus.CounterVec
	LookupDuration              *prometheus.HistogramVec
	CacheHitsTotal              prometheus.Counter
	CacheMissesTotal            prometheus.Counter
	AuditAppendFailuresTotal    prometheus.Counter
	OutboxPublishedTotal        prometheus.Counter
	OutboxPublishFailuresTotal  prometheus.Counter
	RequestDuration             *prometheus.HistogramVec
}

// New creates and registers all Prometheus metrics on the default registerer.
func New() *Metrics {
	return &Metrics{
		RegistrationsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "foodtrust_registrations_total",
			Help: "Total number of successful product registrations",
		}),
		DuplicateRegistrationsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "foodtrust_duplicate_registrations_total",
			Help: "Total number of registrations rejected as already registered",
		}),
		LookupsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "foodtrust_lookups_total",
			Help: "Total number of verification lookups by operation and result",
		}, []string{"operation", "result"}),
		LookupDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "foodtrust_lookup_duration_seconds",
			Help:    "Latency of verification lookups",
			Buckets: prometheus.DefBuckets,
		}, []string{"operation"}),
		CacheHitsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "foodtrust_record_cache_hits_total",
			Help: "Total number of product record cache hits",
		}),
		CacheMissesTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "foodtrust_record_cache_misses_total",
			Help: "Total number of product record cache misses",
		}),
		AuditAppendFailuresTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "foodtrust_audit_append_failures_total",
			Help: "Total number of failed audit event appends",
		}),
		OutboxPublishedTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "foodtrust_outbox_published_total",
			Help: "Total number of audit events published from the outbox",
		}),
		OutboxPublishFailuresTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "foodtrust_outbox_publish_failures_total",
			Help: "Total number of failed outbox publish attempts",
		}),
		RequestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "foodtrust_http_request_duration_seconds",
			Help:    "Latency of HTTP requests by route and status",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
	}
}

// RecordLookup records one verification lookup outcome.
func (m *Metrics) RecordLookup(operation, result string, seconds float64) {
	if m == nil || m.LookupsTotal == nil {
		return
	}
	m.LookupsTotal.WithLabelValues(operation, result).Inc()
	m.LookupDuration.WithLabelValues(operation).Observe(seconds)
}

// RecordCacheHit increments the record cache hit counter.
func (m *Metrics) RecordCacheHit() {
	if m == nil || m.CacheHitsTotal == nil {
		return
	}
	m.CacheHitsTotal.Inc()
}

// RecordCacheMiss increments the record cache miss counter.
func (m *Metrics) RecordCacheMiss() {
	if m == nil || m.CacheMissesTotal == nil {
		return
	}
	m.CacheMissesTotal.Inc()
}
