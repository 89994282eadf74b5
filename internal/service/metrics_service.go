package service

import (
	"net/http"
	"runtime"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/noah-isme/citedocs-api/internal/models"
)

// MetricsService owns the Prometheus registry of the registrar API and keeps
// running totals for the /system/metrics snapshot.
type MetricsService struct {
	handler http.Handler

	apiLatency    *prometheus.HistogramVec
	apiCalls      *prometheus.CounterVec
	cacheReads    *prometheus.CounterVec
	cacheLatency  prometheus.Histogram
	cacheWrites   prometheus.Histogram
	cacheHitRatio prometheus.Gauge
	storeReads    *prometheus.HistogramVec
	transitions   *prometheus.CounterVec
	notifications *prometheus.CounterVec

	apiCallCount      uint64
	apiLatencyTotal   uint64
	cacheHitCount     uint64
	cacheMissCount    uint64
	storeReadCount    uint64
	storeLatencyTotal uint64
	transitionCount   uint64
	notifySent        uint64
	notifyFailed      uint64
}

// NewMetricsService registers the API, cache, store and workflow collectors.
func NewMetricsService() *MetricsService {
	m := &MetricsService{
		apiLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Latency of registrar API calls by route pattern",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path", "status"}),
		apiCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Registrar API calls by route pattern and response status",
		}, []string{"method", "path", "status"}),
		cacheReads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cache_lookups_total",
			Help: "Document catalogue and request stats cache lookups by result",
		}, []string{"result"}),
		cacheLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "cache_latency_seconds",
			Help:    "Latency of cache lookups for catalogue and stats payloads",
			Buckets: prometheus.DefBuckets,
		}),
		cacheWrites: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "cache_write_seconds",
			Help:    "Latency of cache writes for catalogue and stats payloads",
			Buckets: prometheus.DefBuckets,
		}),
		cacheHitRatio: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "cache_hit_ratio",
			Help: "Share of cache lookups served without reading the request store",
		}),
		storeReads: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "db_query_duration_seconds",
			Help:    "Latency of request store reads by query",
			Buckets: prometheus.DefBuckets,
		}, []string{"query"}),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "request_status_transitions_total",
			Help: "Accepted request status changes by source and target status",
		}, []string{"from", "to"}),
		notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "notification_jobs_total",
			Help: "Status change notification attempts by outcome",
		}, []string{"result"}),
	}

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Goroutines alive in the API process",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry := prometheus.NewRegistry()
	registry.MustRegister(m.apiLatency, m.apiCalls, m.cacheReads, m.cacheLatency, m.cacheWrites, m.cacheHitRatio,
		m.storeReads, m.transitions, m.notifications, goroutines)
	m.handler = promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
	return m
}

// Handler serves the Prometheus exposition. A nil service answers 503.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// ObserveHTTPRequest records one API call.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	code := strconv.Itoa(status)
	m.apiLatency.WithLabelValues(method, path, code).Observe(duration.Seconds())
	m.apiCalls.WithLabelValues(method, path, code).Inc()
	atomic.AddUint64(&m.apiCallCount, 1)
	atomic.AddUint64(&m.apiLatencyTotal, uint64(duration.Nanoseconds()))
}

// RecordCacheOperation records a cache lookup and refreshes the hit ratio.
func (m *MetricsService) RecordCacheOperation(hit bool, duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheLatency.Observe(duration.Seconds())
	if hit {
		m.cacheReads.WithLabelValues("hit").Inc()
		atomic.AddUint64(&m.cacheHitCount, 1)
	} else {
		m.cacheReads.WithLabelValues("miss").Inc()
		atomic.AddUint64(&m.cacheMissCount, 1)
	}
	m.cacheHitRatio.Set(ratio(atomic.LoadUint64(&m.cacheHitCount), atomic.LoadUint64(&m.cacheMissCount)))
}

// ObserveCacheWrite records a cache write.
func (m *MetricsService) ObserveCacheWrite(duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheWrites.Observe(duration.Seconds())
}

// ObserveDBQuery records a request store read under label.
func (m *MetricsService) ObserveDBQuery(label string, duration time.Duration) {
	if m == nil {
		return
	}
	m.storeReads.WithLabelValues(label).Observe(duration.Seconds())
	atomic.AddUint64(&m.storeReadCount, 1)
	atomic.AddUint64(&m.storeLatencyTotal, uint64(duration.Nanoseconds()))
}

// ObserveStatusTransition counts an accepted status change.
func (m *MetricsService) ObserveStatusTransition(from, to models.RequestStatus) {
	if m == nil {
		return
	}
	m.transitions.WithLabelValues(string(from), string(to)).Inc()
	atomic.AddUint64(&m.transitionCount, 1)
}

// ObserveNotificationJob counts one notification attempt.
func (m *MetricsService) ObserveNotificationJob(err error) {
	if m == nil {
		return
	}
	if err != nil {
		m.notifications.WithLabelValues("failure").Inc()
		atomic.AddUint64(&m.notifyFailed, 1)
		return
	}
	m.notifications.WithLabelValues("success").Inc()
	atomic.AddUint64(&m.notifySent, 1)
}

// Snapshot returns the totals shown on the registrar system metrics page.
func (m *MetricsService) Snapshot() models.SystemMetrics {
	if m == nil {
		return models.SystemMetrics{}
	}
	hits := atomic.LoadUint64(&m.cacheHitCount)
	misses := atomic.LoadUint64(&m.cacheMissCount)
	calls := atomic.LoadUint64(&m.apiCallCount)
	reads := atomic.LoadUint64(&m.storeReadCount)

	return models.SystemMetrics{
		CacheHitRatio:            ratio(hits, misses),
		CacheHits:                hits,
		CacheMisses:              misses,
		RequestsTotal:            calls,
		AverageRequestDurationMs: averageMs(atomic.LoadUint64(&m.apiLatencyTotal), calls),
		DBQueryCount:             reads,
		AverageDBQueryDurationMs: averageMs(atomic.LoadUint64(&m.storeLatencyTotal), reads),
		StatusTransitions:        atomic.LoadUint64(&m.transitionCount),
		NotificationsSent:        atomic.LoadUint64(&m.notifySent),
		NotificationsFailed:      atomic.LoadUint64(&m.notifyFailed),
		Goroutines:               runtime.NumGoroutine(),
		GeneratedAt:              time.Now().UTC(),
	}
}

func ratio(hits, misses uint64) float64 {
	if hits+misses == 0 {
		return 0
	}
	return float64(hits) / float64(hits+misses)
}

func averageMs(totalNanos, count uint64) float64 {
	if count == 0 {
		return 0
	}
	return float64(totalNanos) / float64(count) / float64(time.Millisecond)
}
