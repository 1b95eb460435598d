package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	dto "github.com/prometheus/client_model/go"

	"github.com/imelnik/fintrack/internal/domain"
)

// Metrics holds all Prometheus metrics for the reporting API.
type Metrics struct {
	// Registry is the Prometheus registry that owns these metrics.
	// Exposed so the /metrics endpoint can use it.
	Registry *prometheus.Registry

	requestDuration *prometheus.HistogramVec
	cacheHits       *prometheus.CounterVec
	cacheMisses     *prometheus.CounterVec
	cacheErrors     *prometheus.CounterVec
	storeErrors     *prometheus.CounterVec
	plansInserted   prometheus.Counter
	requestsTotal   *prometheus.CounterVec
}

// NewMetrics creates a dedicated Prometheus registry and registers all
// application metrics in it. Using a private registry avoids "duplicate
// collector" panics when NewMetrics is called more than once (e.g. in tests).
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,

		requestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "fintrack_request_duration_seconds",
				Help:    "Duration of requests by operation.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		cacheHits: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fintrack_cache_hits_total",
				Help: "Total cache hits.",
			},
			[]string{"report"},
		),
		cacheMisses: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fintrack_cache_misses_total",
				Help: "Total cache misses.",
			},
			[]string{"report"},
		),
		cacheErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fintrack_cache_errors_total",
				Help: "Total cache client errors (treated as misses).",
			},
			[]string{"report"},
		),
		storeErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fintrack_store_errors_total",
				Help: "Total data store errors.",
			},
			[]string{"operation"},
		),
		plansInserted: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "fintrack_plans_inserted_total",
				Help: "Total plan rows inserted via upload.",
			},
		),
		requestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fintrack_requests_total",
				Help: "Total requests processed.",
			},
			[]string{"status"},
		),
	}
}

// RecordRequestDuration records the duration of an operation.
func (m *Metrics) RecordRequestDuration(operation string, d time.Duration) {
	m.requestDuration.WithLabelValues(operation).Observe(d.Seconds())
}

// IncrCacheHit increments the cache hit counter for a report namespace.
func (m *Metrics) IncrCacheHit(report string) {
	m.cacheHits.WithLabelValues(report).Inc()
}

// IncrCacheMiss increments the cache miss counter.
func (m *Metrics) IncrCacheMiss(report string) {
	m.cacheMisses.WithLabelValues(report).Inc()
}

// IncrCacheError increments the cache error counter.
func (m *Metrics) IncrCacheError(report string) {
	m.cacheErrors.WithLabelValues(report).Inc()
}

// IncrStoreError increments the data store error counter.
func (m *Metrics) IncrStoreError(operation string) {
	m.storeErrors.WithLabelValues(operation).Inc()
}

// AddPlansInserted records successfully inserted plan rows.
func (m *Metrics) AddPlansInserted(n int) {
	m.plansInserted.Add(float64(n))
}

// IncrRequest increments the request counter with a status label.
func (m *Metrics) IncrRequest(status string) {
	m.requestsTotal.WithLabelValues(status).Inc()
}

// GetCacheSnapshot returns cumulative cache effectiveness per report,
// suitable for the GET /v1/metrics/cache endpoint.
func (m *Metrics) GetCacheSnapshot() *domain.CacheMetrics {
	reports := []string{"year_performance", "user_credits", "plans_performance"}

	snap := &domain.CacheMetrics{PerReport: make(map[string]domain.CacheReportStats, len(reports))}
	for _, report := range reports {
		hits := getCounterValue(m.cacheHits, report)
		misses := getCounterValue(m.cacheMisses, report)
		errs := getCounterValue(m.cacheErrors, report)

		hitRate := float64(0)
		if hits+misses > 0 {
			hitRate = hits / (hits + misses)
		}
		snap.PerReport[report] = domain.CacheReportStats{
			Hits:    int64(hits),
			Misses:  int64(misses),
			Errors:  int64(errs),
			HitRate: hitRate,
		}
		snap.Hits += int64(hits)
		snap.Misses += int64(misses)
	}
	if snap.Hits+snap.Misses > 0 {
		snap.HitRate = float64(snap.Hits) / float64(snap.Hits+snap.Misses)
	}
	return snap
}

// getCounterValue extracts the current float64 value from a CounterVec for a given label.
func getCounterValue(cv *prometheus.CounterVec, label string) float64 {
	counter := cv.WithLabelValues(label)
	m := &dto.Metric{}
	if err := counter.(prometheus.Metric).Write(m); err != nil {
		return 0
	}
	if m.Counter != nil && m.Counter.Value != nil {
		return *m.Counter.Value
	}
	return 0
}
