package prometheus

import (
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
)

// AppMetrics bundles every metric the retrieval service emits.
type AppMetrics struct {
	QueriesTotal   *prometheus.CounterVec
	QueryDuration  *prometheus.HistogramVec
	QueryRows      *prometheus.HistogramVec
	CacheHitsTotal *prometheus.CounterVec
	HTTPRequests   *prometheus.CounterVec
	HTTPDuration   *prometheus.HistogramVec
}

// NewAppMetrics registers the retrieval metrics on the collector.
// Operation labels: term, location, dissoc_term, dissoc_location.
func NewAppMetrics(c *Collector) *AppMetrics {
	return &AppMetrics{
		QueriesTotal: c.CounterVec("queries_total",
			"Retrieval operations executed, by operation and result.",
			"operation", "result"),
		QueryDuration: c.HistogramVec("query_duration_seconds",
			"Store query latency by operation.",
			[]float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
			"operation"),
		QueryRows: c.HistogramVec("query_rows",
			"Rows returned per retrieval operation.",
			[]float64{0, 1, 5, 10, 25, 50, 100, 250, 500},
			"operation"),
		CacheHitsTotal: c.CounterVec("cache_requests_total",
			"Result cache lookups, by operation and outcome (hit/miss).",
			"operation", "outcome"),
		HTTPRequests: c.CounterVec("http_requests_total",
			"HTTP requests by method, route and status.",
			"method", "route", "status"),
		HTTPDuration: c.HistogramVec("http_request_duration_seconds",
			"HTTP request latency by route.",
			nil,
			"route"),
	}
}

// ObserveQuery records one completed store query.
func (m *AppMetrics) ObserveQuery(operation string, dur time.Duration, rows int, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.QueriesTotal.WithLabelValues(operation, result).Inc()
	m.QueryDuration.WithLabelValues(operation).Observe(dur.Seconds())
	if err == nil {
		m.QueryRows.WithLabelValues(operation).Observe(float64(rows))
	}
}

// ObserveCache records one cache lookup outcome.
func (m *AppMetrics) ObserveCache(operation string, hit bool) {
	outcome := "miss"
	if hit {
		outcome = "hit"
	}
	m.CacheHitsTotal.WithLabelValues(operation, outcome).Inc()
}

// RegisterPoolGauges exports pgx pool statistics as gauges.
func RegisterPoolGauges(c *Collector, pool *pgxpool.Pool) {
	c.GaugeFunc("db_pool_total_conns", "Total connections in the pool.",
		func() float64 { return float64(pool.Stat().TotalConns()) })
	c.GaugeFunc("db_pool_idle_conns", "Idle connections in the pool.",
		func() float64 { return float64(pool.Stat().IdleConns()) })
	c.GaugeFunc("db_pool_acquired_conns", "Connections currently acquired.",
		func() float64 { return float64(pool.Stat().AcquiredConns()) })
}
