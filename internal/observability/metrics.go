package observability

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	operationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "h3frame_operations_total",
			Help: "Accessor operations by name and outcome.",
		},
		[]string{"op", "outcome"},
	)

	operationDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "h3frame_operation_duration_seconds",
			Help:    "Duration of accessor operations in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.0001, 2, 16), // 100us to ~3s
		},
		[]string{"op"},
	)

	operationRowsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "h3frame_operation_rows_total",
			Help: "Input rows processed by accessor operations.",
		},
		[]string{"op"},
	)

	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "route", "status"},
	)

	httpRequestDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.005, 2, 12), // 5ms to ~20s
		},
		[]string{"method", "route", "status"},
	)

	cacheResults = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_results_total",
			Help: "Result cache lookups by tier and outcome.",
		},
		[]string{"tier", "outcome"},
	)

	cacheOpDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "cache_op_duration_seconds",
			Help:    "Duration of redis cache operations in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.0005, 2, 12),
		},
		[]string{"op", "outcome"},
	)

	ingestMessagesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ingest_messages_total",
			Help: "Ingest messages by outcome (ok, decode_error, duplicate, invalid).",
		},
		[]string{"outcome"},
	)

	ingestFlushesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ingest_flushes_total",
			Help: "Ingest batch flushes by outcome.",
		},
		[]string{"outcome"},
	)

	ingestBatchRows = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "ingest_batch_rows",
			Help:    "Events per flushed ingest batch.",
			Buckets: prometheus.ExponentialBuckets(1, 2, 14),
		},
	)
)

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// ObserveOperation records one accessor call over rows input rows.
func ObserveOperation(op string, rows int, took time.Duration, err error) {
	operationsTotal.WithLabelValues(op, outcome(err)).Inc()
	operationDurationSeconds.WithLabelValues(op).Observe(took.Seconds())
	if rows > 0 {
		operationRowsTotal.WithLabelValues(op).Add(float64(rows))
	}
}

func ObserveHTTP(method, route string, status int, durationSeconds float64) {
	st := strconv.Itoa(status)
	httpRequestsTotal.WithLabelValues(method, route, st).Inc()
	httpRequestDurationSeconds.WithLabelValues(method, route, st).Observe(durationSeconds)
}

func IncCacheHit(tier string) {
	cacheResults.WithLabelValues(tier, "hit").Inc()
}

func IncCacheMiss(tier string) {
	cacheResults.WithLabelValues(tier, "miss").Inc()
}

// CacheResultsCounter exposes one cache result series for assertions.
func CacheResultsCounter(tier, outcome string) prometheus.Counter {
	return cacheResults.WithLabelValues(tier, outcome)
}

// AddCacheResults records a multi-key lookup against one tier.
func AddCacheResults(tier string, hits, misses int) {
	if hits > 0 {
		cacheResults.WithLabelValues(tier, "hit").Add(float64(hits))
	}
	if misses > 0 {
		cacheResults.WithLabelValues(tier, "miss").Add(float64(misses))
	}
}

func ObserveCacheOp(op string, took time.Duration, err error) {
	cacheOpDurationSeconds.WithLabelValues(op, outcome(err)).Observe(took.Seconds())
}

func IncIngestMessage(result string) {
	ingestMessagesTotal.WithLabelValues(result).Inc()
}

func ObserveIngestFlush(rows int, err error) {
	ingestFlushesTotal.WithLabelValues(outcome(err)).Inc()
	if err == nil {
		ingestBatchRows.Observe(float64(rows))
	}
}
