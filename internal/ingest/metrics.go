package ingest

import (
	"github.com/prometheus/client_golang/prometheus"
)

type metricSet struct {
	msgs     *prometheus.CounterVec
	cells    prometheus.Counter
	flush    prometheus.Histogram
	lagGauge prometheus.Gauge
}

func newMetricSet(r prometheus.Registerer) *metricSet {
	m := &metricSet{
		msgs: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ingest_runner_msgs_total",
				Help: "Count of consumed point messages by result.",
			},
			[]string{"result"},
		),
		cells: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "ingest_runner_cells_published_total",
				Help: "Cell summaries written to the output topic.",
			},
		),
		flush: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "ingest_runner_flush_seconds",
				Help:    "Time to aggregate and publish one batch.",
				Buckets: prometheus.ExponentialBuckets(0.001, 2, 15),
			},
		),
		lagGauge: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "ingest_runner_lag_seconds",
				Help: "Approximate lag: now - message.timestamp.",
			},
		),
	}
	if r != nil {
		r.MustRegister(m.msgs, m.cells, m.flush, m.lagGauge)
	}
	return m
}
