// Package metrics owns the service registry behind the /metrics endpoint.
package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const DefaultPath = "/metrics"

type BuildInfo struct {
	Version   string
	Revision  string
	BuildDate string
}

type Config struct {
	Path  string
	Build BuildInfo
	// DefaultRes is reported on the build info series.
	DefaultRes int
}

// Provider owns a registry for service-scoped collectors: build info, the
// result cache gauges and the ingest runner. Its handler serves them together
// with the default registry, where the accessor and HTTP collectors and the
// Go runtime collectors live.
type Provider struct {
	reg  *prometheus.Registry
	path string
}

func Init(cfg Config) *Provider {
	reg := prometheus.NewRegistry()

	build := prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "h3frame_build_info",
			Help: "Build info and default h3 resolution of this binary (value is always 1).",
		},
		[]string{"version", "revision", "build_date", "default_res"},
	)
	reg.MustRegister(build)
	v := cfg.Build
	if v.Version == "" {
		v.Version = "dev"
	}
	build.WithLabelValues(v.Version, v.Revision, v.BuildDate, strconv.Itoa(cfg.DefaultRes)).Set(1)

	path := cfg.Path
	if path == "" {
		path = DefaultPath
	}
	return &Provider{reg: reg, path: path}
}

// Path is where the handler is mounted.
func (p *Provider) Path() string { return p.path }

func (p *Provider) Handler() http.Handler {
	g := prometheus.Gatherers{prometheus.DefaultGatherer, p.reg}
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

// TrackResultCache exports the size and capacity of the in-process result
// cache, read at scrape time.
func (p *Provider) TrackResultCache(size func() int, capacity int) {
	p.reg.MustRegister(
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "result_cache_lru_entries",
			Help: "Entries held in the in-process result cache.",
		}, func() float64 { return float64(size()) }),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "result_cache_lru_capacity",
			Help: "Configured capacity of the in-process result cache.",
		}, func() float64 { return float64(capacity) }),
	)
}

func (p *Provider) Registerer() prometheus.Registerer { return p.reg }
