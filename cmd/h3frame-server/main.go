package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/mohammed-shakir/h3-frame/internal/api"
	"github.com/mohammed-shakir/h3-frame/internal/cache"
	"github.com/mohammed-shakir/h3-frame/internal/cache/hotness"
	"github.com/mohammed-shakir/h3-frame/internal/cache/redisstore"
	"github.com/mohammed-shakir/h3-frame/internal/config"
	"github.com/mohammed-shakir/h3-frame/internal/health"
	"github.com/mohammed-shakir/h3-frame/internal/ingest"
	"github.com/mohammed-shakir/h3-frame/internal/logger"
	h3mapper "github.com/mohammed-shakir/h3-frame/internal/mapper/h3"
	"github.com/mohammed-shakir/h3-frame/internal/metrics"
	"github.com/mohammed-shakir/h3-frame/internal/server"
)

var Version = "dev"

func main() {
	os.Exit(run())
}

func run() int {
	addrFlag := flag.String("addr", "", "listen address (overrides ADDR)")
	flag.Parse()

	cfg := config.FromEnv()
	if *addrFlag != "" {
		cfg.Addr = *addrFlag
	}

	zl := logger.Build(logger.Config{
		Level:     cfg.LogLevel,
		Console:   cfg.LogConsole,
		SampleN:   cfg.LogSampleN,
		Component: "server",
		Version:   Version,
	}, os.Stdout)
	appLog := logger.NewSlog(&zl)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	appLog.Info("starting h3frame server",
		"addr", cfg.Addr,
		"version", Version,
		"default_res", cfg.DefaultRes,
		"cache", cfg.Cache.Enabled,
		"ingest", cfg.Ingest.Enabled)

	var (
		prov   *metrics.Provider
		reg    prometheus.Registerer
		checks []health.Check
	)
	if cfg.MetricsEnabled {
		prov = metrics.Init(metrics.Config{
			Path:       cfg.MetricsPath,
			DefaultRes: cfg.DefaultRes,
			Build: metrics.BuildInfo{
				Version:   Version,
				Revision:  os.Getenv("BUILD_REVISION"),
				BuildDate: os.Getenv("BUILD_DATE"),
			},
		})
		reg = prov.Registerer()
	}

	// redis backs the shared result tier and the per-cell summaries
	var rc *redisstore.Client
	if cfg.Cache.RedisAddr != "" && (cfg.Cache.Enabled || cfg.Ingest.Enabled) {
		var err error
		rc, err = redisstore.New(ctx, cfg.Cache.RedisAddr,
			redisstore.WithPoolSize(cfg.Cache.RedisPool),
			redisstore.WithTimeout(cfg.Cache.OpTimeout))
		if err != nil {
			appLog.Error("redis unavailable", "addr", cfg.Cache.RedisAddr, "err", err)
			return 1
		}
		defer func() { _ = rc.Close() }()
		checks = append(checks, health.Check{Name: "redis", Func: rc.Ping})
	}

	var results *cache.Results
	if cfg.Cache.Enabled {
		copts := []cache.Option{
			cache.WithOpTimeout(cfg.Cache.OpTimeout),
			cache.WithLogger(zl.With().Str("component", "cache").Logger()),
		}
		if rc != nil {
			copts = append(copts, cache.WithRemote(rc))
			if cfg.Cache.AdmitScore > 0 {
				tr := hotness.New(cfg.Cache.HotHalfLife, 4*cfg.Cache.LRUSize)
				copts = append(copts, cache.WithAdmission(tr, cfg.Cache.AdmitScore))
			}
		}
		results = cache.New(cfg.Cache.LRUSize, copts...)
		if prov != nil {
			prov.TrackResultCache(results.Len, cfg.Cache.LRUSize)
		}
	}

	var summaries api.SummaryReader
	if cfg.Ingest.Enabled {
		iopts := ingest.Options{
			Logger:   appLog.With("component", "ingest"),
			Register: reg,
		}
		if rc != nil {
			iopts.Summaries = rc
			summaries = rc
		}
		runner, err := ingest.New(cfg.Ingest, h3mapper.New(), iopts)
		if err != nil {
			appLog.Error("ingest setup failed", "err", err)
			return 1
		}
		if err := runner.Start(ctx); err != nil {
			appLog.Error("ingest start failed", "err", err)
			return 1
		}
		defer runner.Stop()
		checks = append(checks, health.Check{Name: "ingest", Func: runner.Ready})
	}

	h := api.New(api.Options{
		Logger:        zl.With().Str("component", "api").Logger(),
		Cache:         results,
		TTL:           cfg.Cache.TTL,
		DefaultRes:    cfg.DefaultRes,
		MaxBodyBytes:  cfg.Cache.MaxBodySize,
		MaxK:          cfg.MaxK,
		MaxChildSteps: cfg.MaxChildSteps,
		Summaries:     summaries,
	})

	deps := server.Deps{API: h, Metrics: prov, Checks: checks}
	if err := server.Run(ctx, cfg, appLog, deps); err != nil {
		appLog.Error("server exited with error", "err", err)
		return 1
	}
	appLog.Info("server stopped")
	return 0
}
