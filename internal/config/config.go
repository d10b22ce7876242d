// Package config reads service settings from the environment.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type CacheCfg struct {
	Enabled     bool
	RedisAddr   string
	RedisPool   int
	LRUSize     int
	TTLDefault  time.Duration
	TTLOvr      map[string]time.Duration
	OpTimeout   time.Duration
	MaxBodySize int64
	// AdmitScore is the decayed request score a key needs before its result
	// is written to redis; 0 shares every result.
	AdmitScore  float64
	HotHalfLife time.Duration
}

type IngestCfg struct {
	Enabled       bool
	Brokers       []string
	InputTopic    string
	OutputTopic   string
	GroupID       string
	Res           int
	Reducer       string
	BatchSize     int
	FlushInterval time.Duration
	DedupeSize    int
	// SummaryTTL is how long the latest per-cell summary stays readable.
	SummaryTTL time.Duration
}

type Config struct {
	Addr            string
	LogLevel        string
	LogConsole      bool
	LogSampleN      int
	DefaultRes      int
	ShutdownTimeout time.Duration
	MetricsEnabled  bool
	MetricsPath     string
	// MaxK and MaxChildSteps bound the neighbor and children endpoints.
	MaxK          int
	MaxChildSteps int
	Cache         CacheCfg
	Ingest        IngestCfg
}

func FromEnv() Config {
	res := clampRes(getint("H3_RES", 9))
	ttlDefault := getduration("CACHE_TTL_DEFAULT", 5*time.Minute)

	return Config{
		Addr:            getenv("ADDR", ":8090"),
		LogLevel:        getenv("LOG_LEVEL", "info"),
		LogConsole:      getbool("LOG_CONSOLE", false),
		LogSampleN:      getint("LOG_SAMPLE_N", 0),
		DefaultRes:      res,
		ShutdownTimeout: getduration("SHUTDOWN_TIMEOUT", 10*time.Second),
		MetricsEnabled:  getbool("METRICS_ENABLED", true),
		MetricsPath:     getenv("METRICS_PATH", "/metrics"),
		MaxK:            getint("API_MAX_K", 50),
		MaxChildSteps:   getint("API_MAX_CHILD_STEPS", 5),
		Cache: CacheCfg{
			Enabled:     getbool("CACHE_ENABLED", false),
			RedisAddr:   getenv("REDIS_ADDR", ""),
			RedisPool:   getint("REDIS_POOL_SIZE", 32),
			LRUSize:     getint("CACHE_LRU_SIZE", 1024),
			TTLDefault:  ttlDefault,
			TTLOvr:      parseDurationMap(getenv("CACHE_TTL_OVERRIDES", "")),
			OpTimeout:   getduration("CACHE_OP_TIMEOUT", 250*time.Millisecond),
			MaxBodySize: int64(getint("MAX_BODY_BYTES", 32<<20)),
			AdmitScore:  getfloat("CACHE_ADMIT_SCORE", 0),
			HotHalfLife: getduration("CACHE_HOT_HALF_LIFE", time.Minute),
		},
		Ingest: IngestCfg{
			Enabled:       getbool("INGEST_ENABLED", false),
			Brokers:       splitList(getenv("KAFKA_BROKERS", "localhost:9092")),
			InputTopic:    getenv("INGEST_INPUT_TOPIC", "h3frame-points"),
			OutputTopic:   getenv("INGEST_OUTPUT_TOPIC", "h3frame-cells"),
			GroupID:       getenv("KAFKA_GROUP_ID", "h3frame-ingest"),
			Res:           clampRes(getint("INGEST_RES", res)),
			Reducer:       getenv("INGEST_REDUCER", "sum"),
			BatchSize:     getint("INGEST_BATCH_SIZE", 500),
			FlushInterval: getduration("INGEST_FLUSH_INTERVAL", 2*time.Second),
			DedupeSize:    getint("INGEST_DEDUPE_SIZE", 10000),
			SummaryTTL:    getduration("INGEST_SUMMARY_TTL", time.Hour),
		},
	}
}

// TTL returns the cache lifetime for an operation.
func (c CacheCfg) TTL(op string) time.Duration {
	if d, ok := c.TTLOvr[op]; ok {
		return d
	}
	return c.TTLDefault
}

func clampRes(r int) int {
	if r < 0 {
		return 0
	}
	if r > 15 {
		return 15
	}
	return r
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getint(k string, def int) int {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getbool(k string, def bool) bool {
	if v := os.Getenv(k); v != "" {
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "t", "true", "y", "yes":
			return true
		case "0", "f", "false", "n", "no":
			return false
		}
	}
	return def
}

func getfloat(k string, def float64) float64 {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func getduration(k string, def time.Duration) time.Duration {
	if v := os.Getenv(k); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func splitList(s string) []string {
	var out []string
	for p := range strings.SplitSeq(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// parse "index=1m,aggregate=10m" into map
func parseDurationMap(s string) map[string]time.Duration {
	out := map[string]time.Duration{}
	s = strings.TrimSpace(s)
	if s == "" {
		return out
	}
	for p := range strings.SplitSeq(s, ",") {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		kv := strings.SplitN(p, "=", 2)
		if len(kv) != 2 {
			continue
		}
		k := strings.TrimSpace(kv[0])
		v := strings.TrimSpace(kv[1])
		if k == "" {
			continue
		}
		if d, err := time.ParseDuration(v); err == nil {
			out[k] = d
		}
	}
	return out
}
