package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func decodeLine(t *testing.T, b []byte) map[string]any {
	t.Helper()
	var m map[string]any
	line := bytes.TrimSpace(b)
	if i := bytes.LastIndexByte(line, '\n'); i >= 0 {
		line = line[i+1:]
	}
	if err := json.Unmarshal(line, &m); err != nil {
		t.Fatalf("decode %q: %v", line, err)
	}
	return m
}

func TestBuild_StaticFields(t *testing.T) {
	var buf bytes.Buffer
	l := Build(Config{Level: "info", Component: "api", Version: "v1.2.3"}, &buf)
	l.Info().Msg("hello")

	m := decodeLine(t, buf.Bytes())
	if m["msg"] != "hello" || m["level"] != "info" {
		t.Fatalf("unexpected fields: %v", m)
	}
	if m["component"] != "api" || m["version"] != "v1.2.3" {
		t.Fatalf("static fields missing: %v", m)
	}
	if _, ok := m["timestamp"]; !ok {
		t.Fatalf("timestamp missing: %v", m)
	}
}

func TestBuild_LevelFilters(t *testing.T) {
	var buf bytes.Buffer
	l := Build(Config{Level: "warn"}, &buf)
	l.Info().Msg("dropped")
	if buf.Len() != 0 {
		t.Fatalf("info written at warn level: %q", buf.String())
	}
	l.Warn().Msg("kept")
	if !strings.Contains(buf.String(), "kept") {
		t.Fatalf("warn not written: %q", buf.String())
	}
	Build(Config{Level: "info"}, &buf)
}

func TestFromContext(t *testing.T) {
	var buf bytes.Buffer
	base := Build(Config{Level: "debug"}, &buf)
	defer Build(Config{Level: "info"}, &buf)

	ctx := WithRequestID(context.Background(), "req-1")
	ctx = WithOperation(ctx, "geo_to_h3")
	ctx = WithCacheTier(ctx, "")
	FromContext(ctx, &base).Debug().Msg("op")

	m := decodeLine(t, buf.Bytes())
	if m["request_id"] != "req-1" || m["operation"] != "geo_to_h3" {
		t.Fatalf("context fields missing: %v", m)
	}
	if _, ok := m["cache_tier"]; ok {
		t.Fatalf("empty tier must not be logged: %v", m)
	}
	if RequestID(ctx) != "req-1" {
		t.Fatalf("RequestID=%q", RequestID(ctx))
	}

	generated := WithRequestID(context.Background(), "")
	if len(RequestID(generated)) != 16 {
		t.Fatalf("generated id=%q", RequestID(generated))
	}
}

func TestNewSlog(t *testing.T) {
	var buf bytes.Buffer
	base := Build(Config{Level: "info"}, &buf)
	sl := NewSlog(&base).With("component", "ingest")

	ctx := WithRequestID(context.Background(), "r2")
	sl.WarnContext(ctx, "flush failed", slog.Int("rows", 3), slog.Bool("retry", false))

	m := decodeLine(t, buf.Bytes())
	if m["level"] != "warn" || m["msg"] != "flush failed" {
		t.Fatalf("unexpected: %v", m)
	}
	if m["rows"] != 3.0 || m["retry"] != false || m["component"] != "ingest" || m["request_id"] != "r2" {
		t.Fatalf("attrs missing: %v", m)
	}
}

func TestNewSlog_LevelsGroupsAndKinds(t *testing.T) {
	prev := zerolog.GlobalLevel()
	zerolog.SetGlobalLevel(zerolog.DebugLevel)
	t.Cleanup(func() { zerolog.SetGlobalLevel(prev) })

	var buf bytes.Buffer
	base := zerolog.New(&buf).Level(zerolog.WarnLevel)
	sl := NewSlog(&base)

	if sl.Enabled(context.Background(), slog.LevelInfo) {
		t.Fatalf("info must be disabled on a warn logger")
	}
	if !sl.Enabled(context.Background(), slog.LevelError) {
		t.Fatalf("error must be enabled on a warn logger")
	}
	sl.Info("dropped")
	if buf.Len() != 0 {
		t.Fatalf("info record written: %s", buf.String())
	}

	sl.WithGroup("batch").With("topic", "h3frame-cells").Error("publish failed",
		slog.Duration("took", 1500*time.Millisecond),
		slog.Any("err", errors.New("broker down")),
		slog.Group("cell", slog.String("id", "891e3097383ffff"), slog.Int("res", 9)),
		slog.Attr{},
	)

	m := decodeLine(t, buf.Bytes())
	want := map[string]any{
		"level":          "error",
		"batch.topic":    "h3frame-cells",
		"batch.took":     1500.0,
		"batch.err":      "broker down",
		"batch.cell.id":  "891e3097383ffff",
		"batch.cell.res": 9.0,
	}
	for k, v := range want {
		if m[k] != v {
			t.Fatalf("%s=%v want %v in %v", k, m[k], v, m)
		}
	}
	if _, ok := m[""]; ok {
		t.Fatalf("empty attr must be dropped: %v", m)
	}
}
