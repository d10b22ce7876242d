package observability

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetricsHandler_Smoke(t *testing.T) {
	ObserveHTTP("GET", "/v1/index", 200, 0.001)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rr := httptest.NewRecorder()
	promhttp.Handler().ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d want 200", rr.Code)
	}
	body := rr.Body.String()
	if !strings.Contains(body, "http_requests_total") {
		t.Fatalf("metrics payload did not contain expected metric names; got:\n%s", body)
	}
}

func TestObserveOperation_CountsOutcomeAndRows(t *testing.T) {
	before := testutil.ToFloat64(operationsTotal.WithLabelValues("test_op", "error"))
	rowsBefore := testutil.ToFloat64(operationRowsTotal.WithLabelValues("test_op"))

	ObserveOperation("test_op", 3, time.Millisecond, errors.New("boom"))
	ObserveOperation("test_op", 2, time.Millisecond, nil)

	if got := testutil.ToFloat64(operationsTotal.WithLabelValues("test_op", "error")); got != before+1 {
		t.Fatalf("error outcome=%v want %v", got, before+1)
	}
	if got := testutil.ToFloat64(operationRowsTotal.WithLabelValues("test_op")); got != rowsBefore+5 {
		t.Fatalf("rows=%v want %v", got, rowsBefore+5)
	}
}

func TestCacheAndIngestCounters(t *testing.T) {
	IncCacheHit("lru")
	IncCacheMiss("redis")
	IncIngestMessage("decode_error")
	ObserveIngestFlush(10, nil)

	if got := testutil.ToFloat64(cacheResults.WithLabelValues("lru", "hit")); got < 1 {
		t.Fatalf("lru hit=%v", got)
	}
	if got := testutil.ToFloat64(cacheResults.WithLabelValues("redis", "miss")); got < 1 {
		t.Fatalf("redis miss=%v", got)
	}
	if got := testutil.ToFloat64(ingestMessagesTotal.WithLabelValues("decode_error")); got < 1 {
		t.Fatalf("decode_error=%v", got)
	}
	if got := testutil.ToFloat64(ingestFlushesTotal.WithLabelValues("ok")); got < 1 {
		t.Fatalf("flush ok=%v", got)
	}
}
