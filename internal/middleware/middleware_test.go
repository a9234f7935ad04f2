package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/LBIT2016/trading-gamers/internal/testutil"
)

func TestLoggingRecordsRouteAndStatus(t *testing.T) {
	logger, buf := testutil.CaptureLogger()

	r := mux.NewRouter()
	r.Use(Logging(logger))
	r.HandleFunc("/listings/{id}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/listings/l_1", nil))

	out := buf.String()
	assert.Contains(t, out, "/listings/{id}")
	assert.Contains(t, out, "418")
}

func TestRecoveryUsesHandler(t *testing.T) {
	logger, buf := testutil.CaptureLogger()
	h := Recovery(logger, PlainPanicHandler)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, buf.String(), "panic recovered")
}

func TestRecoveryAbortsStartedResponse(t *testing.T) {
	logger, buf := testutil.CaptureLogger()
	h := Recovery(logger, PlainPanicHandler)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("event: connected\n\n"))
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	assert.PanicsWithValue(t, http.ErrAbortHandler, func() {
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/events", nil))
	})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, buf.String(), `"response_started":true`)
}

func TestHTTPMetricsCountsByRoute(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewHTTPMetrics(reg)

	r := mux.NewRouter()
	r.Use(m.Middleware)
	r.HandleFunc("/listings/{id}", func(w http.ResponseWriter, _ *http.Request) {})
	r.Handle("/metrics", MetricsHandler(reg))

	for _, id := range []string{"a", "b"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/listings/"+id, nil))
	}

	expected := `
# HELP market_http_requests_total Count of HTTP requests
# TYPE market_http_requests_total counter
market_http_requests_total{method="GET",route="/listings/{id}",status="200"} 2
`
	require.NoError(t, promtest.GatherAndCompare(reg, strings.NewReader(expected), "market_http_requests_total"))

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Contains(t, rec.Body.String(), "market_http_request_duration_seconds")
}

func TestIPRateLimiter(t *testing.T) {
	limiter := NewIPRateLimiter(rate.Every(time.Hour), 2)
	h := limiter.Middleware(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	})(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))

	call := func(addr string) int {
		req := httptest.NewRequest(http.MethodPost, "/", nil)
		req.RemoteAddr = addr
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusOK, call("10.0.0.1:1000"))
	assert.Equal(t, http.StatusOK, call("10.0.0.1:1001"))
	assert.Equal(t, http.StatusTooManyRequests, call("10.0.0.1:1002"))
	// Other addresses have their own bucket
	assert.Equal(t, http.StatusOK, call("10.0.0.2:1000"))
}

func TestIPRateLimiterCleanup(t *testing.T) {
	limiter := NewIPRateLimiter(rate.Limit(1000), 1)
	limiter.Limiter("a").Allow()
	limiter.Limiter("b")

	// "b" is full straight away; "a" refills well within a minute
	assert.Equal(t, 2, limiter.Cleanup(time.Now().Add(time.Minute)))
}
