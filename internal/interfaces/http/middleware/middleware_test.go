package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/carverdict/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/carverdict/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/carverdict/internal/testutil"
)

func statusHandler(code int) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(code)
		_, _ = w.Write([]byte("ok"))
	})
}

func TestRequestID_Generated(t *testing.T) {
	var seen string
	h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = logging.RequestIDFromContext(r.Context())
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	_, err := uuid.Parse(seen)
	require.NoError(t, err, "generated ID should be a UUID")
	assert.Equal(t, seen, rec.Header().Get(RequestIDHeader))
}

func TestRequestID_Propagated(t *testing.T) {
	var seen string
	h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = logging.RequestIDFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "upstream-7")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, "upstream-7", seen)
	assert.Equal(t, "upstream-7", rec.Header().Get(RequestIDHeader))
}

func TestRequestLogging_Levels(t *testing.T) {
	tests := []struct {
		name   string
		status int
		level  string
		msg    string
	}{
		{"ok", http.StatusOK, "info", "HTTP request completed"},
		{"client error", http.StatusBadRequest, "warn", "HTTP request completed with client error"},
		{"server error", http.StatusInternalServerError, "error", "HTTP request completed with server error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			log := testutil.NewMockLogger()
			h := RequestID(RequestLogging(log, DefaultLoggingConfig())(statusHandler(tt.status)))

			h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/api/v1/prices", nil))

			msg, ok := log.Find(tt.level, tt.msg)
			require.True(t, ok)
			status, _ := msg.Field("status")
			assert.Equal(t, tt.status, status)
			_, hasID := msg.Field(logging.FieldRequestID)
			assert.True(t, hasID, "entry should carry the request ID")
		})
	}
}

func TestRequestLogging_SkipsHealthChecks(t *testing.T) {
	log := testutil.NewMockLogger()
	h := RequestLogging(log, DefaultLoggingConfig())(statusHandler(http.StatusOK))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Empty(t, log.GetMessages())
}

func TestRequestLogging_Slow(t *testing.T) {
	log := testutil.NewMockLogger()
	slow := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(5 * time.Millisecond)
	})
	h := RequestLogging(log, LoggingConfig{SlowThreshold: time.Millisecond})(slow)

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/v1/prices", nil))
	assert.True(t, log.HasMessage("warn", "HTTP request completed (slow)"))
}

func TestMetrics(t *testing.T) {
	collector, err := prometheus.NewMetricsCollector(prometheus.CollectorConfig{Namespace: "test"}, logging.NewNopLogger())
	require.NoError(t, err)
	m := prometheus.NewAppMetrics(collector)

	h := Metrics(m, "/api/v1/prices")(statusHandler(http.StatusTeapot))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/api/v1/prices", nil))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/wp-login.php", nil))

	rec := httptest.NewRecorder()
	collector.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body := rec.Body.String()
	assert.Contains(t, body, `test_http_requests_total{method="POST",path="/api/v1/prices",status_code="418"} 1`)
	assert.Contains(t, body, `test_http_requests_total{method="GET",path="other",status_code="418"} 1`)
	assert.Contains(t, body, `test_http_in_flight_requests 0`)
}

func TestMetrics_NilIsPassThrough(t *testing.T) {
	next := statusHandler(http.StatusOK)
	rec := httptest.NewRecorder()
	Metrics(nil)(next).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRecovery(t *testing.T) {
	log := testutil.NewMockLogger()
	h := Recovery(log, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	require.NotPanics(t, func() {
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	})
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "COMMON_001")

	msg, ok := log.Find("error", "panic recovered")
	require.True(t, ok)
	v, _ := msg.Field("panic")
	assert.Equal(t, "boom", v)
}

func TestRecovery_AbortHandlerRepanics(t *testing.T) {
	h := Recovery(testutil.NewMockLogger(), nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic(http.ErrAbortHandler)
	}))
	assert.Panics(t, func() {
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	})
}

func TestClientLimiter(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	l := NewClientLimiter(1, 2, time.Minute)
	l.now = func() time.Time { return now }

	ok, _ := l.Allow("10.0.0.1")
	assert.True(t, ok)
	ok, _ = l.Allow("10.0.0.1")
	assert.True(t, ok)
	ok, wait := l.Allow("10.0.0.1")
	assert.False(t, ok, "burst exhausted")
	assert.InDelta(t, time.Second.Seconds(), wait.Seconds(), 0.01)

	ok, _ = l.Allow("10.0.0.2")
	assert.True(t, ok, "clients have separate buckets")

	now = now.Add(time.Second)
	ok, _ = l.Allow("10.0.0.1")
	assert.True(t, ok, "one token refilled")

	now = now.Add(2 * time.Minute)
	l.Allow("10.0.0.3")
	assert.Equal(t, 1, l.Clients(), "idle clients evicted")
}

func TestRateLimit(t *testing.T) {
	l := NewClientLimiter(0.001, 1, 0)
	h := RateLimit(l, DefaultRateLimitConfig(0.001, 1), nil)(statusHandler(http.StatusOK))

	req := func(path, xff string) *httptest.ResponseRecorder {
		r := httptest.NewRequest(http.MethodPost, path, nil)
		r.Header.Set("X-Forwarded-For", xff)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, r)
		return rec
	}

	assert.Equal(t, http.StatusOK, req("/api/v1/prices", "203.0.113.9, 10.0.0.1").Code)
	limited := req("/api/v1/prices", "203.0.113.9")
	assert.Equal(t, http.StatusTooManyRequests, limited.Code)
	assert.NotEmpty(t, limited.Header().Get("Retry-After"))
	assert.Contains(t, limited.Body.String(), "COMMON_014")

	assert.Equal(t, http.StatusOK, req("/healthz", "203.0.113.9").Code, "health checks bypass the limiter")
	assert.Equal(t, http.StatusOK, req("/api/v1/prices", "198.51.100.4").Code)
}

func TestClientKey(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = "192.0.2.1:5555"
	assert.Equal(t, "192.0.2.1", clientKey(r))

	r.Header.Set("X-Real-IP", "192.0.2.2")
	assert.Equal(t, "192.0.2.2", clientKey(r))

	r.Header.Set("X-Forwarded-For", "192.0.2.3, 10.1.1.1")
	assert.Equal(t, "192.0.2.3", clientKey(r))
}
