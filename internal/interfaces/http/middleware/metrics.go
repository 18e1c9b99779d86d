package middleware

import (
	"net/http"
	"time"

	"github.com/turtacn/carverdict/internal/infrastructure/monitoring/prometheus"
)

// unmatchedPath labels requests outside the registered routes so that the
// path label stays bounded.
const unmatchedPath = "other"

// Metrics records request count, duration and in-flight gauge.  Only paths in
// routes get their own label.
func Metrics(m *prometheus.AppMetrics, routes ...string) func(http.Handler) http.Handler {
	known := make(map[string]bool, len(routes))
	for _, r := range routes {
		known[r] = true
	}

	return func(next http.Handler) http.Handler {
		if m == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			path := r.URL.Path
			if !known[path] {
				path = unmatchedPath
			}

			inFlight := m.HTTPInFlight.WithLabelValues()
			inFlight.Inc()
			defer inFlight.Dec()

			start := time.Now()
			wrapped := newWrappedResponseWriter(w)
			next.ServeHTTP(wrapped, r)
			prometheus.RecordHTTPRequest(m, r.Method, path, wrapped.statusCode, time.Since(start))
		})
	}
}
