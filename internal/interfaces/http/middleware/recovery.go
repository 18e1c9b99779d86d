package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/turtacn/carverdict/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/carverdict/internal/infrastructure/monitoring/prometheus"
)

// Recovery turns a handler panic into a 500 response and an error log entry.
func Recovery(logger logging.Logger, m *prometheus.AppMetrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				logger.WithContext(r.Context()).Error("panic recovered",
					logging.String("panic", fmt.Sprint(rec)),
					logging.String("path", r.URL.Path),
					logging.String("stack", string(debug.Stack())),
				)
				prometheus.RecordError(m, "http", "panic")

				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusInternalServerError)
				_, _ = w.Write([]byte(`{"code":"COMMON_001","message":"internal server error"}` + "\n"))
			}()
			next.ServeHTTP(w, r)
		})
	}
}
