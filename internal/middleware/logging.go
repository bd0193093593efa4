package middleware

import (
	"log/slog"
	"net/http"
	"time"
)

// statusRecorder captures the response status code for logging.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// Logging wraps a handler and logs every request with method, path,
// status, operator ID (empty pre-auth), and duration.
func Logging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(recorder, r)

		duration := time.Since(start).Milliseconds()
		operatorID := GetOperatorID(r.Context())
		if recorder.status >= http.StatusInternalServerError {
			slog.Error("request failed",
				"method", r.Method,
				"path", r.URL.Path,
				"status", recorder.status,
				"operator_id", operatorID,
				"duration_ms", duration,
			)
		} else if recorder.status >= http.StatusBadRequest {
			slog.Warn("request rejected",
				"method", r.Method,
				"path", r.URL.Path,
				"status", recorder.status,
				"operator_id", operatorID,
				"duration_ms", duration,
			)
		} else {
			slog.Info("request ok",
				"method", r.Method,
				"path", r.URL.Path,
				"status", recorder.status,
				"operator_id", operatorID,
				"duration_ms", duration,
			)
		}
	})
}
