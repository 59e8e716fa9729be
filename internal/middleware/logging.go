package middleware

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rpattn/staffing/internal/logging"
	"github.com/sirupsen/logrus"
)

// responseWriter captures HTTP status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// LoggingMiddleware attaches a request scoped logger to the context and logs
// one line per request once it completes.
func LoggingMiddleware(log logrus.FieldLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

			requestID := r.Header.Get("X-Request-ID")
			if requestID == "" {
				requestID = uuid.NewString()
			}
			entry := log.WithField("request_id", requestID)
			rw.Header().Set("X-Request-ID", requestID)

			next.ServeHTTP(rw, r.WithContext(logging.WithLogger(r.Context(), entry)))

			entry.WithFields(logrus.Fields{
				"method":   r.Method,
				"path":     r.URL.Path,
				"status":   rw.statusCode,
				"duration": time.Since(start).String(),
				"remote":   r.RemoteAddr,
			}).Info("http request")
		})
	}
}
