package middleware

import (
	"net/http"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"

	"pet-health-tracker/internal/platform/logger"
)

type logWriter struct {
	http.ResponseWriter
	status int
	size   int
}

func (w *logWriter) Write(p []byte) (int, error) {
	n, err := w.ResponseWriter.Write(p)
	w.size += n
	return n, err
}

func (w *logWriter) WriteHeader(statusCode int) {
	w.ResponseWriter.WriteHeader(statusCode)
	w.status = statusCode
}

// AccessLog loguea una línea por request. El path de /shared/{token} se
// registra con el patrón de chi para no dejar tokens en los logs.
func AccessLog(l logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			lw := &logWriter{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(lw, r)

			fields := map[string]any{
				"method":      r.Method,
				"route":       routePattern(r),
				"status":      lw.status,
				"size":        lw.size,
				"duration_ms": time.Since(start).Milliseconds(),
			}
			if id := chimw.GetReqID(r.Context()); id != "" {
				fields["request_id"] = id
			}

			switch {
			case lw.status >= http.StatusInternalServerError:
				l.Error("http request", fields)
			case lw.status >= http.StatusBadRequest:
				l.Warn("http request", fields)
			default:
				l.Info("http request", fields)
			}
		})
	}
}
