package obs

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// HTTP
var (
	httpInFlight = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "http_in_flight_requests",
		Help: "In-flight HTTP requests.",
	})

	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "route", "status"},
	)

	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latencies in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)
)

// Dominio
var (
	shareTokensCreated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "share_tokens_created_total",
			Help: "Share tokens created, by permission level.",
		},
		[]string{"permission_level"},
	)

	shareValidations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "share_token_validations_total",
			Help: "Share link resolutions, by result (ok, invalid, error).",
		},
		[]string{"result"},
	)

	sharePartialFetches = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "share_partial_fetch_failures_total",
			Help: "Medical collections that failed to load while resolving an advanced share link.",
		},
		[]string{"collection"},
	)
)

var initOnce sync.Once

// Init registra las métricas en el registro default. Idempotente
// (el router se construye varias veces en tests).
func Init() {
	initOnce.Do(func() {
		prometheus.MustRegister(
			httpInFlight, httpRequestsTotal, httpRequestDuration,
			shareTokensCreated, shareValidations, sharePartialFetches,
		)
	})
}

func Handler() http.Handler {
	return promhttp.Handler()
}

func ShareTokenCreated(level string) {
	shareTokensCreated.WithLabelValues(level).Inc()
}

func ShareValidation(result string) {
	shareValidations.WithLabelValues(result).Inc()
}

func SharePartialFetch(collection string) {
	sharePartialFetches.WithLabelValues(collection).Inc()
}

// Instrument mide RPS/latencia/en vuelo. Usa el patrón de ruta de chi
// para no explotar la cardinalidad con ids/tokens en el path.
func Instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		httpInFlight.Inc()
		defer httpInFlight.Dec()

		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, code: http.StatusOK}
		next.ServeHTTP(sw, r)

		route := "unmatched"
		if rc := chi.RouteContext(r.Context()); rc != nil {
			if p := rc.RoutePattern(); p != "" {
				route = p
			}
		}
		status := strconv.Itoa(sw.code)

		httpRequestDuration.WithLabelValues(r.Method, route, status).Observe(time.Since(start).Seconds())
		httpRequestsTotal.WithLabelValues(r.Method, route, status).Inc()
	})
}

type statusWriter struct {
	http.ResponseWriter
	code int
}

func (w *statusWriter) WriteHeader(code int) {
	w.code = code
	w.ResponseWriter.WriteHeader(code)
}
