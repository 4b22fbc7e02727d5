package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

var requestDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: "sloik",
		Name:      "http_request_duration_seconds",
		Help:      "Duration of HTTP requests by method, route and status.",
	},
	[]string{"method", "route", "status"},
)

// NewRouter builds the HTTP routing table for the jar pages.
func NewRouter(h *Handler, log zerolog.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(requestLogger(log))
	r.Use(requestMetrics)

	r.Get("/", h.Index)
	r.Post("/", h.CreateJar)
	r.Get("/delete/{id}", h.DeleteJar)
	r.Get("/jar/{id}", h.JarDetail)
	r.Get("/jar/put/{id}", h.PutForm)
	r.Post("/jar/put/{id}", h.Put)
	r.Get("/jar/withdraw/{id}", h.WithdrawForm)
	r.Post("/jar/withdraw/{id}", h.Withdraw)
	r.Get("/jar2jar", h.TransferSelect)
	r.Post("/jar2jar", h.TransferSelectSubmit)
	r.Get("/jar2jar/{id}", h.TransferForm)
	r.Post("/jar2jar/{id}", h.Transfer)
	r.Get("/operations", h.Operations)
	r.Post("/operations", h.Operations)
	r.Get("/operations/{id}", h.JarOperations)
	r.Handle("/metrics", promhttp.Handler())

	return r
}

// statusWriter captures the response status for logging and metrics.
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

func requestLogger(log zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(sw, r)
			log.Info().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", sw.status).
				Dur("duration", time.Since(start)).
				Msg("request")
		})
	}
}

func requestMetrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r)

		// Label by route pattern, not raw path, to keep cardinality bounded.
		route := r.URL.Path
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			route = rc.RoutePattern()
		}
		requestDuration.
			WithLabelValues(r.Method, route, strconv.Itoa(sw.status)).
			Observe(time.Since(start).Seconds())
	})
}
