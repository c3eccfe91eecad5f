package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency by route",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route", "method", "status"},
	)
	OrdersIngested = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "orders_ingested_total",
			Help: "Orders ingested successfully",
		},
		[]string{"source"}, // webhook|bulk
	)
	WebhooksRejected = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "webhooks_rejected_total",
			Help: "Webhook deliveries rejected for a bad signature",
		},
	)
)

func MustRegister() {
	prometheus.MustRegister(HTTPRequestDuration, OrdersIngested, WebhooksRejected)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (w *statusRecorder) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

// Middleware records request duration per chi route pattern.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		route := chi.RouteContext(r.Context()).RoutePattern()
		if route == "" {
			route = r.URL.Path
		}
		HTTPRequestDuration.
			WithLabelValues(route, r.Method, strconv.Itoa(rec.status)).
			Observe(time.Since(start).Seconds())
	})
}
