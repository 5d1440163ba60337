package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	metricRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "demograph",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		},
		[]string{"route", "method", "status"},
	)

	metricRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "demograph",
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"route", "method", "status"},
	)

	metricTableRows = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "demograph",
			Name:      "table_rows",
			Help:      "Rows in the prepared table currently served",
		},
	)

	metricTableDropped = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "demograph",
			Name:      "table_dropped_rows",
			Help:      "Source rows dropped while preparing the current table",
		},
	)

	metricReloads = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "demograph",
			Name:      "table_reloads_total",
			Help:      "Successful table swaps after the initial load",
		},
	)

	metricReloadFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "demograph",
			Name:      "table_reload_failures_total",
			Help:      "Reload attempts that kept the previous table",
		},
	)
)

// statusWriter captures the response status code.
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func wrapStatus(w http.ResponseWriter) *statusWriter {
	if sw, ok := w.(*statusWriter); ok {
		return sw
	}
	return &statusWriter{ResponseWriter: w, status: http.StatusOK}
}

// instrument records request count and latency per route template.
func instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := wrapStatus(w)
		next.ServeHTTP(sw, r)

		route := r.URL.Path
		if cur := mux.CurrentRoute(r); cur != nil {
			if tpl, err := cur.GetPathTemplate(); err == nil {
				route = tpl
			}
		}
		status := strconv.Itoa(sw.status)
		metricRequestDuration.WithLabelValues(route, r.Method, status).Observe(time.Since(start).Seconds())
		metricRequestsTotal.WithLabelValues(route, r.Method, status).Inc()
	})
}
