// Package metrics provides Prometheus instrumentation for the cinecard service.
//
// Metrics registered here:
//
//	cinecard_exports_total                   counter: export outcomes by tier and result
//	cinecard_poster_acquisitions_total       counter: poster acquisition outcomes by source
//	cinecard_upstream_requests_total         counter: metadata provider calls by endpoint and result
//	cinecard_http_requests_total             counter: HTTP requests by method, route and status
//	cinecard_http_request_duration_seconds   histogram: HTTP latency by method and route
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Exports counts finished exports. tier is remote|local, result is ok|error|busy.
var Exports = promauto.NewCounterVec(exportsOpts, []string{"tier", "result"})

// PosterAcquisitions counts poster acquisitions by the source that produced the
// pixels (direct|element|placeholder).
var PosterAcquisitions = promauto.NewCounterVec(posterOpts, []string{"source"})

// UpstreamRequests counts metadata provider calls. result is ok|cached|error.
var UpstreamRequests = promauto.NewCounterVec(upstreamOpts, []string{"endpoint", "result"})

// HTTPRequests counts HTTP requests by method, route template and status code.
var HTTPRequests = promauto.NewCounterVec(httpRequestsOpts, []string{"method", "route", "status"})

// HTTPDuration tracks HTTP request latency.
var HTTPDuration = promauto.NewHistogramVec(httpDurationOpts, []string{"method", "route"})

var (
	exportsOpts = prometheus.CounterOpts{
		Name: "cinecard_exports_total",
		Help: "Card exports by tier and result.",
	}
	posterOpts = prometheus.CounterOpts{
		Name: "cinecard_poster_acquisitions_total",
		Help: "Poster acquisitions by source.",
	}
	upstreamOpts = prometheus.CounterOpts{
		Name: "cinecard_upstream_requests_total",
		Help: "Metadata provider requests by endpoint and result.",
	}
	httpRequestsOpts = prometheus.CounterOpts{
		Name: "cinecard_http_requests_total",
		Help: "Total HTTP requests handled.",
	}
	httpDurationOpts = prometheus.HistogramOpts{
		Name:    "cinecard_http_request_duration_seconds",
		Help:    "HTTP request latency in seconds.",
		Buckets: prometheus.DefBuckets,
	}
)

// Handler returns the Prometheus scrape handler. Mount it at GET /metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Middleware records request counts and latency. The route label is the mux
// path template so card ids do not explode cardinality.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &responseWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rw, r)
		route := routeLabel(r)
		HTTPRequests.WithLabelValues(r.Method, route, strconv.Itoa(rw.status)).Inc()
		HTTPDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}

type responseWriter struct {
	http.ResponseWriter
	status int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}

func routeLabel(r *http.Request) string {
	if route := mux.CurrentRoute(r); route != nil {
		if tpl, err := route.GetPathTemplate(); err == nil {
			return tpl
		}
	}
	return "unmatched"
}

// Init registers fresh copies of every cinecard metric with reg. Tests pass
// prometheus.NewRegistry(); production uses the promauto vars above.
func Init(reg prometheus.Registerer) {
	reg.MustRegister(
		prometheus.NewCounterVec(exportsOpts, []string{"tier", "result"}),
		prometheus.NewCounterVec(posterOpts, []string{"source"}),
		prometheus.NewCounterVec(upstreamOpts, []string{"endpoint", "result"}),
		prometheus.NewCounterVec(httpRequestsOpts, []string{"method", "route", "status"}),
		prometheus.NewHistogramVec(httpDurationOpts, []string{"method", "route"}),
	)
}
