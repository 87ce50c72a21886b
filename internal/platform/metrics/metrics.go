// Copyright (c) 2026 Paperchat. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package metrics exposes Prometheus instrumentation for the API server.

It registers a small, fixed set of HTTP-level collectors and provides a
middleware that records them for every request. The /metrics endpoint itself
is mounted by the api package using promhttp.
*/
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// RequestsTotal counts finished HTTP requests by route, method, and status.
	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "http_requests_total", Help: "Total HTTP requests"},
		[]string{"route", "method", "status"},
	)

	// ReqDuration observes request latency by route and method.
	ReqDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Request duration seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route", "method"},
	)

	// InFlight tracks requests currently being served.
	InFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{Name: "http_in_flight_requests", Help: "In-flight HTTP requests"},
	)
)

// MustRegister registers all collectors with the default registry.
// Call exactly once at startup.
func MustRegister() {
	prometheus.MustRegister(RequestsTotal, ReqDuration, InFlight)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (recorder *statusRecorder) WriteHeader(code int) {
	recorder.status = code
	recorder.ResponseWriter.WriteHeader(code)
}

// Instrument records request counts, durations, and in-flight gauge values.
//
// The route label uses the chi route pattern (e.g. "/api/admin/delete/{id}")
// rather than the raw path to keep label cardinality bounded.
func Instrument() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {

			startTime := time.Now()
			InFlight.Inc()
			defer InFlight.Dec()

			wrappedWriter := &statusRecorder{ResponseWriter: writer, status: http.StatusOK}
			next.ServeHTTP(wrappedWriter, request)

			route := chi.RouteContext(request.Context()).RoutePattern()
			if route == "" {
				route = "unmatched"
			}

			RequestsTotal.WithLabelValues(route, request.Method, strconv.Itoa(wrappedWriter.status)).Inc()
			ReqDuration.WithLabelValues(route, request.Method).Observe(time.Since(startTime).Seconds())
		})
	}
}
