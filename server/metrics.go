package main

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.uber.org/zap"
)

var (
	// httpRequestsTotal is a counter for total HTTP requests.
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of http requests.",
		},
		[]string{"method", "path", "status"},
	)

	// httpRequestDuration is a histogram for request latencies.
	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "http_request_duration_seconds",
			Help: "Duration of HTTP requests.",
		},
		[]string{"method", "path"},
	)
)

// initMetrics bridges the OpenTelemetry meter provider to the default
// Prometheus registry so both instrumentation paths land on /metrics.
func initMetrics() error {
	exporter, err := otelprom.New()
	if err != nil {
		return err
	}

	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(exporter))
	otel.SetMeterProvider(provider)
	return nil
}

// metricsHandler exposes the default Prometheus registry.
func metricsHandler() http.Handler {
	return promhttp.Handler()
}

// telemetryMiddleware records Prometheus metrics and logs every handled
// request.
func telemetryMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		startTime := time.Now()

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		// Label with the matched route pattern, not the raw path, so
		// ID-bearing routes stay a single series.
		path := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				path = pattern
			}
		}

		duration := time.Since(startTime)
		httpRequestDuration.WithLabelValues(r.Method, path).Observe(duration.Seconds())
		httpRequestsTotal.WithLabelValues(r.Method, path, http.StatusText(ww.Status())).Inc()

		log.Infow("request handled",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			zap.Duration("duration", duration),
			"user_agent", r.UserAgent(),
		)
	})
}
