// metrics.go — Prometheus HTTP метрики бота.
// Регистрирует метрики: fb_http_requests_total, fb_http_request_duration_seconds.
package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP метрики
var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fb_http_requests_total",
			Help: "Общее количество HTTP-запросов к боту",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "fb_http_request_duration_seconds",
			Help:    "Длительность HTTP-запросов к боту в секундах",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)
)

// MetricsMiddleware возвращает HTTP middleware для сбора Prometheus метрик.
func MetricsMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			path := normalizePath(r.URL.Path)

			wrapped := newResponseWriter(w)
			next.ServeHTTP(wrapped, r)

			status := strconv.Itoa(wrapped.statusCode)
			httpRequestsTotal.WithLabelValues(r.Method, path, status).Inc()
			httpRequestDuration.WithLabelValues(r.Method, path).Observe(time.Since(start).Seconds())
		})
	}
}

// normalizePath сводит неизвестные пути к одному лейблу, чтобы сканеры
// не раздували кардинальность метрик.
func normalizePath(path string) string {
	switch path {
	case "/", "/health/live", "/health/ready", "/metrics",
		"/debug/status", "/favicon.ico", "/webhook":
		return path
	}
	return "other"
}
