// metrics.go — Prometheus HTTP метрики модуля аукционов.
// Регистрирует метрики: au_http_requests_total, au_http_request_duration_seconds.
// Нормализация путей предотвращает взрывной рост кардинальности.
package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP метрики модуля аукционов
var (
	// httpRequestsTotal — общее количество HTTP-запросов.
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "au_http_requests_total",
			Help: "Общее количество HTTP-запросов к модулю аукционов",
		},
		[]string{"method", "path", "status"},
	)

	// httpRequestDuration — гистограмма длительности HTTP-запросов.
	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "au_http_request_duration_seconds",
			Help:    "Длительность HTTP-запросов к модулю аукционов в секундах",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)
)

// MetricsMiddleware возвращает HTTP middleware для сбора Prometheus метрик.
// Записывает количество запросов и длительность для каждого endpoint.
func MetricsMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// Нормализуем путь для лейблов метрик
			// (заменяем идентификаторы на {id} для предотвращения кардинальности)
			normalizedPath := normalizePath(r.URL.Path)

			wrapped := newMetricsResponseWriter(w)
			next.ServeHTTP(wrapped, r)

			duration := time.Since(start).Seconds()
			status := strconv.Itoa(wrapped.statusCode)

			httpRequestsTotal.WithLabelValues(r.Method, normalizedPath, status).Inc()
			httpRequestDuration.WithLabelValues(r.Method, normalizedPath).Observe(duration)
		})
	}
}

// metricsResponseWriter — обёртка для перехвата статус-кода.
type metricsResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func newMetricsResponseWriter(w http.ResponseWriter) *metricsResponseWriter {
	return &metricsResponseWriter{ResponseWriter: w, statusCode: http.StatusOK}
}

func (rw *metricsResponseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Unwrap позволяет http.ResponseController получить доступ к оригинальному ResponseWriter.
func (rw *metricsResponseWriter) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}

// normalizePath заменяет идентификаторы в сегментах пути на {id}.
// /api/v1/auctions/42/bids → /api/v1/auctions/{id}/bids
// /api/v1/users/123456789/stats → /api/v1/users/{id}/stats
func normalizePath(path string) string {
	// Статические пути — возвращаем как есть
	switch path {
	case "/health/live", "/health/ready", "/metrics", "/api/v1/auctions":
		return path
	}

	switch {
	case strings.HasPrefix(path, "/api/v1/auctions/"):
		rest := strings.TrimPrefix(path, "/api/v1/auctions/")
		if i := strings.IndexByte(rest, '/'); i >= 0 {
			return "/api/v1/auctions/{id}" + rest[i:]
		}
		return "/api/v1/auctions/{id}"
	case strings.HasPrefix(path, "/api/v1/users/"):
		rest := strings.TrimPrefix(path, "/api/v1/users/")
		if i := strings.IndexByte(rest, '/'); i >= 0 {
			return "/api/v1/users/{id}" + rest[i:]
		}
		return "/api/v1/users/{id}"
	case strings.HasPrefix(path, "/api/v1/guilds/"):
		rest := strings.TrimPrefix(path, "/api/v1/guilds/")
		if i := strings.IndexByte(rest, '/'); i >= 0 {
			return "/api/v1/guilds/{id}" + rest[i:]
		}
		return "/api/v1/guilds/{id}"
	}

	return path
}
