// metrics.go — Prometheus-метрики сервисного слоя.
package service

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	uploadsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fb_uploads_total",
		Help: "Количество обработанных загрузок файлов по результату.",
	}, []string{"result"})

	listingsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fb_listings_total",
		Help: "Количество запросов листинга и выбора файла по результату.",
	}, []string{"operation", "result"})

	storeDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "fb_store_operation_duration_seconds",
		Help:    "Длительность операций сервисов с хранилищем метаданных.",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation"})
)

// resultLabel — значение лейбла result для ошибки сервисного слоя.
func resultLabel(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrMalformedEvent):
		return "malformed"
	case errors.Is(err, ErrStoreUnavailable):
		return "unavailable"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrForbidden):
		return "forbidden"
	case errors.Is(err, ErrInvalidRecord):
		return "invalid"
	default:
		return "error"
	}
}
