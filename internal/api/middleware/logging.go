// logging.go — middleware логирования входящих HTTP-запросов через slog.
// Перехватывает статус-код, размер ответа и длительность обработки.
// Для POST /webhook дополнительно пишет update_id принятого события
// и наличие заголовка секрета (без значения).
package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"
)

// webhookPath — маршрут приёма событий Telegram.
const webhookPath = "/webhook"

// secretHeader — заголовок секрета webhook (значение в лог не попадает).
const secretHeader = "X-Telegram-Bot-Api-Secret-Token"

type updateIDKey struct{}

// SetUpdateID сообщает RequestLogger ID события, разобранного из тела запроса.
// Без RequestLogger в цепочке вызов ничего не делает.
func SetUpdateID(ctx context.Context, id int64) {
	if slot, ok := ctx.Value(updateIDKey{}).(*atomic.Int64); ok {
		slot.Store(id)
	}
}

// responseWriter — обёртка для перехвата статус-кода и размера ответа.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
	written    int64
}

func newResponseWriter(w http.ResponseWriter) *responseWriter {
	return &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	n, err := rw.ResponseWriter.Write(b)
	rw.written += int64(n)
	return n, err
}

// Unwrap позволяет http.ResponseController получить доступ к оригинальному ResponseWriter.
func (rw *responseWriter) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}

// RequestLogger возвращает middleware, логирующий каждый HTTP-запрос.
// Уровень зависит от статус-кода: INFO (1xx-3xx), WARN (4xx), ERROR (5xx).
// Успешные health- и metrics-запросы пишутся на DEBUG.
func RequestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	logger = logger.With(slog.String("component", "http"))

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			wrapped := newResponseWriter(w)

			webhook := r.URL.Path == webhookPath
			var updateID atomic.Int64
			updateID.Store(-1)
			if webhook {
				r = r.WithContext(context.WithValue(r.Context(), updateIDKey{}, &updateID))
			}

			next.ServeHTTP(wrapped, r)

			level := slog.LevelInfo
			switch {
			case wrapped.statusCode >= 500:
				level = slog.LevelError
			case wrapped.statusCode >= 400:
				level = slog.LevelWarn
			case isServicePath(r.URL.Path):
				level = slog.LevelDebug
			}

			attrs := []slog.Attr{
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", wrapped.statusCode),
				slog.Duration("duration", time.Since(start)),
				slog.Int64("bytes", wrapped.written),
				slog.String("remote_addr", r.RemoteAddr),
			}
			if webhook {
				attrs = append(attrs,
					slog.Int64("request_bytes", r.ContentLength),
					slog.Bool("secret_present", r.Header.Get(secretHeader) != ""),
				)
				if id := updateID.Load(); id >= 0 {
					attrs = append(attrs, slog.Int64("update_id", id))
				}
			}

			logger.LogAttrs(r.Context(), level, "HTTP запрос", attrs...)
		})
	}
}

func isServicePath(path string) bool {
	switch path {
	case "/", "/health/live", "/health/ready", "/metrics":
		return true
	}
	return false
}
