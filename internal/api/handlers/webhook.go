// webhook.go — приём событий Telegram в режиме webhook.
// Telegram подписывает каждый запрос заголовком X-Telegram-Bot-Api-Secret-Token
// со значением, переданным в setWebhook.
package handlers

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	apierrors "github.com/bigkaa/goartstore/filebot/internal/api/errors"
	"github.com/bigkaa/goartstore/filebot/internal/api/middleware"
	"github.com/bigkaa/goartstore/filebot/internal/telegram"
)

// SecretHeader — заголовок с секретом webhook.
const SecretHeader = "X-Telegram-Bot-Api-Secret-Token"

// maxUpdateBody — ограничение размера тела одного Update.
const maxUpdateBody = 1 << 20

// UpdateHandler — обработчик одного события (bot.Dispatcher).
type UpdateHandler interface {
	HandleUpdate(ctx context.Context, u telegram.Update)
}

// WebhookHandler — обработчик POST /webhook.
type WebhookHandler struct {
	secret  string
	handler UpdateHandler
	logger  *slog.Logger
}

// NewWebhookHandler создаёт обработчик webhook.
func NewWebhookHandler(secret string, handler UpdateHandler, logger *slog.Logger) *WebhookHandler {
	return &WebhookHandler{
		secret:  secret,
		handler: handler,
		logger:  logger.With(slog.String("component", "webhook")),
	}
}

// ServeHTTP проверяет секрет, декодирует Update и обрабатывает его синхронно.
// Ошибки обработки не влияют на статус ответа: 200 означает «событие принято»,
// иначе Telegram будет повторять доставку.
func (h *WebhookHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		apierrors.MethodNotAllowed(w, "ожидается POST")
		return
	}

	got := r.Header.Get(SecretHeader)
	if h.secret == "" || subtle.ConstantTimeCompare([]byte(got), []byte(h.secret)) != 1 {
		h.logger.Warn("Webhook с неверным секретом", slog.String("remote_addr", r.RemoteAddr))
		apierrors.Unauthorized(w, "неверный секрет webhook")
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxUpdateBody))
	if err != nil {
		apierrors.ValidationError(w, "ошибка чтения тела запроса")
		return
	}

	var u telegram.Update
	if err := json.Unmarshal(body, &u); err != nil {
		h.logger.Warn("Некорректный JSON события", slog.String("error", err.Error()))
		apierrors.ValidationError(w, "некорректный JSON события")
		return
	}

	middleware.SetUpdateID(r.Context(), u.UpdateID)
	h.handler.HandleUpdate(r.Context(), u)
	w.WriteHeader(http.StatusOK)
}
