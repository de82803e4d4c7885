package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/bigkaa/goartstore/filebot/internal/domain/model"
)

// Prometheus-метрики обращений к Bot API.
var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fb_telegram_requests_total",
		Help: "Количество запросов к Telegram Bot API по методу и результату.",
	}, []string{"method", "result"})
	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "fb_telegram_request_duration_seconds",
		Help:    "Длительность запросов к Telegram Bot API.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method"})
)

// maxResponseBody — ограничение на размер читаемого ответа Bot API.
const maxResponseBody = 4 << 20

// RequestError — ответ Bot API с ok=false или неуспешным HTTP-статусом.
type RequestError struct {
	Method      string
	StatusCode  int
	ErrorCode   int
	Description string
}

func (e *RequestError) Error() string {
	desc := strings.TrimSpace(e.Description)
	if desc == "" {
		desc = "ok=false"
	}
	if e.StatusCode > 0 {
		return fmt.Sprintf("telegram %s: http %d: %s", e.Method, e.StatusCode, desc)
	}
	return fmt.Sprintf("telegram %s: %s", e.Method, desc)
}

// apiResponse — общий конверт ответа Bot API.
type apiResponse struct {
	OK          bool            `json:"ok"`
	ErrorCode   int             `json:"error_code,omitempty"`
	Description string          `json:"description,omitempty"`
	Result      json.RawMessage `json:"result,omitempty"`
}

// Client — HTTP-клиент Telegram Bot API.
// Безопасен для конкурентного использования.
type Client struct {
	http    *http.Client
	baseURL string
	token   string
	logger  *slog.Logger
}

// DefaultTimeout — таймаут HTTP-клиента по умолчанию.
const DefaultTimeout = 60 * time.Second

// PollMargin — запас сверх таймаута long polling на ожидание ответа getUpdates.
const PollMargin = 5 * time.Second

// New создаёт клиент Bot API.
// httpClient == nil — клиент с таймаутом DefaultTimeout.
func New(httpClient *http.Client, baseURL, token string, logger *slog.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: DefaultTimeout}
	}
	return &Client{
		http:    httpClient,
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		logger:  logger.With(slog.String("component", "telegram_client")),
	}
}

// call выполняет метод Bot API: POST JSON, разбор конверта ответа,
// декодирование result в out (если out != nil).
func (c *Client) call(ctx context.Context, method string, payload, out any) error {
	start := time.Now()
	err := c.do(ctx, method, payload, out)

	result := "ok"
	if err != nil {
		result = "error"
	}
	requestsTotal.WithLabelValues(method, result).Inc()
	requestDuration.WithLabelValues(method).Observe(time.Since(start).Seconds())

	return err
}

func (c *Client) do(ctx context.Context, method string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("telegram %s: сериализация запроса: %w", method, err)
	}

	endpoint := fmt.Sprintf("%s/bot%s/%s", c.baseURL, c.token, method)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("telegram %s: создание запроса: %w", method, stripURL(err))
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("telegram %s: %w", method, stripURL(err))
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return fmt.Errorf("telegram %s: чтение ответа: %w", method, err)
	}

	var env apiResponse
	if err := json.Unmarshal(raw, &env); err != nil {
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return &RequestError{Method: method, StatusCode: resp.StatusCode, Description: strings.TrimSpace(string(raw))}
		}
		return fmt.Errorf("telegram %s: разбор ответа: %w", method, err)
	}
	if !env.OK || resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &RequestError{
			Method:      method,
			StatusCode:  resp.StatusCode,
			ErrorCode:   env.ErrorCode,
			Description: env.Description,
		}
	}

	if out != nil {
		if err := json.Unmarshal(env.Result, out); err != nil {
			return fmt.Errorf("telegram %s: разбор result: %w", method, err)
		}
	}
	return nil
}

// stripURL убирает из ошибки транспорта URL запроса: в нём токен бота.
func stripURL(err error) error {
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return urlErr.Err
	}
	return err
}

// GetMe возвращает учётную запись бота (проверка токена при старте).
func (c *Client) GetMe(ctx context.Context) (*User, error) {
	var me User
	if err := c.call(ctx, "getMe", struct{}{}, &me); err != nil {
		return nil, err
	}
	return &me, nil
}

// getUpdatesRequest — параметры getUpdates.
type getUpdatesRequest struct {
	Offset         int64    `json:"offset,omitempty"`
	Timeout        int      `json:"timeout"`
	AllowedUpdates []string `json:"allowed_updates"`
}

// AllowedUpdates — типы событий, которые обрабатывает бот.
var AllowedUpdates = []string{"message", "callback_query"}

// GetUpdates выполняет long polling и возвращает события и следующий offset.
func (c *Client) GetUpdates(ctx context.Context, offset int64, timeout time.Duration) ([]Update, int64, error) {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	secs := int(timeout.Seconds())
	if secs < 1 {
		secs = 1
	}

	reqCtx, cancel := context.WithTimeout(ctx, timeout+PollMargin)
	defer cancel()

	var updates []Update
	err := c.call(reqCtx, "getUpdates", getUpdatesRequest{
		Offset:         offset,
		Timeout:        secs,
		AllowedUpdates: AllowedUpdates,
	}, &updates)
	if err != nil {
		return nil, offset, err
	}

	next := offset
	for _, u := range updates {
		if u.UpdateID >= next {
			next = u.UpdateID + 1
		}
	}
	return updates, next, nil
}

// sendMessageRequest — параметры sendMessage.
type sendMessageRequest struct {
	ChatID      int64                 `json:"chat_id"`
	Text        string                `json:"text"`
	ReplyMarkup *InlineKeyboardMarkup `json:"reply_markup,omitempty"`
}

// SendMessage отправляет текст, при непустой keyboard — с inline-клавиатурой.
func (c *Client) SendMessage(ctx context.Context, chatID int64, text string, keyboard [][]InlineKeyboardButton) error {
	req := sendMessageRequest{ChatID: chatID, Text: text}
	if len(keyboard) > 0 {
		req.ReplyMarkup = &InlineKeyboardMarkup{InlineKeyboard: keyboard}
	}
	return c.call(ctx, "sendMessage", req, nil)
}

// answerCallbackQueryRequest — параметры answerCallbackQuery.
type answerCallbackQueryRequest struct {
	CallbackQueryID string `json:"callback_query_id"`
	Text            string `json:"text,omitempty"`
}

// AnswerCallbackQuery подтверждает нажатие кнопки (убирает индикатор загрузки).
func (c *Client) AnswerCallbackQuery(ctx context.Context, callbackID, text string) error {
	return c.call(ctx, "answerCallbackQuery", answerCallbackQueryRequest{
		CallbackQueryID: callbackID,
		Text:            text,
	}, nil)
}

// sendMethods — метод Bot API и имя поля file_id для каждого вида вложения.
var sendMethods = map[model.FileKind]struct {
	method  string
	field   string
	caption bool
}{
	model.KindDocument:  {"sendDocument", "document", true},
	model.KindPhoto:     {"sendPhoto", "photo", true},
	model.KindVideo:     {"sendVideo", "video", true},
	model.KindAudio:     {"sendAudio", "audio", true},
	model.KindVoice:     {"sendVoice", "voice", true},
	model.KindAnimation: {"sendAnimation", "animation", true},
	model.KindVideoNote: {"sendVideoNote", "video_note", false},
	model.KindSticker:   {"sendSticker", "sticker", false},
}

// SendFile повторно отправляет файл по file_id методом, соответствующим виду.
// Неизвестный вид отправляется как документ. Подпись игнорируется для
// видов, которые её не поддерживают (video_note, sticker).
func (c *Client) SendFile(ctx context.Context, chatID int64, kind model.FileKind, fileID, caption string) error {
	m, ok := sendMethods[kind]
	if !ok {
		m = sendMethods[model.KindDocument]
	}

	payload := map[string]any{
		"chat_id": chatID,
		m.field:   fileID,
	}
	if m.caption && caption != "" {
		payload["caption"] = caption
	}
	return c.call(ctx, m.method, payload, nil)
}

// setWebhookRequest — параметры setWebhook.
type setWebhookRequest struct {
	URL            string   `json:"url"`
	SecretToken    string   `json:"secret_token,omitempty"`
	AllowedUpdates []string `json:"allowed_updates"`
}

// SetWebhook регистрирует webhook с секретом заголовка
// X-Telegram-Bot-Api-Secret-Token.
func (c *Client) SetWebhook(ctx context.Context, webhookURL, secret string) error {
	if err := c.call(ctx, "setWebhook", setWebhookRequest{
		URL:            webhookURL,
		SecretToken:    secret,
		AllowedUpdates: AllowedUpdates,
	}, nil); err != nil {
		return err
	}
	c.logger.Info("Webhook зарегистрирован", slog.String("url", webhookURL))
	return nil
}

// DeleteWebhook снимает webhook: без этого getUpdates возвращает 409.
func (c *Client) DeleteWebhook(ctx context.Context) error {
	return c.call(ctx, "deleteWebhook", struct{}{}, nil)
}
