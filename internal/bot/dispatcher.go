package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/bigkaa/goartstore/filebot/internal/domain/intent"
	"github.com/bigkaa/goartstore/filebot/internal/domain/model"
	"github.com/bigkaa/goartstore/filebot/internal/service"
	"github.com/bigkaa/goartstore/filebot/internal/telegram"
)

// Prometheus-метрики обработки событий.
var (
	updatesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fb_updates_total",
		Help: "Количество обработанных событий Telegram по намерению и результату.",
	}, []string{"intent", "result"})
	updateDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "fb_update_duration_seconds",
		Help:    "Длительность обработки одного события Telegram.",
		Buckets: prometheus.DefBuckets,
	}, []string{"intent"})
)

// Sender — исходящий транспорт (Telegram-клиент).
type Sender interface {
	SendMessage(ctx context.Context, chatID int64, text string, keyboard [][]telegram.InlineKeyboardButton) error
	SendFile(ctx context.Context, chatID int64, kind model.FileKind, fileID, caption string) error
	AnswerCallbackQuery(ctx context.Context, callbackID, text string) error
}

// Ingester — обработчик загрузок (service.IngestionService).
type Ingester interface {
	Ingest(ctx context.Context, up intent.FileUpload) (*service.Reply, error)
}

// Lister — обработчик листинга (service.ListingService).
type Lister interface {
	List(ctx context.Context, ownerID int64, offset int) (*service.Reply, error)
	Select(ctx context.Context, ownerID, recordID int64) (*service.Reply, error)
}

// Dispatcher маршрутизирует намерения по сервисам и отправляет ответы.
// Не хранит изменяемого состояния: безопасен для конкурентных вызовов.
type Dispatcher struct {
	normalizer *Normalizer
	ingester   Ingester
	lister     Lister
	sender     Sender
	logger     *slog.Logger
}

// NewDispatcher создаёт диспетчер.
func NewDispatcher(
	normalizer *Normalizer,
	ingester Ingester,
	lister Lister,
	sender Sender,
	logger *slog.Logger,
) *Dispatcher {
	return &Dispatcher{
		normalizer: normalizer,
		ingester:   ingester,
		lister:     lister,
		sender:     sender,
		logger:     logger.With(slog.String("component", "dispatcher")),
	}
}

// HandleUpdate обрабатывает одно событие до конца.
// Ошибки и паники не выходят за пределы вызова: пользователь получает
// безопасный текст, подробности пишутся в лог.
func (d *Dispatcher) HandleUpdate(ctx context.Context, u telegram.Update) {
	start := time.Now()
	name := "unknown"
	result := "ok"
	logger := d.logger.With(
		slog.String("update_trace", newTraceID()),
		slog.Int64("update_id", u.UpdateID),
	)

	defer func() {
		if r := recover(); r != nil {
			result = "panic"
			logger.Error("Паника при обработке события",
				slog.Any("panic", r),
				slog.String("stack", string(debug.Stack())),
			)
		}
		updatesTotal.WithLabelValues(name, result).Inc()
		updateDuration.WithLabelValues(name).Observe(time.Since(start).Seconds())
	}()

	in, err := d.normalizer.Normalize(u)
	name = intent.Name(in)
	target := in.Target()

	// Callback подтверждается всегда, иначе у кнопки висит индикатор загрузки
	if target.CallbackID != "" {
		if ackErr := d.sender.AnswerCallbackQuery(ctx, target.CallbackID, ""); ackErr != nil {
			logger.Warn("Не удалось подтвердить callback", slog.String("error", ackErr.Error()))
		}
	}

	if err != nil {
		result = "malformed"
		logger.Warn("Некорректное событие", slog.String("error", err.Error()))
		if target.ChatID != 0 {
			d.send(ctx, logger, target.ChatID, service.ReplyForError(err))
		}
		return
	}

	reply, err := d.route(ctx, logger, in)
	if err != nil {
		result = errorResult(err)
		logError(logger, name, err)
		reply = service.ReplyForError(err)
	}
	if reply == nil {
		return
	}
	if target.ChatID == 0 {
		logger.Warn("Ответ некуда отправить: нет chat id")
		return
	}
	d.send(ctx, logger, target.ChatID, reply)
}

// route вызывает обработчик намерения. nil-ответ — ничего не отправлять.
func (d *Dispatcher) route(ctx context.Context, logger *slog.Logger, in intent.Intent) (*service.Reply, error) {
	switch v := in.(type) {
	case intent.Start:
		return service.TextReply(service.WelcomeText), nil
	case intent.Help:
		return service.TextReply(service.HelpText), nil
	case intent.ListFiles:
		return d.lister.List(ctx, v.OwnerID, 0)
	case intent.ListPage:
		return d.lister.List(ctx, v.OwnerID, v.Offset)
	case intent.ListSelection:
		return d.lister.Select(ctx, v.OwnerID, v.RecordID)
	case intent.FileUpload:
		return d.ingester.Ingest(ctx, v)
	case intent.Unrecognized:
		logger.Debug("Событие проигнорировано", slog.String("reason", v.Reason))
		return nil, nil
	default:
		return nil, fmt.Errorf("неизвестное намерение %T", in)
	}
}

// send отправляет текст с клавиатурой и, если есть, файл по handle.
func (d *Dispatcher) send(ctx context.Context, logger *slog.Logger, chatID int64, reply *service.Reply) {
	if reply.Text != "" {
		if err := d.sender.SendMessage(ctx, chatID, reply.Text, keyboard(reply.Buttons)); err != nil {
			logger.Error("Ошибка отправки сообщения",
				slog.Int64("chat_id", chatID),
				slog.String("error", err.Error()),
			)
			return
		}
	}

	if reply.Delivery == nil {
		return
	}
	del := reply.Delivery
	if err := d.sender.SendFile(ctx, chatID, del.Kind, del.RemoteHandle, del.Caption); err != nil {
		logger.Error("Ошибка повторной отправки файла",
			slog.Int64("chat_id", chatID),
			slog.String("kind", string(del.Kind)),
			slog.String("error", err.Error()),
		)
		if err := d.sender.SendMessage(ctx, chatID, service.GenericErrorText, nil); err != nil {
			logger.Error("Ошибка отправки сообщения об ошибке", slog.String("error", err.Error()))
		}
	}
}

// keyboard переводит кнопки ответа в inline-клавиатуру Telegram.
func keyboard(rows [][]service.Button) [][]telegram.InlineKeyboardButton {
	if len(rows) == 0 {
		return nil
	}
	out := make([][]telegram.InlineKeyboardButton, 0, len(rows))
	for _, row := range rows {
		kbRow := make([]telegram.InlineKeyboardButton, 0, len(row))
		for _, b := range row {
			kbRow = append(kbRow, telegram.InlineKeyboardButton{Text: b.Label, CallbackData: b.Data})
		}
		out = append(out, kbRow)
	}
	return out
}

// errorResult — лейбл result метрики для ошибки.
func errorResult(err error) string {
	switch {
	case errors.Is(err, service.ErrStoreUnavailable):
		return "unavailable"
	case errors.Is(err, service.ErrNotFound), errors.Is(err, service.ErrForbidden):
		return "denied"
	case errors.Is(err, service.ErrMalformedEvent):
		return "malformed"
	default:
		return "error"
	}
}

// logError пишет ошибку обработчика с уровнем по её виду.
func logError(logger *slog.Logger, name string, err error) {
	attrs := []any{slog.String("intent", name), slog.String("error", err.Error())}
	switch {
	case errors.Is(err, service.ErrNotFound), errors.Is(err, service.ErrMalformedEvent):
		logger.Info("Запрос отклонён", attrs...)
	case errors.Is(err, service.ErrForbidden):
		logger.Warn("Запрос отклонён", attrs...)
	default:
		logger.Error("Ошибка обработки события", attrs...)
	}
}

// newTraceID — id корреляции логов одного события (UUID v7, упорядочен по времени).
func newTraceID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}
