// poller.go — получение событий через long polling (getUpdates).
//
// Poller запускает фоновую горутину, которая запрашивает пачку событий,
// обрабатывает её пулом воркеров (не более workers одновременно) и только
// после завершения всей пачки подтверждает её следующим offset.
// При ошибке Bot API — экспоненциальная пауза от 1s до 30s.
package bot

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/bigkaa/goartstore/filebot/internal/telegram"
)

const (
	minBackoff = time.Second
	maxBackoff = 30 * time.Second
)

// UpdateSource — источник событий (telegram.Client).
type UpdateSource interface {
	GetUpdates(ctx context.Context, offset int64, timeout time.Duration) ([]telegram.Update, int64, error)
}

// UpdateHandler — обработчик одного события (Dispatcher).
type UpdateHandler interface {
	HandleUpdate(ctx context.Context, u telegram.Update)
}

// Poller — цикл long polling.
type Poller struct {
	source  UpdateSource
	handler UpdateHandler
	timeout time.Duration
	workers int
	logger  *slog.Logger

	cancel context.CancelFunc
	done   chan struct{}
}

// NewPoller создаёт Poller. workers <= 0 — один воркер.
func NewPoller(source UpdateSource, handler UpdateHandler, timeout time.Duration, workers int, logger *slog.Logger) *Poller {
	if workers <= 0 {
		workers = 1
	}
	return &Poller{
		source:  source,
		handler: handler,
		timeout: timeout,
		workers: workers,
		logger:  logger.With(slog.String("component", "poller")),
	}
}

// Start запускает фоновый цикл получения событий.
func (p *Poller) Start(ctx context.Context) {
	ctx, p.cancel = context.WithCancel(ctx)
	p.done = make(chan struct{})

	go func() {
		defer close(p.done)

		p.logger.Info("Long polling запущен",
			slog.String("timeout", p.timeout.String()),
			slog.Int("workers", p.workers),
		)
		p.run(ctx)
		p.logger.Info("Long polling остановлен")
	}()
}

// Stop останавливает цикл и ждёт завершения текущей пачки.
func (p *Poller) Stop() {
	if p.cancel != nil {
		p.cancel()
	}
	if p.done != nil {
		<-p.done
	}
}

func (p *Poller) run(ctx context.Context) {
	var offset int64
	backoff := minBackoff

	for {
		if ctx.Err() != nil {
			return
		}

		updates, next, err := p.source.GetUpdates(ctx, offset, p.timeout)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			p.logger.Error("Ошибка getUpdates",
				slog.String("error", err.Error()),
				slog.String("retry_in", backoff.String()),
			)
			select {
			case <-ctx.Done():
				return
			case <-time.After(backoff):
			}
			backoff = min(backoff*2, maxBackoff)
			continue
		}
		backoff = minBackoff

		if len(updates) > 0 {
			p.handleBatch(ctx, updates)
		}
		offset = next
	}
}

// handleBatch обрабатывает пачку событий и ждёт их завершения.
// Обработка не прерывается остановкой: начатые события доводятся до ответа.
func (p *Poller) handleBatch(ctx context.Context, updates []telegram.Update) {
	handlerCtx := context.WithoutCancel(ctx)

	var g errgroup.Group
	g.SetLimit(p.workers)
	for _, u := range updates {
		g.Go(func() error {
			p.handler.HandleUpdate(handlerCtx, u)
			return nil
		})
	}
	_ = g.Wait()

	p.logger.Debug("Пачка событий обработана", slog.Int("count", len(updates)))
}
