// Точка входа File Keeper Bot — Telegram-бота для хранения файлов.
// Загружает конфигурацию, применяет миграции, подключается к PostgreSQL,
// собирает сервисный слой и диспетчер событий, получает события через
// webhook или long polling, запускает topologymetrics и HTTP-сервер
// с graceful shutdown.
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"

	"github.com/jackc/pgx/v5/stdlib"

	"github.com/bigkaa/goartstore/filebot/internal/api/handlers"
	"github.com/bigkaa/goartstore/filebot/internal/bot"
	"github.com/bigkaa/goartstore/filebot/internal/config"
	"github.com/bigkaa/goartstore/filebot/internal/database"
	"github.com/bigkaa/goartstore/filebot/internal/repository"
	"github.com/bigkaa/goartstore/filebot/internal/server"
	"github.com/bigkaa/goartstore/filebot/internal/service"
	"github.com/bigkaa/goartstore/filebot/internal/telegram"
)

func main() {
	// 1. Загрузка конфигурации из переменных окружения
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Ошибка загрузки конфигурации", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 2. Настройка логирования
	logger := config.SetupLogger(cfg)
	logger.Info("File Keeper Bot запускается",
		slog.String("version", config.Version),
		slog.Int("port", cfg.Port),
		slog.Bool("webhook_mode", cfg.WebhookMode()),
	)

	// 3. Применение миграций БД
	logger.Info("Применение миграций БД...")
	if err := database.Migrate(cfg, logger); err != nil {
		logger.Error("Ошибка миграций БД", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 4. Подключение к PostgreSQL (pgxpool)
	ctx := context.Background()
	pool, err := database.Connect(ctx, cfg, logger)
	if err != nil {
		logger.Error("Ошибка подключения к PostgreSQL", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer pool.Close()

	// 4.1 Адаптер pgxpool → *sql.DB для topologymetrics (connection pool mode)
	pgDB := stdlib.OpenDBFromPool(pool)
	defer pgDB.Close()

	// 5. Repository и сервисы
	fileRepo := repository.NewFileRecordRepository(pool, cfg.StoreTimeout)

	if cfg.SessionSecret == "" {
		logger.Warn("FB_SESSION_SECRET не задан, кнопки листинга перестают работать после рестарта")
	}
	codec, err := service.NewSelectionCodec(cfg.SessionSecret)
	if err != nil {
		logger.Error("Ошибка создания кодека токенов выбора", slog.String("error", err.Error()))
		os.Exit(1)
	}

	ingestionSvc := service.NewIngestionService(fileRepo, logger)
	listingSvc := service.NewListingService(fileRepo, codec, cfg.PageSize, logger)

	// 6. Telegram Bot API клиент, проверка токена
	tgClient := telegram.New(nil, cfg.TelegramBaseURL, cfg.BotToken, logger)
	me, err := tgClient.GetMe(ctx)
	if err != nil {
		logger.Error("Ошибка проверки токена бота", slog.String("error", err.Error()))
		os.Exit(1)
	}
	logger.Info("Бот авторизован", slog.String("username", me.Username), slog.Int64("bot_id", me.ID))

	// 7. Диспетчер событий
	dispatcher := bot.NewDispatcher(
		bot.NewNormalizer(codec),
		ingestionSvc,
		listingSvc,
		tgClient,
		logger,
	)

	// 8. Источник событий: webhook или long polling
	var webhook http.Handler
	var poller *bot.Poller
	if cfg.WebhookMode() {
		if err := tgClient.SetWebhook(ctx, cfg.WebhookURL, cfg.WebhookSecret); err != nil {
			logger.Error("Ошибка регистрации webhook", slog.String("error", err.Error()))
			os.Exit(1)
		}
		webhook = handlers.NewWebhookHandler(cfg.WebhookSecret, dispatcher, logger)
	} else {
		if err := tgClient.DeleteWebhook(ctx); err != nil {
			logger.Warn("Ошибка снятия webhook", slog.String("error", err.Error()))
		}
		poller = bot.NewPoller(tgClient, dispatcher, cfg.PollTimeout, cfg.PollWorkers, logger)
		poller.Start(ctx)
	}

	// 9. topologymetrics — мониторинг зависимостей (PostgreSQL + Telegram Bot API)
	dephealthSvc, dephealthErr := service.NewDephealthService(
		config.ServiceName,
		cfg.DephealthGroup,
		pgDB,
		cfg.DatabaseURL(),
		cfg.TelegramBaseURL,
		cfg.DephealthCheckInterval,
		logger,
	)
	if dephealthErr != nil {
		logger.Warn("topologymetrics недоступен, запуск без мониторинга зависимостей",
			slog.String("error", dephealthErr.Error()),
		)
	} else if startErr := dephealthSvc.Start(ctx); startErr != nil {
		logger.Warn("Ошибка запуска topologymetrics", slog.String("error", startErr.Error()))
	}

	// 10. HTTP-сервер
	healthHandler := handlers.NewHealthHandler(cfg, database.NewReadinessChecker(pool))
	srv := server.New(cfg, logger, healthHandler, webhook)
	if err := srv.Run(); err != nil {
		logger.Error("Ошибка сервера", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 11. Graceful shutdown фоновых задач
	logger.Info("Останавливаем фоновые задачи...")
	if poller != nil {
		poller.Stop()
	}
	if dephealthSvc != nil {
		dephealthSvc.Stop()
	}

	logger.Info("File Keeper Bot остановлен")
}
