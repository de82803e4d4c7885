// Пакет config — загрузка и валидация конфигурации File Keeper Bot
// из переменных окружения.
package config

import (
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Версия приложения, задаётся при сборке через -ldflags.
var Version = "dev"

// ServiceName — имя сервиса в health-ответах и метриках dephealth.
const ServiceName = "filebot"

// MaxPollTimeout — верхняя граница FB_POLL_TIMEOUT.
const MaxPollTimeout = 50 * time.Second

// Config содержит все параметры конфигурации бота.
type Config struct {
	// --- Сервер ---

	// Порт HTTP-сервера (health, metrics, webhook)
	Port int
	// Уровень логирования (debug, info, warn, error)
	LogLevel slog.Level
	// Формат логов (json, text)
	LogFormat string

	// --- HTTP Server Timeouts ---

	HTTPReadTimeout  time.Duration
	HTTPWriteTimeout time.Duration
	HTTPIdleTimeout  time.Duration

	// --- PostgreSQL ---

	// DatabaseURLRaw — полный URL подключения (FB_DATABASE_URL / DATABASE_URL).
	// Если задан, DB* поля заполняются из него.
	DatabaseURLRaw string
	DBHost         string
	DBPort         int
	DBName         string
	DBUser         string
	DBPassword     string
	// Режим SSL: disable, require, verify-ca, verify-full
	DBSSLMode string
	// Таймаут одного обращения к хранилищу метаданных
	StoreTimeout time.Duration

	// --- Telegram ---

	// Токен бота (обязательный)
	BotToken string
	// Базовый URL Bot API
	TelegramBaseURL string
	// Публичный URL webhook. Пустой — режим long polling.
	WebhookURL string
	// Секрет заголовка X-Telegram-Bot-Api-Secret-Token
	WebhookSecret string
	// Таймаут long polling
	PollTimeout time.Duration
	// Максимум одновременно обрабатываемых updates в режиме polling
	PollWorkers int

	// --- Листинг ---

	// Ключ для токенов выбора файла (пустой — случайный на время жизни процесса)
	SessionSecret string
	// Количество файлов на странице /myfiles
	PageSize int

	// --- topologymetrics ---

	DephealthGroup         string
	DephealthCheckInterval time.Duration

	// --- Graceful shutdown ---

	ShutdownTimeout time.Duration
}

// Load загружает конфигурацию из переменных окружения.
// Возвращает ошибку, если обязательные переменные не заданы
// или значения некорректны.
func Load() (*Config, error) {
	cfg := &Config{}
	var err error

	// --- Сервер ---

	// FB_PORT — порт HTTP-сервера (по умолчанию 8040). PORT — для PaaS.
	cfg.Port, err = getEnvInt("FB_PORT", 0)
	if err != nil {
		return nil, fmt.Errorf("FB_PORT: %w", err)
	}
	if cfg.Port == 0 {
		cfg.Port, err = getEnvInt("PORT", 8040)
		if err != nil {
			return nil, fmt.Errorf("PORT: %w", err)
		}
	}
	if cfg.Port < 1 || cfg.Port > 65535 {
		return nil, fmt.Errorf("FB_PORT: значение %d вне допустимого диапазона 1-65535", cfg.Port)
	}

	// FB_LOG_LEVEL — уровень логирования (по умолчанию info)
	cfg.LogLevel, err = parseLogLevel(getEnvDefault("FB_LOG_LEVEL", "info"))
	if err != nil {
		return nil, fmt.Errorf("FB_LOG_LEVEL: %w", err)
	}

	// FB_LOG_FORMAT — формат логов (по умолчанию json)
	cfg.LogFormat = getEnvDefault("FB_LOG_FORMAT", "json")
	if cfg.LogFormat != "json" && cfg.LogFormat != "text" {
		return nil, fmt.Errorf("FB_LOG_FORMAT: недопустимый формат %q, допустимые: json, text", cfg.LogFormat)
	}

	// --- HTTP Server Timeouts ---

	cfg.HTTPReadTimeout, err = getEnvDuration("FB_HTTP_READ_TIMEOUT", 30*time.Second)
	if err != nil {
		return nil, fmt.Errorf("FB_HTTP_READ_TIMEOUT: %w", err)
	}
	cfg.HTTPWriteTimeout, err = getEnvDuration("FB_HTTP_WRITE_TIMEOUT", 60*time.Second)
	if err != nil {
		return nil, fmt.Errorf("FB_HTTP_WRITE_TIMEOUT: %w", err)
	}
	cfg.HTTPIdleTimeout, err = getEnvDuration("FB_HTTP_IDLE_TIMEOUT", 120*time.Second)
	if err != nil {
		return nil, fmt.Errorf("FB_HTTP_IDLE_TIMEOUT: %w", err)
	}

	// --- PostgreSQL ---

	if err := loadDatabase(cfg); err != nil {
		return nil, err
	}

	// FB_STORE_TIMEOUT — таймаут обращения к БД (по умолчанию 5s)
	cfg.StoreTimeout, err = getEnvDuration("FB_STORE_TIMEOUT", 5*time.Second)
	if err != nil {
		return nil, fmt.Errorf("FB_STORE_TIMEOUT: %w", err)
	}
	if cfg.StoreTimeout <= 0 {
		return nil, fmt.Errorf("FB_STORE_TIMEOUT: значение должно быть > 0")
	}

	// --- Telegram ---

	// FB_BOT_TOKEN — обязательный (BOT_TOKEN — совместимость со старым деплоем)
	cfg.BotToken = getEnvDefault("FB_BOT_TOKEN", os.Getenv("BOT_TOKEN"))
	if cfg.BotToken == "" {
		return nil, fmt.Errorf("FB_BOT_TOKEN: обязательная переменная окружения не задана")
	}

	cfg.TelegramBaseURL = strings.TrimRight(getEnvDefault("FB_TELEGRAM_BASE_URL", "https://api.telegram.org"), "/")

	// FB_WEBHOOK_URL — если задан, бот работает в режиме webhook
	cfg.WebhookURL = strings.TrimSpace(os.Getenv("FB_WEBHOOK_URL"))
	if cfg.WebhookURL != "" {
		parsed, parseErr := url.Parse(cfg.WebhookURL)
		if parseErr != nil || parsed.Scheme != "https" || parsed.Host == "" {
			return nil, fmt.Errorf("FB_WEBHOOK_URL: ожидается абсолютный https URL, получено %q", cfg.WebhookURL)
		}
	}
	cfg.WebhookSecret = os.Getenv("FB_WEBHOOK_SECRET")
	if cfg.WebhookURL != "" && cfg.WebhookSecret == "" {
		return nil, fmt.Errorf("FB_WEBHOOK_SECRET: обязателен в режиме webhook")
	}

	cfg.PollTimeout, err = getEnvDuration("FB_POLL_TIMEOUT", 30*time.Second)
	if err != nil {
		return nil, fmt.Errorf("FB_POLL_TIMEOUT: %w", err)
	}
	// Long poll должен укладываться в таймаут HTTP-клиента Telegram (60s).
	if cfg.PollTimeout < time.Second || cfg.PollTimeout > MaxPollTimeout {
		return nil, fmt.Errorf("FB_POLL_TIMEOUT: значение %s вне допустимого диапазона 1s-%s", cfg.PollTimeout, MaxPollTimeout)
	}

	cfg.PollWorkers, err = getEnvInt("FB_POLL_WORKERS", 8)
	if err != nil {
		return nil, fmt.Errorf("FB_POLL_WORKERS: %w", err)
	}
	if cfg.PollWorkers < 1 {
		return nil, fmt.Errorf("FB_POLL_WORKERS: значение должно быть >= 1")
	}

	// --- Листинг ---

	cfg.SessionSecret = os.Getenv("FB_SESSION_SECRET")

	cfg.PageSize, err = getEnvInt("FB_PAGE_SIZE", 10)
	if err != nil {
		return nil, fmt.Errorf("FB_PAGE_SIZE: %w", err)
	}
	// Не более 50 кнопок: ограничение inline-клавиатуры Telegram с запасом.
	if cfg.PageSize < 1 || cfg.PageSize > 50 {
		return nil, fmt.Errorf("FB_PAGE_SIZE: значение %d вне допустимого диапазона 1-50", cfg.PageSize)
	}

	// --- topologymetrics ---

	cfg.DephealthGroup = getEnvDefault("FB_DEPHEALTH_GROUP", ServiceName)
	cfg.DephealthCheckInterval, err = getEnvDuration("FB_DEPHEALTH_CHECK_INTERVAL", 15*time.Second)
	if err != nil {
		return nil, fmt.Errorf("FB_DEPHEALTH_CHECK_INTERVAL: %w", err)
	}

	// --- Graceful shutdown ---

	cfg.ShutdownTimeout, err = getEnvDuration("FB_SHUTDOWN_TIMEOUT", 5*time.Second)
	if err != nil {
		return nil, fmt.Errorf("FB_SHUTDOWN_TIMEOUT: %w", err)
	}

	return cfg, nil
}

// loadDatabase заполняет параметры PostgreSQL: из полного URL, если он задан,
// иначе из отдельных FB_DB_* переменных.
func loadDatabase(cfg *Config) error {
	raw := getEnvDefault("FB_DATABASE_URL", os.Getenv("DATABASE_URL"))
	if raw != "" {
		dbURL, err := cleanDatabaseURL(raw)
		if err != nil {
			return fmt.Errorf("FB_DATABASE_URL: %w", err)
		}
		parsed, err := url.Parse(dbURL)
		if err != nil {
			return fmt.Errorf("FB_DATABASE_URL: некорректный URL")
		}
		cfg.DatabaseURLRaw = dbURL
		cfg.DBHost = parsed.Hostname()
		cfg.DBPort = 5432
		if p := parsed.Port(); p != "" {
			n, convErr := strconv.Atoi(p)
			if convErr != nil {
				return fmt.Errorf("FB_DATABASE_URL: некорректный порт %q", p)
			}
			cfg.DBPort = n
		}
		cfg.DBName = strings.TrimPrefix(parsed.Path, "/")
		cfg.DBUser = parsed.User.Username()
		cfg.DBPassword, _ = parsed.User.Password()
		cfg.DBSSLMode = parsed.Query().Get("sslmode")
		if cfg.DBSSLMode == "" {
			cfg.DBSSLMode = "disable"
		}
		if cfg.DBHost == "" || cfg.DBName == "" {
			return fmt.Errorf("FB_DATABASE_URL: в URL должны быть указаны host и имя базы")
		}
		return nil
	}

	var err error

	// FB_DB_HOST — обязательный
	cfg.DBHost, err = getEnvRequired("FB_DB_HOST")
	if err != nil {
		return err
	}

	// FB_DB_PORT — порт PostgreSQL (по умолчанию 5432)
	cfg.DBPort, err = getEnvInt("FB_DB_PORT", 5432)
	if err != nil {
		return fmt.Errorf("FB_DB_PORT: %w", err)
	}

	cfg.DBName, err = getEnvRequired("FB_DB_NAME")
	if err != nil {
		return err
	}
	cfg.DBUser, err = getEnvRequired("FB_DB_USER")
	if err != nil {
		return err
	}
	cfg.DBPassword, err = getEnvRequired("FB_DB_PASSWORD")
	if err != nil {
		return err
	}

	// FB_DB_SSL_MODE — режим SSL (по умолчанию disable)
	cfg.DBSSLMode = getEnvDefault("FB_DB_SSL_MODE", "disable")
	validSSLModes := map[string]bool{
		"disable": true, "require": true, "verify-ca": true, "verify-full": true,
	}
	if !validSSLModes[cfg.DBSSLMode] {
		return fmt.Errorf("FB_DB_SSL_MODE: недопустимое значение %q, допустимые: disable, require, verify-ca, verify-full", cfg.DBSSLMode)
	}
	return nil
}

// psqlURLPattern извлекает URL из вставленной целиком команды psql 'postgresql://...'.
var psqlURLPattern = regexp.MustCompile(`'(postgres(?:ql)?://[^']+)'`)

// cleanDatabaseURL принимает URL подключения или строку вида psql '<url>',
// которую часто копируют из консоли облачного провайдера.
func cleanDatabaseURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "psql") {
		m := psqlURLPattern.FindStringSubmatch(raw)
		if m == nil {
			return "", fmt.Errorf("не удалось извлечь URL из команды psql")
		}
		raw = m[1]
	}
	if !strings.HasPrefix(raw, "postgres://") && !strings.HasPrefix(raw, "postgresql://") {
		return "", fmt.Errorf("ожидается схема postgres:// или postgresql://")
	}
	return raw, nil
}

// DatabaseDSN возвращает строку подключения к PostgreSQL для pgxpool.
// URL из FB_DATABASE_URL передаётся без изменений, со всеми параметрами query.
func (c *Config) DatabaseDSN() string {
	if c.DatabaseURLRaw != "" {
		return c.DatabaseURLRaw
	}
	return fmt.Sprintf(
		"host=%s port=%d dbname=%s user=%s password=%s sslmode=%s",
		quoteDSNValue(c.DBHost), c.DBPort, quoteDSNValue(c.DBName),
		quoteDSNValue(c.DBUser), quoteDSNValue(c.DBPassword), quoteDSNValue(c.DBSSLMode),
	)
}

// dsnEscaper экранирует спецсимволы значения keyword/value DSN libpq.
var dsnEscaper = strings.NewReplacer(`\`, `\\`, `'`, `\'`)

// quoteDSNValue заключает значение DSN в одинарные кавычки.
func quoteDSNValue(v string) string {
	return "'" + dsnEscaper.Replace(v) + "'"
}

// DatabaseURL возвращает URL PostgreSQL без пароля (для лейблов dephealth).
func (c *Config) DatabaseURL() string {
	return fmt.Sprintf("postgres://%s:%d/%s", c.DBHost, c.DBPort, c.DBName)
}

// MigrateURL возвращает URL для golang-migrate (схема pgx5://).
// Для FB_DATABASE_URL меняется только схема, query сохраняется.
func (c *Config) MigrateURL() string {
	if c.DatabaseURLRaw != "" {
		if u, err := url.Parse(c.DatabaseURLRaw); err == nil {
			u.Scheme = "pgx5"
			return u.String()
		}
	}
	u := url.URL{
		Scheme:   "pgx5",
		User:     url.UserPassword(c.DBUser, c.DBPassword),
		Host:     fmt.Sprintf("%s:%d", c.DBHost, c.DBPort),
		Path:     "/" + c.DBName,
		RawQuery: "sslmode=" + url.QueryEscape(c.DBSSLMode),
	}
	return u.String()
}

// WebhookMode сообщает, принимает ли бот updates через webhook.
func (c *Config) WebhookMode() bool {
	return c.WebhookURL != ""
}

// SetupLogger настраивает глобальный slog-логгер на основе конфигурации.
func SetupLogger(cfg *Config) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}

	var handler slog.Handler
	if cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

// --- Вспомогательные функции ---

// getEnvRequired возвращает значение переменной окружения или ошибку, если она не задана.
func getEnvRequired(key string) (string, error) {
	val := os.Getenv(key)
	if val == "" {
		return "", fmt.Errorf("%s: обязательная переменная окружения не задана", key)
	}
	return val, nil
}

// getEnvDefault возвращает значение переменной окружения или значение по умолчанию.
func getEnvDefault(key, defaultVal string) string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	return val
}

// getEnvInt возвращает целочисленное значение переменной окружения или значение по умолчанию.
func getEnvInt(key string, defaultVal int) (int, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return 0, fmt.Errorf("некорректное целое число: %q", val)
	}
	return n, nil
}

// getEnvDuration возвращает time.Duration из переменной окружения или значение по умолчанию.
func getEnvDuration(key string, defaultVal time.Duration) (time.Duration, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return 0, fmt.Errorf("некорректная длительность: %q (используйте формат Go: 30s, 1h, 15m)", val)
	}
	return d, nil
}

// parseLogLevel преобразует строку уровня логирования в slog.Level.
func parseLogLevel(level string) (slog.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("недопустимый уровень %q, допустимые: debug, info, warn, error", level)
	}
}
