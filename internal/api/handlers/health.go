// health.go — служебные endpoints бота.
// / и /health/live — liveness probe (процесс жив)
// /health/ready — readiness probe (PostgreSQL доступен)
// /metrics — Prometheus метрики
// /debug/status — флаги конфигурации без значений секретов
package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/bigkaa/goartstore/filebot/internal/config"
)

// ReadinessChecker — интерфейс проверки готовности зависимости.
type ReadinessChecker interface {
	// CheckReady возвращает статус ("ok", "fail") и сообщение.
	CheckReady() (status string, message string)
}

// HealthHandler — обработчик служебных endpoints.
type HealthHandler struct {
	cfg         *config.Config
	pgChecker   ReadinessChecker
	promHandler http.Handler
}

// NewHealthHandler создаёт обработчик служебных endpoints.
// pgChecker может быть nil: readiness вернёт "fail".
func NewHealthHandler(cfg *config.Config, pgChecker ReadinessChecker) *HealthHandler {
	return &HealthHandler{
		cfg:         cfg,
		pgChecker:   pgChecker,
		promHandler: promhttp.Handler(),
	}
}

// healthCheckResult — результат проверки одной зависимости.
type healthCheckResult struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// healthLiveResponse — ответ liveness probe.
type healthLiveResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Version   string `json:"version"`
	Service   string `json:"service"`
}

// healthReadyResponse — ответ readiness probe.
type healthReadyResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Version   string `json:"version"`
	Service   string `json:"service"`
	Checks    struct {
		PostgreSQL healthCheckResult `json:"postgresql"`
	} `json:"checks"`
}

// debugStatusResponse — ответ /debug/status. Только флаги, без значений.
type debugStatusResponse struct {
	Service            string `json:"service"`
	Version            string `json:"version"`
	Port               int    `json:"port"`
	BotTokenSet        bool   `json:"bot_token_set"`
	DatabaseConfigured bool   `json:"database_configured"`
	SessionSecretSet   bool   `json:"session_secret_set"`
	WebhookMode        bool   `json:"webhook_mode"`
}

// HealthLive — liveness probe. Возвращает 200 если процесс жив.
func (h *HealthHandler) HealthLive(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, healthLiveResponse{
		Status:    "ok",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Version:   config.Version,
		Service:   config.ServiceName,
	})
}

// HealthReady — readiness probe. Проверяет PostgreSQL.
// Возвращает 200 (ok) или 503 (fail).
func (h *HealthHandler) HealthReady(w http.ResponseWriter, _ *http.Request) {
	resp := healthReadyResponse{
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Version:   config.Version,
		Service:   config.ServiceName,
	}

	if h.pgChecker != nil {
		status, msg := h.pgChecker.CheckReady()
		resp.Checks.PostgreSQL = healthCheckResult{Status: status, Message: msg}
	} else {
		resp.Checks.PostgreSQL = healthCheckResult{Status: "fail", Message: "не инициализирован"}
	}
	resp.Status = resp.Checks.PostgreSQL.Status

	code := http.StatusOK
	if resp.Status == "fail" {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, resp)
}

// GetMetrics — Prometheus метрики.
func (h *HealthHandler) GetMetrics(w http.ResponseWriter, r *http.Request) {
	h.promHandler.ServeHTTP(w, r)
}

// DebugStatus — состояние конфигурации для диагностики развёртывания.
func (h *HealthHandler) DebugStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, debugStatusResponse{
		Service:            config.ServiceName,
		Version:            config.Version,
		Port:               h.cfg.Port,
		BotTokenSet:        h.cfg.BotToken != "",
		DatabaseConfigured: h.cfg.DBHost != "" && h.cfg.DBName != "",
		SessionSecretSet:   h.cfg.SessionSecret != "",
		WebhookMode:        h.cfg.WebhookMode(),
	})
}

// Favicon — пустой ответ, чтобы браузер не засорял лог 404.
func (h *HealthHandler) Favicon(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusNoContent)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
