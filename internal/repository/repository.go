// Пакет repository — слой доступа к данным PostgreSQL.
// Все запросы — чистый SQL через pgx, без ORM и без кэширования:
// каждый вызов отражает последнее закоммиченное состояние.
package repository

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Ошибки слоя репозиториев.
var (
	// ErrNotFound — запись не найдена.
	ErrNotFound = errors.New("запись не найдена")
	// ErrInvalidRecord — запись нарушает ограничения (нет владельца или handle).
	ErrInvalidRecord = errors.New("некорректная запись")
	// ErrStoreUnavailable — PostgreSQL недоступен (сеть, таймаут, рестарт сервера).
	ErrStoreUnavailable = errors.New("хранилище метаданных недоступно")
)

// DBTX — интерфейс для выполнения SQL-запросов.
// Реализуется как *pgxpool.Pool, так и pgx.Tx.
type DBTX interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// classifyError сопоставляет ошибку драйвера с ошибками слоя.
// Сетевые сбои и таймауты — ErrStoreUnavailable, нарушения
// CHECK/NOT NULL — ErrInvalidRecord. Исходная ошибка сохраняется в тексте
// для логов, наружу сравнение идёт только через errors.Is.
func classifyError(err error) error {
	if err == nil {
		return nil
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch {
		case pgErr.Code == "23514", pgErr.Code == "23502": // check_violation, not_null_violation
			return fmt.Errorf("%w: %v", ErrInvalidRecord, err)
		case strings.HasPrefix(pgErr.Code, "08"), // connection_exception
			pgErr.Code == "57P01", // admin_shutdown
			pgErr.Code == "57P02", // crash_shutdown
			pgErr.Code == "57P03": // cannot_connect_now
			return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
		}
		return err
	}

	if isUnavailable(err) {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return err
}

// isUnavailable — признаки недоступности сервера БД без ответа PostgreSQL.
func isUnavailable(err error) bool {
	var connErr *pgconn.ConnectError
	if errors.As(err, &connErr) {
		return true
	}
	if errors.Is(err, context.DeadlineExceeded) || pgconn.Timeout(err) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	// pgxpool после Close() возвращает ошибку без отдельного типа
	return strings.Contains(err.Error(), "closed pool")
}

// withTimeout ограничивает одно обращение к хранилищу.
// Нулевой timeout — без дополнительного ограничения.
func withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}
