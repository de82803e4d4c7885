package repository

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/bigkaa/goartstore/filebot/internal/domain/model"
)

// --- Заглушки pgx для unit-тестов ---

// stubRow — pgx.Row, возвращающий заданную ошибку.
type stubRow struct {
	err error
}

func (r stubRow) Scan(...any) error { return r.err }

// stubDB — DBTX, все запросы которого завершаются ошибкой err.
type stubDB struct {
	err     error
	queries []string
	// deadlineSet — у контекста последнего запроса был дедлайн
	deadlineSet bool
}

func (d *stubDB) record(ctx context.Context, sql string) {
	d.queries = append(d.queries, sql)
	_, d.deadlineSet = ctx.Deadline()
}

func (d *stubDB) Exec(ctx context.Context, sql string, _ ...any) (pgconn.CommandTag, error) {
	d.record(ctx, sql)
	return pgconn.CommandTag{}, d.err
}

func (d *stubDB) Query(ctx context.Context, sql string, _ ...any) (pgx.Rows, error) {
	d.record(ctx, sql)
	return nil, d.err
}

func (d *stubDB) QueryRow(ctx context.Context, sql string, _ ...any) pgx.Row {
	d.record(ctx, sql)
	return stubRow{err: d.err}
}

func validRecord() model.NewFileRecord {
	size := int64(1024)
	return model.NewFileRecord{
		OwnerID:      42,
		RemoteHandle: "BQACAgIAAxkBAAIB",
		DisplayName:  "report.pdf",
		ByteSize:     &size,
		Kind:         model.KindDocument,
	}
}

// --- Тесты classifyError ---

func TestClassifyError(t *testing.T) {
	dialErr := &net.OpError{Op: "dial", Net: "tcp", Err: errors.New("connection refused")}

	tests := []struct {
		name string
		err  error
		want error
	}{
		{"check_violation", &pgconn.PgError{Code: "23514"}, ErrInvalidRecord},
		{"not_null_violation", &pgconn.PgError{Code: "23502"}, ErrInvalidRecord},
		{"connection_exception", &pgconn.PgError{Code: "08006"}, ErrStoreUnavailable},
		{"admin_shutdown", &pgconn.PgError{Code: "57P01"}, ErrStoreUnavailable},
		{"cannot_connect_now", &pgconn.PgError{Code: "57P03"}, ErrStoreUnavailable},
		{"сетевая ошибка", fmt.Errorf("запрос: %w", dialErr), ErrStoreUnavailable},
		{"дедлайн", fmt.Errorf("запрос: %w", context.DeadlineExceeded), ErrStoreUnavailable},
		{"закрытый пул", errors.New("closed pool"), ErrStoreUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := classifyError(tt.err)
			if !errors.Is(got, tt.want) {
				t.Errorf("classifyError(%v) = %v, ожидалось %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestClassifyError_PassThrough(t *testing.T) {
	if classifyError(nil) != nil {
		t.Error("classifyError(nil) должен вернуть nil")
	}

	syntaxErr := &pgconn.PgError{Code: "42601"}
	got := classifyError(syntaxErr)
	if errors.Is(got, ErrStoreUnavailable) || errors.Is(got, ErrInvalidRecord) {
		t.Errorf("синтаксическая ошибка классифицирована как %v", got)
	}
	if !errors.Is(got, syntaxErr) {
		t.Error("исходная ошибка должна сохраниться")
	}

	if errors.Is(classifyError(context.Canceled), ErrStoreUnavailable) {
		t.Error("отмена запроса вызывающим — не недоступность хранилища")
	}
}

// --- Тесты валидации ---

func TestValidateNewRecord(t *testing.T) {
	negative := int64(-1)

	tests := []struct {
		name   string
		mutate func(r *model.NewFileRecord)
		ok     bool
	}{
		{"корректная запись", func(*model.NewFileRecord) {}, true},
		{"пустое имя допустимо", func(r *model.NewFileRecord) { r.DisplayName = "" }, true},
		{"размер неизвестен", func(r *model.NewFileRecord) { r.ByteSize = nil }, true},
		{"вид не указан", func(r *model.NewFileRecord) { r.Kind = "" }, true},
		{"нет владельца", func(r *model.NewFileRecord) { r.OwnerID = 0 }, false},
		{"нет handle", func(r *model.NewFileRecord) { r.RemoteHandle = "" }, false},
		{"handle из пробелов", func(r *model.NewFileRecord) { r.RemoteHandle = "   " }, false},
		{"отрицательный размер", func(r *model.NewFileRecord) { r.ByteSize = &negative }, false},
		{"неизвестный вид", func(r *model.NewFileRecord) { r.Kind = "hologram" }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := validRecord()
			tt.mutate(&rec)
			err := validateNewRecord(rec)
			if tt.ok && err != nil {
				t.Errorf("неожиданная ошибка: %v", err)
			}
			if !tt.ok && !errors.Is(err, ErrInvalidRecord) {
				t.Errorf("err = %v, ожидалась ErrInvalidRecord", err)
			}
		})
	}
}

// TestCreate_InvalidRecordNoIO проверяет, что невалидная запись
// отклоняется до обращения к БД.
func TestCreate_InvalidRecordNoIO(t *testing.T) {
	db := &stubDB{}
	repo := NewFileRecordRepository(db, 0)

	rec := validRecord()
	rec.OwnerID = 0
	if _, err := repo.Create(context.Background(), rec); !errors.Is(err, ErrInvalidRecord) {
		t.Fatalf("err = %v, ожидалась ErrInvalidRecord", err)
	}
	if len(db.queries) != 0 {
		t.Errorf("выполнено запросов: %d, ожидалось 0", len(db.queries))
	}
}

// TestCreate_StoreUnavailable проверяет классификацию сетевой ошибки
// и ограничение запроса таймаутом.
func TestCreate_StoreUnavailable(t *testing.T) {
	db := &stubDB{err: &net.OpError{Op: "dial", Net: "tcp", Err: errors.New("connection refused")}}
	repo := NewFileRecordRepository(db, 5*time.Second)

	_, err := repo.Create(context.Background(), validRecord())
	if !errors.Is(err, ErrStoreUnavailable) {
		t.Fatalf("err = %v, ожидалась ErrStoreUnavailable", err)
	}
	if !db.deadlineSet {
		t.Error("запрос выполнен без дедлайна")
	}
	if !strings.Contains(db.queries[0], "RETURNING id, created_at") {
		t.Errorf("запрос = %q, ожидался INSERT ... RETURNING", db.queries[0])
	}
}

func TestGetByID_NotFound(t *testing.T) {
	repo := NewFileRecordRepository(&stubDB{err: pgx.ErrNoRows}, 0)

	if _, err := repo.GetByID(context.Background(), 99); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, ожидалась ErrNotFound", err)
	}
}

func TestListByOwner_ZeroLimit(t *testing.T) {
	db := &stubDB{}
	repo := NewFileRecordRepository(db, 0)

	got, err := repo.ListByOwner(context.Background(), 42, 0, 0)
	if err != nil {
		t.Fatalf("неожиданная ошибка: %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Errorf("ожидался пустой срез (не nil), получено %v", got)
	}
	if len(db.queries) != 0 {
		t.Error("при limit=0 запрос к БД не нужен")
	}
}

func TestListByOwner_StoreUnavailable(t *testing.T) {
	repo := NewFileRecordRepository(&stubDB{err: &pgconn.PgError{Code: "57P01"}}, 0)

	if _, err := repo.ListByOwner(context.Background(), 42, 0, 10); !errors.Is(err, ErrStoreUnavailable) {
		t.Errorf("err = %v, ожидалась ErrStoreUnavailable", err)
	}
}
