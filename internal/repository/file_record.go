package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/bigkaa/goartstore/filebot/internal/domain/model"
)

// fileRecordColumns — список столбцов таблицы file_records для SELECT-запросов.
const fileRecordColumns = `id, owner_id, remote_handle, display_name, byte_size,
	content_type, file_kind, created_at`

// FileRecordRepository — интерфейс хранилища метаданных файлов.
// Записи только добавляются: операций изменения нет.
type FileRecordRepository interface {
	// Create сохраняет новую запись, назначает ID и CreatedAt.
	Create(ctx context.Context, rec model.NewFileRecord) (*model.FileRecord, error)
	// ListByOwner возвращает записи владельца от новых к старым
	// (created_at DESC, id DESC). Пустой срез, если записей нет.
	ListByOwner(ctx context.Context, ownerID int64, offset, limit int) ([]*model.FileRecord, error)
	// GetByID возвращает запись по ID или ErrNotFound.
	GetByID(ctx context.Context, id int64) (*model.FileRecord, error)
	// CountByOwner возвращает количество записей владельца.
	CountByOwner(ctx context.Context, ownerID int64) (int, error)
	// Delete удаляет запись целиком (административная операция).
	Delete(ctx context.Context, id int64) error
}

// fileRecordRepo — реализация FileRecordRepository через pgx.
type fileRecordRepo struct {
	db      DBTX
	timeout time.Duration
}

// NewFileRecordRepository создаёт репозиторий метаданных файлов.
// timeout ограничивает каждое обращение к PostgreSQL.
func NewFileRecordRepository(db DBTX, timeout time.Duration) FileRecordRepository {
	return &fileRecordRepo{db: db, timeout: timeout}
}

// validateNewRecord проверяет обязательные поля до обращения к БД.
func validateNewRecord(rec model.NewFileRecord) error {
	if rec.OwnerID == 0 {
		return fmt.Errorf("%w: не указан владелец", ErrInvalidRecord)
	}
	if strings.TrimSpace(rec.RemoteHandle) == "" {
		return fmt.Errorf("%w: не указан remote handle", ErrInvalidRecord)
	}
	if rec.ByteSize != nil && *rec.ByteSize < 0 {
		return fmt.Errorf("%w: отрицательный размер", ErrInvalidRecord)
	}
	if rec.Kind != "" && !rec.Kind.Valid() {
		return fmt.Errorf("%w: неизвестный вид вложения %q", ErrInvalidRecord, rec.Kind)
	}
	return nil
}

// Create вставляет запись одним INSERT ... RETURNING: частично
// созданная запись не видна другим соединениям.
func (r *fileRecordRepo) Create(ctx context.Context, rec model.NewFileRecord) (*model.FileRecord, error) {
	if err := validateNewRecord(rec); err != nil {
		return nil, err
	}

	kind := rec.Kind
	if kind == "" {
		kind = model.KindDocument
	}

	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	f := &model.FileRecord{
		OwnerID:      rec.OwnerID,
		RemoteHandle: rec.RemoteHandle,
		DisplayName:  rec.DisplayName,
		ByteSize:     rec.ByteSize,
		ContentType:  rec.ContentType,
		Kind:         kind,
	}

	err := r.db.QueryRow(ctx,
		`INSERT INTO file_records (owner_id, remote_handle, display_name, byte_size, content_type, file_kind)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id, created_at`,
		rec.OwnerID, rec.RemoteHandle, rec.DisplayName, rec.ByteSize, rec.ContentType, string(kind),
	).Scan(&f.ID, &f.CreatedAt)
	if err != nil {
		return nil, classifyError(fmt.Errorf("ошибка создания записи файла: %w", err))
	}
	return f, nil
}

// ListByOwner возвращает страницу записей владельца.
func (r *fileRecordRepo) ListByOwner(ctx context.Context, ownerID int64, offset, limit int) ([]*model.FileRecord, error) {
	result := []*model.FileRecord{}
	if limit <= 0 {
		return result, nil
	}
	if offset < 0 {
		offset = 0
	}

	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	query := fmt.Sprintf(
		`SELECT %s FROM file_records
		 WHERE owner_id = $1
		 ORDER BY created_at DESC, id DESC
		 LIMIT $2 OFFSET $3`, fileRecordColumns)

	rows, err := r.db.Query(ctx, query, ownerID, limit, offset)
	if err != nil {
		return nil, classifyError(fmt.Errorf("ошибка получения списка файлов: %w", err))
	}
	defer rows.Close()

	for rows.Next() {
		f, err := scanFileRecord(rows)
		if err != nil {
			return nil, classifyError(fmt.Errorf("ошибка сканирования записи файла: %w", err))
		}
		result = append(result, f)
	}
	if err := rows.Err(); err != nil {
		return nil, classifyError(fmt.Errorf("ошибка итерации результатов: %w", err))
	}
	return result, nil
}

// GetByID возвращает запись по ID или ErrNotFound.
func (r *fileRecordRepo) GetByID(ctx context.Context, id int64) (*model.FileRecord, error) {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	query := fmt.Sprintf(`SELECT %s FROM file_records WHERE id = $1`, fileRecordColumns)

	f, err := scanFileRecord(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, classifyError(fmt.Errorf("ошибка получения записи файла: %w", err))
	}
	return f, nil
}

// CountByOwner возвращает общее количество записей владельца.
func (r *fileRecordRepo) CountByOwner(ctx context.Context, ownerID int64) (int, error) {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	var total int
	err := r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM file_records WHERE owner_id = $1`, ownerID,
	).Scan(&total)
	if err != nil {
		return 0, classifyError(fmt.Errorf("ошибка подсчёта файлов: %w", err))
	}
	return total, nil
}

// Delete удаляет запись целиком.
func (r *fileRecordRepo) Delete(ctx context.Context, id int64) error {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	tag, err := r.db.Exec(ctx, `DELETE FROM file_records WHERE id = $1`, id)
	if err != nil {
		return classifyError(fmt.Errorf("ошибка удаления записи файла: %w", err))
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// scanFileRecord сканирует строку в FileRecord (порядок — fileRecordColumns).
func scanFileRecord(row pgx.Row) (*model.FileRecord, error) {
	f := &model.FileRecord{}
	var kind string
	if err := row.Scan(
		&f.ID, &f.OwnerID, &f.RemoteHandle, &f.DisplayName, &f.ByteSize,
		&f.ContentType, &kind, &f.CreatedAt,
	); err != nil {
		return nil, err
	}
	f.Kind = model.FileKind(kind)
	return f, nil
}
