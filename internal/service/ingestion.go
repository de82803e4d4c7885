// ingestion.go — обработка загрузки файла: валидация, запись метаданных,
// подтверждение пользователю.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/bigkaa/goartstore/filebot/internal/domain/intent"
	"github.com/bigkaa/goartstore/filebot/internal/domain/model"
	"github.com/bigkaa/goartstore/filebot/internal/repository"
)

// IngestionService — сервис приёма загруженных файлов.
// Каждая загрузка, включая повторную доставку того же события
// платформой, создаёт новую запись: дедупликации нет.
type IngestionService struct {
	repo   repository.FileRecordRepository
	logger *slog.Logger
}

// NewIngestionService создаёт сервис приёма файлов.
func NewIngestionService(repo repository.FileRecordRepository, logger *slog.Logger) *IngestionService {
	return &IngestionService{
		repo:   repo,
		logger: logger.With(slog.String("component", "ingestion_service")),
	}
}

// Ingest сохраняет метаданные файла и возвращает подтверждение.
// ErrMalformedEvent — нет владельца или handle, ничего не сохранено.
// ErrStoreUnavailable — хранилище недоступно, автоматического повтора нет.
func (s *IngestionService) Ingest(ctx context.Context, up intent.FileUpload) (*Reply, error) {
	start := time.Now()

	reply, err := s.ingest(ctx, up)
	uploadsTotal.WithLabelValues(resultLabel(err)).Inc()
	storeDuration.WithLabelValues("create").Observe(time.Since(start).Seconds())

	return reply, err
}

func (s *IngestionService) ingest(ctx context.Context, up intent.FileUpload) (*Reply, error) {
	if up.OwnerID == 0 {
		return nil, fmt.Errorf("загрузка файла: не указан владелец: %w", ErrMalformedEvent)
	}
	if strings.TrimSpace(up.RemoteHandle) == "" {
		return nil, fmt.Errorf("загрузка файла: не указан remote handle: %w", ErrMalformedEvent)
	}

	kind := up.Kind
	if kind == "" {
		kind = model.KindDocument
	}

	rec, err := s.repo.Create(ctx, model.NewFileRecord{
		OwnerID:      up.OwnerID,
		RemoteHandle: up.RemoteHandle,
		DisplayName:  up.DisplayName,
		ByteSize:     up.ByteSize,
		ContentType:  up.ContentType,
		Kind:         kind,
	})
	if err != nil {
		return nil, mapRepoError("сохранение метаданных файла", err)
	}

	s.logger.Info("Файл сохранён",
		slog.Int64("file_id", rec.ID),
		slog.Int64("owner_id", rec.OwnerID),
		slog.String("kind", string(rec.Kind)),
	)

	return TextReply(uploadAck(rec)), nil
}

// uploadAck — текст подтверждения загрузки.
func uploadAck(rec *model.FileRecord) string {
	return fmt.Sprintf("✅ File Uploaded Successfully!\n\n"+
		"🆔 ID: %d\n"+
		"📄 Name: %s\n"+
		"📊 Size: %s\n"+
		"🕒 Stored: %s\n\n"+
		"Use /myfiles to view all your files! 📁",
		rec.ID, displayName(rec), sizeText(rec.ByteSize), storedAt(rec.CreatedAt))
}
