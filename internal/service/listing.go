// listing.go — листинг файлов пользователя и выбор файла из листинга.
// Сервис не хранит состояние между запросами: всё нужное для выбора
// содержится в токене кнопки.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/bigkaa/goartstore/filebot/internal/domain/model"
	"github.com/bigkaa/goartstore/filebot/internal/repository"
)

// ListingService — сервис листинга и выбора файлов.
type ListingService struct {
	repo     repository.FileRecordRepository
	codec    *SelectionCodec
	pageSize int
	logger   *slog.Logger
}

// NewListingService создаёт сервис листинга.
// pageSize — количество файлов на странице (>= 1).
func NewListingService(
	repo repository.FileRecordRepository,
	codec *SelectionCodec,
	pageSize int,
	logger *slog.Logger,
) *ListingService {
	if pageSize < 1 {
		pageSize = 1
	}
	return &ListingService{
		repo:     repo,
		codec:    codec,
		pageSize: pageSize,
		logger:   logger.With(slog.String("component", "listing_service")),
	}
}

// List возвращает страницу листинга владельца, начиная с offset.
// Нет файлов — сообщение о пустом хранилище, не ошибка.
func (s *ListingService) List(ctx context.Context, ownerID int64, offset int) (*Reply, error) {
	start := time.Now()

	reply, err := s.list(ctx, ownerID, offset)
	listingsTotal.WithLabelValues("list", resultLabel(err)).Inc()
	storeDuration.WithLabelValues("list").Observe(time.Since(start).Seconds())

	return reply, err
}

func (s *ListingService) list(ctx context.Context, ownerID int64, offset int) (*Reply, error) {
	if offset < 0 {
		offset = 0
	}

	total, err := s.repo.CountByOwner(ctx, ownerID)
	if err != nil {
		return nil, mapRepoError("подсчёт файлов", err)
	}
	if total == 0 {
		return TextReply(EmptyListText), nil
	}
	// Устаревшая кнопка после удаления записей: показываем последнюю страницу
	if offset >= total {
		offset = (total - 1) / s.pageSize * s.pageSize
	}

	records, err := s.repo.ListByOwner(ctx, ownerID, offset, s.pageSize)
	if err != nil {
		return nil, mapRepoError("получение списка файлов", err)
	}
	if len(records) == 0 {
		return TextReply(EmptyListText), nil
	}

	buttons := make([][]Button, 0, len(records)+1)
	for _, rec := range records {
		// Защита от утечки: чужая запись в выборке — ошибка хранилища
		if rec.OwnerID != ownerID {
			s.logger.Error("Листинг вернул чужую запись",
				slog.Int64("owner_id", ownerID),
				slog.Int64("file_id", rec.ID),
			)
			continue
		}
		token, err := s.codec.Encode(Selection{OwnerID: ownerID, RecordID: rec.ID})
		if err != nil {
			return nil, fmt.Errorf("создание токена выбора: %w", err)
		}
		buttons = append(buttons, []Button{{Label: ButtonLabel(rec), Data: token}})
	}

	if nav := s.navigation(offset, len(records), total); len(nav) > 0 {
		buttons = append(buttons, nav)
	}

	return &Reply{
		Text:    s.header(offset, total),
		Buttons: buttons,
	}, nil
}

// header — заголовок страницы листинга.
func (s *ListingService) header(offset, total int) string {
	text := fmt.Sprintf(ListHeaderFormat, total)
	if total > s.pageSize {
		pages := (total + s.pageSize - 1) / s.pageSize
		text += fmt.Sprintf("\nPage %d of %d", offset/s.pageSize+1, pages)
	}
	return text + "\n\nTap a file to get it back."
}

// navigation — строка кнопок пагинации (пустая, если страница одна).
func (s *ListingService) navigation(offset, shown, total int) []Button {
	var nav []Button
	if offset > 0 {
		prev := offset - s.pageSize
		if prev < 0 {
			prev = 0
		}
		nav = append(nav, Button{Label: PrevLabel, Data: PageData(prev)})
	}
	if offset+shown < total {
		nav = append(nav, Button{Label: NextLabel, Data: PageData(offset + s.pageSize)})
	}
	return nav
}

// Select разрешает выбор файла из листинга.
// Чужая запись — ErrForbidden, отсутствующая — ErrNotFound; данные
// записи в этих случаях не возвращаются.
func (s *ListingService) Select(ctx context.Context, ownerID, recordID int64) (*Reply, error) {
	start := time.Now()

	reply, err := s.selectRecord(ctx, ownerID, recordID)
	listingsTotal.WithLabelValues("select", resultLabel(err)).Inc()
	storeDuration.WithLabelValues("get").Observe(time.Since(start).Seconds())

	return reply, err
}

func (s *ListingService) selectRecord(ctx context.Context, ownerID, recordID int64) (*Reply, error) {
	rec, err := s.repo.GetByID(ctx, recordID)
	if err != nil {
		return nil, mapRepoError("получение файла", err)
	}

	if rec.OwnerID != ownerID {
		s.logger.Warn("Попытка выбора чужого файла",
			slog.Int64("owner_id", ownerID),
			slog.Int64("file_id", recordID),
		)
		return nil, fmt.Errorf("выбор файла %d: %w", recordID, ErrForbidden)
	}

	kind := rec.Kind
	if !kind.Valid() {
		kind = model.KindDocument
	}
	name := displayName(rec)

	return &Reply{
		Text: fmt.Sprintf("📄 %s\n📊 Size: %s\n🕒 Stored: %s\n\nSending your file...",
			name, sizeText(rec.ByteSize), storedAt(rec.CreatedAt)),
		Delivery: &Delivery{
			Kind:         kind,
			RemoteHandle: rec.RemoteHandle,
			Caption:      fmt.Sprintf(DeliveryFormat, name),
		},
	}, nil
}
