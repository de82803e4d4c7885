// errors.go — ошибки бизнес-логики сервисного слоя.
package service

import (
	"errors"
	"fmt"

	"github.com/bigkaa/goartstore/filebot/internal/repository"
)

var (
	// ErrMalformedEvent — неполное входящее событие (нет владельца или handle).
	ErrMalformedEvent = errors.New("некорректное входящее событие")
	// ErrStoreUnavailable — хранилище метаданных временно недоступно.
	ErrStoreUnavailable = errors.New("хранилище метаданных недоступно")
	// ErrNotFound — запись не найдена.
	ErrNotFound = errors.New("файл не найден")
	// ErrForbidden — запись принадлежит другому пользователю.
	ErrForbidden = errors.New("доступ к файлу запрещён")
	// ErrInvalidRecord — запись отклонена хранилищем (нарушение целостности).
	ErrInvalidRecord = errors.New("некорректная запись")
)

// mapRepoError переводит ошибки repository в ошибки сервисного слоя.
// op — описание операции для текста ошибки.
func mapRepoError(op string, err error) error {
	switch {
	case errors.Is(err, repository.ErrStoreUnavailable):
		return fmt.Errorf("%s: %w: %v", op, ErrStoreUnavailable, err)
	case errors.Is(err, repository.ErrNotFound):
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	case errors.Is(err, repository.ErrInvalidRecord):
		return fmt.Errorf("%s: %w: %v", op, ErrInvalidRecord, err)
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}

// ReplyForError возвращает безопасный для пользователя ответ на ошибку.
// Текст ошибки в ответ не попадает; ErrForbidden и ErrNotFound
// неразличимы для пользователя.
func ReplyForError(err error) *Reply {
	switch {
	case errors.Is(err, ErrMalformedEvent):
		return TextReply(RetryText)
	case errors.Is(err, ErrStoreUnavailable):
		return TextReply(UnavailableText)
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrForbidden):
		return TextReply(NotFoundText)
	default:
		return TextReply(GenericErrorText)
	}
}
