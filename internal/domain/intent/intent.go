// Пакет intent — нормализованные намерения, в которые превращается
// каждое входящее событие чата. Набор вариантов закрыт: реализовать
// Intent вне пакета нельзя.
package intent

import "github.com/bigkaa/goartstore/filebot/internal/domain/model"

// Intent — типизированное представление одного входящего события.
type Intent interface {
	isIntent()
	// Target возвращает адрес ответа
	Target() Chat
}

// Chat — адрес ответа. Для личных чатов совпадает с OwnerID.
type Chat struct {
	ChatID int64
	// CallbackID — id callback query, который нужно подтвердить (пусто для сообщений)
	CallbackID string
}

// Target возвращает адрес ответа; через встраивание доступен всем вариантам.
func (c Chat) Target() Chat { return c }

// Start — команда /start.
type Start struct {
	Chat
}

// Help — команда /help.
type Help struct {
	Chat
}

// ListFiles — команда /myfiles, всегда первая страница.
type ListFiles struct {
	Chat
	OwnerID int64
}

// ListPage — нажатие кнопки пагинации.
type ListPage struct {
	Chat
	OwnerID int64
	Offset  int
}

// ListSelection — нажатие на файл в листинге.
type ListSelection struct {
	Chat
	OwnerID  int64
	RecordID int64
}

// FileUpload — сообщение с файлом.
type FileUpload struct {
	Chat
	OwnerID      int64
	RemoteHandle string
	DisplayName  string
	ByteSize     *int64
	ContentType  *string
	Kind         model.FileKind
}

// Unrecognized — всё остальное; диспетчер молча игнорирует.
type Unrecognized struct {
	Chat
	// Reason — причина для отладочного лога
	Reason string
}

func (Start) isIntent()         {}
func (Help) isIntent()          {}
func (ListFiles) isIntent()     {}
func (ListPage) isIntent()      {}
func (ListSelection) isIntent() {}
func (FileUpload) isIntent()    {}
func (Unrecognized) isIntent()  {}

// Name возвращает короткое имя варианта для логов и метрик.
func Name(in Intent) string {
	switch in.(type) {
	case Start:
		return "start"
	case Help:
		return "help"
	case ListFiles:
		return "list_files"
	case ListPage:
		return "list_page"
	case ListSelection:
		return "list_selection"
	case FileUpload:
		return "file_upload"
	case Unrecognized:
		return "unrecognized"
	default:
		return "unknown"
	}
}
