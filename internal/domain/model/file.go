// Пакет model — доменные модели File Keeper Bot.
// FileRecord — маппинг таблицы file_records.
package model

import "time"

// FileKind — вид вложения Telegram, которым пришёл файл.
// Определяет метод повторной отправки файла по remote handle.
type FileKind string

const (
	KindDocument  FileKind = "document"
	KindPhoto     FileKind = "photo"
	KindVideo     FileKind = "video"
	KindAudio     FileKind = "audio"
	KindVoice     FileKind = "voice"
	KindAnimation FileKind = "animation"
	KindVideoNote FileKind = "video_note"
	KindSticker   FileKind = "sticker"
)

// Valid сообщает, известен ли вид вложения.
func (k FileKind) Valid() bool {
	switch k {
	case KindDocument, KindPhoto, KindVideo, KindAudio,
		KindVoice, KindAnimation, KindVideoNote, KindSticker:
		return true
	}
	return false
}

// FileRecord — запись о файле пользователя.
// Записи не изменяются после создания: нет UPDATE ни для одного поля.
type FileRecord struct {
	// ID — первичный ключ (BIGSERIAL), уникален и стабилен
	ID int64
	// OwnerID — Telegram user id загрузившего
	OwnerID int64
	// RemoteHandle — file_id Telegram, обменивается на байты файла платформой
	RemoteHandle string
	// DisplayName — исходное имя файла (может быть пустым)
	DisplayName string
	// ByteSize — размер в байтах (nil — неизвестен)
	ByteSize *int64
	// ContentType — MIME-тип (nil — неизвестен)
	ContentType *string
	// Kind — вид вложения
	Kind FileKind
	// CreatedAt — время создания записи
	CreatedAt time.Time
}

// NewFileRecord — входные данные для создания записи.
// ID и CreatedAt назначает хранилище.
type NewFileRecord struct {
	OwnerID      int64
	RemoteHandle string
	DisplayName  string
	ByteSize     *int64
	ContentType  *string
	Kind         FileKind
}
