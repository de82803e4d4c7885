// Пакет bot — обработка входящих событий Telegram: нормализация в
// намерения, маршрутизация по сервисам, отправка ответов, long polling.
package bot

import (
	"errors"
	"fmt"
	"strings"

	"github.com/bigkaa/goartstore/filebot/internal/domain/intent"
	"github.com/bigkaa/goartstore/filebot/internal/domain/model"
	"github.com/bigkaa/goartstore/filebot/internal/service"
	"github.com/bigkaa/goartstore/filebot/internal/telegram"
)

// SelectionDecoder расшифровывает токен выбора файла из callback data.
type SelectionDecoder interface {
	Decode(data string) (service.Selection, error)
}

// Normalizer превращает Update в намерение. Не обращается к хранилищу.
type Normalizer struct {
	decoder SelectionDecoder
}

// NewNormalizer создаёт нормализатор.
func NewNormalizer(decoder SelectionDecoder) *Normalizer {
	return &Normalizer{decoder: decoder}
}

// Normalize возвращает намерение для события.
// service.ErrMalformedEvent — только для файла без владельца и без handle;
// вместе с ошибкой возвращается Unrecognized с адресом чата, если он известен.
func (n *Normalizer) Normalize(u telegram.Update) (intent.Intent, error) {
	switch {
	case u.CallbackQuery != nil:
		return n.normalizeCallback(u.CallbackQuery), nil
	case u.Message != nil:
		return n.normalizeMessage(u.Message)
	default:
		return intent.Unrecognized{Reason: "тип события не поддерживается"}, nil
	}
}

func (n *Normalizer) normalizeMessage(m *telegram.Message) (intent.Intent, error) {
	var ownerID int64
	if m.From != nil {
		ownerID = m.From.ID
	}
	chat := intent.Chat{ChatID: ownerID}
	if m.Chat != nil && m.Chat.ID != 0 {
		chat.ChatID = m.Chat.ID
	}

	if f, ok := extractFile(m); ok {
		if ownerID == 0 && f.handle == "" {
			return intent.Unrecognized{Chat: chat, Reason: "файл без владельца и handle"},
				fmt.Errorf("сообщение %d: %w", m.MessageID, service.ErrMalformedEvent)
		}
		return intent.FileUpload{
			Chat:         chat,
			OwnerID:      ownerID,
			RemoteHandle: f.handle,
			DisplayName:  f.name,
			ByteSize:     f.size,
			ContentType:  f.contentType,
			Kind:         f.kind,
		}, nil
	}

	switch command(m.Text) {
	case "/start":
		return intent.Start{Chat: chat}, nil
	case "/help":
		return intent.Help{Chat: chat}, nil
	case "/myfiles":
		if ownerID == 0 {
			return intent.Unrecognized{Chat: chat, Reason: "/myfiles без отправителя"}, nil
		}
		return intent.ListFiles{Chat: chat, OwnerID: ownerID}, nil
	}
	return intent.Unrecognized{Chat: chat, Reason: "сообщение без команды и файла"}, nil
}

func (n *Normalizer) normalizeCallback(cq *telegram.CallbackQuery) intent.Intent {
	chat := intent.Chat{CallbackID: cq.ID}
	var ownerID int64
	if cq.From != nil {
		ownerID = cq.From.ID
		chat.ChatID = ownerID
	}
	if cq.Message != nil && cq.Message.Chat != nil && cq.Message.Chat.ID != 0 {
		chat.ChatID = cq.Message.Chat.ID
	}
	if ownerID == 0 {
		return intent.Unrecognized{Chat: chat, Reason: "callback без отправителя"}
	}

	switch {
	case strings.HasPrefix(cq.Data, service.SelectionPrefix):
		sel, err := n.decoder.Decode(cq.Data)
		if err != nil {
			reason := "некорректный токен выбора"
			if !errors.Is(err, service.ErrInvalidToken) {
				reason = err.Error()
			}
			return intent.Unrecognized{Chat: chat, Reason: reason}
		}
		// Владелец — нажавший кнопку. Если токен выпущен для другого
		// пользователя, Select вернёт ErrForbidden по владельцу записи.
		return intent.ListSelection{Chat: chat, OwnerID: ownerID, RecordID: sel.RecordID}
	case strings.HasPrefix(cq.Data, service.PagePrefix):
		offset, ok := service.ParsePageData(cq.Data)
		if !ok {
			return intent.Unrecognized{Chat: chat, Reason: "некорректная кнопка пагинации"}
		}
		return intent.ListPage{Chat: chat, OwnerID: ownerID, Offset: offset}
	}
	return intent.Unrecognized{Chat: chat, Reason: "неизвестная callback data"}
}

// command возвращает команду из текста: "/Start@file_bot arg" -> "/start".
func command(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "/") {
		return ""
	}
	cmd, _, _ := strings.Cut(text, " ")
	cmd, _, _ = strings.Cut(cmd, "@")
	return strings.ToLower(cmd)
}

// fileAttrs — атрибуты вложения сообщения.
type fileAttrs struct {
	handle      string
	name        string
	size        *int64
	contentType *string
	kind        model.FileKind
}

// extractFile извлекает вложение из сообщения. ok=false — вложения нет.
func extractFile(m *telegram.Message) (fileAttrs, bool) {
	switch {
	case m.Document != nil:
		d := m.Document
		return newFileAttrs(model.KindDocument, d.FileID, d.FileName, d.FileSize, d.MimeType), true
	case len(m.Photo) > 0:
		p := largestPhoto(m.Photo)
		return newFileAttrs(model.KindPhoto, p.FileID, "", p.FileSize, ""), true
	case m.Video != nil:
		v := m.Video
		return newFileAttrs(model.KindVideo, v.FileID, v.FileName, v.FileSize, v.MimeType), true
	case m.Audio != nil:
		a := m.Audio
		return newFileAttrs(model.KindAudio, a.FileID, a.FileName, a.FileSize, a.MimeType), true
	case m.Voice != nil:
		v := m.Voice
		return newFileAttrs(model.KindVoice, v.FileID, "", v.FileSize, v.MimeType), true
	case m.Animation != nil:
		a := m.Animation
		return newFileAttrs(model.KindAnimation, a.FileID, a.FileName, a.FileSize, a.MimeType), true
	case m.VideoNote != nil:
		v := m.VideoNote
		return newFileAttrs(model.KindVideoNote, v.FileID, "", v.FileSize, ""), true
	case m.Sticker != nil:
		s := m.Sticker
		return newFileAttrs(model.KindSticker, s.FileID, "", s.FileSize, ""), true
	}
	return fileAttrs{}, false
}

func newFileAttrs(kind model.FileKind, fileID, name string, size *int64, mime string) fileAttrs {
	f := fileAttrs{
		handle: strings.TrimSpace(fileID),
		name:   strings.TrimSpace(name),
		size:   size,
		kind:   kind,
	}
	if f.name == "" {
		f.name = placeholderName(kind, f.handle)
	}
	if mime = strings.TrimSpace(mime); mime != "" {
		f.contentType = &mime
	}
	return f
}

// placeholderExt — расширение имени-заглушки для вида вложения.
var placeholderExt = map[model.FileKind]string{
	model.KindDocument:  "",
	model.KindPhoto:     ".jpg",
	model.KindVideo:     ".mp4",
	model.KindAudio:     ".mp3",
	model.KindVoice:     ".ogg",
	model.KindAnimation: ".mp4",
	model.KindVideoNote: ".mp4",
	model.KindSticker:   ".webp",
}

// placeholderName — имя для файла без имени: "<вид>_<первые 8 символов handle><ext>".
func placeholderName(kind model.FileKind, handle string) string {
	if handle == "" {
		return service.UnknownName
	}
	prefix := handle
	if len(prefix) > 8 {
		prefix = prefix[:8]
	}
	return string(kind) + "_" + prefix + placeholderExt[kind]
}

// largestPhoto выбирает наибольший размер фотографии.
func largestPhoto(sizes []telegram.PhotoSize) telegram.PhotoSize {
	best := sizes[0]
	for _, p := range sizes[1:] {
		if p.Width*p.Height > best.Width*best.Height {
			best = p
		}
	}
	return best
}
