// reply.go — ответ бота, независимый от транспорта.
// Dispatcher передаёт Reply отправителю (Telegram-клиенту) без изменений.
package service

import "github.com/bigkaa/goartstore/filebot/internal/domain/model"

// Button — кнопка inline-клавиатуры: подпись и callback data.
type Button struct {
	Label string
	Data  string
}

// Delivery — повторная отправка файла по remote handle.
// Байты файла передаёт платформа, бот их не скачивает.
type Delivery struct {
	Kind         model.FileKind
	RemoteHandle string
	Caption      string
}

// Reply — отрисованный ответ на одно намерение.
type Reply struct {
	// Text — текст сообщения (plain text, без разметки)
	Text string
	// Buttons — строки inline-клавиатуры (nil — без клавиатуры)
	Buttons [][]Button
	// Delivery — файл для повторной отправки (nil — не отправлять)
	Delivery *Delivery
}

// TextReply создаёт ответ из одного текста.
func TextReply(text string) *Reply {
	return &Reply{Text: text}
}
