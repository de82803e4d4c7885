// Пакет telegram — HTTP-клиент Telegram Bot API и типы его JSON-объектов.
// Описано только подмножество API, которое использует бот.
package telegram

// Update — входящее событие (getUpdates или webhook).
type Update struct {
	UpdateID      int64          `json:"update_id"`
	Message       *Message       `json:"message,omitempty"`
	CallbackQuery *CallbackQuery `json:"callback_query,omitempty"`
}

// Message — сообщение чата.
type Message struct {
	MessageID int64  `json:"message_id"`
	Date      int64  `json:"date,omitempty"`
	Chat      *Chat  `json:"chat,omitempty"`
	From      *User  `json:"from,omitempty"`
	Text      string `json:"text,omitempty"`
	Caption   string `json:"caption,omitempty"`

	// Вложения
	Document  *Document   `json:"document,omitempty"`
	Photo     []PhotoSize `json:"photo,omitempty"`
	Video     *Video      `json:"video,omitempty"`
	Audio     *Audio      `json:"audio,omitempty"`
	Voice     *Voice      `json:"voice,omitempty"`
	Animation *Animation  `json:"animation,omitempty"`
	VideoNote *VideoNote  `json:"video_note,omitempty"`
	Sticker   *Sticker    `json:"sticker,omitempty"`
}

// Chat — чат, в который пришло сообщение.
type Chat struct {
	ID   int64  `json:"id"`
	Type string `json:"type,omitempty"` // private|group|supergroup|channel
}

// User — пользователь или бот.
type User struct {
	ID        int64  `json:"id"`
	IsBot     bool   `json:"is_bot,omitempty"`
	Username  string `json:"username,omitempty"`
	FirstName string `json:"first_name,omitempty"`
}

// CallbackQuery — нажатие кнопки inline-клавиатуры.
type CallbackQuery struct {
	ID      string   `json:"id"`
	From    *User    `json:"from,omitempty"`
	Message *Message `json:"message,omitempty"`
	Data    string   `json:"data,omitempty"`
}

// Размер файла в Bot API необязателен, поэтому FileSize — указатель.

// Document — файл общего вида.
type Document struct {
	FileID   string `json:"file_id"`
	FileName string `json:"file_name,omitempty"`
	MimeType string `json:"mime_type,omitempty"`
	FileSize *int64 `json:"file_size,omitempty"`
}

// PhotoSize — один из размеров фотографии.
type PhotoSize struct {
	FileID   string `json:"file_id"`
	Width    int    `json:"width,omitempty"`
	Height   int    `json:"height,omitempty"`
	FileSize *int64 `json:"file_size,omitempty"`
}

// Video — видеофайл.
type Video struct {
	FileID   string `json:"file_id"`
	FileName string `json:"file_name,omitempty"`
	MimeType string `json:"mime_type,omitempty"`
	FileSize *int64 `json:"file_size,omitempty"`
}

// Audio — аудиофайл (музыка).
type Audio struct {
	FileID   string `json:"file_id"`
	FileName string `json:"file_name,omitempty"`
	MimeType string `json:"mime_type,omitempty"`
	FileSize *int64 `json:"file_size,omitempty"`
}

// Voice — голосовое сообщение.
type Voice struct {
	FileID   string `json:"file_id"`
	MimeType string `json:"mime_type,omitempty"`
	FileSize *int64 `json:"file_size,omitempty"`
}

// Animation — GIF или видео без звука.
type Animation struct {
	FileID   string `json:"file_id"`
	FileName string `json:"file_name,omitempty"`
	MimeType string `json:"mime_type,omitempty"`
	FileSize *int64 `json:"file_size,omitempty"`
}

// VideoNote — видеосообщение («кружок»).
type VideoNote struct {
	FileID   string `json:"file_id"`
	FileSize *int64 `json:"file_size,omitempty"`
}

// Sticker — стикер.
type Sticker struct {
	FileID   string `json:"file_id"`
	FileSize *int64 `json:"file_size,omitempty"`
}

// InlineKeyboardButton — кнопка inline-клавиатуры с callback data.
type InlineKeyboardButton struct {
	Text         string `json:"text"`
	CallbackData string `json:"callback_data"`
}

// InlineKeyboardMarkup — inline-клавиатура сообщения.
type InlineKeyboardMarkup struct {
	InlineKeyboard [][]InlineKeyboardButton `json:"inline_keyboard"`
}
