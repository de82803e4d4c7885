// messages.go — тексты сообщений пользователю.
package service

// Тексты команд /start и /help.
const (
	WelcomeText = "🎉 Welcome to your Personal File Manager Bot!\n\n" +
		"I can help you store and manage your files securely. Here's what I can do:\n\n" +
		"📤 Upload Files: Send me any file and I'll store it safely\n" +
		"📁 View Files: Use /myfiles to see all your stored files\n" +
		"❓ Get Help: Use /help for more information\n\n" +
		"Ready to get started? Send me a file!"

	HelpText = "🤖 File Manager Bot Help\n\n" +
		"Available Commands:\n" +
		"• /start - Welcome message and introduction\n" +
		"• /myfiles - View all your stored files\n" +
		"• /help - Show this help message\n\n" +
		"How to use:\n" +
		"1. Send me any file (document, image, video, etc.)\n" +
		"2. I'll store it and give you a confirmation\n" +
		"3. Use /myfiles to see your file collection\n" +
		"4. Click on any file to download it again\n\n" +
		"That's it! Simple and secure file storage at your fingertips! 📁✨"
)

// Тексты листинга.
const (
	EmptyListText = "📁 Your file storage is empty!\n\n" +
		"Send me any file to get started. I can store documents, images, videos, and more! 📤"
	// ListHeaderFormat — заголовок листинга, аргумент — общее количество файлов.
	ListHeaderFormat = "📁 Your Files (%d total)"
	// NotFoundText — один текст для отсутствующей и чужой записи.
	NotFoundText = "🔍 File not found. Use /myfiles to see your files."
	// DeliveryFormat — подпись при повторной отправке, аргумент — имя файла.
	DeliveryFormat = "📄 %s"
	PrevLabel      = "◀ Prev"
	NextLabel      = "Next ▶"
)

// Тексты ошибок.
const (
	// RetryText — событие не удалось разобрать, пользователю стоит отправить файл снова.
	RetryText = "⚠️ I couldn't read that file. Please send it again."
	// UnavailableText — хранилище временно недоступно.
	UnavailableText = "⏳ File storage is temporarily unavailable. Please try again in a minute."
	// GenericErrorText — любая другая ошибка.
	GenericErrorText = "❌ Sorry, something went wrong. Please try again."
)
