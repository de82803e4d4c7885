// selection.go — токены выбора файла в листинге.
// Токен содержит владельца и ID записи, зашифрованные AES-256-GCM,
// поэтому выбор обрабатывается без серверного состояния, а подмена
// токена обнаруживается при расшифровке.
package service

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Префиксы callback data.
const (
	// SelectionPrefix — токен выбора файла
	SelectionPrefix = "f:"
	// PagePrefix — кнопка пагинации, за ним смещение
	PagePrefix = "p:"
)

// MaxCallbackData — лимит Telegram на длину callback_data (байт).
const MaxCallbackData = 64

// ErrInvalidToken — токен повреждён, подделан или выпущен другим ключом.
var ErrInvalidToken = errors.New("некорректный токен выбора")

// ErrCallbackDataTooLong — callback data длиннее MaxCallbackData.
var ErrCallbackDataTooLong = errors.New("callback data превышает лимит Telegram")

// Selection — содержимое токена выбора.
type Selection struct {
	OwnerID  int64
	RecordID int64
}

// SelectionCodec шифрует и расшифровывает токены выбора.
type SelectionCodec struct {
	gcm cipher.AEAD
}

// NewSelectionCodec создаёт кодек.
// secret — base64 32-байтового ключа или произвольная строка (хешируется SHA-256).
// Пустой secret — случайный ключ: токены перестают действовать после рестарта.
func NewSelectionCodec(secret string) (*SelectionCodec, error) {
	var keyBytes []byte

	if secret == "" {
		keyBytes = make([]byte, 32)
		if _, err := io.ReadFull(rand.Reader, keyBytes); err != nil {
			return nil, fmt.Errorf("ошибка генерации ключа токенов: %w", err)
		}
	} else {
		var err error
		keyBytes, err = base64.StdEncoding.DecodeString(secret)
		if err != nil || len(keyBytes) != 32 {
			h := sha256.Sum256([]byte(secret))
			keyBytes = h[:]
		}
	}

	block, err := aes.NewCipher(keyBytes)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания AES cipher: %w", err)
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания GCM: %w", err)
	}

	return &SelectionCodec{gcm: gcm}, nil
}

// Encode возвращает callback data вида "f:<base64url>" длиной 61 байт.
func (c *SelectionCodec) Encode(sel Selection) (string, error) {
	plaintext := make([]byte, 16)
	binary.BigEndian.PutUint64(plaintext[:8], uint64(sel.OwnerID))
	binary.BigEndian.PutUint64(plaintext[8:], uint64(sel.RecordID))

	nonce := make([]byte, c.gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("ошибка генерации nonce: %w", err)
	}

	// nonce prepended к ciphertext
	sealed := c.gcm.Seal(nonce, nonce, plaintext, nil)
	data := SelectionPrefix + base64.RawURLEncoding.EncodeToString(sealed)
	if len(data) > MaxCallbackData {
		return "", fmt.Errorf("%w: %d байт", ErrCallbackDataTooLong, len(data))
	}
	return data, nil
}

// Decode расшифровывает callback data, выпущенную Encode.
func (c *SelectionCodec) Decode(data string) (Selection, error) {
	if len(data) > MaxCallbackData {
		return Selection{}, fmt.Errorf("%w: %w", ErrInvalidToken, ErrCallbackDataTooLong)
	}
	raw, ok := strings.CutPrefix(data, SelectionPrefix)
	if !ok {
		return Selection{}, ErrInvalidToken
	}

	sealed, err := base64.RawURLEncoding.DecodeString(raw)
	if err != nil {
		return Selection{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	nonceSize := c.gcm.NonceSize()
	if len(sealed) < nonceSize {
		return Selection{}, ErrInvalidToken
	}

	nonce, ciphertext := sealed[:nonceSize], sealed[nonceSize:]
	plaintext, err := c.gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil || len(plaintext) != 16 {
		return Selection{}, ErrInvalidToken
	}

	return Selection{
		OwnerID:  int64(binary.BigEndian.Uint64(plaintext[:8])),
		RecordID: int64(binary.BigEndian.Uint64(plaintext[8:])),
	}, nil
}

// PageData возвращает callback data кнопки пагинации.
func PageData(offset int) string {
	return PagePrefix + strconv.Itoa(offset)
}

// ParsePageData разбирает callback data кнопки пагинации.
func ParsePageData(data string) (int, bool) {
	raw, ok := strings.CutPrefix(data, PagePrefix)
	if !ok {
		return 0, false
	}
	offset, err := strconv.Atoi(raw)
	if err != nil || offset < 0 {
		return 0, false
	}
	return offset, true
}
