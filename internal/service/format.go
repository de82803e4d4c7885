// format.go — форматирование размеров, имён и времени для ответов.
package service

import (
	"fmt"
	"math"
	"time"
	"unicode/utf8"

	"github.com/bigkaa/goartstore/filebot/internal/domain/model"
)

// UnknownName — подпись файла без имени.
const UnknownName = "unknown_file"

// maxLabelName — максимальная длина имени файла в подписи кнопки (в рунах).
const maxLabelName = 48

// sizeUnits — единицы с основанием 1024.
var sizeUnits = []string{"KB", "MB", "GB", "TB"}

// HumanSize форматирует размер в байтах: "512 B", "1.0 KB", "2.5 MB".
func HumanSize(n int64) string {
	if n < 1024 {
		return fmt.Sprintf("%d B", n)
	}
	v := float64(n) / 1024
	unit := 0
	// Единица выбирается по округлённому значению: 1048575 B — "1.0 MB", а не "1024.0 KB".
	for math.Round(v*10)/10 >= 1024 && unit < len(sizeUnits)-1 {
		v /= 1024
		unit++
	}
	return fmt.Sprintf("%.1f %s", v, sizeUnits[unit])
}

// sizeText — размер для текста подтверждения ("unknown", если неизвестен).
func sizeText(size *int64) string {
	if size == nil {
		return "unknown"
	}
	return HumanSize(*size)
}

// displayName возвращает имя записи или UnknownName.
func displayName(f *model.FileRecord) string {
	if f.DisplayName == "" {
		return UnknownName
	}
	return f.DisplayName
}

// ButtonLabel — подпись кнопки листинга: "<имя> (<размер>)".
// При неизвестном размере — только имя.
func ButtonLabel(f *model.FileRecord) string {
	name := displayName(f)
	if utf8.RuneCountInString(name) > maxLabelName {
		runes := []rune(name)
		name = string(runes[:maxLabelName-1]) + "…"
	}
	if f.ByteSize == nil {
		return name
	}
	return fmt.Sprintf("%s (%s)", name, HumanSize(*f.ByteSize))
}

// storedAt форматирует время сохранения записи (UTC).
func storedAt(t time.Time) string {
	return t.UTC().Format("2006-01-02 15:04") + " UTC"
}
