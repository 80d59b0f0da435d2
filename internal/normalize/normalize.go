package normalize

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

var spaces = regexp.MustCompile(`\s+`)

type Normalizer struct {
	trimNBSP       bool
	collapseSpaces bool
}

func NewNormalizer(trimNBSP, collapseSpaces bool) *Normalizer {
	return &Normalizer{
		trimNBSP:       trimNBSP,
		collapseSpaces: collapseSpaces,
	}
}

// CleanText чистит текст, прочитанный со страницы
func (n *Normalizer) CleanText(text string) string {
	if n.trimNBSP {
		// Заменяем NBSP (\u00A0) на обычный пробел
		text = strings.ReplaceAll(text, "\u00A0", " ")
	}

	if n.collapseSpaces {
		text = spaces.ReplaceAllString(text, " ")
	}

	return strings.TrimSpace(text)
}

// TruncatePreview обрезает текст до maxChars рун для логов
func TruncatePreview(text string, maxChars int) string {
	if maxChars <= 0 || utf8.RuneCountInString(text) <= maxChars {
		return text
	}

	runes := []rune(text)
	truncated := string(runes[:maxChars])

	// Находим последний пробел перед лимитом
	if lastSpace := strings.LastIndex(truncated, " "); lastSpace > 0 {
		return truncated[:lastSpace] + "…"
	}

	return truncated + "…"
}
