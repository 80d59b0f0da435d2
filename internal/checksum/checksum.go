package checksum

import (
	"crypto/sha256"
	"fmt"
	"strings"
)

type Generator struct{}

func NewGenerator() *Generator {
	return &Generator{}
}

// RowHash генерирует SHA256 от значений строки выгрузки
// Формула: SHA256(v1|v2|...|vn), nil → пустая строка
func (g *Generator) RowHash(values []any) string {
	parts := make([]string, len(values))
	for i, v := range values {
		if v == nil {
			continue
		}
		parts[i] = fmt.Sprint(v)
	}

	hash := sha256.Sum256([]byte(strings.Join(parts, "|")))

	return fmt.Sprintf("%x", hash)
}

// VerifyRowHash проверяет соответствие хеша
func (g *Generator) VerifyRowHash(expectedHash string, values []any) bool {
	return g.RowHash(values) == expectedHash
}
